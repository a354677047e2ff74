package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/theckman/yacspin"

	"github.com/nasa-jpl/golab-qhyccd/camera"
	"github.com/nasa-jpl/golab-qhyccd/imgrec"
	"github.com/nasa-jpl/golab-qhyccd/qhyccd"
	"github.com/nasa-jpl/golab-qhyccd/usbprobe"
	"github.com/nasa-jpl/golab-qhyccd/util"
)

// newNative picks the library implementation for c.  It is a variable so
// tests can hand in a prepared mock.
var newNative = func(c config) (qhyccd.Native, error) {
	if c.Mock {
		return qhyccd.NewMock(), nil
	}
	return qhyccd.DefaultNative()
}

// session is an opened SDK and camera.  release tears both down and
// reports the first error.
type session struct {
	sdk *qhyccd.SDK
	cam *qhyccd.Camera
	log *slog.Logger
}

func (s *session) release() error {
	var errs []error
	if s.cam != nil {
		if err := s.cam.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.sdk.Release(); err != nil {
		errs = append(errs, err)
	}
	return util.MergeErrors(errs)
}

// open brings up the library and opens camera c.Index in mode, through
// Initialize and the geometry queries
func open(c config, log *slog.Logger, mode qhyccd.StreamMode) (*session, camera.AOI, error) {
	native, err := newNative(c)
	if err != nil {
		return nil, camera.AOI{}, err
	}
	sdk := qhyccd.New(native, qhyccd.WithLogger(log))
	if err := sdk.Init(); err != nil {
		return nil, camera.AOI{}, err
	}
	s := &session{sdk: sdk, log: log}
	fail := func(err error) (*session, camera.AOI, error) {
		if rerr := s.release(); rerr != nil {
			log.Error("teardown after failure", "err", rerr)
		}
		return nil, camera.AOI{}, err
	}

	n, err := sdk.Scan()
	if err != nil {
		return fail(err)
	}
	log.Info("scanned", "cameras", n)
	id, err := sdk.CameraID(c.Index)
	if err != nil {
		return fail(err)
	}
	cam, err := sdk.Open(id)
	if err != nil {
		return fail(err)
	}
	s.cam = cam
	log.Info("opened", "id", id.String())

	need := qhyccd.CamSingleFrameMode
	if mode == qhyccd.Live {
		need = qhyccd.CamLiveVideoMode
	}
	if !cam.IsSupported(need) {
		return fail(errors.Wrapf(qhyccd.ErrUnsupportedFeature, "%s", mode))
	}
	if err := cam.SetStreamMode(mode); err != nil {
		return fail(err)
	}
	if err := cam.SetReadMode(c.ReadMode); err != nil {
		return fail(err)
	}
	if err := cam.Initialize(); err != nil {
		return fail(err)
	}

	over, err := cam.OverscanArea()
	if err != nil {
		return fail(err)
	}
	eff, err := cam.EffectiveArea()
	if err != nil {
		return fail(err)
	}
	chip, err := cam.ChipInfo()
	if err != nil {
		return fail(err)
	}
	log.Info("sensor", "overscan", over, "effective", eff,
		"chip", fmt.Sprintf("%gx%g mm", chip.ChipWidth, chip.ChipHeight),
		"pixel", fmt.Sprintf("%gx%g um", chip.PixelWidth, chip.PixelHeight))
	return s, eff, nil
}

// configure applies the settings in the order the camera expects them:
// controls, exposure, ROI, binning, then bit depth
func configure(cam *qhyccd.Camera, c config, eff camera.AOI) error {
	for _, p := range []struct {
		f qhyccd.Feature
		v float64
	}{
		{qhyccd.ControlUsbTraffic, c.USBTraffic},
		{qhyccd.ControlGain, c.Gain},
		{qhyccd.ControlOffset, c.Offset},
	} {
		err := cam.SetSupportedParameter(p.f, p.v)
		if errors.Is(err, qhyccd.ErrUnsupportedFeature) {
			continue
		}
		if err != nil {
			return err
		}
	}
	exp, err := time.ParseDuration(c.Exposure)
	if err != nil {
		return errors.Wrap(err, "exposure")
	}
	if err := cam.SetParameter(qhyccd.ControlExposure, util.DurationToMicros(exp)); err != nil {
		return err
	}
	if err := cam.SetROI(eff); err != nil {
		return err
	}
	if err := cam.SetBinMode(c.Bin, c.Bin); err != nil {
		return err
	}
	if cam.IsSupported(qhyccd.ControlTransferbit) {
		if err := cam.SetBitMode(c.Bits); err != nil {
			return err
		}
	}
	if len(c.Settings) > 0 {
		return cam.Configure(c.Settings)
	}
	return nil
}

// runSingle exposes one frame and records it, returning the file written.
// The spinner is drawn on spin.
func runSingle(c config, log *slog.Logger, spin io.Writer) (fn string, err error) {
	s, eff, err := open(c, log, qhyccd.SingleFrame)
	if err != nil {
		return "", err
	}
	defer func() {
		if rerr := s.release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	cam := s.cam
	if err := configure(cam, c, eff); err != nil {
		return "", err
	}

	spinner, err := yacspin.New(yacspin.Config{
		Writer:            spin,
		Frequency:         100 * time.Millisecond,
		CharSet:           yacspin.CharSets[14],
		Suffix:            " exposing",
		StopMessage:       "read out",
		StopCharacter:     "✓",
		StopFailMessage:   "failed",
		StopFailCharacter: "✗",
	})
	if err != nil {
		return "", err
	}
	if err := spinner.Start(); err != nil {
		return "", err
	}
	img, err := expose(cam)
	if err != nil {
		spinner.StopFail()
		return "", err
	}
	spinner.Stop()
	log.Info("frame", "width", img.Width, "height", img.Height, "bits", img.BitsPerPixel, "crc", img.Checksum())

	r := &imgrec.Recorder{Root: c.Recorder.Root, Prefix: c.Recorder.Prefix}
	return r.Record(cam.CollectHeaderMetadata(), img)
}

func expose(cam *qhyccd.Camera) (*qhyccd.ImageData, error) {
	if err := cam.StartSingleExposure(); err != nil {
		return nil, err
	}
	size, err := cam.ImageSize()
	if err != nil {
		return nil, err
	}
	return cam.SingleFrame(size)
}

// runLive streams c.Frames frames and records each, returning the files
// written so far even on error
func runLive(ctx context.Context, c config, log *slog.Logger) (files []string, err error) {
	s, eff, err := open(c, log, qhyccd.Live)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := s.release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	cam := s.cam
	if err := configure(cam, c, eff); err != nil {
		return nil, err
	}
	if err := cam.BeginLive(); err != nil {
		return nil, err
	}
	if _, err := cam.ImageSize(); err != nil {
		if eerr := cam.EndLive(); eerr != nil {
			log.Error("stopping live mode after failure", "err", eerr)
		}
		return nil, err
	}
	r := &imgrec.Recorder{Root: c.Recorder.Root, Prefix: c.Recorder.Prefix}
	err = cam.Stream(ctx, c.Frames, c.FPS, qhyccd.DefaultRetryPolicy, func(i int, img *qhyccd.ImageData) error {
		fn, err := r.Record(cam.CollectHeaderMetadata(), img)
		if err != nil {
			return err
		}
		log.Debug("recorded", "frame", i, "file", fn)
		files = append(files, fn)
		return nil
	})
	if eerr := cam.EndLive(); eerr != nil && err == nil {
		err = eerr
	}
	return files, err
}

func probe(w io.Writer) error {
	devs, err := usbprobe.List()
	if err != nil {
		return err
	}
	if len(devs) == 0 {
		fmt.Fprintln(w, "no QHYCCD devices found")
		return nil
	}
	for _, d := range devs {
		fmt.Fprintln(w, d)
	}
	return nil
}
