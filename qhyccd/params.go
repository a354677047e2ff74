package qhyccd

import (
	"math"
	"sort"

	"github.com/nasa-jpl/golab-qhyccd/camera"
	"github.com/nasa-jpl/golab-qhyccd/util"
	"github.com/pkg/errors"
)

// SetParameter writes a numeric control, e.g. ControlGain or ControlExposure
// (microseconds).  It does not ask the camera whether f is supported; the
// library does not reliably reject unsupported controls, so callers must
// check IsSupported first or use SetSupportedParameter.
func (c *Camera) SetParameter(f Feature, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, err := c.guard("set parameter", StateInitialized, StateCapturing)
	if err != nil {
		return err
	}
	defer done()
	return c.setParameter(f, value)
}

// SetSupportedParameter is SetParameter behind an IsSupported check.
// Unsupported features fail with ErrUnsupportedFeature without being written.
func (c *Camera) SetSupportedParameter(f Feature, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, err := c.guard("set parameter", StateInitialized, StateCapturing)
	if err != nil {
		return err
	}
	defer done()
	if _, ok := c.controlStatus(f); !ok {
		return errors.Wrapf(ErrUnsupportedFeature, "%s", f)
	}
	return c.setParameter(f, value)
}

func (c *Camera) setParameter(f Feature, value float64) error {
	if !f.Known() {
		return errors.Wrapf(ErrUnknownFeature, "code %d", f.Code())
	}
	if err := c.sdk.check(OpParameterSet, c.sdk.native.SetParam(c.handle, f.Code(), value)); err != nil {
		return errors.Wrapf(err, "%s=%v", f, value)
	}
	c.params[f] = value
	if f == ControlTransferbit {
		c.bits = uint32(value)
		c.imageSize = 0
	}
	return nil
}

// Parameter returns the last value written for f by this session
func (c *Camera) Parameter(f Feature) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.params[f]
	if !ok {
		return 0, errors.Wrapf(ErrParameterNotSet, "%s", f)
	}
	return v, nil
}

// SetBitMode sets the transfer depth, usually 8 or 16
func (c *Camera) SetBitMode(bits uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, err := c.guard("set bit mode", StateInitialized)
	if err != nil {
		return err
	}
	defer done()
	if bits == 0 {
		return errors.Wrap(ErrInvalidArgument, "bit mode 0")
	}
	if err := c.sdk.check(OpBitModeSet, c.sdk.native.SetBitsMode(c.handle, bits)); err != nil {
		return err
	}
	c.bits = bits
	c.imageSize = 0
	return nil
}

// BitMode returns the transfer depth last set, or 0 if it never was
func (c *Camera) BitMode() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bits
}

// SetBinMode sets the binning factors
func (c *Camera) SetBinMode(x, y uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, err := c.guard("set bin mode", StateInitialized)
	if err != nil {
		return err
	}
	defer done()
	if x == 0 || y == 0 {
		return errors.Wrapf(ErrInvalidArgument, "bin mode %dx%d", x, y)
	}
	if err := c.sdk.check(OpBinModeSet, c.sdk.native.SetBinMode(c.handle, x, y)); err != nil {
		return err
	}
	c.bin = camera.Binning{H: int(x), V: int(y)}
	c.imageSize = 0
	return nil
}

// SetBinning is SetBinMode for a camera.Binning
func (c *Camera) SetBinning(b camera.Binning) error {
	if b.H <= 0 || b.V <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "bin mode %s", b.HxV())
	}
	return c.SetBinMode(uint32(b.H), uint32(b.V))
}

// GetBinning returns the binning last set
func (c *Camera) GetBinning() (camera.Binning, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bin.H == 0 {
		return camera.Binning{}, errors.Wrap(ErrParameterNotSet, "binning")
	}
	return c.bin, nil
}

// SetROI sets the readout region.  When the effective area has been queried
// the region must lie inside it.
func (c *Camera) SetROI(aoi camera.AOI) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, err := c.guard("set ROI", StateInitialized)
	if err != nil {
		return err
	}
	defer done()
	if aoi.Left < 0 || aoi.Top < 0 || aoi.Width <= 0 || aoi.Height <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "ROI %v", aoi)
	}
	// the library takes uint32, and the far edges must fit too
	if int64(aoi.Left)+int64(aoi.Width) > math.MaxUint32 || int64(aoi.Top)+int64(aoi.Height) > math.MaxUint32 {
		return errors.Wrapf(ErrInvalidArgument, "ROI %v exceeds 32 bits", aoi)
	}
	if c.effective != nil && !c.effective.Contains(aoi) {
		return errors.Wrapf(ErrROIOutOfBounds, "ROI %v, effective area %v", aoi, *c.effective)
	}
	code := c.sdk.native.SetResolution(c.handle,
		uint32(aoi.Left), uint32(aoi.Top), uint32(aoi.Width), uint32(aoi.Height))
	if err := c.sdk.check(OpROISet, code); err != nil {
		return err
	}
	c.roi = aoi
	c.roiSet = true
	c.imageSize = 0
	return nil
}

// GetAOI returns the region last set by SetROI
func (c *Camera) GetAOI() (camera.AOI, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.roiSet {
		return camera.AOI{}, errors.Wrap(ErrParameterNotSet, "ROI")
	}
	return c.roi, nil
}

// SetDebayer turns the library's color reconstruction on or off
func (c *Camera) SetDebayer(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, err := c.guard("set debayer", StateInitialized)
	if err != nil {
		return err
	}
	defer done()
	if err := c.sdk.check(OpDebayerSet, c.sdk.native.SetDebayer(c.handle, on)); err != nil {
		return err
	}
	c.debayer = on
	c.imageSize = 0
	return nil
}

// Configure sets many controls at once.  Keys are vendor control names such
// as "CONTROL_GAIN"; values are numbers.  Each control is checked with
// IsSupported before it is written, and every failure is reported.
func (c *Camera) Configure(settings map[string]interface{}) error {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		f, err := ParseFeature(k)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		v, err := toFloat(settings[k])
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "%s", k))
			continue
		}
		errs = append(errs, c.SetSupportedParameter(f, v))
	}
	return util.MergeErrors(errs)
}

func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	return 0, errors.Wrapf(ErrInvalidArgument, "value %v of type %T", v, v)
}
