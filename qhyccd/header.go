package qhyccd

import (
	"time"

	"github.com/astrogo/fitsio"
	"github.com/nasa-jpl/golab-qhyccd/camera"
)

// CollectHeaderMetadata satisfies camera.MetadataMaker and makes a stack of FITS cards
func (c *Camera) CollectHeaderMetadata() []fitsio.Card {
	c.mu.Lock()
	defer c.mu.Unlock()

	// plow through errors, the header is best effort
	var (
		metaerr string
		fw      string
	)
	if done, err := c.guard("collect header metadata", liveStates...); err != nil {
		metaerr = err.Error()
	} else {
		fw, err = c.firmwareVersion()
		done()
		if err != nil {
			metaerr = err.Error()
		}
	}

	texp := c.params[ControlExposure] / 1e6 // us => s
	bin := c.bin
	if bin.H == 0 {
		bin = camera.Binning{H: 1, V: 1}
	}

	return []fitsio.Card{
		// header to the header
		{Name: "HDRVER", Value: "QHY-1", Comment: "header version"},
		{Name: "WRAPVER", Value: WRAPVER, Comment: "wrapper library code version"},
		{Name: "METAERR", Value: metaerr, Comment: "error encountered gathering metadata"},
		{Name: "CAMMODL", Value: c.id.Model(), Comment: "camera model"},
		{Name: "CAMID", Value: c.id.String(), Comment: "camera model and serial number"},
		{Name: "FIRMWARE", Value: fw, Comment: "camera firmware version"},
		{Name: "STRMMODE", Value: c.streamMode.String(), Comment: "stream mode"},
		{Name: "READMODE", Value: int(c.readMode), Comment: "read mode"},
		{Name: "BITDEPTH", Value: int(c.bits), Comment: "transfer bit depth"},

		{Name: "DATE", Value: time.Now().UTC().Format("2006-01-02T15:04:05")},

		// exposure parameters
		{Name: "EXPTIME", Value: texp, Comment: "exposure time, seconds"},
		{Name: "GAIN", Value: c.params[ControlGain], Comment: "camera gain, native units"},
		{Name: "OFFSET", Value: c.params[ControlOffset], Comment: "camera offset, native units"},
		{Name: "USBTRAF", Value: c.params[ControlUsbTraffic], Comment: "USB traffic setting"},

		// aoi parameters
		{Name: "AOIL", Value: c.roi.Left, Comment: "0-based left pixel of the AOI"},
		{Name: "AOIT", Value: c.roi.Top, Comment: "0-based top pixel of the AOI"},
		{Name: "AOIW", Value: c.roi.Width, Comment: "AOI width, px"},
		{Name: "AOIH", Value: c.roi.Height, Comment: "AOI height, px"},
		{Name: "AOIB", Value: bin.HxV(), Comment: "AOI Binning, HxV"},
		{Name: "DEBAYER", Value: c.debayer, Comment: "library debayering on (true) or off"},
	}
}
