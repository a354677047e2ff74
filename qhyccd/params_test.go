package qhyccd

import (
	"math"
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasa-jpl/golab-qhyccd/camera"
)

func TestGatedSetNeverReachesNative(t *testing.T) {
	m, cam := initMock(t, SingleFrame)
	delete(m.Supported, ControlOffset)

	assert.False(t, cam.IsSupported(ControlOffset))
	err := cam.SetSupportedParameter(ControlOffset, 140)
	assert.True(t, errors.Is(err, ErrUnsupportedFeature))
	assert.Equal(t, 0, m.CallCount("SetParam"))
	_, err = cam.Parameter(ControlOffset)
	assert.True(t, errors.Is(err, ErrParameterNotSet))
}

func TestSetParameterDoesNotGate(t *testing.T) {
	m, cam := initMock(t, SingleFrame)
	delete(m.Supported, ControlOffset)
	// the caller owns the support check; the write goes through
	require.NoError(t, cam.SetParameter(ControlOffset, 140))
	assert.Equal(t, 1, m.CallCount("SetParam"))
	assert.Equal(t, 0, m.CallCount("IsControlAvailable"))
}

func TestSetParameterCachesValue(t *testing.T) {
	m, cam := initMock(t, SingleFrame)
	_, err := cam.Parameter(ControlGain)
	assert.True(t, errors.Is(err, ErrParameterNotSet))

	require.NoError(t, cam.SetSupportedParameter(ControlGain, 10))
	v, err := cam.Parameter(ControlGain)
	require.NoError(t, err)
	assert.Equal(t, 10., v)

	h := cam.handle
	nv, ok := m.Param(h, ControlGain)
	assert.True(t, ok)
	assert.Equal(t, 10., nv)
}

func TestSetParameterFailure(t *testing.T) {
	m, cam := initMock(t, SingleFrame)
	m.FailOn["SetParam"] = 0x44
	err := cam.SetParameter(ControlExposure, 2000)
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, OpParameterSet, e.Op)
	assert.EqualValues(t, 0x44, e.Code)
	assert.Contains(t, err.Error(), "CONTROL_EXPOSURE=2000")
	_, err = cam.Parameter(ControlExposure)
	assert.True(t, errors.Is(err, ErrParameterNotSet))
}

func TestSetParameterRejectsUnknownFeature(t *testing.T) {
	m, cam := initMock(t, SingleFrame)
	assert.True(t, errors.Is(cam.SetParameter(Feature(38), 1), ErrUnknownFeature))
	assert.Equal(t, 0, m.CallCount("SetParam"))
}

func TestSetParameterNeedsInitialize(t *testing.T) {
	m, _, cam := openMock(t)
	assert.True(t, errors.Is(cam.SetParameter(ControlGain, 1), ErrInvalidState))
	assert.Equal(t, 0, m.CallCount("SetParam"))
}

func TestGeometryRejectsZeros(t *testing.T) {
	m, cam := initMock(t, SingleFrame)
	assert.True(t, errors.Is(cam.SetBitMode(0), ErrInvalidArgument))
	assert.True(t, errors.Is(cam.SetBinMode(0, 1), ErrInvalidArgument))
	assert.True(t, errors.Is(cam.SetBinning(camera.Binning{H: 1}), ErrInvalidArgument))
	assert.True(t, errors.Is(cam.SetROI(camera.AOI{Width: 0, Height: 10}), ErrInvalidArgument))
	assert.True(t, errors.Is(cam.SetROI(camera.AOI{Left: -1, Width: 10, Height: 10}), ErrInvalidArgument))
	assert.Equal(t, 0, m.CallCount("SetBitsMode"))
	assert.Equal(t, 0, m.CallCount("SetBinMode"))
	assert.Equal(t, 0, m.CallCount("SetResolution"))
}

func TestGeometryFailures(t *testing.T) {
	_, cam := initMock(t, SingleFrame)
	assert.True(t, IsOp(cam.SetBitMode(12), OpBitModeSet))
	assert.True(t, IsOp(cam.SetBinMode(2, 1), OpBinModeSet))
	assert.True(t, IsOp(cam.SetDebayer(true), OpDebayerSet))
	// no effective area queried, so the library is the one to refuse
	assert.True(t, IsOp(cam.SetROI(camera.AOI{Left: 3000, Width: 100, Height: 100}), OpROISet))
}

func TestROIMustFitUint32(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("int cannot exceed 32 bits")
	}
	m, cam := initMock(t, SingleFrame)
	var wide, edge int64 = 1<<32 + 64, math.MaxUint32 - 10
	rois := []camera.AOI{
		{Width: int(wide), Height: 48},
		{Height: int(wide), Width: 48},
		{Left: int(edge), Width: 64, Height: 48},
		{Top: int(edge), Width: 64, Height: 48},
	}
	for _, roi := range rois {
		assert.True(t, errors.Is(cam.SetROI(roi), ErrInvalidArgument), "%v", roi)
	}
	assert.Equal(t, 0, m.CallCount("SetResolution"))
	_, err := cam.GetAOI()
	assert.True(t, errors.Is(err, ErrParameterNotSet))
}

func TestROIMustBeInsideEffectiveArea(t *testing.T) {
	m, cam := initMock(t, SingleFrame)
	m.Effective = Area{StartX: 16, StartY: 8, Width: 3000, Height: 2000}
	eff, err := cam.EffectiveArea()
	require.NoError(t, err)

	require.NoError(t, cam.SetROI(eff))
	aoi, err := cam.GetAOI()
	require.NoError(t, err)
	assert.Equal(t, eff, aoi)

	outside := []camera.AOI{
		{Left: 0, Top: 8, Width: 100, Height: 100},
		{Left: 16, Top: 8, Width: 3001, Height: 100},
		{Left: 16, Top: 1999, Width: 100, Height: 10},
	}
	for _, roi := range outside {
		assert.True(t, errors.Is(cam.SetROI(roi), ErrROIOutOfBounds), "%v", roi)
	}
	assert.Equal(t, 1, m.CallCount("SetResolution"))
}

func TestGeometryNeedsInitializedNotCapturing(t *testing.T) {
	_, cam := initMock(t, SingleFrame)
	require.NoError(t, cam.StartSingleExposure())
	assert.True(t, errors.Is(cam.SetBitMode(16), ErrInvalidState))
	assert.True(t, errors.Is(cam.SetBinMode(1, 1), ErrInvalidState))
	assert.True(t, errors.Is(cam.SetROI(camera.AOI{Width: 1, Height: 1}), ErrInvalidState))
	assert.True(t, errors.Is(cam.SetDebayer(false), ErrInvalidState))
	// controls may still be written mid exposure
	assert.NoError(t, cam.SetParameter(ControlGain, 3))
}

func TestBinningRoundTrip(t *testing.T) {
	_, cam := initMock(t, SingleFrame)
	_, err := cam.GetBinning()
	assert.True(t, errors.Is(err, ErrParameterNotSet))
	require.NoError(t, cam.SetBinning(camera.Binning{H: 2, V: 2}))
	b, err := cam.GetBinning()
	require.NoError(t, err)
	assert.Equal(t, "2x2", b.HxV())
}

func TestConfigure(t *testing.T) {
	m, cam := initMock(t, SingleFrame)
	err := cam.Configure(map[string]interface{}{
		"CONTROL_GAIN":       10,
		"CONTROL_OFFSET":     140.,
		"CONTROL_USBTRAFFIC": 255,
		"CONTROL_WBR":        5,
		"CONTROL_NOPE":       1,
		"CONTROL_EXPOSURE":   "fast",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFeature))
	assert.True(t, errors.Is(err, ErrUnknownFeature))
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	for f, want := range map[Feature]float64{ControlGain: 10, ControlOffset: 140, ControlUsbTraffic: 255} {
		v, err := cam.Parameter(f)
		require.NoError(t, err, f.String())
		assert.Equal(t, want, v)
	}
	assert.Equal(t, 3, m.CallCount("SetParam"))
}

func TestConfigureAllGood(t *testing.T) {
	_, cam := initMock(t, SingleFrame)
	assert.NoError(t, cam.Configure(map[string]interface{}{"CONTROL_GAIN": 1, "CONTROL_DDR": true}))
}
