package qhyccd

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openMock returns an opened, unconfigured camera on a fresh mock
func openMock(t *testing.T) (*Mock, *SDK, *Camera) {
	t.Helper()
	m, sdk := newMockSDK()
	require.NoError(t, sdk.Init())
	n, err := sdk.Scan()
	require.NoError(t, err)
	require.Equal(t, 1, n)
	id, err := sdk.CameraID(0)
	require.NoError(t, err)
	cam, err := sdk.Open(id)
	require.NoError(t, err)
	require.Equal(t, StateOpened, cam.State())
	return m, sdk, cam
}

// initMock returns a camera initialized in the given stream mode
func initMock(t *testing.T, mode StreamMode) (*Mock, *Camera) {
	t.Helper()
	m, _, cam := openMock(t)
	require.NoError(t, cam.SetStreamMode(mode))
	require.NoError(t, cam.SetReadMode(0))
	require.NoError(t, cam.Initialize())
	require.Equal(t, StateInitialized, cam.State())
	return m, cam
}

func ExampleDecodeFirmware() {
	fmt.Println(DecodeFirmware(0x22, 0x05))
	fmt.Println(DecodeFirmware(0xA3, 0x07))
	// Output:
	// Firmware version: 2018_2_5
	// Firmware version: 2010_3_7
}

func TestDecodeFirmwareYearBranch(t *testing.T) {
	for hi := 0; hi < 16; hi++ {
		b0 := byte(hi<<4 | 0x3)
		year := hi
		if hi <= 9 {
			year = hi + 0x10
		}
		want := fmt.Sprintf("Firmware version: 20%d_3_12", year)
		assert.Equal(t, want, DecodeFirmware(b0, 12), "high nibble %x", hi)
	}
}

func TestFirmwareVersion(t *testing.T) {
	_, _, cam := openMock(t)
	fw, err := cam.FirmwareVersion()
	require.NoError(t, err)
	assert.Equal(t, "Firmware version: 2022_9_5", fw)
}

func TestFirmwareVersionFailure(t *testing.T) {
	m, _, cam := openMock(t)
	m.FailOn["FirmwareVersion"] = Failure
	_, err := cam.FirmwareVersion()
	assert.True(t, IsOp(err, OpFirmwareVersionRead))
}

func TestOpenFailure(t *testing.T) {
	m, sdk := newMockSDK()
	require.NoError(t, sdk.Init())
	_, err := sdk.Scan()
	require.NoError(t, err)
	id, err := sdk.CameraID(0)
	require.NoError(t, err)
	m.FailOn["Open"] = 0
	_, err = sdk.Open(id)
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, OpOpen, e.Op)
	assert.True(t, e.Generic())
}

func TestOpenUnknownID(t *testing.T) {
	_, sdk := newMockSDK()
	require.NoError(t, sdk.Init())
	id, err := NewID("QHY600M-0000000000000000")
	require.NoError(t, err)
	_, err = sdk.Open(id)
	assert.True(t, IsOp(err, OpOpen))
}

func TestOpenNilID(t *testing.T) {
	m, sdk := newMockSDK()
	require.NoError(t, sdk.Init())
	_, err := sdk.Open(nil)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	cam := sdk.NewCamera(nil)
	assert.True(t, errors.Is(cam.Open(), ErrInvalidArgument))
	assert.Equal(t, StateCreated, cam.State())
	assert.Equal(t, 0, m.CallCount("Open"))

	var id *ID
	assert.Equal(t, [IDLength]byte{}, id.Bytes())
	assert.Equal(t, "", id.Model())
}

func TestCloseTwiceIsStateError(t *testing.T) {
	m, _, cam := openMock(t)
	require.NoError(t, cam.Close())
	assert.Equal(t, StateClosed, cam.State())
	err := cam.Close()
	var se *StateError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StateClosed, se.State)
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.Equal(t, 1, m.CallCount("Close"))
	assert.Equal(t, 0, m.OpenHandles())
}

func TestCloseFailureLeavesSessionOpen(t *testing.T) {
	m, _, cam := openMock(t)
	m.FailOn["Close"] = 17
	err := cam.Close()
	assert.True(t, IsOp(err, OpClose))
	assert.Equal(t, StateOpened, cam.State())

	delete(m.FailOn, "Close")
	require.NoError(t, cam.Close())
	assert.Equal(t, StateClosed, cam.State())
}

func TestCloseFromCreatedIsLocal(t *testing.T) {
	m, sdk := newMockSDK()
	require.NoError(t, sdk.Init())
	id, err := NewID("QHY178M-222b16468c5966524")
	require.NoError(t, err)
	cam := sdk.NewCamera(id)
	assert.Equal(t, StateCreated, cam.State())
	require.NoError(t, cam.Close())
	assert.Equal(t, StateClosed, cam.State())
	assert.Equal(t, 0, m.CallCount("Close"))
	assert.True(t, errors.Is(cam.Open(), ErrInvalidState))
}

func TestNewCameraThenOpen(t *testing.T) {
	_, sdk := newMockSDK()
	require.NoError(t, sdk.Init())
	id, err := NewID("QHY178M-222b16468c5966524")
	require.NoError(t, err)
	cam := sdk.NewCamera(id)
	require.NoError(t, cam.Open())
	assert.Equal(t, StateOpened, cam.State())
	assert.True(t, errors.Is(cam.Open(), ErrInvalidState))
}

func TestIdentityUnchangedByOpenClose(t *testing.T) {
	_, _, cam := openMock(t)
	id := cam.ID()
	before := id.Bytes()
	require.NoError(t, cam.Close())
	assert.Equal(t, before, id.Bytes())
	assert.Same(t, id, cam.ID())
}

func TestNewIDRejectsBadLengths(t *testing.T) {
	_, err := NewID("")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	long := make([]byte, IDLength)
	for i := range long {
		long[i] = 'x'
	}
	_, err = NewID(string(long))
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestEqual(t *testing.T) {
	_, sdk, cam := openMock(t)
	assert.True(t, cam.Equal(cam))
	assert.False(t, cam.Equal(nil))

	// a second session on the same camera has a different handle
	other := sdk.NewCamera(cam.ID())
	require.NoError(t, other.Open())
	assert.False(t, cam.Equal(other))
}

func TestInitializeNeedsStreamMode(t *testing.T) {
	m, _, cam := openMock(t)
	assert.True(t, errors.Is(cam.Initialize(), ErrInvalidState), "from opened")

	require.NoError(t, cam.SetReadMode(0))
	assert.Equal(t, StateStreamConfigured, cam.State())
	assert.True(t, errors.Is(cam.Initialize(), ErrInvalidState), "read mode alone")
	assert.Equal(t, 0, m.CallCount("InitCamera"))

	require.NoError(t, cam.SetStreamMode(SingleFrame))
	require.NoError(t, cam.Initialize())
	assert.True(t, errors.Is(cam.Initialize(), ErrInvalidState), "only once")
	assert.Equal(t, 1, m.CallCount("InitCamera"))
}

func TestInitializeFailureIsNotRetried(t *testing.T) {
	m, _, cam := openMock(t)
	require.NoError(t, cam.SetStreamMode(Live))
	m.FailOn["InitCamera"] = 0x21
	err := cam.Initialize()
	assert.True(t, IsOp(err, OpCameraInit))
	assert.Equal(t, StateStreamConfigured, cam.State())
	assert.Equal(t, 1, m.CallCount("InitCamera"))
}

func TestStreamModeFixedAfterInitialize(t *testing.T) {
	_, cam := initMock(t, SingleFrame)
	assert.True(t, errors.Is(cam.SetStreamMode(Live), ErrInvalidState))
	assert.True(t, errors.Is(cam.SetReadMode(1), ErrInvalidState))
	mode, ok := cam.StreamMode()
	assert.True(t, ok)
	assert.Equal(t, SingleFrame, mode)
}

func TestSetStreamModeRejectsUnknownMode(t *testing.T) {
	m, _, cam := openMock(t)
	assert.True(t, errors.Is(cam.SetStreamMode(StreamMode(7)), ErrInvalidArgument))
	assert.Equal(t, 0, m.CallCount("SetStreamMode"))
}

func TestQueriesNeedInitialize(t *testing.T) {
	m, _, cam := openMock(t)
	_, err := cam.ChipInfo()
	assert.True(t, errors.Is(err, ErrInvalidState))
	_, err = cam.EffectiveArea()
	assert.True(t, errors.Is(err, ErrInvalidState))
	_, err = cam.OverscanArea()
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.Equal(t, 0, m.CallCount("ChipInfo"))
}

func TestQueries(t *testing.T) {
	_, cam := initMock(t, SingleFrame)
	info, err := cam.ChipInfo()
	require.NoError(t, err)
	assert.Equal(t, ChipInfo{
		ChipWidth: 7.3344, ChipHeight: 4.9152,
		ImageWidth: 3056, ImageHeight: 2048,
		PixelWidth: 2.4, PixelHeight: 2.4,
		BitsPerPixel: 8}, info)

	// chip size is in mm, pixel pitch in um
	assert.InDelta(t, float64(info.ImageWidth)*info.PixelWidth/1000, info.ChipWidth, 1e-9)
	assert.InDelta(t, float64(info.ImageHeight)*info.PixelHeight/1000, info.ChipHeight, 1e-9)

	eff, err := cam.EffectiveArea()
	require.NoError(t, err)
	assert.Equal(t, 3056, eff.Width)
	assert.Equal(t, 2048, eff.Height)

	over, err := cam.OverscanArea()
	require.NoError(t, err)
	assert.Equal(t, 3056, over.Left)
	assert.Equal(t, 16, over.Width)
}

func TestQueryFailures(t *testing.T) {
	m, cam := initMock(t, SingleFrame)
	m.FailOn["ChipInfo"] = 2
	m.FailOn["EffectiveArea"] = 2
	m.FailOn["OverscanArea"] = 2
	_, err := cam.ChipInfo()
	assert.True(t, IsOp(err, OpChipInfoQuery))
	_, err = cam.EffectiveArea()
	assert.True(t, IsOp(err, OpEffectiveAreaQuery))
	_, err = cam.OverscanArea()
	assert.True(t, IsOp(err, OpOverscanAreaQuery))
}

func TestIsSupportedAsksEveryTime(t *testing.T) {
	m, _, cam := openMock(t)
	assert.True(t, cam.IsSupported(ControlGain))
	assert.True(t, cam.IsSupported(ControlGain))
	assert.Equal(t, 2, m.CallCount("IsControlAvailable"))

	// capabilities can change underneath us, e.g. after a firmware swap
	delete(m.Supported, ControlGain)
	assert.False(t, cam.IsSupported(ControlGain))
}

func TestIsSupportedFalseWhenAbsentOrClosed(t *testing.T) {
	_, _, cam := openMock(t)
	assert.False(t, cam.IsSupported(CamColor))
	assert.False(t, cam.IsSupported(ControlWbr))
	require.NoError(t, cam.Close())
	assert.False(t, cam.IsSupported(ControlGain))
}

func TestControlStatus(t *testing.T) {
	m, _, cam := openMock(t)
	m.Supported[CamColor] = true
	m.Status[CamColor] = uint32(BayerRG)
	st, ok := cam.ControlStatus(CamColor)
	require.True(t, ok)
	assert.Equal(t, BayerRG, BayerPattern(st))

	st, ok = cam.ControlStatus(ControlExposure)
	assert.True(t, ok)
	assert.Zero(t, st)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "stream configured", StateStreamConfigured.String())
	assert.Equal(t, "state(42)", State(42).String())
}
