package qhyccd

import (
	"fmt"
	"sync"

	"github.com/nasa-jpl/golab-qhyccd/camera"
	"github.com/pkg/errors"
)

// State is where a camera session is in its life
type State int

const (
	// StateCreated has an identity but no handle
	StateCreated State = iota

	// StateOpened has a handle
	StateOpened

	// StateStreamConfigured has had its stream and/or read mode chosen
	StateStreamConfigured

	// StateInitialized has completed InitQHYCCD and may be configured
	StateInitialized

	// StateCapturing has an exposure or live stream in flight
	StateCapturing

	// StateClosed is terminal
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateOpened:
		return "opened"
	case StateStreamConfigured:
		return "stream configured"
	case StateInitialized:
		return "initialized"
	case StateCapturing:
		return "capturing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// liveStates are the states which hold a valid handle
var liveStates = []State{StateOpened, StateStreamConfigured, StateInitialized, StateCapturing}

// ChipInfo describes the sensor
type ChipInfo struct {
	// ChipWidth is the physical width of the sensor, mm
	ChipWidth float64

	// ChipHeight is the physical height of the sensor, mm
	ChipHeight float64

	// ImageWidth is the maximum image width, px
	ImageWidth uint32

	// ImageHeight is the maximum image height, px
	ImageHeight uint32

	// PixelWidth is the pixel pitch along x, um
	PixelWidth float64

	// PixelHeight is the pixel pitch along y, um
	PixelHeight float64

	// BitsPerPixel is the native depth of the sensor
	BitsPerPixel uint32
}

// Camera is one session with one physical camera.  It is made by SDK.Open
// (or SDK.NewCamera and Open) and ends with Close.
//
// Every method takes the session lock, so a Camera may be shared between
// goroutines but calls on it never overlap.
type Camera struct {
	mu sync.Mutex

	sdk    *SDK
	id     *ID
	handle Handle
	state  State

	streamMode StreamMode
	streamSet  bool
	readMode   uint32
	readSet    bool

	// params holds the last value successfully written for each feature.
	params map[Feature]float64

	bits    uint32
	bin     camera.Binning
	roi     camera.AOI
	roiSet  bool
	debayer bool

	// effective is the effective area, once queried
	effective *camera.AOI

	// imageSize is the last MemLength result; zero when stale
	imageSize int
}

// ID returns the shared identity of the camera
func (c *Camera) ID() *ID {
	return c.id
}

// State returns the current session state
func (c *Camera) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Equal is true when both sessions have the same identity and handle
func (c *Camera) Equal(other *Camera) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	c.mu.Lock()
	h := c.handle
	c.mu.Unlock()
	other.mu.Lock()
	oh := other.handle
	other.mu.Unlock()
	return c.id.Equal(other.id) && h == oh
}

func stateIn(s State, allowed []State) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}

// guard checks that the SDK is still alive and the session is in one of the
// allowed states.  On success the SDK read lock is held until done is called,
// so Release cannot run underneath a native call.  c.mu must be held.
func (c *Camera) guard(action string, allowed ...State) (done func(), err error) {
	c.sdk.mu.RLock()
	if c.sdk.released {
		c.sdk.mu.RUnlock()
		return nil, ErrSessionInvalidated
	}
	if !stateIn(c.state, allowed) {
		c.sdk.mu.RUnlock()
		return nil, &StateError{Action: action, State: c.state}
	}
	return c.sdk.mu.RUnlock, nil
}

// Open acquires a handle for a session made with SDK.NewCamera
func (c *Camera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateCreated {
		return &StateError{Action: "open", State: c.state}
	}
	h, err := c.sdk.openHandle(c.id)
	if err != nil {
		return err
	}
	c.handle = h
	c.state = StateOpened
	c.sdk.log.Debug("camera opened", "id", c.id.String())
	return nil
}

// Close releases the handle.  A second Close is an error and never reaches the
// library; if the library fails to close the camera, the session is unchanged.
// Closing a session whose SDK has been released only marks it closed.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateClosed:
		return &StateError{Action: "close", State: c.state}
	case StateCreated:
		c.state = StateClosed
		return nil
	}
	done, err := c.guard("close", liveStates...)
	if err == ErrSessionInvalidated {
		c.handle = InvalidHandle
		c.state = StateClosed
		return nil
	}
	if err != nil {
		return err
	}
	defer done()
	if err := c.sdk.check(OpClose, c.sdk.native.Close(c.handle)); err != nil {
		return err
	}
	c.handle = InvalidHandle
	c.state = StateClosed
	c.imageSize = 0
	c.sdk.log.Debug("camera closed", "id", c.id.String())
	return nil
}

// DecodeFirmware turns the first two bytes of the firmware buffer into the
// vendor's display string.  The year nibble is offset by 0x10 when it reads
// as a decimal digit and taken as is when it is A-F.
func DecodeFirmware(b0, b1 byte) string {
	year := b0 >> 4
	if year <= 9 {
		year += 0x10
	}
	return fmt.Sprintf("Firmware version: 20%d_%d_%d", year, b0&0x0F, b1)
}

// FirmwareVersion reads and decodes the camera firmware version
func (c *Camera) FirmwareVersion() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, err := c.guard("read firmware version", liveStates...)
	if err != nil {
		return "", err
	}
	defer done()
	return c.firmwareVersion()
}

func (c *Camera) firmwareVersion() (string, error) {
	buf, code := c.sdk.native.FirmwareVersion(c.handle)
	if err := c.sdk.check(OpFirmwareVersionRead, code); err != nil {
		return "", err
	}
	return DecodeFirmware(buf[0], buf[1]), nil
}

// SetStreamMode chooses between single frame and live capture.
// It must be called before Initialize.
func (c *Camera) SetStreamMode(m StreamMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, err := c.guard("set stream mode", StateOpened, StateStreamConfigured)
	if err != nil {
		return err
	}
	defer done()
	if m != SingleFrame && m != Live {
		return errors.Wrapf(ErrInvalidArgument, "stream mode %d", m)
	}
	if err := c.sdk.check(OpStreamModeSet, c.sdk.native.SetStreamMode(c.handle, uint8(m))); err != nil {
		return err
	}
	c.streamMode = m
	c.streamSet = true
	c.state = StateStreamConfigured
	return nil
}

// StreamMode returns the chosen stream mode and whether one has been chosen
func (c *Camera) StreamMode() (StreamMode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streamMode, c.streamSet
}

// SetReadMode selects one of the camera's readout modes.
// It must be called before Initialize.
func (c *Camera) SetReadMode(mode uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, err := c.guard("set read mode", StateOpened, StateStreamConfigured)
	if err != nil {
		return err
	}
	defer done()
	if err := c.sdk.check(OpReadModeSet, c.sdk.native.SetReadMode(c.handle, mode)); err != nil {
		return err
	}
	c.readMode = mode
	c.readSet = true
	c.state = StateStreamConfigured
	return nil
}

// Initialize runs the camera's own initialization.  A stream mode must have
// been chosen.  On failure the session is left as it was; it is never retried.
func (c *Camera) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, err := c.guard("initialize", StateStreamConfigured)
	if err != nil {
		return err
	}
	defer done()
	if !c.streamSet {
		return &StateError{Action: "initialize without a stream mode", State: c.state}
	}
	if err := c.sdk.check(OpCameraInit, c.sdk.native.InitCamera(c.handle)); err != nil {
		return err
	}
	c.state = StateInitialized
	c.imageSize = 0
	c.sdk.log.Debug("camera initialized", "id", c.id.String(), "streamMode", c.streamMode.String())
	return nil
}

// ChipInfo returns the sensor geometry
func (c *Camera) ChipInfo() (ChipInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, err := c.guard("query chip info", StateInitialized, StateCapturing)
	if err != nil {
		return ChipInfo{}, err
	}
	defer done()
	info, code := c.sdk.native.ChipInfo(c.handle)
	if err := c.sdk.check(OpChipInfoQuery, code); err != nil {
		return ChipInfo{}, err
	}
	return info, nil
}

func areaToAOI(a Area) camera.AOI {
	return camera.AOI{Left: int(a.StartX), Top: int(a.StartY), Width: int(a.Width), Height: int(a.Height)}
}

// OverscanArea returns the overscan region of the sensor
func (c *Camera) OverscanArea() (camera.AOI, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, err := c.guard("query overscan area", StateInitialized, StateCapturing)
	if err != nil {
		return camera.AOI{}, err
	}
	defer done()
	a, code := c.sdk.native.OverscanArea(c.handle)
	if err := c.sdk.check(OpOverscanAreaQuery, code); err != nil {
		return camera.AOI{}, err
	}
	return areaToAOI(a), nil
}

// EffectiveArea returns the light sensitive region of the sensor.
// Once it is known, SetROI refuses regions outside of it.
func (c *Camera) EffectiveArea() (camera.AOI, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, err := c.guard("query effective area", StateInitialized, StateCapturing)
	if err != nil {
		return camera.AOI{}, err
	}
	defer done()
	a, code := c.sdk.native.EffectiveArea(c.handle)
	if err := c.sdk.check(OpEffectiveAreaQuery, code); err != nil {
		return camera.AOI{}, err
	}
	aoi := areaToAOI(a)
	c.effective = &aoi
	return aoi, nil
}

// IsSupported asks the camera whether it has feature f.  The answer depends
// on model and firmware and is never cached.  Absence is not an error; a
// closed or invalidated session supports nothing.
func (c *Camera) IsSupported(f Feature) bool {
	_, ok := c.ControlStatus(f)
	return ok
}

// ControlStatus returns the raw availability value for f.  For most features
// it is zero; for some it carries a fact about the camera, e.g. the bayer
// pattern for CamColor or a StatusUSBAsync-style transport for ControlSpeed.
func (c *Camera) ControlStatus(f Feature) (ControlStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	done, err := c.guard("query feature", liveStates...)
	if err != nil {
		return 0, false
	}
	defer done()
	return c.controlStatus(f)
}

func (c *Camera) controlStatus(f Feature) (ControlStatus, bool) {
	code := c.sdk.native.IsControlAvailable(c.handle, f.Code())
	if code == Failure {
		c.sdk.log.Debug("feature not supported", "feature", f.String())
		return 0, false
	}
	return ControlStatus(code), true
}
