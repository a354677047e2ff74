package qhyccd

import (
	"encoding/binary"
	"sync"
)

// mockNotLive is returned by the mock for a live read with no live stream.
// It is a library-specific code, so it is not mistaken for "not ready".
const mockNotLive uint32 = 0x2001

// MockCall is one call made into a Mock
type MockCall struct {
	Name string
	Args []interface{}
}

// MockCamera is one simulated camera on the mock bus
type MockCamera struct {
	ID       string
	Firmware [2]byte
}

type mockDevice struct {
	cam *MockCamera

	streamMode  uint8
	readMode    uint32
	initialized bool

	roi        Area
	binX, binY uint32
	bits       uint32
	debayer    bool

	params map[uint32]float64

	exposed  bool
	live     bool
	notReady int
	frames   int
}

// Mock is an in-memory Native that behaves like libqhyccd with a QHY178M
// attached.  Its exported fields may be changed before use to shape the
// simulated hardware or to inject faults.
type Mock struct {
	sync.Mutex

	// Cameras are the devices a Scan finds
	Cameras []MockCamera

	// Version is reported by SDKVersion
	Version SDKVersion

	// Chip, Effective and Overscan describe every simulated sensor
	Chip      ChipInfo
	Effective Area
	Overscan  Area

	// Supported lists the features IsControlAvailable reports
	Supported map[Feature]bool

	// Status holds non-zero availability values, e.g. a BayerPattern for CamColor
	Status map[Feature]uint32

	// FailOn makes the named method return the given code instead of working
	FailOn map[string]uint32

	// NotReadyPolls is how many LiveFrame calls report not ready after each
	// BeginLive, and between frames
	NotReadyPolls int

	inited   bool
	released bool
	next     Handle
	open     map[Handle]*mockDevice
	calls    []MockCall
}

// NewMock returns a mock library with one QHY178M attached
func NewMock() *Mock {
	supported := make(map[Feature]bool)
	for _, f := range []Feature{
		ControlGain, ControlOffset, ControlExposure, ControlSpeed,
		ControlTransferbit, ControlUsbTraffic, ControlCurTemp, ControlCurPWM,
		ControlManulPWM, ControlCooler, ControlSt4Port, ControlDDR, ControlAmpv,
		CamBin1x1mode, CamBin2x2mode, CamBin3x3mode, CamBin4x4mode,
		Cam8bits, Cam16bits, CamSingleFrameMode, CamLiveVideoMode,
		CamChipTemperatureSensorInterface, CamIgnoreOverscanInterface,
		HasHardwareFrameCounter, OutputDataActualBits, OutputDataAlignment,
	} {
		supported[f] = true
	}
	return &Mock{
		Cameras: []MockCamera{{ID: "QHY178M-222b16468c5966524", Firmware: [2]byte{0x69, 0x05}}},
		Version: SDKVersion{Year: 23, Month: 9, Day: 6, Subday: 14},
		Chip: ChipInfo{
			ChipWidth: 7.3344, ChipHeight: 4.9152,
			ImageWidth: 3056, ImageHeight: 2048,
			PixelWidth: 2.4, PixelHeight: 2.4,
			BitsPerPixel: 8},
		Effective: Area{StartX: 0, StartY: 0, Width: 3056, Height: 2048},
		Overscan:  Area{StartX: 3056, StartY: 0, Width: 16, Height: 2048},
		Supported: supported,
		Status:    make(map[Feature]uint32),
		FailOn:    make(map[string]uint32),
		next:      0x1000,
		open:      make(map[Handle]*mockDevice),
	}
}

// record and fail must be called with the lock held
func (m *Mock) record(name string, args ...interface{}) {
	m.calls = append(m.calls, MockCall{Name: name, Args: args})
}

func (m *Mock) fail(name string) (uint32, bool) {
	code, ok := m.FailOn[name]
	return code, ok
}

// Calls returns a copy of every call made so far
func (m *Mock) Calls() []MockCall {
	m.Lock()
	defer m.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount is the number of calls made to the named method
func (m *Mock) CallCount(name string) int {
	m.Lock()
	defer m.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// OpenHandles is the number of cameras currently open
func (m *Mock) OpenHandles() int {
	m.Lock()
	defer m.Unlock()
	return len(m.open)
}

func (m *Mock) InitResource() uint32 {
	m.Lock()
	defer m.Unlock()
	m.record("InitResource")
	if code, ok := m.fail("InitResource"); ok {
		return code
	}
	m.inited = true
	return Success
}

func (m *Mock) ReleaseResource() uint32 {
	m.Lock()
	defer m.Unlock()
	m.record("ReleaseResource")
	if code, ok := m.fail("ReleaseResource"); ok {
		return code
	}
	m.released = true
	m.open = make(map[Handle]*mockDevice)
	return Success
}

func (m *Mock) SDKVersion() (year, month, day, subday, code uint32) {
	m.Lock()
	defer m.Unlock()
	m.record("SDKVersion")
	if code, ok := m.fail("SDKVersion"); ok {
		return 0, 0, 0, 0, code
	}
	v := m.Version
	return v.Year, v.Month, v.Day, v.Subday, Success
}

func (m *Mock) Scan() uint32 {
	m.Lock()
	defer m.Unlock()
	m.record("Scan")
	if code, ok := m.fail("Scan"); ok {
		return code
	}
	if !m.inited {
		return Failure
	}
	return uint32(len(m.Cameras))
}

func (m *Mock) CameraID(index uint32) ([IDLength]byte, uint32) {
	m.Lock()
	defer m.Unlock()
	m.record("CameraID", index)
	var buf [IDLength]byte
	if code, ok := m.fail("CameraID"); ok {
		return buf, code
	}
	if int(index) >= len(m.Cameras) {
		return buf, Failure
	}
	copy(buf[:], m.Cameras[index].ID)
	return buf, Success
}

func (m *Mock) Open(id [IDLength]byte) Handle {
	m.Lock()
	defer m.Unlock()
	m.record("Open", id)
	if _, ok := m.fail("Open"); ok {
		return InvalidHandle
	}
	for i := range m.Cameras {
		var want [IDLength]byte
		copy(want[:], m.Cameras[i].ID)
		if want != id {
			continue
		}
		h := m.next
		m.next++
		m.open[h] = &mockDevice{
			cam:    &m.Cameras[i],
			roi:    Area{Width: m.Chip.ImageWidth, Height: m.Chip.ImageHeight},
			binX:   1,
			binY:   1,
			bits:   8,
			params: make(map[uint32]float64),
		}
		return h
	}
	return InvalidHandle
}

func (m *Mock) device(h Handle) (*mockDevice, bool) {
	d, ok := m.open[h]
	return d, ok
}

func (m *Mock) Close(h Handle) uint32 {
	m.Lock()
	defer m.Unlock()
	m.record("Close", h)
	if code, ok := m.fail("Close"); ok {
		return code
	}
	if _, ok := m.device(h); !ok {
		return Failure
	}
	delete(m.open, h)
	return Success
}

func (m *Mock) FirmwareVersion(h Handle) ([firmwareBufLength]byte, uint32) {
	m.Lock()
	defer m.Unlock()
	m.record("FirmwareVersion", h)
	var buf [firmwareBufLength]byte
	if code, ok := m.fail("FirmwareVersion"); ok {
		return buf, code
	}
	d, ok := m.device(h)
	if !ok {
		return buf, Failure
	}
	buf[0], buf[1] = d.cam.Firmware[0], d.cam.Firmware[1]
	return buf, Success
}

func (m *Mock) IsControlAvailable(h Handle, feature uint32) uint32 {
	m.Lock()
	defer m.Unlock()
	m.record("IsControlAvailable", h, feature)
	if _, ok := m.device(h); !ok {
		return Failure
	}
	f := Feature(feature)
	if !m.Supported[f] {
		return Failure
	}
	return m.Status[f]
}

func (m *Mock) SetReadMode(h Handle, mode uint32) uint32 {
	m.Lock()
	defer m.Unlock()
	m.record("SetReadMode", h, mode)
	if code, ok := m.fail("SetReadMode"); ok {
		return code
	}
	d, ok := m.device(h)
	if !ok {
		return Failure
	}
	d.readMode = mode
	return Success
}

func (m *Mock) SetStreamMode(h Handle, mode uint8) uint32 {
	m.Lock()
	defer m.Unlock()
	m.record("SetStreamMode", h, mode)
	if code, ok := m.fail("SetStreamMode"); ok {
		return code
	}
	d, ok := m.device(h)
	if !ok || mode > 1 {
		return Failure
	}
	d.streamMode = mode
	return Success
}

func (m *Mock) InitCamera(h Handle) uint32 {
	m.Lock()
	defer m.Unlock()
	m.record("InitCamera", h)
	if code, ok := m.fail("InitCamera"); ok {
		return code
	}
	d, ok := m.device(h)
	if !ok {
		return Failure
	}
	d.initialized = true
	return Success
}

func (m *Mock) ChipInfo(h Handle) (ChipInfo, uint32) {
	m.Lock()
	defer m.Unlock()
	m.record("ChipInfo", h)
	if code, ok := m.fail("ChipInfo"); ok {
		return ChipInfo{}, code
	}
	if _, ok := m.device(h); !ok {
		return ChipInfo{}, Failure
	}
	return m.Chip, Success
}

func (m *Mock) OverscanArea(h Handle) (Area, uint32) {
	m.Lock()
	defer m.Unlock()
	m.record("OverscanArea", h)
	if code, ok := m.fail("OverscanArea"); ok {
		return Area{}, code
	}
	if _, ok := m.device(h); !ok {
		return Area{}, Failure
	}
	return m.Overscan, Success
}

func (m *Mock) EffectiveArea(h Handle) (Area, uint32) {
	m.Lock()
	defer m.Unlock()
	m.record("EffectiveArea", h)
	if code, ok := m.fail("EffectiveArea"); ok {
		return Area{}, code
	}
	if _, ok := m.device(h); !ok {
		return Area{}, Failure
	}
	return m.Effective, Success
}

func (m *Mock) SetBitsMode(h Handle, bits uint32) uint32 {
	m.Lock()
	defer m.Unlock()
	m.record("SetBitsMode", h, bits)
	if code, ok := m.fail("SetBitsMode"); ok {
		return code
	}
	d, ok := m.device(h)
	if !ok || (bits != 8 && bits != 16) {
		return Failure
	}
	d.bits = bits
	return Success
}

func (m *Mock) SetBinMode(h Handle, binX, binY uint32) uint32 {
	m.Lock()
	defer m.Unlock()
	m.record("SetBinMode", h, binX, binY)
	if code, ok := m.fail("SetBinMode"); ok {
		return code
	}
	d, ok := m.device(h)
	if !ok || binX != binY || binX < 1 || binX > 4 {
		return Failure
	}
	d.binX, d.binY = binX, binY
	return Success
}

func (m *Mock) SetResolution(h Handle, x, y, width, height uint32) uint32 {
	m.Lock()
	defer m.Unlock()
	m.record("SetResolution", h, x, y, width, height)
	if code, ok := m.fail("SetResolution"); ok {
		return code
	}
	d, ok := m.device(h)
	if !ok || width == 0 || height == 0 ||
		x+width > m.Chip.ImageWidth || y+height > m.Chip.ImageHeight {
		return Failure
	}
	d.roi = Area{StartX: x, StartY: y, Width: width, Height: height}
	return Success
}

func (m *Mock) SetDebayer(h Handle, on bool) uint32 {
	m.Lock()
	defer m.Unlock()
	m.record("SetDebayer", h, on)
	if code, ok := m.fail("SetDebayer"); ok {
		return code
	}
	d, ok := m.device(h)
	if !ok || (on && !m.Supported[CamColor]) {
		return Failure
	}
	d.debayer = on
	return Success
}

func (m *Mock) SetParam(h Handle, feature uint32, value float64) uint32 {
	m.Lock()
	defer m.Unlock()
	m.record("SetParam", h, feature, value)
	if code, ok := m.fail("SetParam"); ok {
		return code
	}
	d, ok := m.device(h)
	if !ok {
		return Failure
	}
	d.params[feature] = value
	if Feature(feature) == ControlTransferbit && (value == 8 || value == 16) {
		d.bits = uint32(value)
	}
	return Success
}

// Param is the value last written to feature on the camera open as h
func (m *Mock) Param(h Handle, f Feature) (float64, bool) {
	m.Lock()
	defer m.Unlock()
	d, ok := m.device(h)
	if !ok {
		return 0, false
	}
	v, ok := d.params[f.Code()]
	return v, ok
}

func (m *Mock) ExpSingleFrame(h Handle) uint32 {
	m.Lock()
	defer m.Unlock()
	m.record("ExpSingleFrame", h)
	if code, ok := m.fail("ExpSingleFrame"); ok {
		return code
	}
	d, ok := m.device(h)
	if !ok || !d.initialized || d.streamMode != uint8(SingleFrame) {
		return Failure
	}
	d.exposed = true
	return Success
}

func (d *mockDevice) geometry() FrameInfo {
	ch := uint32(1)
	if d.debayer {
		ch = 3
	}
	return FrameInfo{
		Width:        d.roi.Width / d.binX,
		Height:       d.roi.Height / d.binY,
		BitsPerPixel: d.bits,
		Channels:     ch,
	}
}

func (fi FrameInfo) bytes() int {
	return int(fi.Width) * int(fi.Height) * int(fi.Channels) * int(fi.BitsPerPixel) / 8
}

func (m *Mock) MemLength(h Handle) uint32 {
	m.Lock()
	defer m.Unlock()
	m.record("MemLength", h)
	if code, ok := m.fail("MemLength"); ok {
		return code
	}
	d, ok := m.device(h)
	if !ok {
		return Failure
	}
	return uint32(d.geometry().bytes())
}

// fill writes a ramp offset by the frame number, so consecutive frames differ
func (d *mockDevice) fill(buf []byte, fi FrameInfo) {
	n := fi.bytes()
	if fi.BitsPerPixel == 16 {
		for i := 0; i+1 < n; i += 2 {
			binary.LittleEndian.PutUint16(buf[i:], uint16(i/2+d.frames))
		}
	} else {
		for i := 0; i < n; i++ {
			buf[i] = byte(i + d.frames)
		}
	}
	d.frames++
}

func (m *Mock) SingleFrame(h Handle, buf []byte) (FrameInfo, uint32) {
	m.Lock()
	defer m.Unlock()
	m.record("SingleFrame", h, len(buf))
	if code, ok := m.fail("SingleFrame"); ok {
		return FrameInfo{}, code
	}
	d, ok := m.device(h)
	if !ok || !d.exposed {
		return FrameInfo{}, Failure
	}
	fi := d.geometry()
	if len(buf) < fi.bytes() {
		return FrameInfo{}, Failure
	}
	d.fill(buf, fi)
	d.exposed = false
	return fi, Success
}

func (m *Mock) BeginLive(h Handle) uint32 {
	m.Lock()
	defer m.Unlock()
	m.record("BeginLive", h)
	if code, ok := m.fail("BeginLive"); ok {
		return code
	}
	d, ok := m.device(h)
	if !ok || !d.initialized || d.streamMode != uint8(Live) {
		return Failure
	}
	d.live = true
	d.notReady = m.NotReadyPolls
	return Success
}

func (m *Mock) StopLive(h Handle) uint32 {
	m.Lock()
	defer m.Unlock()
	m.record("StopLive", h)
	if code, ok := m.fail("StopLive"); ok {
		return code
	}
	d, ok := m.device(h)
	if !ok || !d.live {
		return Failure
	}
	d.live = false
	return Success
}

func (m *Mock) LiveFrame(h Handle, buf []byte) (FrameInfo, uint32) {
	m.Lock()
	defer m.Unlock()
	m.record("LiveFrame", h, len(buf))
	if code, ok := m.fail("LiveFrame"); ok {
		return FrameInfo{}, code
	}
	d, ok := m.device(h)
	if !ok || !d.live {
		return FrameInfo{}, mockNotLive
	}
	if d.notReady > 0 {
		d.notReady--
		return FrameInfo{}, Failure
	}
	fi := d.geometry()
	if len(buf) < fi.bytes() {
		return FrameInfo{}, mockNotLive
	}
	d.fill(buf, fi)
	d.notReady = m.NotReadyPolls
	return fi, Success
}
