package qhyccd

const (
	// Success is the status code of a call that worked
	Success uint32 = 0

	// Failure is QHYCCD_ERROR, the all-ones generic failure sentinel.
	// What it means depends on the call: not supported, no device, no frame yet.
	Failure uint32 = 0xFFFFFFFF

	// IDLength is the size of the buffer the library fills with a camera id
	IDLength = 32

	// firmwareBufLength is the size of the firmware version buffer
	firmwareBufLength = 32
)

// Handle is the library's opaque per-camera token.  Zero is never valid.
type Handle uintptr

// InvalidHandle is what OpenQHYCCD returns when it cannot open the camera
const InvalidHandle Handle = 0

// Area is a rectangle on the sensor in native (0-based) pixel coordinates
type Area struct {
	StartX, StartY uint32
	Width, Height  uint32
}

// FrameInfo is the geometry the library reports alongside a frame
type FrameInfo struct {
	Width, Height uint32
	BitsPerPixel  uint32
	Channels      uint32
}

// Native is the fixed call surface of libqhyccd.  Each method is one C
// function and returns its raw status code; nothing here interprets codes,
// enforces ordering, or remembers state.  That is the job of SDK and Camera.
type Native interface {
	InitResource() uint32
	ReleaseResource() uint32
	SDKVersion() (year, month, day, subday, code uint32)
	Scan() uint32
	CameraID(index uint32) (id [IDLength]byte, code uint32)

	Open(id [IDLength]byte) Handle
	Close(h Handle) uint32
	FirmwareVersion(h Handle) (buf [firmwareBufLength]byte, code uint32)
	IsControlAvailable(h Handle, feature uint32) uint32
	SetReadMode(h Handle, mode uint32) uint32
	SetStreamMode(h Handle, mode uint8) uint32
	InitCamera(h Handle) uint32
	ChipInfo(h Handle) (ChipInfo, uint32)
	OverscanArea(h Handle) (Area, uint32)
	EffectiveArea(h Handle) (Area, uint32)

	SetBitsMode(h Handle, bits uint32) uint32
	SetBinMode(h Handle, binX, binY uint32) uint32
	SetResolution(h Handle, x, y, width, height uint32) uint32
	SetDebayer(h Handle, on bool) uint32
	SetParam(h Handle, feature uint32, value float64) uint32

	ExpSingleFrame(h Handle) uint32
	MemLength(h Handle) uint32
	SingleFrame(h Handle, buf []byte) (FrameInfo, uint32)
	BeginLive(h Handle) uint32
	StopLive(h Handle) uint32
	LiveFrame(h Handle, buf []byte) (FrameInfo, uint32)
}
