//go:build qhyccd

package qhyccd

/*
#cgo LDFLAGS: -lqhyccd -lusb-1.0 -lstdc++
#include <stdint.h>
#include <stdbool.h>

// prototypes from qhyccd.h, which drags in C++ headers cgo cannot read.
// handles are opaque to us, so they are declared void*.
uint32_t InitQHYCCDResource(void);
uint32_t ReleaseQHYCCDResource(void);
uint32_t GetQHYCCDSDKVersion(uint32_t *year, uint32_t *month, uint32_t *day, uint32_t *subday);
uint32_t ScanQHYCCD(void);
uint32_t GetQHYCCDId(uint32_t index, char *id);
void *OpenQHYCCD(char *id);
uint32_t CloseQHYCCD(void *handle);
uint32_t GetQHYCCDFWVersion(void *handle, uint8_t *buf);
uint32_t IsQHYCCDControlAvailable(void *handle, uint32_t controlId);
uint32_t SetQHYCCDReadMode(void *handle, uint32_t modeNumber);
uint32_t SetQHYCCDStreamMode(void *handle, uint8_t mode);
uint32_t InitQHYCCD(void *handle);
uint32_t GetQHYCCDChipInfo(void *handle, double *chipw, double *chiph, uint32_t *imagew, uint32_t *imageh, double *pixelw, double *pixelh, uint32_t *bpp);
uint32_t GetQHYCCDOverScanArea(void *handle, uint32_t *startX, uint32_t *startY, uint32_t *sizeX, uint32_t *sizeY);
uint32_t GetQHYCCDEffectiveArea(void *handle, uint32_t *startX, uint32_t *startY, uint32_t *sizeX, uint32_t *sizeY);
uint32_t SetQHYCCDBitsMode(void *handle, uint32_t bits);
uint32_t SetQHYCCDBinMode(void *handle, uint32_t wbin, uint32_t hbin);
uint32_t SetQHYCCDResolution(void *handle, uint32_t x, uint32_t y, uint32_t xsize, uint32_t ysize);
uint32_t SetQHYCCDDebayerOnOff(void *handle, bool onoff);
uint32_t SetQHYCCDParam(void *handle, uint32_t controlId, double value);
uint32_t ExpQHYCCDSingleFrame(void *handle);
uint32_t GetQHYCCDMemLength(void *handle);
uint32_t GetQHYCCDSingleFrame(void *handle, uint32_t *w, uint32_t *h, uint32_t *bpp, uint32_t *channels, uint8_t *imgdata);
uint32_t BeginQHYCCDLive(void *handle);
uint32_t StopQHYCCDLive(void *handle);
uint32_t GetQHYCCDLiveFrame(void *handle, uint32_t *w, uint32_t *h, uint32_t *bpp, uint32_t *channels, uint8_t *imgdata);
*/
import "C"

import (
	"sync"
	"unsafe"
)

// cgoNative is the real library.  The C handles never leave this file;
// callers see small integer Handles that index a table.
type cgoNative struct {
	mu      sync.Mutex
	next    Handle
	handles map[Handle]unsafe.Pointer
}

// DefaultNative returns the linked libqhyccd
func DefaultNative() (Native, error) {
	return &cgoNative{next: 1, handles: make(map[Handle]unsafe.Pointer)}, nil
}

func (n *cgoNative) ptr(h Handle) unsafe.Pointer {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.handles[h]
}

func (n *cgoNative) InitResource() uint32 {
	return uint32(C.InitQHYCCDResource())
}

func (n *cgoNative) ReleaseResource() uint32 {
	code := uint32(C.ReleaseQHYCCDResource())
	if code == Success {
		n.mu.Lock()
		n.handles = make(map[Handle]unsafe.Pointer)
		n.mu.Unlock()
	}
	return code
}

func (n *cgoNative) SDKVersion() (year, month, day, subday, code uint32) {
	var y, m, d, s C.uint32_t
	code = uint32(C.GetQHYCCDSDKVersion(&y, &m, &d, &s))
	return uint32(y), uint32(m), uint32(d), uint32(s), code
}

func (n *cgoNative) Scan() uint32 {
	return uint32(C.ScanQHYCCD())
}

func (n *cgoNative) CameraID(index uint32) ([IDLength]byte, uint32) {
	var buf [IDLength]byte
	code := C.GetQHYCCDId(C.uint32_t(index), (*C.char)(unsafe.Pointer(&buf[0])))
	return buf, uint32(code)
}

func (n *cgoNative) Open(id [IDLength]byte) Handle {
	p := C.OpenQHYCCD((*C.char)(unsafe.Pointer(&id[0])))
	if p == nil {
		return InvalidHandle
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	h := n.next
	n.next++
	n.handles[h] = p
	return h
}

func (n *cgoNative) Close(h Handle) uint32 {
	p := n.ptr(h)
	if p == nil {
		return Failure
	}
	code := uint32(C.CloseQHYCCD(p))
	if code == Success {
		n.mu.Lock()
		delete(n.handles, h)
		n.mu.Unlock()
	}
	return code
}

func (n *cgoNative) FirmwareVersion(h Handle) ([firmwareBufLength]byte, uint32) {
	var buf [firmwareBufLength]byte
	code := C.GetQHYCCDFWVersion(n.ptr(h), (*C.uint8_t)(unsafe.Pointer(&buf[0])))
	return buf, uint32(code)
}

func (n *cgoNative) IsControlAvailable(h Handle, feature uint32) uint32 {
	return uint32(C.IsQHYCCDControlAvailable(n.ptr(h), C.uint32_t(feature)))
}

func (n *cgoNative) SetReadMode(h Handle, mode uint32) uint32 {
	return uint32(C.SetQHYCCDReadMode(n.ptr(h), C.uint32_t(mode)))
}

func (n *cgoNative) SetStreamMode(h Handle, mode uint8) uint32 {
	return uint32(C.SetQHYCCDStreamMode(n.ptr(h), C.uint8_t(mode)))
}

func (n *cgoNative) InitCamera(h Handle) uint32 {
	return uint32(C.InitQHYCCD(n.ptr(h)))
}

func (n *cgoNative) ChipInfo(h Handle) (ChipInfo, uint32) {
	var (
		chipw, chiph, pixw, pixh C.double
		imw, imh, bpp            C.uint32_t
	)
	code := C.GetQHYCCDChipInfo(n.ptr(h), &chipw, &chiph, &imw, &imh, &pixw, &pixh, &bpp)
	return ChipInfo{
		ChipWidth:    float64(chipw),
		ChipHeight:   float64(chiph),
		ImageWidth:   uint32(imw),
		ImageHeight:  uint32(imh),
		PixelWidth:   float64(pixw),
		PixelHeight:  float64(pixh),
		BitsPerPixel: uint32(bpp),
	}, uint32(code)
}

func (n *cgoNative) OverscanArea(h Handle) (Area, uint32) {
	var x, y, w, hh C.uint32_t
	code := C.GetQHYCCDOverScanArea(n.ptr(h), &x, &y, &w, &hh)
	return Area{StartX: uint32(x), StartY: uint32(y), Width: uint32(w), Height: uint32(hh)}, uint32(code)
}

func (n *cgoNative) EffectiveArea(h Handle) (Area, uint32) {
	var x, y, w, hh C.uint32_t
	code := C.GetQHYCCDEffectiveArea(n.ptr(h), &x, &y, &w, &hh)
	return Area{StartX: uint32(x), StartY: uint32(y), Width: uint32(w), Height: uint32(hh)}, uint32(code)
}

func (n *cgoNative) SetBitsMode(h Handle, bits uint32) uint32 {
	return uint32(C.SetQHYCCDBitsMode(n.ptr(h), C.uint32_t(bits)))
}

func (n *cgoNative) SetBinMode(h Handle, binX, binY uint32) uint32 {
	return uint32(C.SetQHYCCDBinMode(n.ptr(h), C.uint32_t(binX), C.uint32_t(binY)))
}

func (n *cgoNative) SetResolution(h Handle, x, y, width, height uint32) uint32 {
	return uint32(C.SetQHYCCDResolution(n.ptr(h),
		C.uint32_t(x), C.uint32_t(y), C.uint32_t(width), C.uint32_t(height)))
}

func (n *cgoNative) SetDebayer(h Handle, on bool) uint32 {
	return uint32(C.SetQHYCCDDebayerOnOff(n.ptr(h), C.bool(on)))
}

func (n *cgoNative) SetParam(h Handle, feature uint32, value float64) uint32 {
	return uint32(C.SetQHYCCDParam(n.ptr(h), C.uint32_t(feature), C.double(value)))
}

func (n *cgoNative) ExpSingleFrame(h Handle) uint32 {
	return uint32(C.ExpQHYCCDSingleFrame(n.ptr(h)))
}

func (n *cgoNative) MemLength(h Handle) uint32 {
	return uint32(C.GetQHYCCDMemLength(n.ptr(h)))
}

func (n *cgoNative) SingleFrame(h Handle, buf []byte) (FrameInfo, uint32) {
	if len(buf) == 0 {
		return FrameInfo{}, Failure
	}
	var w, hh, bpp, ch C.uint32_t
	code := C.GetQHYCCDSingleFrame(n.ptr(h), &w, &hh, &bpp, &ch, (*C.uint8_t)(unsafe.Pointer(&buf[0])))
	return FrameInfo{Width: uint32(w), Height: uint32(hh), BitsPerPixel: uint32(bpp), Channels: uint32(ch)}, uint32(code)
}

func (n *cgoNative) BeginLive(h Handle) uint32 {
	return uint32(C.BeginQHYCCDLive(n.ptr(h)))
}

func (n *cgoNative) StopLive(h Handle) uint32 {
	return uint32(C.StopQHYCCDLive(n.ptr(h)))
}

func (n *cgoNative) LiveFrame(h Handle, buf []byte) (FrameInfo, uint32) {
	if len(buf) == 0 {
		return FrameInfo{}, Failure
	}
	var w, hh, bpp, ch C.uint32_t
	code := C.GetQHYCCDLiveFrame(n.ptr(h), &w, &hh, &bpp, &ch, (*C.uint8_t)(unsafe.Pointer(&buf[0])))
	return FrameInfo{Width: uint32(w), Height: uint32(hh), BitsPerPixel: uint32(bpp), Channels: uint32(ch)}, uint32(code)
}
