/*Package qhyccd exposes control of QHYCCD cameras in Go

The vendor ships a closed source C library, libqhyccd, with a flat ABI:
global init, bus scans, opaque handles, and uint32 status codes where zero is
success and all ones is a catch-all failure.  This package puts that ABI behind
two types, SDK and Camera, which enforce the order calls must be made in,
translate every status code into an error, and keep image buffers the size the
library asked for.  It does not do any image processing.

The library is reached through the Native interface.  Building with
-tags qhyccd links the real library (and libusb) with cgo; without the tag only
the Mock is available, which simulates a QHY178M and is what the tests use.

A single frame session looks like this:

 native, _ := qhyccd.DefaultNative()
 sdk := qhyccd.New(native)
 sdk.Init()
 defer sdk.Release()
 sdk.Scan()
 id, _ := sdk.CameraID(0)
 cam, _ := sdk.Open(id)
 defer cam.Close()

 cam.SetStreamMode(qhyccd.SingleFrame)
 cam.SetReadMode(0)
 cam.Initialize()

 eff, _ := cam.EffectiveArea()
 cam.SetSupportedParameter(qhyccd.ControlExposure, 2000) // us
 cam.SetROI(eff)
 cam.SetBinMode(1, 1)
 cam.SetSupportedParameter(qhyccd.ControlTransferbit, 16)

 cam.StartSingleExposure()
 size, _ := cam.ImageSize()
 img, _ := cam.SingleFrame(size)

Live mode swaps the last three calls for BeginLive, PollLiveFrame (or Stream)
and EndLive.  Calls for the wrong stream mode fail with ErrWrongStreamMode
before reaching the library.

Whether a camera has a feature depends on model and firmware.  IsSupported asks
the camera every time and never errors.  SetParameter does not ask first; that
is the caller's job, or use SetSupportedParameter or Configure, which do.

Every change of bit mode, binning, ROI, debayering or ControlTransferbit makes
the last ImageSize stale, and frame reads refuse a stale size.
*/
package qhyccd
