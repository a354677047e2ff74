package qhyccd

import (
	"fmt"

	"github.com/pkg/errors"
)

// Op is the category of native call that produced a status code.
// Each category has its own error kind so callers can tell a failed scan from
// a failed exposure without parsing strings.
type Op int

const (
	OpInitialization Op = iota + 1
	OpRelease
	OpSDKVersion
	OpScan
	OpIdentityLookup
	OpOpen
	OpFirmwareVersionRead
	OpReadModeSet
	OpStreamModeSet
	OpCameraInit
	OpChipInfoQuery
	OpOverscanAreaQuery
	OpEffectiveAreaQuery
	OpBitModeSet
	OpDebayerSet
	OpBinModeSet
	OpROISet
	OpParameterSet
	OpExposureStart
	OpSingleFrameRead
	OpLiveBegin
	OpLiveEnd
	OpImageSizeQuery
	OpLiveFrameRead
	OpClose
)

var opText = map[Op]string{
	OpInitialization:      "initializing QHYCCD SDK",
	OpRelease:             "releasing QHYCCD SDK",
	OpSDKVersion:          "getting QHYCCD SDK version",
	OpScan:                "scanning QHYCCD cameras",
	OpIdentityLookup:      "getting camera id",
	OpOpen:                "opening camera",
	OpFirmwareVersionRead: "getting firmware version",
	OpReadModeSet:         "setting camera read mode",
	OpStreamModeSet:       "setting camera stream mode",
	OpCameraInit:          "initializing camera",
	OpChipInfoQuery:       "getting camera CCD info",
	OpOverscanAreaQuery:   "getting camera overscan area",
	OpEffectiveAreaQuery:  "getting camera effective area",
	OpBitModeSet:          "setting camera bit mode",
	OpDebayerSet:          "setting camera debayer on/off",
	OpBinModeSet:          "setting camera bin mode",
	OpROISet:              "setting camera sub frame",
	OpParameterSet:        "setting camera parameter",
	OpExposureStart:       "starting single frame exposure",
	OpSingleFrameRead:     "getting camera single frame",
	OpLiveBegin:           "starting camera live mode",
	OpLiveEnd:             "stopping camera live mode",
	OpImageSizeQuery:      "getting image size",
	OpLiveFrameRead:       "getting camera live frame",
	OpClose:               "closing camera",
}

func (o Op) String() string {
	if s, ok := opText[o]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Error is a non-success status code returned by the native library,
// tagged with the category of call that produced it.
type Error struct {
	Op   Op
	Code uint32
}

func (e *Error) Error() string {
	if e.Op == OpImageSizeQuery || e.Op == OpScan {
		// these calls only ever report the generic sentinel
		return fmt.Sprintf("qhyccd: error %s", e.Op)
	}
	if e.Generic() {
		return fmt.Sprintf("qhyccd: error %s, error code %#x (QHYCCD_ERROR)", e.Op, e.Code)
	}
	return fmt.Sprintf("qhyccd: error %s, error code %d", e.Op, e.Code)
}

// Generic is true when the code is the all-ones QHYCCD_ERROR sentinel
// rather than a library-specific code.
func (e *Error) Generic() bool {
	return e.Code == Failure
}

// NotReady is true for a live frame read that found no frame waiting.
// Callers poll again on NotReady and treat every other error as fatal.
func (e *Error) NotReady() bool {
	return e.Op == OpLiveFrameRead && e.Generic()
}

// ErrorFor translates a native status code for op.
// It returns nil for Success.
func ErrorFor(op Op, code uint32) error {
	if code == Success {
		return nil
	}
	return &Error{Op: op, Code: code}
}

// IsOp reports whether err carries a native failure of category op.
func IsOp(err error, op Op) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Op == op
	}
	return false
}

// IsNotReady reports whether err is a live frame read that should be retried.
func IsNotReady(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.NotReady()
	}
	return false
}

var (
	// ErrNotInitialized is returned for device work before SDK.Init
	ErrNotInitialized = errors.New("qhyccd: SDK not initialized")

	// ErrAlreadyInitialized is returned when SDK.Init is called a second time
	ErrAlreadyInitialized = errors.New("qhyccd: SDK already initialized")

	// ErrReleased is returned for any work on an SDK after Release
	ErrReleased = errors.New("qhyccd: SDK released")

	// ErrNotScanned is returned by CameraID before any successful Scan
	ErrNotScanned = errors.New("qhyccd: no scan performed")

	// ErrIndexOutOfRange is returned by CameraID for an index beyond the last scan
	ErrIndexOutOfRange = errors.New("qhyccd: camera index out of range of last scan")

	// ErrSessionInvalidated is returned when a camera outlives the SDK that opened it
	ErrSessionInvalidated = errors.New("qhyccd: camera session invalidated by SDK release")

	// ErrInvalidState is the sentinel wrapped by every StateError
	ErrInvalidState = errors.New("qhyccd: invalid camera state")

	// ErrWrongStreamMode is returned when a capture call does not match the configured stream mode
	ErrWrongStreamMode = errors.New("qhyccd: capture call does not match stream mode")

	// ErrImageSizeStale is returned when a frame is requested with a size that
	// is not the most recent ImageSize result for the current configuration
	ErrImageSizeStale = errors.New("qhyccd: image size not queried for current configuration")

	// ErrUnsupportedFeature is returned by gated setters for a feature the camera lacks
	ErrUnsupportedFeature = errors.New("qhyccd: feature not supported by camera")

	// ErrUnknownFeature is returned when a feature name or code is not in the table
	ErrUnknownFeature = errors.New("qhyccd: unknown feature")

	// ErrParameterNotSet is returned when a parameter is read before it is set.
	// The native library has no getter we rely on, so the wrapper learns values as they are set.
	ErrParameterNotSet = errors.New("qhyccd: parameter not set, set to learn in wrapper")

	// ErrROIOutOfBounds is returned when an ROI leaves the effective area
	ErrROIOutOfBounds = errors.New("qhyccd: ROI outside effective area")

	// ErrInvalidArgument is returned for zero bin factors, bit modes, or sizes
	ErrInvalidArgument = errors.New("qhyccd: invalid argument")

	// ErrLiveTimeout is returned when the retry policy gives up on a live frame
	ErrLiveTimeout = errors.New("qhyccd: no live frame before retry policy expired")

	// ErrNoNativeLibrary is returned by DefaultNative in builds without the qhyccd tag
	ErrNoNativeLibrary = errors.New("qhyccd: built without native library, rebuild with -tags qhyccd")
)

// StateError is returned when an operation is not legal in the camera's
// current state.  It never reaches the native layer.
type StateError struct {
	Action string
	State  State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("qhyccd: cannot %s, camera is %s", e.Action, e.State)
}

// Unwrap lets errors.Is match ErrInvalidState
func (e *StateError) Unwrap() error {
	return ErrInvalidState
}
