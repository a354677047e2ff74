package qhyccd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
)

// WRAPVER is the version of this wrapper, recorded in FITS headers
const WRAPVER = 1

// SDKVersion is the build date of the native library
type SDKVersion struct {
	Year, Month, Day, Subday uint32
}

func (v SDKVersion) String() string {
	return fmt.Sprintf("20%02d.%02d.%02d.%d", v.Year, v.Month, v.Day, v.Subday)
}

// Option configures an SDK
type Option func(*SDK)

// WithLogger sets the logger failures and transitions are written to
func WithLogger(l *slog.Logger) Option {
	return func(s *SDK) {
		if l != nil {
			s.log = l
		}
	}
}

// SDK owns the library-wide resources of libqhyccd.  Its life is
// Init, any number of Scans, then Release; nothing device scoped may happen
// before Init or after Release.  The native library keeps process wide state,
// so a program should have only one SDK that has been initialized at a time.
type SDK struct {
	mu sync.RWMutex

	native Native
	log    *slog.Logger

	initialized bool
	released    bool

	scanned  bool
	lastScan int
}

// New returns an uninitialized SDK that talks to native
func New(native Native, opts ...Option) *SDK {
	s := &SDK{native: native, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// check translates code for op and logs it when it is a failure
func (s *SDK) check(op Op, code uint32) error {
	err := ErrorFor(op, code)
	if err != nil {
		level := slog.LevelError
		if IsNotReady(err) {
			level = slog.LevelDebug
		}
		s.log.Log(context.Background(), level, "native call failed", "op", op.String(), "code", code)
	}
	return err
}

// ready must be called with mu held
func (s *SDK) ready() error {
	if s.released {
		return ErrReleased
	}
	if !s.initialized {
		return ErrNotInitialized
	}
	return nil
}

// Init acquires the native library's resources.  It may be called once.
func (s *SDK) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrReleased
	}
	if s.initialized {
		return ErrAlreadyInitialized
	}
	if err := s.check(OpInitialization, s.native.InitResource()); err != nil {
		return err
	}
	s.initialized = true
	s.log.Debug("SDK initialized")
	return nil
}

// Initialized is true between a successful Init and Release
func (s *SDK) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized && !s.released
}

// Scan rescans the bus and returns the number of attached cameras.
// Zero is a valid result.
func (s *SDK) Scan() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return 0, err
	}
	n := s.native.Scan()
	if n == Failure {
		return 0, s.check(OpScan, n)
	}
	s.scanned = true
	s.lastScan = int(n)
	s.log.Debug("scanned for cameras", "count", s.lastScan)
	return s.lastScan, nil
}

// Release tears down the native library.  Every camera opened from s is
// invalid afterwards, and s cannot be initialized again.
func (s *SDK) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.check(OpRelease, s.native.ReleaseResource()); err != nil {
		return err
	}
	s.released = true
	s.scanned = false
	s.log.Debug("SDK released")
	return nil
}

// Version returns the native library's build date.  It does not require Init.
func (s *SDK) Version() (SDKVersion, error) {
	y, m, d, sub, code := s.native.SDKVersion()
	if err := s.check(OpSDKVersion, code); err != nil {
		return SDKVersion{}, err
	}
	return SDKVersion{Year: y, Month: m, Day: d, Subday: sub}, nil
}

// CameraID returns the identity of the camera at a zero-based index of the
// most recent Scan.  It does not open or validate the device.
func (s *SDK) CameraID(index int) (*ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !s.scanned {
		return nil, ErrNotScanned
	}
	if index < 0 || index >= s.lastScan {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "index %d, %d camera(s) found", index, s.lastScan)
	}
	buf, code := s.native.CameraID(uint32(index))
	if err := s.check(OpIdentityLookup, code); err != nil {
		return nil, err
	}
	return idFromBuffer(buf), nil
}

// NewCamera makes a session for id without opening it
func (s *SDK) NewCamera(id *ID) *Camera {
	return &Camera{
		sdk:    s,
		id:     id,
		state:  StateCreated,
		params: make(map[Feature]float64),
	}
}

// Open opens the camera with the given identity
func (s *SDK) Open(id *ID) (*Camera, error) {
	c := s.NewCamera(id)
	if err := c.Open(); err != nil {
		return nil, err
	}
	return c, nil
}

// openHandle is the native half of Camera.Open
func (s *SDK) openHandle(id *ID) (Handle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return InvalidHandle, err
	}
	if id == nil {
		return InvalidHandle, errors.Wrap(ErrInvalidArgument, "nil camera id")
	}
	h := s.native.Open(id.Bytes())
	if h == InvalidHandle {
		return InvalidHandle, s.check(OpOpen, Failure)
	}
	return h, nil
}
