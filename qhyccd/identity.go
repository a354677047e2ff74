package qhyccd

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
)

// ID is the 32 byte NUL padded identity string the library hands out for a
// scanned camera, e.g. "QHY178M-222b16468c5966524".  An ID never changes
// after it is made, so one *ID may be shared by any number of holders.
type ID struct {
	b [IDLength]byte
}

// NewID builds an ID from a model-serial string.  Strings that do not leave
// room for a terminating NUL are rejected.
func NewID(s string) (*ID, error) {
	if len(s) == 0 || len(s) >= IDLength {
		return nil, errors.Wrapf(ErrInvalidArgument, "camera id %q must be 1 to %d bytes", s, IDLength-1)
	}
	id := &ID{}
	copy(id.b[:], s)
	return id, nil
}

func idFromBuffer(buf [IDLength]byte) *ID {
	return &ID{b: buf}
}

// String returns the identity up to the first NUL
func (id *ID) String() string {
	if id == nil {
		return ""
	}
	if i := bytes.IndexByte(id.b[:], 0); i >= 0 {
		return string(id.b[:i])
	}
	return string(id.b[:])
}

// Bytes returns a copy of the full 32 byte buffer, padding included.
// A nil ID is all zeros.
func (id *ID) Bytes() [IDLength]byte {
	if id == nil {
		return [IDLength]byte{}
	}
	return id.b
}

// Model is the part of the identity before the serial, e.g. "QHY178M"
func (id *ID) Model() string {
	s := id.String()
	if i := strings.IndexByte(s, '-'); i >= 0 {
		return s[:i]
	}
	return s
}

// Equal compares the full buffers of two identities
func (id *ID) Equal(other *ID) bool {
	if id == nil || other == nil {
		return id == other
	}
	return id.b == other.b
}
