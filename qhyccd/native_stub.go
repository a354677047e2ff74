//go:build !qhyccd

package qhyccd

// DefaultNative returns ErrNoNativeLibrary; build with -tags qhyccd to link libqhyccd
func DefaultNative() (Native, error) {
	return nil, ErrNoNativeLibrary
}
