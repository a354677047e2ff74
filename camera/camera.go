/*Package camera describes geometry and output shared by camera drivers

AOI and Binning are the readout geometry every driver speaks in, MetadataMaker
is implemented by drivers that can describe their own state as FITS cards, and
WriteFits turns frames and cards into a FITS file.

*/
package camera

import (
	"fmt"

	"github.com/astrogo/fitsio"
)

// AOI describes an area of interest on the camera
type AOI struct {
	// Left is the left pixel index.  0-based
	Left int `json:"left" yaml:"left" koanf:"left"`

	// Top is the top pixel index.  0-based
	Top int `json:"top" yaml:"top" koanf:"top"`

	// Width is the width in pixels
	Width int `json:"width" yaml:"width" koanf:"width"`

	// Height is the height in pixels
	Height int `json:"height" yaml:"height" koanf:"height"`
}

// Right is one past the last column of the AOI
func (a AOI) Right() int {
	return a.Left + a.Width
}

// Bottom is one past the last row of the AOI
func (a AOI) Bottom() int {
	return a.Top + a.Height
}

// Empty is true when the AOI has no pixels
func (a AOI) Empty() bool {
	return a.Width <= 0 || a.Height <= 0
}

// Contains is true when other lies entirely inside a
func (a AOI) Contains(other AOI) bool {
	return other.Left >= a.Left && other.Top >= a.Top &&
		other.Right() <= a.Right() && other.Bottom() <= a.Bottom()
}

func (a AOI) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", a.Width, a.Height, a.Left, a.Top)
}

// Binning encapsulates information about pixel addition on camera
type Binning struct {
	// H is the horizontal binning factor
	H int `json:"h" yaml:"h" koanf:"h"`

	// V is the vertical binning factor
	V int `json:"v" yaml:"v" koanf:"v"`
}

// HxV returns the binning as a string, e.g. "2x2"
func (b Binning) HxV() string {
	return fmt.Sprintf("%dx%d", b.H, b.V)
}

// MetadataMaker can produce an array of FITS cards
type MetadataMaker interface {
	// CollectHeaderMetadata produces an array of FITS cards
	CollectHeaderMetadata() []fitsio.Card
}
