// Package imgrec contains an image recorder used to automatically save frames to disk as FITS.
package imgrec

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/astrogo/fitsio"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nasa-jpl/golab-qhyccd/camera"
)

// Frame is a captured frame that can be recorded
type Frame interface {
	// Image converts the frame to a Go image
	Image() (image.Image, error)

	// Checksum is the CRC-32 of the raw frame data
	Checksum() uint32
}

// Recorder records image sequences with incrementing filenames in yyyy-mm-dd subfolders.  It is not thread safe.
type Recorder struct {
	// counter is the internally incrementing counter
	counter int

	// Root is the root path
	Root string

	// Prefix is the prefix for the filenames
	Prefix string

	// timeFldr is the subfolder with yyyy-mm-dd format.
	timeFldr string

	// now is the clock; nil means time.Now
	now func() time.Time
}

// updateFolder checks the current time and updates the folder as needed
func (r *Recorder) updateFolder() {
	now := time.Now
	if r.now != nil {
		now = r.now
	}
	t := now()
	r.timeFldr = fmt.Sprintf("%04d-%02d-%02d", t.Year(), t.Month(), t.Day())
}

// mkDir makes the folder and returns it
func (r *Recorder) mkDir() (string, error) {
	fldr := filepath.Join(r.Root, r.timeFldr)
	err := os.MkdirAll(fldr, 0777)
	return fldr, err
}

// Incr updates the filename counter; it scans the folder to do so.  If there is an error, the counter is not incremented
func (r *Recorder) Incr() {
	r.updateFolder()
	dn, err := r.mkDir()
	if err != nil {
		return
	}
	files, err := os.ReadDir(dn)
	if err != nil {
		return
	}
	count := 0
	for _, file := range files {
		// skip directories, non-fits, and wrong prefix
		if file.IsDir() {
			continue
		}
		fn := file.Name()
		if !strings.HasSuffix(fn, ".fits") || !strings.HasPrefix(fn, r.Prefix) {
			continue
		}
		bit := strings.TrimSuffix(strings.TrimPrefix(fn, r.Prefix), ".fits")
		n, err := strconv.Atoi(bit)
		if err != nil {
			continue
		}
		if count < n {
			count = n
		}
	}
	r.counter = count + 1
}

// Record writes frames to the next file in the sequence as one FITS image,
// with metadata followed by FRAMEID and DATACRC cards.  It returns the path written.
func (r *Recorder) Record(metadata []fitsio.Card, frames ...Frame) (string, error) {
	if len(frames) == 0 {
		return "", errors.New("imgrec: no frames to record")
	}
	imgs := make([]image.Image, len(frames))
	for i, f := range frames {
		img, err := f.Image()
		if err != nil {
			return "", errors.Wrapf(err, "imgrec: frame %d", i)
		}
		imgs[i] = img
	}
	cards := make([]fitsio.Card, 0, len(metadata)+2)
	cards = append(cards, metadata...)
	cards = append(cards,
		fitsio.Card{Name: "FRAMEID", Value: uuid.New().String(), Comment: "unique id of this file"},
		fitsio.Card{Name: "DATACRC", Value: int(frames[0].Checksum()), Comment: "CRC-32 of the first raw frame"})

	r.Incr()
	fldr, err := r.mkDir()
	if err != nil {
		return "", err
	}
	fn := filepath.Join(fldr, fmt.Sprintf("%s%06d.fits", r.Prefix, r.counter))
	fid, err := os.Create(fn)
	if err != nil {
		return "", err
	}
	defer fid.Close()
	if err := camera.WriteFits(fid, cards, imgs); err != nil {
		return "", errors.Wrapf(err, "imgrec: writing %s", fn)
	}
	return fn, fid.Close()
}
