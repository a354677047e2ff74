package imgrec

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/astrogo/fitsio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type grayFrame struct {
	w, h int
	crc  uint32
}

func (g grayFrame) Image() (image.Image, error) {
	return image.NewGray(image.Rect(0, 0, g.w, g.h)), nil
}

func (g grayFrame) Checksum() uint32 {
	return g.crc
}

func fixedClock() time.Time {
	return time.Date(2023, time.September, 6, 12, 0, 0, 0, time.UTC)
}

func TestRecordIncrementsInDateFolder(t *testing.T) {
	root := t.TempDir()
	r := &Recorder{Root: root, Prefix: "qhy", now: fixedClock}

	fn, err := r.Record(nil, grayFrame{w: 4, h: 4, crc: 0xCBF43926})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "2023-09-06", "qhy000001.fits"), fn)

	fn, err = r.Record(nil, grayFrame{w: 4, h: 4})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "2023-09-06", "qhy000002.fits"), fn)
}

func TestIncrSkipsForeignFiles(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "2023-09-06")
	require.NoError(t, os.MkdirAll(dir, 0777))
	for _, name := range []string{"qhy000007.fits", "other000050.fits", "qhy000099.txt", "qhynotanumber.fits"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0666))
	}
	r := &Recorder{Root: root, Prefix: "qhy", now: fixedClock}
	r.Incr()
	assert.Equal(t, 8, r.counter)
}

func TestRecordWritesIdentityCards(t *testing.T) {
	r := &Recorder{Root: t.TempDir(), Prefix: "f", now: fixedClock}
	meta := []fitsio.Card{{Name: "CAMMODL", Value: "QHY178M"}}
	fn, err := r.Record(meta, grayFrame{w: 3, h: 2, crc: 1234})
	require.NoError(t, err)

	fid, err := os.Open(fn)
	require.NoError(t, err)
	defer fid.Close()
	f, err := fitsio.Open(fid)
	require.NoError(t, err)
	hdr := f.HDU(0).Header()
	assert.Equal(t, []int{3, 2}, hdr.Axes())
	require.NotNil(t, hdr.Get("FRAMEID"))
	require.NotNil(t, hdr.Get("DATACRC"))
	assert.EqualValues(t, 1234, hdr.Get("DATACRC").Value)
	assert.NotNil(t, hdr.Get("CAMMODL"))
}

func TestRecordNeedsFrames(t *testing.T) {
	r := &Recorder{Root: t.TempDir()}
	_, err := r.Record(nil)
	assert.Error(t, err)
}
