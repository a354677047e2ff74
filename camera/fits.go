package camera

import (
	"encoding/binary"
	"image"
	"io"

	"github.com/astrogo/fitsio"
	"github.com/pkg/errors"
)

// WriteFits streams a fits file to w.  All images must be the same size and
// type: *image.Gray is written as 8 bit, *image.Gray16 as unsigned 16 bit
// (BZERO 32768), and *image.RGBA as an 8 bit cube with three color planes.
// More than one image adds a trailing frame axis.
func WriteFits(w io.Writer, metadata []fitsio.Card, imgs []image.Image) error {
	if len(imgs) == 0 {
		return errors.New("camera: no images to write")
	}
	nframes := len(imgs)
	b := imgs[0].Bounds()
	width, height := b.Dx(), b.Dy()
	for i, img := range imgs[1:] {
		if img.Bounds().Dx() != width || img.Bounds().Dy() != height {
			return errors.Errorf("camera: image %d is %v, image 0 is %v", i+1, img.Bounds(), b)
		}
	}

	var (
		bitpix int
		planes = 1
		data   interface{}
	)
	switch imgs[0].(type) {
	case *image.Gray:
		bitpix = 8
		buf := make([]byte, 0, width*height*nframes)
		for i, img := range imgs {
			g, ok := img.(*image.Gray)
			if !ok {
				return errors.Errorf("camera: image %d is %T, image 0 is *image.Gray", i, img)
			}
			buf = appendRows(buf, g.Pix, g.Stride, width, height, 1)
		}
		data = buf
	case *image.Gray16:
		bitpix = 16
		metadata = append(metadata, fitsio.Card{Name: "BZERO", Value: 32768}, fitsio.Card{Name: "BSCALE", Value: 1.0})
		ints := make([]int16, 0, width*height*nframes)
		for i, img := range imgs {
			g, ok := img.(*image.Gray16)
			if !ok {
				return errors.Errorf("camera: image %d is %T, image 0 is *image.Gray16", i, img)
			}
			raw := appendRows(nil, g.Pix, g.Stride, width, height, 2)
			for idx := 0; idx < len(raw); idx += 2 {
				// shift unsigned into the signed range FITS stores
				ints = append(ints, int16(binary.BigEndian.Uint16(raw[idx:])-32768))
			}
		}
		data = ints
	case *image.RGBA:
		bitpix = 8
		planes = 3
		buf := make([]byte, 0, width*height*3*nframes)
		for i, img := range imgs {
			c, ok := img.(*image.RGBA)
			if !ok {
				return errors.Errorf("camera: image %d is %T, image 0 is *image.RGBA", i, img)
			}
			px := appendRows(nil, c.Pix, c.Stride, width, height, 4)
			for p := 0; p < 3; p++ {
				for idx := p; idx < len(px); idx += 4 {
					buf = append(buf, px[idx])
				}
			}
		}
		data = buf
	default:
		return errors.Errorf("camera: cannot write %T to FITS", imgs[0])
	}

	fits, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer fits.Close()
	dims := []int{width, height}
	if planes > 1 {
		dims = append(dims, planes)
	}
	if nframes > 1 {
		dims = append(dims, nframes)
	}
	im := fitsio.NewImage(bitpix, dims)
	defer im.Close()
	err = im.Header().Append(metadata...)
	if err != nil {
		return err
	}
	err = im.Write(data)
	if err != nil {
		return err
	}
	return fits.Write(im)
}

// appendRows copies the visible rows of a strided pixel buffer onto dst
func appendRows(dst, pix []byte, stride, width, height, bytesPerPx int) []byte {
	rowLen := width * bytesPerPx
	for y := 0; y < height; y++ {
		dst = append(dst, pix[y*stride:y*stride+rowLen]...)
	}
	return dst
}
