package qhyccd

import (
	"encoding/binary"
	"image"

	"github.com/pkg/errors"
	"github.com/snksoft/crc"
)

var crcTable = crc.NewTable(crc.CRC32)

// ImageData is one frame as the library delivered it.  Pixels are row major;
// 16 bit samples are little endian, color frames are packed RGB triplets.
type ImageData struct {
	Data         []byte
	Width        int
	Height       int
	BitsPerPixel int
	Channels     int
}

func newImageData(buf []byte, info FrameInfo) *ImageData {
	return &ImageData{
		Data:         buf,
		Width:        int(info.Width),
		Height:       int(info.Height),
		BitsPerPixel: int(info.BitsPerPixel),
		Channels:     int(info.Channels),
	}
}

// Checksum is the CRC-32 of Data
func (d *ImageData) Checksum() uint32 {
	c := crcTable.InitCrc()
	c = crcTable.UpdateCrc(c, d.Data)
	return crcTable.CRC32(c)
}

// Image converts the frame to an *image.Gray, *image.Gray16 or *image.RGBA
func (d *ImageData) Image() (image.Image, error) {
	rect := image.Rect(0, 0, d.Width, d.Height)
	npx := d.Width * d.Height
	switch {
	case d.Channels <= 1 && d.BitsPerPixel == 8:
		if len(d.Data) < npx {
			return nil, errors.Errorf("frame has %d bytes, %dx%d needs %d", len(d.Data), d.Width, d.Height, npx)
		}
		img := image.NewGray(rect)
		copy(img.Pix, d.Data[:npx])
		return img, nil
	case d.Channels <= 1 && d.BitsPerPixel == 16:
		if len(d.Data) < 2*npx {
			return nil, errors.Errorf("frame has %d bytes, %dx%d needs %d", len(d.Data), d.Width, d.Height, 2*npx)
		}
		img := image.NewGray16(rect)
		// the library delivers little endian, image.Gray16 is big endian
		for i := 0; i < npx; i++ {
			v := binary.LittleEndian.Uint16(d.Data[2*i:])
			binary.BigEndian.PutUint16(img.Pix[2*i:], v)
		}
		return img, nil
	case d.Channels == 3 && d.BitsPerPixel == 8:
		if len(d.Data) < 3*npx {
			return nil, errors.Errorf("frame has %d bytes, %dx%d needs %d", len(d.Data), d.Width, d.Height, 3*npx)
		}
		img := image.NewRGBA(rect)
		for i := 0; i < npx; i++ {
			img.Pix[4*i] = d.Data[3*i]
			img.Pix[4*i+1] = d.Data[3*i+1]
			img.Pix[4*i+2] = d.Data[3*i+2]
			img.Pix[4*i+3] = 0xFF
		}
		return img, nil
	}
	return nil, errors.Errorf("no image type for %d channel(s) at %d bits", d.Channels, d.BitsPerPixel)
}
