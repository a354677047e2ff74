// Package usbprobe lists QHYCCD cameras on the USB bus without going through libqhyccd.
//
// It is useful for telling "no camera plugged in" apart from "the SDK cannot
// see the camera", e.g. when udev rules or firmware upload are broken.
package usbprobe

import (
	"fmt"

	"github.com/google/gousb"
)

// VendorID is the USB vendor ID of QHYCCD
const VendorID gousb.ID = 0x1618

// Device is a QHYCCD device seen on the bus
type Device struct {
	Bus     int
	Address int
	Vendor  gousb.ID
	Product gousb.ID
	Speed   gousb.Speed
}

func (d Device) String() string {
	return fmt.Sprintf("bus %03d device %03d: ID %s:%s (%s)", d.Bus, d.Address, d.Vendor, d.Product, d.Speed)
}

// IsQHYCCD is true for descriptors of QHYCCD devices
func IsQHYCCD(desc *gousb.DeviceDesc) bool {
	return desc != nil && desc.Vendor == VendorID
}

func fromDesc(desc *gousb.DeviceDesc) Device {
	return Device{
		Bus:     desc.Bus,
		Address: desc.Address,
		Vendor:  desc.Vendor,
		Product: desc.Product,
		Speed:   desc.Speed,
	}
}

// collect returns an OpenDevices filter that appends matches to out and never
// asks for a device to be opened
func collect(out *[]Device) func(*gousb.DeviceDesc) bool {
	return func(desc *gousb.DeviceDesc) bool {
		if IsQHYCCD(desc) {
			*out = append(*out, fromDesc(desc))
		}
		return false
	}
}

// List returns every QHYCCD device on the bus.  No device is opened.
func List() ([]Device, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()
	var out []Device
	_, err := ctx.OpenDevices(collect(&out))
	return out, err
}
