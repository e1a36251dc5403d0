// dev is the character/block device driver table. Read and write on
// a T_DEV inode dispatch through the entry registered for the
// inode's major number.
package dev

import (
	"github.com/mit-pdos/cksumfs/common"
)

type Device struct {
	Read  func(minor int16, dst []byte) int
	Write func(minor int16, src []byte) int
}

var devsw [common.NDEV]*Device

// Register installs a driver for a major number.
func Register(major int16, d *Device) {
	if major < 0 || uint64(major) >= common.NDEV {
		panic("dev: bad major")
	}
	devsw[major] = d
}

// Lookup returns the driver for a major number, or nil if the major
// is out of range or has no driver.
func Lookup(major int16) *Device {
	if major < 0 || uint64(major) >= common.NDEV {
		return nil
	}
	return devsw[major]
}
