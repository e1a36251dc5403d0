package inode

import (
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/cksumfs/bcache"
	"github.com/mit-pdos/cksumfs/common"
)

// dinodeData returns the on-disk inode's byte range within its
// inode block; IPB dinodes pack into one block.
func dinodeData(blk *bcache.Buf, inum common.Inum) []byte {
	off := (uint64(inum) % common.IPB) * common.INODESZ
	return blk.Data[off : off+common.INODESZ]
}

// two i16 fields pack little-endian into one u32 word, low field
// first, so the byte layout matches declaration order
func pack16(lo int16, hi int16) uint32 {
	return uint32(uint16(lo)) | uint32(uint16(hi))<<16
}

// encode packs the on-disk fields: type, major, minor, nlink (i16
// each), size (u32), addrs ([NDIRECT+2]u32), checksum ([NDIRECT]u32).
func (ip *Inode) encode() []byte {
	enc := marshal.NewEnc(common.INODESZ)
	enc.PutInt32(pack16(ip.Type, ip.Major))
	enc.PutInt32(pack16(ip.Minor, ip.Nlink))
	enc.PutInt32(ip.Size)
	for _, a := range ip.Addrs {
		enc.PutInt32(a)
	}
	for _, s := range ip.Checksum {
		enc.PutInt32(s)
	}
	return enc.Finish()
}

func (ip *Inode) decode(d []byte) {
	dec := marshal.NewDec(d)
	w := dec.GetInt32()
	ip.Type = int16(w)
	ip.Major = int16(w >> 16)
	w = dec.GetInt32()
	ip.Minor = int16(w)
	ip.Nlink = int16(w >> 16)
	ip.Size = dec.GetInt32()
	for i := range ip.Addrs {
		ip.Addrs[i] = dec.GetInt32()
	}
	for i := range ip.Checksum {
		ip.Checksum[i] = dec.GetInt32()
	}
}
