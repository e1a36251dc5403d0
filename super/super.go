// super reads and writes the superblock and answers geometry
// questions about the on-disk layout:
//
//	[ boot | super | inodes ... | bitmap ... | data ... ]
//
// Block 0 is the boot block and block 1 the superblock. Inode blocks
// pack IPB on-disk inodes each; bitmap blocks hold BPB bits each, one
// per block of the device.
package super

import (
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/cksumfs/common"
	"github.com/mit-pdos/cksumfs/disk"
)

const SUPERBLK common.Bnum = 1

type FsSuper struct {
	Size    uint64 // device size in blocks
	Nblocks uint64 // number of data blocks
	Ninodes uint64 // number of on-disk inodes
}

func Decode(blk disk.Block) *FsSuper {
	dec := marshal.NewDec(blk)
	return &FsSuper{
		Size:    uint64(dec.GetInt32()),
		Nblocks: uint64(dec.GetInt32()),
		Ninodes: uint64(dec.GetInt32()),
	}
}

func (sb *FsSuper) Encode() disk.Block {
	enc := marshal.NewEnc(disk.BlockSize)
	enc.PutInt32(uint32(sb.Size))
	enc.PutInt32(uint32(sb.Nblocks))
	enc.PutInt32(uint32(sb.Ninodes))
	return enc.Finish()
}

func (sb *FsSuper) NInodeBlk() uint64 {
	return sb.Ninodes/common.IPB + 1
}

func (sb *FsSuper) NBitmapBlk() uint64 {
	return sb.Size/common.BPB + 1
}

// IBlock returns the block holding inode inum.
func (sb *FsSuper) IBlock(inum common.Inum) common.Bnum {
	return SUPERBLK + 1 + common.Bnum(uint64(inum)/common.IPB)
}

func (sb *FsSuper) BitmapStart() common.Bnum {
	return SUPERBLK + 1 + common.Bnum(sb.NInodeBlk())
}

// BBlock returns the bitmap block holding the bit for block b.
func (sb *FsSuper) BBlock(b common.Bnum) common.Bnum {
	return sb.BitmapStart() + common.Bnum(uint64(b)/common.BPB)
}

func (sb *FsSuper) DataStart() common.Bnum {
	return sb.BitmapStart() + common.Bnum(sb.NBitmapBlk())
}
