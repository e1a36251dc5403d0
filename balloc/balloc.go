// balloc allocates and frees data blocks using the on-disk free
// bitmap. Bit b of the bitmap is set iff block b is in use; mkfs
// pre-marks the boot, super, inode, and bitmap blocks.
package balloc

import (
	"github.com/mit-pdos/cksumfs/bcache"
	"github.com/mit-pdos/cksumfs/common"
	"github.com/mit-pdos/cksumfs/disk"
	"github.com/mit-pdos/cksumfs/super"
	"github.com/mit-pdos/cksumfs/util"
)

type Alloc struct {
	bc *bcache.Bcache
	sb *super.FsSuper
}

func MkAlloc(bc *bcache.Bcache, sb *super.FsSuper) *Alloc {
	return &Alloc{bc: bc, sb: sb}
}

func bitMask(bi uint64) byte {
	return byte(1) << (bi % 8)
}

// Alloc claims the first clear bit in the bitmap and returns its
// block number. Returns NULLBNUM when the disk is full; callers must
// handle that.
func (a *Alloc) Alloc(dev uint64) common.Bnum {
	for b := uint64(0); b < a.sb.Size; b += common.BPB {
		blk := a.bc.Bread(dev, a.sb.BBlock(b))
		bound := common.BPB
		if b+common.BPB > a.sb.Size {
			bound = a.sb.Size % common.BPB
		}
		for bi := uint64(0); bi < bound; bi++ {
			m := bitMask(bi)
			if blk.Data[bi/8]&m == 0 {
				blk.Data[bi/8] |= m
				a.bc.Bwrite(blk)
				a.bc.Brelse(blk)
				util.DPrintf(5, "balloc: %d\n", b+bi)
				return common.Bnum(b + bi)
			}
		}
		a.bc.Brelse(blk)
	}
	util.DPrintf(1, "balloc: out of blocks\n")
	return common.NULLBNUM
}

// Free returns block bno to the bitmap. The block's contents are
// zeroed first so stale data cannot leak into a later allocation.
func (a *Alloc) Free(dev uint64, bno common.Bnum) {
	a.Zero(dev, bno)
	blk := a.bc.Bread(dev, a.sb.BBlock(bno))
	bi := uint64(bno) % common.BPB
	m := bitMask(bi)
	if blk.Data[bi/8]&m == 0 {
		panic("bfree: freeing free block")
	}
	blk.Data[bi/8] &^= m
	a.bc.Bwrite(blk)
	a.bc.Brelse(blk)
	util.DPrintf(5, "bfree: %d\n", bno)
}

// Zero overwrites block bno with zeros synchronously.
func (a *Alloc) Zero(dev uint64, bno common.Bnum) {
	blk := a.bc.Bread(dev, bno)
	for i := range blk.Data {
		blk.Data[i] = 0
	}
	a.bc.Bwrite(blk)
	a.bc.Brelse(blk)
}

// NumFree counts clear bits; handy for checking that frees balance
// allocations.
func (a *Alloc) NumFree(dev uint64) uint64 {
	var n uint64
	for b := uint64(0); b < a.sb.Size; b += common.BPB {
		blk := a.bc.Bread(dev, a.sb.BBlock(b))
		bound := common.BPB
		if b+common.BPB > a.sb.Size {
			bound = a.sb.Size % common.BPB
		}
		for bi := uint64(0); bi < bound; bi++ {
			if blk.Data[bi/8]&bitMask(bi) == 0 {
				n++
			}
		}
		a.bc.Brelse(blk)
	}
	return n
}

// MarkUsed sets the bits for blocks [0, n) directly on disk; used by
// mkfs to reserve the metadata region.
func MarkUsed(d disk.Disk, sb *super.FsSuper, n uint64) {
	blk := make(disk.Block, disk.BlockSize)
	if n >= common.BPB {
		panic("markUsed: metadata spans bitmap blocks")
	}
	for bn := uint64(0); bn < n; bn++ {
		blk[bn/8] |= bitMask(bn)
	}
	d.Write(uint64(sb.BitmapStart()), blk)
}
