package balloc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mit-pdos/cksumfs/bcache"
	"github.com/mit-pdos/cksumfs/common"
	"github.com/mit-pdos/cksumfs/disk"
	"github.com/mit-pdos/cksumfs/super"
)

func mkTestAlloc(size uint64) (*Alloc, *bcache.Bcache, *super.FsSuper) {
	d := disk.NewMemDisk(size)
	sb := &super.FsSuper{Size: size, Ninodes: 8}
	sb.Nblocks = size - uint64(sb.DataStart())
	MarkUsed(d, sb, uint64(sb.DataStart()))
	bc := bcache.MkBcache()
	bc.AddDev(common.ROOTDEV, d)
	return MkAlloc(bc, sb), bc, sb
}

func TestAllocSkipsMetadata(t *testing.T) {
	assert := assert.New(t)
	a, _, sb := mkTestAlloc(100)

	bno := a.Alloc(common.ROOTDEV)
	assert.Equal(sb.DataStart(), bno, "first alloc is the first data block")
	bno2 := a.Alloc(common.ROOTDEV)
	assert.Equal(bno+1, bno2)
}

func TestFreeRealloc(t *testing.T) {
	assert := assert.New(t)
	a, bc, _ := mkTestAlloc(100)

	bno := a.Alloc(common.ROOTDEV)
	a.Alloc(common.ROOTDEV)

	// dirty the block, then free: contents must be zeroed on disk
	b := bc.Bread(common.ROOTDEV, bno)
	b.Data[0] = 0xFF
	bc.Bwrite(b)
	bc.Brelse(b)
	a.Free(common.ROOTDEV, bno)

	b = bc.Bread(common.ROOTDEV, bno)
	assert.Equal(make(disk.Block, disk.BlockSize), b.Data)
	bc.Brelse(b)

	// the freed block is the first clear bit again
	assert.Equal(bno, a.Alloc(common.ROOTDEV))
}

func TestDoubleFreePanics(t *testing.T) {
	a, _, _ := mkTestAlloc(100)
	bno := a.Alloc(common.ROOTDEV)
	a.Free(common.ROOTDEV, bno)
	assert.Panics(t, func() { a.Free(common.ROOTDEV, bno) })
}

func TestExhaustionReturnsNull(t *testing.T) {
	assert := assert.New(t)
	a, _, sb := mkTestAlloc(64)

	nfree := sb.Size - uint64(sb.DataStart())
	for i := uint64(0); i < nfree; i++ {
		assert.NotEqual(common.NULLBNUM, a.Alloc(common.ROOTDEV))
	}
	assert.Equal(common.NULLBNUM, a.Alloc(common.ROOTDEV))

	// freeing one makes it allocatable again
	a.Free(common.ROOTDEV, sb.DataStart())
	assert.Equal(sb.DataStart(), a.Alloc(common.ROOTDEV))
	assert.Equal(common.NULLBNUM, a.Alloc(common.ROOTDEV))
}

func TestNumFree(t *testing.T) {
	assert := assert.New(t)
	a, _, sb := mkTestAlloc(100)

	nfree := a.NumFree(common.ROOTDEV)
	assert.Equal(sb.Size-uint64(sb.DataStart()), nfree)

	bno := a.Alloc(common.ROOTDEV)
	assert.Equal(nfree-1, a.NumFree(common.ROOTDEV))
	a.Free(common.ROOTDEV, bno)
	assert.Equal(nfree, a.NumFree(common.ROOTDEV))
}
