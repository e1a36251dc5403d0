package super

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mit-pdos/cksumfs/common"
	"github.com/mit-pdos/cksumfs/disk"
)

func TestEncodeDecode(t *testing.T) {
	assert := assert.New(t)
	sb := &FsSuper{Size: 2000, Nblocks: 1941, Ninodes: 200}
	blk := sb.Encode()
	assert.Equal(int(disk.BlockSize), len(blk))
	assert.Equal(sb, Decode(blk))
}

func TestGeometry(t *testing.T) {
	assert := assert.New(t)
	sb := &FsSuper{Size: 2000, Nblocks: 1941, Ninodes: 200}

	// 200 inodes at 4 per block -> 51 inode blocks starting at 2
	assert.Equal(uint64(51), sb.NInodeBlk())
	assert.Equal(common.Bnum(2), sb.IBlock(0))
	assert.Equal(common.Bnum(2), sb.IBlock(3))
	assert.Equal(common.Bnum(3), sb.IBlock(4))

	// bitmap follows the inode blocks; 2000 blocks fit in one
	// bitmap block
	assert.Equal(common.Bnum(53), sb.BitmapStart())
	assert.Equal(uint64(1), sb.NBitmapBlk())
	assert.Equal(sb.BitmapStart(), sb.BBlock(0))
	assert.Equal(sb.BitmapStart(), sb.BBlock(1999))

	assert.Equal(common.Bnum(54), sb.DataStart())
}
