// bcache provides exclusive access to disk blocks, in the style of a
// kernel buffer cache: Bread returns a locked buffer, Bwrite pushes
// its contents to disk synchronously, and Brelse gives up the buffer.
package bcache

import (
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/cksumfs/common"
	"github.com/mit-pdos/cksumfs/disk"
)

// A Buf is a locked copy of one disk block. The holder has exclusive
// access between Bread and Brelse.
type Buf struct {
	Dev   uint64
	Blkno common.Bnum
	Data  disk.Block
}

// WordGet reads the i'th little-endian u32 word of the block.
// Indirect blocks store block pointers and checksums as words.
func (b *Buf) WordGet(i uint64) uint32 {
	dec := marshal.NewDec(b.Data[i*4 : i*4+4])
	return dec.GetInt32()
}

// WordPut overwrites the i'th little-endian u32 word of the block.
func (b *Buf) WordPut(i uint64, v uint32) {
	enc := marshal.NewEnc(4)
	enc.PutInt32(v)
	copy(b.Data[i*4:i*4+4], enc.Finish())
}
