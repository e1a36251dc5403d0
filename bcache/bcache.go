package bcache

import (
	"sync"

	"github.com/mit-pdos/cksumfs/common"
	"github.com/mit-pdos/cksumfs/disk"
)

// Per-buffer exclusion is a refcounted map of mutexes keyed by
// (dev, blkno). A thread registers interest under the table mutex,
// then blocks on the buffer's own mutex; the entry is dropped when
// the last interested thread releases. The table mutex is never held
// while waiting for a buffer.

type bufLock struct {
	mu   sync.Mutex
	refs uint64
}

type Bcache struct {
	mu    sync.Mutex
	devs  map[uint64]disk.Disk
	locks map[uint64]*bufLock
}

func MkBcache() *Bcache {
	return &Bcache{
		devs:  make(map[uint64]disk.Disk),
		locks: make(map[uint64]*bufLock),
	}
}

// AddDev attaches a disk as device number dev.
func (bc *Bcache) AddDev(dev uint64, d disk.Disk) {
	bc.mu.Lock()
	bc.devs[dev] = d
	bc.mu.Unlock()
}

func (bc *Bcache) disk(dev uint64) disk.Disk {
	bc.mu.Lock()
	d, ok := bc.devs[dev]
	bc.mu.Unlock()
	if !ok {
		panic("bcache: unknown device")
	}
	return d
}

func flataddr(dev uint64, blkno common.Bnum) uint64 {
	return dev<<48 + uint64(blkno)
}

func (bc *Bcache) lockBuf(addr uint64) {
	bc.mu.Lock()
	l, ok := bc.locks[addr]
	if !ok {
		l = &bufLock{}
		bc.locks[addr] = l
	}
	l.refs++
	bc.mu.Unlock()
	l.mu.Lock()
}

func (bc *Bcache) unlockBuf(addr uint64) {
	bc.mu.Lock()
	l, ok := bc.locks[addr]
	if !ok {
		panic("brelse: buffer not held")
	}
	l.refs--
	if l.refs == 0 {
		delete(bc.locks, addr)
	}
	bc.mu.Unlock()
	l.mu.Unlock()
}

// Bread returns a locked buffer holding the contents of a block.
// It may block while another thread holds the buffer.
func (bc *Bcache) Bread(dev uint64, blkno common.Bnum) *Buf {
	bc.lockBuf(flataddr(dev, blkno))
	blk, err := bc.disk(dev).Read(uint64(blkno))
	if err != nil {
		panic("bread: " + err.Error())
	}
	return &Buf{Dev: dev, Blkno: blkno, Data: blk}
}

// Bwrite pushes a locked buffer's contents to disk synchronously.
func (bc *Bcache) Bwrite(b *Buf) {
	err := bc.disk(b.Dev).Write(uint64(b.Blkno), b.Data)
	if err != nil {
		panic("bwrite: " + err.Error())
	}
}

// Brelse releases the buffer's exclusion; b must not be used after.
func (bc *Bcache) Brelse(b *Buf) {
	bc.unlockBuf(flataddr(b.Dev, b.Blkno))
}
