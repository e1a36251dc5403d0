// inode implements the inode layer: a fixed in-memory cache of open
// inodes, the busy/valid lock discipline, on-disk allocation, and the
// checksummed file read/write paths built on bmap.
//
// Lock discipline: the cache mutex protects table membership,
// reference counts, and flag bits only, and is never held across
// disk I/O. Long-lived exclusion on one inode is the iBusy flag,
// acquired by Ilock; waiters sleep on the inode's condition variable
// and are woken by Iunlock or eviction.
package inode

import (
	"sync"

	"github.com/mit-pdos/cksumfs/balloc"
	"github.com/mit-pdos/cksumfs/bcache"
	"github.com/mit-pdos/cksumfs/common"
	"github.com/mit-pdos/cksumfs/super"
	"github.com/mit-pdos/cksumfs/util"
)

const (
	iBusy  uint64 = 1 << 0
	iValid uint64 = 1 << 1
)

type Inode struct {
	c    *Cache
	Dev  uint64
	Inum common.Inum

	ref   uint64 // cache slot reference count
	flags uint64
	cond  *sync.Cond

	// copy of the on-disk inode, loaded on first Ilock
	Type     int16
	Major    int16
	Minor    int16
	Nlink    int16
	Size     uint32
	Addrs    [common.NDIRECT + 2]uint32
	Checksum [common.NDIRECT]uint32
}

type Cache struct {
	mu     sync.Mutex
	inodes [common.NINODE]Inode

	bc    *bcache.Bcache
	sb    *super.FsSuper
	alloc *balloc.Alloc
}

func MkCache(bc *bcache.Bcache, sb *super.FsSuper, alloc *balloc.Alloc) *Cache {
	c := &Cache{bc: bc, sb: sb, alloc: alloc}
	for i := range c.inodes {
		c.inodes[i].c = c
	}
	return c
}

// Icache returns the cache this inode belongs to.
func (ip *Inode) Icache() *Cache {
	return ip.c
}

// Iget returns an unlocked cached reference to inode (dev, inum),
// without reading it from disk.
func (c *Cache) Iget(dev uint64, inum common.Inum) *Inode {
	c.mu.Lock()
	var empty *Inode
	for i := range c.inodes {
		ip := &c.inodes[i]
		if ip.ref > 0 && ip.Dev == dev && ip.Inum == inum {
			ip.ref++
			c.mu.Unlock()
			return ip
		}
		if empty == nil && ip.ref == 0 {
			empty = ip
		}
	}
	if empty == nil {
		panic("iget: no inodes")
	}
	ip := empty
	ip.Dev = dev
	ip.Inum = inum
	ip.ref = 1
	ip.flags = 0
	if ip.cond == nil {
		ip.cond = sync.NewCond(&c.mu)
	}
	c.mu.Unlock()
	return ip
}

// Idup bumps the reference count and returns the same inode.
func (ip *Inode) Idup() *Inode {
	c := ip.c
	c.mu.Lock()
	ip.ref++
	c.mu.Unlock()
	return ip
}

// Iput drops a reference. If this was the last reference to a valid
// inode with no links, the inode is truncated and freed on disk
// before the slot is released.
func (ip *Inode) Iput() {
	c := ip.c
	c.mu.Lock()
	if ip.ref == 1 && ip.flags&iValid != 0 && ip.Nlink == 0 {
		if ip.flags&iBusy != 0 {
			panic("iput busy")
		}
		ip.flags |= iBusy
		c.mu.Unlock()

		ip.Itrunc()
		ip.Type = 0
		ip.Iupdate()

		c.mu.Lock()
		ip.flags = 0
		ip.cond.Broadcast()
	}
	ip.ref--
	c.mu.Unlock()
}

// Ilock sleeps until the inode is not busy, claims it, and loads the
// on-disk copy if this is the first lock since the slot was filled.
func (ip *Inode) Ilock() {
	c := ip.c
	c.mu.Lock()
	if ip.ref < 1 {
		panic("ilock: no ref")
	}
	for ip.flags&iBusy != 0 {
		ip.cond.Wait()
	}
	ip.flags |= iBusy
	valid := ip.flags&iValid != 0
	c.mu.Unlock()

	if !valid {
		blk := c.bc.Bread(ip.Dev, c.sb.IBlock(ip.Inum))
		ip.decode(dinodeData(blk, ip.Inum))
		c.bc.Brelse(blk)
		c.mu.Lock()
		ip.flags |= iValid
		c.mu.Unlock()
		if ip.Type == 0 {
			panic("ilock: no type")
		}
	}
}

func (ip *Inode) Iunlock() {
	c := ip.c
	c.mu.Lock()
	if ip.flags&iBusy == 0 || ip.ref < 1 {
		panic("iunlock")
	}
	ip.flags &^= iBusy
	ip.cond.Broadcast()
	c.mu.Unlock()
}

func (ip *Inode) Iunlockput() {
	ip.Iunlock()
	ip.Iput()
}

// Ialloc claims a free on-disk inode, marks its type, and returns an
// unlocked reference to it.
func (c *Cache) Ialloc(dev uint64, typ int16) *Inode {
	for inum := uint64(1); inum < c.sb.Ninodes; inum++ {
		blk := c.bc.Bread(dev, c.sb.IBlock(common.Inum(inum)))
		var din Inode
		din.decode(dinodeData(blk, common.Inum(inum)))
		if din.Type == 0 {
			var free Inode
			free.Type = typ
			copy(dinodeData(blk, common.Inum(inum)), free.encode())
			c.bc.Bwrite(blk)
			c.bc.Brelse(blk)
			util.DPrintf(5, "ialloc: %d type %d\n", inum, typ)
			return c.Iget(dev, common.Inum(inum))
		}
		c.bc.Brelse(blk)
	}
	panic("ialloc: no inodes")
}

// Iupdate writes the in-memory copy of the inode back to disk.
func (ip *Inode) Iupdate() {
	c := ip.c
	blk := c.bc.Bread(ip.Dev, c.sb.IBlock(ip.Inum))
	copy(dinodeData(blk, ip.Inum), ip.encode())
	c.bc.Bwrite(blk)
	c.bc.Brelse(blk)
}
