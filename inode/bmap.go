package inode

import (
	"github.com/mit-pdos/cksumfs/common"
)

// The block map has three tiers. Logical blocks below NDIRECT live
// in Addrs directly, with their Adler-32 checksums in the inode's
// Checksum array. The next NINDIRECT-1 blocks go through the
// single-indirect block at Addrs[NDIRECT], whose lower pointer words
// pair with checksum words in its upper half. Everything past that
// goes through the double-indirect root at Addrs[NDIRECT+1]: a block
// of pointers to inner blocks, each inner block using the same
// paired pointer/checksum layout.

// dblStart is the first logical block served by the double-indirect
// tier.
const dblStart = common.NDIRECT + common.NINDIRECT - 1

// bmap maps logical block bn to a disk block, allocating the slot
// and any intermediate indirect blocks on first touch. Returns
// NULLBNUM when the disk is out of blocks.
func (ip *Inode) bmap(bn uint64) common.Bnum {
	c := ip.c
	if bn < common.NDIRECT {
		addr := common.Bnum(ip.Addrs[bn])
		if addr == common.NULLBNUM {
			addr = c.alloc.Alloc(ip.Dev)
			ip.Addrs[bn] = uint32(addr)
		}
		return addr
	}
	if bn < dblStart {
		j := bn - common.NDIRECT
		iaddr := common.Bnum(ip.Addrs[common.NDIRECT])
		if iaddr == common.NULLBNUM {
			iaddr = c.alloc.Alloc(ip.Dev)
			if iaddr == common.NULLBNUM {
				return common.NULLBNUM
			}
			ip.Addrs[common.NDIRECT] = uint32(iaddr)
		}
		blk := c.bc.Bread(ip.Dev, iaddr)
		addr := common.Bnum(blk.WordGet(j))
		if addr == common.NULLBNUM {
			addr = c.alloc.Alloc(ip.Dev)
			if addr != common.NULLBNUM {
				blk.WordPut(j, uint32(addr))
				c.bc.Bwrite(blk)
			}
		}
		c.bc.Brelse(blk)
		return addr
	}
	if bn >= common.MAXFILE {
		panic("bmap: out of range")
	}

	off := bn - dblStart
	root := common.Bnum(ip.Addrs[common.NDIRECT+1])
	if root == common.NULLBNUM {
		root = c.alloc.Alloc(ip.Dev)
		if root == common.NULLBNUM {
			return common.NULLBNUM
		}
		ip.Addrs[common.NDIRECT+1] = uint32(root)
	}
	rblk := c.bc.Bread(ip.Dev, root)
	inner := common.Bnum(rblk.WordGet(off / common.NINDIRECT))
	if inner == common.NULLBNUM {
		inner = c.alloc.Alloc(ip.Dev)
		if inner == common.NULLBNUM {
			c.bc.Brelse(rblk)
			return common.NULLBNUM
		}
		rblk.WordPut(off/common.NINDIRECT, uint32(inner))
		c.bc.Bwrite(rblk)
	}
	c.bc.Brelse(rblk)

	iblk := c.bc.Bread(ip.Dev, inner)
	addr := common.Bnum(iblk.WordGet(off % common.NINDIRECT))
	if addr == common.NULLBNUM {
		addr = c.alloc.Alloc(ip.Dev)
		if addr != common.NULLBNUM {
			iblk.WordPut(off%common.NINDIRECT, uint32(addr))
			c.bc.Bwrite(iblk)
		}
	}
	c.bc.Brelse(iblk)
	return addr
}

// cksumGet reads the stored checksum paired with logical block bn.
// All blocks up to bn must be mapped.
func (ip *Inode) cksumGet(bn uint64) uint32 {
	c := ip.c
	if bn < common.NDIRECT {
		return ip.Checksum[bn]
	}
	if bn < dblStart {
		j := bn - common.NDIRECT
		iaddr := common.Bnum(ip.Addrs[common.NDIRECT])
		if iaddr == common.NULLBNUM {
			panic("cksumGet: unmapped indirect")
		}
		blk := c.bc.Bread(ip.Dev, iaddr)
		sum := blk.WordGet(j + common.NINDIRECT)
		c.bc.Brelse(blk)
		return sum
	}
	off := bn - dblStart
	root := common.Bnum(ip.Addrs[common.NDIRECT+1])
	if root == common.NULLBNUM {
		panic("cksumGet: unmapped double-indirect")
	}
	rblk := c.bc.Bread(ip.Dev, root)
	inner := common.Bnum(rblk.WordGet(off / common.NINDIRECT))
	c.bc.Brelse(rblk)
	if inner == common.NULLBNUM {
		panic("cksumGet: unmapped inner block")
	}
	iblk := c.bc.Bread(ip.Dev, inner)
	sum := iblk.WordGet(off%common.NINDIRECT + common.NINDIRECT)
	c.bc.Brelse(iblk)
	return sum
}

// cksumSet stores the checksum paired with logical block bn. Direct
// checksums live in the inode and reach disk with the next Iupdate;
// indirect tiers write the owning indirect block back immediately.
func (ip *Inode) cksumSet(bn uint64, sum uint32) {
	c := ip.c
	if bn < common.NDIRECT {
		ip.Checksum[bn] = sum
		return
	}
	if bn < dblStart {
		j := bn - common.NDIRECT
		iaddr := common.Bnum(ip.Addrs[common.NDIRECT])
		if iaddr == common.NULLBNUM {
			panic("cksumSet: unmapped indirect")
		}
		blk := c.bc.Bread(ip.Dev, iaddr)
		blk.WordPut(j+common.NINDIRECT, sum)
		c.bc.Bwrite(blk)
		c.bc.Brelse(blk)
		return
	}
	off := bn - dblStart
	root := common.Bnum(ip.Addrs[common.NDIRECT+1])
	if root == common.NULLBNUM {
		panic("cksumSet: unmapped double-indirect")
	}
	rblk := c.bc.Bread(ip.Dev, root)
	inner := common.Bnum(rblk.WordGet(off / common.NINDIRECT))
	c.bc.Brelse(rblk)
	if inner == common.NULLBNUM {
		panic("cksumSet: unmapped inner block")
	}
	iblk := c.bc.Bread(ip.Dev, inner)
	iblk.WordPut(off%common.NINDIRECT+common.NINDIRECT, sum)
	c.bc.Bwrite(iblk)
	c.bc.Brelse(iblk)
}
