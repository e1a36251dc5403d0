package inode

import (
	"hash/adler32"

	"github.com/mit-pdos/cksumfs/common"
	"github.com/mit-pdos/cksumfs/dev"
	"github.com/mit-pdos/cksumfs/util"
)

// Readi reads n bytes starting at off into dst. Device inodes
// dispatch to the driver for their major number. Every data block is
// verified against its stored Adler-32 checksum; a mismatch fails
// the read. Returns bytes read or -1.
func (ip *Inode) Readi(dst []byte, off uint64, n uint64) int {
	c := ip.c
	if ip.Type == common.T_DEV {
		d := dev.Lookup(ip.Major)
		if d == nil || d.Read == nil {
			return -1
		}
		return d.Read(ip.Minor, dst[:n])
	}
	size := uint64(ip.Size)
	if off > size || util.SumOverflows(off, n) {
		return -1
	}
	if off+n > size {
		n = size - off
	}
	for tot := uint64(0); tot < n; {
		bn := off / common.BSIZE
		addr := ip.bmap(bn)
		if addr == common.NULLBNUM {
			panic("readi: unmapped block")
		}
		blk := c.bc.Bread(ip.Dev, addr)
		sum := adler32.Checksum(blk.Data)
		if sum != ip.cksumGet(bn) {
			c.bc.Brelse(blk)
			util.DPrintf(0, "checksum mismatch, block %d\n", bn)
			return -1
		}
		m := util.Min(n-tot, common.BSIZE-off%common.BSIZE)
		copy(dst[tot:tot+m], blk.Data[off%common.BSIZE:off%common.BSIZE+m])
		c.bc.Brelse(blk)
		tot += m
		off += m
	}
	return int(n)
}

// Writei writes n bytes from src at off, allocating blocks on
// demand and recording each full block's Adler-32 checksum in its
// tier-appropriate slot. Running out of disk ends the write early;
// the return value reports how many bytes landed. Returns -1 for a
// write starting past the end of the file.
func (ip *Inode) Writei(src []byte, off uint64, n uint64) int {
	c := ip.c
	if ip.Type == common.T_DEV {
		d := dev.Lookup(ip.Major)
		if d == nil || d.Write == nil {
			return -1
		}
		return d.Write(ip.Minor, src[:n])
	}
	if off > uint64(ip.Size) || util.SumOverflows(off, n) {
		return -1
	}
	if off+n > common.MAXFILE*common.BSIZE {
		n = common.MAXFILE*common.BSIZE - off
	}
	var tot uint64
	for tot < n {
		bn := off / common.BSIZE
		addr := ip.bmap(bn)
		if addr == common.NULLBNUM {
			// out of blocks: report the partial write
			break
		}
		blk := c.bc.Bread(ip.Dev, addr)
		m := util.Min(n-tot, common.BSIZE-off%common.BSIZE)
		copy(blk.Data[off%common.BSIZE:off%common.BSIZE+m], src[tot:tot+m])
		sum := adler32.Checksum(blk.Data)
		c.bc.Bwrite(blk)
		c.bc.Brelse(blk)
		ip.cksumSet(bn, sum)
		tot += m
		off += m
	}
	if tot > 0 {
		if off > uint64(ip.Size) {
			ip.Size = uint32(off)
		}
		ip.Iupdate()
	}
	return int(tot)
}

// Itrunc frees the file's data blocks and indirect blocks, zeroes
// the block map, and persists the empty inode.
func (ip *Inode) Itrunc() {
	c := ip.c
	for i := uint64(0); i < common.NDIRECT; i++ {
		if ip.Addrs[i] != 0 {
			c.alloc.Free(ip.Dev, common.Bnum(ip.Addrs[i]))
			ip.Addrs[i] = 0
			ip.Checksum[i] = 0
		}
	}
	if ip.Addrs[common.NDIRECT] != 0 {
		iaddr := common.Bnum(ip.Addrs[common.NDIRECT])
		blk := c.bc.Bread(ip.Dev, iaddr)
		for j := uint64(0); j < common.NINDIRECT; j++ {
			if a := blk.WordGet(j); a != 0 {
				c.alloc.Free(ip.Dev, common.Bnum(a))
			}
		}
		c.bc.Brelse(blk)
		c.alloc.Free(ip.Dev, iaddr)
		ip.Addrs[common.NDIRECT] = 0
	}
	if ip.Addrs[common.NDIRECT+1] != 0 {
		root := common.Bnum(ip.Addrs[common.NDIRECT+1])
		rblk := c.bc.Bread(ip.Dev, root)
		for i := uint64(0); i < common.NPTR; i++ {
			inner := common.Bnum(rblk.WordGet(i))
			if inner == common.NULLBNUM {
				continue
			}
			iblk := c.bc.Bread(ip.Dev, inner)
			for j := uint64(0); j < common.NINDIRECT; j++ {
				if a := iblk.WordGet(j); a != 0 {
					c.alloc.Free(ip.Dev, common.Bnum(a))
				}
			}
			c.bc.Brelse(iblk)
			c.alloc.Free(ip.Dev, inner)
		}
		c.bc.Brelse(rblk)
		c.alloc.Free(ip.Dev, root)
		ip.Addrs[common.NDIRECT+1] = 0
	}
	ip.Size = 0
	ip.Iupdate()
}

type Stat struct {
	Type     int16
	Dev      uint64
	Ino      common.Inum
	Nlink    int16
	Size     uint32
	Checksum uint32
}

// Stati copies the inode's metadata into st and folds every stored
// per-block checksum into a single whole-file digest by XOR.
func (ip *Inode) Stati(st *Stat) {
	c := ip.c
	st.Type = ip.Type
	st.Dev = ip.Dev
	st.Ino = ip.Inum
	st.Nlink = ip.Nlink
	st.Size = ip.Size

	var sum uint32
	for i := uint64(0); i < common.NDIRECT; i++ {
		sum ^= ip.Checksum[i]
	}
	if ip.Addrs[common.NDIRECT] != 0 {
		blk := c.bc.Bread(ip.Dev, common.Bnum(ip.Addrs[common.NDIRECT]))
		for j := uint64(0); j < common.NINDIRECT; j++ {
			if blk.WordGet(j) != 0 {
				sum ^= blk.WordGet(j + common.NINDIRECT)
			}
		}
		c.bc.Brelse(blk)
	}
	if ip.Addrs[common.NDIRECT+1] != 0 {
		rblk := c.bc.Bread(ip.Dev, common.Bnum(ip.Addrs[common.NDIRECT+1]))
		for i := uint64(0); i < common.NPTR; i++ {
			inner := common.Bnum(rblk.WordGet(i))
			if inner == common.NULLBNUM {
				continue
			}
			iblk := c.bc.Bread(ip.Dev, inner)
			for j := uint64(0); j < common.NINDIRECT; j++ {
				if iblk.WordGet(j) != 0 {
					sum ^= iblk.WordGet(j + common.NINDIRECT)
				}
			}
			c.bc.Brelse(iblk)
		}
		c.bc.Brelse(rblk)
	}
	st.Checksum = sum
}
