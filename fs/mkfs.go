package fs

import (
	"github.com/mit-pdos/cksumfs/balloc"
	"github.com/mit-pdos/cksumfs/common"
	"github.com/mit-pdos/cksumfs/dir"
	"github.com/mit-pdos/cksumfs/disk"
	"github.com/mit-pdos/cksumfs/super"
	"github.com/mit-pdos/cksumfs/util"
)

// MkFs formats d with an empty filesystem holding ninodes inodes and
// a root directory containing "." and "..", then returns it mounted.
func MkFs(d disk.Disk, ninodes uint64) *FileSys {
	size, err := d.Size()
	if err != nil {
		panic("mkfs: disk size")
	}
	sb := &super.FsSuper{Size: size, Ninodes: ninodes}
	if uint64(sb.DataStart()) >= size {
		panic("mkfs: disk too small")
	}
	sb.Nblocks = size - uint64(sb.DataStart())
	util.DPrintf(1, "mkfs: size %d nblocks %d ninodes %d datastart %d\n",
		sb.Size, sb.Nblocks, sb.Ninodes, sb.DataStart())

	zero := make(disk.Block, disk.BlockSize)
	for i := uint64(0); i < size; i++ {
		d.Write(i, zero)
	}
	d.Write(uint64(super.SUPERBLK), sb.Encode())
	balloc.MarkUsed(d, sb, uint64(sb.DataStart()))

	fsys := MkFileSys(d)
	rip := fsys.Ic.Ialloc(common.ROOTDEV, common.T_DIR)
	if rip.Inum != common.ROOTINO {
		panic("mkfs: root inum")
	}
	rip.Ilock()
	rip.Nlink = 1
	dir.Link(rip, ".", rip.Inum)
	dir.Link(rip, "..", rip.Inum)
	rip.Iupdate()
	rip.Iunlockput()
	return fsys
}
