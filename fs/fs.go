// fs ties the layers together: it mounts a device (superblock,
// allocator, inode cache) and resolves slash-separated paths to
// inodes.
package fs

import (
	"github.com/mit-pdos/cksumfs/balloc"
	"github.com/mit-pdos/cksumfs/bcache"
	"github.com/mit-pdos/cksumfs/common"
	"github.com/mit-pdos/cksumfs/dir"
	"github.com/mit-pdos/cksumfs/disk"
	"github.com/mit-pdos/cksumfs/inode"
	"github.com/mit-pdos/cksumfs/super"
	"github.com/mit-pdos/cksumfs/util"
)

type FileSys struct {
	Bc     *bcache.Bcache
	Sb     *super.FsSuper
	Balloc *balloc.Alloc
	Ic     *inode.Cache
}

// MkFileSys mounts the filesystem on d: reads the superblock once
// and wires up the allocator and inode cache.
func MkFileSys(d disk.Disk) *FileSys {
	bc := bcache.MkBcache()
	bc.AddDev(common.ROOTDEV, d)
	blk := bc.Bread(common.ROOTDEV, super.SUPERBLK)
	sb := super.Decode(blk.Data)
	bc.Brelse(blk)
	util.DPrintf(1, "fs: size %d nblocks %d ninodes %d\n",
		sb.Size, sb.Nblocks, sb.Ninodes)
	a := balloc.MkAlloc(bc, sb)
	return &FileSys{
		Bc:     bc,
		Sb:     sb,
		Balloc: a,
		Ic:     inode.MkCache(bc, sb, a),
	}
}

// Root returns an unlocked reference to the root directory.
func (fsys *FileSys) Root() *inode.Inode {
	return fsys.Ic.Iget(common.ROOTDEV, common.ROOTINO)
}

// SkipElem consumes leading slashes and the next path element.
// It returns the remaining path, the element (truncated to DIRSIZ
// bytes), and whether an element was found.
//
//	SkipElem("///a//bb") = ("bb", "a", true)
//	SkipElem("") = ("", "", false)
func SkipElem(path string) (string, string, bool) {
	i := 0
	for i < len(path) && path[i] == '/' {
		i++
	}
	if i == len(path) {
		return "", "", false
	}
	s := i
	for i < len(path) && path[i] != '/' {
		i++
	}
	name := path[s:i]
	if uint64(len(name)) > common.DIRSIZ {
		name = name[:common.DIRSIZ]
	}
	for i < len(path) && path[i] == '/' {
		i++
	}
	return path[i:], name, true
}

// namex walks path starting from the root (absolute paths) or cwd.
// With parent set it stops one element early, returning the parent
// directory and the final element's name. The returned inode is
// referenced but unlocked.
func (fsys *FileSys) namex(cwd *inode.Inode, path string, parent bool) (*inode.Inode, string) {
	var ip *inode.Inode
	if (len(path) > 0 && path[0] == '/') || cwd == nil {
		ip = fsys.Root()
	} else {
		ip = cwd.Idup()
	}

	var name string
	var ok bool
	for {
		path, name, ok = SkipElem(path)
		if !ok {
			break
		}
		ip.Ilock()
		if ip.Type != common.T_DIR {
			ip.Iunlockput()
			return nil, ""
		}
		if parent && path == "" {
			ip.Iunlock()
			return ip, name
		}
		next := dir.Lookup(ip, name, nil)
		if next == nil {
			ip.Iunlockput()
			return nil, ""
		}
		ip.Iunlockput()
		ip = next
	}
	if parent {
		// path had no final element to name
		ip.Iput()
		return nil, ""
	}
	return ip, name
}

// Namei resolves path to an unlocked inode reference, or nil.
func (fsys *FileSys) Namei(cwd *inode.Inode, path string) *inode.Inode {
	ip, _ := fsys.namex(cwd, path, false)
	return ip
}

// NameiParent resolves path to the parent directory of its final
// element, returning the parent and the element's name.
func (fsys *FileSys) NameiParent(cwd *inode.Inode, path string) (*inode.Inode, string) {
	return fsys.namex(cwd, path, true)
}

// Create makes an inode of the given type linked at path, in the
// manner of open(O_CREATE). Returns the new inode locked, or nil if
// the parent is missing or the name is already taken. The one
// exception: creating a T_FILE over an existing T_FILE returns that
// file, locked.
func (fsys *FileSys) Create(cwd *inode.Inode, path string, typ int16, major int16, minor int16) *inode.Inode {
	dp, name := fsys.NameiParent(cwd, path)
	if dp == nil {
		return nil
	}
	dp.Ilock()

	if ip := dir.Lookup(dp, name, nil); ip != nil {
		dp.Iunlockput()
		ip.Ilock()
		if typ == common.T_FILE && ip.Type == common.T_FILE {
			return ip
		}
		ip.Iunlockput()
		return nil
	}

	ip := fsys.Ic.Ialloc(dp.Dev, typ)
	ip.Ilock()
	ip.Major = major
	ip.Minor = minor
	ip.Nlink = 1
	ip.Iupdate()

	if typ == common.T_DIR {
		// parent gains a ".." reference
		dp.Nlink++
		dp.Iupdate()
		dir.Link(ip, ".", ip.Inum)
		dir.Link(ip, "..", dp.Inum)
	}
	if dir.Link(dp, name, ip.Inum) != 0 {
		panic("create: dirlink")
	}
	dp.Iunlockput()
	return ip
}
