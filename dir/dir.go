// dir treats a T_DIR inode's contents as an array of fixed-size
// directory entries. An entry with inum 0 is vacant. Names are
// NUL-padded to DIRSIZ bytes on disk; a name of exactly DIRSIZ bytes
// has no terminator.
package dir

import (
	"encoding/binary"

	"github.com/mit-pdos/cksumfs/common"
	"github.com/mit-pdos/cksumfs/inode"
)

const DirentSz uint64 = 2 + common.DIRSIZ

type Dirent struct {
	Inum common.Inum
	Name string
}

func (de *Dirent) Encode() []byte {
	d := make([]byte, DirentSz)
	binary.LittleEndian.PutUint16(d, uint16(de.Inum))
	copy(d[2:], de.Name)
	return d
}

func (de *Dirent) Decode(d []byte) {
	de.Inum = common.Inum(binary.LittleEndian.Uint16(d))
	name := d[2 : 2+common.DIRSIZ]
	n := 0
	for n < len(name) && name[n] != 0 {
		n++
	}
	de.Name = string(name[:n])
}

func nameByte(s string, i uint64) byte {
	if i < uint64(len(s)) {
		return s[i]
	}
	return 0
}

// NameCmp compares the first DIRSIZ bytes of two names, treating
// both as NUL-padded. Returns 0 when they match.
func NameCmp(a string, b string) int {
	for i := uint64(0); i < common.DIRSIZ; i++ {
		ca, cb := nameByte(a, i), nameByte(b, i)
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Lookup searches locked directory dp for an entry with the given
// name. On a match it returns an unlocked reference to the entry's
// inode and, when poff is non-nil, the entry's byte offset.
func Lookup(dp *inode.Inode, name string, poff *uint64) *inode.Inode {
	if dp.Type != common.T_DIR {
		panic("dirlookup: not a directory")
	}
	buf := make([]byte, DirentSz)
	var de Dirent
	for off := uint64(0); off < uint64(dp.Size); off += DirentSz {
		if dp.Readi(buf, off, DirentSz) != int(DirentSz) {
			panic("dirlookup: dirent read")
		}
		de.Decode(buf)
		if de.Inum == common.NULLINUM {
			continue
		}
		if NameCmp(de.Name, name) == 0 {
			if poff != nil {
				*poff = off
			}
			return dp.Icache().Iget(dp.Dev, de.Inum)
		}
	}
	return nil
}

// Link adds an entry (name, inum) to locked directory dp, reusing
// the first vacant slot or appending past the end. Fails with -1 if
// the name already exists.
func Link(dp *inode.Inode, name string, inum common.Inum) int {
	if ip := Lookup(dp, name, nil); ip != nil {
		ip.Iput()
		return -1
	}

	buf := make([]byte, DirentSz)
	var de Dirent
	var off uint64
	for off = 0; off < uint64(dp.Size); off += DirentSz {
		if dp.Readi(buf, off, DirentSz) != int(DirentSz) {
			panic("dirlink: dirent read")
		}
		de.Decode(buf)
		if de.Inum == common.NULLINUM {
			break
		}
	}

	de.Inum = inum
	de.Name = name
	if dp.Writei(de.Encode(), off, DirentSz) != int(DirentSz) {
		panic("dirlink: dirent write")
	}
	return 0
}
