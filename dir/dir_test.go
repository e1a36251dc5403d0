package dir_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/mit-pdos/cksumfs/common"
	"github.com/mit-pdos/cksumfs/dir"
	"github.com/mit-pdos/cksumfs/disk"
	"github.com/mit-pdos/cksumfs/fs"
	"github.com/mit-pdos/cksumfs/inode"
)

func mkFs() *fs.FileSys {
	return fs.MkFs(disk.NewMemDisk(2000), 200)
}

// readDir decodes every dirent of a locked directory.
func readDir(t *testing.T, dp *inode.Inode) []dir.Dirent {
	t.Helper()
	var ents []dir.Dirent
	buf := make([]byte, dir.DirentSz)
	for off := uint64(0); off < uint64(dp.Size); off += dir.DirentSz {
		if dp.Readi(buf, off, dir.DirentSz) != int(dir.DirentSz) {
			t.Fatal("dirent read")
		}
		var de dir.Dirent
		de.Decode(buf)
		ents = append(ents, de)
	}
	return ents
}

func TestNameCmp(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(0, dir.NameCmp("a", "a"))
	assert.NotEqual(0, dir.NameCmp("a", "b"))
	assert.NotEqual(0, dir.NameCmp("bb", "bbb"))
	assert.NotEqual(0, dir.NameCmp("", "a"))
	// only the first DIRSIZ bytes participate
	assert.Equal(0, dir.NameCmp("aaaaaaaaaaaaaax", "aaaaaaaaaaaaaay"))
}

func TestDirentCodec(t *testing.T) {
	assert := assert.New(t)
	de := dir.Dirent{Inum: 7, Name: "hello"}
	d := de.Encode()
	assert.Equal(int(dir.DirentSz), len(d))

	var got dir.Dirent
	got.Decode(d)
	assert.Equal(de, got)

	// a DIRSIZ-byte name has no NUL terminator and survives intact
	long := dir.Dirent{Inum: 9, Name: "aaaaaaaaaaaaaa"}
	assert.Equal(uint64(len(long.Name)), common.DIRSIZ)
	var got2 dir.Dirent
	got2.Decode(long.Encode())
	assert.Equal(long, got2)
}

func TestLookup(t *testing.T) {
	assert := assert.New(t)
	fsys := mkFs()
	for _, p := range []string{"/a", "/bb", "/c"} {
		ip := fsys.Create(nil, p, common.T_FILE, 0, 0)
		ip.Iunlockput()
	}

	// resolve the path before locking the root: namex locks it too
	want := fsys.Namei(nil, "/bb")

	dp := fsys.Root()
	dp.Ilock()
	defer dp.Iunlockput()

	var off uint64
	ip := dir.Lookup(dp, "bb", &off)
	if assert.NotNil(ip) {
		assert.Equal(want.Inum, ip.Inum)
		// entries: ".", "..", "a", "bb"
		assert.Equal(3*dir.DirentSz, off)
		ip.Iput()
	}
	want.Iput()

	assert.Nil(dir.Lookup(dp, "bbb", nil))
	assert.Nil(dir.Lookup(dp, "", nil))
}

func TestLinkDuplicateFails(t *testing.T) {
	assert := assert.New(t)
	fsys := mkFs()
	ip := fsys.Create(nil, "/a", common.T_FILE, 0, 0)
	inum := ip.Inum
	ip.Iunlockput()

	dp := fsys.Root()
	dp.Ilock()
	defer dp.Iunlockput()
	assert.Equal(-1, dir.Link(dp, "a", inum))
	assert.Equal(0, dir.Link(dp, "a2", inum))
}

func TestLinkReusesVacantSlot(t *testing.T) {
	assert := assert.New(t)
	fsys := mkFs()
	ipa := fsys.Create(nil, "/a", common.T_FILE, 0, 0)
	ipa.Iunlockput()
	ipb := fsys.Create(nil, "/b", common.T_FILE, 0, 0)
	inumB := ipb.Inum
	ipb.Iunlockput()

	dp := fsys.Root()
	dp.Ilock()
	defer dp.Iunlockput()

	// vacate "a"'s slot the way unlink would
	var off uint64
	ip := dir.Lookup(dp, "a", &off)
	ip.Iput()
	vacant := dir.Dirent{}
	assert.Equal(int(dir.DirentSz), dp.Writei(vacant.Encode(), off, dir.DirentSz))

	size0 := dp.Size
	assert.Equal(0, dir.Link(dp, "bbb", inumB))
	assert.Equal(size0, dp.Size, "vacant slot reused, no growth")

	var off2 uint64
	ip2 := dir.Lookup(dp, "bbb", &off2)
	if assert.NotNil(ip2) {
		assert.Equal(off, off2)
		ip2.Iput()
	}
}

func TestDirContents(t *testing.T) {
	fsys := mkFs()
	var inums []common.Inum
	for _, p := range []string{"/a", "/bb", "/c"} {
		ip := fsys.Create(nil, p, common.T_FILE, 0, 0)
		inums = append(inums, ip.Inum)
		ip.Iunlockput()
	}

	dp := fsys.Root()
	dp.Ilock()
	defer dp.Iunlockput()

	want := []dir.Dirent{
		{Inum: common.ROOTINO, Name: "."},
		{Inum: common.ROOTINO, Name: ".."},
		{Inum: inums[0], Name: "a"},
		{Inum: inums[1], Name: "bb"},
		{Inum: inums[2], Name: "c"},
	}
	if diff := cmp.Diff(want, readDir(t, dp)); diff != "" {
		t.Errorf("directory mismatch (-want +got):\n%s", diff)
	}
}

func TestLookupOnFilePanics(t *testing.T) {
	fsys := mkFs()
	ip := fsys.Create(nil, "/a", common.T_FILE, 0, 0)
	defer ip.Iunlockput()
	assert.Panics(t, func() { dir.Lookup(ip, "x", nil) })
}
