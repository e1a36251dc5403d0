// fstat opens a path inside a filesystem image and prints its
// metadata, including the whole-file checksum.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mit-pdos/cksumfs/disk"
	"github.com/mit-pdos/cksumfs/fs"
	"github.com/mit-pdos/cksumfs/inode"
)

func main() {
	flag.Parse()
	if flag.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: fstat <img> <path>")
		os.Exit(1)
	}
	img := flag.Arg(0)
	path := flag.Arg(1)

	fi, err := os.Stat(img)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fstat: %v\n", err)
		os.Exit(1)
	}
	d, err := disk.NewFileDisk(img, uint64(fi.Size())/disk.BlockSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fstat: %v\n", err)
		os.Exit(1)
	}
	defer d.Close()

	fsys := fs.MkFileSys(d)
	ip := fsys.Namei(nil, path)
	if ip == nil {
		fmt.Fprintf(os.Stderr, "fstat: %s: no such file or directory\n", path)
		os.Exit(1)
	}
	ip.Ilock()
	var st inode.Stat
	ip.Stati(&st)
	ip.Iunlockput()

	fmt.Printf("type: %d\n", st.Type)
	fmt.Printf("dev: %d\n", st.Dev)
	fmt.Printf("ino: %d\n", st.Ino)
	fmt.Printf("nlink: %d\n", st.Nlink)
	fmt.Printf("size: %d\n", st.Size)
	fmt.Printf("checksum: %x\n", st.Checksum)
}
