// mkfs formats an image file with an empty filesystem.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mit-pdos/cksumfs/disk"
	"github.com/mit-pdos/cksumfs/fs"
)

var size = flag.Uint64("size", 2000, "image size in blocks")
var ninodes = flag.Uint64("ninodes", 200, "number of inodes")

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: mkfs [-size n] [-ninodes n] <img>")
		os.Exit(1)
	}
	d, err := disk.NewFileDisk(flag.Arg(0), *size)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkfs: %v\n", err)
		os.Exit(1)
	}
	fs.MkFs(d, *ninodes)
	d.Barrier()
	d.Close()
}
