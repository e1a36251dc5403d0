package disk

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/mit-pdos/cksumfs/util"
)

var _ Disk = (*fileDisk)(nil)

type fileDisk struct {
	fd        int
	numBlocks uint64
}

// NewFileDisk opens (creating if needed) an image file holding
// numBlocks blocks, growing or shrinking a regular file to fit.
func NewFileDisk(path string, numBlocks uint64) (*fileDisk, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0666)
	if err != nil {
		return nil, err
	}
	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if (stat.Mode&unix.S_IFREG) != 0 && uint64(stat.Size) != numBlocks*BlockSize {
		if err := unix.Ftruncate(fd, int64(numBlocks*BlockSize)); err != nil {
			unix.Close(fd)
			return nil, err
		}
	}
	return &fileDisk{fd: fd, numBlocks: numBlocks}, nil
}

func (d *fileDisk) Read(a uint64) (Block, error) {
	if a >= d.numBlocks {
		return nil, fmt.Errorf("out-of-bounds read at %v", a)
	}
	buf := make(Block, BlockSize)
	if _, err := unix.Pread(d.fd, buf, int64(a*BlockSize)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *fileDisk) Write(a uint64, v Block) error {
	if uint64(len(v)) != BlockSize {
		panic(fmt.Errorf("v is not block sized (%d bytes)", len(v)))
	}
	if a >= d.numBlocks {
		return fmt.Errorf("out-of-bounds write at %v", a)
	}
	_, err := unix.Pwrite(d.fd, v, int64(a*BlockSize))
	return err
}

func (d *fileDisk) Size() (uint64, error) {
	return d.numBlocks, nil
}

func (d *fileDisk) Barrier() error {
	return unix.Fsync(d.fd)
}

func (d *fileDisk) Close() error {
	return unix.Close(d.fd)
}

var _ Disk = (*memDisk)(nil)

// memDisk keeps the whole disk in one flat slice.
type memDisk struct {
	mu   *sync.RWMutex
	data []byte
}

func NewMemDisk(numBlocks uint64) *memDisk {
	return &memDisk{
		mu:   new(sync.RWMutex),
		data: make([]byte, numBlocks*BlockSize),
	}
}

func (d *memDisk) blkRange(a uint64) (uint64, uint64, error) {
	off := a * BlockSize
	if off+BlockSize > uint64(len(d.data)) {
		return 0, 0, fmt.Errorf("out-of-bounds access at %v", a)
	}
	return off, off + BlockSize, nil
}

func (d *memDisk) Read(a uint64) (Block, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	lo, hi, err := d.blkRange(a)
	if err != nil {
		return nil, err
	}
	return util.CloneByteSlice(d.data[lo:hi]), nil
}

func (d *memDisk) Write(a uint64, v Block) error {
	if uint64(len(v)) != BlockSize {
		panic(fmt.Errorf("v is not block-sized (%d bytes)", len(v)))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	lo, _, err := d.blkRange(a)
	if err != nil {
		return err
	}
	copy(d.data[lo:], v)
	return nil
}

func (d *memDisk) Size() (uint64, error) {
	// this never changes so we assume it's safe to run lock-free
	return uint64(len(d.data)) / BlockSize, nil
}

func (d *memDisk) Barrier() error { return nil }

func (d *memDisk) Close() error { return nil }
