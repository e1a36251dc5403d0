package common

import (
	"github.com/mit-pdos/cksumfs/disk"
)

const (
	BSIZE uint64 = disk.BlockSize

	// block map geometry: an indirect block is NPTR little-endian
	// u32 words; the paired layout stores a pointer in word j and
	// its checksum in word j+NINDIRECT, so only half the words of
	// an indirect block carry pointers.
	NDIRECT   uint64 = 12
	NPTR      uint64 = BSIZE / 4
	NINDIRECT uint64 = NPTR / 2

	// the single-indirect root maps NINDIRECT-1 file blocks; every
	// inner block of the double-indirect tree maps NINDIRECT more.
	MAXFILE uint64 = NDIRECT + (NINDIRECT - 1) + NPTR*NINDIRECT

	INODESZ uint64 = 116 // on-disk size
	IPB     uint64 = BSIZE / INODESZ
	BPB     uint64 = BSIZE * 8

	DIRSIZ uint64 = 14

	NINODE uint64 = 50 // max cached inodes
	NDEV   uint64 = 10 // device table size; majors are 0..NDEV-1

	ROOTDEV uint64 = 1
)

type Inum uint64
type Bnum = uint64

const (
	NULLINUM Inum = 0
	ROOTINO  Inum = 1
	NULLBNUM Bnum = 0
)

// inode types; 0 marks a free on-disk inode slot
const (
	T_DIR  int16 = 1
	T_FILE int16 = 2
	T_DEV  int16 = 3
)
