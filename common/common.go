package common

import (
	"github.com/mit-pdos/blocknfsd/disk"
)

// Bnum is a block handle. The superblock is never handed out, so
// handle 0 doubles as the null handle.
type Bnum = uint32

const (
	NullBnum  Bnum = 0
	SuperBnum Bnum = 0
	RootBnum  Bnum = 1
)

// NumBlocks is the fixed disk geometry: one superblock, one root
// directory, and general-purpose blocks after that. The bitmap is one
// bit per block and must fit in the superblock.
const NumBlocks uint64 = disk.BlockSize * 8

const (
	// MaxFnameSize is the longest file name, not counting the
	// terminating NUL. Names are stored in fixed-width on-disk slots.
	MaxFnameSize = 9

	// dirHdrSize is the magic word plus the entry count.
	dirHdrSize = 4 + 4

	// DirEntSize is a fixed-width name plus a block handle.
	DirEntSize = (MaxFnameSize + 1) + 4

	MaxDirEntries = (int(disk.BlockSize) - dirHdrSize) / DirEntSize

	// MaxDataBlocks handles fit in an inode block after the magic word
	// and the size field.
	MaxDataBlocks = (int(disk.BlockSize) - dirHdrSize) / 4

	MaxFileSize = uint32(MaxDataBlocks) * uint32(disk.BlockSize)
)
