// Package blk defines the typed on-disk block records: the superblock
// bitmap, directory blocks, and inode blocks.
//
// Directory and inode blocks are discriminated by a 4-byte magic word
// at offset 0. Data blocks carry no magic; they are identified only by
// being referenced from an inode's handle array.
package blk

import (
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/blocknfsd/disk"
)

const (
	DirMagic   uint32 = 0xFFFFFFFF
	InodeMagic uint32 = 0xFFFFFFFE
)

func magic(b disk.Block) uint32 {
	dec := marshal.NewDec(b)
	return dec.GetInt32()
}

// IsDir reports whether b holds a directory block.
func IsDir(b disk.Block) bool {
	return magic(b) == DirMagic
}

// IsInode reports whether b holds an inode block.
func IsInode(b disk.Block) bool {
	return magic(b) == InodeMagic
}
