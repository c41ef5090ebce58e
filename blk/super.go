package blk

import (
	"math/bits"

	"github.com/mit-pdos/blocknfsd/common"
	"github.com/mit-pdos/blocknfsd/disk"
)

// Bitmap is the superblock payload: one bit per block, bit set means
// the block is free. The 1024 bits fill the 128-byte block exactly, so
// the bitmap is the whole superblock.
type Bitmap disk.Block

func NewBitmap(b disk.Block) Bitmap {
	if uint64(len(b)) != disk.BlockSize {
		panic("bitmap is not block-sized")
	}
	return Bitmap(b)
}

func (bm Bitmap) IsFree(bn common.Bnum) bool {
	return bm[bn/8]&(1<<(bn%8)) != 0
}

func (bm Bitmap) MarkFree(bn common.Bnum) {
	bm[bn/8] |= 1 << (bn % 8)
}

func (bm Bitmap) MarkUsed(bn common.Bnum) {
	bm[bn/8] &^= 1 << (bn % 8)
}

// NumFree counts the free blocks.
func (bm Bitmap) NumFree() uint64 {
	var n uint64
	for _, b := range bm {
		n += uint64(bits.OnesCount8(b))
	}
	return n
}
