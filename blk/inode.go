package blk

import (
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/blocknfsd/common"
	"github.com/mit-pdos/blocknfsd/disk"
	"github.com/mit-pdos/blocknfsd/util"
)

// Inode records a file's size in bytes and its ordered data-block
// handles. A file of size s uses the first ceil(s/BlockSize) slots; the
// rest must be zero.
type Inode struct {
	Size   uint32
	Blocks [common.MaxDataBlocks]common.Bnum
}

func NewInode() *Inode {
	return &Inode{}
}

// NumDataBlocks is the number of data blocks the file occupies.
func (ino *Inode) NumDataBlocks() uint32 {
	return uint32(util.RoundUp(uint64(ino.Size), disk.BlockSize))
}

func EncodeInode(ino *Inode) disk.Block {
	enc := marshal.NewEnc(disk.BlockSize)
	enc.PutInt32(InodeMagic)
	enc.PutInt32(ino.Size)
	for _, bn := range ino.Blocks {
		enc.PutInt32(bn)
	}
	return enc.Finish()
}

func DecodeInode(b disk.Block) *Inode {
	dec := marshal.NewDec(b)
	if dec.GetInt32() != InodeMagic {
		panic("not an inode block")
	}
	ino := &Inode{}
	ino.Size = dec.GetInt32()
	for i := range ino.Blocks {
		ino.Blocks[i] = dec.GetInt32()
	}
	return ino
}
