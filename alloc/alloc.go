// Package alloc is the basic file system: it owns the superblock's
// free bitmap and hands out zero-filled blocks.
package alloc

import (
	"github.com/mit-pdos/blocknfsd/blk"
	"github.com/mit-pdos/blocknfsd/common"
	"github.com/mit-pdos/blocknfsd/disk"
	"github.com/mit-pdos/blocknfsd/util"
)

// Alloc manages the free bitmap in the superblock. The bitmap is
// authoritative and is written back after every allocation or
// reclamation.
type Alloc struct {
	d  disk.Disk
	bm blk.Bitmap
}

// MkAlloc mounts the disk, formatting it on first use. A formatted
// disk has a directory block at the root handle; anything else is
// treated as a fresh disk.
func MkAlloc(d disk.Disk) *Alloc {
	a := &Alloc{d: d}
	root, err := d.Read(uint64(common.RootBnum))
	if err != nil {
		panic("MkAlloc: " + err.Error())
	}
	if !blk.IsDir(root) {
		a.format()
	} else {
		super, err := d.Read(uint64(common.SuperBnum))
		if err != nil {
			panic("MkAlloc: " + err.Error())
		}
		a.bm = blk.NewBitmap(super)
	}
	util.DPrintf(1, "MkAlloc: %d free blocks\n", a.NumFree())
	return a
}

// format marks the superblock and the root directory allocated,
// everything else free, and writes an empty root directory.
func (a *Alloc) format() {
	util.DPrintf(0, "format: fresh disk\n")
	a.bm = blk.NewBitmap(make(disk.Block, disk.BlockSize))
	for bn := common.Bnum(0); uint64(bn) < common.NumBlocks; bn++ {
		a.bm.MarkFree(bn)
	}
	a.bm.MarkUsed(common.SuperBnum)
	a.bm.MarkUsed(common.RootBnum)
	a.WriteBlock(common.RootBnum, blk.EncodeDir(blk.NewDir()))
	a.flushBitmap()
}

func (a *Alloc) flushBitmap() {
	err := a.d.Write(uint64(common.SuperBnum), disk.Block(a.bm))
	if err != nil {
		panic("flushBitmap: " + err.Error())
	}
}

// GetFreeBlock allocates the lowest-numbered free block, zero-fills it
// on disk, and returns its handle. Returns the null handle when no
// block is free.
func (a *Alloc) GetFreeBlock() common.Bnum {
	for bn := common.Bnum(0); uint64(bn) < common.NumBlocks; bn++ {
		if a.bm.IsFree(bn) {
			a.bm.MarkUsed(bn)
			a.WriteBlock(bn, make(disk.Block, disk.BlockSize))
			a.flushBitmap()
			util.DPrintf(10, "GetFreeBlock: %d\n", bn)
			return bn
		}
	}
	return common.NullBnum
}

// ReclaimBlock marks bn free again. Reclaiming a reserved or already
// free block means the caller's structures are corrupt.
func (a *Alloc) ReclaimBlock(bn common.Bnum) {
	if bn == common.SuperBnum || bn == common.RootBnum {
		panic("reclaim of reserved block")
	}
	if a.bm.IsFree(bn) {
		panic("double free in bitmap")
	}
	a.bm.MarkFree(bn)
	a.flushBitmap()
	util.DPrintf(10, "ReclaimBlock: %d\n", bn)
}

func (a *Alloc) ReadBlock(bn common.Bnum) disk.Block {
	b, err := a.d.Read(uint64(bn))
	if err != nil {
		panic("ReadBlock: " + err.Error())
	}
	return b
}

func (a *Alloc) WriteBlock(bn common.Bnum, b disk.Block) {
	err := a.d.Write(uint64(bn), b)
	if err != nil {
		panic("WriteBlock: " + err.Error())
	}
}

// NumFree reports how many blocks the bitmap has free.
func (a *Alloc) NumFree() uint64 {
	return a.bm.NumFree()
}

// IsFree reports whether bn is free in the bitmap.
func (a *Alloc) IsFree(bn common.Bnum) bool {
	return a.bm.IsFree(bn)
}

func (a *Alloc) Barrier() {
	a.d.Barrier()
}

func (a *Alloc) Close() {
	a.d.Barrier()
	a.d.Close()
}
