package fs

import (
	"github.com/mit-pdos/blocknfsd/blk"
	"github.com/mit-pdos/blocknfsd/common"
	"github.com/mit-pdos/blocknfsd/disk"
	"github.com/mit-pdos/blocknfsd/util"
)

// lookupInode resolves name in the current directory to an inode. On
// failure it sets the error code and returns a nil inode.
func (fs *FileSys) lookupInode(name string) (common.Bnum, *blk.Inode) {
	dir := fs.readCurDir()
	slot := lookup(dir, name)
	if slot < 0 {
		fs.lastErr = ErrFileNotExists
		return common.NullBnum, nil
	}
	h := dir.Entries[slot].Bnum
	b := fs.bfs.ReadBlock(h)
	if !blk.IsInode(b) {
		fs.lastErr = ErrFileIsDir
		return common.NullBnum, nil
	}
	return h, blk.DecodeInode(b)
}

// Append appends data to the named file. Blocks are pre-allocated and
// reclaimed wholesale if the disk runs out, so a failed append leaves
// the inode untouched. Data blocks are persisted as they fill and the
// inode last, so the inode never points past what reached disk.
func (fs *FileSys) Append(name string, data string) {
	if len(data) == 0 {
		return
	}
	inum, ino := fs.lookupInode(name)
	if ino == nil {
		return
	}
	if uint32(len(data)) > common.MaxFileSize-ino.Size {
		util.DPrintf(2, "Append %s: %d bytes exceeds max size\n", name, len(data))
		fs.lastErr = ErrAppendExceedsMaxSize
		return
	}

	bs := uint32(disk.BlockSize)
	// bytes that still fit in the tail block
	free := bs - ino.Size%bs
	var over uint32
	if uint32(len(data)) > free {
		over = uint32(len(data)) - free
	}
	need := over / bs
	if over%bs != 0 {
		need++
	}
	if ino.Blocks[ino.Size/bs] == common.NullBnum {
		// no tail block yet (empty file or block-aligned size)
		need++
	}

	// pre-allocate; nothing in the inode has been touched yet, so a
	// mid-way failure just returns everything
	var handles []common.Bnum
	for i := uint32(0); i < need; i++ {
		h := fs.bfs.GetFreeBlock()
		if h == common.NullBnum {
			util.DPrintf(2, "Append %s: disk full after %d blocks\n",
				name, len(handles))
			for _, got := range handles {
				fs.bfs.ReclaimBlock(got)
			}
			fs.lastErr = ErrDiskFull
			return
		}
		handles = append(handles, h)
	}

	// assign the new handles to the first empty slots
	for i := ino.Size / bs; int(i) < common.MaxDataBlocks && len(handles) > 0; i++ {
		if ino.Blocks[i] == common.NullBnum {
			ino.Blocks[i] = handles[0]
			handles = handles[1:]
		}
	}

	// fill bytes, read-modify-write one block at a time
	di := 0
	for di < len(data) {
		h := ino.Blocks[ino.Size/bs]
		b := fs.bfs.ReadBlock(h)
		for bi := ino.Size % bs; bi < bs && di < len(data); bi++ {
			b[bi] = data[di]
			di++
			ino.Size++
		}
		fs.bfs.WriteBlock(h, b)
	}
	fs.bfs.WriteBlock(inum, blk.EncodeInode(ino))
}

// Cat prints the whole file.
func (fs *FileSys) Cat(name string) {
	fs.Head(name, common.MaxFileSize)
}

// Head prints the first n bytes of the named file.
func (fs *FileSys) Head(name string, n uint32) {
	_, ino := fs.lookupInode(name)
	if ino == nil {
		return
	}
	if ino.Size == 0 {
		return
	}
	m := uint32(util.Min(uint64(n), uint64(ino.Size)))
	nblocks := uint32(util.RoundUp(uint64(m), disk.BlockSize))
	for i := uint32(0); i < nblocks; i++ {
		b := fs.bfs.ReadBlock(ino.Blocks[i])
		if i == nblocks-1 {
			fs.resp.Write(b[:m-i*uint32(disk.BlockSize)])
		} else {
			fs.resp.Write(b)
		}
	}
	fs.resp.WriteByte('\n')
}

// Rm removes the named file, releasing its data blocks, then the
// inode, then the directory entry.
func (fs *FileSys) Rm(name string) {
	dir := fs.readCurDir()
	slot := lookup(dir, name)
	if slot < 0 {
		fs.lastErr = ErrFileNotExists
		return
	}
	h := dir.Entries[slot].Bnum
	b := fs.bfs.ReadBlock(h)
	if !blk.IsInode(b) {
		fs.lastErr = ErrFileIsDir
		return
	}
	ino := blk.DecodeInode(b)
	for i := uint32(0); i < ino.NumDataBlocks(); i++ {
		fs.bfs.ReclaimBlock(ino.Blocks[i])
	}
	fs.bfs.ReclaimBlock(h)
	dir.Entries[slot].Bnum = common.NullBnum
	dir.NumEntries--
	fs.bfs.WriteBlock(fs.curDir, blk.EncodeDir(dir))
	util.DPrintf(2, "Rm %s: freed %d data blocks\n", name, ino.NumDataBlocks())
}
