package fs

import (
	"strconv"

	"github.com/mit-pdos/blocknfsd/blk"
	"github.com/mit-pdos/blocknfsd/common"
	"github.com/mit-pdos/blocknfsd/disk"
	"github.com/mit-pdos/blocknfsd/util"
)

// insertEntry names handle h in dir. On failure it sets the error code
// and returns false; dir is unchanged.
func (fs *FileSys) insertEntry(dir *blk.Dir, h common.Bnum, name string) bool {
	if lookup(dir, name) >= 0 {
		fs.lastErr = ErrFileExists
		return false
	}
	if dir.NumEntries >= uint32(common.MaxDirEntries) {
		fs.lastErr = ErrDirFull
		return false
	}
	if len(name) > common.MaxFnameSize {
		fs.lastErr = ErrFileNameTooLong
		return false
	}
	for i := range dir.Entries {
		if dir.Entries[i].IsEmpty() {
			dir.Entries[i].SetName(name)
			dir.Entries[i].Bnum = h
			dir.NumEntries++
			return true
		}
	}
	// the count said there was room
	panic("directory entry count disagrees with slot occupancy")
}

// Rmdir removes the named directory, which must be empty.
func (fs *FileSys) Rmdir(name string) {
	dir := fs.readCurDir()
	slot := lookup(dir, name)
	if slot < 0 {
		fs.lastErr = ErrFileNotExists
		return
	}
	h := dir.Entries[slot].Bnum
	b := fs.bfs.ReadBlock(h)
	if !blk.IsDir(b) {
		util.DPrintf(2, "Rmdir %s: not a directory\n", name)
		fs.lastErr = ErrFileNotDir
		return
	}
	if blk.DecodeDir(b).NumEntries != 0 {
		util.DPrintf(2, "Rmdir %s: not empty\n", name)
		fs.lastErr = ErrDirNotEmpty
		return
	}
	fs.bfs.ReclaimBlock(h)
	dir.Entries[slot].Bnum = common.NullBnum
	dir.NumEntries--
	fs.bfs.WriteBlock(fs.curDir, blk.EncodeDir(dir))
}

// Ls lists the current directory in slot order, directories with a
// trailing slash.
func (fs *FileSys) Ls() {
	dir := fs.readCurDir()
	for i := range dir.Entries {
		if dir.Entries[i].IsEmpty() {
			continue
		}
		fs.resp.WriteString(dir.Entries[i].NameStr())
		if blk.IsDir(fs.bfs.ReadBlock(dir.Entries[i].Bnum)) {
			fs.resp.WriteByte('/')
		}
		fs.resp.WriteByte('\n')
	}
	fs.resp.WriteByte('\n')
}

// Stat reports on the named directory or file.
func (fs *FileSys) Stat(name string) {
	dir := fs.readCurDir()
	slot := lookup(dir, name)
	if slot < 0 {
		fs.lastErr = ErrFileNotExists
		return
	}
	h := dir.Entries[slot].Bnum
	b := fs.bfs.ReadBlock(h)
	if blk.IsDir(b) {
		fs.resp.WriteString("Directory name: " + dir.Entries[slot].NameStr() + "/\n")
		fs.resp.WriteString("Directory block: " + itoa(h) + "\n")
		return
	}
	ino := blk.DecodeInode(b)
	fs.resp.WriteString("iNode block: " + itoa(h) + "\n")
	fs.resp.WriteString("Bytes in files: " + itoa(ino.Size) + "\n")
	// the historical block count, size/BlockSize + 2 for a non-empty
	// file: the inode plus its data blocks, except that a size that is
	// a multiple of BlockSize counts one block more; kept for wire
	// compatibility
	if ino.Size == 0 {
		fs.resp.WriteString("Number of blocks: 1\n")
		fs.resp.WriteString("First block: N/A\n")
	} else {
		nblocks := ino.Size/uint32(disk.BlockSize) + 2
		fs.resp.WriteString("Number of blocks: " + itoa(nblocks) + "\n")
		fs.resp.WriteString("First block: " + itoa(ino.Blocks[0]) + "\n")
	}
}

func itoa(n uint32) string {
	return strconv.FormatUint(uint64(n), 10)
}
