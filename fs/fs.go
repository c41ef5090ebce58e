// Package fs implements the file system engine: every user-visible
// operation over the block allocator, a current-directory cursor, and
// the per-command response text and error code.
package fs

import (
	"bytes"
	"strings"

	"github.com/mit-pdos/blocknfsd/alloc"
	"github.com/mit-pdos/blocknfsd/blk"
	"github.com/mit-pdos/blocknfsd/common"
	"github.com/mit-pdos/blocknfsd/disk"
	"github.com/mit-pdos/blocknfsd/util"
)

// FileSys is single-owner: it assumes exclusive access to the backing
// disk and is not safe for concurrent use.
type FileSys struct {
	bfs     *alloc.Alloc
	curDir  common.Bnum
	resp    bytes.Buffer
	lastErr Errno
}

// Mount attaches the engine to d, formatting a fresh disk, with the
// current directory at the root.
func Mount(d disk.Disk) *FileSys {
	fs := &FileSys{
		bfs:    alloc.MkAlloc(d),
		curDir: common.RootBnum,
	}
	util.DPrintf(0, "Mount: at root\n")
	return fs
}

// Unmount flushes and closes the backing disk.
func (fs *FileSys) Unmount() {
	fs.bfs.Close()
}

// Response returns and clears the accumulated response text. A
// non-empty response has its trailing newlines collapsed to exactly
// one.
func (fs *FileSys) Response() string {
	s := fs.resp.String()
	fs.resp.Reset()
	if s == "" {
		return ""
	}
	return strings.TrimRight(s, "\n") + "\n"
}

// LastErr returns and clears the last error code.
func (fs *FileSys) LastErr() Errno {
	e := fs.lastErr
	fs.lastErr = OK
	return e
}

// Home resets the current directory to the root. No I/O.
func (fs *FileSys) Home() {
	fs.curDir = common.RootBnum
}

// Mkdir creates an empty directory in the current directory.
func (fs *FileSys) Mkdir(name string) {
	fs.makeBlock(name, blk.EncodeDir(blk.NewDir()))
}

// Create creates an empty file in the current directory.
func (fs *FileSys) Create(name string) {
	fs.makeBlock(name, blk.EncodeInode(blk.NewInode()))
}

// makeBlock allocates one block, initializes it from init, and names
// it in the current directory. The block is reclaimed if the entry
// cannot be inserted.
func (fs *FileSys) makeBlock(name string, init disk.Block) {
	dir := fs.readCurDir()
	h := fs.bfs.GetFreeBlock()
	if h == common.NullBnum {
		util.DPrintf(2, "makeBlock %s: disk full\n", name)
		fs.lastErr = ErrDiskFull
		return
	}
	if !fs.insertEntry(dir, h, name) {
		fs.bfs.ReclaimBlock(h)
		return
	}
	fs.bfs.WriteBlock(h, init)
	fs.bfs.WriteBlock(fs.curDir, blk.EncodeDir(dir))
	util.DPrintf(2, "makeBlock %s: block %d\n", name, h)
}

// Cd moves the cursor into the named directory.
func (fs *FileSys) Cd(name string) {
	dir := fs.readCurDir()
	slot := lookup(dir, name)
	if slot < 0 {
		fs.lastErr = ErrFileNotExists
		return
	}
	h := dir.Entries[slot].Bnum
	if !blk.IsDir(fs.bfs.ReadBlock(h)) {
		fs.lastErr = ErrFileNotDir
		return
	}
	fs.curDir = h
}

// readCurDir reads the current directory block. The cursor only ever
// holds directory handles, so a bad magic here is corruption.
func (fs *FileSys) readCurDir() *blk.Dir {
	return blk.DecodeDir(fs.bfs.ReadBlock(fs.curDir))
}

// lookup scans dir for name and returns its slot, or -1.
func lookup(dir *blk.Dir, name string) int {
	for i := range dir.Entries {
		if !dir.Entries[i].IsEmpty() && dir.Entries[i].NameStr() == name {
			return i
		}
	}
	return -1
}
