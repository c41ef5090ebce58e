package fs

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/mit-pdos/blocknfsd/blk"
	"github.com/mit-pdos/blocknfsd/common"
	"github.com/mit-pdos/blocknfsd/disk"
)

func newFS() *FileSys {
	return Mount(disk.NewMemDisk(common.NumBlocks))
}

// checkConsistency walks the tree from the root and verifies the
// structural invariants: entry counts match slot occupancy, names are
// unique per directory, inode extents match their sizes, and the
// bitmap partitions the disk into reachable and free blocks.
func checkConsistency(t *testing.T, fs *FileSys) {
	t.Helper()
	reachable := map[common.Bnum]bool{common.RootBnum: true}
	queue := []common.Bnum{common.RootBnum}
	for len(queue) > 0 {
		dn := queue[0]
		queue = queue[1:]
		dir := blk.DecodeDir(fs.bfs.ReadBlock(dn))

		var count uint32
		names := map[string]bool{}
		for i := range dir.Entries {
			if dir.Entries[i].IsEmpty() {
				continue
			}
			count++
			name := dir.Entries[i].NameStr()
			assert.False(t, names[name],
				"duplicate name %q in directory %d", name, dn)
			names[name] = true

			h := dir.Entries[i].Bnum
			assert.False(t, reachable[h], "block %d reachable twice", h)
			reachable[h] = true
			b := fs.bfs.ReadBlock(h)
			if blk.IsDir(b) {
				queue = append(queue, h)
			} else if assert.True(t, blk.IsInode(b),
				"entry %q points at a block with no magic", name) {
				ino := blk.DecodeInode(b)
				n := ino.NumDataBlocks()
				for j := range ino.Blocks {
					if uint32(j) < n {
						assert.NotEqual(t, common.NullBnum, ino.Blocks[j],
							"inode %d slot %d should be in use", h, j)
						assert.False(t, reachable[ino.Blocks[j]],
							"data block %d reachable twice", ino.Blocks[j])
						reachable[ino.Blocks[j]] = true
					} else {
						assert.Equal(t, common.NullBnum, ino.Blocks[j],
							"inode %d slot %d should be empty", h, j)
					}
				}
			}
		}
		assert.Equal(t, count, dir.NumEntries,
			"directory %d entry count", dn)
	}

	for bn := common.Bnum(1); uint64(bn) < common.NumBlocks; bn++ {
		if reachable[bn] {
			assert.False(t, fs.bfs.IsFree(bn),
				"reachable block %d marked free", bn)
		} else {
			assert.True(t, fs.bfs.IsFree(bn),
				"unreachable block %d not free", bn)
		}
	}
}

func expectOK(t *testing.T, fs *FileSys) {
	t.Helper()
	assert.Equal(t, OK, fs.LastErr())
}

func expectErr(t *testing.T, fs *FileSys, e Errno) {
	t.Helper()
	assert.Equal(t, e, fs.LastErr())
}

func body(t *testing.T, fs *FileSys, want string) {
	t.Helper()
	if diff := cmp.Diff(want, fs.Response()); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestMkdirLs(t *testing.T) {
	fs := newFS()
	fs.Mkdir("a")
	expectOK(t, fs)
	body(t, fs, "")

	fs.Ls()
	expectOK(t, fs)
	body(t, fs, "a/\n")
	checkConsistency(t, fs)
}

func TestLsEmpty(t *testing.T) {
	fs := newFS()
	fs.Ls()
	expectOK(t, fs)
	body(t, fs, "\n")
}

func TestLsMixed(t *testing.T) {
	fs := newFS()
	fs.Mkdir("d")
	fs.Create("f")
	fs.Ls()
	body(t, fs, "d/\nf\n")
}

func TestCreateAppendHead(t *testing.T) {
	fs := newFS()
	fs.Create("f")
	expectOK(t, fs)
	fs.Append("f", "hello")
	expectOK(t, fs)

	fs.Head("f", 4)
	expectOK(t, fs)
	body(t, fs, "hell\n")

	fs.Cat("f")
	body(t, fs, "hello\n")

	fs.Stat("f")
	resp := fs.Response()
	assert.Contains(t, resp, "Bytes in files: 5\n")
	assert.Contains(t, resp, "Number of blocks: 2\n")
	checkConsistency(t, fs)
}

func TestStat(t *testing.T) {
	fs := newFS()
	fs.Mkdir("d")
	fs.Stat("d")
	body(t, fs, "Directory name: d/\nDirectory block: 2\n")

	fs.Create("f")
	fs.Stat("f")
	body(t, fs, "iNode block: 3\nBytes in files: 0\nNumber of blocks: 1\nFirst block: N/A\n")

	fs.Append("f", "x")
	fs.Stat("f")
	body(t, fs, "iNode block: 3\nBytes in files: 1\nNumber of blocks: 2\nFirst block: 4\n")

	fs.Stat("nope")
	expectErr(t, fs, ErrFileNotExists)
}

func TestCdHome(t *testing.T) {
	fs := newFS()
	fs.Mkdir("a")
	fs.Cd("a")
	expectOK(t, fs)
	fs.Create("g")
	fs.Append("g", "x")
	fs.Home()
	fs.Ls()
	body(t, fs, "a/\n")

	fs.Cd("a")
	fs.Ls()
	body(t, fs, "g\n")
	checkConsistency(t, fs)

	fs.Home()
	fs.Cd("missing")
	expectErr(t, fs, ErrFileNotExists)

	fs.Mkdir("b")
	fs.Cd("b")
	fs.Create("f")
	fs.Cd("f")
	expectErr(t, fs, ErrFileNotDir)
	fs.Ls()
	body(t, fs, "f\n") // cursor did not move
}

func TestRmdir(t *testing.T) {
	fs := newFS()
	fs.Mkdir("a")
	fs.Cd("a")
	fs.Create("g")
	fs.Home()

	fs.Rmdir("a")
	expectErr(t, fs, ErrDirNotEmpty)

	fs.Cd("a")
	fs.Rm("g")
	fs.Home()
	fs.Rmdir("a")
	expectOK(t, fs)
	fs.Ls()
	body(t, fs, "\n")
	checkConsistency(t, fs)

	fs.Rmdir("a")
	expectErr(t, fs, ErrFileNotExists)

	fs.Create("f")
	fs.Rmdir("f")
	expectErr(t, fs, ErrFileNotDir)
}

func TestRm(t *testing.T) {
	fs := newFS()
	fs.Create("f")
	fs.Append("f", strings.Repeat("y", 300))
	free := fs.bfs.NumFree()

	fs.Rm("f")
	expectOK(t, fs)
	assert.Equal(t, free+4, fs.bfs.NumFree(),
		"three data blocks plus the inode")

	fs.Cat("f")
	expectErr(t, fs, ErrFileNotExists)
	checkConsistency(t, fs)

	fs.Mkdir("d")
	fs.Rm("d")
	expectErr(t, fs, ErrFileIsDir)
	fs.Cat("d")
	expectErr(t, fs, ErrFileIsDir)
	fs.Append("d", "x")
	expectErr(t, fs, ErrFileIsDir)
}

func TestNameErrors(t *testing.T) {
	fs := newFS()
	fs.Create("f")
	fs.Create("f")
	expectErr(t, fs, ErrFileExists)
	fs.Mkdir("f")
	expectErr(t, fs, ErrFileExists)

	fs.Create("abcdefghij")
	expectErr(t, fs, ErrFileNameTooLong)
	fs.Create("abcdefghi")
	expectOK(t, fs)
	checkConsistency(t, fs)
}

func TestDirFull(t *testing.T) {
	fs := newFS()
	names := []string{"f0", "f1", "f2", "f3", "f4", "f5", "f6", "f7"}
	assert.Equal(t, common.MaxDirEntries, len(names))
	for _, n := range names {
		fs.Create(n)
		expectOK(t, fs)
	}
	free := fs.bfs.NumFree()
	fs.Create("g")
	expectErr(t, fs, ErrDirFull)
	assert.Equal(t, free, fs.bfs.NumFree(),
		"failed create returns its block")
	checkConsistency(t, fs)
}

func TestAppendBoundary(t *testing.T) {
	fs := newFS()
	fs.Create("f")
	data := strings.Repeat("z", int(common.MaxFileSize))
	fs.Append("f", data)
	expectOK(t, fs)
	checkConsistency(t, fs)

	fs.Append("f", "w")
	expectErr(t, fs, ErrAppendExceedsMaxSize)

	fs.Cat("f")
	body(t, fs, data+"\n")
	checkConsistency(t, fs)
}

func TestAppendBlockAligned(t *testing.T) {
	fs := newFS()
	fs.Create("f")
	one := strings.Repeat("a", int(disk.BlockSize))
	fs.Append("f", one)
	expectOK(t, fs)
	fs.Cat("f")
	body(t, fs, one+"\n")

	// head of an exact-multiple size must not touch a block past the
	// file's extent
	fs.Head("f", uint32(disk.BlockSize))
	body(t, fs, one+"\n")

	fs.Append("f", "b")
	fs.Cat("f")
	body(t, fs, one+"b\n")
	checkConsistency(t, fs)
}

func TestAppendTwice(t *testing.T) {
	fs := newFS()
	fs.Create("f")
	fs.Append("f", "AAAA")
	fs.Append("f", "BB")
	fs.Cat("f")
	body(t, fs, "AAAABB\n")

	fs.Append("f", "")
	expectOK(t, fs)
	fs.Stat("f")
	assert.Contains(t, fs.Response(), "Bytes in files: 6\n")
	checkConsistency(t, fs)
}

func TestHeadZero(t *testing.T) {
	fs := newFS()
	fs.Create("f")
	fs.Head("f", 10)
	expectOK(t, fs)
	body(t, fs, "") // empty file prints nothing

	fs.Append("f", "data")
	fs.Head("f", 0)
	body(t, fs, "\n")
	fs.Head("nope", 1)
	expectErr(t, fs, ErrFileNotExists)
}

func TestAppendRollback(t *testing.T) {
	fs := newFS()
	fs.Create("f")
	fs.Append("f", "seed")

	// drain the allocator so only one block remains
	var burned []common.Bnum
	for fs.bfs.NumFree() > 1 {
		burned = append(burned, fs.bfs.GetFreeBlock())
	}

	// needs two new blocks: the existing tail takes 124 bytes, the
	// remaining 132 spill into a full block and a partial one
	free := fs.bfs.NumFree()
	fs.Append("f", strings.Repeat("q", int(disk.BlockSize*2)))
	expectErr(t, fs, ErrDiskFull)
	assert.Equal(t, free, fs.bfs.NumFree(),
		"mid-way allocations were returned")
	fs.Cat("f")
	body(t, fs, "seed\n")

	for _, bn := range burned {
		fs.bfs.ReclaimBlock(bn)
	}
	checkConsistency(t, fs)
}

func TestCreateDiskFull(t *testing.T) {
	fs := newFS()
	var burned []common.Bnum
	for fs.bfs.NumFree() > 0 {
		burned = append(burned, fs.bfs.GetFreeBlock())
	}
	fs.Create("f")
	expectErr(t, fs, ErrDiskFull)
	fs.Mkdir("d")
	expectErr(t, fs, ErrDiskFull)
	fs.Ls()
	body(t, fs, "\n")

	for _, bn := range burned {
		fs.bfs.ReclaimBlock(bn)
	}
	checkConsistency(t, fs)
}

// a sequence of operations followed by its reverse restores the
// initial bitmap
func TestReverseSequenceRestoresBitmap(t *testing.T) {
	fs := newFS()
	free := fs.bfs.NumFree()

	fs.Mkdir("d")
	fs.Cd("d")
	fs.Create("f")
	fs.Append("f", strings.Repeat("m", 200))
	fs.Home()

	fs.Cd("d")
	fs.Rm("f")
	fs.Home()
	fs.Rmdir("d")
	expectOK(t, fs)

	assert.Equal(t, free, fs.bfs.NumFree())
	for bn := common.Bnum(2); uint64(bn) < common.NumBlocks; bn++ {
		assert.True(t, fs.bfs.IsFree(bn))
	}
	checkConsistency(t, fs)
}

func TestMountPersists(t *testing.T) {
	d := disk.NewMemDisk(common.NumBlocks)
	fs := Mount(d)
	fs.Mkdir("a")
	fs.Cd("a")
	fs.Create("f")
	fs.Append("f", "sticky")

	// remount: same tree, cursor back at the root
	fs2 := Mount(d)
	fs2.Ls()
	body(t, fs2, "a/\n")
	fs2.Cd("a")
	fs2.Cat("f")
	body(t, fs2, "sticky\n")
	checkConsistency(t, fs2)
}
