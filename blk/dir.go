package blk

import (
	"bytes"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/blocknfsd/common"
	"github.com/mit-pdos/blocknfsd/disk"
)

// DirEnt is one fixed-width directory slot: a NUL-padded name and a
// block handle. A zero handle marks the slot empty.
type DirEnt struct {
	Name [common.MaxFnameSize + 1]byte
	Bnum common.Bnum
}

func (de *DirEnt) NameStr() string {
	n := bytes.IndexByte(de.Name[:], 0)
	if n < 0 {
		n = len(de.Name)
	}
	return string(de.Name[:n])
}

func (de *DirEnt) SetName(name string) {
	if len(name) > common.MaxFnameSize {
		panic("directory entry name too long")
	}
	var buf [common.MaxFnameSize + 1]byte
	copy(buf[:], name)
	de.Name = buf
}

func (de *DirEnt) IsEmpty() bool {
	return de.Bnum == common.NullBnum
}

// Dir is a directory block: the entry count and a fixed array of slots.
type Dir struct {
	NumEntries uint32
	Entries    [common.MaxDirEntries]DirEnt
}

func NewDir() *Dir {
	return &Dir{}
}

func EncodeDir(d *Dir) disk.Block {
	enc := marshal.NewEnc(disk.BlockSize)
	enc.PutInt32(DirMagic)
	enc.PutInt32(d.NumEntries)
	for i := range d.Entries {
		enc.PutBytes(d.Entries[i].Name[:])
		enc.PutInt32(d.Entries[i].Bnum)
	}
	return enc.Finish()
}

func DecodeDir(b disk.Block) *Dir {
	dec := marshal.NewDec(b)
	if dec.GetInt32() != DirMagic {
		panic("not a directory block")
	}
	d := &Dir{}
	d.NumEntries = dec.GetInt32()
	for i := range d.Entries {
		copy(d.Entries[i].Name[:], dec.GetBytes(common.MaxFnameSize+1))
		d.Entries[i].Bnum = dec.GetInt32()
	}
	return d
}
