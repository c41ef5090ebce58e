package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/mit-pdos/blocknfsd/common"
	"github.com/mit-pdos/blocknfsd/disk"
	"github.com/mit-pdos/blocknfsd/fs"
	"github.com/mit-pdos/blocknfsd/server"
	"github.com/mit-pdos/blocknfsd/util"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: nfsserver [-disk <path>] [-debug <level>] <port>\n")
	os.Exit(1)
}

func main() {
	diskPath := flag.String("disk", "DISK", "path to the backing disk image")
	debug := flag.Uint64("debug", 0, "debug verbosity")
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
	}
	port, err := strconv.ParseUint(flag.Arg(0), 10, 16)
	if err != nil {
		usage()
	}
	util.Debug = *debug

	d, err := disk.NewFileDisk(*diskPath, common.NumBlocks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nfsserver: could not open disk: %v\n", err)
		os.Exit(1)
	}
	fsys := fs.Mount(d)

	srv, err := server.MkServer(fsys, fmt.Sprintf(":%d", port))
	if err != nil {
		fmt.Fprintf(os.Stderr, "nfsserver: %v\n", err)
		fsys.Unmount()
		os.Exit(1)
	}
	err = srv.Serve()
	srv.Close()
	fsys.Unmount()
	if err != nil {
		fmt.Fprintf(os.Stderr, "nfsserver: %v\n", err)
		os.Exit(1)
	}
}
