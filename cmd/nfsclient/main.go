package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mit-pdos/blocknfsd/client"
	"github.com/mit-pdos/blocknfsd/util"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage (one of the following):\n")
	fmt.Fprintf(os.Stderr, "  nfsclient server:port\n")
	fmt.Fprintf(os.Stderr, "  nfsclient -s <script-file> server:port\n")
	os.Exit(1)
}

func main() {
	script := flag.String("s", "", "script file to run instead of the prompt")
	debug := flag.Uint64("debug", 0, "debug verbosity")
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
	}
	util.Debug = *debug

	ck, err := client.MakeClerk(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "nfsclient: could not connect: %v\n", err)
		os.Exit(1)
	}
	defer ck.Close()

	sh := client.MkShell(ck)
	if *script != "" {
		f, err := os.Open(*script)
		if err != nil {
			fmt.Fprintf(os.Stderr, "nfsclient: could not open script file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		sh.Run(f, true)
	} else {
		sh.Run(os.Stdin, false)
	}
}
