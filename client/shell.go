package client

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const prompt = "NFS> "

// Shell drives the clerk from an interactive prompt or a script.
type Shell struct {
	ck  *Clerk
	out io.Writer
	err io.Writer
}

func MkShell(ck *Clerk) *Shell {
	return &Shell{ck: ck, out: os.Stdout, err: os.Stderr}
}

// Run reads commands from in until quit or EOF. When echo is set
// (script mode) each command line is printed after the prompt.
func (sh *Shell) Run(in io.Reader, echo bool) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(sh.out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(sh.out)
			return
		}
		line := scanner.Text()
		if echo {
			fmt.Fprintln(sh.out, line)
		}
		if sh.execute(line) {
			return
		}
	}
}

// execute runs one command line. Returns true on quit.
func (sh *Shell) execute(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	verb := fields[0]
	args := fields[1:]

	var reply Reply
	var err error
	switch verb {
	case "quit":
		return true
	case "mkdir", "cd", "rmdir", "create", "cat", "rm", "stat":
		if len(args) != 1 {
			sh.usage(verb + " <name>")
			return false
		}
		reply, err = sh.ck.Call(verb + " " + args[0])
	case "ls", "home":
		if len(args) != 0 {
			sh.usage(verb)
			return false
		}
		reply, err = sh.ck.Call(verb)
	case "append":
		if len(args) != 2 {
			sh.usage("append <name> <data>")
			return false
		}
		reply, err = sh.ck.Append(args[0], args[1])
	case "head":
		if len(args) != 2 {
			sh.usage("head <name> <bytes>")
			return false
		}
		n, perr := strconv.ParseUint(args[1], 10, 32)
		if perr != nil {
			fmt.Fprintf(sh.err, "Invalid command line: %s is not a valid number of bytes\n", args[1])
			return false
		}
		reply, err = sh.ck.Head(args[0], uint32(n))
	default:
		fmt.Fprintf(sh.err, "Invalid command line: %s is not a command\n", verb)
		return false
	}

	if err != nil {
		fmt.Fprintf(sh.err, "Connection lost: %v\n", err)
		return true
	}
	sh.print(reply)
	return false
}

func (sh *Shell) usage(form string) {
	fmt.Fprintf(sh.err, "Invalid command line: usage: %s\n", form)
}

// print shows a reply the way the interactive user expects: a message
// for errors, the body for output.
func (sh *Shell) print(r Reply) {
	if msg := errorMessage(r.Code); msg != "" {
		fmt.Fprintln(sh.err, msg)
	}
	if len(r.Body) > 0 {
		fmt.Fprint(sh.out, r.Body)
	}
}

func errorMessage(code uint32) string {
	switch code {
	case 500:
		return "File is not a directory!"
	case 501:
		return "File is a directory!"
	case 502:
		return "File exists!"
	case 503:
		return "File does not exist!"
	case 504:
		return "File name is too long!"
	case 505:
		return "Disk is full!"
	case 506:
		return "Directory is full!"
	case 507:
		return "Directory is not empty!"
	case 508:
		return "Append exceeds maximum filesize!"
	case 509:
		return "Command not found!"
	default:
		return ""
	}
}
