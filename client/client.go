// Package client dials the file server, frames requests, and parses
// framed responses. The shell on top of it lives in shell.go.
package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/mit-pdos/blocknfsd/util"
)

// Reply is one parsed response message.
type Reply struct {
	Code   uint32
	Symbol string
	Body   string
}

func (r Reply) OK() bool {
	return r.Code == 0
}

// Clerk owns the connection to the server.
type Clerk struct {
	conn net.Conn
	rdr  *bufio.Reader
}

// MakeClerk connects to addr ("server:port").
func MakeClerk(addr string) (*Clerk, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	util.DPrintf(1, "MakeClerk: connected to %s\n", addr)
	return &Clerk{conn: conn, rdr: bufio.NewReader(conn)}, nil
}

func (ck *Clerk) Close() {
	ck.conn.Close()
}

// Call sends one request line and reads back the framed reply.
func (ck *Clerk) Call(line string) (Reply, error) {
	_, err := io.WriteString(ck.conn, line+"\r\n\x00")
	if err != nil {
		return Reply{}, err
	}
	msg, err := ck.rdr.ReadString('\x00')
	if err != nil {
		return Reply{}, err
	}
	return parseReply(strings.TrimSuffix(msg, "\x00"))
}

// parseReply picks apart the three header lines and the body.
func parseReply(msg string) (Reply, error) {
	var r Reply

	status, rest, err := cutLine(msg)
	if err != nil {
		return r, err
	}
	i := strings.IndexByte(status, ' ')
	if i < 0 {
		return r, errors.New("malformed status line")
	}
	code, err := strconv.ParseUint(status[:i], 10, 32)
	if err != nil {
		return r, errors.New("malformed status code")
	}
	r.Code = uint32(code)
	r.Symbol = status[i+1:]

	length, rest, err := cutLine(rest)
	if err != nil {
		return r, err
	}
	if !strings.HasPrefix(length, "Length: ") {
		return r, errors.New("malformed length header")
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(length, "Length: "), 10, 32)
	if err != nil {
		return r, errors.New("malformed length header")
	}

	blank, rest, err := cutLine(rest)
	if err != nil {
		return r, err
	}
	if blank != "" {
		return r, errors.New("missing blank line")
	}
	if uint64(len(rest)) < n {
		return r, fmt.Errorf("short body: %d of %d bytes", len(rest), n)
	}
	r.Body = rest[:n]
	return r, nil
}

// cutLine splits off the first CRLF-terminated line.
func cutLine(s string) (string, string, error) {
	i := strings.Index(s, "\r\n")
	if i < 0 {
		return "", "", errors.New("truncated response")
	}
	return s[:i], s[i+2:], nil
}

func (ck *Clerk) Mkdir(name string) (Reply, error) {
	return ck.Call("mkdir " + name)
}

func (ck *Clerk) Cd(name string) (Reply, error) {
	return ck.Call("cd " + name)
}

func (ck *Clerk) Home() (Reply, error) {
	return ck.Call("home")
}

func (ck *Clerk) Rmdir(name string) (Reply, error) {
	return ck.Call("rmdir " + name)
}

func (ck *Clerk) Ls() (Reply, error) {
	return ck.Call("ls")
}

func (ck *Clerk) Create(name string) (Reply, error) {
	return ck.Call("create " + name)
}

func (ck *Clerk) Append(name string, data string) (Reply, error) {
	return ck.Call("append " + name + " " + data)
}

func (ck *Clerk) Cat(name string) (Reply, error) {
	return ck.Call("cat " + name)
}

func (ck *Clerk) Head(name string, n uint32) (Reply, error) {
	return ck.Call("head " + name + " " + strconv.FormatUint(uint64(n), 10))
}

func (ck *Clerk) Rm(name string) (Reply, error) {
	return ck.Call("rm " + name)
}

func (ck *Clerk) Stat(name string) (Reply, error) {
	return ck.Call("stat " + name)
}
