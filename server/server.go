// Package server speaks the line-oriented request protocol over a
// single TCP connection and drives one file system engine.
//
// Each request is "verb [arg1 [arg2]]\r\n" followed by a NUL marking
// the end of the message. Each response is three header lines and a
// body:
//
//	<code> <SYMBOL>\r\n
//	Length: <N>\r\n
//	\r\n
//	<N bytes of body>
//
// terminated by a NUL.
package server

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/mit-pdos/blocknfsd/fs"
	"github.com/mit-pdos/blocknfsd/util"
)

type Server struct {
	fsys *fs.FileSys
	lis  net.Listener
}

// MkServer starts listening on addr for the single client.
func MkServer(fsys *fs.FileSys, addr string) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{fsys: fsys, lis: lis}, nil
}

// Addr is the listener's address (useful with port 0).
func (s *Server) Addr() string {
	return s.lis.Addr().String()
}

// Serve accepts one connection and services requests until the client
// disconnects. The engine is single-owner, so there is no second
// accept.
func (s *Server) Serve() error {
	util.DPrintf(0, "Serve: waiting for connection on %s\n", s.Addr())
	conn, err := s.lis.Accept()
	if err != nil {
		return err
	}
	defer conn.Close()
	util.DPrintf(0, "Serve: client connected from %s\n", conn.RemoteAddr())

	rdr := bufio.NewReader(conn)
	for {
		msg, err := rdr.ReadString('\x00')
		if err != nil {
			if err == io.EOF {
				util.DPrintf(0, "Serve: client disconnected\n")
				return nil
			}
			return err
		}
		code, body := s.dispatch(strings.TrimRight(msg, "\x00\r\n"))
		if err := reply(conn, code, body); err != nil {
			return err
		}
	}
}

// Close shuts the listener down.
func (s *Server) Close() {
	s.lis.Close()
}

// dispatch parses one request line and runs the engine operation.
func (s *Server) dispatch(line string) (fs.Errno, string) {
	verb := line
	args := ""
	if i := strings.IndexByte(line, ' '); i >= 0 {
		verb = line[:i]
		args = line[i+1:]
	}
	util.DPrintf(1, "dispatch: %q\n", line)

	switch verb {
	case "mkdir":
		s.fsys.Mkdir(args)
	case "cd":
		s.fsys.Cd(args)
	case "home":
		s.fsys.Home()
	case "rmdir":
		s.fsys.Rmdir(args)
	case "ls":
		s.fsys.Ls()
	case "create":
		s.fsys.Create(args)
	case "append":
		i := strings.IndexByte(args, ' ')
		if i < 0 {
			return fs.ErrCommandNotFound, ""
		}
		s.fsys.Append(args[:i], args[i+1:])
	case "cat":
		s.fsys.Cat(args)
	case "head":
		i := strings.IndexByte(args, ' ')
		if i < 0 {
			return fs.ErrCommandNotFound, ""
		}
		n, err := strconv.ParseUint(args[i+1:], 10, 32)
		if err != nil {
			return fs.ErrCommandNotFound, ""
		}
		s.fsys.Head(args[:i], uint32(n))
	case "rm":
		s.fsys.Rm(args)
	case "stat":
		s.fsys.Stat(args)
	default:
		return fs.ErrCommandNotFound, ""
	}
	return s.fsys.LastErr(), s.fsys.Response()
}

// reply frames and writes one response message.
func reply(w io.Writer, code fs.Errno, body string) error {
	msg := fmt.Sprintf("%d %s\r\nLength: %d\r\n\r\n%s\x00",
		code, code.Symbol(), len(body), body)
	_, err := io.WriteString(w, msg)
	return err
}
