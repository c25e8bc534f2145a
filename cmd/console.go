package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	kernelerrors "github.com/Cartesian-School/gbsd/errors"
	"github.com/Cartesian-School/gbsd/kstate"
	"github.com/Cartesian-School/gbsd/servers/initserver"
	"github.com/Cartesian-School/gbsd/syscall"
)

// runConsole drives an interactive line-editing session against a booted
// init_server. It prefers raw-mode line editing via golang.org/x/term when
// stdin is a real terminal, and falls back to plain stdin scanning (tests,
// pipes) otherwise.
func runConsole(srv *initserver.Server) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return runConsoleOn(srv, os.Stdin, os.Stdout)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return runConsoleOn(srv, os.Stdin, os.Stdout)
	}
	defer term.Restore(fd, oldState)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, "gbsd> ")

	for {
		line, err := t.ReadLine()
		if err != nil {
			return nil
		}
		if shouldExit := dispatchLine(srv, line, t); shouldExit {
			return nil
		}
	}
}

// runConsoleOn is the non-raw-mode fallback: one command per line from r,
// echoed to w the same way the raw-mode path would.
func runConsoleOn(srv *initserver.Server, r io.Reader, w io.Writer) error {
	fmt.Fprint(w, "gbsd> ")
	buf := make([]byte, 4096)
	var pending strings.Builder
	for {
		n, err := r.Read(buf)
		if n > 0 {
			pending.Write(buf[:n])
			for {
				s := pending.String()
				idx := strings.IndexByte(s, '\n')
				if idx < 0 {
					break
				}
				line := strings.TrimSuffix(s[:idx], "\r")
				pending.Reset()
				pending.WriteString(s[idx+1:])
				if dispatchLine(srv, line, w) {
					return nil
				}
				fmt.Fprint(w, "gbsd> ")
			}
		}
		if err != nil {
			return nil
		}
	}
}

// dispatchLine runs one console command and reports whether the console
// should exit.
func dispatchLine(srv *initserver.Server, line string, w io.Writer) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "help":
		fmt.Fprintln(w, "commands: ps, ports, caps, tail [n], syscall <number> [a0..a5], quit")
	case "quit", "exit":
		return true
	case "ps":
		consolePS(srv, w)
	case "ports":
		consolePorts(srv, w)
	case "caps":
		consoleCaps(srv, w)
	case "tail":
		n := 10
		if len(fields) > 1 {
			if v, err := strconv.Atoi(fields[1]); err == nil {
				n = v
			}
		}
		consoleTail(srv, n, w)
	case "syscall":
		consoleSyscall(srv, fields[1:], w)
	default:
		fmt.Fprintf(w, "unknown command: %s\n", fields[0])
	}
	return false
}

func consolePS(srv *initserver.Server, w io.Writer) {
	store := srv.Kernel().Store()
	for _, pid := range store.ProcessPIDs() {
		p, _ := store.Process(pid)
		fmt.Fprintf(w, "pid=%d state=%s entry=%#x stack=%#x\n", p.PID, p.State, p.InstructionPointer, p.StackPointer)
	}
}

func consolePorts(srv *initserver.Server, w io.Writer) {
	store := srv.Kernel().Store()
	for _, id := range store.PortIDs() {
		fmt.Fprintf(w, "port=%d\n", id)
	}
}

func consoleCaps(srv *initserver.Server, w io.Writer) {
	store := srv.Kernel().Store()
	for _, c := range store.Capabilities() {
		fmt.Fprintf(w, "cap=%d owner=%d target=%d rights=%s revoked=%v\n",
			c.GetID(), c.GetOwnerPID(), c.GetTargetID(), c.GetRights(), c.IsRevoked())
	}
}

func consoleTail(srv *initserver.Server, n int, w io.Writer) {
	ls := srv.LogServer()
	if ls == nil {
		fmt.Fprintln(w, "log_server not running")
		return
	}
	for _, e := range ls.Tail(n) {
		fmt.Fprintf(w, "[%d] pid=%d level=%d %s\n", e.Timestamp, e.SourcePID, e.Level, e.Text)
	}
}

func consoleSyscall(srv *initserver.Server, args []string, w io.Writer) {
	if len(args) < 1 {
		fmt.Fprintln(w, "usage: syscall <number> [a0..a5]")
		return
	}
	number, err := strconv.ParseUint(args[0], 0, 64)
	if err != nil {
		fmt.Fprintf(w, "invalid syscall number %q: %v\n", args[0], err)
		return
	}

	var sargs syscall.Args
	for i := 0; i < 6 && i+1 < len(args); i++ {
		v, err := strconv.ParseUint(args[i+1], 0, 64)
		if err != nil {
			fmt.Fprintf(w, "invalid argument %q: %v\n", args[i+1], err)
			return
		}
		sargs[i] = v
	}

	result := srv.Kernel().HandleSyscall(kstate.InitPID, number, sargs)
	if kernelerrors.IsError(result) {
		fmt.Fprintf(w, "error: %s (%#x)\n", kernelerrors.Code(result), result)
		return
	}
	fmt.Fprintf(w, "ok: %#x\n", result)
}
