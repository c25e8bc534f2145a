// Package vfs is a thin virtual filesystem server stub: one capability-gated
// port and four request types (open, read, write, close) over an in-memory
// handle table. It is a bootstrap service in its own
// right, started by init_server alongside log_server and scheduler_server,
// and sits between user processes and ext4/netstack the way a real vfs
// layer would.
package vfs

import (
	kernelerrors "github.com/Cartesian-School/gbsd/errors"
	"github.com/Cartesian-School/gbsd/kernel"
	"github.com/Cartesian-School/gbsd/kstate"
)

// Request types understood on the vfs server's port.
const (
	ReqOpen  uint64 = 1
	ReqRead  uint64 = 2
	ReqWrite uint64 = 3
	ReqClose uint64 = 4
)

// Server is the vfs stub: one port, one in-memory handle table.
type Server struct {
	kernel  *kernel.Kernel
	pid     uint32
	port    uint32
	nextFD  uint64
	handles map[uint64]bool
}

// New constructs a vfs server bound to pid and port, both already minted
// by its launcher.
func New(k *kernel.Kernel, pid, port uint32) *Server {
	return &Server{kernel: k, pid: pid, port: port, nextFD: 1, handles: make(map[uint64]bool)}
}

// Port returns the port this server receives filesystem requests on.
func (s *Server) Port() uint32 { return s.port }

// Run blocks receiving requests until stop is closed.
func (s *Server) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		code, msg := s.kernel.Receive(s.pid, s.port)
		if code == kernelerrors.WouldBlock.Uint64() {
			continue
		}
		if kernelerrors.IsError(code) {
			continue
		}
		reply := s.handle(msg)
		s.kernel.Send(s.pid, s.port, reply)
	}
}

func (s *Server) handle(msg kstate.Message) kstate.Message {
	switch msg[0] {
	case ReqOpen:
		fd := s.nextFD
		s.nextFD++
		s.handles[fd] = true
		return kstate.Message{fd, 0, 0, 0, 0, 0, 0, 0}
	case ReqClose:
		delete(s.handles, msg[1])
		return kstate.Message{0, 0, 0, 0, 0, 0, 0, 0}
	case ReqRead, ReqWrite:
		if !s.handles[msg[1]] {
			return kstate.Message{kernelerrors.Inval.Uint64(), 0, 0, 0, 0, 0, 0, 0}
		}
		return kstate.Message{0, 0, 0, 0, 0, 0, 0, 0}
	default:
		return kstate.Message{kernelerrors.InvalidSyscall.Uint64(), 0, 0, 0, 0, 0, 0, 0}
	}
}
