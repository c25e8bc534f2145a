// Package netstack is a thin network-stack server stub: one port, one
// request type (loopback echo), giving the syscall surface a second
// userspace consumer alongside vfs/ext4 without pulling in a real network
// driver.
package netstack

import (
	kernelerrors "github.com/Cartesian-School/gbsd/errors"
	"github.com/Cartesian-School/gbsd/kernel"
	"github.com/Cartesian-School/gbsd/kstate"
)

// ReqEcho is the only request type this stub understands: echo the
// payload word back to the sender.
const ReqEcho uint64 = 1

// Server is the netstack stub: one port, no state beyond identity.
type Server struct {
	kernel *kernel.Kernel
	pid    uint32
	port   uint32
}

// New constructs a netstack server bound to pid and port.
func New(k *kernel.Kernel, pid, port uint32) *Server {
	return &Server{kernel: k, pid: pid, port: port}
}

// Port returns the port this server receives requests on.
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
		s.kernel.Send(s.pid, s.port, s.handle(msg))
	}
}

func (s *Server) handle(msg kstate.Message) kstate.Message {
	if msg[0] != ReqEcho {
		return kstate.Message{kernelerrors.InvalidSyscall.Uint64(), 0, 0, 0, 0, 0, 0, 0}
	}
	return kstate.Message{kernelerrors.OK.Uint64(), msg[1], 0, 0, 0, 0, 0, 0}
}
