// Package ext4 is a thin block-layer server stub sitting behind vfs: one
// port, one request type (block read), backed by an in-memory disk image.
// A real ext4 driver is out of scope; this gives the vfs/ext4 boundary a
// concrete shape to dispatch across.
package ext4

import (
	kernelerrors "github.com/Cartesian-School/gbsd/errors"
	"github.com/Cartesian-School/gbsd/kernel"
	"github.com/Cartesian-School/gbsd/kstate"
)

// ReqBlockRead is the only request type this stub understands: read one
// 4 KiB block by index.
const ReqBlockRead uint64 = 1

const blockSize = 4096

// Server is the ext4 stub: one port, one backing byte slice standing in
// for a block device.
type Server struct {
	kernel *kernel.Kernel
	pid    uint32
	port   uint32
	disk   []byte
}

// New constructs an ext4 server with diskBlocks blocks of zeroed backing
// storage, bound to pid and port.
func New(k *kernel.Kernel, pid, port uint32, diskBlocks int) *Server {
	return &Server{kernel: k, pid: pid, port: port, disk: make([]byte, diskBlocks*blockSize)}
}

// Port returns the port this server receives block requests on.
func (s *Server) Port() uint32 { return s.port }

// Run blocks receiving block requests until stop is closed.
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
	if msg[0] != ReqBlockRead {
		return kstate.Message{kernelerrors.InvalidSyscall.Uint64(), 0, 0, 0, 0, 0, 0, 0}
	}
	block := msg[1]
	offset := block * blockSize
	if offset+blockSize > uint64(len(s.disk)) {
		return kstate.Message{kernelerrors.Inval.Uint64(), 0, 0, 0, 0, 0, 0, 0}
	}
	// Only the first word of the block is surfaced on the reply; a real
	// driver would hand back a buffer pointer the way port_receive does
	// for an 8-word message.
	first := uint64(0)
	for i := 0; i < 8; i++ {
		first |= uint64(s.disk[int(offset)+i]) << (8 * i)
	}
	return kstate.Message{kernelerrors.OK.Uint64(), first, 0, 0, 0, 0, 0, 0}
}
