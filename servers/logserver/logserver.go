// Package logserver is the bootstrap log_server: it owns one port, a
// bounded ring buffer of received entries, and prints each one through
// logrus as it arrives.
package logserver

import (
	"github.com/sirupsen/logrus"

	kernelerrors "github.com/Cartesian-School/gbsd/errors"
	"github.com/Cartesian-School/gbsd/kernel"
	"github.com/Cartesian-School/gbsd/kstate"
)

// Message types understood on the log_server's port.
const (
	LogWrite    uint64 = 1
	LogFlush    uint64 = 2
	LogReadTail uint64 = 3
)

// Log levels carried in a LogWrite message's second word.
const (
	LevelDebug uint64 = iota
	LevelInfo
	LevelWarn
	LevelError
)

// capacity bounds the ring buffer. The original log_server sized its ring
// for 16384 entries (4 MiB of fixed C structs); this core has no fixed
// struct size to amortize against, so the bound is kept purely as an
// entry count.
const capacity = 16384

// Entry is one logged message: a timestamp, the reporting process, a
// level, and up to 32 bytes of text packed into the trailing message
// words (an 8-word message leaves 4 words after [type, timestamp, level,
// source_pid] for text).
type Entry struct {
	Timestamp uint64
	SourcePID uint32
	Level     uint64
	Text      string
}

// Server is the log_server: one port, one ring buffer, one logrus sink.
type Server struct {
	kernel *kernel.Kernel
	pid    uint32
	port   uint32

	log       *logrus.Logger
	entries   []Entry
	head      int
	tailCount int
}

// New constructs a log_server bound to pid (already spawned by initserver)
// and port (already allocated by pid itself).
func New(k *kernel.Kernel, pid, port uint32) *Server {
	return &Server{
		kernel:  k,
		pid:     pid,
		port:    port,
		log:     logrus.New(),
		entries: make([]Entry, capacity),
	}
}

// Port returns the port this server receives log messages on.
func (s *Server) Port() uint32 { return s.port }

// Run blocks receiving and handling messages until stop is closed.
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
			s.log.WithField("code", code).Error("log_server: receive failed")
			continue
		}
		s.handle(msg)
	}
}

func (s *Server) handle(msg kstate.Message) {
	switch msg[0] {
	case LogWrite:
		s.write(Entry{
			Timestamp: msg[1],
			Level:     msg[2],
			SourcePID: uint32(msg[3]),
			Text:      decodeText(msg),
		})
	case LogReadTail:
		// Tail reads are served out-of-band via Tail(); nothing to do on
		// the message path beyond acknowledging receipt.
	case LogFlush:
		// This ring buffer is already fully resident; flush is a no-op.
	default:
		s.log.WithField("type", msg[0]).Warn("log_server: unknown message type")
	}
}

func (s *Server) write(e Entry) {
	s.entries[s.head] = e
	s.head = (s.head + 1) % capacity
	if s.tailCount < capacity {
		s.tailCount++
	}

	entry := s.log.WithFields(logrus.Fields{
		"source_pid": e.SourcePID,
		"timestamp":  e.Timestamp,
	})
	switch e.Level {
	case LevelDebug:
		entry.Debug(e.Text)
	case LevelWarn:
		entry.Warn(e.Text)
	case LevelError:
		entry.Error(e.Text)
	default:
		entry.Info(e.Text)
	}
}

// Tail returns the n most recent entries, oldest first.
func (s *Server) Tail(n int) []Entry {
	if n > s.tailCount {
		n = s.tailCount
	}
	out := make([]Entry, n)
	for i := 0; i < n; i++ {
		idx := (s.head - n + i + capacity) % capacity
		out[i] = s.entries[idx]
	}
	return out
}

// decodeText unpacks up to 32 bytes of NUL-terminated text packed into a
// message's last four words (msg[0..3] carry type, timestamp, level, and
// source_pid).
func decodeText(msg kstate.Message) string {
	var buf [32]byte
	for i := 0; i < 4; i++ {
		word := msg[4+i]
		for b := 0; b < 8; b++ {
			buf[i*8+b] = byte(word >> (8 * b))
		}
	}
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	return string(buf[:n])
}
