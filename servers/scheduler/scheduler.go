// Package scheduler is the bootstrap scheduler_server: a ready queue and a
// sleeping set that turn timer ticks, yields, and sleeps into SCHED_SWITCH
// calls. servers/initserver derives it a SchedControl capability at boot
// from the master one init holds, so besides init it is the only caller
// that can make sched_switch succeed.
package scheduler

import (
	kernelerrors "github.com/Cartesian-School/gbsd/errors"
	"github.com/Cartesian-School/gbsd/kernel"
	"github.com/Cartesian-School/gbsd/kstate"
)

// Message types understood on the scheduler's port.
const (
	MsgTimerTick uint64 = 1
	MsgTaskYield uint64 = 2
	MsgTaskSleep uint64 = 3
)

const queueCapacity = 256

type sleeper struct {
	pid      uint32
	wakeTime uint64
}

// Server is the scheduler_server: a ring-buffered ready queue plus a
// linear sleeping set, driving sched_switch on the caller's behalf.
type Server struct {
	kernel *kernel.Kernel
	pid    uint32
	port   uint32

	ready           [queueCapacity]uint32
	readyHead, tail int
	readySize       int

	sleeping   []sleeper
	currentPID uint32
}

// New constructs a scheduler bound to pid and port, both already minted by
// servers/initserver. currentPID starts at the init pid, matching the
// process the kernel boots with as "running".
func New(k *kernel.Kernel, pid, port uint32) *Server {
	return &Server{kernel: k, pid: pid, port: port, currentPID: kstate.InitPID}
}

// Port returns the port this server receives scheduling events on.
func (s *Server) Port() uint32 { return s.port }

func (s *Server) enqueue(pid uint32) {
	if s.readySize >= queueCapacity {
		return
	}
	s.ready[s.tail] = pid
	s.tail = (s.tail + 1) % queueCapacity
	s.readySize++
}

func (s *Server) dequeue() (uint32, bool) {
	if s.readySize == 0 {
		return 0, false
	}
	pid := s.ready[s.readyHead]
	s.readyHead = (s.readyHead + 1) % queueCapacity
	s.readySize--
	return pid, true
}

func (s *Server) wakeExpired(now uint64) {
	remaining := s.sleeping[:0]
	for _, task := range s.sleeping {
		if task.wakeTime <= now {
			s.enqueue(task.pid)
		} else {
			remaining = append(remaining, task)
		}
	}
	s.sleeping = remaining
}

// Run blocks receiving scheduling events and driving context switches
// until stop is closed.
func (s *Server) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		s.wakeExpired(s.kernel.Now())

		code, msg := s.kernel.Receive(s.pid, s.port)
		if code == kernelerrors.WouldBlock.Uint64() {
			continue
		}
		if kernelerrors.IsError(code) {
			continue
		}
		s.handle(msg)
	}
}

func (s *Server) handle(msg kstate.Message) {
	switch msg[0] {
	case MsgTimerTick:
		if s.currentPID != 0 {
			s.enqueue(s.currentPID)
		}
		s.switchToNext()

	case MsgTaskYield:
		s.enqueue(uint32(msg[1]))
		s.switchToNext()

	case MsgTaskSleep:
		pid := uint32(msg[1])
		duration := msg[2]
		s.sleeping = append(s.sleeping, sleeper{pid: pid, wakeTime: s.kernel.Now() + duration})
		s.switchToNext()
	}
}

func (s *Server) switchToNext() {
	next, ok := s.dequeue()
	if !ok {
		return
	}
	s.currentPID = next
	s.kernel.Switch(s.pid, next)
}
