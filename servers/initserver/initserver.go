// Package initserver is the bootstrap init_server: pid 1. It starts
// log_server, scheduler_server, vfs_server, ext4_server, and netstack_server,
// grants the scheduler its SchedControl right, tracks a small service table,
// and restarts a service if its process disappears.
package initserver

import (
	"log/slog"

	"github.com/Cartesian-School/gbsd/capability"
	kernelerrors "github.com/Cartesian-School/gbsd/errors"
	"github.com/Cartesian-School/gbsd/kernel"
	"github.com/Cartesian-School/gbsd/kstate"
	"github.com/Cartesian-School/gbsd/logging"
	"github.com/Cartesian-School/gbsd/servers/ext4"
	"github.com/Cartesian-School/gbsd/servers/logserver"
	"github.com/Cartesian-School/gbsd/servers/netstack"
	"github.com/Cartesian-School/gbsd/servers/scheduler"
	"github.com/Cartesian-School/gbsd/servers/vfs"
)

// Message types on init_server's own port. handle acts on CmdServiceDied
// and CmdReboot; any other type, CmdStatus included, is logged as unknown.
const (
	CmdServiceDied uint64 = 1
	CmdReboot      uint64 = 2
	CmdStatus      uint64 = 3
)

// Status is a service's lifecycle state.
type Status uint32

const (
	StatusStopped Status = iota
	StatusStarting
	StatusRunning
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusStarting:
		return "starting"
	case StatusRunning:
		return "running"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Service indices into the bootstrap service table.
const (
	LogServerIdx = iota
	SchedulerServerIdx
	VfsServerIdx
	Ext4ServerIdx
	NetstackServerIdx
	maxServices
)

// ext4ServerDiskBlocks is the size of the ext4 stub's in-memory backing
// disk, in 4 KiB blocks.
const ext4ServerDiskBlocks = 256

// Simulated binary entry addresses. No loader maps real code at these
// addresses; they only give SCHED_SPAWN a non-zero entry point to record,
// matching this core's "registers a process descriptor, does not execute
// it" contract.
const (
	logServerAddr       = 0x500000
	schedulerServerAddr = 0x600000
	vfsServerAddr       = 0x700000
	ext4ServerAddr      = 0x800000
	netstackServerAddr  = 0x900000

	logServerStack       = 0x500000 + 0x10000
	schedulerServerStack = 0x600000 + 0x10000
	vfsServerStack       = 0x700000 + 0x10000
	ext4ServerStack      = 0x800000 + 0x10000
	netstackServerStack  = 0x900000 + 0x10000
)

// Descriptor records one bootstrap service's identity and current status.
type Descriptor struct {
	Name   string
	Port   uint32
	PID    uint32
	Status Status
}

// Server is init_server: pid 1, one port, a fixed service table.
type Server struct {
	kernel *kernel.Kernel
	port   uint32

	services [maxServices]Descriptor
	log      *slog.Logger

	logServer *logserver.Server
	scheduler *scheduler.Server
	vfs       *vfs.Server
	ext4      *ext4.Server
	netstack  *netstack.Server
}

// Boot brings up the kernel and all five bootstrap services. It returns the
// init_server itself; the caller is responsible for starting each running
// service's own Run goroutine, plus init_server's own, against a shared stop
// channel.
func Boot() *Server {
	k := kernel.Boot()
	s := &Server{kernel: k, log: logging.WithPID(logging.Default(), kstate.InitPID)}

	port := k.AllocatePort(kstate.InitPID)
	if kernelerrors.IsError(port) {
		s.log.Error("init_server: failed to allocate own port", "code", port)
	}
	s.port = uint32(port)

	s.startLogServer()
	s.startScheduler()
	s.startVfs()
	s.startExt4()
	s.startNetstack()

	s.log.Info("init_server: all bootstrap services started")
	return s
}

func (s *Server) startLogServer() {
	s.services[LogServerIdx].Status = StatusStarting

	pid := s.kernel.Spawn(logServerAddr, logServerStack, "log_server")
	if kernelerrors.IsError(pid) {
		s.services[LogServerIdx].Status = StatusFailed
		s.log.Error("init_server: failed to spawn log_server", "code", pid)
		return
	}
	port := s.kernel.AllocatePort(uint32(pid))
	if kernelerrors.IsError(port) {
		s.services[LogServerIdx].Status = StatusFailed
		s.log.Error("init_server: log_server failed to allocate its port", "code", port)
		return
	}

	s.services[LogServerIdx] = Descriptor{Name: "log_server", Port: uint32(port), PID: uint32(pid), Status: StatusRunning}
	s.logServer = logserver.New(s.kernel, uint32(pid), uint32(port))
	s.log.Info("init_server: log_server started", "pid", pid, "port", port)
}

func (s *Server) startScheduler() {
	s.services[SchedulerServerIdx].Status = StatusStarting

	pid := s.kernel.Spawn(schedulerServerAddr, schedulerServerStack, "scheduler_server")
	if kernelerrors.IsError(pid) {
		s.services[SchedulerServerIdx].Status = StatusFailed
		s.log.Error("init_server: failed to spawn scheduler_server", "code", pid)
		return
	}
	port := s.kernel.AllocatePort(uint32(pid))
	if kernelerrors.IsError(port) {
		s.services[SchedulerServerIdx].Status = StatusFailed
		s.log.Error("init_server: scheduler_server failed to allocate its port", "code", port)
		return
	}

	granted := s.kernel.DeriveCapability(kstate.InitPID, s.kernel.SchedControlCapability(), uint32(pid), capability.SchedControl)
	if kernelerrors.IsError(granted) {
		s.services[SchedulerServerIdx].Status = StatusFailed
		s.log.Error("init_server: failed to grant scheduler SchedControl", "code", granted)
		return
	}

	s.services[SchedulerServerIdx] = Descriptor{Name: "scheduler_server", Port: uint32(port), PID: uint32(pid), Status: StatusRunning}
	s.scheduler = scheduler.New(s.kernel, uint32(pid), uint32(port))
	s.log.Info("init_server: scheduler_server started", "pid", pid, "port", port)
}

func (s *Server) startVfs() {
	s.services[VfsServerIdx].Status = StatusStarting

	pid := s.kernel.Spawn(vfsServerAddr, vfsServerStack, "vfs_server")
	if kernelerrors.IsError(pid) {
		s.services[VfsServerIdx].Status = StatusFailed
		s.log.Error("init_server: failed to spawn vfs_server", "code", pid)
		return
	}
	port := s.kernel.AllocatePort(uint32(pid))
	if kernelerrors.IsError(port) {
		s.services[VfsServerIdx].Status = StatusFailed
		s.log.Error("init_server: vfs_server failed to allocate its port", "code", port)
		return
	}

	s.services[VfsServerIdx] = Descriptor{Name: "vfs_server", Port: uint32(port), PID: uint32(pid), Status: StatusRunning}
	s.vfs = vfs.New(s.kernel, uint32(pid), uint32(port))
	s.log.Info("init_server: vfs_server started", "pid", pid, "port", port)
}

func (s *Server) startExt4() {
	s.services[Ext4ServerIdx].Status = StatusStarting

	pid := s.kernel.Spawn(ext4ServerAddr, ext4ServerStack, "ext4_server")
	if kernelerrors.IsError(pid) {
		s.services[Ext4ServerIdx].Status = StatusFailed
		s.log.Error("init_server: failed to spawn ext4_server", "code", pid)
		return
	}
	port := s.kernel.AllocatePort(uint32(pid))
	if kernelerrors.IsError(port) {
		s.services[Ext4ServerIdx].Status = StatusFailed
		s.log.Error("init_server: ext4_server failed to allocate its port", "code", port)
		return
	}

	s.services[Ext4ServerIdx] = Descriptor{Name: "ext4_server", Port: uint32(port), PID: uint32(pid), Status: StatusRunning}
	s.ext4 = ext4.New(s.kernel, uint32(pid), uint32(port), ext4ServerDiskBlocks)
	s.log.Info("init_server: ext4_server started", "pid", pid, "port", port)
}

func (s *Server) startNetstack() {
	s.services[NetstackServerIdx].Status = StatusStarting

	pid := s.kernel.Spawn(netstackServerAddr, netstackServerStack, "netstack_server")
	if kernelerrors.IsError(pid) {
		s.services[NetstackServerIdx].Status = StatusFailed
		s.log.Error("init_server: failed to spawn netstack_server", "code", pid)
		return
	}
	port := s.kernel.AllocatePort(uint32(pid))
	if kernelerrors.IsError(port) {
		s.services[NetstackServerIdx].Status = StatusFailed
		s.log.Error("init_server: netstack_server failed to allocate its port", "code", port)
		return
	}

	s.services[NetstackServerIdx] = Descriptor{Name: "netstack_server", Port: uint32(port), PID: uint32(pid), Status: StatusRunning}
	s.netstack = netstack.New(s.kernel, uint32(pid), uint32(port))
	s.log.Info("init_server: netstack_server started", "pid", pid, "port", port)
}

// Services returns a snapshot of the bootstrap service table.
func (s *Server) Services() [maxServices]Descriptor {
	return s.services
}

// LogServer returns the running log_server instance, or nil if bring-up
// failed.
func (s *Server) LogServer() *logserver.Server { return s.logServer }

// Scheduler returns the running scheduler_server instance, or nil if
// bring-up failed.
func (s *Server) Scheduler() *scheduler.Server { return s.scheduler }

// VFS returns the running vfs_server instance, or nil if bring-up failed.
func (s *Server) VFS() *vfs.Server { return s.vfs }

// Ext4 returns the running ext4_server instance, or nil if bring-up failed.
func (s *Server) Ext4() *ext4.Server { return s.ext4 }

// Netstack returns the running netstack_server instance, or nil if
// bring-up failed.
func (s *Server) Netstack() *netstack.Server { return s.netstack }

// Kernel returns the underlying kernel façade, for callers (the cmd
// console) that need to issue raw syscalls or inspect the object store
// directly.
func (s *Server) Kernel() *kernel.Kernel { return s.kernel }

// Run blocks receiving init_server's own event messages (service deaths,
// reboot requests) until stop is closed.
func (s *Server) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		code, msg := s.kernel.Receive(kstate.InitPID, s.port)
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
	case CmdServiceDied:
		pid := uint32(msg[1])
		s.log.Warn("init_server: service died", "pid", pid)
		s.restart(pid)
	case CmdReboot:
		s.log.Info("init_server: reboot requested")
	default:
		s.log.Warn("init_server: unknown message", "type", msg[0])
	}
}

// restart marks the matching service table entry failed and attempts to
// bring it back up the same way Boot did the first time.
func (s *Server) restart(deadPID uint32) {
	for i := range s.services {
		if s.services[i].PID != deadPID {
			continue
		}
		s.services[i].Status = StatusFailed
		switch i {
		case LogServerIdx:
			s.startLogServer()
		case SchedulerServerIdx:
			s.startScheduler()
		case VfsServerIdx:
			s.startVfs()
		case Ext4ServerIdx:
			s.startExt4()
		case NetstackServerIdx:
			s.startNetstack()
		}
		return
	}
}
