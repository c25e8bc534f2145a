package kernel

import (
	"unsafe"

	"github.com/Cartesian-School/gbsd/capability"
	"github.com/Cartesian-School/gbsd/kstate"
	"github.com/Cartesian-School/gbsd/syscall"
)

// Spawn mints a new process via SCHED_SPAWN as the init pid, recording name
// (truncated to 32 bytes) for diagnostics, and returns its pid or an error
// code. Every bootstrap service is spawned this way before its own
// goroutine starts running.
func (k *Kernel) Spawn(entry, stack uint64, name string) uint64 {
	var buf [32]byte
	copy(buf[:], name)
	args := syscall.Args{entry, stack, uint64(uintptr(unsafe.Pointer(&buf)))}
	return k.HandleSyscall(kstate.InitPID, uint64(syscall.SchedSpawn), args)
}

// AllocatePort mints a port owned by pid via PORT_ALLOCATE.
func (k *Kernel) AllocatePort(pid uint32) uint64 {
	return k.HandleSyscall(pid, uint64(syscall.PortAllocate), syscall.Args{})
}

// Send enqueues msg on port as pid via PORT_SEND.
func (k *Kernel) Send(pid, port uint32, msg kstate.Message) uint64 {
	args := syscall.Args{uint64(port), uint64(uintptr(unsafe.Pointer(&msg))), uint64(kstate.MessageWords)}
	return k.HandleSyscall(pid, uint64(syscall.PortSend), args)
}

// Receive dequeues the next message on port as pid via PORT_RECEIVE. The
// returned code is errors.WouldBlock.Uint64() when the queue is empty.
func (k *Kernel) Receive(pid, port uint32) (uint64, kstate.Message) {
	var msg kstate.Message
	args := syscall.Args{uint64(port), uint64(uintptr(unsafe.Pointer(&msg))), uint64(kstate.MessageWords)}
	code := k.HandleSyscall(pid, uint64(syscall.PortReceive), args)
	return code, msg
}

// DeriveCapability hands a subset of srcCapID's rights to dstPID via
// CAP_MOVE, called as pid (which must own srcCapID).
func (k *Kernel) DeriveCapability(pid, srcCapID, dstPID uint32, rights capability.Rights) uint64 {
	args := syscall.Args{uint64(srcCapID), uint64(dstPID), uint64(rights)}
	return k.HandleSyscall(pid, uint64(syscall.CapMove), args)
}

// Switch requests a context switch to target via SCHED_SWITCH, called as
// pid (which must hold the SchedControl right).
func (k *Kernel) Switch(pid, target uint32) uint64 {
	return k.HandleSyscall(pid, uint64(syscall.SchedSwitch), syscall.Args{uint64(target)})
}

// Yield requests a voluntary handoff via SCHED_YIELD, called as pid.
func (k *Kernel) Yield(pid uint32) uint64 {
	return k.HandleSyscall(pid, uint64(syscall.SchedYield), syscall.Args{})
}

// Now reads the monotonic clock via TIME.
func (k *Kernel) Now() uint64 {
	return k.HandleSyscall(kstate.InitPID, uint64(syscall.Time), syscall.Args{})
}
