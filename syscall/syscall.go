// Package syscall is the kernel's own dispatch layer — not the standard
// library package of the same name. It decodes a syscall number plus up
// to six argument words into a call against ipc, capability, process,
// vmm, or timesource, and always returns a single 64-bit result.
//
// Transport note: on real x86_64 hardware this entry point is reached via
// the syscall instruction (number in rax, args in rdi/rsi/rdx/r10/r8/r9,
// result in rax). This repository is hosted, so servers/* packages reach
// Dispatch through kernel.HandleSyscall as an ordinary Go function call;
// the wire contract (numbers, argument
// shapes, error codes) is unchanged, only the trap mechanism differs.
package syscall

import (
	"unsafe"

	"github.com/Cartesian-School/gbsd/capability"
	kernelerrors "github.com/Cartesian-School/gbsd/errors"
	"github.com/Cartesian-School/gbsd/ipc"
	"github.com/Cartesian-School/gbsd/kstate"
	"github.com/Cartesian-School/gbsd/process"
	"github.com/Cartesian-School/gbsd/timesource"
	"github.com/Cartesian-School/gbsd/vmm"
)

// Number identifies one of the ten syscalls in the dispatch table.
type Number uint64

const (
	PortAllocate Number = 1
	PortSend     Number = 2
	PortReceive  Number = 3
	VMAllocate   Number = 4
	VMDeallocate Number = 5
	CapMove      Number = 6
	SchedSpawn   Number = 7
	SchedYield   Number = 8
	SchedSwitch  Number = 9
	Time         Number = 10
)

// Args is the fixed six-word argument vector every syscall receives,
// mirroring the six integer registers used on the real ABI.
type Args [6]uint64

// Dispatch is the kernel's single syscall entry point. It never panics on
// bad input: an unknown number returns INVALID_SYSCALL, and every handler
// validates before it mutates.
func Dispatch(store *kstate.Store, number uint64, args Args) uint64 {
	callerPID := store.CurrentPID()

	switch Number(number) {
	case PortAllocate:
		return ipc.PortAllocate(store, callerPID)

	case PortSend:
		portID := uint32(args[0])
		msg := readMessage(args[1])
		return ipc.PortSend(store, callerPID, portID, msg, int(args[2]))

	case PortReceive:
		portID := uint32(args[0])
		n, msg := ipc.PortReceive(store, callerPID, portID, int(args[2]))
		if !kernelerrors.IsError(n) {
			writeMessage(args[1], msg)
		}
		return n

	case VMAllocate:
		return vmm.Allocate(args[0], args[1], uint32(args[2]))

	case VMDeallocate:
		return vmm.Deallocate(args[0], args[1])

	case CapMove:
		return ipc.CapMove(store, callerPID, uint32(args[0]), uint32(args[1]), capability.Rights(args[2]))

	case SchedSpawn:
		name := readName(args[2])
		return process.Spawn(store, args[0], args[1], name)

	case SchedYield:
		return process.Yield()

	case SchedSwitch:
		hasControl := capability.HasCapability(store.Capabilities(), callerPID, SchedulerControlPort, capability.SchedControl)
		return process.Switch(store, uint32(args[0]), hasControl)

	case Time:
		return timesource.Now()

	default:
		return kernelerrors.InvalidSyscall.Uint64()
	}
}

// SchedulerControlPort is the well-known target id the SchedControl right
// is minted against. It is not a real port in the object table; it is a
// reserved target id the scheduler's bring-up capability is issued for.
// kernel.Boot mints the initial capability against this same constant.
const SchedulerControlPort = 0

// readMessage and writeMessage model the copy-in/copy-out of an 8-word
// message between kernel and "user" memory. This core dereferences the
// pointer directly, with no fault-safe copy primitive; in this hosted Go
// reimplementation the pointer is a Go pointer into the calling
// goroutine's own memory, so the dereference can never fault the way a
// real user pointer could.
func readMessage(ptr uint64) kstate.Message {
	p := (*kstate.Message)(unsafe.Pointer(uintptr(ptr)))
	return *p
}

func writeMessage(ptr uint64, msg kstate.Message) {
	p := (*kstate.Message)(unsafe.Pointer(uintptr(ptr)))
	*p = msg
}

// readName copies a NUL-terminated or 32-byte process name out of the
// word at ptr, truncating to kstate's fixed 32-byte buffer.
func readName(ptr uint64) [32]byte {
	if ptr == 0 {
		return [32]byte{}
	}
	p := (*[32]byte)(unsafe.Pointer(uintptr(ptr)))
	return *p
}
