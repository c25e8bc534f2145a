// Package kernel is the composition root: it owns the object store, mints
// the bring-up capabilities every other server depends on, and exposes the
// one entry point servers and the cmd harness call to make a syscall.
package kernel

import (
	"sync"

	"github.com/Cartesian-School/gbsd/capability"
	"github.com/Cartesian-School/gbsd/kstate"
	"github.com/Cartesian-School/gbsd/logging"
	"github.com/Cartesian-School/gbsd/syscall"
)

// Kernel wires the object store behind a single dispatch entry point.
// Syscalls are modeled as direct Go calls rather than a trap instruction
// (see the syscall package's doc comment), so Kernel also carries the lock
// that makes "one syscall in flight at a time" true for concurrent
// goroutines the way a single CPU core would for concurrent processes.
type Kernel struct {
	mu    sync.Mutex
	store *kstate.Store

	// schedCapID is the master SchedControl capability minted at boot,
	// owned by the init pid. servers/initserver derives a narrower copy
	// of it for servers/scheduler via the ordinary CAP_MOVE path once the
	// scheduler process exists.
	schedCapID uint32
}

// Boot creates an empty object store and performs the one piece of state
// no syscall can bootstrap on its own: minting the distinguished
// SchedControl capability that makes SCHED_SWITCH callable at all. Every
// other capability in the system is minted as a side effect of a syscall
// (AllocatePort, DeriveCapability); this one exists before any process
// does, so it is minted directly against the store.
func Boot() *Kernel {
	store := kstate.NewStore()
	capID := store.InsertCapability(kstate.InitPID, syscall.SchedulerControlPort, capability.SchedControl)

	logging.Default().Info("kernel booted",
		"init_pid", kstate.InitPID,
		"sched_control_cap", capID,
	)

	return &Kernel{store: store, schedCapID: capID}
}

// Store returns the underlying object table for callers that need direct,
// non-syscall introspection (the cmd console's ps/ports/caps commands).
// Mutating syscall bodies must go through HandleSyscall, not this
// accessor, so that dispatch stays serialized.
func (k *Kernel) Store() *kstate.Store {
	return k.store
}

// SchedControlCapability returns the id of the master capability minted at
// Boot, owned by the init pid. init derives a narrower copy for the
// scheduler via a CAP_MOVE syscall once the scheduler process is spawned.
func (k *Kernel) SchedControlCapability() uint32 {
	return k.schedCapID
}

// HandleSyscall is the kernel's single trap entry point: it sets the
// current-process register to pid, then dispatches number/args against the
// object store. The kernel-level lock serializes syscalls issued by
// concurrent server goroutines, so setting current_pid and dispatching
// against it is never interleaved with another goroutine's syscall.
func (k *Kernel) HandleSyscall(pid uint32, number uint64, args syscall.Args) uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.store.SetCurrentPID(pid)
	return syscall.Dispatch(k.store, number, args)
}
