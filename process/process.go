// Package process implements the sched_spawn, sched_yield, and sched_switch
// syscall bodies on top of kstate.Store.
package process

import (
	"github.com/Cartesian-School/gbsd/capability"
	kernelerrors "github.com/Cartesian-School/gbsd/errors"
	"github.com/Cartesian-School/gbsd/kstate"
)

// userCeiling is the exclusive upper bound of user-space addresses:
// user addresses occupy [0x1000, 0x800000000000).
const userCeiling = 0x800000000000

// defaultMemoryStart is the floor every spawned process's VM range begins
// at. Physical mapping is out of scope; this core only records the bound.
const defaultMemoryStart = 0x1000

// Spawn implements sched_spawn: entry and stack must be non-zero and
// strictly below the user-space ceiling, otherwise INVAL. On success it
// allocates a fresh pid, inserts a Ready process descriptor carrying the
// given register snapshot, and returns the new pid.
func Spawn(store *kstate.Store, entry, stack uint64, name [32]byte) uint64 {
	if entry == 0 || stack == 0 {
		return kernelerrors.Inval.Uint64()
	}
	if entry >= userCeiling || stack >= userCeiling {
		return kernelerrors.Inval.Uint64()
	}

	pid := store.InsertProcess(defaultMemoryStart, userCeiling, stack, entry, name)
	return uint64(pid)
}

// Yield implements sched_yield: a syscall-level no-op. The actual handoff
// decision belongs to the scheduler server.
func Yield() uint64 {
	return kernelerrors.OK.Uint64()
}

// Switch implements sched_switch: PROCESS_NOT_FOUND if target does not
// exist, otherwise updates current_pid and returns OK. This core gates the
// call behind the distinguished SchedControl right, granted only to
// capabilities minted on the scheduler's well-known port;
// callerHasSchedControl carries the result of that check, computed by the
// syscall dispatcher against the scheduler's control capability set.
func Switch(store *kstate.Store, targetPID uint32, callerHasSchedControl bool) uint64 {
	if !callerHasSchedControl {
		return kernelerrors.NoRights.Uint64()
	}
	if !store.ProcessExists(targetPID) {
		return kernelerrors.ProcessNotFound.Uint64()
	}
	store.SetCurrentPID(targetPID)
	return kernelerrors.OK.Uint64()
}

// SchedControlRequired is the right the distinguished scheduler capability
// must carry for Switch to permit a caller through.
const SchedControlRequired = capability.SchedControl
