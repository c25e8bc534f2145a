package ipc

import (
	"github.com/Cartesian-School/gbsd/capability"
	kernelerrors "github.com/Cartesian-School/gbsd/errors"
	"github.com/Cartesian-School/gbsd/kstate"
)

// CapMove implements the cap_move syscall body atop capability.Derive's
// subset rule, via kstate.Store.DeriveCapability. The ABI name is kept
// for wire compatibility; the operation is derive, not move — the source
// capability is never removed or narrowed.
func CapMove(store *kstate.Store, callerPID, srcCapID, dstPID uint32, rights capability.Rights) uint64 {
	switch outcome, _ := store.DeriveCapability(callerPID, srcCapID, dstPID, rights); outcome {
	case kstate.DeriveOK:
		return kernelerrors.OK.Uint64()
	case kstate.DeriveNotOwner:
		return kernelerrors.NoRights.Uint64()
	case kstate.DeriveNoRights:
		return kernelerrors.NoRights.Uint64()
	case kstate.DeriveProcessNotFound:
		return kernelerrors.ProcessNotFound.Uint64()
	default:
		return kernelerrors.CapInvalid.Uint64()
	}
}

// CapRevoke implements the cap_revoke operation. It has no assigned
// syscall number in the ten-syscall dispatch table, so it is not directly
// reachable through Dispatch; it is exposed here for the capability
// engine's internal use and for tests exercising revocation.
func CapRevoke(store *kstate.Store, callerPID, capID uint32) uint64 {
	switch store.RevokeCapabilityChecked(callerPID, capID) {
	case kstate.RevokeOK:
		return kernelerrors.OK.Uint64()
	case kstate.RevokeNotOwner:
		return kernelerrors.NoRights.Uint64()
	default:
		return kernelerrors.CapInvalid.Uint64()
	}
}
