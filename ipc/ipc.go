// Package ipc implements the three IPC syscall bodies — port_allocate,
// port_send, port_receive — on top of the kstate object store and the
// capability engine's predicates.
package ipc

import (
	kernelerrors "github.com/Cartesian-School/gbsd/errors"
	"github.com/Cartesian-School/gbsd/kstate"
)

// PortAllocate allocates a port owned by the calling process and, under
// the same store lock, mints its initial SEND|RECEIVE|DESTROY capability.
// It always succeeds and returns the new port id.
func PortAllocate(store *kstate.Store, callerPID uint32) uint64 {
	portID, _ := store.AllocatePort(callerPID)
	return uint64(portID)
}

// PortSend implements the port_send syscall body. The check order is
// fixed: port existence, then rights, then fullness. The store performs
// all three checks and the enqueue under a single lock acquisition
// (kstate.Store.SendMessage), so this function only has to translate the
// outcome into the syscall's wire error code.
func PortSend(store *kstate.Store, callerPID, portID uint32, msg kstate.Message, words int) uint64 {
	if words != kstate.MessageWords {
		return kernelerrors.Inval.Uint64()
	}

	switch store.SendMessage(callerPID, portID, msg) {
	case kstate.SendOK:
		return kernelerrors.OK.Uint64()
	case kstate.SendNoRights:
		return kernelerrors.NoRights.Uint64()
	case kstate.SendPortFull:
		return kernelerrors.PortFull.Uint64()
	default:
		return kernelerrors.PortInvalid.Uint64()
	}
}

// PortReceive implements the port_receive syscall body. On success it
// returns the literal word count (8) and the dequeued message; on an
// empty queue it returns the distinguished WouldBlock code rather than
// reusing PortInvalid.
func PortReceive(store *kstate.Store, callerPID, portID uint32, words int) (uint64, kstate.Message) {
	if words != kstate.MessageWords {
		return kernelerrors.Inval.Uint64(), kstate.Message{}
	}

	outcome, msg := store.ReceiveMessage(callerPID, portID)
	switch outcome {
	case kstate.ReceiveOK:
		return uint64(kstate.MessageWords), msg
	case kstate.ReceiveNoRights:
		return kernelerrors.NoRights.Uint64(), kstate.Message{}
	case kstate.ReceiveWouldBlock:
		return kernelerrors.WouldBlock.Uint64(), kstate.Message{}
	default:
		return kernelerrors.PortInvalid.Uint64(), kstate.Message{}
	}
}
