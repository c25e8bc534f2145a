package vfs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Cartesian-School/gbsd/capability"
	kernelerrors "github.com/Cartesian-School/gbsd/errors"
	"github.com/Cartesian-School/gbsd/kernel"
	"github.com/Cartesian-School/gbsd/kstate"
)

func TestHandle_OpenReadCloseLifecycle(t *testing.T) {
	k := kernel.Boot()
	pid := uint32(k.Spawn(0x2000, 0x3000, "vfs_server"))
	port := uint32(k.AllocatePort(pid))
	s := New(k, pid, port)

	opened := s.handle(kstate.Message{ReqOpen, 0, 0, 0, 0, 0, 0, 0})
	require.NotEqual(t, uint64(0), opened[0])

	fd := opened[0]
	read := s.handle(kstate.Message{ReqRead, fd, 0, 0, 0, 0, 0, 0})
	require.Equal(t, uint64(0), read[0])

	closed := s.handle(kstate.Message{ReqClose, fd, 0, 0, 0, 0, 0, 0})
	require.Equal(t, uint64(0), closed[0])

	readAfterClose := s.handle(kstate.Message{ReqRead, fd, 0, 0, 0, 0, 0, 0})
	require.Equal(t, kernelerrors.Inval.Uint64(), readAfterClose[0])
}

func TestHandle_UnknownRequest(t *testing.T) {
	k := kernel.Boot()
	pid := uint32(k.Spawn(0x2000, 0x3000, "vfs_server"))
	port := uint32(k.AllocatePort(pid))
	s := New(k, pid, port)

	reply := s.handle(kstate.Message{999, 0, 0, 0, 0, 0, 0, 0})
	require.Equal(t, kernelerrors.InvalidSyscall.Uint64(), reply[0])
}

// TestRun_ClientOpensAcrossProcessesViaDerivedCapability spawns a separate
// client process with no capability of its own, derives a SEND|RECEIVE
// copy of the server's port capability for it (cap_move), and drives a real
// ReqOpen/reply round trip through kernel.Send/Receive rather than calling
// handle directly.
func TestRun_ClientOpensAcrossProcessesViaDerivedCapability(t *testing.T) {
	k := kernel.Boot()
	serverPID := uint32(k.Spawn(0x2000, 0x3000, "vfs_server"))
	port := uint32(k.AllocatePort(serverPID))
	s := New(k, serverPID, port)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		s.Run(stop)
		close(done)
	}()
	defer func() {
		close(stop)
		<-done
	}()

	clientPID := uint32(k.Spawn(0x4000, 0x5000, "vfs_client"))

	var serverCapID uint32
	for _, c := range k.Store().Capabilities() {
		if c.GetOwnerPID() == serverPID && c.GetTargetID() == port {
			serverCapID = c.GetID()
			break
		}
	}
	require.NotZero(t, serverCapID, "expected AllocatePort to have minted a capability for the server")

	granted := k.DeriveCapability(serverPID, serverCapID, clientPID, capability.Send|capability.Receive)
	require.False(t, kernelerrors.IsError(granted), "derive failed: %#x", granted)

	sendCode := k.Send(clientPID, port, kstate.Message{ReqOpen, 0, 0, 0, 0, 0, 0, 0})
	require.False(t, kernelerrors.IsError(sendCode), "send failed: %#x", sendCode)

	var reply kstate.Message
	require.Eventually(t, func() bool {
		code, msg := k.Receive(clientPID, port)
		if kernelerrors.IsError(code) {
			return false
		}
		reply = msg
		return true
	}, time.Second, time.Millisecond, "expected the client to receive the server's reply")

	require.NotEqual(t, uint64(0), reply[0], "expected a non-zero file descriptor in the reply")
}

// TestRun_ClientWithoutDerivedCapabilityIsRejected confirms a process that
// was never granted rights on the server's port cannot send to it.
func TestRun_ClientWithoutDerivedCapabilityIsRejected(t *testing.T) {
	k := kernel.Boot()
	serverPID := uint32(k.Spawn(0x2000, 0x3000, "vfs_server"))
	port := uint32(k.AllocatePort(serverPID))

	clientPID := uint32(k.Spawn(0x4000, 0x5000, "vfs_client"))

	code := k.Send(clientPID, port, kstate.Message{ReqOpen, 0, 0, 0, 0, 0, 0, 0})
	require.Equal(t, kernelerrors.NoRights.Uint64(), code)
}
