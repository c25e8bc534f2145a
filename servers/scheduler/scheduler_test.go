package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Cartesian-School/gbsd/capability"
	"github.com/Cartesian-School/gbsd/kernel"
	"github.com/Cartesian-School/gbsd/kstate"
)

func TestEnqueueDequeue_FIFO(t *testing.T) {
	s := &Server{}
	s.enqueue(5)
	s.enqueue(6)

	pid, ok := s.dequeue()
	require.True(t, ok)
	require.Equal(t, uint32(5), pid)

	pid, ok = s.dequeue()
	require.True(t, ok)
	require.Equal(t, uint32(6), pid)

	_, ok = s.dequeue()
	require.False(t, ok)
}

func TestWakeExpired_MovesDueSleepersToReady(t *testing.T) {
	s := &Server{sleeping: []sleeper{{pid: 9, wakeTime: 100}, {pid: 10, wakeTime: 500}}}
	s.wakeExpired(200)

	pid, ok := s.dequeue()
	require.True(t, ok)
	require.Equal(t, uint32(9), pid)
	require.Len(t, s.sleeping, 1)
	require.Equal(t, uint32(10), s.sleeping[0].pid)
}

func TestHandle_TimerTickSwitchesToNextReady(t *testing.T) {
	k := kernel.Boot()
	schedPID := uint32(k.Spawn(0x6000, 0x7000, "scheduler_server"))
	targetPID := uint32(k.Spawn(0x2000, 0x3000, "probe"))
	require.Equal(t, uint64(0), k.DeriveCapability(kstate.InitPID, k.SchedControlCapability(), schedPID, capability.SchedControl))

	s := New(k, schedPID, 0)
	s.enqueue(targetPID)
	s.handle(kstate.Message{MsgTimerTick, 0, 0, 0, 0, 0, 0, 0})

	require.Equal(t, targetPID, s.currentPID)
}

func TestHandle_UnknownMessageIsIgnored(t *testing.T) {
	s := &Server{}
	require.NotPanics(t, func() {
		s.handle(kstate.Message{999, 0, 0, 0, 0, 0, 0, 0})
	})
}
