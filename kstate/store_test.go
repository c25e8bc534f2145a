package kstate

import (
	"testing"

	"github.com/Cartesian-School/gbsd/capability"
)

func TestNewStore_InitialCounters(t *testing.T) {
	s := NewStore()
	if got := s.CurrentPID(); got != initPID {
		t.Errorf("CurrentPID() = %d, want %d", got, initPID)
	}
	pid := s.InsertProcess(0x1000, 0x2000, 0x3000, 0x4000, [32]byte{})
	if pid != initPID+1 {
		t.Errorf("first spawned pid = %d, want %d", pid, initPID+1)
	}
}

func TestAllocatePort_MintsInitialCapability(t *testing.T) {
	s := NewStore()
	portID, capID := s.AllocatePort(2)

	if portID != 1 {
		t.Errorf("portID = %d, want 1", portID)
	}
	cap, ok := s.Capability(capID)
	if !ok {
		t.Fatal("expected minted capability to exist")
	}
	if cap.OwnerPID != 2 || cap.TargetID != portID {
		t.Errorf("capability = %+v, want owner=2 target=%d", cap, portID)
	}
	want := capability.Send | capability.Receive | capability.Destroy
	if cap.Rights != want {
		t.Errorf("capability rights = %s, want %s", cap.Rights, want)
	}
}

// TestMonotonicIDs covers invariant 5: every generated id is strictly
// greater than all previously generated ids of the same kind.
func TestMonotonicIDs(t *testing.T) {
	s := NewStore()

	var pids []uint32
	for i := 0; i < 5; i++ {
		pids = append(pids, s.InsertProcess(0, 0, 0, 0, [32]byte{}))
	}
	for i := 1; i < len(pids); i++ {
		if pids[i] <= pids[i-1] {
			t.Errorf("pid sequence not strictly increasing: %v", pids)
		}
	}

	var portIDs, capIDs []uint32
	for i := 0; i < 5; i++ {
		pid, cid := s.AllocatePort(2)
		portIDs = append(portIDs, pid)
		capIDs = append(capIDs, cid)
	}
	for i := 1; i < len(portIDs); i++ {
		if portIDs[i] <= portIDs[i-1] {
			t.Errorf("port id sequence not strictly increasing: %v", portIDs)
		}
		if capIDs[i] <= capIDs[i-1] {
			t.Errorf("cap id sequence not strictly increasing: %v", capIDs)
		}
	}
}

func TestRevokeCapabilityChecked_Idempotent(t *testing.T) {
	s := NewStore()
	_, capID := s.AllocatePort(2)

	if got := s.RevokeCapabilityChecked(2, capID); got != RevokeOK {
		t.Fatalf("first revoke = %v, want RevokeOK", got)
	}
	if got := s.RevokeCapabilityChecked(2, capID); got != RevokeOK {
		t.Fatalf("second revoke = %v, want RevokeOK", got)
	}
	c, _ := s.Capability(capID)
	if !c.Revoked {
		t.Error("expected capability to remain revoked")
	}
}

func TestRevokeCapabilityChecked_NotOwner(t *testing.T) {
	s := NewStore()
	_, capID := s.AllocatePort(2)

	if got := s.RevokeCapabilityChecked(3, capID); got != RevokeNotOwner {
		t.Fatalf("revoke by non-owner = %v, want RevokeNotOwner", got)
	}
	c, _ := s.Capability(capID)
	if c.Revoked {
		t.Error("expected capability to remain unrevoked after a non-owner's attempt")
	}
}

func TestRevokeCapabilityChecked_UnknownID(t *testing.T) {
	s := NewStore()
	if got := s.RevokeCapabilityChecked(2, 999); got != RevokeCapInvalid {
		t.Errorf("revoke of unknown capability id = %v, want RevokeCapInvalid", got)
	}
}

func TestProcessExists(t *testing.T) {
	s := NewStore()
	pid := s.InsertProcess(0, 0, 0, 0, [32]byte{})
	if !s.ProcessExists(pid) {
		t.Error("expected freshly inserted process to exist")
	}
	if s.ProcessExists(pid + 100) {
		t.Error("expected unknown pid to not exist")
	}
}

func TestSetProcessState(t *testing.T) {
	s := NewStore()
	pid := s.InsertProcess(0, 0, 0, 0, [32]byte{})

	if !s.SetProcessState(pid, Running) {
		t.Fatal("expected SetProcessState on known pid to succeed")
	}
	p, _ := s.Process(pid)
	if p.State != Running {
		t.Errorf("state = %s, want running", p.State)
	}
	if s.SetProcessState(pid+100, Dead) {
		t.Error("expected SetProcessState on unknown pid to fail")
	}
}
