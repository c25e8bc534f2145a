package syscall

import (
	"testing"
	"unsafe"

	kernelerrors "github.com/Cartesian-School/gbsd/errors"
	"github.com/Cartesian-School/gbsd/kstate"
)

func ptrOf(msg *kstate.Message) uint64 {
	return uint64(uintptr(unsafe.Pointer(msg)))
}

// TestScenario6_UnknownSyscall exercises dispatching an unassigned syscall number.
func TestScenario6_UnknownSyscall(t *testing.T) {
	store := kstate.NewStore()
	if code := Dispatch(store, 999, Args{}); code != kernelerrors.InvalidSyscall.Uint64() {
		t.Errorf("Dispatch(999, ...) = %#x, want %#x", code, kernelerrors.InvalidSyscall.Uint64())
	}
}

func TestDispatch_NeverPanicsOnBadInput(t *testing.T) {
	store := kstate.NewStore()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Dispatch panicked on bad input: %v", r)
		}
	}()
	// Every unknown-ish / out-of-range number should fall into the
	// default case, not a pointer dereference.
	for _, n := range []uint64{0, 11, 1000, ^uint64(0)} {
		Dispatch(store, n, Args{})
	}
}

func TestDispatch_PortAllocateThenSendReceive(t *testing.T) {
	store := kstate.NewStore()

	portID := Dispatch(store, uint64(PortAllocate), Args{})
	if kernelerrors.IsError(portID) {
		t.Fatalf("port_allocate returned error %#x", portID)
	}

	send := kstate.Message{9, 0, 0, 0, 0, 0, 0, 0}
	code := Dispatch(store, uint64(PortSend), Args{portID, ptrOf(&send), 8})
	if code != kernelerrors.OK.Uint64() {
		t.Fatalf("port_send = %#x, want OK", code)
	}

	var recv kstate.Message
	n := Dispatch(store, uint64(PortReceive), Args{portID, ptrOf(&recv), 8})
	if n != 8 {
		t.Fatalf("port_receive returned %#x, want 8", n)
	}
	if recv != send {
		t.Errorf("received %v, want %v", recv, send)
	}
}

func TestDispatch_VMAllocateAndDeallocate(t *testing.T) {
	store := kstate.NewStore()

	addr := Dispatch(store, uint64(VMAllocate), Args{0x2000, 0x1000, 0, 0, 0, 0})
	if kernelerrors.IsError(addr) {
		t.Fatalf("vm_allocate returned error %#x", addr)
	}

	code := Dispatch(store, uint64(VMDeallocate), Args{addr, 0x1000})
	if code != kernelerrors.OK.Uint64() {
		t.Errorf("vm_deallocate = %#x, want OK", code)
	}
}

func TestDispatch_SchedSpawnYield(t *testing.T) {
	store := kstate.NewStore()

	pid := Dispatch(store, uint64(SchedSpawn), Args{0x2000, 0x3000, 0, 0, 0, 0})
	if kernelerrors.IsError(pid) {
		t.Fatalf("sched_spawn returned error %#x", pid)
	}
	if !store.ProcessExists(uint32(pid)) {
		t.Errorf("expected spawned pid %d to exist", pid)
	}

	if code := Dispatch(store, uint64(SchedYield), Args{}); code != kernelerrors.OK.Uint64() {
		t.Errorf("sched_yield = %#x, want OK", code)
	}
}

func TestDispatch_SchedSwitchWithoutControlIsRejected(t *testing.T) {
	store := kstate.NewStore()
	pid := Dispatch(store, uint64(SchedSpawn), Args{0x2000, 0x3000, 0, 0, 0, 0})

	code := Dispatch(store, uint64(SchedSwitch), Args{pid})
	if code != kernelerrors.NoRights.Uint64() {
		t.Errorf("sched_switch without SchedControl = %#x, want NO_RIGHTS", code)
	}
}

func TestDispatch_Time(t *testing.T) {
	store := kstate.NewStore()
	n := Dispatch(store, uint64(Time), Args{})
	if kernelerrors.IsError(n) {
		t.Errorf("time returned error code %#x", n)
	}
}
