// Package kstate owns the kernel's three object tables — processes, ports,
// and capabilities — and the monotonic ID counters that populate them.
// Every mutation goes through Store under its single lock: one container
// behind one lock rather than fine-grained per-table locks, since no
// syscall handler ever needs two at once.
package kstate

import (
	"sync"

	"github.com/Cartesian-School/gbsd/capability"
)

// InitPID is the well-known pid reserved for the init server. The process
// counter starts one past it.
const InitPID = 1

const initPID = InitPID

// Store is the kernel's single object table, guarded by one mutex. Lookup
// is linear scan; the tables are small and bounded for the lifetime of a
// single boot, so the simplicity is worth more than an indexed structure.
type Store struct {
	mu sync.Mutex

	processes    []*Process
	ports        []*Port
	capabilities []*Capability

	nextPID     uint32
	nextPortID  uint32
	nextCapID   uint32
	currentPID  uint32
}

// NewStore returns a boot-initialized, empty object store. The pid counter
// starts at 2 (pid 1 is reserved for the init server); port and capability
// counters start at 1.
func NewStore() *Store {
	return &Store{
		nextPID:    initPID + 1,
		nextPortID: 1,
		nextCapID:  1,
		currentPID: initPID,
	}
}

// CurrentPID returns the pid of the process a syscall is being handled on
// behalf of.
func (s *Store) CurrentPID() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPID
}

// SetCurrentPID updates the current process register. It is exported for
// the harness and tests to drive syscalls as different simulated
// processes; sched_switch is the only syscall permitted to call it as part
// of the regular syscall contract.
func (s *Store) SetCurrentPID(pid uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentPID = pid
}

// findProcessLocked returns the process with the given pid, or nil.
// Callers must hold s.mu.
func (s *Store) findProcessLocked(pid uint32) *Process {
	for _, p := range s.processes {
		if p.PID == pid {
			return p
		}
	}
	return nil
}

// findPortLocked returns the port with the given id, or nil. Callers must
// hold s.mu.
func (s *Store) findPortLocked(id uint32) *Port {
	for _, p := range s.ports {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// findCapabilityLocked returns the capability with the given id, or nil.
// Callers must hold s.mu.
func (s *Store) findCapabilityLocked(id uint32) *Capability {
	for _, c := range s.capabilities {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Process returns a copy of the process descriptor with the given pid, or
// false if it does not exist.
func (s *Store) Process(pid uint32) (Process, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findProcessLocked(pid)
	if p == nil {
		return Process{}, false
	}
	return *p, true
}

// ProcessExists reports whether pid names a known process.
func (s *Store) ProcessExists(pid uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findProcessLocked(pid) != nil
}

// InsertProcess allocates a fresh pid, appends a Ready process with the
// given register snapshot, and returns the new pid.
func (s *Store) InsertProcess(memStart, memEnd, stackPointer, instructionPointer uint64, name [32]byte) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	pid := s.nextPID
	s.nextPID++

	s.processes = append(s.processes, &Process{
		PID:                pid,
		Name:               name,
		MemoryStart:        memStart,
		MemoryEnd:          memEnd,
		StackPointer:       stackPointer,
		InstructionPointer: instructionPointer,
		State:              Ready,
	})
	return pid
}

// SetProcessState transitions the named process to state. It is a no-op
// (returns false) if the pid is unknown.
func (s *Store) SetProcessState(pid uint32, state ProcessState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findProcessLocked(pid)
	if p == nil {
		return false
	}
	p.State = state
	return true
}

// PortIDs returns a snapshot slice of every port's id. Used by diagnostics
// (the cmd harness) rather than by any syscall handler.
func (s *Store) PortIDs() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint32, len(s.ports))
	for i, p := range s.ports {
		ids[i] = p.ID
	}
	return ids
}

// ProcessPIDs returns a snapshot slice of every known pid.
func (s *Store) ProcessPIDs() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	pids := make([]uint32, len(s.processes))
	for i, p := range s.processes {
		pids[i] = p.PID
	}
	return pids
}

// AllocatePort inserts a fresh port owned by ownerPID and mints its initial
// SEND|RECEIVE|DESTROY capability under the same lock, so a caller can never
// observe a port that exists without a capability to use it. It returns the
// new port id and capability id.
func (s *Store) AllocatePort(ownerPID uint32) (portID, capID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	portID = s.nextPortID
	s.nextPortID++
	s.ports = append(s.ports, newPort(portID, ownerPID))

	capID = s.nextCapID
	s.nextCapID++
	s.capabilities = append(s.capabilities, newCapability(
		capID, ownerPID, portID,
		capability.Send|capability.Receive|capability.Destroy,
	))
	return portID, capID
}

// hasCapabilityLocked is the internal predicate used by the atomic
// SendMessage/ReceiveMessage operations below. Callers must hold s.mu.
func (s *Store) hasCapabilityLocked(pid, targetID uint32, required capability.Rights) bool {
	for _, c := range s.capabilities {
		if c.OwnerPID == pid && c.TargetID == targetID && !c.Revoked && c.Rights.Intersects(required) {
			return true
		}
	}
	return false
}

// SendOutcome is the result of an atomic SendMessage call.
type SendOutcome int

const (
	// SendOK indicates the message was enqueued.
	SendOK SendOutcome = iota
	// SendPortNotFound indicates portID names no known port.
	SendPortNotFound
	// SendNoRights indicates the caller holds no SEND-bearing capability.
	SendNoRights
	// SendPortFull indicates the port's ring has no free slot.
	SendPortFull
)

// SendMessage performs the full port_send body atomically: port
// existence, then the SEND rights check, then the fullness check, then
// the enqueue — all under a single lock acquisition, so no other goroutine
// can observe or act on a partial result.
func (s *Store) SendMessage(callerPID, portID uint32, msg Message) SendOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findPortLocked(portID)
	if p == nil {
		return SendPortNotFound
	}
	if !s.hasCapabilityLocked(callerPID, portID, capability.Send) {
		return SendNoRights
	}
	if p.IsFull() {
		return SendPortFull
	}
	p.Enqueue(msg)
	return SendOK
}

// ReceiveOutcome is the result of an atomic ReceiveMessage call.
type ReceiveOutcome int

const (
	// ReceiveOK indicates a message was dequeued.
	ReceiveOK ReceiveOutcome = iota
	// ReceivePortNotFound indicates portID names no known port.
	ReceivePortNotFound
	// ReceiveNoRights indicates the caller holds no RECEIVE-bearing capability.
	ReceiveNoRights
	// ReceiveWouldBlock indicates the port's queue was empty.
	ReceiveWouldBlock
)

// ReceiveMessage performs the full port_receive body atomically: port
// existence, then the RECEIVE rights check, then the dequeue attempt.
func (s *Store) ReceiveMessage(callerPID, portID uint32) (ReceiveOutcome, Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findPortLocked(portID)
	if p == nil {
		return ReceivePortNotFound, Message{}
	}
	if !s.hasCapabilityLocked(callerPID, portID, capability.Receive) {
		return ReceiveNoRights, Message{}
	}
	msg, ok := p.Dequeue()
	if !ok {
		return ReceiveWouldBlock, Message{}
	}
	return ReceiveOK, msg
}

// DeriveOutcome is the result of an atomic DeriveCapability call.
type DeriveOutcome int

const (
	// DeriveOK indicates the new capability was inserted.
	DeriveOK DeriveOutcome = iota
	// DeriveCapInvalid indicates the source capability does not exist or is revoked.
	DeriveCapInvalid
	// DeriveNotOwner indicates the caller does not own the source capability.
	DeriveNotOwner
	// DeriveNoRights indicates the requested rights are not a subset of the source's.
	DeriveNoRights
	// DeriveProcessNotFound indicates the destination pid does not exist.
	DeriveProcessNotFound
)

// DeriveCapability performs the full cap_move body atomically: owner
// check, revoked check, subset check, destination existence check, then
// insertion — all under one lock acquisition. The source capability is
// never mutated: the ABI calls this operation CAP_MOVE but its semantics
// are derive, so the caller keeps its own grant.
func (s *Store) DeriveCapability(callerPID, srcCapID, dstPID uint32, requested capability.Rights) (DeriveOutcome, uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.findCapabilityLocked(srcCapID)
	if src == nil {
		return DeriveCapInvalid, 0
	}
	if src.OwnerPID != callerPID {
		return DeriveNotOwner, 0
	}
	if src.Revoked {
		return DeriveCapInvalid, 0
	}
	derived, ok := capability.Derive(src, requested)
	if !ok {
		return DeriveNoRights, 0
	}
	if s.findProcessLocked(dstPID) == nil {
		return DeriveProcessNotFound, 0
	}

	id := s.nextCapID
	s.nextCapID++
	s.capabilities = append(s.capabilities, newCapability(id, dstPID, derived.TargetID, derived.Rights))
	return DeriveOK, id
}

// RevokeOutcome is the result of an atomic RevokeCapabilityChecked call.
type RevokeOutcome int

const (
	// RevokeOK indicates the capability is now revoked (or already was).
	RevokeOK RevokeOutcome = iota
	// RevokeCapInvalid indicates the capability does not exist.
	RevokeCapInvalid
	// RevokeNotOwner indicates the caller does not own the capability.
	RevokeNotOwner
)

// RevokeCapabilityChecked performs the full cap_revoke body: owner check,
// then an idempotent revoke. A second call from the same owner on an
// already-revoked capability still reports RevokeOK.
func (s *Store) RevokeCapabilityChecked(callerPID, capID uint32) RevokeOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findCapabilityLocked(capID)
	if c == nil {
		return RevokeCapInvalid
	}
	if c.OwnerPID != callerPID {
		return RevokeNotOwner
	}
	c.Revoked = true
	return RevokeOK
}

// Capabilities returns the live capability slice as a read-only snapshot
// of capability.Holder values, for use by the capability engine's
// predicates. The slice is copied by value per element reference, not
// aliased to the store's backing array.
func (s *Store) Capabilities() []capability.Holder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]capability.Holder, len(s.capabilities))
	for i, c := range s.capabilities {
		out[i] = c
	}
	return out
}

// Capability returns the capability with the given id, or false.
func (s *Store) Capability(id uint32) (*Capability, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findCapabilityLocked(id)
	if c == nil {
		return nil, false
	}
	return c, true
}

// InsertCapability allocates a fresh capability id, appends a capability
// owned by ownerPID targeting targetID with the given rights, and returns
// the new id.
func (s *Store) InsertCapability(ownerPID, targetID uint32, rights capability.Rights) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextCapID
	s.nextCapID++
	s.capabilities = append(s.capabilities, newCapability(id, ownerPID, targetID, rights))
	return id
}

