// Package interrupt models the kernel's exception entry table: the
// dispatch that makes CPU faults observable instead of crashing the
// machine silently. On real hardware this is an IDT loaded once at boot;
// here it is a fixed array of Go handlers keyed by vector number, built
// with the same "typed dispatch table, default case forbidden" idiom the
// rest of this repository uses for its other small fixed-cardinality
// dispatches.
package interrupt

import "github.com/Cartesian-School/gbsd/logging"

// Vector names the CPU exception vectors this kernel installs handlers
// for. The full 0-19 range and its names are reproduced from the
// original interrupt descriptor table setup; naming them individually is
// cheap and makes panics legible.
type Vector int

const (
	DivideError Vector = iota
	Debug
	NMI
	Breakpoint
	Overflow
	BoundRange
	InvalidOpcode
	DeviceNotAvailable
	DoubleFault
	InvalidTSS
	SegmentNotPresent
	StackSegmentFault
	GeneralProtectionFault
	PageFault
	X87FloatingPoint
	AlignmentCheck
	MachineCheck
	SIMDFloatingPoint
	Virtualization
	VectorReserved19

	vectorCount
)

// String returns the vector's name.
func (v Vector) String() string {
	switch v {
	case DivideError:
		return "divide error"
	case Debug:
		return "debug"
	case NMI:
		return "non-maskable interrupt"
	case Breakpoint:
		return "breakpoint"
	case Overflow:
		return "overflow"
	case BoundRange:
		return "bound range exceeded"
	case InvalidOpcode:
		return "invalid opcode"
	case DeviceNotAvailable:
		return "device not available"
	case DoubleFault:
		return "double fault"
	case InvalidTSS:
		return "invalid TSS"
	case SegmentNotPresent:
		return "segment not present"
	case StackSegmentFault:
		return "stack segment fault"
	case GeneralProtectionFault:
		return "general protection fault"
	case PageFault:
		return "page fault"
	case X87FloatingPoint:
		return "x87 floating point exception"
	case AlignmentCheck:
		return "alignment check"
	case MachineCheck:
		return "machine check"
	case SIMDFloatingPoint:
		return "SIMD floating point exception"
	case Virtualization:
		return "virtualization exception"
	case VectorReserved19:
		return "reserved vector 19"
	default:
		return "unknown vector"
	}
}

// Table is the kernel's exception dispatch table: one handler slot per
// vector 0-19. A nil slot means "no handler registered", which is the
// deliberate state of DoubleFault in this core: a dedicated IST stack
// is required before it can be handled safely.
type Table struct {
	handlers [vectorCount]func()
}

// NewTable builds the standard table: Breakpoint returns silently, every
// other registered vector logs its name and panics, and DoubleFault is
// left unregistered.
func NewTable() *Table {
	t := &Table{}
	for v := Vector(0); v < vectorCount; v++ {
		if v == DoubleFault {
			continue
		}
		t.handlers[v] = makeHandler(v)
	}
	t.handlers[Breakpoint] = func() {}
	return t
}

// makeHandler returns the default fatal handler for a vector: log then
// panic. MachineCheck's handler also never returns in practice, since the
// underlying CPU condition it represents is itself unrecoverable — the
// panic is this Go simulation's way of expressing "diverges".
func makeHandler(v Vector) func() {
	return func() {
		logging.WithVector(logging.Default(), int(v)).Error("unhandled exception, halting kernel", "vector_name", v.String())
		panic("interrupt: " + v.String())
	}
}

// Dispatch runs the handler registered for v. If none is registered (only
// possible for DoubleFault in the standard table), it logs and panics
// with a distinct message rather than silently doing nothing: an
// unhandled fault must never be mistaken for a handled one.
func (t *Table) Dispatch(v Vector) {
	if v < 0 || v >= vectorCount {
		panic("interrupt: vector out of range")
	}
	h := t.handlers[v]
	if h == nil {
		logging.WithVector(logging.Default(), int(v)).Error("no handler registered", "vector_name", v.String())
		panic("interrupt: no handler for " + v.String())
	}
	h()
}

// Registered reports whether a handler is installed for v.
func (t *Table) Registered(v Vector) bool {
	if v < 0 || v >= vectorCount {
		return false
	}
	return t.handlers[v] != nil
}
