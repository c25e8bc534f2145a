// Package vmm implements the validation surface for vm_allocate and
// vm_deallocate. No physical mapping happens anywhere in this package:
// the contract is entirely the error codes and alignment discipline it
// enforces, and that contract must survive even after a real page-table
// mapper is wired in.
package vmm

import kernelerrors "github.com/Cartesian-School/gbsd/errors"

// maxAllocationSize is the largest single vm_allocate request this core
// will validate through (2^30 bytes, 1 GiB).
const maxAllocationSize = 1 << 30

// pageSize is the required alignment granularity for hints and addresses.
const pageSize = 0x1000

// userCeiling is the exclusive upper bound of user-space addresses.
const userCeiling = 0x800000000000

// allocationBase is where this core's placeholder allocator starts
// carving user addresses from; it does not track or reuse freed ranges
// (no physical mapping is performed).
const allocationBase = 0x1000

// Allocate implements vm_allocate's validation surface. size == 0 or size
// > 2^30 is INVAL; hint not 4 KiB aligned is ALIGN; otherwise it returns
// a user address strictly below the user-space ceiling, or NOMEM if the
// computed address would exceed it.
func Allocate(hint, size uint64, flags uint32) uint64 {
	_ = flags // flags are accepted but not interpreted in this core

	if size == 0 || size > maxAllocationSize {
		return kernelerrors.Inval.Uint64()
	}
	if hint&(pageSize-1) != 0 {
		return kernelerrors.Align.Uint64()
	}

	addr := allocationBase + hint
	if addr >= userCeiling {
		return kernelerrors.NoMem.Uint64()
	}
	return addr
}

// Deallocate implements vm_deallocate's validation surface. size == 0 is
// INVAL; addr not 4 KiB aligned is ALIGN; otherwise OK. No bookkeeping of
// prior allocations is performed (this core has no physical mapper).
func Deallocate(addr, size uint64) uint64 {
	if size == 0 {
		return kernelerrors.Inval.Uint64()
	}
	if addr&(pageSize-1) != 0 {
		return kernelerrors.Align.Uint64()
	}
	return kernelerrors.OK.Uint64()
}
