package kstate

import "github.com/Cartesian-School/gbsd/capability"

// Capability is the kernel's record of a single grant: pid owner, the
// object it names (a port_id today; the field is generic for future
// target kinds), a rights bitmask, and a one-way revoked flag.
type Capability struct {
	ID       uint32
	OwnerPID uint32
	TargetID uint32
	Rights   capability.Rights
	Revoked  bool
}

// GetID implements capability.Holder.
func (c *Capability) GetID() uint32 { return c.ID }

// GetOwnerPID implements capability.Holder.
func (c *Capability) GetOwnerPID() uint32 { return c.OwnerPID }

// GetTargetID implements capability.Holder.
func (c *Capability) GetTargetID() uint32 { return c.TargetID }

// GetRights implements capability.Holder.
func (c *Capability) GetRights() capability.Rights { return c.Rights }

// IsRevoked implements capability.Holder.
func (c *Capability) IsRevoked() bool { return c.Revoked }

// newCapability returns a freshly minted, non-revoked capability.
func newCapability(id, ownerPID, targetID uint32, rights capability.Rights) *Capability {
	return &Capability{ID: id, OwnerPID: ownerPID, TargetID: targetID, Rights: rights}
}
