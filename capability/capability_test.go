package capability

import "testing"

type fakeCap struct {
	id      uint32
	owner   uint32
	target  uint32
	rights  Rights
	revoked bool
}

func (f fakeCap) GetID() uint32       { return f.id }
func (f fakeCap) GetOwnerPID() uint32 { return f.owner }
func (f fakeCap) GetTargetID() uint32 { return f.target }
func (f fakeCap) GetRights() Rights   { return f.rights }
func (f fakeCap) IsRevoked() bool     { return f.revoked }

func TestRights_Has(t *testing.T) {
	tests := []struct {
		name     string
		have     Rights
		required Rights
		want     bool
	}{
		{"exact match", Send, Send, true},
		{"superset grants subset", Send | Receive | Destroy, Send, true},
		{"missing bit", Send, Receive, false},
		{"multi-bit required present", Send | Receive, Send | Receive, true},
		{"multi-bit required partial", Send, Send | Receive, false},
		{"zero required always satisfied", Send, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.have.Has(tt.required); got != tt.want {
				t.Errorf("Has() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRights_String(t *testing.T) {
	tests := []struct {
		r    Rights
		want string
	}{
		{0, "NONE"},
		{Send, "SEND"},
		{Send | Receive, "SEND|RECEIVE"},
		{Send | Receive | Destroy, "SEND|RECEIVE|DESTROY"},
		{SchedControl, "SCHED_CONTROL"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.r.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasCapability(t *testing.T) {
	caps := []Holder{
		fakeCap{owner: 2, target: 1, rights: Send | Receive},
		fakeCap{owner: 2, target: 2, rights: Send, revoked: true},
		fakeCap{owner: 3, target: 1, rights: Send},
	}

	tests := []struct {
		name     string
		pid      uint32
		target   uint32
		required Rights
		want     bool
	}{
		{"owner with right", 2, 1, Send, true},
		{"owner without target", 2, 99, Send, false},
		{"wrong owner", 3, 2, Send, false},
		{"revoked grant ignored", 2, 2, Send, false},
		{"required right absent", 2, 1, Destroy, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasCapability(caps, tt.pid, tt.target, tt.required); got != tt.want {
				t.Errorf("HasCapability() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUsable(t *testing.T) {
	tests := []struct {
		name string
		c    fakeCap
		req  Rights
		want bool
	}{
		{"usable", fakeCap{rights: Send}, Send, true},
		{"revoked is never usable", fakeCap{rights: Send, revoked: true}, Send, false},
		{"missing right", fakeCap{rights: Receive}, Send, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Usable(tt.c, tt.req); got != tt.want {
				t.Errorf("Usable() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestDerive_SubsetSafe covers invariant 6: for every derive from P to Q,
// (Q.rights & P.rights) == Q.rights.
func TestDerive_SubsetSafe(t *testing.T) {
	src := fakeCap{owner: 2, target: 4, rights: Send | Receive | Destroy}

	result, ok := Derive(src, Send)
	if !ok {
		t.Fatal("expected subset derive to succeed")
	}
	if result.Rights&src.rights != result.Rights {
		t.Errorf("derived rights %s not a subset of source rights %s", result.Rights, src.rights)
	}
	if result.TargetID != src.target {
		t.Errorf("derived target = %d, want %d", result.TargetID, src.target)
	}
}

func TestDerive_RejectsSupersetRequest(t *testing.T) {
	// Scenario 4 from the end-to-end walkthrough: A holds SEND|RECEIVE|DESTROY
	// on a port; requesting SEND|EXECUTE must fail because EXECUTE is not in
	// the parent.
	src := fakeCap{owner: 2, target: 4, rights: Send | Receive | Destroy}

	_, ok := Derive(src, Send|Execute)
	if ok {
		t.Error("expected derive requesting a right outside the parent to fail")
	}
}

func TestDerive_DoesNotMutateSource(t *testing.T) {
	src := fakeCap{owner: 2, target: 4, rights: Send | Receive | Destroy}
	before := src.rights

	Derive(src, Send)

	if src.rights != before {
		t.Error("Derive must not mutate the source capability's rights")
	}
}
