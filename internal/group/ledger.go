package group

// Invitation is a pending, unaccepted group invitation.
type Invitation struct {
	Kind    Kind
	GroupID int64
}

// InviteLedger enforces at most one outstanding invitation per target
// character, across all groups and both kinds. It is process-local, never
// persisted, and shared by the party and guild engines so the exclusivity
// holds between kinds too.
//
// There is no cross-process coordination here: two inviters on different
// processes can race the same target within one poll window. That is an
// accepted gap, not a bug.
type InviteLedger struct {
	pending map[int64]Invitation
}

// NewInviteLedger returns an empty ledger.
func NewInviteLedger() *InviteLedger {
	return &InviteLedger{pending: make(map[int64]Invitation)}
}

// Add records an invitation for the target. It fails if the target already
// has one pending, regardless of kind.
func (l *InviteLedger) Add(targetID int64, inv Invitation) bool {
	if _, exists := l.pending[targetID]; exists {
		return false
	}
	l.pending[targetID] = inv
	return true
}

// Pending reports whether the target has an outstanding invitation of any
// kind.
func (l *InviteLedger) Pending(targetID int64) bool {
	_, exists := l.pending[targetID]
	return exists
}

// Take consumes the target's invitation if it matches the given kind. An
// invitation of the other kind is left untouched.
func (l *InviteLedger) Take(targetID int64, kind Kind) (Invitation, bool) {
	inv, exists := l.pending[targetID]
	if !exists || inv.Kind != kind {
		return Invitation{}, false
	}
	delete(l.pending, targetID)
	return inv, true
}

// Remove discards the target's invitation unconditionally. Called when the
// target disconnects.
func (l *InviteLedger) Remove(targetID int64) {
	delete(l.pending, targetID)
}

// Len returns the number of outstanding invitations.
func (l *InviteLedger) Len() int {
	return len(l.pending)
}
