package group

// Tracker is the per-process membership cache for one group kind. It keeps
// two views per group: which locally connected characters belong to it, and
// the last full member set seen in the store (used to diff against the next
// authoritative read). Both are purged together once the last local member is
// gone — a group nobody here belongs to is not worth polling.
//
// The tracker is plain single-goroutine state owned by the Runner loop.
type Tracker struct {
	local    map[int64]map[int64]struct{}
	lastSeen map[int64]map[int64]struct{}
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		local:    make(map[int64]map[int64]struct{}),
		lastSeen: make(map[int64]map[int64]struct{}),
	}
}

// AddLocal records that a locally connected character belongs to a group.
func (t *Tracker) AddLocal(groupID, characterID int64) {
	if groupID == 0 {
		return
	}
	chars, ok := t.local[groupID]
	if !ok {
		chars = make(map[int64]struct{})
		t.local[groupID] = chars
	}
	chars[characterID] = struct{}{}
}

// RemoveLocal drops a character from a group's local set. When the set
// becomes empty both the local set and the cached member set are removed.
func (t *Tracker) RemoveLocal(groupID, characterID int64) {
	if groupID == 0 {
		return
	}
	chars, ok := t.local[groupID]
	if !ok {
		return
	}
	delete(chars, characterID)
	if len(chars) == 0 {
		delete(t.local, groupID)
		delete(t.lastSeen, groupID)
	}
}

// HasLocal reports whether any locally connected character belongs to the
// group.
func (t *Tracker) HasLocal(groupID int64) bool {
	return len(t.local[groupID]) > 0
}

// TrackedGroups returns the IDs of every group with at least one locally
// connected member.
func (t *Tracker) TrackedGroups() []int64 {
	ids := make([]int64, 0, len(t.local))
	for id := range t.local {
		ids = append(ids, id)
	}
	return ids
}

// LastSeen returns the cached member set for a group, or nil if the group has
// not been reconciled yet.
func (t *Tracker) LastSeen(groupID int64) map[int64]struct{} {
	return t.lastSeen[groupID]
}

// SetLastSeen replaces the cached member set for a group.
func (t *Tracker) SetLastSeen(groupID int64, members map[int64]struct{}) {
	t.lastSeen[groupID] = members
}
