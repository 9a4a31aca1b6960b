package groupstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kelvari/groupsync/internal/group"
)

type groupKey struct {
	kind group.Kind
	id   int64
}

type memberKey struct {
	kind        group.Kind
	characterID int64
}

// Memory is an in-memory implementation of group.Store. It is thread-safe
// and keeps the same semantics as the SQL store: one membership per
// (kind, character), one update row per (kind, group), case-insensitive name
// uniqueness.
type Memory struct {
	mu      sync.RWMutex
	nextID  int64
	groups  map[groupKey]group.Group
	members map[memberKey]group.Membership
	updates map[groupKey]time.Time

	// Now is the clock used to stamp update rows; tests may replace it.
	Now func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		groups:  make(map[groupKey]group.Group),
		members: make(map[memberKey]group.Membership),
		updates: make(map[groupKey]time.Time),
		Now:     time.Now,
	}
}

// CreateGroup inserts a new group row.
func (s *Memory) CreateGroup(_ context.Context, kind group.Kind, name string) (group.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name != "" {
		for k, g := range s.groups {
			if k.kind == kind && strings.EqualFold(g.Name, name) {
				return group.Group{}, group.ErrNameTaken
			}
		}
	}

	s.nextID++
	g := group.Group{ID: s.nextID, Kind: kind, Name: name}
	s.groups[groupKey{kind, g.ID}] = g
	return g, nil
}

// DeleteGroup removes a group row.
func (s *Memory) DeleteGroup(_ context.Context, kind group.Kind, groupID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, groupKey{kind, groupID})
	return nil
}

// Members returns the member list of a group ordered by character ID.
func (s *Memory) Members(_ context.Context, kind group.Kind, groupID int64) ([]group.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := make([]group.Membership, 0)
	for k, m := range s.members {
		if k.kind == kind && m.GroupID == groupID {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].CharacterID < members[j].CharacterID
	})
	return members, nil
}

// MembershipOf returns a character's membership for this kind, or nil.
func (s *Memory) MembershipOf(_ context.Context, kind group.Kind, characterID int64) (*group.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, ok := s.members[memberKey{kind, characterID}]; ok {
		out := m
		return &out, nil
	}
	return nil, nil
}

// ExistsNotFull reports whether the group has at least one and fewer than max
// members.
func (s *Memory) ExistsNotFull(ctx context.Context, kind group.Kind, groupID int64, max int) (bool, error) {
	if groupID == 0 {
		return false, nil
	}
	members, err := s.Members(ctx, kind, groupID)
	if err != nil {
		return false, err
	}
	return len(members) > 0 && len(members) < max, nil
}

// SaveMembership inserts or replaces a character's membership row.
func (s *Memory) SaveMembership(_ context.Context, kind group.Kind, m group.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[memberKey{kind, m.CharacterID}] = m
	return nil
}

// SaveRank updates a member's rank. It reports whether the rank actually
// changed.
func (s *Memory) SaveRank(_ context.Context, kind group.Kind, characterID, groupID int64, rank group.Rank) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memberKey{kind, characterID}
	m, ok := s.members[key]
	if !ok || m.GroupID != groupID || m.Rank == rank {
		return false, nil
	}
	m.Rank = rank
	s.members[key] = m
	return true, nil
}

// DeleteMembership removes a character's membership row.
func (s *Memory) DeleteMembership(_ context.Context, kind group.Kind, characterID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, memberKey{kind, characterID})
	return nil
}

// DeleteMembershipRanked removes a member only if their rank is strictly
// below actorRank.
func (s *Memory) DeleteMembershipRanked(_ context.Context, kind group.Kind, actorRank group.Rank, groupID, targetID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memberKey{kind, targetID}
	m, ok := s.members[key]
	if !ok || m.GroupID != groupID || m.Rank >= actorRank {
		return false, nil
	}
	delete(s.members, key)
	return true, nil
}

// FetchUpdates returns update rows for the given groups stamped at or after
// since, oldest first.
func (s *Memory) FetchUpdates(_ context.Context, kind group.Kind, groupIDs []int64, since time.Time) ([]group.UpdateEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]group.UpdateEntry, 0)
	for _, id := range groupIDs {
		if t, ok := s.updates[groupKey{kind, id}]; ok && !t.Before(since) {
			entries = append(entries, group.UpdateEntry{GroupID: id, LastUpdate: t})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LastUpdate.Equal(entries[j].LastUpdate) {
			return entries[i].GroupID < entries[j].GroupID
		}
		return entries[i].LastUpdate.Before(entries[j].LastUpdate)
	})
	return entries, nil
}

// EnqueueUpdate inserts or bumps a group's update row.
func (s *Memory) EnqueueUpdate(_ context.Context, kind group.Kind, groupID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := groupKey{kind, groupID}
	now := s.Now()
	if existing, ok := s.updates[key]; !ok || existing.Before(now) {
		s.updates[key] = now
	}
	return nil
}

// DeleteUpdates removes a group's update row.
func (s *Memory) DeleteUpdates(_ context.Context, kind group.Kind, groupID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.updates, groupKey{kind, groupID})
	return nil
}
