package group

import (
	"context"
	"errors"
	"time"
)

// ErrNameTaken is returned by Store.CreateGroup when another group of the
// same kind already uses the name.
var ErrNameTaken = errors.New("group: name already taken")

// Store is the narrow interface the engine needs from the shared relational
// datastore. Every method is a short synchronous call; the engine treats any
// error as "store unavailable" and fails the current operation closed.
type Store interface {
	// CreateGroup inserts a new group row and returns it with its assigned ID.
	CreateGroup(ctx context.Context, kind Kind, name string) (Group, error)

	// DeleteGroup removes an empty group's row.
	DeleteGroup(ctx context.Context, kind Kind, groupID int64) error

	// Members returns the authoritative member list of a group.
	Members(ctx context.Context, kind Kind, groupID int64) ([]Membership, error)

	// MembershipOf returns the membership of a character for this kind, or
	// nil if the character is not in a group of this kind.
	MembershipOf(ctx context.Context, kind Kind, characterID int64) (*Membership, error)

	// ExistsNotFull reports whether the group exists and has fewer than max
	// members.
	ExistsNotFull(ctx context.Context, kind Kind, groupID int64, max int) (bool, error)

	// SaveMembership inserts or updates a character's membership row.
	SaveMembership(ctx context.Context, kind Kind, m Membership) error

	// SaveRank updates a member's rank and reports whether a row changed.
	SaveRank(ctx context.Context, kind Kind, characterID, groupID int64, rank Rank) (bool, error)

	// DeleteMembership removes a character's membership row for this kind.
	DeleteMembership(ctx context.Context, kind Kind, characterID int64) error

	// DeleteMembershipRanked removes a member only if their rank is strictly
	// below actorRank. Defense in depth for the kick path.
	DeleteMembershipRanked(ctx context.Context, kind Kind, actorRank Rank, groupID, targetID int64) (bool, error)

	// FetchUpdates returns update-log rows for the given groups with a
	// timestamp at or after since.
	FetchUpdates(ctx context.Context, kind Kind, groupIDs []int64, since time.Time) ([]UpdateEntry, error)

	// EnqueueUpdate inserts or bumps the update-log row for a group so peer
	// processes reconcile it.
	EnqueueUpdate(ctx context.Context, kind Kind, groupID int64) error

	// DeleteUpdates removes a deleted group's update-log row.
	DeleteUpdates(ctx context.Context, kind Kind, groupID int64) error
}
