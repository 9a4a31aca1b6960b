package group

import (
	"fmt"
	"time"
)

// Kind identifies a group kind. A character can belong to at most one group
// of each kind at a time.
type Kind byte

const (
	KindParty Kind = iota + 1
	KindGuild
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindParty:
		return "party"
	case KindGuild:
		return "guild"
	default:
		return "unknown"
	}
}

// ParseKind parses the wire representation of a group kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "party":
		return KindParty, nil
	case "guild":
		return KindGuild, nil
	default:
		return 0, fmt.Errorf("group: unknown kind %q", s)
	}
}

// Rank is a member's rank within a group. The numeric order matters: a kick
// only succeeds against a strictly lower rank.
type Rank byte

const (
	RankNone Rank = iota
	RankMember
	RankOfficer
	RankLeader
)

// String returns the string representation of Rank.
func (r Rank) String() string {
	switch r {
	case RankMember:
		return "member"
	case RankOfficer:
		return "officer"
	case RankLeader:
		return "leader"
	default:
		return "none"
	}
}

// ParseRank parses the wire representation of a rank.
func ParseRank(s string) (Rank, error) {
	switch s {
	case "member":
		return RankMember, nil
	case "officer":
		return RankOfficer, nil
	case "leader":
		return RankLeader, nil
	default:
		return RankNone, fmt.Errorf("group: unknown rank %q", s)
	}
}

// Group is a party or guild row. Name is only set for guilds and is unique
// among them (case-insensitive).
type Group struct {
	ID   int64
	Kind Kind
	Name string
}

// Membership is one character's row in a group. Location is the guild side
// data (last known scene), HealthPct the party side data.
type Membership struct {
	GroupID     int64
	CharacterID int64
	Rank        Rank
	Location    string
	HealthPct   float64
}

// UpdateEntry marks "this group's membership changed; re-read it". The store
// keeps at most one row per group and bumps its timestamp on every change, so
// there is no separate entry ID.
type UpdateEntry struct {
	GroupID    int64
	LastUpdate time.Time
}
