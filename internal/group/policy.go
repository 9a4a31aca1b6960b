package group

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidName is returned by Policy.ValidateName for a name that fails the
// allow-list pattern or the length bound.
var ErrInvalidName = errors.New("group: invalid name")

// guildNamePattern allows one to three alphabetic words separated by single
// spaces.
var guildNamePattern = regexp.MustCompile(`^[A-Za-z]+(?: [A-Za-z]+){0,2}$`)

// Policy captures everything that differs between group kinds. The engine is
// written once against it.
type Policy struct {
	Kind    Kind
	MaxSize int

	// NameRequired: guilds carry a unique, validated name; parties are
	// anonymous.
	NameRequired  bool
	MaxNameLength int

	// OfficersEnabled: guilds have an Officer rank between Member and
	// Leader; officers may invite and kick. Parties are leader-only.
	OfficersEnabled bool

	// LeaderSwapOnPromote: the party rank change is exactly "promote target
	// to leader, demote self to member" as one compound operation. Guilds
	// let the leader assign ranks freely instead.
	LeaderSwapOnPromote bool

	// TracksLocation: guild side data is the member's last known scene,
	// refreshed on connect and cleared to "Offline" on disconnect.
	TracksLocation bool
}

// PartyPolicy returns the policy for parties.
func PartyPolicy(maxSize int) Policy {
	return Policy{
		Kind:                KindParty,
		MaxSize:             maxSize,
		LeaderSwapOnPromote: true,
	}
}

// GuildPolicy returns the policy for guilds.
func GuildPolicy(maxSize, maxNameLength int) Policy {
	return Policy{
		Kind:            KindGuild,
		MaxSize:         maxSize,
		NameRequired:    true,
		MaxNameLength:   maxNameLength,
		OfficersEnabled: true,
		TracksLocation:  true,
	}
}

// CanInvite reports whether a member of the given rank may send invitations.
func (p Policy) CanInvite(r Rank) bool {
	if p.OfficersEnabled {
		return r >= RankOfficer
	}
	return r == RankLeader
}

// CanKick reports whether a member of the given rank may remove others.
func (p Policy) CanKick(r Rank) bool {
	return p.CanInvite(r)
}

// ValidateName checks a proposed group name against the kind's rules. The
// name must already be trimmed.
func (p Policy) ValidateName(name string) error {
	if !p.NameRequired {
		return nil
	}
	if name == "" || strings.TrimSpace(name) != name {
		return ErrInvalidName
	}
	if len(name) > p.MaxNameLength {
		return ErrInvalidName
	}
	if !guildNamePattern.MatchString(name) {
		return ErrInvalidName
	}
	return nil
}

// AssignableRank reports whether a leader may set the given rank on another
// member directly. Leadership itself only moves via the transfer paths, which
// keeps the one-leader invariant intact.
func (p Policy) AssignableRank(r Rank) bool {
	if r == RankMember {
		return true
	}
	return p.OfficersEnabled && r == RankOfficer
}
