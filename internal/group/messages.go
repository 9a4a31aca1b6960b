package group

// Message is an outbound client message. The gateway wraps it in a
// {"type": ..., "data": ...} envelope keyed by MessageName.
type Message interface {
	MessageName() string
}

// Messenger delivers messages to a character's live connection, wherever that
// connection currently is. Delivery is best effort: an offline character is a
// no-op, a remote character is routed by the messaging collaborator.
type Messenger interface {
	DeliverToCharacter(characterID int64, msg Message)
}

// RejectReason explains why a group request was denied.
type RejectReason string

const (
	ReasonAlreadyInGroup       RejectReason = "already_in_group"
	ReasonInvalidName          RejectReason = "invalid_name"
	ReasonNameTaken            RejectReason = "name_taken"
	ReasonTargetAlreadyGrouped RejectReason = "target_already_grouped"
	ReasonTargetInvitePending  RejectReason = "target_invite_pending"
)

// GroupCreated tells the requester their group now exists.
type GroupCreated struct {
	Kind    string `json:"kind"`
	GroupID int64  `json:"group_id"`
}

func (GroupCreated) MessageName() string { return "group_created" }

// GroupInvite is delivered to the invitation target.
type GroupInvite struct {
	Kind      string `json:"kind"`
	InviterID int64  `json:"inviter_id"`
	TargetID  int64  `json:"target_id"`
}

func (GroupInvite) MessageName() string { return "group_invite" }

// GroupInviteRejected tells the requester why their create or invite request
// was denied.
type GroupInviteRejected struct {
	Kind   string       `json:"kind"`
	Reason RejectReason `json:"reason"`
}

func (GroupInviteRejected) MessageName() string { return "group_invite_rejected" }

// RosterEntry is one member in a roster snapshot.
type RosterEntry struct {
	CharacterID int64   `json:"character_id"`
	Rank        string  `json:"rank"`
	Location    string  `json:"location,omitempty"`
	HealthPct   float64 `json:"health_pct,omitempty"`
}

// RosterSnapshot carries the full member list of a group so clients rebuild
// their party/guild panels in one message.
type RosterSnapshot struct {
	Kind    string        `json:"kind"`
	GroupID int64         `json:"group_id"`
	Members []RosterEntry `json:"members"`
}

func (RosterSnapshot) MessageName() string { return "roster_snapshot" }

// GroupLeft tells a character they are no longer in a group of this kind.
type GroupLeft struct {
	Kind string `json:"kind"`
}

func (GroupLeft) MessageName() string { return "group_left" }

// GroupDeleted tells a character the group was removed entirely.
type GroupDeleted struct {
	Kind    string `json:"kind"`
	GroupID int64  `json:"group_id"`
}

func (GroupDeleted) MessageName() string { return "group_deleted" }

func rosterOf(kind Kind, groupID int64, members []Membership) RosterSnapshot {
	snapshot := RosterSnapshot{
		Kind:    kind.String(),
		GroupID: groupID,
		Members: make([]RosterEntry, 0, len(members)),
	}
	for _, m := range members {
		snapshot.Members = append(snapshot.Members, RosterEntry{
			CharacterID: m.CharacterID,
			Rank:        m.Rank.String(),
			Location:    m.Location,
			HealthPct:   m.HealthPct,
		})
	}
	return snapshot
}
