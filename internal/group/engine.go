package group

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/kelvari/groupsync/internal/logger"
)

// OfflineLocation is written as a guild member's side data on disconnect.
const OfflineLocation = "Offline"

// localCharacter is this process's view of one connected character for one
// group kind.
type localCharacter struct {
	id      int64
	scene   string
	groupID int64
	rank    Rank
}

// Engine is the group lifecycle controller and reconciler for a single kind.
// It owns the process-local tracker and character table; the invitation
// ledger is shared between kinds. All methods must be called from the Runner
// goroutine — none of the engine state is locked.
type Engine struct {
	policy    Policy
	store     Store
	messenger Messenger
	tracker   *Tracker
	ledger    *InviteLedger
	log       *logger.Logger

	online map[int64]*localCharacter

	// lastFetch is the update-poll watermark. It only advances after a
	// successful fetch.
	lastFetch time.Time
	now       func() time.Time
	rng       *rand.Rand
}

// NewEngine creates an engine for one group kind. The ledger may be shared
// with an engine of the other kind.
func NewEngine(policy Policy, store Store, messenger Messenger, ledger *InviteLedger, log *logger.Logger) *Engine {
	return &Engine{
		policy:    policy,
		store:     store,
		messenger: messenger,
		tracker:   NewTracker(),
		ledger:    ledger,
		log:       log.WithFields(map[string]interface{}{"kind": policy.Kind.String()}),
		online:    make(map[int64]*localCharacter),
		lastFetch: time.Now(),
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Kind returns the group kind this engine manages.
func (e *Engine) Kind() Kind {
	return e.policy.Kind
}

func (e *Engine) reject(characterID int64, reason RejectReason) {
	e.messenger.DeliverToCharacter(characterID, GroupInviteRejected{
		Kind:   e.policy.Kind.String(),
		Reason: reason,
	})
}

// HandleConnect registers a character that just connected to this process and
// restores their membership state from the store. Guild members get their
// location side data refreshed to the current scene, and an update-log row is
// written so peers see the location change.
func (e *Engine) HandleConnect(ctx context.Context, characterID int64, scene string) error {
	if _, exists := e.online[characterID]; exists {
		// The gateway replaces connections before telling us; seeing the
		// same character twice means the two have diverged.
		e.log.DPanic("character connected twice", "character_id", characterID)
	}
	ch := &localCharacter{id: characterID, scene: scene}
	e.online[characterID] = ch

	m, err := e.store.MembershipOf(ctx, e.policy.Kind, characterID)
	if err != nil {
		e.log.Error("load membership on connect", "character_id", characterID, "error", err)
		return err
	}
	if m == nil {
		return nil
	}

	ch.groupID = m.GroupID
	ch.rank = m.Rank
	e.tracker.AddLocal(m.GroupID, characterID)

	if e.policy.TracksLocation {
		m.Location = scene
		if err := e.store.SaveMembership(ctx, e.policy.Kind, *m); err != nil {
			e.log.Error("save location on connect", "character_id", characterID, "error", err)
		}
	}
	if err := e.store.EnqueueUpdate(ctx, e.policy.Kind, m.GroupID); err != nil {
		e.log.Error("enqueue update on connect", "group_id", m.GroupID, "error", err)
	}
	return nil
}

// HandleDisconnect discards the character's pending invitation and local
// group state. Guild members get their location set to Offline so rosters on
// other processes show them gone.
func (e *Engine) HandleDisconnect(ctx context.Context, characterID int64) {
	e.ledger.Remove(characterID)

	ch, ok := e.online[characterID]
	if !ok {
		return
	}
	delete(e.online, characterID)
	if ch.groupID < 1 {
		return
	}

	e.tracker.RemoveLocal(ch.groupID, characterID)

	if e.policy.TracksLocation {
		m := Membership{
			GroupID:     ch.groupID,
			CharacterID: characterID,
			Rank:        ch.rank,
			Location:    OfflineLocation,
		}
		if err := e.store.SaveMembership(ctx, e.policy.Kind, m); err != nil {
			e.log.Error("save location on disconnect", "character_id", characterID, "error", err)
		}
	}
	if err := e.store.EnqueueUpdate(ctx, e.policy.Kind, ch.groupID); err != nil {
		e.log.Error("enqueue update on disconnect", "group_id", ch.groupID, "error", err)
	}
}

// CreateGroup creates a new group with the requester as its leader. No
// update-log row is written: no other process can know about the group yet.
func (e *Engine) CreateGroup(ctx context.Context, requesterID int64, name string) error {
	ch, ok := e.online[requesterID]
	if !ok {
		return nil
	}
	if ch.groupID > 0 {
		e.reject(requesterID, ReasonAlreadyInGroup)
		return nil
	}

	name = strings.TrimSpace(name)
	if e.policy.NameRequired {
		if err := e.policy.ValidateName(name); err != nil {
			e.reject(requesterID, ReasonInvalidName)
			return nil
		}
	} else {
		name = ""
	}

	g, err := e.store.CreateGroup(ctx, e.policy.Kind, name)
	if errors.Is(err, ErrNameTaken) {
		e.reject(requesterID, ReasonNameTaken)
		return nil
	}
	if err != nil {
		e.log.Error("create group", "character_id", requesterID, "error", err)
		return err
	}

	m := Membership{
		GroupID:     g.ID,
		CharacterID: requesterID,
		Rank:        RankLeader,
		Location:    ch.scene,
		HealthPct:   1.0,
	}
	if err := e.store.SaveMembership(ctx, e.policy.Kind, m); err != nil {
		e.log.Error("save leader membership", "group_id", g.ID, "error", err)
		return err
	}

	ch.groupID = g.ID
	ch.rank = RankLeader
	e.tracker.AddLocal(g.ID, requesterID)

	e.messenger.DeliverToCharacter(requesterID, GroupCreated{
		Kind:    e.policy.Kind.String(),
		GroupID: g.ID,
	})
	e.messenger.DeliverToCharacter(requesterID, rosterOf(e.policy.Kind, g.ID, []Membership{m}))
	e.log.Info("group created", "group_id", g.ID, "leader_id", requesterID)
	return nil
}

// Invite sends a group invitation to the target character. Authorization and
// capacity failures are silent; a target that is already grouped or already
// holds a pending invitation gets reported back to the inviter.
func (e *Engine) Invite(ctx context.Context, inviterID, targetID int64) error {
	ch, ok := e.online[inviterID]
	if !ok || ch.groupID < 1 || targetID == inviterID || targetID < 1 {
		return nil
	}
	if !e.policy.CanInvite(ch.rank) {
		return nil
	}

	notFull, err := e.store.ExistsNotFull(ctx, e.policy.Kind, ch.groupID, e.policy.MaxSize)
	if err != nil {
		e.log.Error("capacity check", "group_id", ch.groupID, "error", err)
		return err
	}
	if !notFull {
		return nil
	}

	if e.ledger.Pending(targetID) {
		e.reject(inviterID, ReasonTargetInvitePending)
		return nil
	}

	// The target may live on another process; the store is the only view of
	// their membership we can trust from here.
	m, err := e.store.MembershipOf(ctx, e.policy.Kind, targetID)
	if err != nil {
		e.log.Error("target membership check", "target_id", targetID, "error", err)
		return err
	}
	if m != nil {
		e.reject(inviterID, ReasonTargetAlreadyGrouped)
		return nil
	}

	e.ledger.Add(targetID, Invitation{Kind: e.policy.Kind, GroupID: ch.groupID})
	e.messenger.DeliverToCharacter(targetID, GroupInvite{
		Kind:      e.policy.Kind.String(),
		InviterID: inviterID,
		TargetID:  targetID,
	})
	return nil
}

// AcceptInvite consumes the character's pending invitation and joins them to
// the group if it still has room. The accepter gets the full roster
// immediately; everyone else catches up on the next reconcile pass.
func (e *Engine) AcceptInvite(ctx context.Context, characterID int64) error {
	ch, ok := e.online[characterID]
	if !ok || ch.groupID > 0 {
		return nil
	}
	inv, ok := e.ledger.Take(characterID, e.policy.Kind)
	if !ok {
		return nil
	}

	// Re-validate against the store: the invite may have gone stale while it
	// sat in the ledger.
	members, err := e.store.Members(ctx, e.policy.Kind, inv.GroupID)
	if err != nil {
		e.log.Error("member list on accept", "group_id", inv.GroupID, "error", err)
		return err
	}
	if len(members) == 0 || len(members) >= e.policy.MaxSize {
		return nil
	}

	m := Membership{
		GroupID:     inv.GroupID,
		CharacterID: characterID,
		Rank:        RankMember,
		Location:    ch.scene,
		HealthPct:   1.0,
	}
	if err := e.store.SaveMembership(ctx, e.policy.Kind, m); err != nil {
		e.log.Error("save membership on accept", "group_id", inv.GroupID, "error", err)
		return err
	}

	ch.groupID = inv.GroupID
	ch.rank = RankMember
	e.tracker.AddLocal(inv.GroupID, characterID)

	if err := e.store.EnqueueUpdate(ctx, e.policy.Kind, inv.GroupID); err != nil {
		e.log.Error("enqueue update on accept", "group_id", inv.GroupID, "error", err)
	}

	e.messenger.DeliverToCharacter(characterID, rosterOf(e.policy.Kind, inv.GroupID, append(members, m)))
	e.log.Info("invite accepted", "group_id", inv.GroupID, "character_id", characterID)
	return nil
}

// DeclineInvite discards the character's pending invitation of this kind.
// Nothing is written to the store.
func (e *Engine) DeclineInvite(characterID int64) {
	e.ledger.Take(characterID, e.policy.Kind)
}

// Leave removes the character from their group. A leaving leader hands
// leadership to a uniformly random officer if any remain, else a uniformly
// random member. The last member leaving deletes the group.
func (e *Engine) Leave(ctx context.Context, characterID int64) error {
	ch, ok := e.online[characterID]
	if !ok || ch.groupID < 1 {
		return nil
	}
	groupID := ch.groupID

	members, err := e.store.Members(ctx, e.policy.Kind, groupID)
	if err != nil {
		e.log.Error("member list on leave", "group_id", groupID, "error", err)
		return err
	}
	if len(members) == 0 {
		// Local state says member, store says the group is empty: the two
		// have diverged. Stop processing this group rather than guessing.
		e.log.DPanic("tracked group has no store members", "group_id", groupID)
		return nil
	}

	remaining := make([]Membership, 0, len(members)-1)
	for _, m := range members {
		if m.CharacterID != characterID {
			remaining = append(remaining, m)
		}
	}

	if ch.rank == RankLeader && len(remaining) > 0 {
		newLeader := e.pickLeader(remaining)
		if _, err := e.store.SaveRank(ctx, e.policy.Kind, newLeader.CharacterID, groupID, RankLeader); err != nil {
			e.log.Error("transfer leadership", "group_id", groupID, "error", err)
			return err
		}
		e.log.Info("leadership transferred", "group_id", groupID, "new_leader_id", newLeader.CharacterID)
	}

	if err := e.store.DeleteMembership(ctx, e.policy.Kind, characterID); err != nil {
		e.log.Error("delete membership on leave", "group_id", groupID, "error", err)
		return err
	}

	ch.groupID = 0
	ch.rank = RankNone
	e.tracker.RemoveLocal(groupID, characterID)
	e.messenger.DeliverToCharacter(characterID, GroupLeft{Kind: e.policy.Kind.String()})

	if len(remaining) == 0 {
		// Nobody is left to reconcile; remove the group and its update row.
		if err := e.store.DeleteGroup(ctx, e.policy.Kind, groupID); err != nil {
			e.log.Error("delete empty group", "group_id", groupID, "error", err)
			return err
		}
		if err := e.store.DeleteUpdates(ctx, e.policy.Kind, groupID); err != nil {
			e.log.Error("delete update rows", "group_id", groupID, "error", err)
		}
		e.messenger.DeliverToCharacter(characterID, GroupDeleted{
			Kind:    e.policy.Kind.String(),
			GroupID: groupID,
		})
		e.log.Info("group deleted", "group_id", groupID)
		return nil
	}

	if err := e.store.EnqueueUpdate(ctx, e.policy.Kind, groupID); err != nil {
		e.log.Error("enqueue update on leave", "group_id", groupID, "error", err)
	}
	return nil
}

// pickLeader selects the leadership transfer target: a uniformly random
// officer when the kind has officers and any remain, otherwise a uniformly
// random remaining member. No seniority signal exists in the data model, so
// random is the policy, not a placeholder.
func (e *Engine) pickLeader(remaining []Membership) Membership {
	if e.policy.OfficersEnabled {
		officers := make([]Membership, 0, len(remaining))
		for _, m := range remaining {
			if m.Rank == RankOfficer {
				officers = append(officers, m)
			}
		}
		if len(officers) > 0 {
			return officers[e.rng.Intn(len(officers))]
		}
	}
	return remaining[e.rng.Intn(len(remaining))]
}

// Kick removes another member from the actor's group. The target is not
// notified directly: whatever process holds their connection force-removes
// them on its next reconcile pass, which keeps one uniform removal path.
func (e *Engine) Kick(ctx context.Context, actorID, targetID int64) error {
	ch, ok := e.online[actorID]
	if !ok || ch.groupID < 1 || !e.policy.CanKick(ch.rank) {
		return nil
	}
	if targetID < 1 || targetID == actorID {
		return nil
	}

	// The store re-checks the rank relation; a stale local rank cannot kick
	// above itself.
	removed, err := e.store.DeleteMembershipRanked(ctx, e.policy.Kind, ch.rank, ch.groupID, targetID)
	if err != nil {
		e.log.Error("kick member", "group_id", ch.groupID, "target_id", targetID, "error", err)
		return err
	}
	if !removed {
		return nil
	}

	if err := e.store.EnqueueUpdate(ctx, e.policy.Kind, ch.groupID); err != nil {
		e.log.Error("enqueue update on kick", "group_id", ch.groupID, "error", err)
	}
	e.log.Info("member kicked", "group_id", ch.groupID, "target_id", targetID, "actor_id", actorID)
	return nil
}

// ChangeRank updates a member's rank. Guild leaders assign Member or Officer
// freely; the party variant is the compound "promote target to leader, demote
// self to member" swap, and a partial swap writes no update-log row so the
// half-applied state is not propagated.
func (e *Engine) ChangeRank(ctx context.Context, actorID, targetID int64, newRank Rank) error {
	ch, ok := e.online[actorID]
	if !ok || ch.groupID < 1 || ch.rank != RankLeader {
		return nil
	}
	if targetID < 1 || targetID == actorID {
		return nil
	}

	if e.policy.LeaderSwapOnPromote {
		if newRank != RankLeader {
			return nil
		}
		// Promote before demoting: a stale target aborts the swap with the
		// actor still leading, never with a leaderless group.
		promoted, err := e.store.SaveRank(ctx, e.policy.Kind, targetID, ch.groupID, RankLeader)
		if err != nil {
			e.log.Error("promote member", "group_id", ch.groupID, "target_id", targetID, "error", err)
			return err
		}
		if !promoted {
			return nil
		}
		demoted, err := e.store.SaveRank(ctx, e.policy.Kind, actorID, ch.groupID, RankMember)
		if err != nil {
			e.log.Error("demote leader", "group_id", ch.groupID, "error", err)
			return err
		}
		if !demoted {
			return nil
		}
		ch.rank = RankMember
	} else {
		if !e.policy.AssignableRank(newRank) {
			return nil
		}
		changed, err := e.store.SaveRank(ctx, e.policy.Kind, targetID, ch.groupID, newRank)
		if err != nil {
			e.log.Error("change rank", "group_id", ch.groupID, "target_id", targetID, "error", err)
			return err
		}
		if !changed {
			return nil
		}
	}

	if err := e.store.EnqueueUpdate(ctx, e.policy.Kind, ch.groupID); err != nil {
		e.log.Error("enqueue update on rank change", "group_id", ch.groupID, "error", err)
	}
	return nil
}
