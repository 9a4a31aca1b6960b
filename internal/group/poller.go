package group

import (
	"context"
)

// Pump runs one poll tick: fetch update-log rows newer than the watermark for
// every tracked group, dedupe by group, reconcile each once. A store failure
// abandons the tick without touching the watermark, so the next tick retries
// the same window.
func (e *Engine) Pump(ctx context.Context) {
	tracked := e.tracker.TrackedGroups()
	if len(tracked) == 0 {
		return
	}

	// Capture the watermark before the query so a row written while the
	// fetch runs lands in the next window instead of being skipped. The
	// fetch uses >=, so a boundary row may be delivered twice; the dedup and
	// the idempotent reconcile make that harmless.
	fetchStart := e.now()
	updates, err := e.store.FetchUpdates(ctx, e.policy.Kind, tracked, e.lastFetch)
	if err != nil {
		e.log.Warn("fetch updates", "error", err)
		return
	}
	e.lastFetch = fetchStart

	seen := make(map[int64]struct{}, len(updates))
	for _, u := range updates {
		if _, done := seen[u.GroupID]; done {
			continue
		}
		seen[u.GroupID] = struct{}{}
		if err := e.reconcile(ctx, u.GroupID); err != nil {
			e.log.Warn("reconcile group", "group_id", u.GroupID, "error", err)
		}
	}
}

// reconcile re-reads a group's authoritative member list and corrects local
// state: departed local members are forced out with a GroupLeft push, ranks
// are refreshed, and every local member still in the group gets one batched
// roster snapshot.
func (e *Engine) reconcile(ctx context.Context, groupID int64) error {
	members, err := e.store.Members(ctx, e.policy.Kind, groupID)
	if err != nil {
		return err
	}

	current := make(map[int64]struct{}, len(members))
	for _, m := range members {
		current[m.CharacterID] = struct{}{}
	}

	// Force-remove locally connected characters the store no longer lists.
	for characterID := range e.tracker.LastSeen(groupID) {
		if _, still := current[characterID]; still {
			continue
		}
		ch, ok := e.online[characterID]
		if !ok || ch.groupID != groupID {
			continue
		}
		ch.groupID = 0
		ch.rank = RankNone
		e.tracker.RemoveLocal(groupID, characterID)
		e.messenger.DeliverToCharacter(characterID, GroupLeft{Kind: e.policy.Kind.String()})
		e.log.Info("member force-removed", "group_id", groupID, "character_id", characterID)
	}

	if !e.tracker.HasLocal(groupID) {
		// Everyone local is gone; the tracker already purged the cache.
		return nil
	}
	e.tracker.SetLastSeen(groupID, current)

	snapshot := rosterOf(e.policy.Kind, groupID, members)
	for _, m := range members {
		ch, ok := e.online[m.CharacterID]
		if !ok || ch.groupID != groupID {
			continue
		}
		// Rank changes made on other processes surface here.
		ch.rank = m.Rank
		e.messenger.DeliverToCharacter(m.CharacterID, snapshot)
	}
	return nil
}
