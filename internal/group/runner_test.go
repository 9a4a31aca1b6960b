package group

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelvari/groupsync/internal/logger"
)

func TestRunner_EngineLookup(t *testing.T) {
	party, _, _ := newTestEngine(PartyPolicy(6))
	guild, _, _ := newTestEngine(GuildPolicy(100, 64))
	r := NewRunner(logger.NewNop(), time.Hour, party, guild)

	assert.Same(t, party, r.Engine(KindParty))
	assert.Same(t, guild, r.Engine(KindGuild))
	assert.Nil(t, r.Engine(Kind(0)))
}

func TestRunner_DoExecutesOnLoop(t *testing.T) {
	party, _, _ := newTestEngine(PartyPolicy(6))
	r := NewRunner(logger.NewNop(), time.Hour, party)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	done := make(chan struct{})
	r.Do(func(context.Context) { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("queued command never ran")
	}
}

func TestRunner_StopsOnContextCancel(t *testing.T) {
	party, _, _ := newTestEngine(PartyPolicy(6))
	r := NewRunner(logger.NewNop(), time.Hour, party)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}

	// Commands queued after shutdown are simply never executed.
	require.NotPanics(t, func() {
		r.Do(func(context.Context) {})
	})
}
