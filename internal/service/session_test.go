package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/vodhub/internal/loader"
	"github.com/timmy/vodhub/internal/source"
)

func newTestSessions(gw *stubGateway, cfg SessionConfig) *SessionService {
	if cfg.Loader.PageSize == 0 {
		cfg.Loader.PageSize = 20
	}
	return NewSessionService(gw, cfg)
}

func TestSessionOpenAndPage(t *testing.T) {
	gw := newStubGateway("s1")
	svc := newTestSessions(gw, SessionConfig{})
	ctx := context.Background()

	view, err := svc.Open(ctx, source.ListQuery{SourceID: "s1"}, true)
	require.NoError(t, err)
	assert.NotEmpty(t, view.ID)
	assert.Len(t, view.Items, 20)
	assert.True(t, view.HasMore)
	assert.Equal(t, 2, view.NextPage)
	assert.Equal(t, 20, view.PageSize)

	outcome, view, err := svc.Next(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, loader.OutcomeLoaded, outcome)
	assert.Len(t, view.Items, 40)

	outcome, view, err = svc.Next(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, loader.OutcomeLoaded, outcome)
	assert.Len(t, view.Items, 45)
	assert.False(t, view.HasMore)

	outcome, _, err = svc.Next(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, loader.OutcomeExhausted, outcome)
	assert.Equal(t, 3, gw.requestCount())
}

func TestSessionOpenUnknownSource(t *testing.T) {
	svc := newTestSessions(newStubGateway("s1"), SessionConfig{})
	_, err := svc.Open(context.Background(), source.ListQuery{SourceID: "nope"}, false)
	assert.ErrorIs(t, err, source.ErrSourceNotFound)
	assert.Zero(t, svc.Len())
}

func TestSessionsAreIsolated(t *testing.T) {
	gw := newStubGateway("s1")
	svc := newTestSessions(gw, SessionConfig{})
	ctx := context.Background()

	a, err := svc.Open(ctx, source.ListQuery{SourceID: "s1"}, true)
	require.NoError(t, err)
	b, err := svc.Open(ctx, source.ListQuery{SourceID: "s1"}, false)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	got, err := svc.Get(b.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.Equal(t, 1, got.NextPage)
}

func TestSessionLimit(t *testing.T) {
	svc := newTestSessions(newStubGateway("s1"), SessionConfig{MaxSessions: 2})
	ctx := context.Background()

	first, err := svc.Open(ctx, source.ListQuery{SourceID: "s1"}, false)
	require.NoError(t, err)
	_, err = svc.Open(ctx, source.ListQuery{SourceID: "s1"}, false)
	require.NoError(t, err)

	_, err = svc.Open(ctx, source.ListQuery{SourceID: "s1"}, false)
	assert.ErrorIs(t, err, ErrTooManySessions)

	require.NoError(t, svc.Close(first.ID))
	_, err = svc.Open(ctx, source.ListQuery{SourceID: "s1"}, false)
	assert.NoError(t, err)
}

func TestSessionResetOnlyOnChange(t *testing.T) {
	gw := newStubGateway("s1", "s2")
	svc := newTestSessions(gw, SessionConfig{})
	ctx := context.Background()

	view, err := svc.Open(ctx, source.ListQuery{SourceID: "s1"}, true)
	require.NoError(t, err)

	changed, same, err := svc.Reset(view.ID, source.ListQuery{SourceID: "s1"})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, same.Items, 20)

	changed, reset, err := svc.Reset(view.ID, source.ListQuery{SourceID: "s2", FilterID: "6"})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, reset.Items)
	assert.Equal(t, "s2", reset.Query.SourceID)
	assert.Greater(t, reset.Generation, view.Generation)

	_, _, err = svc.Reset(view.ID, source.ListQuery{SourceID: "nope"})
	assert.ErrorIs(t, err, source.ErrSourceNotFound)
}

func TestSessionScroll(t *testing.T) {
	gw := newStubGateway("s1")
	gw.block = make(chan struct{})
	svc := newTestSessions(gw, SessionConfig{})

	view, err := svc.Open(context.Background(), source.ListQuery{SourceID: "s1"}, false)
	require.NoError(t, err)

	started, during, err := svc.Scroll(view.ID)
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, loader.StatusLoadingFirstPage, during.Status)

	for i := 0; i < 10; i++ {
		started, _, err = svc.Scroll(view.ID)
		require.NoError(t, err)
		assert.False(t, started)
	}

	close(gw.block)
	require.Eventually(t, func() bool {
		v, err := svc.Get(view.ID)
		return err == nil && v.Status == loader.StatusIdle && len(v.Items) == 20
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, gw.requestCount())
}

func TestSessionCloseCancelsBackgroundLoad(t *testing.T) {
	gw := newStubGateway("s1")
	gw.block = make(chan struct{})
	defer close(gw.block)
	svc := newTestSessions(gw, SessionConfig{})

	view, err := svc.Open(context.Background(), source.ListQuery{SourceID: "s1"}, false)
	require.NoError(t, err)
	started, _, err := svc.Scroll(view.ID)
	require.NoError(t, err)
	require.True(t, started)

	done := make(chan struct{})
	go func() {
		svc.CloseAll()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background load was not cancelled")
	}

	_, err = svc.Get(view.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.Close(view.ID), ErrSessionNotFound)
}

func TestSessionSweep(t *testing.T) {
	svc := newTestSessions(newStubGateway("s1"), SessionConfig{IdleTTL: time.Minute})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	idle, err := svc.Open(ctx, source.ListQuery{SourceID: "s1"}, false)
	require.NoError(t, err)

	now = now.Add(50 * time.Second)
	active, err := svc.Open(ctx, source.ListQuery{SourceID: "s1"}, false)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, err = svc.Get(active.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, svc.Sweep())
	_, err = svc.Get(idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Get(active.ID)
	assert.NoError(t, err)
}
