package errorlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetentionService_Sweep(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	l, store, clock := newTestLogger(now.AddDate(0, 0, -45))
	ctx := context.Background()

	old := l.Log(ctx, Entry{Identity: "u", Type: TypeAPI})
	_, err := l.UpdateStatus(ctx, old.ID, StatusIgnored, "admin", nil)
	require.NoError(t, err)

	*clock = now

	svc := NewRetentionService(l, time.Hour, 30)
	svc.sweep(ctx)

	_, err = store.Get(ctx, old.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestNewRetentionService_DefaultDays(t *testing.T) {
	svc := NewRetentionService(NewLogger(NewMemoryStore()), time.Hour, 0)
	assert.Equal(t, DefaultRetentionDays, svc.retentionDays)
}

func TestRetentionService_StopsOnCancel(t *testing.T) {
	svc := NewRetentionService(NewLogger(NewMemoryStore()), time.Millisecond, 30)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		svc.Start(ctx)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("retention service did not stop")
	}
}
