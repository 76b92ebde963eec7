package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowclinic/booking-api/pkg/logger"
)

type fakeEventStore struct {
	cutoffs []time.Time
	deleted int64
	err     error
}

func (s *fakeEventStore) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	s.cutoffs = append(s.cutoffs, before)
	return s.deleted, s.err
}

func TestOutboxCleanupUsesRetentionCutoff(t *testing.T) {
	store := &fakeEventStore{deleted: 3}
	c := NewOutboxCleanup(store, 7*24*time.Hour, time.Hour, logger.NewLogger(nil))

	c.cleanup(context.Background())

	require.Len(t, store.cutoffs, 1)
	want := time.Now().Add(-7 * 24 * time.Hour)
	assert.WithinDuration(t, want, store.cutoffs[0], time.Minute)
}

func TestOutboxCleanupSurvivesStoreError(t *testing.T) {
	store := &fakeEventStore{err: errors.New("connection reset")}
	c := NewOutboxCleanup(store, time.Hour, time.Hour, logger.NewLogger(nil))

	c.cleanup(context.Background())
	c.cleanup(context.Background())

	assert.Len(t, store.cutoffs, 2)
}

func TestNewOutboxCleanupRejectsZeroIntervals(t *testing.T) {
	store := &fakeEventStore{}
	log := logger.NewLogger(nil)

	assert.Panics(t, func() { NewOutboxCleanup(store, 0, time.Hour, log) })
	assert.Panics(t, func() { NewOutboxCleanup(store, time.Hour, 0, log) })
}
