package retention

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJob struct {
	id        string
	createdAt time.Time
}

// fakeStore holds completed jobs per owner in memory. WithOwnerLock uses a
// per-owner mutex, mirroring the advisory-lock serialization of the SQL
// implementation.
type fakeStore struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	jobs  map[string][]fakeJob
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		locks: make(map[string]*sync.Mutex),
		jobs:  make(map[string][]fakeJob),
	}
}

func (s *fakeStore) ownerLock(owner string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[owner] == nil {
		s.locks[owner] = &sync.Mutex{}
	}
	return s.locks[owner]
}

func (s *fakeStore) addCompleted(owner, id string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[owner] = append(s.jobs[owner], fakeJob{id: id, createdAt: at})
}

func (s *fakeStore) WithOwnerLock(_ context.Context, owner string, fn func(tx *sqlx.Tx) error) error {
	lock := s.ownerLock(owner)
	lock.Lock()
	defer lock.Unlock()
	return fn(nil)
}

func (s *fakeStore) CountCompletedTx(_ context.Context, _ *sqlx.Tx, owner string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs[owner]), nil
}

func (s *fakeStore) DeleteOldestCompletedTx(_ context.Context, _ *sqlx.Tx, owner string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := s.jobs[owner]
	if len(jobs) == 0 {
		return "", fmt.Errorf("no completed jobs for owner %s", owner)
	}
	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].createdAt.Equal(jobs[j].createdAt) {
			return jobs[i].createdAt.Before(jobs[j].createdAt)
		}
		return jobs[i].id < jobs[j].id
	})
	evicted := jobs[0]
	s.jobs[owner] = jobs[1:]
	return evicted.id, nil
}

func (s *fakeStore) ids(owner string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.jobs[owner]))
	for _, j := range s.jobs[owner] {
		out = append(out, j.id)
	}
	sort.Strings(out)
	return out
}

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestOnCompletion_UnderCapNoEviction(t *testing.T) {
	store := newFakeStore()
	base := time.Now()
	for i := 0; i < 3; i++ {
		store.addCompleted("u1", fmt.Sprintf("job-%02d", i), base.Add(time.Duration(i)*time.Second))
	}

	policy := NewPolicy(store, 5, testLogger())
	require.NoError(t, policy.OnCompletion(context.Background(), "u1"))

	assert.Len(t, store.ids("u1"), 3)
}

func TestOnCompletion_EvictsStrictlyOldest(t *testing.T) {
	store := newFakeStore()
	base := time.Now()
	// 51 sequential completions with cap 50: the very first is evicted.
	for i := 0; i < 51; i++ {
		store.addCompleted("u1", fmt.Sprintf("job-%03d", i), base.Add(time.Duration(i)*time.Second))
	}

	policy := NewPolicy(store, 50, testLogger())
	require.NoError(t, policy.OnCompletion(context.Background(), "u1"))

	remaining := store.ids("u1")
	assert.Len(t, remaining, 50)
	assert.NotContains(t, remaining, "job-000")
	assert.Contains(t, remaining, "job-001")
	assert.Contains(t, remaining, "job-050")
}

func TestOnCompletion_TieBrokenByJobID(t *testing.T) {
	store := newFakeStore()
	at := time.Now()
	store.addCompleted("u1", "job-b", at)
	store.addCompleted("u1", "job-a", at)
	store.addCompleted("u1", "job-c", at)

	policy := NewPolicy(store, 2, testLogger())
	require.NoError(t, policy.OnCompletion(context.Background(), "u1"))

	remaining := store.ids("u1")
	assert.Equal(t, []string{"job-b", "job-c"}, remaining)
}

func TestOnCompletion_ConcurrentCompletionsStayAtCap(t *testing.T) {
	store := newFakeStore()
	base := time.Now()
	const maxCompleted = 10
	policy := NewPolicy(store, maxCompleted, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			store.addCompleted("u1", fmt.Sprintf("job-%03d", n), base.Add(time.Duration(n)*time.Millisecond))
			assert.NoError(t, policy.OnCompletion(context.Background(), "u1"))
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, len(store.ids("u1")), maxCompleted)
}

func TestOnCompletion_PerOwnerIsolation(t *testing.T) {
	store := newFakeStore()
	base := time.Now()
	for i := 0; i < 4; i++ {
		store.addCompleted("u1", fmt.Sprintf("a-%d", i), base.Add(time.Duration(i)*time.Second))
	}
	store.addCompleted("u2", "b-0", base)

	policy := NewPolicy(store, 3, testLogger())
	require.NoError(t, policy.OnCompletion(context.Background(), "u1"))

	assert.Len(t, store.ids("u1"), 3)
	// Another owner's jobs are never touched.
	assert.Equal(t, []string{"b-0"}, store.ids("u2"))
}
