package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyulab/shell-tunnel/internal/shellkind"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DefaultShell = shellkind.Sh
	s := New(cfg, nil, nil)
	t.Cleanup(s.Close)
	return s
}

func TestCreateAssignsMonotonicIDs(t *testing.T) {
	s := newTestStore(t)

	id1, err := s.Create(CreateOptions{})
	require.NoError(t, err)
	id2, err := s.Create(CreateOptions{})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), uint64(id1))
	assert.Equal(t, uint64(2), uint64(id2))

	s.Delete(id1)
	s.Delete(id2)
}

func TestGetReturnsNotFoundForUnknownID(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Create(CreateOptions{})
	require.NoError(t, err)

	require.NoError(t, s.Delete(id))
	assert.ErrorIs(t, s.Delete(id), ErrNotFound)
}

func TestListIsSortedByID(t *testing.T) {
	s := newTestStore(t)
	var ids []uint64
	for i := 0; i < 3; i++ {
		id, err := s.Create(CreateOptions{})
		require.NoError(t, err)
		ids = append(ids, uint64(id))
		defer s.Delete(id)
	}

	list := s.List()
	require.Len(t, list, 3)
	for i := 1; i < len(list); i++ {
		assert.Less(t, uint64(list[i-1].ID), uint64(list[i].ID))
	}
}

func TestShutdownWithoutGraceKillsImmediately(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Create(CreateOptions{})
	require.NoError(t, err)

	sess, err := s.Get(id)
	require.NoError(t, err)
	sess.TryBeginExecution()

	done := make(chan struct{})
	go func() {
		s.Shutdown(0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown(0) did not return promptly")
	}

	_, err = s.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBrokerOutputTouchesSessionActivity(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Create(CreateOptions{})
	require.NoError(t, err)
	defer s.Delete(id)

	sess, err := s.Get(id)
	require.NoError(t, err)

	before := sess.Ctx.LastActivity()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, sess.Broker.SendInput([]byte("echo touch\n")))

	require.Eventually(t, func() bool {
		return sess.Ctx.LastActivity().After(before)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestSessionBecomesIdleAfterReadyDeadline(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Create(CreateOptions{})
	require.NoError(t, err)
	defer s.Delete(id)

	require.Eventually(t, func() bool {
		sess, err := s.Get(id)
		if err != nil {
			return false
		}
		return sess.State() != 0 // not Starting
	}, 3*time.Second, 20*time.Millisecond)
}
