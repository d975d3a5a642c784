package memos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func nextSnapshot(t *testing.T, ch <-chan []Memo) []Memo {
	t.Helper()
	select {
	case list, ok := <-ch:
		require.True(t, ok, "watch channel closed")
		return list
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestRepository_Watch_PushesSnapshots(t *testing.T) {
	r := createTestRepository(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := mustInsert(t, r, "first", 0, 500)

	ch, err := r.Watch(ctx)
	require.NoError(t, err)

	list := nextSnapshot(t, ch)
	require.Len(t, list, 1)
	require.Equal(t, first, list[0].ID)

	second := mustInsert(t, r, "second", 0, 100)
	list = nextSnapshot(t, ch)
	require.Len(t, list, 2)
	require.Equal(t, second, list[0].ID, "nearest expiry first")

	require.NoError(t, r.Delete(ctx, first))
	list = nextSnapshot(t, ch)
	require.Len(t, list, 1)
	require.Equal(t, second, list[0].ID)
}

func TestRepository_Watch_NoSignalForNoOpDelete(t *testing.T) {
	r := createTestRepository(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := r.Watch(ctx)
	require.NoError(t, err)
	require.Empty(t, nextSnapshot(t, ch))

	require.NoError(t, r.Delete(ctx, 999))
	select {
	case list := <-ch:
		t.Fatalf("unexpected snapshot %v", list)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRepository_Watch_ClosesOnCancelAndClose(t *testing.T) {
	r := createTestRepository(t)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := r.Watch(ctx)
	require.NoError(t, err)
	nextSnapshot(t, ch)
	require.Eventually(t, func() bool { return r.State().(RepositoryState).Subscribers == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool {
		_, ok := <-ch
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return r.State().(RepositoryState).Subscribers == 0 }, time.Second, 10*time.Millisecond)

	ch2, err := r.Watch(context.Background())
	require.NoError(t, err)
	nextSnapshot(t, ch2)
	require.NoError(t, r.Close())
	require.Eventually(t, func() bool {
		_, ok := <-ch2
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBroker_CoalescesSignals(t *testing.T) {
	b := newBroker()
	id, ch := b.subscribe()
	b.publish()
	b.publish()
	b.publish()

	<-ch
	select {
	case <-ch:
		t.Fatal("signals should coalesce")
	default:
	}

	b.unsubscribe(id)
	_, ok := <-ch
	require.False(t, ok)
	require.Equal(t, 0, b.count())

	b.close()
	_, late := b.subscribe()
	_, ok = <-late
	require.False(t, ok)
}

func TestRepository_ComponentType(t *testing.T) {
	r := createTestRepository(t)
	require.Equal(t, "memo-repository", r.ComponentType())
}
