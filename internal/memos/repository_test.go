package memos

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"example.com/tempmemo/internal/db"
)

// createTestRepository opens a fresh SQLite database in a temp dir.
func createTestRepository(t testing.TB) *Repository {
	t.Helper()
	ctx := context.Background()

	conn, err := db.Open(ctx, db.DriverSQLite, filepath.Join(t.TempDir(), "memo.db"), 1, 1, time.Minute, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	repo, err := NewRepository(ctx, conn.SQL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func mustInsert(t testing.TB, r *Repository, text string, createdAt, deleteAt int64) int64 {
	t.Helper()
	id, err := r.Insert(context.Background(), text, createdAt, deleteAt)
	require.NoError(t, err)
	return id
}

func TestRepository_InsertGetRoundTrip(t *testing.T) {
	r := createTestRepository(t)
	ctx := context.Background()
	const T, H = int64(1_700_000_000_000), int64(3_600_000)

	id := mustInsert(t, r, "abc", T, T+H)
	require.Positive(t, id)

	got, found, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, Memo{ID: id, Text: "abc", CreatedAt: T, DeleteAt: T + H}, got)
}

func TestRepository_GetByID_Absent(t *testing.T) {
	r := createTestRepository(t)

	_, found, err := r.GetByID(context.Background(), 404)
	require.NoError(t, err)
	require.False(t, found)
}

func TestRepository_IDsAreNeverReused(t *testing.T) {
	r := createTestRepository(t)
	ctx := context.Background()

	a := mustInsert(t, r, "a", 0, 10)
	b := mustInsert(t, r, "b", 0, 10)
	require.Greater(t, b, a)

	require.NoError(t, r.Delete(ctx, b))
	c := mustInsert(t, r, "c", 0, 10)
	require.Greater(t, c, b)
}

func TestRepository_ListByExpiry(t *testing.T) {
	r := createTestRepository(t)
	ctx := context.Background()

	late := mustInsert(t, r, "late", 0, 300)
	early := mustInsert(t, r, "early", 0, 100)
	tieA := mustInsert(t, r, "tie a", 0, 200)
	tieB := mustInsert(t, r, "tie b", 0, 200)

	list, err := r.ListByExpiry(ctx)
	require.NoError(t, err)
	ids := make([]int64, 0, len(list))
	for _, m := range list {
		ids = append(ids, m.ID)
	}
	require.Equal(t, []int64{early, tieA, tieB, late}, ids)
}

func TestRepository_UpdateGuarded(t *testing.T) {
	r := createTestRepository(t)
	ctx := context.Background()

	id := mustInsert(t, r, "draft", 5, 100)

	n, err := r.UpdateGuarded(ctx, id, "final", 900)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	got, found, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "final", got.Text)
	require.Equal(t, int64(900), got.DeleteAt)
	require.Equal(t, int64(5), got.CreatedAt)
}

func TestRepository_UpdateGuarded_AfterConcurrentDelete(t *testing.T) {
	r := createTestRepository(t)
	ctx := context.Background()

	id := mustInsert(t, r, "doomed", 0, 100)
	other := mustInsert(t, r, "other", 0, 100)
	require.NoError(t, r.Delete(ctx, id))

	n, err := r.UpdateGuarded(ctx, id, "resurrected?", 5000)
	require.NoError(t, err)
	require.Zero(t, n)

	_, found, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	require.False(t, found)

	list, err := r.ListByExpiry(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, other, list[0].ID)
}

func TestRepository_Delete_Idempotent(t *testing.T) {
	r := createTestRepository(t)
	ctx := context.Background()

	id := mustInsert(t, r, "x", 0, 100)
	require.NoError(t, r.Delete(ctx, id))
	require.NoError(t, r.Delete(ctx, id))
	require.NoError(t, r.Delete(ctx, 12345))
}

func TestRepository_DeleteExpiredBefore(t *testing.T) {
	r := createTestRepository(t)
	ctx := context.Background()

	mustInsert(t, r, "past", 0, 50)
	mustInsert(t, r, "boundary", 0, 100)
	keep := mustInsert(t, r, "future", 0, 101)

	n, err := r.DeleteExpiredBefore(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	n, err = r.DeleteExpiredBefore(ctx, 100)
	require.NoError(t, err)
	require.Zero(t, n)

	list, err := r.ListByExpiry(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, keep, list[0].ID)
}

func TestRepository_DeleteExpiredBeforeExcept(t *testing.T) {
	r := createTestRepository(t)
	ctx := context.Background()

	protected := mustInsert(t, r, "editing", 0, 10)
	mustInsert(t, r, "expired", 0, 20)
	valid := mustInsert(t, r, "valid", 0, 1000)

	n, err := r.DeleteExpiredBeforeExcept(ctx, 500, protected)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	list, err := r.ListByExpiry(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, protected, list[0].ID)
	require.Equal(t, valid, list[1].ID)
}

func TestRepository_CountAndTopValid(t *testing.T) {
	r := createTestRepository(t)
	ctx := context.Background()

	mustInsert(t, r, "expired", 0, 100)
	d := mustInsert(t, r, "d", 0, 900)
	b := mustInsert(t, r, "b", 0, 300)
	c := mustInsert(t, r, "c", 0, 600)
	a := mustInsert(t, r, "a", 0, 200)

	count, err := r.CountValidAsOf(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, int64(4), count)

	top, err := r.TopValidAsOf(ctx, 100, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	require.Equal(t, []int64{a, b, c}, []int64{top[0].ID, top[1].ID, top[2].ID})

	top, err = r.TopValidAsOf(ctx, 600, 3)
	require.NoError(t, err)
	require.Len(t, top, 1)
	require.Equal(t, d, top[0].ID)

	top, err = r.TopValidAsOf(ctx, 0, 0)
	require.NoError(t, err)
	require.Empty(t, top)
}

func TestRepository_TopValidAsOf_Property(t *testing.T) {
	r := createTestRepository(t)
	ctx := context.Background()
	var round atomic.Int64

	rapid.Check(t, func(rt *rapid.T) {
		// Each round works on its own band of deleteAt values so leftovers from
		// earlier rounds are always expired for this one.
		base := round.Add(1) * 1_000_000
		deleteAts := rapid.SliceOfN(rapid.Int64Range(0, 10_000), 0, 12).Draw(rt, "deleteAts")
		for _, off := range deleteAts {
			if _, err := r.Insert(ctx, "p", base, base+off); err != nil {
				rt.Fatalf("insert: %v", err)
			}
		}
		now := base + rapid.Int64Range(0, 10_000).Draw(rt, "now")
		limit := rapid.IntRange(0, 5).Draw(rt, "limit")

		top, err := r.TopValidAsOf(ctx, now, limit)
		if err != nil {
			rt.Fatalf("top: %v", err)
		}
		if len(top) > limit {
			rt.Fatalf("got %d memos, limit %d", len(top), limit)
		}
		for i, m := range top {
			if m.DeleteAt <= now {
				rt.Fatalf("memo %d expired at %d, now %d", m.ID, m.DeleteAt, now)
			}
			if i > 0 && top[i-1].DeleteAt > m.DeleteAt {
				rt.Fatalf("not ordered by deleteAt: %d before %d", top[i-1].DeleteAt, m.DeleteAt)
			}
		}

		want := 0
		for _, off := range deleteAts {
			if base+off > now {
				want++
			}
		}
		if len(top) != min(want, limit) {
			rt.Fatalf("got %d memos, want %d", len(top), min(want, limit))
		}
	})
}

func TestRepository_StorageErrors(t *testing.T) {
	r := createTestRepository(t)
	require.NoError(t, r.Close())

	_, err := r.Insert(context.Background(), "x", 0, 1)
	var se *StorageError
	require.True(t, errors.As(err, &se))
	require.Equal(t, "insert", se.Op)

	_, err = r.DeleteExpiredBefore(context.Background(), 1)
	require.True(t, errors.As(err, &se))
	require.Equal(t, "purge", se.Op)
}
