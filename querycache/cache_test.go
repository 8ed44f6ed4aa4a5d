package querycache_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/marketplace-client/internal/errors"
	"github.com/jrsteele09/marketplace-client/querycache"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, stale time.Duration) *querycache.Cache {
	t.Helper()
	c := querycache.New(stale, querycache.WithRetryDelay(0))
	t.Cleanup(c.Close)
	return c
}

func TestKey(t *testing.T) {
	require.Equal(t, "projects/list/1/20", querycache.Key("projects", "list", 1, 20))
	require.Equal(t, "tasks/a_b", querycache.Key("tasks", "a/b"))
}

func TestQueryCachesFreshValues(t *testing.T) {
	c := newCache(t, time.Minute)
	var calls atomic.Int32
	fetch := func(context.Context) (string, error) {
		calls.Add(1)
		return "v", nil
	}

	for i := 0; i < 3; i++ {
		v, err := querycache.Query(context.Background(), c, "k", fetch)
		require.NoError(t, err)
		require.Equal(t, "v", v)
	}
	require.Equal(t, int32(1), calls.Load())
	require.True(t, c.Has("k"))
}

func TestQueryRefetchesWhenStale(t *testing.T) {
	c := newCache(t, 20*time.Millisecond)
	var calls atomic.Int32
	fetch := func(context.Context) (int32, error) {
		return calls.Add(1), nil
	}

	v, err := querycache.Query(context.Background(), c, "k", fetch)
	require.NoError(t, err)
	require.Equal(t, int32(1), v)

	require.Eventually(t, func() bool { return !c.Has("k") }, time.Second, 5*time.Millisecond)
	v, err = querycache.Query(context.Background(), c, "k", fetch)
	require.NoError(t, err)
	require.Equal(t, int32(2), v)
}

func TestQueryRetriesNetworkErrorsOnce(t *testing.T) {
	c := newCache(t, time.Minute)

	t.Run("recovers on retry", func(t *testing.T) {
		var calls atomic.Int32
		v, err := querycache.Query(context.Background(), c, "flaky", func(context.Context) (string, error) {
			if calls.Add(1) == 1 {
				return "", errors.ErrNetwork
			}
			return "ok", nil
		})
		require.NoError(t, err)
		require.Equal(t, "ok", v)
		require.Equal(t, int32(2), calls.Load())
	})

	t.Run("gives up after one retry", func(t *testing.T) {
		var calls atomic.Int32
		_, err := querycache.Query(context.Background(), c, "down", func(context.Context) (string, error) {
			calls.Add(1)
			return "", errors.ErrNetwork
		})
		require.ErrorIs(t, err, errors.ErrNetwork)
		require.Equal(t, int32(2), calls.Load())
		require.False(t, c.Has("down"))
	})

	t.Run("does not retry validation errors", func(t *testing.T) {
		var calls atomic.Int32
		_, err := querycache.Query(context.Background(), c, "bad", func(context.Context) (string, error) {
			calls.Add(1)
			return "", errors.ErrValidation
		})
		require.ErrorIs(t, err, errors.ErrValidation)
		require.Equal(t, int32(1), calls.Load())
	})
}

func TestConcurrentQueriesShareOneFetch(t *testing.T) {
	c := newCache(t, time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := querycache.Query(context.Background(), c, "shared", fetch)
			require.NoError(t, err)
			require.Equal(t, "v", v)
		}()
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()
	require.Equal(t, int32(1), calls.Load())
}

func TestMutateRunsOnceAndInvalidates(t *testing.T) {
	c := newCache(t, time.Minute)
	ctx := context.Background()
	for _, k := range []string{"projects", "projects/list/1", "projects/p1", "projectsX", "tasks/t1"} {
		_, err := querycache.Query(ctx, c, k, func(context.Context) (string, error) { return k, nil })
		require.NoError(t, err)
	}

	var calls atomic.Int32
	_, err := querycache.Mutate(ctx, c, func(context.Context) (string, error) {
		calls.Add(1)
		return "", errors.ErrNetwork
	}, "projects")
	require.ErrorIs(t, err, errors.ErrNetwork)
	require.Equal(t, int32(1), calls.Load(), "mutations are never retried")
	require.True(t, c.Has("projects/p1"), "failed mutations invalidate nothing")

	id, err := querycache.Mutate(ctx, c, func(context.Context) (string, error) { return "p2", nil }, "projects")
	require.NoError(t, err)
	require.Equal(t, "p2", id)
	require.False(t, c.Has("projects"))
	require.False(t, c.Has("projects/list/1"))
	require.False(t, c.Has("projects/p1"))
	require.True(t, c.Has("projectsX"))
	require.True(t, c.Has("tasks/t1"))
}

func TestInvalidateAllDiscardsInFlightResults(t *testing.T) {
	c := newCache(t, time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan string)
	go func() {
		v, err := querycache.Query(context.Background(), c, "me", func(context.Context) (string, error) {
			close(started)
			<-release
			return "previous-user", nil
		})
		require.NoError(t, err)
		done <- v
	}()

	<-started
	c.InvalidateAll()
	close(release)
	require.Equal(t, "previous-user", <-done)
	require.False(t, c.Has("me"))
	require.Zero(t, c.Len())
}

func TestCancelledCallerDoesNotFailOthers(t *testing.T) {
	c := newCache(t, time.Minute)
	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		select {
		case <-time.After(150 * time.Millisecond):
			return "v", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	leaderCtx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	leader := make(chan error, 1)
	go func() {
		_, err := querycache.Query(leaderCtx, c, "slow", fetch)
		leader <- err
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	v, err := querycache.Query(context.Background(), c, "slow", fetch)
	require.NoError(t, err)
	require.Equal(t, "v", v)
	require.ErrorIs(t, <-leader, context.DeadlineExceeded)
	require.Equal(t, int32(1), calls.Load())
	require.True(t, c.Has("slow"), "the shared fetch completes and is cached")
}

type rows struct {
	items []string
}

func (r rows) Clone() rows {
	return rows{items: append([]string(nil), r.items...)}
}

func TestClonerValuesAreCopiedOnRead(t *testing.T) {
	c := newCache(t, time.Minute)
	fetch := func(context.Context) (rows, error) {
		return rows{items: []string{"a", "b"}}, nil
	}

	first, err := querycache.Query(context.Background(), c, "rows", fetch)
	require.NoError(t, err)
	first.items[0] = "changed"

	second, err := querycache.Query(context.Background(), c, "rows", fetch)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, second.items)
}
