package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cinetheque/api/internal/database/testutil"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	return NewDatabaseStore(testutil.MustOpenTestDB(t, testutil.WithAutoMigrate()))
}

func TestVersionInitialisesToOne(t *testing.T) {
	versions := NewVersions(newTestStore(t))
	ctx := context.Background()

	require.EqualValues(t, 1, versions.Version(ctx, "films:list"))
	// Repeated reads before any write stay stable.
	require.EqualValues(t, 1, versions.Version(ctx, "films:list"))
	require.EqualValues(t, 1, versions.Version(ctx, "films:list"))
}

func TestBumpAdvancesVersion(t *testing.T) {
	versions := NewVersions(newTestStore(t))
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		versions.Bump(ctx, "films:list")
	}

	require.EqualValues(t, 5, versions.Version(ctx, "films:list"))
}

func TestBumpFromUnsetAdvancesPastInitial(t *testing.T) {
	versions := NewVersions(newTestStore(t))
	ctx := context.Background()

	// The counter key does not exist yet; the bump must materialise it
	// rather than fail.
	versions.Bump(ctx, "authors:list")
	require.EqualValues(t, 2, versions.Version(ctx, "authors:list"))
}

func TestListKeyVariesByQuery(t *testing.T) {
	versions := NewVersions(newTestStore(t))
	ctx := context.Background()

	k1 := versions.ListKey(ctx, "films:list", "u-1", "page=1&status=published")
	k2 := versions.ListKey(ctx, "films:list", "u-1", "page=2&status=published")

	require.NotEqual(t, k1, k2)
}

func TestListKeyVariesByActor(t *testing.T) {
	versions := NewVersions(newTestStore(t))
	ctx := context.Background()

	k1 := versions.ListKey(ctx, "films:list", "u-1", "page=1")
	k2 := versions.ListKey(ctx, "films:list", "u-2", "page=1")
	anon := versions.ListKey(ctx, "films:list", "", "page=1")

	require.NotEqual(t, k1, k2)
	require.NotEqual(t, k1, anon)
	require.Contains(t, anon, ":anon:")
}

func TestListKeyEmbedsVersion(t *testing.T) {
	versions := NewVersions(newTestStore(t))
	ctx := context.Background()

	before := versions.ListKey(ctx, "films:list", "", "page=1")
	require.Contains(t, before, ":v1:")

	versions.Bump(ctx, "films:list")

	after := versions.ListKey(ctx, "films:list", "", "page=1")
	require.Contains(t, after, ":v2:")
	require.NotEqual(t, before, after)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store unavailable")
}

func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("store unavailable")
}

func (brokenStore) Increment(context.Context, string) (int64, error) {
	return 0, errors.New("store unavailable")
}

func (brokenStore) Delete(context.Context, ...string) error {
	return errors.New("store unavailable")
}

func TestVersionsFailOpen(t *testing.T) {
	versions := NewVersions(brokenStore{})
	ctx := context.Background()

	require.EqualValues(t, 1, versions.Version(ctx, "films:list"))

	// Neither bumps nor key builds may panic or error out.
	versions.Bump(ctx, "films:list")
	key := versions.ListKey(ctx, "films:list", "u-1", "page=1")
	require.True(t, strings.HasPrefix(key, "films:list:v1:u"))
}

func TestListCacheRoundTrip(t *testing.T) {
	lists := NewListCache(newTestStore(t))
	ctx := context.Background()

	key, _, hit := lists.Fetch(ctx, "films:list", "u-1", "page=1")
	require.False(t, hit)
	require.NotEmpty(t, key)

	lists.Save(ctx, key, []byte(`{"success":true}`))

	_, payload, hit := lists.Fetch(ctx, "films:list", "u-1", "page=1")
	require.True(t, hit)
	require.JSONEq(t, `{"success":true}`, string(payload))
}

func TestListCacheInvalidateOrphansEntries(t *testing.T) {
	lists := NewListCache(newTestStore(t))
	ctx := context.Background()

	key, _, _ := lists.Fetch(ctx, "films:list", "", "page=1")
	lists.Save(ctx, key, []byte(`{"success":true}`))

	lists.Invalidate(ctx, "films:list")

	// The old entry still exists in the store but is unreachable because the
	// freshly built key embeds the new version.
	_, _, hit := lists.Fetch(ctx, "films:list", "", "page=1")
	require.False(t, hit)
}

func TestListCacheFailOpen(t *testing.T) {
	lists := NewListCache(brokenStore{})
	ctx := context.Background()

	key, _, hit := lists.Fetch(ctx, "films:list", "", "page=1")
	require.False(t, hit)

	lists.Save(ctx, key, []byte("ignored"))
	lists.Invalidate(ctx, "films:list")
}
