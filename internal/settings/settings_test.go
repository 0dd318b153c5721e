package settings

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	stored *SiteSettings
	loads  int
}

func (m *memoryRepo) Load(ctx context.Context) (*SiteSettings, error) {
	m.loads++
	return m.stored, nil
}

func (m *memoryRepo) Save(ctx context.Context, s SiteSettings) error {
	m.stored = &s
	return nil
}

func newSettingsFixture(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := &memoryRepo{}
	return NewService(repo, client, time.Hour), repo
}

func TestGetFallsBackToDefaults(t *testing.T) {
	svc, _ := newSettingsFixture(t)

	current, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "WallHub", current.SiteName)
	assert.NotEmpty(t, current.Colors["primary"])
}

func TestUpdateThenGetServedFromCache(t *testing.T) {
	svc, repo := newSettingsFixture(t)

	saved, err := svc.Update(context.Background(), SiteSettings{SiteName: "DarkWalls", Tagline: "only dark"})
	require.NoError(t, err)
	assert.False(t, saved.UpdatedAt.IsZero())

	current, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "DarkWalls", current.SiteName)
	assert.Equal(t, 0, repo.loads, "cache must answer reads after a write")
}

func TestGetCachesStoreRead(t *testing.T) {
	svc, repo := newSettingsFixture(t)
	repo.stored = &SiteSettings{SiteName: "Stored"}

	_, err := svc.Get(context.Background())
	require.NoError(t, err)
	_, err = svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.loads)
}
