package match

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vijay-prabhu/talentmatch/internal/cache"
	"github.com/vijay-prabhu/talentmatch/internal/database"
	"github.com/vijay-prabhu/talentmatch/internal/logging"
	"github.com/vijay-prabhu/talentmatch/internal/metrics"
)

type fakeSource struct {
	candidates []database.Candidate
	err        error
	calls      int
	last       database.Criteria
}

func (f *fakeSource) Candidates(_ context.Context, crit database.Criteria) ([]database.Candidate, error) {
	f.calls++
	f.last = crit
	return f.candidates, f.err
}

type memCache struct {
	entries map[string][]byte
	getErr  error
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte) error {
	m.entries[key] = value
	return nil
}

func (m *memCache) Invalidate(context.Context) error {
	clear(m.entries)
	return nil
}

func (m *memCache) Close() error { return nil }

var _ cache.Cache = (*memCache)(nil)

func newTestService(src CandidateSource, opts ...Option) *Service {
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	return NewService(src, NewRanker(DefaultWeights(), nil), opts...)
}

func TestService_Match(t *testing.T) {
	amy := candidate("1", "Amy Zhou", 1)
	amy.SkillIDs = []int64{10}
	ben := candidate("2", "Ben Lee", 1)
	ben.SkillIDs = []int64{10, 20}

	src := &fakeSource{candidates: []database.Candidate{amy, ben}}
	svc := newTestService(src)

	results, err := svc.Match(context.Background(), Query{
		Roles:         []int64{1},
		DesiredSkills: []int64{10, 20},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Ben Lee", results[0].FullName)
	assert.Equal(t, 80, results[0].Score)
	assert.Equal(t, "Amy Zhou", results[1].FullName)
	assert.Equal(t, 55, results[1].Score)
}

func TestService_PushesDownCriteria(t *testing.T) {
	src := &fakeSource{}
	svc := newTestService(src)

	_, err := svc.Match(context.Background(), Query{
		Roles:               []int64{2, 1, 2},
		RequiredSpecialties: []string{"Data"},
		JoinedAfter:         "1/31/2021",
		ExcludeUnknown:      true,
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, src.last.RoleIDs)
	assert.Equal(t, []string{"Data"}, src.last.RequiredSpecialties)
	assert.True(t, src.last.ExcludeUnknown)
	require.NotNil(t, src.last.JoinedFrom)
	assert.Equal(t, "2021-02-01", src.last.JoinedFrom.Format("2006-01-02"))
}

func TestService_EmptyRoleSkipsRetrieval(t *testing.T) {
	src := &fakeSource{candidates: []database.Candidate{candidate("1", "Amy Zhou", 1)}}
	svc := newTestService(src)

	results, err := svc.Match(context.Background(), Query{DesiredSkills: []int64{1}})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Zero(t, src.calls)
}

func TestService_InvalidDate(t *testing.T) {
	src := &fakeSource{}
	m := metrics.New()
	svc := newTestService(src, WithMetrics(m))

	_, err := svc.Match(context.Background(), Query{Roles: []int64{1}, JoinedAfter: "13/40/2020"})
	assert.ErrorIs(t, err, ErrInvalidDateFormat)
	assert.Zero(t, src.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MatchRequests.WithLabelValues(metrics.ResultInvalidDate)))
}

func TestService_SourceError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := newTestService(&fakeSource{err: boom})

	_, err := svc.Match(context.Background(), Query{Roles: []int64{1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to retrieve candidates")
}

func TestService_CachesResults(t *testing.T) {
	src := &fakeSource{candidates: []database.Candidate{candidate("1", "Amy Zhou", 1)}}
	c := newMemCache()
	m := metrics.New()
	svc := newTestService(src, WithCache(c), WithMetrics(m))
	ctx := context.Background()

	first, err := svc.Match(ctx, Query{Roles: []int64{1}})
	require.NoError(t, err)

	// equivalent query with a different set order hits the same entry
	second, err := svc.Match(ctx, Query{Roles: []int64{1, 1}})
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
	assert.Len(t, c.entries, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].UserID, second[0].UserID)
	assert.Equal(t, first[0].Score, second[0].Score)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues(metrics.CacheHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues(metrics.CacheMiss)))

	require.NoError(t, c.Invalidate(ctx))
	_, err = svc.Match(ctx, Query{Roles: []int64{1}})
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestService_CacheErrorFallsThrough(t *testing.T) {
	src := &fakeSource{candidates: []database.Candidate{candidate("1", "Amy Zhou", 1)}}
	c := newMemCache()
	c.getErr = errors.New("redis down")
	m := metrics.New()
	svc := newTestService(src, WithCache(c), WithMetrics(m))

	results, err := svc.Match(context.Background(), Query{Roles: []int64{1}})
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues(metrics.CacheError)))
}

func TestService_RankerRefiltersSource(t *testing.T) {
	// a source that ignores the criteria must not leak candidates through
	wrongRole := candidate("1", "Amy Zhou", 9)
	unknown := candidate("2", "Ben Lee", 1)
	unknown.Available = nil
	ok := candidate("3", "Cara Diaz", 1)

	svc := newTestService(&fakeSource{candidates: []database.Candidate{wrongRole, unknown, ok}})

	results, err := svc.Match(context.Background(), Query{Roles: []int64{1}, ExcludeUnknown: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "3", results[0].UserID)
}
