package ga

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/api/option"

	"github.com/X-Plane/dashboard/internal/cache"
)

type fakeReporting struct {
	t        *testing.T
	profiles string
	rows     [][]string
	queries  atomic.Int32
	lastURL  atomic.Value
}

func (f *fakeReporting) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/management/accounts/12381236/webproperties/UA-12381236-12/profiles"):
		_, _ = w.Write([]byte(f.profiles))
	case strings.HasSuffix(r.URL.Path, "/data/ga"):
		f.queries.Add(1)
		f.lastURL.Store(r.URL.Query())
		_ = json.NewEncoder(w).Encode(map[string]any{"rows": f.rows})
	default:
		f.t.Errorf("unexpected request %s", r.URL.Path)
		http.NotFound(w, r)
	}
}

func newTestService(t *testing.T, fake *fakeReporting) *Service {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := NewService(context.Background(), ServiceConfig{
		Property: Desktop,
		Cache:    cache.NewMemory(16, time.Hour),
		Logger:   zaptest.NewLogger(t),
		ClientOptions: []option.ClientOption{
			option.WithEndpoint(srv.URL + "/"),
			option.WithoutAuthentication(),
			option.WithHTTPClient(srv.Client()),
		},
	})
	require.NoError(t, err)
	return svc
}

func TestServiceQuery(t *testing.T) {
	fake := &fakeReporting{
		t:        t,
		profiles: `{"items":[{"id":"42"},{"id":"43"}]}`,
		rows:     [][]string{{"Mac OS X 10.14", "120"}, {"Windows 10", "80"}},
	}
	svc := newTestService(t, fake)

	q := Query{Version: V11, Metric: Users, Dimensions: []CustomDimension{Os}, Filters: PaidOnly.Filter()}
	rows, err := svc.Query(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []Row{{"Mac OS X 10.14", "120"}, {"Windows 10", "80"}}, rows)

	params := fake.lastURL.Load().(url.Values)
	assert.Equal(t, []string{"ga:42"}, params["ids"])
	assert.Equal(t, []string{"2016-11-24"}, params["start-date"])
	assert.Equal(t, []string{"today"}, params["end-date"])
	assert.Equal(t, []string{"ga:users"}, params["metrics"])
	assert.Equal(t, []string{"ga:dimension16"}, params["dimensions"])
	assert.Equal(t, []string{"ga:appVersion=@X-Plane 11;ga:dimension8!@Demo"}, params["filters"])
	assert.Equal(t, []string{"-ga:users"}, params["sort"])
	assert.Equal(t, []string{"HIGHER_PRECISION"}, params["samplingLevel"])

	// Second call is served from the cache.
	_, err = svc.Query(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.queries.Load())
}

func TestServiceQueryEmpty(t *testing.T) {
	fake := &fakeReporting{t: t, profiles: `{"items":[{"id":"42"}]}`}
	svc := newTestService(t, fake)

	rows, err := svc.Events(context.Background(), V11, []CustomDimension{Region}, "", "2019-04-01")
	require.NoError(t, err)
	assert.Empty(t, rows)

	params := fake.lastURL.Load().(url.Values)
	assert.Equal(t, []string{"2019-04-01"}, params["start-date"])
}

func TestServiceStrictRetention(t *testing.T) {
	fake := &fakeReporting{t: t, profiles: `{"items":[{"id":"42"}]}`, rows: [][]string{{"1"}}}
	svc := newTestService(t, fake)
	svc.now = func() time.Time { return time.Date(2019, time.June, 15, 0, 0, 0, 0, time.UTC) }

	rows, err := svc.Query(context.Background(), Query{Version: V11, Metric: Users, Strict: true})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, int32(0), fake.queries.Load())

	// Other metrics are answered regardless of retention.
	rows, err = svc.Query(context.Background(), Query{Version: V11, Metric: Sessions, Strict: true})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestNewServiceWithoutProfile(t *testing.T) {
	fake := &fakeReporting{t: t, profiles: `{"items":[]}`}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	_, err := NewService(context.Background(), ServiceConfig{
		ClientOptions: []option.ClientOption{
			option.WithEndpoint(srv.URL + "/"),
			option.WithoutAuthentication(),
		},
	})
	assert.ErrorIs(t, err, ErrNoProfile)
}

func TestNewServiceWithoutCredentials(t *testing.T) {
	_, err := NewService(context.Background(), ServiceConfig{})
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestCredentialsOption(t *testing.T) {
	legacy := `{"_class": "OAuth2Credentials", "client_id": "id.apps.googleusercontent.com",
		"client_secret": "shh", "refresh_token": "1/abc", "access_token": "ya29.old",
		"token_uri": "https://oauth2.googleapis.com/token"}`
	opt, err := credentialsOption(context.Background(), legacy)
	require.NoError(t, err)
	assert.NotNil(t, opt)

	_, err = credentialsOption(context.Background(), `{"hello": "world"}`)
	assert.Error(t, err)

	_, err = credentialsOption(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNoCredentials)
}
