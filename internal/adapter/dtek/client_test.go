package dtek

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shutdownsPage = `<html><head>
<meta charset="utf-8">
<meta name="csrf-token" content="tok-123">
</head><body></body></html>`

const statusDocument = `{
  "data": {"12": {"sub_type": "", "start_date": "", "end_date": "", "type": "", "sub_type_reason": ["GPV3.1"]}},
  "preset": {"time_zone": {"1": ["00-01", "00:00", "01:00"]}, "time_type": {"no": "Світла немає"}},
  "fact": {"data": {"1762639200": {"GPV3.1": {"1": "no"}}}, "today": 1762639200},
  "updateTimestamp": "14:05 09.11.2025"
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSite struct {
	*httptest.Server
	posts atomic.Int32
}

func newFakeSite(t *testing.T, check func(r *http.Request)) *fakeSite {
	t.Helper()
	site := &fakeSite{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ua/shutdowns", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/"})
		_, _ = io.WriteString(w, shutdownsPage)
	})
	mux.HandleFunc("POST /ua/ajax", func(w http.ResponseWriter, r *http.Request) {
		site.posts.Add(1)
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, statusDocument)
	})
	site.Server = httptest.NewServer(mux)
	t.Cleanup(site.Close)
	return site
}

func TestFetch(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Kyiv")
	require.NoError(t, err)
	clock := clockwork.NewFakeClockAt(time.Date(2025, time.November, 9, 14, 5, 33, 0, loc))

	site := newFakeSite(t, func(r *http.Request) {
		assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		assert.Equal(t, "tok-123", r.Header.Get("X-CSRF-Token"))
		cookie, err := r.Cookie("session")
		if assert.NoError(t, err) {
			assert.Equal(t, "s1", cookie.Value)
		}
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "getHomeNum", r.PostForm.Get("method"))
		assert.Equal(t, "city", r.PostForm.Get("data[0][name]"))
		assert.Equal(t, "с. Гатне", r.PostForm.Get("data[0][value]"))
		assert.Equal(t, "street", r.PostForm.Get("data[1][name]"))
		assert.Equal(t, "вул. Миру", r.PostForm.Get("data[1][value]"))
		assert.Equal(t, "updateFact", r.PostForm.Get("data[2][name]"))
		assert.Equal(t, "09.11.2025, 14:05:33", r.PostForm.Get("data[2][value]"))
	})

	c := NewClient(site.URL+"/", "с. Гатне", "вул. Миру", 5*time.Second, discardLogger(),
		WithClock(clock), WithLocation(loc))
	doc, err := c.Fetch(context.Background())
	require.NoError(t, err)

	st, ok := doc.Address("12")
	require.True(t, ok)
	assert.Equal(t, "GPV3.1", st.QueueGroup())
	assert.True(t, doc.HasSchedule())
	assert.Equal(t, "14:05 09.11.2025", doc.UpdateTimestamp)
	assert.Equal(t, int32(1), site.posts.Load())
}

func TestFetch_NoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html><head></head></html>")
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "c", "s", time.Second, discardLogger()).FetchRaw(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestFetch_AjaxError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ua/shutdowns", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, shutdownsPage)
	})
	mux.HandleFunc("POST /ua/ajax", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := NewClient(srv.URL, "c", "s", time.Second, discardLogger()).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestFetch_MalformedDocument(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ua/shutdowns", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, shutdownsPage)
	})
	mux.HandleFunc("POST /ua/ajax", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html>captcha</html>")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := NewClient(srv.URL, "c", "s", time.Second, discardLogger()).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse outage document")
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{"name first", `<meta name="csrf-token" content="abc">`, "abc"},
		{"content first", `<meta content='xyz' name='csrf-token' />`, "xyz"},
		{"upper case", `<META NAME="csrf-token" CONTENT="q">`, "q"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractToken([]byte(tt.page))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := extractToken([]byte(`<meta name="description" content="x">`))
	assert.ErrorIs(t, err, ErrNoToken)
}
