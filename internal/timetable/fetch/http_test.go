package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/house-display/internal/timetable"
)

func TestHTTPFetcher_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "22836", r.URL.Query().Get("dep_code"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<p class="candidate_list_txt">16:28 ⇒ 16:45</p>`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher("test", srv.Client(), DefaultBreakerConfig())

	body, err := f.Fetch(context.Background(), srv.URL+"/ja/result?dep_code=22836")
	require.NoError(t, err)
	assert.Equal(t, `<p class="candidate_list_txt">16:28 ⇒ 16:45</p>`, body)
}

func TestHTTPFetcher_DecodesShiftJIS(t *testing.T) {
	// "16:28 発" in Shift_JIS.
	sjis := []byte{'1', '6', ':', '2', '8', ' ', 0x94, 0xad}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=Shift_JIS")
		_, _ = w.Write(sjis)
	}))
	defer srv.Close()

	f := NewHTTPFetcher("test", srv.Client(), DefaultBreakerConfig())

	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "16:28 発", body)
}

func TestHTTPFetcher_UTF8WithoutCharset(t *testing.T) {
	// Over 1KB of ASCII before the first multi-byte rune, no charset anywhere.
	page := strings.Repeat(" ", 1100) + `<p class="candidate_list_txt">16:28 ⇒ 16:45 都庁前</p>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	f := NewHTTPFetcher("test", srv.Client(), DefaultBreakerConfig())

	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, page, body)
	assert.Contains(t, body, "都庁前")
	assert.Contains(t, body, "⇒")
}

func TestHTTPFetcher_JSONUntouched(t *testing.T) {
	payload := `{"ResultSet":{"ResourceURI":"https://roote.ekispert.net/result?dep=都庁前"}}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	f := NewHTTPFetcher("test", srv.Client(), DefaultBreakerConfig())

	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, payload, body)
}

func TestHTTPFetcher_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewHTTPFetcher("test", srv.Client(), DefaultBreakerConfig())

	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, timetable.ErrFetchFailure)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPFetcher_NoRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewHTTPFetcher("test", srv.Client(), DefaultBreakerConfig())

	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, timetable.ErrFetchFailure)
	assert.Equal(t, 1, calls)
}

func TestHTTPFetcher_CircuitOpens(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := BreakerConfig{
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             time.Minute,
		ConsecutiveFailures: 2,
	}
	f := NewHTTPFetcher("test", srv.Client(), cfg)

	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.ErrorIs(t, err, timetable.ErrFetchFailure)
	}

	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, timetable.ErrFetchFailure)
	assert.Contains(t, err.Error(), "circuit open")
	assert.Equal(t, 2, calls)
}

func TestHTTPFetcher_CancellationKeepsCircuitClosed(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Query().Get("slow") != "" {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := BreakerConfig{
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             time.Minute,
		ConsecutiveFailures: 2,
	}
	f := NewHTTPFetcher("test", srv.Client(), cfg)

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		_, err := f.Fetch(ctx, srv.URL+"?slow=1")
		cancel()
		require.ErrorIs(t, err, timetable.ErrFetchFailure)
		require.NotContains(t, err.Error(), "circuit open")
	}

	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", body)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestHTTPFetcher_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	f := NewHTTPFetcher("test", &http.Client{Timeout: time.Second}, DefaultBreakerConfig())

	_, err := f.Fetch(context.Background(), addr)
	assert.ErrorIs(t, err, timetable.ErrFetchFailure)
}

func TestHTTPFetcher_BadURL(t *testing.T) {
	f := NewHTTPFetcher("test", http.DefaultClient, DefaultBreakerConfig())

	_, err := f.Fetch(context.Background(), "://nowhere")
	assert.ErrorIs(t, err, timetable.ErrMalformedURL)
}

func TestHTTPFetcher_NoClient(t *testing.T) {
	f := NewHTTPFetcher("test", nil, DefaultBreakerConfig())

	_, err := f.Fetch(context.Background(), "http://example.invalid")
	assert.ErrorIs(t, err, timetable.ErrFetchFailure)
}
