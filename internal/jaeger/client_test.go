package jaeger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(url string) *Client {
	return NewClientWithConfig(url, ClientConfig{
		Timeout:      5 * time.Second,
		RetryMax:     2,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newQueryServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/services", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Response[[]string]{Data: []string{"ml-observability-demo", "other"}, Total: 2})
	})
	mux.HandleFunc("/api/traces", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ml-observability-demo", r.URL.Query().Get("service"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, Response[[]Trace]{Data: []Trace{sampleTrace()}, Total: 1})
	})
	mux.HandleFunc("/api/traces/abc", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Response[[]Trace]{Data: []Trace{sampleTrace()}})
	})
	mux.HandleFunc("/api/traces/nope", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, Response[any]{Errors: []ResponseError{{Code: 404, Msg: "trace not found"}}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientServices(t *testing.T) {
	srv := newQueryServer(t)

	services, err := testClient(srv.URL).Services(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ml-observability-demo", "other"}, services)
}

func TestClientTraces(t *testing.T) {
	srv := newQueryServer(t)

	traces, err := testClient(srv.URL).Traces(context.Background(), "ml-observability-demo", 5)
	require.NoError(t, err)
	require.Len(t, traces, 1)

	tr := traces[0]
	assert.Equal(t, "abc", tr.TraceID)
	assert.Len(t, tr.Spans, 4)
	assert.Equal(t, "ml-observability-demo", tr.Processes["p1"].ServiceName)

	rows, ok := tr.Find("data_loading")[0].Tag("data.rows")
	require.True(t, ok)
	assert.EqualValues(t, 500, rows.Value)
}

func TestClientTracesRequiresService(t *testing.T) {
	_, err := testClient("http://127.0.0.1:1").Traces(context.Background(), "", 5)
	assert.Error(t, err)
}

func TestClientTrace(t *testing.T) {
	srv := newQueryServer(t)
	client := testClient(srv.URL)

	tr, err := client.Trace(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tr.TraceID)

	_, err = client.Trace(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrTraceNotFound)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, Response[[]string]{Data: []string{"positron-demo"}})
	}))
	defer srv.Close()

	services, err := testClient(srv.URL).Services(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"positron-demo"}, services)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, Response[any]{Errors: []ResponseError{{Code: 400, Msg: "bad limit"}}})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Services(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	assert.Equal(t, "bad limit", statusErr.Msg)
}
