package replicate

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dandegeest/aMiRROrMySubconscious/internal/config"
	"github.com/dandegeest/aMiRROrMySubconscious/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const testVersion = "de1b628b969c5c1c31c9cad1916eb74a4dfbaed6e1612f61a0e6af45718cecd9"

func newTestClient(t *testing.T, srv *httptest.Server, retries uint64) *Client {
	t.Helper()
	return NewClient(zap.NewNop(), srv.Client(), config.ReplicateConfig{
		APIToken:       "r8_secret",
		BaseURL:        srv.URL + "/v1/",
		MaxRetries:     retries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	})
}

func TestSend_RequestShape(t *testing.T) {
	var (
		gotPath, gotAuth, gotPrefer, gotType string
		gotBody                              []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotPrefer = r.Header.Get("Prefer")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"p1","status":"succeeded","output":["https://out/0.png","https://out/1.png"]}`)
	}))
	defer srv.Close()

	out := newTestClient(t, srv, 3).Send(context.Background(), testVersion, models.Params{
		"prompt": "a cat",
		"width":  720,
	})

	assert.Equal(t, "/v1/predictions", gotPath)
	assert.Equal(t, "Bearer r8_secret", gotAuth)
	assert.Equal(t, "wait", gotPrefer)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, testVersion, gjson.GetBytes(gotBody, "version").String())
	assert.Equal(t, "a cat", gjson.GetBytes(gotBody, "input.prompt").String())
	assert.Equal(t, int64(720), gjson.GetBytes(gotBody, "input.width").Int())

	assert.Equal(t, models.OutcomeSucceeded, out.Kind)
	assert.Equal(t, "https://out/0.png", out.Output)
	assert.Equal(t, 1, out.Attempts)
}

func TestSend_RetriesThrottlingThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, `{"detail":"slow down"}`)
			return
		}
		io.WriteString(w, `{"id":"p1","status":"succeeded","output":["https://out/0.png"]}`)
	}))
	defer srv.Close()

	out := newTestClient(t, srv, 3).Send(context.Background(), testVersion, models.Params{})

	assert.Equal(t, models.OutcomeSucceeded, out.Kind)
	assert.Equal(t, "https://out/0.png", out.Output)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSend_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "bad gateway")
	}))
	defer srv.Close()

	out := newTestClient(t, srv, 2).Send(context.Background(), testVersion, models.Params{})

	assert.Equal(t, models.OutcomeFailed, out.Kind)
	assert.Contains(t, out.Detail, "502")
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSend_ValidationRejectedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"detail":"- input.width: Must be less than or equal to 1440"}`)
	}))
	defer srv.Close()

	out := newTestClient(t, srv, 3).Send(context.Background(), testVersion, models.Params{})

	assert.Equal(t, models.OutcomeRejected, out.Kind)
	assert.Equal(t, "- input.width: Must be less than or equal to 1440", out.Detail)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSend_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"Invalid token."}`)
	}))
	defer srv.Close()

	out := newTestClient(t, srv, 3).Send(context.Background(), testVersion, models.Params{})

	assert.Equal(t, models.OutcomeFailed, out.Kind)
	assert.Contains(t, out.Detail, "401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSend_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := newTestClient(t, srv, 1)
	srv.Close()

	out := c.Send(context.Background(), testVersion, models.Params{})

	assert.Equal(t, models.OutcomeFailed, out.Kind)
	assert.Contains(t, out.Detail, "prediction request failed")
	assert.Equal(t, 2, out.Attempts)
}

func TestSend_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := newTestClient(t, srv, 5).Send(ctx, testVersion, models.Params{})
	assert.Equal(t, models.OutcomeFailed, out.Kind)
	assert.Equal(t, 1, out.Attempts)
}

func TestMapResponse(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		want models.Outcome
	}{
		{
			name: "list output takes first element",
			code: http.StatusCreated,
			body: `{"id":"p1","status":"processing","output":["a","b"]}`,
			want: models.Outcome{Kind: models.OutcomeSucceeded, Output: "a"},
		},
		{
			name: "succeeded with scalar output",
			code: http.StatusOK,
			body: `{"id":"p1","status":"succeeded","output":"https://out/single.png"}`,
			want: models.Outcome{Kind: models.OutcomeSucceeded, Output: "https://out/single.png"},
		},
		{
			name: "still processing",
			code: http.StatusCreated,
			body: `{"id":"gm3qorzdhg","status":"starting","output":null}`,
			want: models.Outcome{Kind: models.OutcomePending, ID: "gm3qorzdhg", Status: "starting"},
		},
		{
			name: "empty list while processing is pending",
			code: http.StatusCreated,
			body: `{"id":"p2","status":"processing","output":[]}`,
			want: models.Outcome{Kind: models.OutcomePending, ID: "p2", Status: "processing"},
		},
		{
			name: "validation error",
			code: http.StatusUnprocessableEntity,
			body: `{"detail":"bad input"}`,
			want: models.Outcome{Kind: models.OutcomeRejected, Detail: "bad input"},
		},
		{
			name: "validation error without detail",
			code: http.StatusUnprocessableEntity,
			body: `{}`,
			want: models.Outcome{Kind: models.OutcomeRejected, Detail: "Unknown error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapResponse(tt.code, []byte(tt.body))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapResponse_Failures(t *testing.T) {
	out := mapResponse(http.StatusInternalServerError, []byte("boom"))
	require.Equal(t, models.OutcomeFailed, out.Kind)
	assert.Equal(t, "upstream returned 500 Internal Server Error: boom", out.Detail)

	out = mapResponse(http.StatusOK, []byte(`{"id":"p1","status":"succeeded","output":[]}`))
	require.Equal(t, models.OutcomeSucceeded, out.Kind)
	assert.Empty(t, out.Output)

	out = mapResponse(http.StatusOK, []byte("<html>"))
	require.Equal(t, models.OutcomeFailed, out.Kind)
	assert.Contains(t, out.Detail, "invalid prediction response")
}
