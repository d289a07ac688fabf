package ddns

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunHitsServerImmediatelyAndOnEachTick(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	u := New(server.URL, 20*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 65*time.Millisecond)
	defer cancel()
	u.Run(ctx)

	require.GreaterOrEqual(t, int(atomic.LoadInt32(&hits)), 3)
}

func TestUpdateToleratesServerErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	u := New(server.URL, time.Hour, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NotPanics(t, func() { u.update(ctx) })
}

func TestUpdateToleratesUnreachableHost(t *testing.T) {
	u := New("http://127.0.0.1:1", time.Hour, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NotPanics(t, func() { u.update(ctx) })
}
