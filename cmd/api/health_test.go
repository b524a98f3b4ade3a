package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type flakyDB struct {
	down  atomic.Bool
	pings atomic.Int32
}

func (f *flakyDB) Ping(ctx context.Context) error {
	f.pings.Add(1)
	if f.down.Load() {
		return errors.New("database is locked")
	}
	return nil
}

func servingStatus(t *testing.T, hs *health.Server) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	return resp.Status
}

func TestWatchHealth(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hs := health.NewServer()
	db := &flakyDB{}

	done := make(chan struct{})
	go func() {
		watchHealth(ctx, hs, db, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return servingStatus(t, hs) == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 5*time.Millisecond)

	db.down.Store(true)
	assert.Eventually(t, func() bool {
		return servingStatus(t, hs) == healthpb.HealthCheckResponse_NOT_SERVING
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}

	pings := db.pings.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, pings, db.pings.Load(), "no pings after the watcher stopped")
}
