// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewSupervisorTree_Defaults(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}
	if tree.config != DefaultTreeConfig() {
		t.Errorf("config = %+v, want defaults %+v", tree.config, DefaultTreeConfig())
	}

	custom := TreeConfig{FailureThreshold: 2, FailureBackoff: time.Second}
	tree, _ = NewSupervisorTree(quietLogger(), custom)
	if tree.config.FailureThreshold != 2 || tree.config.FailureBackoff != time.Second {
		t.Errorf("explicit values were overridden: %+v", tree.config)
	}
	if tree.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want default 10s", tree.config.ShutdownTimeout)
	}
}

func TestSupervisorTree_StartsEveryLayer(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureBackoff:  50 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	data := newMockService("nats-server", 0)
	messaging := newMockService("event-publisher", 0)
	api := newMockService("http-server", 0)
	tree.AddDataService(data)
	tree.AddMessagingService(messaging)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if data.startCount.Load() > 0 && messaging.startCount.Load() > 0 && api.startCount.Load() > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not shut down in time")
	}

	for _, svc := range []*mockService{data, messaging, api} {
		if svc.startCount.Load() != 1 {
			t.Errorf("%s started %d times, want 1", svc.name, svc.startCount.Load())
		}
		if svc.stopCount.Load() != 1 {
			t.Errorf("%s stopped %d times, want 1", svc.name, svc.stopCount.Load())
		}
	}

	unstopped, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport: %v", err)
	}
	if len(unstopped) != 0 {
		t.Errorf("unstopped services: %v", unstopped)
	}
}

func TestSupervisorTree_RestartsFailingService(t *testing.T) {
	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	flaky := newMockService("flaky-publisher", 2)
	stable := newMockService("http-server", 0)
	tree.AddMessagingService(flaky)
	tree.AddAPIService(stable)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	errCh := tree.ServeBackground(ctx)
	<-errCh

	if n := flaky.startCount.Load(); n < 3 {
		t.Errorf("flaky service started %d times, want at least 3", n)
	}
	if n := stable.startCount.Load(); n != 1 {
		t.Errorf("stable service in another layer started %d times, want 1", n)
	}
}
