package lifecycle_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/registrum/registrum/pkg/lifecycle"
)

func TestStartupHooks(t *testing.T) {
	c := lifecycle.New()

	var count atomic.Int32
	c.OnStartup(func() { count.Add(1) })
	c.OnStartup(func() { count.Add(1) })

	if c.Ready() {
		t.Error("Ready() = true before WaitForStartup")
	}

	c.WaitForStartup()

	if count.Load() != 2 {
		t.Errorf("startup hooks ran %d times, want 2", count.Load())
	}
	if !c.Ready() {
		t.Error("Ready() = false after WaitForStartup")
	}
}

func TestShutdownHooks(t *testing.T) {
	c := lifecycle.New()

	var closed atomic.Bool
	c.OnShutdown(func() {
		<-c.Context().Done()
		closed.Store(true)
	})

	if err := c.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown error = %v", err)
	}
	if !closed.Load() {
		t.Error("shutdown hook did not run")
	}

	select {
	case <-c.Context().Done():
	default:
		t.Error("context not cancelled after Shutdown")
	}
}

func TestShutdownTimeout(t *testing.T) {
	c := lifecycle.New()

	release := make(chan struct{})
	c.OnShutdown(func() {
		<-release
	})

	err := c.Shutdown(20 * time.Millisecond)
	if err == nil {
		t.Error("Shutdown = nil, want timeout error")
	}
	close(release)
}
