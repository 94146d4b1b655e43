package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kv-shepherd.io/shepherd/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

func TestNewPools(t *testing.T) {
	ctx := context.Background()
	pools, err := NewPools(ctx, DefaultPoolConfig())
	if err != nil {
		t.Fatalf("NewPools() error = %v", err)
	}
	defer pools.Shutdown()

	if pools.General == nil {
		t.Error("General pool is nil")
	}
}

func TestPool_Submit(t *testing.T) {
	ctx := context.Background()
	pools, err := NewPools(ctx, PoolConfig{GeneralPoolSize: 10})
	if err != nil {
		t.Fatalf("NewPools() error = %v", err)
	}
	defer pools.Shutdown()

	var executed atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)

	err = pools.General.Submit(ctx, func(ctx context.Context) {
		executed.Store(true)
		wg.Done()
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	wg.Wait()
	if !executed.Load() {
		t.Error("Task was not executed")
	}
}

func TestPool_Submit_CancelledContext(t *testing.T) {
	ctx := context.Background()
	pools, err := NewPools(ctx, DefaultPoolConfig())
	if err != nil {
		t.Fatalf("NewPools() error = %v", err)
	}
	defer pools.Shutdown()

	cancelledCtx, cancel := context.WithCancel(ctx)
	cancel()

	err = pools.General.Submit(cancelledCtx, func(ctx context.Context) {
		t.Error("Task should not execute with cancelled context")
	})
	if err != context.Canceled {
		t.Errorf("Submit() error = %v, want context.Canceled", err)
	}
}

func TestPools_SubmitDetached(t *testing.T) {
	ctx := context.Background()
	pools, err := NewPools(ctx, DefaultPoolConfig())
	if err != nil {
		t.Fatalf("NewPools() error = %v", err)
	}

	var executed atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)

	err = pools.SubmitDetached(func(ctx context.Context) {
		executed.Store(true)
		wg.Done()
	})
	if err != nil {
		t.Fatalf("SubmitDetached() error = %v", err)
	}

	wg.Wait()
	pools.Shutdown()

	if !executed.Load() {
		t.Error("SubmitDetached task was not executed")
	}
}

func TestPools_Metrics(t *testing.T) {
	ctx := context.Background()
	pools, err := NewPools(ctx, PoolConfig{GeneralPoolSize: 10})
	if err != nil {
		t.Fatalf("NewPools() error = %v", err)
	}
	defer pools.Shutdown()

	metrics := pools.Metrics()
	if metrics == nil {
		t.Fatal("Metrics() returned nil")
	}

	general, ok := metrics["general"].(map[string]int)
	if !ok {
		t.Fatal("general metrics not found or wrong type")
	}
	if general["cap"] != 10 {
		t.Errorf("general cap = %d, want 10", general["cap"])
	}
}

func TestPool_Submit_ContextCancelledWhileQueued(t *testing.T) {
	ctx := context.Background()
	pools, err := NewPools(ctx, PoolConfig{GeneralPoolSize: 1})
	if err != nil {
		t.Fatalf("NewPools() error = %v", err)
	}
	defer pools.Shutdown()

	blockCh := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	_ = pools.General.Submit(ctx, func(ctx context.Context) {
		wg.Done()
		<-blockCh
	})
	wg.Wait()

	cancelCtx, cancel := context.WithCancel(ctx)

	var taskExecuted atomic.Bool
	var submitWg sync.WaitGroup
	submitWg.Add(1)
	go func() {
		defer submitWg.Done()
		_ = pools.General.Submit(cancelCtx, func(ctx context.Context) {
			taskExecuted.Store(true)
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	close(blockCh)
	submitWg.Wait()
}
