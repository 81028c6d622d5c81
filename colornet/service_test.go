package colornet

import (
	"context"
	"errors"
	"testing"
	"time"

	"colorizer/colorize"

	"go.uber.org/zap"
)

func TestService_NotReadyBeforeLoad(t *testing.T) {
	svc := NewService(DefaultConfig(t.TempDir()), zap.NewNop())

	if svc.Ready() {
		t.Error("Ready() = true before Load")
	}
	if !errors.Is(svc.Err(), ErrNotReady) {
		t.Errorf("Err() = %v, want ErrNotReady", svc.Err())
	}
	if _, _, err := svc.Infer(inputPlane()); !errors.Is(err, ErrNotReady) {
		t.Errorf("Infer() error = %v, want ErrNotReady", err)
	}
}

func TestService_LoadMissingFiles(t *testing.T) {
	loader := &fakeLoader{}
	svc := NewService(DefaultConfig(t.TempDir()), zap.NewNop(), WithLoader(loader.load))

	err := svc.Load(context.Background())
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("Load() error = %v, want ErrModelNotFound", err)
	}
	if svc.Ready() {
		t.Error("Ready() = true with missing files")
	}
	if !errors.Is(svc.Err(), ErrModelNotFound) {
		t.Errorf("Err() = %v, want ErrModelNotFound", svc.Err())
	}
	if loader.count() != 0 {
		t.Errorf("loader called %d times with missing files", loader.count())
	}
}

func TestService_LoadAndInfer(t *testing.T) {
	loader := &fakeLoader{}
	svc := NewService(DefaultConfig(writeModelDir(t)), zap.NewNop(), WithLoader(loader.load))
	defer svc.Close()

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !svc.Ready() || svc.Err() != nil {
		t.Fatalf("Ready() = %v, Err() = %v after Load", svc.Ready(), svc.Err())
	}

	var _ colorize.Inferencer = svc
	a, b, err := svc.Infer(inputPlane())
	if err != nil {
		t.Fatalf("Infer() error = %v", err)
	}
	if a.Width != colorize.NetInputSize || b.Data[0] != -12.5 {
		t.Errorf("Infer() = %dx%d b0=%v", a.Width, a.Height, b.Data[0])
	}
}

func TestService_ChecksumMismatch(t *testing.T) {
	cfg := DefaultConfig(writeModelDir(t))
	cfg.Checksums = Checksums{WeightsFile: "deadbeef"}
	loader := &fakeLoader{}
	svc := NewService(cfg, zap.NewNop(), WithLoader(loader.load))

	if err := svc.Load(context.Background()); !errors.Is(err, ErrModelCorrupted) {
		t.Fatalf("Load() error = %v, want ErrModelCorrupted", err)
	}
	if svc.Ready() {
		t.Error("Ready() = true after checksum mismatch")
	}
}

func TestService_InferTimeout(t *testing.T) {
	cfg := DefaultConfig(writeModelDir(t))
	cfg.Timeout = 10 * time.Millisecond
	loader := &fakeLoader{}
	svc := NewService(cfg, zap.NewNop(), WithLoader(loader.load))
	defer svc.Close()

	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	svc.mu.RLock()
	pool := svc.pool
	svc.mu.RUnlock()
	held, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Release(held)

	if _, _, err := svc.Infer(inputPlane()); !errors.Is(err, ErrAcquireTimeout) {
		t.Errorf("Infer() error = %v, want ErrAcquireTimeout", err)
	}
}

func TestService_Close(t *testing.T) {
	loader := &fakeLoader{}
	svc := NewService(DefaultConfig(writeModelDir(t)), zap.NewNop(), WithLoader(loader.load))
	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if svc.Ready() {
		t.Error("Ready() = true after Close")
	}
	if !loader.nets[0].closed.Load() {
		t.Error("network not closed")
	}
}

func TestService_DefaultsApplied(t *testing.T) {
	svc := NewService(Config{ModelDir: "/models"}, nil)
	cfg := svc.Config()
	if cfg.PoolSize != DefaultPoolSize {
		t.Errorf("PoolSize = %d, want %d", cfg.PoolSize, DefaultPoolSize)
	}
	if cfg.Timeout != DefaultTimeoutSeconds*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
}
