package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct{ err error }

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(
		PingProbe("database", &mockPinger{}),
		PingProbe("vector_store", &mockPinger{}),
		CheckerProbe("embedding", &mockChecker{}),
	)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{"database", "vector_store", "embedding"} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_PartialFailureDegrades(t *testing.T) {
	svc := New(
		PingProbe("database", &mockPinger{}),
		CheckerProbe("embedding", &mockChecker{err: errors.New("timeout")}),
	)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["embedding"] != CheckError {
		t.Errorf("expected embedding %q, got %q", CheckError, r.Checks["embedding"])
	}
}

func TestCheck_AllFailed(t *testing.T) {
	svc := New(
		PingProbe("database", &mockPinger{err: errors.New("locked")}),
		CheckerProbe("embedding", &mockChecker{err: errors.New("401")}),
	)
	if r := svc.Check(context.Background()); r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

func TestCheck_NoProbes(t *testing.T) {
	r := New().Check(context.Background())
	if r.Status != Healthy || len(r.Checks) != 0 {
		t.Errorf("unexpected report: %+v", r)
	}
}

func TestCheck_ProbeTimeout(t *testing.T) {
	svc := New(Probe{Name: "slow", Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	svc.timeout = 10 * time.Millisecond

	if r := svc.Check(context.Background()); r.Checks["slow"] != CheckError {
		t.Errorf("expected timed-out probe to fail, got %+v", r)
	}
}
