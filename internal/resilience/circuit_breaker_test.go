package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_StateClosed(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	if cb.GetState() != StateClosed {
		t.Errorf("Expected initial state to be Closed, got %s", cb.GetState())
	}

	if !cb.Allows() {
		t.Error("Expected to allow request in Closed state")
	}
}

func TestCircuitBreaker_OpenAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	cb.RecordResult(false)
	cb.RecordResult(false)
	if cb.GetState() != StateClosed {
		t.Error("Expected state to still be Closed after 2 failures")
	}

	cb.RecordResult(false)
	if cb.GetState() != StateOpen {
		t.Error("Expected state to be Open after 3 failures")
	}

	if cb.Allows() {
		t.Error("Expected to not allow request in Open state")
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, 1*time.Second)

	cb.RecordResult(false)
	cb.RecordResult(true)
	cb.RecordResult(false)

	if cb.GetState() != StateClosed {
		t.Errorf("Expected Closed after non-consecutive failures, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_HalfOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 50*time.Millisecond)

	cb.RecordResult(false)
	cb.RecordResult(false)
	cb.RecordResult(false)

	if cb.GetState() != StateOpen {
		t.Fatal("Expected circuit to be Open")
	}

	time.Sleep(80 * time.Millisecond)

	if !cb.allowRequest() {
		t.Error("Expected to allow request after timeout (HalfOpen)")
	}

	if cb.GetState() != StateHalfOpen {
		t.Errorf("Expected state to be HalfOpen, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_CloseAfterSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 50*time.Millisecond)

	cb.RecordResult(false)
	cb.RecordResult(false)
	cb.RecordResult(false)

	time.Sleep(80 * time.Millisecond)

	for i := 0; i < 3; i++ {
		if err := cb.Call(func() error { return nil }); err != nil {
			t.Fatalf("Expected call %d in HalfOpen to pass, got %v", i, err)
		}
	}

	if cb.GetState() != StateClosed {
		t.Errorf("Expected state to be Closed after successes in HalfOpen, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_OpenAfterFailureInHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 50*time.Millisecond)

	cb.RecordResult(false)
	cb.RecordResult(false)
	cb.RecordResult(false)

	time.Sleep(80 * time.Millisecond)

	err := cb.Call(func() error { return errors.New("still down") })
	if err == nil {
		t.Fatal("Expected error from failed call")
	}

	if cb.GetState() != StateOpen {
		t.Error("Expected state to be Open after failure in HalfOpen")
	}
}

func TestCircuitBreaker_CallRunsOnce(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	calls := 0
	err := cb.Call(func() error {
		calls++
		return errors.New("test error")
	})
	if err == nil {
		t.Error("Expected error from failed call")
	}
	if calls != 1 {
		t.Errorf("Expected exactly 1 invocation, got %d", calls)
	}
}

func TestCircuitBreaker_CallOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 1*time.Second)

	cb.RecordResult(false)

	called := false
	err := cb.Call(func() error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("Expected guarded function not to run while open")
	}
}

func TestCircuitBreaker_Disabled(t *testing.T) {
	cb := NewCircuitBreaker("test", 0, 1*time.Second)

	for i := 0; i < 10; i++ {
		cb.RecordResult(false)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("Expected disabled breaker to stay Closed, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_Listener(t *testing.T) {
	cb := NewCircuitBreaker("web_search", 1, 1*time.Second)

	var gotName string
	var gotState CircuitState
	cb.OnResult(func(name string, state CircuitState, success bool) {
		gotName = name
		gotState = state
	})

	cb.RecordResult(false)

	if gotName != "web_search" {
		t.Errorf("Expected listener name 'web_search', got '%s'", gotName)
	}
	if gotState != StateOpen {
		t.Errorf("Expected listener state Open, got %s", gotState)
	}
}

func TestCircuitBreaker_GetStats(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	cb.RecordResult(true)
	cb.RecordResult(true)
	cb.RecordResult(false)

	state, requestCount, failureCount, failureRate := cb.GetStats()

	if state != StateClosed {
		t.Errorf("Expected state Closed, got %s", state)
	}
	if requestCount != 3 {
		t.Errorf("Expected 3 requests, got %d", requestCount)
	}
	if failureCount != 1 {
		t.Errorf("Expected 1 failure, got %d", failureCount)
	}
	if failureRate < 33.0 || failureRate > 34.0 {
		t.Errorf("Expected failure rate around 33.33%%, got %.2f%%", failureRate)
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	cb.RecordResult(false)
	cb.RecordResult(false)
	cb.RecordResult(false)

	if cb.GetState() != StateOpen {
		t.Fatal("Expected circuit to be Open")
	}

	cb.Reset()

	if cb.GetState() != StateClosed {
		t.Error("Expected state to be Closed after reset")
	}

	state, requestCount, failureCount, _ := cb.GetStats()
	if state != StateClosed || requestCount != 0 || failureCount != 0 {
		t.Error("Expected stats to be reset")
	}
}

func TestCircuitBreaker_CallContextIgnoresCallerCancellation(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 1*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	err := cb.CallContext(ctx, func() error {
		cancel()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("Expected Closed after caller cancellation, got %s", cb.GetState())
	}
	if _, requests, _, _ := cb.GetStats(); requests != 0 {
		t.Errorf("Expected cancelled request not to be recorded, got %d", requests)
	}

	called := false
	err = cb.CallContext(ctx, func() error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled for a finished context, got %v", err)
	}
	if called {
		t.Error("Expected guarded function not to run for a finished context")
	}
}

func TestCircuitBreaker_CallContextRecordsBackendFailure(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 1*time.Second)

	err := cb.CallContext(context.Background(), func() error { return errors.New("connection refused") })
	if err == nil {
		t.Fatal("Expected error from failed call")
	}
	if cb.GetState() != StateOpen {
		t.Errorf("Expected Open after backend failure, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_CallContextReleasesHalfOpenSlot(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 20*time.Millisecond)
	cb.RecordResult(false)
	time.Sleep(40 * time.Millisecond)

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		_ = cb.CallContext(ctx, func() error {
			cancel()
			return ctx.Err()
		})
	}

	if !cb.Allows() {
		t.Error("Expected cancelled trial requests to hand back their half-open slots")
	}
}
