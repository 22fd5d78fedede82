package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errRedisDown = errors.New("connection refused")

func failNTimes(t *testing.T, cb *CircuitBreaker, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_ = cb.Call(context.Background(), func() error { return errRedisDown })
	}
}

func TestCircuitBreakerOpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, time.Minute)

	failNTimes(t, cb, 2)
	if cb.GetState() != StateClosed {
		t.Fatalf("state = %v before reaching max failures, want closed", cb.GetState())
	}

	failNTimes(t, cb, 1)
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v after max failures, want open", cb.GetState())
	}

	// 熔断期间直接拒绝，不执行操作
	executed := false
	err := cb.Call(context.Background(), func() error {
		executed = true
		return nil
	})
	if err == nil {
		t.Error("open breaker must reject the call")
	}
	if executed {
		t.Error("open breaker must not run the operation")
	}
}

func TestCircuitBreakerRecoversThroughHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)

	failNTimes(t, cb, 1)
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v, want open", cb.GetState())
	}

	time.Sleep(20 * time.Millisecond)

	// 超时后的第一次成功调用会经过半开态回到关闭态
	if err := cb.Call(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("call after reset timeout rejected: %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("state = %v after a successful probe, want closed", cb.GetState())
	}
}

func TestCircuitBreakerReopensOnHalfOpenFailure(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)

	failNTimes(t, cb, 1)
	time.Sleep(20 * time.Millisecond)

	failNTimes(t, cb, 1)
	if cb.GetState() != StateOpen {
		t.Errorf("state = %v after half-open failure, want open", cb.GetState())
	}
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, time.Minute)

	failNTimes(t, cb, 2)
	if err := cb.Call(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("closed breaker rejected a call: %v", err)
	}

	// 成功清零后再失败两次仍不应熔断
	failNTimes(t, cb, 2)
	if cb.GetState() != StateClosed {
		t.Errorf("state = %v, want closed after the counter reset", cb.GetState())
	}
}
