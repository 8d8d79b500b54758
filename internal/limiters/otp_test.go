package limiters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/triovision/erpauth/internal/rate"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func TestOTPLimiterNilIsPermissive(t *testing.T) {
	var l *OTPLimiter
	if err := l.CheckSend(context.Background(), "register", "a@x.com"); err != nil {
		t.Fatalf("expected nil limiter to allow, got %v", err)
	}
	if err := l.CheckVerify(context.Background(), "register", "a@x.com"); err != nil {
		t.Fatalf("expected nil limiter to allow, got %v", err)
	}
}

func TestOTPLimiterResendCooldown(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	l := NewOTPLimiter(rate.NewMemoryWindow(clock.Now), OTPConfig{ResendCooldown: 30 * time.Second})
	ctx := context.Background()

	if err := l.CheckSend(ctx, "register", "A@X.com"); err != nil {
		t.Fatalf("first send should pass: %v", err)
	}
	if err := l.RecordSend(ctx, "register", "A@X.com"); err != nil {
		t.Fatalf("RecordSend: %v", err)
	}
	err := l.CheckSend(ctx, "register", "a@x.com")
	var limitErr *LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected LimitError, got %v", err)
	}
	if !errors.Is(err, ErrOTPLimited) {
		t.Fatalf("expected ErrOTPLimited in chain, got %v", err)
	}
	if limitErr.Scope != "resend" || limitErr.RetryAfter != 30*time.Second {
		t.Fatalf("unexpected limit error: %+v", limitErr)
	}

	clock.now = clock.now.Add(31 * time.Second)
	if err := l.CheckSend(ctx, "register", "a@x.com"); err != nil {
		t.Fatalf("send after cooldown should pass: %v", err)
	}
}

func TestOTPLimiterCheckDoesNotCharge(t *testing.T) {
	l := NewOTPLimiter(rate.NewMemoryWindow(nil), OTPConfig{
		ResendCooldown: 30 * time.Second,
		MaxSends:       1,
		SendWindow:     time.Hour,
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.CheckSend(ctx, "register", "a@x.com"); err != nil {
			t.Fatalf("unrecorded check %d must pass: %v", i+1, err)
		}
	}
	if got := l.CooldownRemaining(ctx, "register", "a@x.com"); got != 0 {
		t.Fatalf("cooldown started without a recorded send: %s", got)
	}
}

func TestOTPLimiterFlowsAreIsolated(t *testing.T) {
	l := NewOTPLimiter(rate.NewMemoryWindow(nil), OTPConfig{ResendCooldown: time.Minute})
	ctx := context.Background()

	if err := l.RecordSend(ctx, "register", "a@x.com"); err != nil {
		t.Fatalf("register send: %v", err)
	}
	if err := l.CheckSend(ctx, "reset", "a@x.com"); err != nil {
		t.Fatalf("reset send must not share the register cooldown: %v", err)
	}
}

func TestOTPLimiterSendBudgetOnRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	l := NewOTPLimiter(rate.NewRedisWindow(rdb, "erpauth"), OTPConfig{MaxSends: 2, SendWindow: time.Hour})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.CheckSend(ctx, "register", "a@x.com"); err != nil {
			t.Fatalf("send %d should pass: %v", i+1, err)
		}
		if err := l.RecordSend(ctx, "register", "a@x.com"); err != nil {
			t.Fatalf("record %d: %v", i+1, err)
		}
	}
	if err := l.CheckSend(ctx, "register", "a@x.com"); !errors.Is(err, ErrOTPLimited) {
		t.Fatalf("expected budget exhaustion, got %v", err)
	}
}

func TestOTPLimiterVerifyBudgetReset(t *testing.T) {
	l := NewOTPLimiter(rate.NewMemoryWindow(nil), OTPConfig{MaxVerifyAttempts: 1, VerifyWindow: time.Minute})
	ctx := context.Background()

	if err := l.CheckVerify(ctx, "register", "a@x.com"); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if err := l.CheckVerify(ctx, "register", "a@x.com"); !errors.Is(err, ErrOTPLimited) {
		t.Fatalf("expected verify limit, got %v", err)
	}
	if err := l.ResetVerify(ctx, "register", "a@x.com"); err != nil {
		t.Fatalf("ResetVerify: %v", err)
	}
	if err := l.CheckVerify(ctx, "register", "a@x.com"); err != nil {
		t.Fatalf("verify after reset: %v", err)
	}
}
