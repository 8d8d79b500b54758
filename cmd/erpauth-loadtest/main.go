// Command erpauth-loadtest measures the OTP store and the login path of the
// development backend under concurrency.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/triovision/erpauth"
	"github.com/triovision/erpauth/internal"
	"github.com/triovision/erpauth/internal/devserver"
	"github.com/triovision/erpauth/internal/stores"
)

func main() {
	var (
		emails      = flag.Int("emails", 10000, "number of outstanding OTPs to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 50000, "operations for the OTP phase")
		logins      = flag.Int("logins", 2000, "operations for the login phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "otp-load", "OTP key prefix")
	)
	flag.Parse()

	if *emails <= 0 || *concurrency <= 0 || *ops <= 0 || *logins <= 0 {
		fmt.Fprintln(os.Stderr, "emails, concurrency, ops, and logins must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	store := stores.NewRedisOTPStore(client, *prefix)

	fmt.Printf("seeding %d otps...\n", *emails)
	startSeed := time.Now()
	for i := 0; i < *emails; i++ {
		record := &stores.OTPRecord{Purpose: stores.PurposeRegistration, SecretHash: internal.HashOTP(codeFor(i))}
		if err := store.Save(ctx, emailFor(i), record, time.Hour); err != nil {
			fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	verifyStats := runVerifyPhase(ctx, store, *emails, *ops, *concurrency)

	loginStats, err := runLoginPhase(ctx, client, *logins, *concurrency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "login phase: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("---- results ----")
	printStats("otp verify", verifyStats)
	printStats("login", loginStats)
}

// runVerifyPhase verifies the correct code for random seeded emails. Codes are
// never consumed, so every operation is a successful verification.
func runVerifyPhase(ctx context.Context, store stores.OTPStore, emails, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(emails)
				t0 := time.Now()
				_, err := store.Verify(ctx, emailFor(idx), internal.HashOTP(codeFor(idx)), 5)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

// runLoginPhase registers one account on an in-process dev backend and signs
// in with it from concurrent clients. Every fourth attempt uses a wrong
// password.
func runLoginPhase(ctx context.Context, rdb redis.UniversalClient, ops, concurrency int) (phaseStats, error) {
	mailer := &lastCode{}
	cfg := devserver.DefaultConfig()
	srv, err := devserver.New(cfg, devserver.Options{
		OTPStore: stores.NewRedisOTPStore(rdb, "otp-load-dev"),
		Mailer:   mailer,
	})
	if err != nil {
		return phaseStats{}, err
	}
	httpSrv := httptest.NewServer(srv.Handler())
	defer httpSrv.Close()

	clientCfg := erpauth.DefaultConfig()
	clientCfg.API.BaseURL = httpSrv.URL + "/api"
	clientCfg.Registration.RedirectDelay = 0
	clientCfg.Metrics.Enabled = false
	if err := register(ctx, clientCfg, mailer); err != nil {
		return phaseStats{}, fmt.Errorf("register: %w", err)
	}

	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				password := "correct-horse"
				if i%4 == 3 {
					password = "wrong-horse"
				}
				// One client per attempt keeps lockout out of the measurement.
				c, err := erpauth.New().WithConfig(clientCfg).Build()
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				form := c.LoginForm()
				form.SetIdentifier("Load001")
				form.SetPassword(password)
				t0 := time.Now()
				_, err = form.Submit(ctx)
				d := time.Since(t0)
				c.Close()
				if err != nil && password == "correct-horse" {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures), nil
}

func register(ctx context.Context, cfg erpauth.Config, mailer *lastCode) error {
	c, err := erpauth.New().WithConfig(cfg).Build()
	if err != nil {
		return err
	}
	defer c.Close()

	r := c.NewRegistration()
	r.SetTrioID("Load001")
	r.SetEmail("load@")
	r.SetUsername("load")
	if _, err := r.SendOTP(ctx); err != nil {
		return err
	}
	if err := r.SetOTP(mailer.get()); err != nil {
		return err
	}
	if _, err := r.VerifyOTP(ctx); err != nil {
		return err
	}
	if err := r.SetPassword("correct-horse"); err != nil {
		return err
	}
	_, err = r.Submit(ctx)
	return err
}

type lastCode struct {
	mu   sync.Mutex
	code string
}

func (l *lastCode) SendOTP(_ context.Context, _, code string, _ stores.Purpose) error {
	l.mu.Lock()
	l.code = code
	l.mu.Unlock()
	return nil
}

func (l *lastCode) get() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.code
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func emailFor(i int) string {
	return fmt.Sprintf("user%d@load.test", i)
}

func codeFor(i int) string {
	return fmt.Sprintf("%06d", (i*7919+13)%1000000)
}
