// Command signup-loadtest drives the engine through signup, login and token
// authentication with many concurrent workers and reports latency percentiles.
//
// Credentials live in memory; Redis is REDIS_ADDR, -redis-addr, or an
// embedded miniredis when neither is set.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goSignup "github.com/MrEthical07/goSignup"
	"github.com/MrEthical07/goSignup/credential"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const loadPassword = "load-test-password"

// codeBook is a notifier that remembers the last code per email.
type codeBook struct {
	codes sync.Map
}

func (b *codeBook) SendVerificationCode(_ context.Context, msg goSignup.VerificationMessage) error {
	b.codes.Store(msg.Email, msg.Code)
	return nil
}

func (b *codeBook) code(email string) string {
	v, _ := b.codes.Load(email)
	s, _ := v.(string)
	return s
}

func main() {
	var (
		accounts    = flag.Int("accounts", 500, "number of accounts to register")
		concurrency = flag.Int("concurrency", 32, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "operations per phase (login, authenticate)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		argonMemory = flag.Uint("argon-memory", 8*1024, "argon2id memory in KiB")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var cleanup func()
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		cleanup = mr.Close
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		cleanup = func() {}
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	defer func() { _ = client.Close() }()

	cfg := goSignup.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("signup-loadtest-secret-0123456789")
	cfg.Password.Memory = uint32(*argonMemory)
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Metrics.EnableLatencyHistograms = true

	book := &codeBook{}
	engine, err := goSignup.New().
		WithConfig(cfg).
		WithRedis(client).
		WithCredentialStore(credential.NewMemoryStore()).
		WithNotifier(book).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	emails := make([]string, *accounts)
	tokens := make([]string, *accounts)
	for i := range emails {
		emails[i] = fmt.Sprintf("load-%d@example.com", i)
	}

	signupStats := runPhase(*accounts, *concurrency, func(_ *rand.Rand, i int) error {
		tok, err := signup(ctx, engine, book, emails[i])
		tokens[i] = tok
		return err
	})
	loginStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		_, err := engine.Login(ctx, emails[r.Intn(len(emails))], loadPassword)
		return err
	})
	authStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		_, err := engine.Authenticate(ctx, tokens[r.Intn(len(tokens))])
		return err
	})

	fmt.Println("---- results ----")
	printStats("signup", signupStats)
	printStats("login", loginStats)
	printStats("authenticate", authStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("counters: registered=%d login_ok=%d login_fail=%d auth_ok=%d\n",
		snap.Counters[goSignup.MetricRegistrationSuccess],
		snap.Counters[goSignup.MetricLoginSuccess],
		snap.Counters[goSignup.MetricLoginFailure],
		snap.Counters[goSignup.MetricAuthenticateSuccess],
	)
}

func signup(ctx context.Context, engine *goSignup.Engine, book *codeBook, email string) (string, error) {
	if _, err := engine.RequestCode(ctx, email); err != nil {
		return "", err
	}
	code := book.code(email)
	if err := engine.VerifyCode(ctx, email, code); err != nil {
		return "", err
	}
	res, err := engine.CompleteRegistration(ctx, goSignup.CompleteRegistrationRequest{
		Email:    email,
		Password: loadPassword,
		Name:     "Load Test",
		Code:     code,
	})
	if err != nil {
		return "", err
	}
	return res.Token, nil
}

// runPhase spreads ops calls of fn over concurrency workers. fn receives a
// per-worker random source and the operation index.
func runPhase(ops, concurrency int, fn func(r *rand.Rand, i int) error) phaseStats {
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
				t0 := time.Now()
				err := fn(r, i)
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
	return computeStats(time.Since(start), latencies, failures)
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
		return phaseStats{total: total, failures: failures}
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
	return samples[(len(samples)-1)*p/100]
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
