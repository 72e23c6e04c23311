package pipeline

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/kbukum/boundq/errors"
	"github.com/kbukum/boundq/logger"
	"github.com/kbukum/boundq/queue"
)

var quiet = WithLogger(logger.Nop())

func testConfig(capacity int) Config {
	cfg := DefaultConfig()
	cfg.Capacity = capacity
	return cfg
}

// drain empties q without blocking.
func drain[T any](q *queue.Queue[Envelope[T]]) []Envelope[T] {
	var out []Envelope[T]
	for {
		env, ok := q.TryGet()
		if !ok {
			return out
		}
		out = append(out, env)
	}
}

func countMarkers[T any](envs []Envelope[T]) int {
	n := 0
	for _, env := range envs {
		if env.IsEnd() {
			n++
		}
	}
	return n
}

func detail(t *testing.T, err error, key string) any {
	t.Helper()
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	return appErr.Details[key]
}

func TestProducerSendsValuesThenMarker(t *testing.T) {
	q := queue.MustNew[Envelope[int]](10)
	p, err := NewProducer(q, FromSlice([]int{1, 2, 3}), testConfig(10), quiet)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	envs := drain(q)
	if len(envs) != 4 {
		t.Fatalf("expected 3 payloads and a marker, got %d envelopes", len(envs))
	}
	for i, want := range []int{1, 2, 3} {
		if envs[i].IsEnd() || envs[i].Value() != want {
			t.Errorf("envelope %d = %+v, want payload %d", i, envs[i], want)
		}
	}
	if !envs[3].IsEnd() {
		t.Error("last envelope is not the marker")
	}
	if p.Sent() != 3 {
		t.Errorf("Sent = %d, want 3", p.Sent())
	}
}

func TestProducerAlwaysSendsOneMarker(t *testing.T) {
	boom := stderrors.New("source broke")

	tests := []struct {
		name     string
		src      func() Iterator[int]
		wantCode errors.ErrorCode
		wantSent int
	}{
		{
			name:     "empty source",
			src:      func() Iterator[int] { return FromSlice[int](nil) },
			wantSent: 0,
		},
		{
			name: "source error",
			src: func() Iterator[int] {
				n := 0
				return FromFunc(func(context.Context) (int, bool, error) {
					n++
					if n > 2 {
						return 0, false, boom
					}
					return n, true, nil
				})
			},
			wantCode: errors.ErrCodeProducerFailure,
			wantSent: 2,
		},
		{
			name: "source panic",
			src: func() Iterator[int] {
				n := 0
				return FromFunc(func(context.Context) (int, bool, error) {
					n++
					if n > 1 {
						panic("bad read")
					}
					return n, true, nil
				})
			},
			wantCode: errors.ErrCodeProducerFailure,
			wantSent: 1,
		},
		{
			name: "transform error",
			src: func() Iterator[int] {
				return Map(FromSlice([]int{1, 2, 0, 4}), func(_ context.Context, n int) (int, error) {
					if n == 0 {
						return 0, boom
					}
					return 10 / n, nil
				})
			},
			wantCode: errors.ErrCodeProducerFailure,
			wantSent: 2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := queue.MustNew[Envelope[int]](10)
			p, err := NewProducer(q, tc.src(), testConfig(10), quiet)
			if err != nil {
				t.Fatal(err)
			}

			err = p.Run(context.Background())
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			} else {
				if !errors.HasCode(err, tc.wantCode) {
					t.Fatalf("expected %s, got %v", tc.wantCode, err)
				}
				if got := detail(t, err, "items_sent"); got != tc.wantSent {
					t.Errorf("items_sent = %v, want %d", got, tc.wantSent)
				}
			}

			envs := drain(q)
			if n := countMarkers(envs); n != 1 {
				t.Errorf("markers = %d, want 1", n)
			}
			if !envs[len(envs)-1].IsEnd() {
				t.Error("marker is not last")
			}
			if len(envs)-1 != tc.wantSent {
				t.Errorf("payloads = %d, want %d", len(envs)-1, tc.wantSent)
			}
		})
	}
}

func TestProducerPutTimeoutRetries(t *testing.T) {
	q := queue.MustNew[Envelope[int]](1)
	cfg := testConfig(1)
	cfg.PutTimeout = 10 * time.Millisecond
	cfg.PutRetries = 2
	cfg.RetryBackoff = time.Millisecond

	p, err := NewProducer(q, FromSlice([]int{1, 2}), cfg, quiet)
	if err != nil {
		t.Fatal(err)
	}
	// Nobody consumes, so the marker cannot be delivered either.
	markerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(100*time.Millisecond, cancel)
	p.markerCtx = markerCtx

	err = p.Run(context.Background())
	if !errors.HasCode(err, errors.ErrCodeProducerFailure) {
		t.Fatalf("expected PRODUCER_FAILURE, got %v", err)
	}
	if !queue.IsTimedOut(err) {
		t.Errorf("expected timeout cause, got %v", err)
	}
	if got := q.Stats().PutTimeouts; got != 3 {
		t.Errorf("put timeouts = %d, want 3 (1 attempt + 2 retries)", got)
	}
	if p.Sent() != 1 {
		t.Errorf("Sent = %d, want 1", p.Sent())
	}
}

func TestProducerCanceled(t *testing.T) {
	q := queue.MustNew[Envelope[int]](2)
	p, err := NewProducer(q, FromChannel(make(chan int)), testConfig(2), quiet)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	err = p.Run(ctx)
	if !errors.HasCode(err, errors.ErrCodeCanceled) {
		t.Fatalf("expected CANCELED, got %v", err)
	}
	if n := countMarkers(drain(q)); n != 1 {
		t.Errorf("markers = %d, want 1", n)
	}
}

func TestProducerDeadlineIsTimeout(t *testing.T) {
	q := queue.MustNew[Envelope[int]](2)
	p, err := NewProducer(q, FromChannel(make(chan int)), testConfig(2), quiet)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = p.Run(ctx)
	if !errors.HasCode(err, errors.ErrCodeTimeout) {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded cause, got %v", err)
	}
}

func TestProducerRateLimit(t *testing.T) {
	q := queue.MustNew[Envelope[int]](10)
	cfg := testConfig(10)
	cfg.Rate = 100
	cfg.Burst = 1

	p, err := NewProducer(q, FromSlice([]int{1, 2, 3, 4, 5}), cfg, quiet)
	if err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	// 4 of 5 items wait ~10ms for a token.
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("rate limit not applied, took %v", elapsed)
	}
}

func TestNewProducerInvalidConfig(t *testing.T) {
	q := queue.MustNew[Envelope[int]](1)
	cfg := testConfig(1)
	cfg.PutTimeout = -time.Second

	if _, err := NewProducer(q, FromSlice([]int{1}), cfg, quiet); !errors.HasCode(err, errors.ErrCodeConfiguration) {
		t.Fatalf("expected CONFIGURATION_ERROR, got %v", err)
	}
}

func TestConfigRetryBackoff(t *testing.T) {
	tests := []struct {
		name    string
		backoff time.Duration
		want    time.Duration
		wantErr bool
	}{
		{"zero uses default", 0, DefaultRetryBackoff, false},
		{"explicit", 3 * time.Millisecond, 3 * time.Millisecond, false},
		{"negative", -time.Millisecond, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(1)
			cfg.RetryBackoff = tc.backoff
			err := cfg.Validate()
			if tc.wantErr {
				if !errors.HasCode(err, errors.ErrCodeConfiguration) {
					t.Fatalf("expected CONFIGURATION_ERROR, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := cfg.retryBackoff(); got != tc.want {
				t.Errorf("retryBackoff() = %v, want %v", got, tc.want)
			}
		})
	}
}
