package resilience

import "time"

// Operation names used across the pipeline. Retry budgets and circuit
// breakers are keyed by these, so dependents share one executor without
// sharing failure state.
const (
	OpEmbedBatch   = "embed.batch"
	OpQueuePublish = "nats.publish"
)

// RetryPolicy bounds the attempt loop for a single operation.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// BreakerPolicy is shared by all operations; each operation still gets its
// own breaker instance.
type BreakerPolicy struct {
	Enabled          bool
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

type Config struct {
	Retry        RetryPolicy
	Breaker      BreakerPolicy
	PerOperation map[string]RetryPolicy
}

// DefaultConfig tunes the two guarded operations differently: embedding
// batches are slow and the backend throttles under load, so they get a
// longer budget; a publish holds up the upload response, so it gives up
// quickly and lets the caller degrade to local processing.
func DefaultConfig() Config {
	return Config{
		Retry: RetryPolicy{
			MaxAttempts:    3,
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     400 * time.Millisecond,
			Multiplier:     2.0,
		},
		Breaker: BreakerPolicy{
			Enabled:          true,
			MinRequests:      10,
			FailureRatio:     0.5,
			OpenTimeout:      30 * time.Second,
			HalfOpenMaxCalls: 2,
		},
		PerOperation: map[string]RetryPolicy{
			OpEmbedBatch: {
				MaxAttempts:    4,
				InitialBackoff: 250 * time.Millisecond,
				MaxBackoff:     2 * time.Second,
				Multiplier:     2.0,
			},
			OpQueuePublish: {
				MaxAttempts:    2,
				InitialBackoff: 50 * time.Millisecond,
				MaxBackoff:     100 * time.Millisecond,
				Multiplier:     2.0,
			},
		},
	}
}

func (p RetryPolicy) normalize(def RetryPolicy) RetryPolicy {
	out := p
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = def.MaxAttempts
	}
	if out.InitialBackoff <= 0 {
		out.InitialBackoff = def.InitialBackoff
	}
	if out.MaxBackoff <= 0 {
		out.MaxBackoff = def.MaxBackoff
	}
	if out.MaxBackoff < out.InitialBackoff {
		out.MaxBackoff = out.InitialBackoff
	}
	if out.Multiplier < 1.0 {
		out.Multiplier = def.Multiplier
	}
	return out
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	out.Retry = out.Retry.normalize(def.Retry)
	if len(out.PerOperation) > 0 {
		normalized := make(map[string]RetryPolicy, len(out.PerOperation))
		for op, policy := range out.PerOperation {
			normalized[op] = policy.normalize(out.Retry)
		}
		out.PerOperation = normalized
	}

	if out.Breaker.MinRequests == 0 {
		out.Breaker.MinRequests = def.Breaker.MinRequests
	}
	if out.Breaker.FailureRatio <= 0 || out.Breaker.FailureRatio > 1 {
		out.Breaker.FailureRatio = def.Breaker.FailureRatio
	}
	if out.Breaker.OpenTimeout <= 0 {
		out.Breaker.OpenTimeout = def.Breaker.OpenTimeout
	}
	if out.Breaker.HalfOpenMaxCalls == 0 {
		out.Breaker.HalfOpenMaxCalls = def.Breaker.HalfOpenMaxCalls
	}

	return out
}
