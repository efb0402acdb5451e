package httpkit

import (
	"math"
	"strconv"
	"sync"
	"time"

	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const minIdleTTL = 10 * time.Minute

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(c *gin.Context) string

// TenantKey buckets authenticated requests by tenant and everything else by
// client address. Mount it after AuthRequired.
func TenantKey(c *gin.Context) string {
	if value, ok := c.Get(ContextTenantIDKey); ok {
		if id, ok := value.(uuid.UUID); ok && id != uuid.Nil {
			return "tenant:" + id.String()
		}
	}
	return "ip:" + c.ClientIP()
}

// MessageRateConfig sizes the message ingestion limiter.
type MessageRateConfig interface {
	GetMessageRateLimitPerMinute() int
	GetMessageRateLimitBurst() int
}

// KeyedRateLimiter holds one token bucket per key. Buckets idle long enough to
// have refilled completely are dropped.
type KeyedRateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rate      rate.Limit
	burst     int
	key       KeyFunc
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
	log       *logger.Logger
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedRateLimiter creates a limiter allowing r events per second per key
// with the given burst. log may be nil.
func NewKeyedRateLimiter(r rate.Limit, burst int, key KeyFunc, log *logger.Logger) *KeyedRateLimiter {
	idleTTL := minIdleTTL
	if r > 0 && r != rate.Inf {
		if refill := time.Duration(float64(burst) / float64(r) * float64(time.Second)); refill > idleTTL {
			idleTTL = refill
		}
	}
	return &KeyedRateLimiter{
		buckets: make(map[string]*bucket),
		rate:    r,
		burst:   burst,
		key:     key,
		idleTTL: idleTTL,
		now:     time.Now,
		log:     log,
	}
}

// NewMessageRateLimiter throttles inbound lead messages per tenant.
func NewMessageRateLimiter(cfg MessageRateConfig, log *logger.Logger) *KeyedRateLimiter {
	perSecond := rate.Limit(float64(cfg.GetMessageRateLimitPerMinute()) / 60.0)
	return NewKeyedRateLimiter(perSecond, cfg.GetMessageRateLimitBurst(), TenantKey, log)
}

// RateLimit returns the middleware. Rejected requests get 429 with Retry-After.
func (l *KeyedRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := l.key(c)
		if l.allow(key) {
			c.Next()
			return
		}

		if l.log != nil {
			l.log.WithContext(c.Request.Context()).RateLimitExceeded(key, c.Request.URL.Path)
		}
		c.Header("Retry-After", strconv.Itoa(l.retryAfterSeconds()))
		HandleError(c, apperr.RateLimited("rate limit exceeded"))
	}
}

func (l *KeyedRateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// sweep must be called with mu held.
func (l *KeyedRateLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.idleTTL {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

func (l *KeyedRateLimiter) retryAfterSeconds() int {
	if l.rate <= 0 || l.rate == rate.Inf {
		return 1
	}
	return max(1, int(math.Ceil(1/float64(l.rate))))
}
