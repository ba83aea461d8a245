package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	maxAuthBody   = 1 << 20
	sweepInterval = 5 * time.Minute
	bucketIdleTTL = 10 * time.Minute
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// bucketSet holds one token bucket per key
type bucketSet struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
}

func newBucketSet(limit rate.Limit, burst int) *bucketSet {
	return &bucketSet{buckets: make(map[string]*bucket), limit: limit, burst: burst}
}

func (s *bucketSet) allow(key string, now time.Time) bool {
	s.mu.Lock()
	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.buckets[key] = b
	}
	b.lastSeen = now
	s.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

// sweep drops buckets unused since cutoff
func (s *bucketSet) sweep(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, b := range s.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(s.buckets, key)
		}
	}
}

// RateLimiter throttles requests per client IP and login attempts per
// IP and account
type RateLimiter struct {
	ip   *bucketSet
	auth *bucketSet
	now  func() time.Time
	done chan struct{}
	once sync.Once
}

// NewRateLimiter creates a rate limiter and starts its janitor. Call Stop to
// release it.
func NewRateLimiter(ipRequestsPerSecond, authRequestsPerMinute float64, ipBurst, authBurst int) *RateLimiter {
	rl := &RateLimiter{
		ip:   newBucketSet(rate.Limit(ipRequestsPerSecond), ipBurst),
		auth: newBucketSet(rate.Limit(authRequestsPerMinute/60), authBurst),
		now:  time.Now,
		done: make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

func (rl *RateLimiter) janitor() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := rl.now().Add(-bucketIdleTTL)
			rl.ip.sweep(cutoff)
			rl.auth.sweep(cutoff)
		case <-rl.done:
			return
		}
	}
}

// Stop ends the janitor goroutine
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

// IPRateLimiterMiddleware limits requests per client IP
func (rl *RateLimiter) IPRateLimiterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.ip.allow(c.ClientIP(), rl.now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// AuthRateLimiterMiddleware limits login attempts per IP and per account.
// Requests without an email or username share the "anonymous" bucket of
// their IP, which covers the admin login.
func (rl *RateLimiter) AuthRateLimiterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		now := rl.now()
		ip := c.ClientIP()

		if !rl.ip.allow(ip, now) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		if c.Request.Method != http.MethodPost || c.Request.Body == nil {
			c.Next()
			return
		}

		identity, err := loginIdentity(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if !rl.auth.allow(ip+":"+identity, now) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many authentication attempts, please try again later",
			})
			return
		}
		c.Next()
	}
}

// loginIdentity peeks at the email or username of a login body and puts the
// body back for the handler
func loginIdentity(c *gin.Context) (string, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAuthBody))
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var creds struct {
		Email    string `json:"email"`
		Username string `json:"username"`
	}
	_ = json.Unmarshal(body, &creds)

	if email := strings.ToLower(strings.TrimSpace(creds.Email)); email != "" {
		return email, nil
	}
	if username := strings.TrimSpace(creds.Username); username != "" {
		return username, nil
	}
	return "anonymous", nil
}
