package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/taskflow-ai/taskflow-api/internal/errors"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	general  *rate.Limiter
	auth     *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps a token bucket per client IP. Auth routes get their own,
// tighter bucket.
type RateLimiter struct {
	generalRPM int
	authRPM    int
	authPrefix string

	mu      sync.Mutex
	clients map[string]*clientLimiter
	now     func() time.Time
}

// NewRateLimiter builds a limiter. A non-positive generalRPM disables the
// general bucket; authRPM falls back to 10.
func NewRateLimiter(generalRPM, authRPM int, authPrefix string) *RateLimiter {
	if authRPM <= 0 {
		authRPM = 10
	}
	return &RateLimiter{
		generalRPM: generalRPM,
		authRPM:    authRPM,
		authPrefix: authPrefix,
		clients:    map[string]*clientLimiter{},
		now:        time.Now,
	}
}

// Handler returns the gin middleware.
func (m *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := m.limiterFor(c.ClientIP())

		target := limiter.general
		if m.authPrefix != "" && strings.HasPrefix(c.Request.URL.Path, m.authPrefix) {
			target = limiter.auth
		}

		if target != nil && !target.Allow() {
			c.Header("Retry-After", "60")
			apierrors.TooManyRequests(c, "")
			return
		}
		c.Next()
	}
}

func (m *RateLimiter) limiterFor(clientIP string) *clientLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if limiter, ok := m.clients[clientIP]; ok {
		limiter.lastSeen = now
		return limiter
	}

	created := &clientLimiter{
		auth:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.authRPM)), m.authRPM),
		lastSeen: now,
	}
	if m.generalRPM > 0 {
		created.general = rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.generalRPM)), m.generalRPM)
	}
	m.clients[clientIP] = created
	m.gcLocked(now)

	return created
}

func (m *RateLimiter) gcLocked(now time.Time) {
	if len(m.clients) < 1000 {
		return
	}
	cutoff := now.Add(-10 * time.Minute)
	for ip, limiter := range m.clients {
		if limiter.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}
