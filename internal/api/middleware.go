package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"storefront/internal/account"
	"storefront/internal/apperr"
	"storefront/internal/logger"
)

const (
	ctxRequestID = "request_id"
	ctxClaims    = "claims"
	ctxLogger    = "logger"

	headerRequestID = "X-Request-ID"
)

var (
	errAuthRequired = apperr.New(apperr.Validation, apperr.CodeAuth)
	errForbidden    = apperr.New(apperr.Validation, apperr.CodeForbidden)
)

// RequestLogger tags each request with an id and logs it once it completes.
// Handlers reach the request's logger through loggerOf.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Set(ctxLogger, log.With("request_id", id))
		c.Header(headerRequestID, id)

		start := time.Now()
		c.Next()

		log.InfoContext(c.Request.Context(), "http request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

// Timeout bounds the context handlers and the store see.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu  sync.Mutex
	ips map[string]*rate.Limiter
	r   rate.Limit
	b   int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{ips: make(map[string]*rate.Limiter), r: r, b: b}
}

func (i *IPRateLimiter) Limiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, ok := i.ips[ip]
	if !ok {
		limiter = rate.NewLimiter(i.r, i.b)
		i.ips[ip] = limiter
	}
	return limiter
}

// RateLimit rejects requests over rps (with burst) per client IP.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	limiter := NewIPRateLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Limiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{
				Code:    apperr.CodeError,
				Message: "too many requests",
			})
			return
		}
		c.Next()
	}
}

// JWTAuth requires a valid bearer token and stores its claims on the context.
func JWTAuth(tokens *account.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, raw, found := strings.Cut(header, " ")
		if !found || scheme != "Bearer" || raw == "" {
			fail(c, errAuthRequired)
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			fail(c, err)
			return
		}
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// RequirePortal admits only logins of the given portal. It runs after JWTAuth.
func RequirePortal(portal string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsOf(c)
		if claims == nil || claims.Portal != portal {
			fail(c, errForbidden)
			return
		}
		c.Next()
	}
}

func loggerOf(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(ctxLogger); ok {
		if log, ok := v.(*slog.Logger); ok {
			return log
		}
	}
	return logger.Get()
}

func claimsOf(c *gin.Context) *account.Claims {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*account.Claims)
	return claims
}
