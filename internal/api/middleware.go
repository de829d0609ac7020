package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/denzelpenzel/tours/internal/apperror"
	"github.com/denzelpenzel/tours/internal/models"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	userKey    = "user"
	cookieName = "jwt"
)

// loggingMiddleware logs HTTP requests (no bodies, no tokens)
func (s *Server) loggingMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()

		next(ctx)

		duration := time.Since(start)
		s.logger.Info("HTTP request",
			zap.String("method", string(ctx.Method())),
			zap.String("path", string(ctx.Path())),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("duration", duration),
			zap.String("user_agent", string(ctx.UserAgent())),
		)
	}
}

// securityMiddleware adds security headers
func (s *Server) securityMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.Set("X-Content-Type-Options", "nosniff")
		ctx.Response.Header.Set("X-Frame-Options", "DENY")
		ctx.Response.Header.Set("X-XSS-Protection", "1; mode=block")
		ctx.Response.Header.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		ctx.Response.Header.Set("Content-Security-Policy", "default-src 'self'")
		ctx.Response.Header.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		ctx.Response.Header.Del("Server")

		next(ctx)
	}
}

// rateLimitMiddleware counts requests per client IP against the shared store
func (s *Server) rateLimitMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if s.limiter == nil {
			next(ctx)
			return
		}

		res := s.limiter.Allow("ip:" + ctx.RemoteIP().String())

		ctx.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		ctx.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		ctx.Response.Header.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			retry := int(time.Until(res.ResetAt).Seconds()) + 1
			ctx.Response.Header.Set("Retry-After", strconv.Itoa(retry))
			s.sendError(ctx, apperror.New(fasthttp.StatusTooManyRequests, "Too many requests from this IP, please try again in an hour!"))
			return
		}

		next(ctx)
	}
}

// protect resolves the session token from the Authorization header or the
// jwt cookie and stores the user for the handlers downstream
func (s *Server) protect(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, err := s.auth.Authenticate(ctx, sessionToken(ctx))
		if err != nil {
			s.sendError(ctx, err)
			return
		}

		ctx.SetUserValue(userKey, user)
		next(ctx)
	}
}

// restrictTo lets through users holding one of roles. It must run after
// protect.
func (s *Server) restrictTo(roles ...models.Role) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			if err := s.auth.Authorize(currentUser(ctx), roles...); err != nil {
				s.sendError(ctx, err)
				return
			}
			next(ctx)
		}
	}
}

func sessionToken(ctx *fasthttp.RequestCtx) string {
	authHeader := string(ctx.Request.Header.Peek("Authorization"))
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return string(ctx.Request.Header.Cookie(cookieName))
}

func currentUser(ctx *fasthttp.RequestCtx) *models.User {
	user, _ := ctx.UserValue(userKey).(*models.User)
	return user
}
