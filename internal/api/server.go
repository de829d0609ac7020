package api

import (
	"context"
	"fmt"
	"time"

	"github.com/denzelpenzel/tours/internal/apperror"
	"github.com/denzelpenzel/tours/internal/config"
	"github.com/denzelpenzel/tours/internal/models"
	"github.com/denzelpenzel/tours/internal/ratelimit"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Server represents the API server
type Server struct {
	config  *config.Config
	logger  *zap.Logger
	auth    AuthService
	users   UserService
	tours   TourService
	reviews ReviewService
	limiter ratelimit.Store
	router  *router.Router
	server  *fasthttp.Server
}

// NewServer creates a new API server
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	auth AuthService,
	users UserService,
	tours TourService,
	reviews ReviewService,
	limiter ratelimit.Store,
) *Server {
	s := &Server{
		config:  cfg,
		logger:  logger,
		auth:    auth,
		users:   users,
		tours:   tours,
		reviews: reviews,
		limiter: limiter,
		router:  router.New(),
	}

	s.setupRoutes()
	s.setupServer()

	return s
}

// chain applies middlewares so that the first one runs first
func chain(handler fasthttp.RequestHandler, middlewares ...func(fasthttp.RequestHandler) fasthttp.RequestHandler) fasthttp.RequestHandler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.GlobalOPTIONS = s.corsHandler
	s.router.NotFound = s.withMiddleware(s.notFoundHandler)

	admin := s.restrictTo(models.RoleAdmin)
	staff := s.restrictTo(models.RoleAdmin, models.RoleLeadGuide)

	tours := s.tourResource()
	users := s.userResource()
	reviews := s.reviewResource()

	// Tours
	v1 := s.router.Group("/api/v1")
	v1.GET("/tours/top-5-cheap", s.withMiddleware(aliasTopTours(getAll(s, tours))))
	v1.GET("/tours/tour-stats", s.withMiddleware(s.tourStatsHandler))
	v1.GET("/tours/monthly-plan/{year}", s.withMiddleware(chain(s.monthlyPlanHandler,
		s.protect, s.restrictTo(models.RoleAdmin, models.RoleLeadGuide, models.RoleGuide))))
	v1.GET("/tours/tours-within/{distance}/center/{latlng}/unit/{unit}", s.withMiddleware(s.toursWithinHandler))
	v1.GET("/tours/distances/{latlng}/unit/{unit}", s.withMiddleware(s.distancesHandler))

	v1.GET("/tours", s.withMiddleware(getAll(s, tours)))
	v1.POST("/tours", s.withMiddleware(chain(createOne(s, tours), s.protect, staff)))
	v1.GET("/tours/{id}", s.withMiddleware(getOne(s, tours)))
	v1.PATCH("/tours/{id}", s.withMiddleware(chain(updateOne(s, tours), s.protect, staff)))
	v1.DELETE("/tours/{id}", s.withMiddleware(chain(deleteOne(s, tours), s.protect, staff)))

	// Reviews of one tour
	v1.GET("/tours/{tourId}/reviews", s.withMiddleware(chain(getAll(s, reviews), s.protect)))
	v1.POST("/tours/{tourId}/reviews", s.withMiddleware(chain(createOne(s, reviews),
		s.protect, s.restrictTo(models.RoleUser))))

	// Users
	v1.POST("/users/signup", s.withMiddleware(s.signUpHandler))
	v1.POST("/users/signin", s.withMiddleware(s.signInHandler))
	v1.GET("/users/logout", s.withMiddleware(s.logoutHandler))
	v1.POST("/users/forgot-password", s.withMiddleware(s.forgotPasswordHandler))
	v1.PATCH("/users/reset-password/{token}", s.withMiddleware(s.resetPasswordHandler))

	v1.PATCH("/users/update-my-password", s.withMiddleware(chain(s.updatePasswordHandler, s.protect)))
	v1.GET("/users/me", s.withMiddleware(chain(getOne(s, users), s.protect, s.withCurrentUserID)))
	v1.PATCH("/users/update-me", s.withMiddleware(chain(s.updateMeHandler, s.protect)))
	v1.DELETE("/users/delete-me", s.withMiddleware(chain(s.deleteMeHandler, s.protect)))

	v1.GET("/users", s.withMiddleware(chain(getAll(s, users), s.protect, admin)))
	v1.POST("/users", s.withMiddleware(chain(s.createUserHandler, s.protect, admin)))
	v1.GET("/users/{id}", s.withMiddleware(chain(getOne(s, users), s.protect, admin)))
	v1.PATCH("/users/{id}", s.withMiddleware(chain(updateOne(s, users), s.protect, admin)))
	v1.DELETE("/users/{id}", s.withMiddleware(chain(deleteOne(s, users), s.protect, admin)))

	// Reviews
	reviewers := s.restrictTo(models.RoleUser, models.RoleAdmin)
	v1.GET("/reviews", s.withMiddleware(chain(getAll(s, reviews), s.protect)))
	v1.POST("/reviews", s.withMiddleware(chain(createOne(s, reviews), s.protect, s.restrictTo(models.RoleUser))))
	v1.GET("/reviews/{id}", s.withMiddleware(chain(getOne(s, reviews), s.protect)))
	v1.PATCH("/reviews/{id}", s.withMiddleware(chain(updateOne(s, reviews), s.protect, reviewers)))
	v1.DELETE("/reviews/{id}", s.withMiddleware(chain(deleteOne(s, reviews), s.protect, reviewers)))

	// Health check endpoint
	s.router.GET("/api/health", s.withMiddleware(s.healthHandler))
}

// setupServer configures the FastHTTP server
func (s *Server) setupServer() {
	maxBody := s.config.Security.MaxBodySize
	if maxBody <= 0 {
		maxBody = 10 * 1024
	}

	s.server = &fasthttp.Server{
		Handler:               s.router.Handler,
		Name:                  "Tours-API",
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           60 * time.Second,
		MaxRequestBodySize:    maxBody,
		NoDefaultServerHeader: true,
		NoDefaultDate:         true,
		NoDefaultContentType:  true,
		Logger:                zap.NewStdLog(s.logger),
	}
}

// Start starts the API server
func (s *Server) Start() error {
	s.logger.Info("Starting API server",
		zap.String("address", s.config.Server.Address),
		zap.String("environment", s.config.Server.Environment))

	return s.server.ListenAndServe(s.config.Server.Address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.server.ShutdownWithContext(ctx)
}

// withMiddleware wraps handlers with common middleware
func (s *Server) withMiddleware(handler fasthttp.RequestHandler) fasthttp.RequestHandler {
	return s.loggingMiddleware(
		s.securityMiddleware(
			s.rateLimitMiddleware(handler),
		),
	)
}

// corsHandler handles CORS preflight requests
func (s *Server) corsHandler(ctx *fasthttp.RequestCtx) {
	s.setCORSHeaders(ctx)
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

// setCORSHeaders sets CORS headers
func (s *Server) setCORSHeaders(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
	ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
	ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	ctx.Response.Header.Set("Access-Control-Max-Age", "86400")
}

// notFoundHandler answers every unmatched route
func (s *Server) notFoundHandler(ctx *fasthttp.RequestCtx) {
	s.sendError(ctx, apperror.NotFound(fmt.Sprintf("Can't find %s on this server!", ctx.Path())))
}

// healthHandler handles health check requests
func (s *Server) healthHandler(ctx *fasthttp.RequestCtx) {
	s.setCORSHeaders(ctx)
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)

	response := `{"status":"healthy","service":"tours-api","timestamp":"` + time.Now().UTC().Format(time.RFC3339) + `"}`
	ctx.SetBodyString(response)
}
