// Package server contains the HTTP handlers and request pipeline wiring.
package server

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"factvault/internal/cache"
	"factvault/internal/config"
	"factvault/internal/database"
	"factvault/internal/middleware"
	"factvault/internal/models"
	"factvault/internal/observability"
	"factvault/internal/repository"
	"factvault/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	tokenIssuer   = "factvault-api"
	tokenAudience = "factvault-client"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	factRepo       repository.FactRepository
	favoriteRepo   repository.FavoriteRepository
	usageRepo      repository.UsageRepository
	factService    *service.FactService
	favService     *service.FavoriteService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and
// optionally performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	factRepo := repository.NewFactRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	usageRepo := repository.NewUsageRepository(db)

	prom := observability.InitMetrics("factvault-api")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		userRepo:       userRepo,
		factRepo:       factRepo,
		favoriteRepo:   favoriteRepo,
		usageRepo:      usageRepo,
	}
	server.factService = service.NewFactService(factRepo)
	server.favService = service.NewFavoriteService(favoriteRepo, factRepo)

	return server, nil
}

// SetupMiddleware configures the request pipeline for the Fiber app. Order
// matters: the usage recorder sits outside the rate limiters so rejected
// requests are still accounted, and the limiters run before routing so they
// consume quota regardless of the downstream outcome.
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery backstop; the usage recorder handles panics it wraps.
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context middleware to propagate request ID and user ID into slog
	app.Use(middleware.ContextMiddleware())

	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	// CORS must run before middlewares that can short-circuit (limiter, usage
	// recorder 500s) so browser clients still receive CORS headers on errors.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// One usage row per request, always, regardless of handler outcome.
	app.Use(middleware.UsageRecorder(s.usageRepo, s.optionalUserID))

	// Global admission control for every route: coarse hourly window plus a
	// tighter per-minute window, keyed by caller address.
	app.Use(middleware.RateLimit(s.redis,
		middleware.Limit{Resource: "default_hour", Max: s.config.RateLimitPerHour, Window: time.Hour},
		middleware.Limit{Resource: "default_minute", Max: s.config.RateLimitPerMinute, Window: time.Minute},
	))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/", s.Home)
	app.Get("/health", s.HealthCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Auth routes with tighter per-minute windows on top of the defaults
	app.Post("/register", middleware.RateLimit(s.redis,
		middleware.Limit{Resource: "register", Max: s.config.RateLimitRegisterPerMin, Window: time.Minute},
	), s.Register)
	app.Post("/login", middleware.RateLimit(s.redis,
		middleware.Limit{Resource: "login", Max: s.config.RateLimitLoginPerMin, Window: time.Minute},
	), s.Login)

	// Public fact routes; /facts/random and /facts/categories before /facts
	// would matter with params, but all three are literal paths.
	facts := app.Group("/facts")
	facts.Get("/", s.GetFacts)
	facts.Get("/random", s.GetRandomFact)
	facts.Get("/categories", s.GetCategories)

	// Protected routes
	favorites := app.Group("/favorites", s.AuthRequired())
	favorites.Get("/", s.GetFavorites)
	favorites.Post("/", s.AddFavorite)
	favorites.Delete("/", s.RemoveFavorite)

	app.Get("/profile", s.AuthRequired(), s.GetProfile)

	// Any valid token may read aggregate stats; there is deliberately no
	// elevated-role check here (kept from the original behavior).
	app.Get("/admin/stats", s.AuthRequired(), s.AdminStats)

	// Unknown routes
	app.Use(func(c *fiber.Ctx) error {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Endpoint not found"))
	})
}

// Home handles GET / with a welcome payload and one random fact.
// The welcome fact does not consume a view count.
func (s *Server) Home(c *fiber.Ctx) error {
	var factData any = "No facts available"
	if fact, err := s.factService.Peek(c.UserContext()); err == nil && fact != nil {
		factData = fact
	}

	return c.JSON(fiber.Map{
		"message": "Welcome to the Enhanced Random Facts API",
		"fact":    factData,
		"endpoints": fiber.Map{
			"authentication": []string{"/register", "/login"},
			"facts":          []string{"/facts", "/facts/random", "/facts/categories"},
			"user":           []string{"/favorites", "/profile"},
			"admin":          []string{"/admin/stats"},
		},
	})
}

// HealthCheck handles liveness probes. It always answers 200; storage
// reachability is reported in the body.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	return c.JSON(fiber.Map{
		"status":    "healthy",
		"database":  dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"message":   "Service is running",
	})
}

// AuthRequired returns middleware enforcing a valid bearer token. On success
// the user ID is stored in locals and synced into the request context.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token claims"))
		}

		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != tokenIssuer {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token issuer"))
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != tokenAudience {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token audience"))
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}

		userID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		c.Locals("userID", uint(userID))
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, uint(userID))
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// optionalUserID attempts to extract the caller's user ID from the
// Authorization header but does not enforce it. Anonymous callers and
// unresolvable tokens yield (0, false), never an error.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(userID), true
}

// App builds the Fiber app with the full pipeline and routes. Tests drive the
// returned app directly with app.Test.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Facts API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
