// Package app wires configuration, storage and HTTP routes into a server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/estatehub/backoffice/internal/audit"
	"github.com/estatehub/backoffice/internal/auth"
	"github.com/estatehub/backoffice/internal/config"
	"github.com/estatehub/backoffice/internal/db"
	internalhttp "github.com/estatehub/backoffice/internal/http"
	adminapi "github.com/estatehub/backoffice/internal/http/api/admin"
	"github.com/estatehub/backoffice/internal/http/api/front"
	"github.com/estatehub/backoffice/internal/metrics"
	"github.com/estatehub/backoffice/internal/models"
	"github.com/estatehub/backoffice/internal/ratelimit"
	"github.com/estatehub/backoffice/internal/retention"
	"github.com/estatehub/backoffice/internal/security"
	"github.com/estatehub/backoffice/internal/site"
	"github.com/estatehub/backoffice/internal/store"
	"github.com/estatehub/backoffice/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Server holds the wired components of a running back office.
type Server struct {
	cfg      *config.Config
	db       *gorm.DB
	router   *gin.Engine
	auth     *auth.Service
	admins   *store.AdminStore
	tokens   *store.RefreshTokenStore
	events   *audit.Recorder
	images   *site.ImageStore
	metrics  *metrics.Metrics
	memories []*ratelimit.MemoryLimiter
}

// New wires a Server over an open, migrated connection. redisClient may be
// nil, in which case rate limits are tracked in process memory.
func New(cfg *config.Config, conn *gorm.DB, redisClient redis.UniversalClient) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	if conn == nil {
		return nil, fmt.Errorf("app: nil database")
	}

	m := metrics.New()
	hasher := security.NewPasswordHasher(cfg.Auth.BcryptCost)
	issuer := security.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.AccessTTL)
	admins := store.NewAdminStore(conn, hasher)
	tokens := store.NewRefreshTokenStore(conn)
	events := audit.NewRecorder(conn, m)
	service := auth.NewService(admins, tokens, hasher, issuer, events, auth.Options{
		AllowRegistration: cfg.Auth.AllowRegistration,
		RefreshTTL:        cfg.JWT.RefreshTTL,
		Lockout:           auth.NewLockoutPolicy(cfg.Auth.MaxLoginAttempts, cfg.Auth.LockDuration),
	}).WithClock(nowUTC)
	images := site.NewImageStore(util.ResolvePath(cfg.Uploads.Dir))

	s := &Server{
		cfg:     cfg,
		db:      conn,
		auth:    service,
		admins:  admins,
		tokens:  tokens,
		events:  events,
		images:  images,
		metrics: m,
	}

	loginLimiter, registerLimiter := s.buildLimiters(redisClient)
	s.router = s.buildRouter(adminapi.Deps{
		Auth:            service,
		Events:          events,
		Site:            site.NewStore(conn),
		Images:          images,
		LoginLimiter:    loginLimiter,
		RegisterLimiter: registerLimiter,
		Metrics:         m,
	})
	return s, nil
}

// Router returns the HTTP handler.
func (s *Server) Router() *gin.Engine { return s.router }

// Auth returns the authentication service.
func (s *Server) Auth() *auth.Service { return s.auth }

func (s *Server) buildLimiters(redisClient redis.UniversalClient) (ratelimit.Limiter, ratelimit.Limiter) {
	rl := s.cfg.RateLimit
	if !rl.Enabled {
		return nil, nil
	}
	loginRule := ratelimit.Rule{Max: rl.LoginMax, Window: rl.LoginWindow}
	registerRule := ratelimit.Rule{Max: rl.RegisterMax, Window: rl.RegisterWindow}
	if redisClient != nil {
		return ratelimit.NewRedisLimiter(redisClient, "estatehub:ratelimit:login", loginRule),
			ratelimit.NewRedisLimiter(redisClient, "estatehub:ratelimit:register", registerRule)
	}
	login := ratelimit.NewMemoryLimiter(loginRule)
	register := ratelimit.NewMemoryLimiter(registerRule)
	s.memories = append(s.memories, login, register)
	return login, register
}

func (s *Server) buildRouter(deps adminapi.Deps) *gin.Engine {
	engine := gin.New()
	if errProxies := engine.SetTrustedProxies(s.cfg.Server.TrustedProxies); errProxies != nil {
		log.WithError(errProxies).Warn("app: invalid trusted proxies, trusting none")
		_ = engine.SetTrustedProxies(nil)
	}
	engine.Use(gin.Recovery(), internalhttp.RequestLogger(s.metrics), internalhttp.CORS(s.cfg.Server.CORSOrigins))

	adminapi.RegisterAdminRoutes(engine, deps)
	front.RegisterFrontRoutes(engine, deps.Site, s.images, s.auth, s.metrics)

	engine.NoRoute(func(c *gin.Context) {
		if isAPIRoute(c.Request.URL.Path) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.Status(http.StatusNotFound)
	})
	return engine
}

// Start launches the background workers bound to ctx.
func (s *Server) Start(ctx context.Context) {
	if errDir := s.images.EnsureDir(); errDir != nil {
		log.WithError(errDir).Warn("app: upload directory unavailable")
	}
	for _, limiter := range s.memories {
		limiter.StartCleanup(ctx)
	}
	retention.NewRefreshTokenCleaner(s.tokens, s.cfg.Retention.Interval, s.metrics).Start(ctx)
}

// SeedDefaultAdmin creates the default administrator when seeding is enabled
// and no administrator exists yet.
func (s *Server) SeedDefaultAdmin(ctx context.Context) error {
	if !s.cfg.Seed.Enabled {
		return nil
	}
	count, errCount := s.admins.Count(ctx)
	if errCount != nil {
		return fmt.Errorf("app: count admins: %w", errCount)
	}
	if count > 0 {
		log.Info("admin already exists, skipping seed")
		return nil
	}
	admin := &models.Admin{
		Username: "admin",
		Email:    s.cfg.Seed.AdminEmail,
		Role:     models.RoleAdmin,
	}
	admin.SetPassword(s.cfg.Seed.AdminPassword)
	if errCreate := s.admins.Create(ctx, admin); errCreate != nil {
		return fmt.Errorf("app: seed admin: %w", errCreate)
	}
	s.events.Record(ctx, audit.Event{
		Type:     audit.EventAdminProvisioned,
		AdminID:  admin.ID,
		Metadata: map[string]any{"source": "seed"},
	})
	log.WithFields(log.Fields{
		"email":    admin.Email,
		"username": admin.Username,
	}).Warn("default admin created, change its password immediately")
	return nil
}

// CreateAdminParams holds inputs for administrator provisioning.
type CreateAdminParams struct {
	Username string
	Email    string
	Password string
	Role     string
}

// CreateAdmin provisions an administrator with an explicit role.
func (s *Server) CreateAdmin(ctx context.Context, params CreateAdminParams) (*auth.AdminView, error) {
	role := models.RoleAdmin
	if strings.TrimSpace(params.Role) != "" {
		parsed, errRole := models.ParseRole(strings.TrimSpace(params.Role))
		if errRole != nil {
			return nil, errRole
		}
		role = parsed
	}
	username := strings.TrimSpace(params.Username)
	email := strings.TrimSpace(params.Email)
	if problems := auth.ValidateRegistration(username, email, params.Password); len(problems) > 0 {
		return nil, fmt.Errorf("app: invalid admin: %s", strings.Join(problems, "; "))
	}
	admin := &models.Admin{Username: username, Email: email, Role: role}
	admin.SetPassword(params.Password)
	if errCreate := s.admins.Create(ctx, admin); errCreate != nil {
		if errors.Is(errCreate, store.ErrConflict) {
			return nil, auth.ErrConflict
		}
		return nil, fmt.Errorf("app: create admin: %w", errCreate)
	}
	s.events.Record(ctx, audit.Event{
		Type:     audit.EventAdminProvisioned,
		AdminID:  admin.ID,
		Metadata: map[string]any{"source": "cli", "role": role.String()},
	})
	view := auth.NewAdminView(admin)
	return &view, nil
}

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg *config.Config) error {
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	defer func() { _ = db.Close(conn) }()
	if errPing := db.Ping(ctx, conn); errPing != nil {
		return errPing
	}
	return db.Migrate(conn)
}

// CreateAdmin opens the database, migrates it and provisions an administrator.
func CreateAdmin(ctx context.Context, cfg *config.Config, params CreateAdminParams) (*auth.AdminView, error) {
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return nil, errOpen
	}
	defer func() { _ = db.Close(conn) }()
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return nil, errMigrate
	}
	s, errNew := New(cfg, conn, nil)
	if errNew != nil {
		return nil, errNew
	}
	return s.CreateAdmin(ctx, params)
}

// RunServer boots the HTTP server and blocks until ctx is cancelled.
func RunServer(ctx context.Context, cfg *config.Config) error {
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	defer func() { _ = db.Close(conn) }()
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	redisClient, errRedis := openRedis(ctx, cfg.Redis.URL)
	if errRedis != nil {
		return errRedis
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	s, errNew := New(cfg, conn, redisClient)
	if errNew != nil {
		return errNew
	}
	if errSeed := s.SeedDefaultAdmin(ctx); errSeed != nil {
		log.WithError(errSeed).Error("seed default admin failed")
	}
	s.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("server listening on %s", cfg.Server.Addr)
		if errServe := srv.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
		}
		close(errCh)
	}()

	select {
	case errServe := <-errCh:
		return errServe
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
		return fmt.Errorf("app: shutdown: %w", errShutdown)
	}
	return nil
}

// openRedis connects to rawURL. An empty URL disables Redis.
func openRedis(ctx context.Context, rawURL string) (redis.UniversalClient, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, nil
	}
	opts, errParse := redis.ParseURL(strings.TrimSpace(rawURL))
	if errParse != nil {
		return nil, fmt.Errorf("app: parse redis url: %w", errParse)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if errPing := client.Ping(pingCtx).Err(); errPing != nil {
		_ = client.Close()
		return nil, fmt.Errorf("app: ping redis: %w", errPing)
	}
	return client, nil
}

// nowUTC returns the current UTC time.
func nowUTC() time.Time { return time.Now().UTC() }

// isAPIRoute reports whether a path targets API endpoints.
func isAPIRoute(requestPath string) bool {
	return requestPath == "/api" || strings.HasPrefix(requestPath, "/api/")
}
