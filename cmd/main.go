package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/gw-book-collection/docs"
	"github.com/sbilibin2017/gw-book-collection/internal/handlers"
	"github.com/sbilibin2017/gw-book-collection/internal/jwt"
	"github.com/sbilibin2017/gw-book-collection/internal/logger"
	"github.com/sbilibin2017/gw-book-collection/internal/middlewares"
	"github.com/sbilibin2017/gw-book-collection/internal/repositories"
	"github.com/sbilibin2017/gw-book-collection/internal/services"
	"github.com/sbilibin2017/gw-book-collection/internal/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title gw-book-collection API
// @version 1.0.0
// @description Personal book collection: users, ownership-scoped books with cover images, shared categories
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Build version: %s\nBuild date: %s\nBuild commit: %s\n", buildVersion, buildDate, buildCommit)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// config is the complete service configuration.
type config struct {
	AppEnv   string
	AppHost  string
	AppPort  string
	LogLevel string

	PGHost         string
	PGPort         int
	PGUser         string
	PGPassword     string
	PGDB           string
	PGMaxOpenConns int
	PGMaxIdleConns int

	JWTSecretKey string // Empty only in development
	JWTExp       time.Duration

	UploadBackend string // "disk" or "s3"
	UploadDir     string
	S3            storage.S3Config

	RedisHost          string // Empty disables the sign-in throttle
	RedisPort          int
	RedisPassword      string
	RedisDB            int
	LoginMaxAttempts   int
	LoginAttemptWindow time.Duration

	KafkaBrokers []string // Empty disables book events
	KafkaTopic   string

	CORSAllowedOrigins []string
}

func (c config) development() bool {
	return c.AppEnv == "development"
}

// parseConfig loads environment variables from a file and returns
// the application configuration. Secrets have no defaults.
func parseConfig(path string) (cfg config, err error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}
	getInt := func(key, defaultValue string) (int, error) {
		v, err := strconv.Atoi(getEnv(key, defaultValue))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return v, nil
	}
	getDuration := func(key, defaultValue string) (time.Duration, error) {
		v, err := time.ParseDuration(getEnv(key, defaultValue))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return v, nil
	}
	getList := func(key, defaultValue string) []string {
		var out []string
		for _, item := range strings.Split(getEnv(key, defaultValue), ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	}

	// Application config
	cfg.AppEnv = getEnv("APP_ENV", "production")
	cfg.AppHost = getEnv("APP_HOST", "localhost")
	cfg.AppPort = getEnv("APP_PORT", "8080")
	cfg.LogLevel = getEnv("APP_LOG_LEVEL", "info")

	// PostgreSQL config
	cfg.PGHost = getEnv("POSTGRES_HOST", "localhost")
	cfg.PGUser = getEnv("POSTGRES_USER", "")
	cfg.PGPassword = getEnv("POSTGRES_PASSWORD", "")
	cfg.PGDB = getEnv("POSTGRES_DB", "")
	if cfg.PGPort, err = getInt("POSTGRES_PORT", "5432"); err != nil {
		return
	}
	if cfg.PGMaxOpenConns, err = getInt("POSTGRES_MAX_OPEN_CONNS", "16"); err != nil {
		return
	}
	if cfg.PGMaxIdleConns, err = getInt("POSTGRES_MAX_IDLE_CONNS", "8"); err != nil {
		return
	}

	// JWT config
	cfg.JWTSecretKey = getEnv("JWT_SECRET_KEY", "")
	if cfg.JWTExp, err = getDuration("JWT_EXP", jwt.DefaultExpiration.String()); err != nil {
		return
	}

	// Upload storage config
	cfg.UploadBackend = getEnv("UPLOAD_BACKEND", "disk")
	cfg.UploadDir = getEnv("UPLOAD_DIR", "uploads")
	cfg.S3 = storage.S3Config{
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		Region:          getEnv("S3_REGION", "us-east-1"),
		Bucket:          getEnv("S3_BUCKET", ""),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		Prefix:          getEnv("S3_PREFIX", ""),
	}
	if cfg.S3.UsePathStyle, err = strconv.ParseBool(getEnv("S3_USE_PATH_STYLE", "false")); err != nil {
		err = fmt.Errorf("S3_USE_PATH_STYLE: %w", err)
		return
	}

	// Redis config
	cfg.RedisHost = getEnv("REDIS_HOST", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	if cfg.RedisPort, err = getInt("REDIS_PORT", "6379"); err != nil {
		return
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", "0"); err != nil {
		return
	}
	if cfg.LoginMaxAttempts, err = getInt("LOGIN_MAX_ATTEMPTS", "5"); err != nil {
		return
	}
	if cfg.LoginAttemptWindow, err = getDuration("LOGIN_ATTEMPT_WINDOW", "15m"); err != nil {
		return
	}

	// Kafka config
	cfg.KafkaBrokers = getList("KAFKA_BROKERS", "")
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "book-events")

	cfg.CORSAllowedOrigins = getList("CORS_ALLOWED_ORIGINS", "*")

	err = cfg.validate()
	return
}

func (c config) validate() error {
	var missing []string
	required := map[string]string{
		"POSTGRES_USER":     c.PGUser,
		"POSTGRES_PASSWORD": c.PGPassword,
		"POSTGRES_DB":       c.PGDB,
	}
	if !c.development() {
		required["JWT_SECRET_KEY"] = c.JWTSecretKey
	}
	if c.UploadBackend == "s3" {
		required["S3_BUCKET"] = c.S3.Bucket
	}
	for key, val := range required {
		if val == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	switch c.UploadBackend {
	case "disk", "s3":
	default:
		return fmt.Errorf("UPLOAD_BACKEND: unknown backend %q", c.UploadBackend)
	}
	if c.JWTExp <= 0 {
		return fmt.Errorf("JWT_EXP must be positive")
	}
	if c.LoginMaxAttempts <= 0 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be positive")
	}
	return nil
}

// randomKey returns a hex encoded 256-bit key.
func randomKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// fileStore is a cover image backend.
type fileStore interface {
	services.FileStorage
	handlers.FileOpener
}

func newFileStore(ctx context.Context, cfg config) (fileStore, error) {
	if cfg.UploadBackend == "s3" {
		client, err := storage.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return storage.NewS3Storage(client, cfg.S3.Bucket, cfg.S3.Prefix), nil
	}

	disk, err := storage.NewDiskStorage(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	return disk, nil
}

// app holds everything the router serves.
type app struct {
	tokener    middlewares.Tokener
	auth       *services.AuthService
	books      *services.BookService
	categories *services.CategoryService
	files      handlers.FileOpener
}

// newRouter sets up routes and middleware.
func newRouter(a app, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware(logger.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Public routes
	r.Get("/", handlers.NewIndexHandler())
	r.Post("/users", handlers.NewRegisterHandler(a.auth))
	r.Post("/users/sign-in", handlers.NewLoginHandler(a.auth))
	r.Get("/uploads/{filename}", handlers.NewUploadHandler(a.files))

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", handlers.NewListCategoriesHandler(a.categories))
		r.Post("/", handlers.NewCreateCategoryHandler(a.categories))
		r.Get("/{id}", handlers.NewGetCategoryHandler(a.categories))
		r.Put("/{id}", handlers.NewUpdateCategoryHandler(a.categories))
		r.Delete("/{id}", handlers.NewDeleteCategoryHandler(a.categories))
	})

	// Protected routes with JWT middleware
	r.Group(func(r chi.Router) {
		r.Use(middlewares.AuthMiddleware(a.tokener))
		r.Get("/users/me", handlers.NewMeHandler(a.auth))
		r.Route("/books", func(r chi.Router) {
			r.Get("/", handlers.NewListBooksHandler(a.books))
			r.Post("/", handlers.NewCreateBookHandler(a.books))
			r.Get("/{id}", handlers.NewGetBookHandler(a.books))
			r.Put("/{id}", handlers.NewUpdateBookHandler(a.books))
			r.Delete("/{id}", handlers.NewDeleteBookHandler(a.books))
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	return r
}

// run initializes the logger, database, optional Redis and Kafka, the upload
// backend and the HTTP server. It handles graceful shutdown.
func run(ctx context.Context, cfg config) error {
	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel, cfg.development()); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Sync()
	log := logger.Log
	log.Infof("Logger initialized with level %s", cfg.LogLevel)

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.PGUser, cfg.PGPassword, cfg.PGHost, cfg.PGPort, cfg.PGDB)
	log.Infow("Connecting to PostgreSQL", "host", cfg.PGHost, "port", cfg.PGPort, "db", cfg.PGDB)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return fmt.Errorf("PostgreSQL connection error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.PGMaxOpenConns)
	db.SetMaxIdleConns(cfg.PGMaxIdleConns)

	// Signing key
	secret := cfg.JWTSecretKey
	if secret == "" {
		if secret, err = randomKey(); err != nil {
			return fmt.Errorf("generate signing key: %w", err)
		}
		log.Warn("JWT_SECRET_KEY is not set, using a random key; tokens will not survive a restart")
	}
	tokens := jwt.New(jwt.WithSecretKey(secret), jwt.WithExpiration(cfg.JWTExp))

	// Upload storage
	files, err := newFileStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("upload storage: %w", err)
	}
	log.Infow("Upload storage ready", "backend", cfg.UploadBackend)

	// Sign-in throttle
	var limiter services.LoginLimiter
	if cfg.RedisHost != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warnw("Redis is unreachable, sign-in throttle fails open until it recovers", "error", err)
		}
		limiter = repositories.NewLoginAttemptRepository(rdb, cfg.LoginMaxAttempts, cfg.LoginAttemptWindow)
	}

	// Book events
	var events services.KafkaWriter
	if len(cfg.KafkaBrokers) > 0 {
		kw := &kafka.Writer{
			Addr:                   kafka.TCP(cfg.KafkaBrokers...),
			Topic:                  cfg.KafkaTopic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		}
		defer kw.Close()
		events = kw
		log.Infow("Publishing book events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(db)
	userWriteRepo := repositories.NewUserWriteRepository(db)
	bookReadRepo := repositories.NewBookReadRepository(db)
	bookWriteRepo := repositories.NewBookWriteRepository(db)
	categoryReadRepo := repositories.NewCategoryReadRepository(db)
	categoryWriteRepo := repositories.NewCategoryWriteRepository(db)

	// Initialize services and router
	router := newRouter(app{
		tokener:    tokens,
		auth:       services.NewAuthService(userReadRepo, userWriteRepo, tokens, limiter),
		books:      services.NewBookService(bookReadRepo, bookWriteRepo, files, events),
		categories: services.NewCategoryService(categoryReadRepo, categoryWriteRepo),
		files:      files,
	}, cfg.CORSAllowedOrigins)

	docs.SwaggerInfo.Host = fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		log.Infof("HTTP server listening on %s:%s", cfg.AppHost, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	}

	log.Info("HTTP server stopped gracefully")
	return nil
}
