package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"curate/internal/auth"
	"curate/internal/db"
	"curate/internal/domain/catalog"
	"curate/internal/imagestore"
	"curate/internal/logger"
	"curate/internal/mailer"
	"curate/internal/ratelimiter"
	"curate/internal/store"

	"github.com/joho/godotenv"
)

var version = "1.0.0"

//	@title			Curate API
//	@description	API for Curate, an affiliate home-decor catalog with an admin console.

//	@BasePath					/api
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token from /auth/login

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// Database: pgx pool for the catalog, database/sql for admins, feedback and migrations
	pool, err := db.New(cfg.DB.Addr, cfg.DB.MaxConns, cfg.DB.MaxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()

	sqlDB, err := db.OpenSQL(cfg.DB.Addr, int(cfg.DB.MaxConns), cfg.DB.MaxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer sqlDB.Close()
	logger.Info("database connection pool established")

	if err := db.Migrate(sqlDB); err != nil {
		logger.Fatal(err)
	}
	logger.Info("database migrations applied")

	storage := store.NewStorage(sqlDB)

	// Cloudinary
	cld, err := imagestore.NewCloudinary(cfg.Cloudinary.URL, cfg.Cloudinary.Folder)
	if err != nil {
		logger.Fatal(err)
	}

	catalogService := catalog.NewService(catalog.NewRepository(pool), cld, logger)

	// Mailer is optional; feedback still saves without it
	var mail mailer.Client
	smtp, err := mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	if err != nil {
		logger.Infow("feedback notifications disabled", "reason", err)
	} else {
		mail = smtp
	}

	rateLimiter := ratelimiter.NewFixedWindowLimiter(cfg.RateLimiter.RequestsPerTimeFrame, cfg.RateLimiter.TimeFrame)

	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.Auth.Token.Secret,
		cfg.Auth.Token.Iss,
		cfg.Auth.Token.Iss,
		cfg.Auth.Token.Exp,
	)

	app := &application{
		config:        cfg,
		logger:        logger,
		store:         storage,
		catalog:       catalogService,
		images:        cld,
		mailer:        mail,
		authenticator: jwtAuthenticator,
		rateLimiter:   rateLimiter,
	}

	if cfg.Seed.Enabled {
		created, err := storage.SeedAdmin(context.Background(), cfg.Seed.Email, cfg.Seed.Password)
		if err != nil {
			logger.Fatal(err)
		}
		if created {
			logger.Infow("admin account seeded", "email", cfg.Seed.Email)
		}
	}

	//Metrics collected http://localhost:8080/api/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		return sqlDB.Stats()
	}))
	expvar.Publish("catalog_pool", expvar.Func(func() any {
		s := pool.Stat()
		return map[string]any{
			"total_conns":    s.TotalConns(),
			"idle_conns":     s.IdleConns(),
			"acquired_conns": s.AcquiredConns(),
		}
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
