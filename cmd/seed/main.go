// Command seed creates the first admin account and, optionally, loads a
// catalog file of categories and products.
//
// Usage:
//
//	SEED_ADMIN_EMAIL=owner@example.com SEED_ADMIN_PASSWORD=... go run ./cmd/seed
//	go run ./cmd/seed -catalog catalog.json
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"curate/internal/db"
	"curate/internal/domain/catalog"
	"curate/internal/imagestore"
	"curate/internal/importer"
	"curate/internal/logger"
	"curate/internal/slug"
	"curate/internal/store"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

type config struct {
	DBAddr        string `envconfig:"DB_ADDR" required:"true"`
	CloudinaryURL string `envconfig:"CLOUDINARY_URL" required:"true"`
	Folder        string `envconfig:"CLOUDINARY_FOLDER" default:"curate"`
	AdminEmail    string `envconfig:"SEED_ADMIN_EMAIL"`
	AdminPassword string `envconfig:"SEED_ADMIN_PASSWORD"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
}

var catalogFile = flag.String("catalog", "", "JSON file with categories and products to create")

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	sqlDB, err := db.OpenSQL(cfg.DBAddr, 2, "1m")
	if err != nil {
		logger.Fatal(err)
	}
	defer sqlDB.Close()

	if err := db.Migrate(sqlDB); err != nil {
		logger.Fatal(err)
	}

	storage := store.NewStorage(sqlDB)
	created, err := storage.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	switch {
	case errors.Is(err, store.ErrSeedCredentials):
		logger.Infow("admin seed skipped", "reason", err)
	case err != nil:
		logger.Fatal(err)
	case created:
		logger.Infow("admin account seeded", "email", cfg.AdminEmail)
	default:
		logger.Info("admin account already exists")
	}

	if *catalogFile == "" {
		return
	}

	pool, err := db.New(cfg.DBAddr, 4, "1m")
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()

	cld, err := imagestore.NewCloudinary(cfg.CloudinaryURL, cfg.Folder)
	if err != nil {
		logger.Fatal(err)
	}

	svc := catalog.NewService(catalog.NewRepository(pool), cld, logger)
	if err := seedCatalog(ctx, svc, *catalogFile, logger); err != nil {
		logger.Fatal(err)
	}
}

// seedCatalog creates products first so categories can reference them by
// slug. Records that already exist are skipped, so the file can be re-run.
func seedCatalog(ctx context.Context, svc *catalog.Service, path string, logger *zap.SugaredLogger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	file, err := importer.ParseCatalog(f)
	if err != nil {
		return err
	}

	var products, categories int
	for i := range file.Products {
		draft := &file.Products[i]
		_, err := svc.CreateProduct(ctx, draft.Product())
		switch {
		case errors.Is(err, catalog.ErrConflict):
			logger.Infow("product exists, skipping", "name", draft.Name)
		case err != nil:
			return fmt.Errorf("product %q: %w", draft.Name, err)
		default:
			products++
		}
	}

	for _, seed := range file.Categories {
		ids := make([]string, 0, len(seed.ProductSlugs))
		for _, s := range seed.ProductSlugs {
			p, err := svc.GetProduct(ctx, slug.Generate(s))
			if err != nil {
				if errors.Is(err, catalog.ErrProductNotFound) {
					logger.Warnw("unknown product slug", "category", seed.Name, "slug", s)
					continue
				}
				return err
			}
			ids = append(ids, p.ID)
		}

		_, err := svc.CreateCategory(ctx, catalog.CategoryInput{
			Name:           seed.Name,
			ImageUploadURL: seed.ImageUploadURL,
			ProductIDs:     ids,
		})
		switch {
		case errors.Is(err, catalog.ErrDuplicateCategory), errors.Is(err, catalog.ErrConflict):
			logger.Infow("category exists, skipping", "name", seed.Name)
		case err != nil:
			return fmt.Errorf("category %q: %w", seed.Name, err)
		default:
			categories++
		}
	}

	logger.Infow("catalog seeded", "products", products, "categories", categories)
	return nil
}
