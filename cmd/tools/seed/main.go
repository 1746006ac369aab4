// Command seed migrates the schema and loads a starter catalog plus a staff
// account. Re-running it skips whatever already exists.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"

	"agromart.store/app/internal/config"
	"agromart.store/app/internal/database"
	"agromart.store/app/internal/modules/catalog"
	"agromart.store/app/internal/modules/users"
	"agromart.store/app/internal/storage"
)

type seedProduct struct {
	name, price, description string
}

var starter = []struct {
	name, icon string
	products   []seedProduct
}{
	{"Seeds", "fas fa-seedling", []seedProduct{
		{"Hybrid Tomato Seeds", "49.75", "High-yield hybrid, 10 g pack."},
		{"Paddy Seeds", "99.75", "Short-duration paddy, 1 kg."},
	}},
	{"Fertilizers", "fas fa-flask", []seedProduct{
		{"Neem Cake", "120.50", "Organic soil conditioner, 5 kg."},
		{"Vermicompost", "210.00", "Sieved vermicompost, 10 kg."},
	}},
	{"Tools", "fas fa-tools", []seedProduct{
		{"Hand Trowel", "150.00", "Stainless steel blade."},
	}},
}

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "Only run migrations")
	staffUser := flag.String("staff-user", "admin", "Staff username to create")
	staffPass := flag.String("staff-pass", os.Getenv("SEED_STAFF_PASSWORD"), "Staff password (SEED_STAFF_PASSWORD)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	if err := run(context.Background(), logger, *migrateOnly, *staffUser, *staffPass); err != nil {
		logger.Error("seed_failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, migrateOnly bool, staffUser, staffPass string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := database.Open(ctx, cfg.DB, false)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(ctx, db, logger); err != nil {
		return err
	}
	if migrateOnly {
		return nil
	}

	repo := catalog.NewRepo(db)
	existing, err := repo.ListCategories(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info("catalog_exists", "categories", len(existing))
	} else {
		files, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		svc := catalog.NewService(repo, files)
		for _, c := range starter {
			cat, err := svc.CreateCategory(ctx, catalog.CreateCategoryInput{Name: c.name, Icon: c.icon})
			if err != nil {
				return fmt.Errorf("category %q: %w", c.name, err)
			}
			for _, p := range c.products {
				_, err := svc.CreateProduct(ctx, catalog.CreateProductInput{
					CategoryID:  cat.ID,
					Name:        p.name,
					Price:       decimal.RequireFromString(p.price),
					Description: p.description,
				})
				if err != nil {
					return fmt.Errorf("product %q: %w", p.name, err)
				}
			}
			logger.Info("category_seeded", "slug", cat.Slug, "products", len(c.products))
		}
	}

	if staffPass == "" {
		logger.Info("staff_skipped", "reason", "no password given")
		return nil
	}
	_, err = users.NewService(db).Register(ctx, users.RegisterInput{
		Username: staffUser,
		Email:    staffUser + "@agromart.local",
		Password: staffPass,
		IsStaff:  true,
	})
	switch {
	case errors.Is(err, users.ErrUsernameTaken):
		logger.Info("staff_exists", "username", staffUser)
	case err != nil:
		return err
	default:
		logger.Info("staff_created", "username", staffUser)
	}
	return nil
}
