package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"agromart.store/app/internal/shared/dbx"
	"agromart.store/app/internal/shared/slug"
	"agromart.store/app/internal/storage"
)

var (
	ErrInvalidPrice    = errors.New("catalog: price must be positive")
	ErrUnknownCategory = errors.New("catalog: unknown category")
)

// maxSlugAttempts bounds the name-2, name-3, ... suffix search.
const maxSlugAttempts = 20

// Upload is an optional image attached to a create call.
type Upload struct {
	Body        io.Reader
	Filename    string
	ContentType string
	Size        int64
}

type Service struct {
	repo  *Repo
	files storage.Storage
}

func NewService(repo *Repo, files storage.Storage) *Service {
	return &Service{repo: repo, files: files}
}

type CreateCategoryInput struct {
	Name  string
	Icon  string
	Image *Upload
}

type CreateProductInput struct {
	CategoryID  uint
	Name        string
	Price       decimal.Decimal
	Description string
	Image       *Upload
}

func (s *Service) CreateCategory(ctx context.Context, in CreateCategoryInput) (Category, error) {
	c := Category{
		Name: strings.TrimSpace(in.Name),
		Icon: strings.TrimSpace(in.Icon),
	}
	if c.Icon == "" {
		c.Icon = "fas fa-leaf"
	}
	url, err := s.upload(ctx, in.Image, "categories")
	if err != nil {
		return Category{}, err
	}
	c.ImageURL = url

	base := slug.FromName(c.Name)
	for n := 1; n <= maxSlugAttempts; n++ {
		c.ID = 0
		c.Slug = slug.WithSuffix(base, n)
		err := s.repo.CreateCategory(ctx, &c)
		if err == nil {
			return c, nil
		}
		if !dbx.IsDuplicateKey(err) {
			return Category{}, err
		}
	}
	return Category{}, fmt.Errorf("catalog: no free slug for %q", base)
}

func (s *Service) CreateProduct(ctx context.Context, in CreateProductInput) (Product, error) {
	if !in.Price.IsPositive() {
		return Product{}, ErrInvalidPrice
	}
	if _, err := s.categoryByID(ctx, in.CategoryID); err != nil {
		return Product{}, err
	}

	p := Product{
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Price:       in.Price.Round(2),
		Description: strings.TrimSpace(in.Description),
	}
	url, err := s.upload(ctx, in.Image, "products")
	if err != nil {
		return Product{}, err
	}
	p.ImageURL = url

	base := slug.FromName(p.Name)
	for n := 1; n <= maxSlugAttempts; n++ {
		p.ID = 0
		p.Slug = slug.WithSuffix(base, n)
		err := s.repo.CreateProduct(ctx, &p)
		if err == nil {
			return p, nil
		}
		if !dbx.IsDuplicateKey(err) {
			return Product{}, err
		}
	}
	return Product{}, fmt.Errorf("catalog: no free slug for %q", base)
}

func (s *Service) categoryByID(ctx context.Context, id uint) (Category, error) {
	var c Category
	err := s.repo.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if dbx.IsNotFound(err) {
		return Category{}, ErrUnknownCategory
	}
	return c, err
}

func (s *Service) upload(ctx context.Context, up *Upload, folder string) (string, error) {
	if up == nil || up.Body == nil {
		return "", nil
	}
	if s.files == nil {
		return "", errors.New("catalog: image storage not configured")
	}
	res, err := s.files.Put(ctx, up.Body, storage.PutInput{
		Filename:    up.Filename,
		ContentType: up.ContentType,
		Size:        up.Size,
		Folder:      folder,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s image: %w", folder, err)
	}
	return res.URL, nil
}
