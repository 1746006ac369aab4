package catalog

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"agromart.store/app/internal/shared/dbx"
)

var ErrNotFound = errors.New("catalog: not found")

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

type ListParams struct {
	CategorySlug string
	Query        string
	Page         int
	PageSize     int
}

type ListResult struct {
	Items []Product
	Total int64
}

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *Repo) GetCategoryBySlug(ctx context.Context, slug string) (Category, error) {
	var c Category
	err := r.db.WithContext(ctx).First(&c, "slug = ?", slug).Error
	if dbx.IsNotFound(err) {
		return Category{}, ErrNotFound
	}
	return c, err
}

func (r *Repo) ListProducts(ctx context.Context, in ListParams) (ListResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 || size > 100 {
		size = 24
	}

	q := r.db.WithContext(ctx).Model(&Product{})
	if s := strings.TrimSpace(in.CategorySlug); s != "" {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", s)
	}
	if s := strings.TrimSpace(in.Query); s != "" {
		q = q.Where("products.name LIKE ?", "%"+s+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return ListResult{}, err
	}

	var items []Product
	if err := q.
		Preload("Category").
		Order("products.id DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&items).Error; err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

func (r *Repo) GetProduct(ctx context.Context, id uint) (Product, error) {
	var p Product
	err := r.db.WithContext(ctx).Preload("Category").First(&p, "id = ?", id).Error
	if dbx.IsNotFound(err) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *Repo) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	var p Product
	err := r.db.WithContext(ctx).Preload("Category").First(&p, "slug = ?", slug).Error
	if dbx.IsNotFound(err) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *Repo) CreateCategory(ctx context.Context, c *Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *Repo) CreateProduct(ctx context.Context, p *Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}
