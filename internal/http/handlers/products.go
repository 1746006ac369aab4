package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"agromart.store/app/internal/http/middleware"
	"agromart.store/app/internal/modules/catalog"
	"agromart.store/app/internal/shared/apperr"
)

type CatalogHandler struct {
	Repo *catalog.Repo
}

func NewCatalogHandler(repo *catalog.Repo) *CatalogHandler {
	return &CatalogHandler{Repo: repo}
}

// Home handles GET /: every category and the newest products.
func (h *CatalogHandler) Home(c *gin.Context) {
	ctx := c.Request.Context()
	cats, err := h.Repo.ListCategories(ctx)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	res, err := h.Repo.ListProducts(ctx, catalog.ListParams{PageSize: 12})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats, "products": res.Items})
}

// Category handles GET /categories/:slug.
func (h *CatalogHandler) Category(c *gin.Context) {
	ctx := c.Request.Context()
	cat, err := h.Repo.GetCategoryBySlug(ctx, c.Param("slug"))
	if errors.Is(err, catalog.ErrNotFound) {
		middleware.Fail(c, apperr.NotFoundErr("Category not found."))
		return
	}
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	page := queryInt(c, "page", 1)
	res, err := h.Repo.ListProducts(ctx, catalog.ListParams{CategorySlug: cat.Slug, Page: page})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": cat, "products": res.Items, "total": res.Total, "page": page})
}

// Products handles GET /products?category=&q=&page=.
func (h *CatalogHandler) Products(c *gin.Context) {
	page := queryInt(c, "page", 1)
	res, err := h.Repo.ListProducts(c.Request.Context(), catalog.ListParams{
		CategorySlug: c.Query("category"),
		Query:        c.Query("q"),
		Page:         page,
		PageSize:     queryInt(c, "page_size", 24),
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": res.Items, "total": res.Total, "page": page})
}

// Product handles GET /products/:id.
func (h *CatalogHandler) Product(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.Repo.GetProduct(c.Request.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		middleware.Fail(c, apperr.NotFoundErr("Product not found."))
		return
	}
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, p)
}
