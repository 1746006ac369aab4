package admin

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"agromart.store/app/internal/http/middleware"
	"agromart.store/app/internal/modules/catalog"
	"agromart.store/app/internal/shared/apperr"
	"agromart.store/app/internal/storage"
)

const maxImageBytes = 5 << 20

type CatalogHandler struct {
	Svc *catalog.Service
}

func NewCatalogHandler(svc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{Svc: svc}
}

// CreateCategory handles POST /admin/categories (multipart: name, icon, image).
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		middleware.Fail(c, apperr.InvalidErr("Check the highlighted fields.", map[string]string{"name": "This field is required."}))
		return
	}
	up, closeFn, ok := formImage(c)
	if !ok {
		return
	}
	defer closeFn()

	cat, err := h.Svc.CreateCategory(c.Request.Context(), catalog.CreateCategoryInput{
		Name:  name,
		Icon:  c.PostForm("icon"),
		Image: up,
	})
	if err != nil {
		middleware.Fail(c, catalogError(err))
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// CreateProduct handles POST /admin/products
// (multipart: category_id, name, price, description, image).
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	fields := map[string]string{}
	catID, err := strconv.ParseUint(c.PostForm("category_id"), 10, 32)
	if err != nil || catID == 0 {
		fields["category_id"] = "Choose a category."
	}
	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		fields["name"] = "This field is required."
	}
	price, err := decimal.NewFromString(strings.TrimSpace(c.PostForm("price")))
	if err != nil {
		fields["price"] = "Enter a price like 49.99."
	}
	if len(fields) > 0 {
		middleware.Fail(c, apperr.InvalidErr("Check the highlighted fields.", fields))
		return
	}

	up, closeFn, ok := formImage(c)
	if !ok {
		return
	}
	defer closeFn()

	p, err := h.Svc.CreateProduct(c.Request.Context(), catalog.CreateProductInput{
		CategoryID:  uint(catID),
		Name:        name,
		Price:       price,
		Description: c.PostForm("description"),
		Image:       up,
	})
	if err != nil {
		middleware.Fail(c, catalogError(err))
		return
	}
	c.JSON(http.StatusCreated, p)
}

// formImage opens the optional "image" part. ok is false once a response
// has been written.
func formImage(c *gin.Context) (*catalog.Upload, func(), bool) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, true
	}
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid upload.", map[string]string{"image": "Could not read the file."}))
		return nil, nil, false
	}
	if fh.Size > maxImageBytes {
		middleware.Fail(c, apperr.InvalidErr("Invalid upload.", map[string]string{"image": "Images must be 5 MB or smaller."}))
		return nil, nil, false
	}
	f, err := fh.Open()
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return nil, nil, false
	}
	return uploadFrom(f, fh), func() { _ = f.Close() }, true
}

func uploadFrom(f multipart.File, fh *multipart.FileHeader) *catalog.Upload {
	return &catalog.Upload{
		Body:        f,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	}
}

func catalogError(err error) error {
	switch {
	case errors.Is(err, catalog.ErrInvalidPrice):
		return apperr.InvalidErr("Check the highlighted fields.", map[string]string{"price": "Price must be greater than zero."})
	case errors.Is(err, catalog.ErrUnknownCategory):
		return apperr.InvalidErr("Check the highlighted fields.", map[string]string{"category_id": "Choose a category."})
	case errors.Is(err, storage.ErrUnsupportedType):
		return apperr.InvalidErr("Invalid upload.", map[string]string{"image": "Upload a jpg, png, gif or webp image."})
	default:
		return apperr.Wrap(err)
	}
}
