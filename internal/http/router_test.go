package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apphttp "agromart.store/app/internal/http"
	"agromart.store/app/internal/http/middleware"
	"agromart.store/app/internal/mailer"
	"agromart.store/app/internal/modules/cart"
	"agromart.store/app/internal/modules/catalog"
	"agromart.store/app/internal/modules/email"
	"agromart.store/app/internal/modules/orders"
	"agromart.store/app/internal/modules/payments"
	"agromart.store/app/internal/modules/users"
	"agromart.store/app/internal/storage"
	"agromart.store/app/internal/testkit"
)

func init() { gin.SetMode(gin.TestMode) }

type app struct {
	r       *gin.Engine
	db      *gorm.DB
	gw      *payments.MockGateway
	mail    *mailer.Mock
	users   *users.Service
	product catalog.Product
}

func newApp(t *testing.T) *app {
	t.Helper()
	db := testkit.OpenDB(t,
		&users.User{}, &middleware.Session{},
		&catalog.Category{}, &catalog.Product{}, &cart.Item{},
		&orders.Order{}, &orders.Line{}, &payments.CallbackEvent{},
	)

	cat := catalog.Category{Name: "Fertilizers", Slug: "fertilizers"}
	require.NoError(t, db.Create(&cat).Error)
	p := catalog.Product{CategoryID: cat.ID, Name: "Neem Cake", Slug: "neem-cake", Price: decimal.RequireFromString("120.50")}
	require.NoError(t, db.Create(&p).Error)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalogRepo := catalog.NewRepo(db)
	carts := cart.NewService(cart.NewRepo(db), nil, logger)
	ord := orders.NewRepo(db)
	gw := payments.NewMockGateway("rzp_test_key", "s3cret")
	mail := &mailer.Mock{}
	notifier := email.NewNotifier(mail, email.NotifierCfg{
		FromAddr: "shop@agromart.local", FromName: "Agromart",
		ContactRecipient: "support@agromart.local", BaseURL: "http://localhost:8080",
	})

	checkout := payments.NewCheckoutService(db, carts, ord, gw, payments.NewMemoryLocker(), payments.CheckoutConfig{
		Currency:    "INR",
		CallbackURL: "http://localhost:8080" + apphttp.CallbackPath,
	})
	callbacks := payments.NewCallbackService(db, ord, carts, gw)
	callbacks.SetReceiptSender(notifier)

	userSvc := users.NewService(db).WithCost(bcrypt.MinCost)
	uploads := t.TempDir()

	r, err := apphttp.NewRouter(apphttp.Deps{
		Logger:          logger,
		DB:              db,
		Session:         middleware.SessionCfg{DB: db, CookieName: "agromart_session", TTL: time.Hour},
		UploadDir:       uploads,
		UploadURLPrefix: "/uploads",
		CatalogRepo:     catalogRepo,
		CatalogSvc:      catalog.NewService(catalogRepo, storage.NewLocal(uploads, "/uploads")),
		Carts:           carts,
		Checkout:        checkout,
		Callbacks:       callbacks,
		Orders:          ord,
		Users:           userSvc,
		Notifier:        notifier,
	})
	require.NoError(t, err)

	return &app{r: r, db: db, gw: gw, mail: mail, users: userSvc, product: p}
}

// browser keeps cookies between requests and echoes the CSRF token.
type browser struct {
	t       *testing.T
	r       *gin.Engine
	cookies map[string]*http.Cookie
	csrf    string
}

func (a *app) browser(t *testing.T) *browser {
	b := &browser{t: t, r: a.r, cookies: map[string]*http.Cookie{}}
	w := b.do(http.MethodGet, "/csrf-token", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Token string `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Token, 64)
	b.csrf = body.Token
	return b
}

func (b *browser) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	b.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if b.csrf != "" {
		req.Header.Set(middleware.CSRFHeaderName, b.csrf)
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	b.r.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return w
}

func (b *browser) json(method, path string, v any) *httptest.ResponseRecorder {
	b.t.Helper()
	var body io.Reader
	if v != nil {
		raw, err := json.Marshal(v)
		require.NoError(b.t, err)
		body = bytes.NewReader(raw)
	}
	return b.do(method, path, body, "application/json")
}

func (b *browser) register(username string) {
	b.t.Helper()
	w := b.json(http.MethodPost, "/auth/register", map[string]string{
		"username": username, "email": username + "@example.com", "password": "correct-horse",
	})
	require.Equal(b.t, http.StatusCreated, w.Code, w.Body.String())
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func shipping() map[string]string {
	return map[string]string{
		"first_name": "Ravi", "last_name": "Kumar", "email": "ravi@example.com",
		"phone": "9876543210", "address": "4 Mill Lane", "city": "Nashik",
		"state": "MH", "pin_code": "422001",
	}
}

func TestPurchaseFlow(t *testing.T) {
	a := newApp(t)
	b := a.browser(t)
	b.register("ravi")

	w := b.json(http.MethodPost, "/cart/items", map[string]any{"product_id": a.product.ID, "quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = b.do(http.MethodGet, "/cart/summary", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode[cart.Summary](t, w)
	assert.Equal(t, 2, sum.Count)
	assert.True(t, decimal.RequireFromString("241.00").Equal(sum.Total))

	w = b.json(http.MethodPost, "/checkout", shipping())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sess := decode[payments.Session](t, w)
	assert.Equal(t, int64(24100), sess.AmountMinor)
	assert.Equal(t, "INR", sess.Currency)
	assert.Equal(t, "rzp_test_key", sess.KeyID)
	require.NotEmpty(t, sess.GatewayOrderRef)

	form := url.Values{
		"razorpay_order_id":   {sess.GatewayOrderRef},
		"razorpay_payment_id": {"pay_flow_1"},
		"razorpay_signature":  {a.gw.SignFor(sess.GatewayOrderRef, "pay_flow_1")},
	}
	w = b.do(http.MethodPost, apphttp.CallbackPath, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	receiptPath := fmt.Sprintf("/orders/%d/receipt", sess.OrderID)
	assert.Equal(t, receiptPath, w.Header().Get("Location"))

	w = b.do(http.MethodGet, receiptPath, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	receipt := decode[struct {
		Order orders.Order  `json:"order"`
		Lines []orders.Line `json:"lines"`
	}](t, w)
	assert.True(t, receipt.Order.IsPaid)
	assert.Equal(t, orders.StatusPaid, receipt.Order.Status)
	require.Len(t, receipt.Lines, 1)
	assert.Equal(t, "Neem Cake", receipt.Lines[0].ProductName)

	w = b.do(http.MethodGet, "/cart", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[struct {
		Count int `json:"count"`
	}](t, w).Count)

	last, ok := a.mail.Last()
	require.True(t, ok)
	assert.Equal(t, []string{"ravi@example.com"}, last.To)

	// A replayed callback still lands on the receipt and sends nothing new.
	w = b.do(http.MethodPost, apphttp.CallbackPath, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, 1, a.mail.Count())

	w = b.do(http.MethodGet, "/orders", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Total int64 `json:"total"`
	}](t, w)
	assert.Equal(t, int64(1), list.Total)
}

func TestAnonymousCartIs401(t *testing.T) {
	a := newApp(t)
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decode[map[string]any](t, w)
	assert.NotEmpty(t, body["error"])
	assert.NotEmpty(t, body["request_id"])
}

func TestUnsafeRequestWithoutCSRFIs403(t *testing.T) {
	a := newApp(t)
	b := a.browser(t)
	b.csrf = ""

	w := b.json(http.MethodPost, "/auth/login", map[string]string{"username": "x", "password": "y"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCheckoutErrors(t *testing.T) {
	a := newApp(t)
	b := a.browser(t)
	b.register("meena")

	t.Run("empty cart redirects", func(t *testing.T) {
		w := b.json(http.MethodPost, "/checkout", shipping())
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/cart", w.Header().Get("Location"))
	})

	t.Run("invalid details", func(t *testing.T) {
		w := b.json(http.MethodPost, "/cart/items", map[string]any{"product_id": a.product.ID})
		require.Equal(t, http.StatusCreated, w.Code)

		in := shipping()
		in["email"] = "not-an-email"
		in["phone"] = "call me"
		w = b.json(http.MethodPost, "/checkout", in)
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decode[struct {
			Fields map[string]string `json:"fields"`
		}](t, w)
		assert.Contains(t, body.Fields, "email")
		assert.Contains(t, body.Fields, "phone")
	})

	t.Run("gateway down", func(t *testing.T) {
		a.gw.FailNext(payments.ErrGateway)
		w := b.json(http.MethodPost, "/checkout", shipping())
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestCallbackRejections(t *testing.T) {
	a := newApp(t)
	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, apphttp.CallbackPath, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		a.r.ServeHTTP(w, req)
		return w
	}

	w := post(url.Values{"razorpay_order_id": {"order_x"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_payload", decode[map[string]any](t, w)["outcome"])

	w = post(url.Values{
		"razorpay_order_id":   {"order_x"},
		"razorpay_payment_id": {"pay_x"},
		"razorpay_signature":  {"deadbeef"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "signature_invalid", decode[map[string]any](t, w)["outcome"])

	w = post(url.Values{
		"razorpay_order_id":   {"order_unknown"},
		"razorpay_payment_id": {"pay_x"},
		"razorpay_signature":  {a.gw.SignFor("order_unknown", "pay_x")},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[map[string]any](t, w)["outcome"])
}

func TestCallbackMalformedBodyIsAudited(t *testing.T) {
	a := newApp(t)
	req := httptest.NewRequest(http.MethodPost, apphttp.CallbackPath, strings.NewReader(`{"razorpay_order_id":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_payload", decode[map[string]any](t, w)["outcome"])

	var ev payments.CallbackEvent
	require.NoError(t, a.db.First(&ev).Error)
	require.NotNil(t, ev.Error)
	assert.True(t, strings.HasPrefix(*ev.Error, "decode callback:"), *ev.Error)
}

func TestCallbackStoreFailureIs500(t *testing.T) {
	a := newApp(t)
	require.NoError(t, a.db.Migrator().DropTable(&orders.Line{}, &orders.Order{}))

	form := url.Values{
		"razorpay_order_id":   {"order_x"},
		"razorpay_payment_id": {"pay_x"},
		"razorpay_signature":  {a.gw.SignFor("order_x", "pay_x")},
	}
	req := httptest.NewRequest(http.MethodPost, apphttp.CallbackPath, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "store_error", decode[map[string]any](t, w)["outcome"])
}

func TestReceiptOfAnotherUserIs404(t *testing.T) {
	a := newApp(t)
	owner := a.browser(t)
	owner.register("owner")
	require.Equal(t, http.StatusCreated, owner.json(http.MethodPost, "/cart/items", map[string]any{"product_id": a.product.ID}).Code)
	w := owner.json(http.MethodPost, "/checkout", shipping())
	require.Equal(t, http.StatusOK, w.Code)
	sess := decode[payments.Session](t, w)

	other := a.browser(t)
	other.register("other")
	w = other.do(http.MethodGet, fmt.Sprintf("/orders/%d/receipt", sess.OrderID), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	a := newApp(t)

	shopper := a.browser(t)
	shopper.register("shopper")
	assert.Equal(t, http.StatusForbidden, shopper.do(http.MethodGet, "/admin/orders", nil, "").Code)

	_, err := a.users.Register(t.Context(), users.RegisterInput{
		Username: "staff", Email: "staff@agromart.local", Password: "staff-password", IsStaff: true,
	})
	require.NoError(t, err)
	staff := a.browser(t)
	w := staff.json(http.MethodPost, "/auth/login", map[string]string{"username": "staff", "password": "staff-password"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Organic Manure"))
	part, err := mw.CreateFormFile("image", "manure.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w = staff.do(http.MethodPost, "/admin/categories", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cat := decode[catalog.Category](t, w)
	assert.Equal(t, "organic-manure", cat.Slug)
	assert.True(t, strings.HasPrefix(cat.ImageURL, "/uploads/categories/"))

	w = staff.do(http.MethodGet, cat.ImageURL, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = staff.do(http.MethodGet, "/admin/orders?status=paid", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestContactAlwaysAccepted(t *testing.T) {
	a := newApp(t)
	b := a.browser(t)

	w := b.json(http.MethodPost, "/contact", map[string]string{
		"name": "Lata", "email": "lata@example.com", "comment": "Do you ship to Goa?",
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	last, ok := a.mail.Last()
	require.True(t, ok)
	assert.Equal(t, "lata@example.com", last.ReplyTo)

	a.mail.Err = assert.AnError
	w = b.json(http.MethodPost, "/contact", map[string]string{
		"name": "Lata", "email": "lata@example.com", "comment": "Again",
	})
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = b.json(http.MethodPost, "/contact", map[string]string{"name": "Lata"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	a := newApp(t)
	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		a.r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/products?q=neem")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Products []catalog.Product `json:"products"`
		Total    int64             `json:"total"`
	}](t, w)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "neem-cake", list.Products[0].Slug)

	w = get("/categories/fertilizers")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusNotFound, get("/categories/nope").Code)
	assert.Equal(t, http.StatusNotFound, get(fmt.Sprintf("/products/%d", a.product.ID+100)).Code)
	assert.Equal(t, http.StatusNotFound, get("/products/abc").Code)

	w = get(fmt.Sprintf("/products/%d", a.product.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decimal.RequireFromString("120.50").Equal(decode[catalog.Product](t, w).Price))
}
