package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"minhacomanda-api/config"
	"minhacomanda-api/handlers"
	"minhacomanda-api/ledger"
	"minhacomanda-api/models"
	"minhacomanda-api/notify"
	"minhacomanda-api/routes"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testAPI struct {
	router *gin.Engine
	db     *gorm.DB
	cfg    *config.App

	restaurant *models.Restaurant
	table      *models.Table
	product    *models.Product
}

func newTestAPI(t *testing.T, cfg *config.App) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.JWTSecret = []byte("test-secret")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Restaurant{},
		&models.Table{},
		&models.Category{},
		&models.Product{},
		&models.StaffUser{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderEvent{},
		&models.WaiterCall{},
	))

	if cfg == nil {
		cfg = &config.App{PixProvider: "disabled", PublicBaseURL: "http://localhost:8080"}
	}

	telegram := notify.NewTelegram("", 0, "") // unconfigured: every notify call is a no-op
	h := handlers.New(db, cfg, ledger.New(db), telegram)

	r := gin.New()
	routes.SetupRoutes(r, h)

	api := &testAPI{router: r, db: db, cfg: cfg}
	api.seed(t)
	return api
}

func (a *testAPI) seed(t *testing.T) {
	t.Helper()
	restaurant := models.Restaurant{Name: "Cantina da Praça", Slug: "cantina", PixKey: "cantina@banco.com.br", IsOpen: true}
	require.NoError(t, a.db.Create(&restaurant).Error)

	table := models.Table{RestaurantID: restaurant.ID, Number: 4, QRToken: "tok-mesa-4", IsActive: true}
	require.NoError(t, a.db.Create(&table).Error)

	category := models.Category{RestaurantID: restaurant.ID, Name: "Lanches", Position: 1, IsActive: true}
	require.NoError(t, a.db.Create(&category).Error)

	product := models.Product{RestaurantID: restaurant.ID, CategoryID: category.ID, Name: "X-Burger", PriceCents: 2490, IsActive: true}
	require.NoError(t, a.db.Create(&product).Error)

	a.restaurant = &restaurant
	a.table = &table
	a.product = &product
}

func (a *testAPI) request(t *testing.T, method, path string, body interface{}, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// envelope decodes the standard {success,data,error} response body
type envelope struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Error   string                 `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func itoa(id uint) string {
	return fmt.Sprintf("%d", id)
}

// placeOrder creates an order through the public API and returns its id
func (a *testAPI) placeOrder(t *testing.T, qty int) uint {
	t.Helper()
	w := a.request(t, http.MethodPost, "/api/public/order/create", map[string]interface{}{
		"qrToken":      a.table.QRToken,
		"customerName": "Ana",
		"items": []map[string]interface{}{
			{"productId": a.product.ID, "qty": qty},
		},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	env := decode(t, w)
	return uint(env.Data["orderId"].(float64))
}
