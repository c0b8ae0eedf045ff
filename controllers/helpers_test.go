package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amaurycolochos7/shopp-kingice/middleware"
	"github.com/amaurycolochos7/shopp-kingice/services"
	"github.com/amaurycolochos7/shopp-kingice/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// envelope mirrors the JSON shape every handler answers with
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field"`
		Details string `json:"details"`
	} `json:"error"`
}

type testAPI struct {
	router  *gin.Engine
	db      *gorm.DB
	orders  *services.OrderService
	storage *services.MockS3Service
}

// asAdmin stands in for the token middleware
func asAdmin(principal *middleware.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		if principal != nil {
			middleware.SetPrincipal(c, principal)
		}
		c.Next()
	}
}

// newTestAPI wires the controllers against an in-memory database. principal
// is attached to every request; nil leaves requests anonymous.
func newTestAPI(t *testing.T, principal *middleware.Principal) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	numbers, err := services.NewSequenceNumberGenerator(1)
	require.NoError(t, err)

	storage := services.NewMockS3Service()
	orderService := services.NewOrderService(db, numbers, nil, zap.NewNop())
	catalogService := services.NewCatalogService(db, services.NewImageService(storage, "products"), zap.NewNop())

	orders := NewOrderController(orderService, zap.NewNop(), false)
	dashboard := NewDashboardController(services.NewDashboardService(db), zap.NewNop(), false)
	catalog := NewCatalogController(catalogService, zap.NewNop(), false)

	router := gin.New()
	api := router.Group("/api", asAdmin(principal))
	{
		api.POST("/orders", orders.CreateOrder)
		api.GET("/orders", orders.ListOrders)
		api.GET("/orders/export", orders.ExportOrders)
		api.GET("/orders/:idOrNumber", orders.GetOrder)
		api.PATCH("/orders/:id/status", orders.UpdateOrderStatus)

		api.GET("/dashboard/stats", dashboard.Stats)
		api.GET("/dashboard/recent", dashboard.Recent)

		api.GET("/categories", catalog.ListCategories)
		api.GET("/categories/:slug", catalog.GetCategory)
		api.POST("/categories", catalog.CreateCategory)
		api.PUT("/categories/:id", catalog.UpdateCategory)
		api.DELETE("/categories/:id", catalog.DeleteCategory)
		api.GET("/products", catalog.ListProducts)
		api.GET("/products/featured", catalog.FeaturedProducts)
		api.GET("/products/:id", catalog.GetProduct)
		api.POST("/products", catalog.CreateProduct)
		api.PUT("/products/:id", catalog.UpdateProduct)
		api.DELETE("/products/:id", catalog.DeleteProduct)
		api.POST("/products/:id/images", catalog.UploadProductImage)
	}

	return &testAPI{router: router, db: db, orders: orderService, storage: storage}
}

func performRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	env := decodeEnvelope(t, w)
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

// storefrontCheckout is the body the storefront posts for one ring
func storefrontCheckout(email string, productID uint) gin.H {
	return gin.H{
		"customer": gin.H{
			"name":     "Ana López",
			"email":    email,
			"phone":    "5512345678",
			"street":   "Av. Reforma 100",
			"colony":   "Juárez",
			"city":     "CDMX",
			"state":    "CDMX",
			"zip_code": "06600",
		},
		"items": []gin.H{
			{
				"id":       productID,
				"name":     "Ring",
				"sku":      "ANI-001",
				"price":    1000,
				"quantity": 2,
				"options":  gin.H{"talla": "8"},
			},
		},
		"subtotal":         2000,
		"shipping_cost":    150,
		"discount":         0,
		"total":            2150,
		"payment_method":   "transferencia",
		"whatsapp_message": "Hola, quiero confirmar mi pedido",
	}
}
