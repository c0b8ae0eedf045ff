package controllers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/amaurycolochos7/shopp-kingice/middleware"
	"github.com/amaurycolochos7/shopp-kingice/models"
	"github.com/amaurycolochos7/shopp-kingice/services"
	"github.com/amaurycolochos7/shopp-kingice/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAdmin = &middleware.Principal{ID: 42, Username: "joyero", Role: models.RoleAdmin}

// createTestOrder checks a ring out through the API and returns the receipt
func createTestOrder(t *testing.T, api *testAPI, email string) OrderReceipt {
	t.Helper()
	w := performRequest(t, api.router, http.MethodPost, "/api/orders", storefrontCheckout(email, 0))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var receipt OrderReceipt
	decodeData(t, w, &receipt)
	return receipt
}

func TestCreateOrder(t *testing.T) {
	api := newTestAPI(t, nil)
	category := testutil.CreateCategory(t, api.db, "Anillos", "anillos")
	product := testutil.CreateProduct(t, api.db, category, "Ring", "ANI-001", 1000)

	w := performRequest(t, api.router, http.MethodPost, "/api/orders", storefrontCheckout("ana@example.com", product.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	env := decodeEnvelope(t, w)
	assert.Equal(t, "Order created", env.Message)

	var receipt OrderReceipt
	decodeData(t, w, &receipt)
	assert.NotZero(t, receipt.ID)
	assert.True(t, strings.HasPrefix(receipt.OrderNumber, "KIG-"), receipt.OrderNumber)
	assert.Equal(t, "2150.00", receipt.Total.StringFixed(2))
	assert.Equal(t, models.StatusSentToWhatsApp, receipt.Status)
	assert.Equal(t, models.SourceWhatsApp, receipt.Source)
	assert.True(t, receipt.HasWhatsAppMessage)
	require.NotNil(t, receipt.WhatsAppMessage)
	assert.Equal(t, "Hola, quiero confirmar mi pedido", *receipt.WhatsAppMessage)

	var item models.OrderItem
	require.NoError(t, api.db.Where("order_id = ?", receipt.ID).Take(&item).Error)
	require.NotNil(t, item.ProductID, "the storefront's item id is the product reference")
	assert.Equal(t, product.ID, *item.ProductID)
	assert.Equal(t, models.SelectedOptions{"talla": "8"}, item.SelectedOptions)
}

func TestCreateOrder_LegacyPayloads(t *testing.T) {
	api := newTestAPI(t, nil)

	body := storefrontCheckout("legacy@example.com", 0)
	body["items"] = []gin.H{{"name": "Chain", "price": "499.50", "quantity": 1, "options": []string{}}}
	delete(body, "subtotal")
	delete(body, "total")
	delete(body, "whatsapp_message")

	w := performRequest(t, api.router, http.MethodPost, "/api/orders", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var receipt OrderReceipt
	decodeData(t, w, &receipt)
	assert.Equal(t, "649.50", receipt.Total.StringFixed(2))
	assert.False(t, receipt.HasWhatsAppMessage)
	assert.Nil(t, receipt.WhatsAppMessage)
}

func TestCreateOrder_BlankWhatsAppMessage(t *testing.T) {
	api := newTestAPI(t, nil)

	body := storefrontCheckout("blank@example.com", 0)
	body["whatsapp_message"] = "   "

	w := performRequest(t, api.router, http.MethodPost, "/api/orders", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"whatsapp_message":null`)

	var receipt OrderReceipt
	decodeData(t, w, &receipt)
	assert.False(t, receipt.HasWhatsAppMessage)

	var order models.Order
	require.NoError(t, api.db.Take(&order, receipt.ID).Error)
	assert.Nil(t, order.WhatsAppMessage)
}

func TestCreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name      string
		body      interface{}
		wantField string
	}{
		{
			name: "malformed json",
			body: `{"customer":`,
		},
		{
			name: "missing customer",
			body: gin.H{"items": []gin.H{{"name": "Ring", "price": 10, "quantity": 1}}},
		},
		{
			name: "options as a list of values",
			body: func() gin.H {
				b := storefrontCheckout("x@example.com", 0)
				b["items"] = []gin.H{{"name": "Ring", "price": 10, "quantity": 1, "options": []string{"8"}}}
				return b
			}(),
		},
		{
			name: "empty cart",
			body: func() gin.H {
				b := storefrontCheckout("x@example.com", 0)
				b["items"] = []gin.H{}
				return b
			}(),
			wantField: "items",
		},
		{
			name:      "invalid email",
			body:      storefrontCheckout("not-an-email", 0),
			wantField: "customer.email",
		},
		{
			name:      "email with display name",
			body:      storefrontCheckout("Ana <ana@example.com>", 0),
			wantField: "customer.email",
		},
		{
			name: "missing email",
			body: func() gin.H {
				b := storefrontCheckout("x@example.com", 0)
				b["customer"].(gin.H)["email"] = ""
				return b
			}(),
			wantField: "customer.email",
		},
		{
			name: "zero quantity",
			body: func() gin.H {
				b := storefrontCheckout("x@example.com", 0)
				b["items"] = []gin.H{{"name": "Ring", "price": 10, "quantity": 0}}
				return b
			}(),
			wantField: "items[0].quantity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, nil)

			w := performRequest(t, api.router, http.MethodPost, "/api/orders", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			env := decodeEnvelope(t, w)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, env.Error.Field)
			}

			var count int64
			require.NoError(t, api.db.Model(&models.Order{}).Count(&count).Error)
			assert.Zero(t, count)
		})
	}
}

func TestGetOrder_Public(t *testing.T) {
	api := newTestAPI(t, nil)
	receipt := createTestOrder(t, api, "private@example.com")

	t.Run("by order number without customer data", func(t *testing.T) {
		w := performRequest(t, api.router, http.MethodGet, "/api/orders/"+receipt.OrderNumber, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "private@example.com")
		assert.NotContains(t, w.Body.String(), "5512345678")
		assert.NotContains(t, w.Body.String(), "Reforma")

		var order PublicOrder
		decodeData(t, w, &order)
		assert.Equal(t, receipt.ID, order.ID)
		require.Len(t, order.Items, 1)
		assert.Equal(t, "2000.00", order.Items[0].Subtotal.StringFixed(2))
	})

	t.Run("legacy status is reported as sent_to_whatsapp", func(t *testing.T) {
		require.NoError(t, api.db.Exec("UPDATE orders SET status = 'pending' WHERE id = ?", receipt.ID).Error)

		w := performRequest(t, api.router, http.MethodGet, "/api/orders/"+receipt.OrderNumber, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var order PublicOrder
		decodeData(t, w, &order)
		assert.Equal(t, models.StatusSentToWhatsApp, order.Status)
	})

	t.Run("unknown order", func(t *testing.T) {
		for _, key := range []string{"999", "KIG-000000-NOPE"} {
			w := performRequest(t, api.router, http.MethodGet, "/api/orders/"+key, nil)
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, w).Error.Code)
		}
	})
}

func TestListOrders(t *testing.T) {
	api := newTestAPI(t, testAdmin)
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		createTestOrder(t, api, email)
	}

	t.Run("paginates newest first", func(t *testing.T) {
		w := performRequest(t, api.router, http.MethodGet, "/api/orders?page=1&limit=2", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page services.OrderPage
		decodeData(t, w, &page)
		assert.Equal(t, int64(3), page.Total)
		assert.Equal(t, 2, page.Pages)
		require.Len(t, page.Orders, 2)
		assert.Equal(t, "c@example.com", page.Orders[0].Customer.Email)
	})

	t.Run("malformed paging falls back to defaults", func(t *testing.T) {
		w := performRequest(t, api.router, http.MethodGet, "/api/orders?page=abc&limit=", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page services.OrderPage
		decodeData(t, w, &page)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 20, page.Limit)
	})

	t.Run("filters by status", func(t *testing.T) {
		w := performRequest(t, api.router, http.MethodGet, "/api/orders?status=confirmed", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page services.OrderPage
		decodeData(t, w, &page)
		assert.Zero(t, page.Total)
		assert.Empty(t, page.Orders)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		w := performRequest(t, api.router, http.MethodGet, "/api/orders?status=lost", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateOrderStatus(t *testing.T) {
	api := newTestAPI(t, testAdmin)
	receipt := createTestOrder(t, api, "status@example.com")
	path := fmt.Sprintf("/api/orders/%d/status", receipt.ID)

	t.Run("skipping confirmation is refused", func(t *testing.T) {
		w := performRequest(t, api.router, http.MethodPatch, path, gin.H{"status": "shipped"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_TRANSITION", decodeEnvelope(t, w).Error.Code)

		var order models.Order
		require.NoError(t, api.db.First(&order, receipt.ID).Error)
		assert.Equal(t, models.StatusSentToWhatsApp, order.Status)
	})

	t.Run("confirm records the acting admin", func(t *testing.T) {
		w := performRequest(t, api.router, http.MethodPatch, path, gin.H{"status": "confirmed", "payment_reference": "SPEI-123"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var order models.Order
		decodeData(t, w, &order)
		assert.Equal(t, models.StatusConfirmed, order.Status)
		require.NotNil(t, order.AdminConfirmedBy)
		assert.Equal(t, testAdmin.ID, *order.AdminConfirmedBy)
		require.NotNil(t, order.PaymentReference)
		assert.Equal(t, "SPEI-123", *order.PaymentReference)
	})

	t.Run("ship with tracking number", func(t *testing.T) {
		w := performRequest(t, api.router, http.MethodPatch, path, gin.H{"status": "shipped", "tracking_number": "DHL123"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var order models.Order
		decodeData(t, w, &order)
		assert.Equal(t, models.StatusShipped, order.Status)
		assert.NotNil(t, order.ShippedAt)
	})

	t.Run("bad requests", func(t *testing.T) {
		tests := []struct {
			name       string
			path       string
			body       interface{}
			wantStatus int
			wantCode   string
		}{
			{"non numeric id", "/api/orders/abc/status", gin.H{"status": "confirmed"}, http.StatusBadRequest, "VALIDATION_ERROR"},
			{"unknown order", "/api/orders/999/status", gin.H{"status": "confirmed"}, http.StatusNotFound, "NOT_FOUND"},
			{"empty body", path, gin.H{}, http.StatusBadRequest, "VALIDATION_ERROR"},
			{"legacy status", path, gin.H{"status": "pending"}, http.StatusBadRequest, "VALIDATION_ERROR"},
			{"malformed json", path, `{"status":`, http.StatusBadRequest, "VALIDATION_ERROR"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := performRequest(t, api.router, http.MethodPatch, tt.path, tt.body)
				assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
				assert.Equal(t, tt.wantCode, decodeEnvelope(t, w).Error.Code)
			})
		}
	})
}

func TestUpdateOrderStatus_RequiresPrincipal(t *testing.T) {
	api := newTestAPI(t, nil)
	receipt := createTestOrder(t, api, "anon@example.com")

	w := performRequest(t, api.router, http.MethodPatch, fmt.Sprintf("/api/orders/%d/status", receipt.ID), gin.H{"status": "confirmed"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "MISSING_PRINCIPAL", decodeEnvelope(t, w).Error.Code)
}

func TestExportOrders(t *testing.T) {
	api := newTestAPI(t, testAdmin)
	first := createTestOrder(t, api, "first@example.com")
	createTestOrder(t, api, "second@example.com")

	_, err := api.orders.UpdateStatus(t.Context(), first.ID, services.StatusUpdateInput{Status: "confirmed", ActorID: testAdmin.ID})
	require.NoError(t, err)

	t.Run("all orders", func(t *testing.T) {
		w := performRequest(t, api.router, http.MethodGet, "/api/orders/export", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=\"orders-")

		records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "order_number", records[0][0])
		assert.Contains(t, records[0], "customer_email")
		assert.Equal(t, "second@example.com", records[1][4])
		assert.Equal(t, "2x Ring", records[1][8])
		assert.Equal(t, "2150.00", records[1][12])
	})

	t.Run("filtered by status", func(t *testing.T) {
		w := performRequest(t, api.router, http.MethodGet, "/api/orders/export?status=confirmed", nil)
		require.Equal(t, http.StatusOK, w.Code)

		records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, first.OrderNumber, records[1][0])
		assert.Equal(t, "confirmed", records[1][2])
	})

	t.Run("unknown status", func(t *testing.T) {
		w := performRequest(t, api.router, http.MethodGet, "/api/orders/export?status=lost", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
