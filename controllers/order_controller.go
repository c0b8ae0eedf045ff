package controllers

import (
	"net/http"
	"time"

	"github.com/amaurycolochos7/shopp-kingice/middleware"
	"github.com/amaurycolochos7/shopp-kingice/models"
	"github.com/amaurycolochos7/shopp-kingice/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CustomerRequest is the contact block of a checkout
type CustomerRequest struct {
	Name              string `json:"name"`
	Email             string `json:"email" binding:"required,email"`
	Phone             string `json:"phone"`
	Street            string `json:"street"`
	Colony            string `json:"colony"`
	City              string `json:"city"`
	State             string `json:"state"`
	ZipCode           string `json:"zip_code"`
	AddressReferences string `json:"address_references"`
}

// OrderItemRequest is one cart line. The storefront sends the product id as
// "id"; "product_id" is accepted as well.
type OrderItemRequest struct {
	ID        *uint                  `json:"id"`
	ProductID *uint                  `json:"product_id"`
	Name      string                 `json:"name"`
	SKU       string                 `json:"sku"`
	Price     decimal.Decimal        `json:"price"`
	Quantity  int                    `json:"quantity"`
	Options   models.SelectedOptions `json:"options"`
}

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	Customer        *CustomerRequest   `json:"customer" binding:"required"`
	Items           []OrderItemRequest `json:"items" binding:"required"`
	Subtotal        *decimal.Decimal   `json:"subtotal"`
	ShippingCost    *decimal.Decimal   `json:"shipping_cost"`
	Discount        *decimal.Decimal   `json:"discount"`
	Total           *decimal.Decimal   `json:"total"`
	PaymentMethod   string             `json:"payment_method"`
	Notes           string             `json:"notes"`
	WhatsAppMessage *string            `json:"whatsapp_message"`
}

// UpdateOrderStatusRequest represents the request body for PATCH /orders/:id/status
type UpdateOrderStatusRequest struct {
	Status           string  `json:"status"`
	TrackingNumber   *string `json:"tracking_number"`
	Notes            *string `json:"notes"`
	PaymentReference *string `json:"payment_reference"`
}

// OrderReceipt is what the storefront gets back after checkout
type OrderReceipt struct {
	ID                 uint               `json:"id"`
	OrderNumber        string             `json:"order_number"`
	Total              decimal.Decimal    `json:"total"`
	Status             models.OrderStatus `json:"status"`
	Source             string             `json:"source"`
	HasWhatsAppMessage bool               `json:"has_whatsapp_message"`
	WhatsAppMessage    *string            `json:"whatsapp_message"`
	CreatedAt          time.Time          `json:"created_at"`
}

// PublicOrder is the order view served without authentication. It carries no
// customer contact or delivery data.
type PublicOrder struct {
	ID             uint               `json:"id"`
	OrderNumber    string             `json:"order_number"`
	Status         models.OrderStatus `json:"status"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	ShippingCost   decimal.Decimal    `json:"shipping_cost"`
	Discount       decimal.Decimal    `json:"discount"`
	Total          decimal.Decimal    `json:"total"`
	PaymentMethod  string             `json:"payment_method"`
	Source         string             `json:"source"`
	TrackingNumber *string            `json:"tracking_number"`
	ShippedAt      *time.Time         `json:"shipped_at"`
	DeliveredAt    *time.Time         `json:"delivered_at"`
	Items          []PublicOrderItem  `json:"items"`
	CreatedAt      time.Time          `json:"created_at"`
}

// PublicOrderItem is one line of a PublicOrder
type PublicOrderItem struct {
	ProductID       *uint                  `json:"product_id"`
	ProductName     string                 `json:"product_name"`
	ProductSKU      string                 `json:"product_sku"`
	SelectedOptions models.SelectedOptions `json:"selected_options"`
	Quantity        int                    `json:"quantity"`
	UnitPrice       decimal.Decimal        `json:"unit_price"`
	Subtotal        decimal.Decimal        `json:"subtotal"`
}

// OrderController serves checkout and order administration
type OrderController struct {
	orders *services.OrderService
	logger *zap.Logger
	errorResponder
}

// NewOrderController creates an OrderController
func NewOrderController(orders *services.OrderService, logger *zap.Logger, exposeDetails bool) *OrderController {
	return &OrderController{
		orders:         orders,
		logger:         logger,
		errorResponder: newErrorResponder(logger, exposeDetails),
	}
}

// CreateOrder handles POST /api/orders - records a WhatsApp checkout (public)
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := oc.orders.CreateOrder(c.Request.Context(), req.toInput())
	if err != nil {
		oc.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Order created",
		"data": OrderReceipt{
			ID:                 order.ID,
			OrderNumber:        order.OrderNumber,
			Total:              order.Total,
			Status:             order.Status,
			Source:             order.Source,
			HasWhatsAppMessage: order.WhatsAppMessage != nil,
			WhatsAppMessage:    order.WhatsAppMessage,
			CreatedAt:          order.CreatedAt,
		},
	})
}

// GetOrder handles GET /api/orders/:idOrNumber - public order tracking
func (oc *OrderController) GetOrder(c *gin.Context) {
	order, err := oc.orders.GetOrder(c.Request.Context(), c.Param("idOrNumber"))
	if err != nil {
		oc.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, newPublicOrder(order))
}

// ListOrders handles GET /api/orders - paginated listing for admins
func (oc *OrderController) ListOrders(c *gin.Context) {
	page, err := oc.orders.ListOrders(c.Request.Context(), services.OrderQuery{
		Status: c.Query("status"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 20),
	})
	if err != nil {
		oc.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, page)
}

// UpdateOrderStatus handles PATCH /api/orders/:id/status
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		oc.respondError(c, err)
		return
	}

	principal, err := middleware.GetPrincipal(c)
	if err != nil {
		oc.respondError(c, err)
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := oc.orders.UpdateStatus(c.Request.Context(), id, services.StatusUpdateInput{
		Status:           req.Status,
		TrackingNumber:   req.TrackingNumber,
		Notes:            req.Notes,
		PaymentReference: req.PaymentReference,
		ActorID:          principal.ID,
	})
	if err != nil {
		oc.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, order)
}

func (r CreateOrderRequest) toInput() services.CreateOrderInput {
	in := services.CreateOrderInput{
		Subtotal:        r.Subtotal,
		ShippingCost:    r.ShippingCost,
		Discount:        r.Discount,
		Total:           r.Total,
		PaymentMethod:   r.PaymentMethod,
		Notes:           r.Notes,
		WhatsAppMessage: r.WhatsAppMessage,
	}
	if r.Customer != nil {
		in.Customer = &services.CustomerInput{
			Name:              r.Customer.Name,
			Email:             r.Customer.Email,
			Phone:             r.Customer.Phone,
			Street:            r.Customer.Street,
			Colony:            r.Customer.Colony,
			City:              r.Customer.City,
			State:             r.Customer.State,
			ZipCode:           r.Customer.ZipCode,
			AddressReferences: r.Customer.AddressReferences,
		}
	}

	in.Items = make([]services.OrderItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		productID := item.ProductID
		if productID == nil {
			productID = item.ID
		}
		if productID != nil && *productID == 0 {
			productID = nil
		}
		in.Items = append(in.Items, services.OrderItemInput{
			ProductID: productID,
			Name:      item.Name,
			SKU:       item.SKU,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Options:   item.Options,
		})
	}
	return in
}

func newPublicOrder(order *models.Order) PublicOrder {
	view := PublicOrder{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         order.Status.Canonical(),
		Subtotal:       order.Subtotal,
		ShippingCost:   order.ShippingCost,
		Discount:       order.Discount,
		Total:          order.Total,
		PaymentMethod:  order.PaymentMethod,
		Source:         order.Source,
		TrackingNumber: order.TrackingNumber,
		ShippedAt:      order.ShippedAt,
		DeliveredAt:    order.DeliveredAt,
		Items:          make([]PublicOrderItem, 0, len(order.Items)),
		CreatedAt:      order.CreatedAt,
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, PublicOrderItem{
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			ProductSKU:      item.ProductSKU,
			SelectedOptions: item.SelectedOptions,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			Subtotal:        item.Subtotal,
		})
	}
	return view
}
