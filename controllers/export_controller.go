package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amaurycolochos7/shopp-kingice/models"
	"github.com/gin-gonic/gin"
	"github.com/gocarina/gocsv"
	"go.uber.org/zap"
)

// orderCSVRow is one line of the order export
type orderCSVRow struct {
	OrderNumber    string `csv:"order_number"`
	CreatedAt      string `csv:"created_at"`
	Status         string `csv:"status"`
	CustomerName   string `csv:"customer_name"`
	CustomerEmail  string `csv:"customer_email"`
	CustomerPhone  string `csv:"customer_phone"`
	City           string `csv:"city"`
	State          string `csv:"state"`
	Items          string `csv:"items"`
	Subtotal       string `csv:"subtotal"`
	ShippingCost   string `csv:"shipping_cost"`
	Discount       string `csv:"discount"`
	Total          string `csv:"total"`
	PaymentMethod  string `csv:"payment_method"`
	TrackingNumber string `csv:"tracking_number"`
}

// ExportOrders handles GET /api/orders/export - CSV download for admins
func (oc *OrderController) ExportOrders(c *gin.Context) {
	orders, err := oc.orders.ExportOrders(c.Request.Context(), c.Query("status"))
	if err != nil {
		oc.respondError(c, err)
		return
	}

	rows := make([]*orderCSVRow, 0, len(orders))
	for i := range orders {
		rows = append(rows, newOrderCSVRow(&orders[i]))
	}

	filename := fmt.Sprintf("orders-%s.csv", time.Now().Format("20060102-150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Status(http.StatusOK)

	if err := gocsv.Marshal(rows, c.Writer); err != nil {
		// headers are already out, only logging is left
		oc.logger.Error("Failed to write order export", zap.Error(err))
	}
}

func newOrderCSVRow(order *models.Order) *orderCSVRow {
	items := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, fmt.Sprintf("%dx %s", item.Quantity, item.ProductName))
	}

	row := &orderCSVRow{
		OrderNumber:   order.OrderNumber,
		CreatedAt:     order.CreatedAt.UTC().Format(time.RFC3339),
		Status:        order.Status.Canonical().String(),
		CustomerName:  order.Customer.Name,
		CustomerEmail: order.Customer.Email,
		CustomerPhone: order.Customer.Phone,
		City:          order.Customer.City,
		State:         order.Customer.State,
		Items:         strings.Join(items, "; "),
		Subtotal:      order.Subtotal.StringFixed(2),
		ShippingCost:  order.ShippingCost.StringFixed(2),
		Discount:      order.Discount.StringFixed(2),
		Total:         order.Total.StringFixed(2),
		PaymentMethod: order.PaymentMethod,
	}
	if order.TrackingNumber != nil {
		row.TrackingNumber = *order.TrackingNumber
	}
	return row
}
