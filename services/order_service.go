package services

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/amaurycolochos7/shopp-kingice/events"
	"github.com/amaurycolochos7/shopp-kingice/models"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPaymentMethod = "oxxo"
	defaultPageLimit     = 20
	maxPageLimit         = 100
)

var validate = validator.New()

// DefaultShippingCost applies when a checkout does not state a shipping cost
var DefaultShippingCost = decimal.NewFromInt(150)

// CustomerInput is the contact and delivery data captured at checkout
type CustomerInput struct {
	Name              string
	Email             string
	Phone             string
	Street            string
	Colony            string
	City              string
	State             string
	ZipCode           string
	AddressReferences string
}

// OrderItemInput is one cart line submitted at checkout
type OrderItemInput struct {
	ProductID *uint
	Name      string
	SKU       string
	Price     decimal.Decimal
	Quantity  int
	Options   models.SelectedOptions
}

// CreateOrderInput is a checkout request. Nil money fields are derived:
// subtotal from the items, shipping from DefaultShippingCost, total from the rest.
type CreateOrderInput struct {
	Customer        *CustomerInput
	Items           []OrderItemInput
	Subtotal        *decimal.Decimal
	ShippingCost    *decimal.Decimal
	Discount        *decimal.Decimal
	Total           *decimal.Decimal
	PaymentMethod   string
	Notes           string
	WhatsAppMessage *string
}

// StatusUpdateInput changes an order's status and/or its follow-up fields.
// An empty Status leaves the status untouched; nil pointers leave their column untouched.
type StatusUpdateInput struct {
	Status           string
	TrackingNumber   *string
	Notes            *string
	PaymentReference *string
	ActorID          uint
}

// OrderQuery filters and pages the admin order listing
type OrderQuery struct {
	Status string
	Page   int
	Limit  int
}

// OrderPage is one page of orders plus paging metadata
type OrderPage struct {
	Orders []models.Order `json:"orders"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
	Total  int64          `json:"total"`
	Pages  int            `json:"pages"`
}

// OrderService owns checkout, order lookup and the status lifecycle
type OrderService struct {
	db        *gorm.DB
	numbers   OrderNumberGenerator
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates an OrderService. publisher may be nil.
func NewOrderService(db *gorm.DB, numbers OrderNumberGenerator, publisher events.Publisher, logger *zap.Logger) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &OrderService{
		db:        db,
		numbers:   numbers,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateOrder validates a checkout and stores the customer, the order and its
// items in a single transaction. Either everything is written or nothing is.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if err := validateCreateOrder(in); err != nil {
		return nil, err
	}

	subtotal, shipping, discount, total, err := orderAmounts(in)
	if err != nil {
		return nil, err
	}

	paymentMethod := strings.TrimSpace(in.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = defaultPaymentMethod
	}

	now := s.now()
	order := models.Order{
		Subtotal:            subtotal,
		ShippingCost:        shipping,
		Discount:            discount,
		Total:               total,
		PaymentMethod:       paymentMethod,
		Notes:               sanitizeText(in.Notes),
		Status:              models.StatusSentToWhatsApp,
		Source:              models.SourceWhatsApp,
		LastStatusChangedAt: &now,
		WhatsAppMessage:     whatsAppMessage(in.WhatsAppMessage),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := upsertCustomer(tx, in.Customer)
		if err != nil {
			return err
		}
		order.CustomerID = customer.ID

		number, err := s.numbers.Next(ctx, tx)
		if err != nil {
			return persistenceErr("generate order number", err)
		}
		order.OrderNumber = number

		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			return persistenceErr("create order", err)
		}

		items := make([]models.OrderItem, 0, len(in.Items))
		for _, item := range in.Items {
			price := item.Price.Round(2)
			items = append(items, models.OrderItem{
				OrderID:         order.ID,
				ProductID:       item.ProductID,
				ProductName:     strings.TrimSpace(item.Name),
				ProductSKU:      strings.TrimSpace(item.SKU),
				SelectedOptions: item.Options,
				Quantity:        item.Quantity,
				UnitPrice:       price,
				Subtotal:        price.Mul(decimal.NewFromInt(int64(item.Quantity))),
			})
		}
		if err := tx.Create(&items).Error; err != nil {
			return persistenceErr("create order items", err)
		}

		order.Customer = *customer
		order.Items = items
		return nil
	})
	if err != nil {
		return nil, persistenceErr("create order", err)
	}

	s.logger.Info("Order created",
		zap.Uint("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("items", len(order.Items)),
	)

	s.publish(ctx, events.OrderEvent{
		Type:        events.OrderCreated,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status.String(),
		Total:       order.Total,
		Source:      order.Source,
		OccurredAt:  now,
	})
	return &order, nil
}

// GetOrder looks an order up by numeric id, falling back to its order number
func (s *OrderService) GetOrder(ctx context.Context, idOrNumber string) (*models.Order, error) {
	key := strings.TrimSpace(idOrNumber)
	if key == "" {
		return nil, validationErr("id", "order id or number is required")
	}

	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		})
	}

	var order models.Order
	if id, err := strconv.ParseUint(key, 10, 64); err == nil {
		err := base().Where("id = ?", id).Take(&order).Error
		if err == nil {
			return &order, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, persistenceErr("get order", err)
		}
	}

	err := base().Where("order_number = ?", key).Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "order", Key: key}
	}
	if err != nil {
		return nil, persistenceErr("get order", err)
	}
	return &order, nil
}

// ListOrders returns one page of orders, newest first, with customer and items.
// Filtering by sent_to_whatsapp or pending matches both stored values.
func (s *OrderService) ListOrders(ctx context.Context, q OrderQuery) (*OrderPage, error) {
	filter, err := statusFilter(q.Status)
	if err != nil {
		return nil, err
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	scoped := func() *gorm.DB {
		db := s.db.WithContext(ctx).Model(&models.Order{})
		if len(filter) > 0 {
			db = db.Where("status IN ?", filter)
		}
		return db
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, persistenceErr("count orders", err)
	}

	orders := []models.Order{}
	err = scoped().
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&orders).Error
	if err != nil {
		return nil, persistenceErr("list orders", err)
	}

	return &OrderPage{
		Orders: orders,
		Page:   page,
		Limit:  limit,
		Total:  total,
		Pages:  int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// ExportOrders returns every order matching status, newest first
func (s *OrderService) ExportOrders(ctx context.Context, status string) ([]models.Order, error) {
	filter, err := statusFilter(status)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx).Preload("Customer").Preload("Items")
	if len(filter) > 0 {
		db = db.Where("status IN ?", filter)
	}

	var orders []models.Order
	if err := db.Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, persistenceErr("export orders", err)
	}
	return orders, nil
}

// UpdateStatus applies a status transition and/or follow-up field changes.
// The write only succeeds if the order still has the status that was validated.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, in StatusUpdateInput) (*models.Order, error) {
	in.Status = strings.TrimSpace(in.Status)
	if in.Status == "" && in.TrackingNumber == nil && in.Notes == nil && in.PaymentReference == nil {
		return nil, validationErr("", "no fields to update")
	}

	var target models.OrderStatus
	if in.Status != "" {
		parsed, err := models.ParseOrderStatus(in.Status)
		if err != nil {
			return nil, validationErr("status", "%v", err)
		}
		target = parsed
	}

	var current models.Order
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "order", Key: strconv.FormatUint(uint64(id), 10)}
	}
	if err != nil {
		return nil, persistenceErr("get order", err)
	}

	now := s.now()
	updates := map[string]interface{}{}
	var expected *models.OrderStatus
	if target != "" {
		if err := ValidateTransition(current.Status, target); err != nil {
			return nil, err
		}
		updates = transitionUpdates(&current, target, in.ActorID, now)
		prior := current.Status
		expected = &prior
	}
	if in.TrackingNumber != nil {
		updates["tracking_number"] = sanitizeOptional(in.TrackingNumber)
	}
	if in.Notes != nil {
		updates["notes"] = sanitizeText(*in.Notes)
	}
	if in.PaymentReference != nil {
		updates["payment_reference"] = sanitizeOptional(in.PaymentReference)
	}

	if err := s.conditionalUpdate(ctx, id, expected, updates); err != nil {
		return nil, err
	}

	updated, err := s.GetOrder(ctx, strconv.FormatUint(uint64(id), 10))
	if err != nil {
		return nil, err
	}

	if target != "" {
		s.logger.Info("Order status changed",
			zap.String("order_number", updated.OrderNumber),
			zap.String("from", current.Status.String()),
			zap.String("to", target.String()),
			zap.Uint("actor_id", in.ActorID),
		)
		s.publish(ctx, events.OrderEvent{
			Type:           events.OrderStatusChanged,
			OrderID:        updated.ID,
			OrderNumber:    updated.OrderNumber,
			Status:         updated.Status.String(),
			PreviousStatus: current.Status.String(),
			Total:          updated.Total,
			Source:         updated.Source,
			ActorID:        in.ActorID,
			OccurredAt:     now,
		})
	}
	return updated, nil
}

// conditionalUpdate writes updates to order id. When expected is set the row
// must still carry that status, otherwise another writer got there first.
func (s *OrderService) conditionalUpdate(ctx context.Context, id uint, expected *models.OrderStatus, updates map[string]interface{}) error {
	db := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id)
	if expected != nil {
		db = db.Where("status = ?", *expected)
	}

	result := db.Updates(updates)
	if result.Error != nil {
		return persistenceErr("update order", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var latest models.Order
	err := s.db.WithContext(ctx).Select("id", "status").Where("id = ?", id).Take(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Resource: "order", Key: strconv.FormatUint(uint64(id), 10)}
	}
	if err != nil {
		return persistenceErr("get order", err)
	}

	from := ""
	if expected != nil {
		from = expected.String()
	}
	return &TransitionError{
		From:    from,
		To:      latest.Status.String(),
		Message: "order status changed concurrently, reload the order and try again",
	}
}

func (s *OrderService) publish(ctx context.Context, event events.OrderEvent) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("Failed to publish order event",
			zap.String("type", event.Type),
			zap.String("order_number", event.OrderNumber),
			zap.Error(err),
		)
	}
}

func upsertCustomer(tx *gorm.DB, in *CustomerInput) (*models.Customer, error) {
	email := normalizeEmail(in.Email)
	customer := models.Customer{
		Name:              sanitizeText(in.Name),
		Email:             email,
		Phone:             strings.TrimSpace(in.Phone),
		Street:            sanitizeText(in.Street),
		Colony:            sanitizeText(in.Colony),
		City:              sanitizeText(in.City),
		State:             sanitizeText(in.State),
		ZipCode:           strings.TrimSpace(in.ZipCode),
		AddressReferences: sanitizeText(in.AddressReferences),
	}

	// last checkout wins for every contact field
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "phone", "street", "colony", "city", "state", "zip_code", "address_references", "updated_at",
		}),
	}).Create(&customer).Error
	if err != nil {
		return nil, persistenceErr("upsert customer", err)
	}

	var stored models.Customer
	if err := tx.Where("email = ?", email).Take(&stored).Error; err != nil {
		return nil, persistenceErr("load customer", err)
	}
	return &stored, nil
}

func validateCreateOrder(in CreateOrderInput) error {
	if in.Customer == nil {
		return validationErr("customer", "customer is required")
	}
	if strings.TrimSpace(in.Customer.Name) == "" {
		return validationErr("customer.name", "name is required")
	}
	if strings.TrimSpace(in.Customer.Email) == "" {
		return validationErr("customer.email", "email is required")
	}
	if err := validate.Var(strings.TrimSpace(in.Customer.Email), "email"); err != nil {
		return validationErr("customer.email", "email is not valid")
	}
	if strings.TrimSpace(in.Customer.Phone) == "" {
		return validationErr("customer.phone", "phone is required")
	}
	if len(in.Items) == 0 {
		return validationErr("items", "at least one item is required")
	}
	for i, item := range in.Items {
		field := "items[" + strconv.Itoa(i) + "]"
		if strings.TrimSpace(item.Name) == "" {
			return validationErr(field+".name", "name is required")
		}
		if item.Quantity < 1 {
			return validationErr(field+".quantity", "quantity must be at least 1")
		}
		if item.Price.IsNegative() {
			return validationErr(field+".price", "price must not be negative")
		}
	}
	return nil
}

func orderAmounts(in CreateOrderInput) (subtotal, shipping, discount, total decimal.Decimal, err error) {
	if in.Subtotal != nil {
		subtotal = *in.Subtotal
	} else {
		for _, item := range in.Items {
			subtotal = subtotal.Add(item.Price.Round(2).Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}

	shipping = DefaultShippingCost
	if in.ShippingCost != nil {
		shipping = *in.ShippingCost
	}
	if in.Discount != nil {
		discount = *in.Discount
	}
	if in.Total != nil {
		total = *in.Total
	} else {
		total = subtotal.Add(shipping).Sub(discount)
	}

	amounts := []struct {
		name  string
		value decimal.Decimal
	}{
		{"subtotal", subtotal},
		{"shipping_cost", shipping},
		{"discount", discount},
		{"total", total},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			return subtotal, shipping, discount, total, validationErr(a.name, "%s must not be negative", a.name)
		}
	}
	return subtotal.Round(2), shipping.Round(2), discount.Round(2), total.Round(2), nil
}

func statusFilter(raw string) ([]models.OrderStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	status, err := models.ParseOrderStatus(raw)
	if err != nil {
		return nil, validationErr("status", "%v", err)
	}
	return status.Equivalents(), nil
}

// whatsAppMessage keeps the message exactly as the storefront built it; blank means none
func whatsAppMessage(msg *string) *string {
	if msg == nil || strings.TrimSpace(*msg) == "" {
		return nil
	}
	return msg
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
