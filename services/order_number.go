package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const orderNumberPrefix = "KIG"

// OrderNumberGenerator produces the human-readable order number for a new order.
// tx is the transaction the order is being created in.
type OrderNumberGenerator interface {
	Next(ctx context.Context, tx *gorm.DB) (string, error)
}

// SequenceNumberGenerator issues KIG-YYMMDD-XXXXXXXXXXX numbers from a snowflake
// node. IDs are monotonic per node, so numbers stay unique and sortable without a
// database round trip.
type SequenceNumberGenerator struct {
	node *snowflake.Node
}

// NewSequenceNumberGenerator creates a generator for the given node id (0-1023).
// Each API instance must use a distinct node id.
func NewSequenceNumberGenerator(nodeID int64) (*SequenceNumberGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create order number node: %w", err)
	}
	return &SequenceNumberGenerator{node: node}, nil
}

// Next returns a new order number
func (g *SequenceNumberGenerator) Next(_ context.Context, _ *gorm.DB) (string, error) {
	id := g.node.Generate()
	issued := time.UnixMilli(id.Time())
	return fmt.Sprintf("%s-%s-%s",
		orderNumberPrefix,
		issued.Format("060102"),
		strings.ToUpper(strconv.FormatInt(id.Int64(), 36)),
	), nil
}

// numberQuery fetches the next order number from the database inside tx
type numberQuery func(ctx context.Context, tx *gorm.DB) (string, error)

func callGenerateOrderNumber(ctx context.Context, tx *gorm.DB) (string, error) {
	var number string
	err := tx.WithContext(ctx).Raw("SELECT generate_order_number()").Scan(&number).Error
	return number, err
}

// DatabaseNumberGenerator asks PostgreSQL's generate_order_number() for the next
// number and falls back to an in-process sequence when the function is missing,
// fails, or returns nothing.
type DatabaseNumberGenerator struct {
	fallback OrderNumberGenerator
	logger   *zap.Logger
	dialect  string
	query    numberQuery
}

// NewDatabaseNumberGenerator wraps fallback with the database-backed generator
func NewDatabaseNumberGenerator(fallback OrderNumberGenerator, logger *zap.Logger) *DatabaseNumberGenerator {
	return &DatabaseNumberGenerator{
		fallback: fallback,
		logger:   logger,
		dialect:  "postgres",
		query:    callGenerateOrderNumber,
	}
}

// Next returns a new order number. The function call runs under a savepoint so
// that a failure does not abort the caller's transaction.
func (g *DatabaseNumberGenerator) Next(ctx context.Context, tx *gorm.DB) (string, error) {
	if tx == nil || tx.Dialector.Name() != g.dialect {
		return g.fallback.Next(ctx, tx)
	}

	const savepoint = "order_number"
	if err := tx.SavePoint(savepoint).Error; err != nil {
		return "", fmt.Errorf("failed to create savepoint: %w", err)
	}

	number, err := g.query(ctx, tx)
	if err != nil {
		if rbErr := tx.RollbackTo(savepoint).Error; rbErr != nil {
			return "", fmt.Errorf("failed to roll back savepoint: %w", rbErr)
		}
		g.logger.Warn("generate_order_number() failed, using fallback sequence", zap.Error(err))
		return g.fallback.Next(ctx, tx)
	}

	if strings.TrimSpace(number) == "" {
		g.logger.Warn("generate_order_number() returned nothing, using fallback sequence")
		return g.fallback.Next(ctx, tx)
	}
	return number, nil
}
