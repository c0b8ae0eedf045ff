package config

import (
	"fmt"

	"github.com/amaurycolochos7/shopp-kingice/models"
	"gorm.io/gorm"
)

// generateOrderNumberSQL formats KIG-YYMMDD-NNNNN. The sequence never resets, so
// the counter is padded to at least five digits and grows past them unchanged.
const generateOrderNumberSQL = `CREATE OR REPLACE FUNCTION generate_order_number() RETURNS TEXT AS $$
DECLARE
	n TEXT := nextval('order_number_seq')::text;
BEGIN
	RETURN 'KIG-' || to_char(NOW(), 'YYMMDD') || '-' || lpad(n, greatest(5, length(n)), '0');
END;
$$ LANGUAGE plpgsql`

// orderNumberSQL installs the server-side order number generator
var orderNumberSQL = []string{
	`CREATE SEQUENCE IF NOT EXISTS order_number_seq START 1000`,
	generateOrderNumberSQL,
}

// Migrate creates or updates every table the API uses
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Admin{},
		&models.AdminSession{},
		&models.Category{},
		&models.Product{},
		&models.ProductImage{},
		&models.ProductOption{},
		&models.Customer{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, stmt := range orderNumberSQL {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to install order number generator: %w", err)
		}
	}
	return nil
}
