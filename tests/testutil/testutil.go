package testutil

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/amaurycolochos7/shopp-kingice/config"
	"github.com/amaurycolochos7/shopp-kingice/models"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MustSetTestEnvironment sets GO_ENV to test and fails if it cannot be set.
// Use this in TestMain or suite setup functions.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}
	if os.Getenv("GO_ENV") != "test" {
		t.Fatal("Failed to verify GO_ENV=test")
	}
}

// NewTestDB opens a private in-memory SQLite database with every table migrated.
// The pool is pinned to one connection so all queries share the same memory database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get test database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := config.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// TestConfig returns a configuration suitable for building the API in tests
func TestConfig() *config.Config {
	return &config.Config{
		DatabaseURL:        "sqlite://memory",
		Port:               "0",
		GoEnv:              "test",
		FrontendURL:        "http://localhost:3000",
		JWTSecret:          "test-secret-with-enough-length-for-hs256",
		JWTExpiresIn:       time.Hour,
		JWTIssuer:          "kingice-api",
		JWTAudience:        "kingice-admin",
		NodeID:             1,
		RateLimitPerMinute: 10000,
		LogLevel:           "error",
	}
}

// CreateAdmin stores an active admin with the given role and password
func CreateAdmin(t *testing.T, db *gorm.DB, username, password string, role models.AdminRole) *models.Admin {
	t.Helper()

	// minimum cost keeps the suite fast
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	admin := &models.Admin{
		Username:     username,
		Email:        username + "@kingicegold.test",
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("Failed to create admin: %v", err)
	}
	return admin
}

// CreateCategory stores an active category
func CreateCategory(t *testing.T, db *gorm.DB, name, slug string) *models.Category {
	t.Helper()

	category := &models.Category{Name: name, Slug: slug, Active: true}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}
	return category
}

// CreateProduct stores an active product in category
func CreateProduct(t *testing.T, db *gorm.DB, category *models.Category, name, sku string, price int64) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:       name,
		Slug:       fmt.Sprintf("%s-%d", strings.ToLower(sku), category.ID),
		CategoryID: category.ID,
		SKU:        sku,
		BasePrice:  decimal.NewFromInt(price),
		Active:     true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}
	return product
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
