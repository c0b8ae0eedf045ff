package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amaurycolochos7/shopp-kingice/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// PasswordCost is the bcrypt cost for admin passwords
	PasswordCost      = 12
	minPasswordLength = 6
)

// AdminClaims is the payload of an admin access token
type AdminClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenSettings configures how access tokens are signed
type TokenSettings struct {
	Secret    string
	Issuer    string
	Audience  string
	ExpiresIn time.Duration
}

// LoginInput carries credentials plus the client fingerprint stored with the session
type LoginInput struct {
	Username  string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult is returned on successful login
type LoginResult struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Admin     *models.Admin `json:"admin"`
}

// AuthService issues admin tokens and tracks their sessions
type AuthService struct {
	db       *gorm.DB
	settings TokenSettings
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService creates an AuthService
func NewAuthService(db *gorm.DB, settings TokenSettings, logger *zap.Logger) *AuthService {
	return &AuthService{db: db, settings: settings, logger: logger, now: time.Now}
}

// Login checks credentials, records the login and opens a session
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, validationErr("", "username and password are required")
	}

	var admin models.Admin
	err := s.db.WithContext(ctx).Where("username = ? AND is_active = ?", username, true).Take(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, persistenceErr("get admin", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(in.Password)); err != nil {
		s.logger.Info("Failed admin login", zap.String("username", username), zap.String("ip", in.IPAddress))
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	token, expiresAt, err := s.issueToken(&admin, now)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&admin).Update("last_login", now).Error; err != nil {
			return err
		}
		return tx.Create(&models.AdminSession{
			AdminID:   admin.ID,
			TokenHash: hashToken(token),
			IPAddress: in.IPAddress,
			UserAgent: truncate(in.UserAgent, 500),
			ExpiresAt: expiresAt,
		}).Error
	})
	if err != nil {
		return nil, persistenceErr("open session", err)
	}

	admin.LastLogin = &now
	s.logger.Info("Admin logged in", zap.Uint("admin_id", admin.ID), zap.String("username", admin.Username))
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Admin: &admin}, nil
}

// Logout closes the session belonging to token
func (s *AuthService) Logout(ctx context.Context, token string) error {
	err := s.db.WithContext(ctx).Where("token_hash = ?", hashToken(token)).Delete(&models.AdminSession{}).Error
	if err != nil {
		return persistenceErr("close session", err)
	}
	return nil
}

// SessionActive reports whether token still has an open, unexpired session
func (s *AuthService) SessionActive(ctx context.Context, token string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.AdminSession{}).
		Where("token_hash = ? AND expires_at > ?", hashToken(token), s.now()).
		Count(&count).Error
	if err != nil {
		return false, persistenceErr("check session", err)
	}
	return count > 0, nil
}

// Me returns the admin behind an authenticated request
func (s *AuthService) Me(ctx context.Context, adminID uint) (*models.Admin, error) {
	var admin models.Admin
	err := s.db.WithContext(ctx).Where("id = ?", adminID).Take(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "admin", Key: strconv.FormatUint(uint64(adminID), 10)}
	}
	if err != nil {
		return nil, persistenceErr("get admin", err)
	}
	return &admin, nil
}

// ChangePassword replaces the admin's password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, adminID uint, current, next string) error {
	if current == "" || next == "" {
		return validationErr("", "current and new password are required")
	}
	if len(next) < minPasswordLength {
		return validationErr("new_password", "new password must be at least %d characters", minPasswordLength)
	}

	admin, err := s.Me(ctx, adminID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), PasswordCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(admin).Update("password_hash", string(hash)).Error; err != nil {
		return persistenceErr("update password", err)
	}

	s.logger.Info("Admin password changed", zap.Uint("admin_id", adminID))
	return nil
}

// PurgeExpiredSessions deletes sessions past their expiry and returns how many went
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&models.AdminSession{})
	if result.Error != nil {
		return 0, persistenceErr("purge sessions", result.Error)
	}
	return result.RowsAffected, nil
}

// EnsureBootstrapAdmin creates a superadmin with the given credentials when no
// admin with that username exists yet. Empty credentials disable bootstrapping.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, username, email, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil
	}
	if email == "" {
		email = username + "@kingicegold.local"
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Admin{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return persistenceErr("check bootstrap admin", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	admin := models.Admin{
		Username:     username,
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		Role:         models.RoleSuperAdmin,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		return persistenceErr("create bootstrap admin", err)
	}

	s.logger.Info("Bootstrap superadmin created", zap.String("username", username))
	return nil
}

func (s *AuthService) issueToken(admin *models.Admin, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.settings.ExpiresIn)
	claims := AdminClaims{
		Username: admin.Username,
		Role:     string(admin.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(admin.ID), 10),
			Issuer:    s.settings.Issuer,
			Audience:  jwt.ClaimStrings{s.settings.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.settings.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

// hashToken returns the session lookup key for token
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
