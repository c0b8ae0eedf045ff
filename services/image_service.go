package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/amaurycolochos7/shopp-kingice/utils"
	"github.com/google/uuid"
)

// ImageService handles product image upload and removal
type ImageService interface {
	// UploadImage validates and stores an image, returning its storage key and public URL
	UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (key string, url string, err error)

	// DeleteImage removes an image from storage
	DeleteImage(ctx context.Context, key string) error
}

// S3ImageService implements ImageService on top of S3
type S3ImageService struct {
	storage S3Interface
	prefix  string
	now     func() time.Time
}

// NewImageService creates an image service that stores objects under prefix
func NewImageService(storage S3Interface, prefix string) *S3ImageService {
	return &S3ImageService{storage: storage, prefix: strings.Trim(prefix, "/"), now: time.Now}
}

// UploadImage validates and uploads an image file
func (s *S3ImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", "", err
	}
	contentType, _ := utils.ImageContentType(fileHeader.Filename)

	file, err := fileHeader.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// products/2026/10/<uuid>.webp
	key := fmt.Sprintf("%s/%s/%s%s",
		s.prefix,
		s.now().Format("2006/01"),
		uuid.NewString(),
		strings.ToLower(filepath.Ext(fileHeader.Filename)),
	)

	if err := s.storage.PutObject(ctx, key, file, fileHeader.Size, contentType); err != nil {
		return "", "", fmt.Errorf("failed to upload image: %w", err)
	}
	return key, s.storage.ObjectURL(key), nil
}

// DeleteImage deletes an image from storage
func (s *S3ImageService) DeleteImage(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.storage.DeleteObject(ctx, key); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
