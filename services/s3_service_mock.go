package services

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MockS3Service is an in-memory S3Interface for tests
type MockS3Service struct {
	objects      map[string][]byte
	contentTypes map[string]string
	putErr       error
	mu           sync.RWMutex
}

// NewMockS3Service creates an empty mock bucket
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

// FailUploads makes every following PutObject return err
func (m *MockS3Service) FailUploads(err error) {
	m.mu.Lock()
	m.putErr = err
	m.mu.Unlock()
}

// PutObject stores body in memory
func (m *MockS3Service) PutObject(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	m.mu.RLock()
	putErr := m.putErr
	m.mu.RUnlock()
	if putErr != nil {
		return putErr
	}

	content, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	m.mu.Lock()
	m.objects[key] = content
	m.contentTypes[key] = contentType
	m.mu.Unlock()
	return nil
}

// DeleteObject removes key from memory
func (m *MockS3Service) DeleteObject(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	delete(m.contentTypes, key)
	m.mu.Unlock()
	return nil
}

// ObjectURL returns a fake public URL
func (m *MockS3Service) ObjectURL(key string) string {
	return "https://test-bucket.s3.us-east-1.amazonaws.com/" + key
}

// Object returns the stored content and content type for key
func (m *MockS3Service) Object(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.objects[key]
	return content, m.contentTypes[key], ok
}

// Len returns the number of stored objects
func (m *MockS3Service) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
