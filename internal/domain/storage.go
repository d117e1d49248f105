package domain

import (
	"context"
	"io"
)

//go:generate mockgen -destination mocks/mock_file_storage.go -package mocks github.com/simulai/simulai/internal/domain FileStorage

// MaxUploadSize caps a single uploaded file
const MaxUploadSize = 50 << 20

// Upload is a file received from a client
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// StoredObject describes a file after it reached the bucket
type StoredObject struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// FileStorage stores uploaded files in object storage
type FileStorage interface {
	Upload(ctx context.Context, key string, file Upload) (*StoredObject, error)
	Delete(ctx context.Context, key string) error
}
