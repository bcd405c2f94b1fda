// Package storage архивирует выгрузки в S3-совместимом хранилище.
package storage

import (
	"context"
	"io"
	"path"
	"time"
)

type UploadResult struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	ETag     string `json:"etag,omitempty"`
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	GetPublicURL(key string) string
}

// ExportKey строит ключ архива вида exports/2024-05-01/150405_matches.csv.
func ExportKey(filename string, at time.Time) string {
	at = at.UTC()
	return path.Join("exports", at.Format("2006-01-02"), at.Format("150405")+"_"+filename)
}
