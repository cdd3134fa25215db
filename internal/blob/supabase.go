package blob

import (
	"bytes"
	"context"
	"fmt"
	"time"

	storage_go "github.com/supabase-community/storage-go"
)

// Supabase is a Storage backed by a Supabase storage bucket
type Supabase struct {
	client *storage_go.Client
	bucket string
}

// NewSupabase creates a Supabase storage client for the given bucket
func NewSupabase(url, serviceKey, bucket string) *Supabase {
	return &Supabase{
		client: storage_go.NewClient(url, serviceKey, nil),
		bucket: bucket,
	}
}

func (s *Supabase) Put(_ context.Context, path string, data []byte, contentType string) error {
	_, err := s.client.UploadFile(s.bucket, path, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return nil
}

func (s *Supabase) SignedURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	resp, err := s.client.CreateSignedUrl(s.bucket, path, int(ttl.Seconds()))
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", path, err)
	}
	return resp.SignedURL, nil
}
