// Package storage stores avatars, automation images and deliverables in Google Cloud Storage.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
)

var ErrNotConfigured = errors.New("object storage is not configured")

// Object prefixes; files are private, images are served publicly.
const (
	PrefixAvatars = "avatars"
	PrefixImages  = "automation-images"
	PrefixFiles   = "automation-files"
)

// FileStore is the object storage surface used by the services.
type FileStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (int64, error)
	Delete(ctx context.Context, objectPath string) error
	SignedURL(objectPath, downloadName string, ttl time.Duration) (string, error)
	PublicURL(objectPath string) string
}

// ObjectPath builds "<prefix>/<owner>/<uuid><ext>" with a lower-cased extension.
func ObjectPath(prefix, owner, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(prefix, owner, uuid.NewString()+ext)
}

type GCS struct {
	client *gcs.Client
	bucket string
}

func NewGCS(client *gcs.Client, bucket string) *GCS {
	return &GCS{client: client, bucket: bucket}
}

func (s *GCS) ready() bool {
	return s != nil && s.client != nil && s.bucket != ""
}

func (s *GCS) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (int64, error) {
	if !s.ready() {
		return 0, ErrNotConfigured
	}
	return helpers.UploadObject(ctx, s.client, s.bucket, objectPath, contentType, r)
}

func (s *GCS) Delete(ctx context.Context, objectPath string) error {
	if !s.ready() {
		return ErrNotConfigured
	}
	return helpers.DeleteObject(ctx, s.client, s.bucket, objectPath)
}

func (s *GCS) SignedURL(objectPath, downloadName string, ttl time.Duration) (string, error) {
	if !s.ready() {
		return "", ErrNotConfigured
	}
	return helpers.SignedURL(s.client, s.bucket, objectPath, downloadName, ttl)
}

func (s *GCS) PublicURL(objectPath string) string {
	if s == nil {
		return ""
	}
	return helpers.PublicURL(s.bucket, objectPath)
}

var _ FileStore = (*GCS)(nil)
