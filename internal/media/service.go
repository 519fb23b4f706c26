package media

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Folders group uploaded objects by what they illustrate.
const (
	FolderCategories = "categories"
	FolderProducts   = "products"
	FolderVariants   = "variants"
	FolderAvatars    = "avatars"
)

type objectStore interface {
	Upload(ctx context.Context, object, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, object string) error
	ObjectFromURL(raw string) (string, bool)
}

// Service turns submitted image values into stored URLs.
type Service struct {
	store    objectStore
	prefix   string
	maxBytes int
	logg     *logger.Logger
	newID    func() string
}

// NewService builds the media service. A nil store means uploads are disabled and
// only plain URLs are accepted.
func NewService(store objectStore, prefix string, maxUploadMB int, logg *logger.Logger) *Service {
	return &Service{
		store:    store,
		prefix:   strings.Trim(prefix, "/"),
		maxBytes: maxUploadMB * 1024 * 1024,
		logg:     logg,
		newID:    uuid.NewString,
	}
}

// Resolve returns the URL to persist for value. Empty values and plain URLs pass
// through; data URLs are validated and uploaded.
func (s *Service) Resolve(ctx context.Context, folder, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || !IsDataURL(value) {
		return value, nil
	}

	img, err := DecodeDataURL(value, s.maxBytes)
	if err != nil {
		return "", err
	}
	if s.store == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "image storage is not configured")
	}

	object := path.Join(s.prefix, folder, fmt.Sprintf("%s.%s", s.newID(), img.Extension))
	url, err := s.store.Upload(ctx, object, img.MIMEType, img.Data)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload image")
	}
	return url, nil
}

// ResolveAll resolves values in order. On failure the images already uploaded by
// this call are removed again.
func (s *Service) ResolveAll(ctx context.Context, folder string, values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	var uploaded []string
	for _, value := range values {
		url, err := s.Resolve(ctx, folder, value)
		if err != nil {
			s.Remove(ctx, uploaded...)
			return nil, err
		}
		if url != value {
			uploaded = append(uploaded, url)
		}
		out = append(out, url)
	}
	return out, nil
}

// Remove deletes stored images on a best-effort basis. URLs that were not
// uploaded by this service are ignored and failures are only logged.
func (s *Service) Remove(ctx context.Context, urls ...string) {
	if s.store == nil || len(urls) == 0 {
		return
	}
	var errs error
	for _, raw := range urls {
		object, ok := s.store.ObjectFromURL(raw)
		if !ok {
			continue
		}
		errs = multierr.Append(errs, s.store.Delete(ctx, object))
	}
	if errs != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "images", len(urls)), fmt.Sprintf("image cleanup failed: %v", errs))
	}
}

// Replaced lists entries of before that are missing from after.
func Replaced(before, after []string) []string {
	keep := make(map[string]struct{}, len(after))
	for _, url := range after {
		keep[url] = struct{}{}
	}
	var out []string
	for _, url := range before {
		if url == "" {
			continue
		}
		if _, ok := keep[url]; !ok {
			out = append(out, url)
		}
	}
	return out
}
