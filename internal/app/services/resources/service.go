package resources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/remnanthub/platform/internal/app/domain/resource"
	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/storage"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

// SeedFile is the YAML layout accepted by SeedFromFile.
type SeedFile struct {
	Resources []resource.Resource `yaml:"resources"`
}

// Service manages the shared resource library.
type Service struct {
	store  storage.ResourceStore
	access *access.Checker
	log    *logger.Logger
}

// New constructs a resource library service.
func New(store storage.ResourceStore, checker *access.Checker, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("resources")
	}
	return &Service{store: store, access: checker, log: log}
}

// Create adds a library entry. Staff only.
func (s *Service) Create(ctx context.Context, actorID string, r resource.Resource) (resource.Resource, error) {
	if err := s.access.RequireAdmin(actorID); err != nil {
		return resource.Resource{}, err
	}
	return s.create(ctx, r)
}

// Get returns a library entry.
func (s *Service) Get(ctx context.Context, id string) (resource.Resource, error) {
	r, err := s.store.GetResource(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return resource.Resource{}, apperrors.NotFound("resource", id)
	}
	return r, err
}

// List filters the library by a case-insensitive substring of title,
// description or tags and by exact category.
func (s *Service) List(ctx context.Context, query, category string) ([]resource.Resource, error) {
	all, err := s.store.ListResources(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	category = strings.TrimSpace(category)

	out := make([]resource.Resource, 0, len(all))
	for _, r := range all {
		if category != "" && !strings.EqualFold(r.Category, category) {
			continue
		}
		if query != "" && !matches(r, query) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// SeedFromFile loads a YAML resource list. Entries whose id already exists
// are skipped so the seed can be re-run.
func (s *Service) SeedFromFile(ctx context.Context, path string) (created, skipped int, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read seed file: %w", err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return 0, 0, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	for i, r := range seed.Resources {
		_, err := s.create(ctx, r)
		switch {
		case err == nil:
			created++
		case apperrors.HasCode(err, apperrors.CodeConflict):
			skipped++
		default:
			return created, skipped, fmt.Errorf("seed resource %d (%s): %w", i+1, r.Title, err)
		}
	}
	s.log.WithField("path", path).
		WithField("created", created).
		WithField("skipped", skipped).
		Info("resource library seeded")
	return created, skipped, nil
}

func (s *Service) create(ctx context.Context, r resource.Resource) (resource.Resource, error) {
	r.ID = strings.TrimSpace(r.ID)
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.ToLower(strings.TrimSpace(r.Category))
	r.URL = strings.TrimSpace(r.URL)
	if r.Title == "" {
		return resource.Resource{}, apperrors.Required("title")
	}
	if r.Category == "" {
		return resource.Resource{}, apperrors.Required("category")
	}
	if r.URL != "" {
		u, err := url.Parse(r.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return resource.Resource{}, apperrors.Validation("url must be an absolute http(s) URL")
		}
	}
	tags := make([]string, 0, len(r.Tags))
	for _, tag := range r.Tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			tags = append(tags, tag)
		}
	}
	r.Tags = tags

	created, err := s.store.CreateResource(ctx, r)
	if err != nil {
		return resource.Resource{}, access.Translate(err, "resource", r.ID)
	}
	r = created
	s.log.WithField("resource_id", r.ID).
		WithField("category", r.Category).
		Info("resource created")
	return r, nil
}

func matches(r resource.Resource, query string) bool {
	if strings.Contains(strings.ToLower(r.Title), query) ||
		strings.Contains(strings.ToLower(r.Description), query) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(tag, query) {
			return true
		}
	}
	return false
}
