package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/devforum/internal/model"
	"github.com/sakif/devforum/internal/repository"
)

// TagService is read-only. Tag records are written exclusively by the
// question flows, which keep the usage counters in step with the joins.
type TagService struct {
	tags   repository.TagRepository
	logger *slog.Logger
}

// NewTagService wires a TagService.
func NewTagService(tags repository.TagRepository, logger *slog.Logger) *TagService {
	return &TagService{tags: tags, logger: logger}
}

// GetByID returns one tag.
func (s *TagService) GetByID(ctx context.Context, id string) (*model.Tag, error) {
	oid, err := parseObjectID(id, "tag")
	if err != nil {
		return nil, err
	}
	return s.tags.GetByID(ctx, oid)
}

// List returns a page of tags. The "popular" sort orders by usage count.
func (s *TagService) List(ctx context.Context, opts repository.ListOptions) ([]model.Tag, int64, error) {
	opts = clampListOptions(opts)
	tags, total, err := s.tags.List(ctx, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listing tags: %w", err)
	}
	return tags, total, nil
}
