// Package service implements the directory's business logic between the
// HTTP handlers and the storage layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/neurodir/neurodir/internal/directory/model"
	"github.com/neurodir/neurodir/internal/directory/repository"
	"github.com/neurodir/neurodir/internal/directory/search"
)

// pageSize is the fixed directory page size.
const pageSize = 20

var searchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "directory_searches_total",
		Help: "Total number of directory searches, by whether any filter was applied.",
	},
	[]string{"filtered"},
)

// profileSearcher is the storage surface the directory reads from.
// Satisfied by *repository.ProfileRepository.
type profileSearcher interface {
	Search(ctx context.Context, pred search.Node, limit, offset int) ([]*model.Profile, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	PositionHistogram(ctx context.Context) ([]model.PositionCount, error)
}

// countryLister is satisfied by *repository.CountryRepository.
type countryLister interface {
	ListRepresented(ctx context.Context) ([]model.CountrySummary, error)
}

// DirectoryService serves the public read side: faceted search, profile
// detail, and the read-only aggregates.
type DirectoryService struct {
	profiles  profileSearcher
	countries countryLister
	logger    *zap.Logger
}

// NewDirectoryService creates a DirectoryService.
func NewDirectoryService(profiles profileSearcher, countries countryLister, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{profiles: profiles, countries: countries, logger: logger}
}

// SearchResult is one page of directory matches.
type SearchResult struct {
	Profiles   []*model.Profile
	Total      int
	Page       int
	TotalPages int
}

// Search runs a faceted directory search. Pages are 1-indexed and 20 rows
// long; a page beyond the last yields an empty slice with the true total.
func (s *DirectoryService) Search(ctx context.Context, query string, filters search.Filters, page int) (*SearchResult, error) {
	if page < 1 {
		page = 1
	}
	pred := search.Build(query, filters)

	profiles, total, err := s.profiles.Search(ctx, pred, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	if profiles == nil {
		profiles = []*model.Profile{}
	}

	filtered := query != "" || filters.UnderRepresentedOnly || filters.SeniorOnly
	searchesTotal.WithLabelValues(strconv.FormatBool(filtered)).Inc()

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	return &SearchResult{
		Profiles:   profiles,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}

// GetProfile returns a single directory entry. Hidden and soft-deleted
// profiles are indistinguishable from missing ones.
func (s *DirectoryService) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Visible() {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

// Countries returns the countries with at least one visible profile.
func (s *DirectoryService) Countries(ctx context.Context) ([]model.CountrySummary, error) {
	out, err := s.countries.ListRepresented(ctx)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	if out == nil {
		out = []model.CountrySummary{}
	}
	return out, nil
}

// Positions returns the position histogram over visible profiles.
func (s *DirectoryService) Positions(ctx context.Context) ([]model.PositionCount, error) {
	out, err := s.profiles.PositionHistogram(ctx)
	if err != nil {
		return nil, fmt.Errorf("position histogram: %w", err)
	}
	if out == nil {
		out = []model.PositionCount{}
	}
	return out, nil
}

// IsNotFound reports whether err is a missing-record error from the
// storage layer.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
