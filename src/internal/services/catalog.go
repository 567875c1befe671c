package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/reelscout/reelscout/src/internal/debounce"
	"github.com/reelscout/reelscout/src/internal/domain"
	"github.com/reelscout/reelscout/src/internal/logging"
	"github.com/reelscout/reelscout/src/internal/metrics"
	"github.com/reelscout/reelscout/src/internal/ports"
	"github.com/reelscout/reelscout/src/internal/querycache"
)

// ErrSuperseded is returned for a search that a newer search from the same
// client replaced before its debounce window elapsed.
var ErrSuperseded = debounce.ErrSuperseded

type CatalogOptions struct {
	StaleTime        time.Duration
	PopularStaleTime time.Duration
	Debounce         time.Duration
}

// CatalogService serves the popular list and title searches through the
// query cache.
type CatalogService struct {
	catalog   ports.CatalogProvider
	cache     *querycache.Cache
	debouncer *debounce.Debouncer
	opts      CatalogOptions
}

func NewCatalogService(catalog ports.CatalogProvider, cache *querycache.Cache, opts CatalogOptions) *CatalogService {
	return &CatalogService{
		catalog:   catalog,
		cache:     cache,
		debouncer: debounce.New(opts.Debounce),
		opts:      opts,
	}
}

// MoviesState is the snapshot of one result set.
type MoviesState struct {
	Status querycache.Status
	Movies []domain.Movie
	Err    error
	Stale  bool
}

func (s *CatalogService) key(query string) querycache.Key {
	if query == "" {
		return querycache.PopularKey()
	}
	return querycache.SearchKey(query)
}

// Movies returns the popular list for an empty query and the search results
// for query otherwise. Searches are debounced per clientID unless a fresh
// result is already cached. On a catalog error the last good result for the
// same query, if any, is returned along with the error.
func (s *CatalogService) Movies(ctx context.Context, clientID, query string) ([]domain.Movie, error) {
	query = strings.TrimSpace(query)
	key := s.key(query)

	if query == "" {
		if clientID != "" {
			s.debouncer.Cancel(clientID)
		}
		return s.fetch(ctx, key, s.opts.PopularStaleTime, s.catalog.Popular)
	}

	if st := s.State(query); st.Status == querycache.StatusReady && !st.Stale {
		if clientID != "" {
			s.debouncer.Cancel(clientID)
		}
		return st.Movies, nil
	}

	if clientID != "" {
		if err := s.debouncer.Wait(ctx, clientID); err != nil {
			if errors.Is(err, debounce.ErrSuperseded) {
				metrics.SearchesSuperseded.Inc()
				logging.Ctx(ctx).Debug().Str("query", query).Msg("[Catalog] Search superseded")
			}
			return nil, err
		}
	}

	return s.fetch(ctx, key, s.opts.StaleTime, func(ctx context.Context) ([]domain.Movie, error) {
		return s.catalog.Search(ctx, query)
	})
}

func (s *CatalogService) fetch(ctx context.Context, key querycache.Key, staleTime time.Duration, fn func(context.Context) ([]domain.Movie, error)) ([]domain.Movie, error) {
	movies, err := querycache.Query(ctx, s.cache, key, staleTime, fn)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key.String()).Msg("[Catalog] Fetch failed")
		cached, _ := s.cache.Peek(key).Data.([]domain.Movie)
		return slices.Clone(cached), err
	}
	return slices.Clone(movies), nil
}

// State reports the cached state of query without fetching.
func (s *CatalogService) State(query string) MoviesState {
	res := s.cache.Peek(s.key(strings.TrimSpace(query)))
	movies, _ := res.Data.([]domain.Movie)
	return MoviesState{
		Status: res.Status,
		Movies: slices.Clone(movies),
		Err:    res.Err,
		Stale:  res.Stale,
	}
}

// Close drops every pending debounced search.
func (s *CatalogService) Close() {
	s.debouncer.Stop()
}
