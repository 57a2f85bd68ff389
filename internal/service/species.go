package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"ptcg-tracker/internal/api"
	"ptcg-tracker/internal/constants"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"
)

// SpeciesCache remembers every slug verdict and the species catalog for
// the lifetime of the process. The species list is small and static, so
// the cache is unbounded and never expires.
type SpeciesCache struct {
	mu      sync.RWMutex
	known   map[string]bool
	catalog []string
}

func NewSpeciesCache() *SpeciesCache {
	return &SpeciesCache{known: make(map[string]bool)}
}

func (c *SpeciesCache) verdict(slug string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.known[slug]
	return v, ok
}

func (c *SpeciesCache) setVerdict(slug string, known bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.known[slug] = known
}

func (c *SpeciesCache) names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.catalog
}

func (c *SpeciesCache) setNames(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.catalog = names
	for _, n := range names {
		c.known[n] = true
	}
}

type SpeciesService struct {
	client *api.PokeAPIClient
	cache  *SpeciesCache
	logger zerolog.Logger
}

func NewSpeciesService(client *api.PokeAPIClient, cache *SpeciesCache, logger zerolog.Logger) *SpeciesService {
	return &SpeciesService{client: client, cache: cache, logger: logger}
}

// IsKnownSpecies reports whether a slug names a real Pokémon species.
// Verdicts are cached either way; only an upstream failure returns an
// error, and callers treat that as "keep the candidate".
func (s *SpeciesService) IsKnownSpecies(ctx context.Context, slug string) (bool, error) {
	if slug == "" {
		return false, nil
	}
	if v, ok := s.cache.verdict(slug); ok {
		return v, nil
	}

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	_, err := s.client.GetSpecies(apiCtx, slug)
	if errors.Is(err, api.ErrNotFound) {
		s.cache.setVerdict(slug, false)
		return false, nil
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("slug", slug).Msg("species lookup failed")
		return false, err
	}

	s.cache.setVerdict(slug, true)
	return true, nil
}

// Search fuzzy-matches a query against the full species catalog,
// loading it on first use.
func (s *SpeciesService) Search(ctx context.Context, query string) ([]string, error) {
	if query == "" {
		return nil, nil
	}

	names := s.cache.names()
	if len(names) == 0 {
		loaded, err := s.loadCatalog(ctx)
		if err != nil {
			return nil, err
		}
		names = loaded
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Sort(ranks)

	out := make([]string, 0, constants.SpeciesSearchLimit)
	for _, r := range ranks {
		out = append(out, r.Target)
		if len(out) == constants.SpeciesSearchLimit {
			break
		}
	}
	return out, nil
}

func (s *SpeciesService) loadCatalog(ctx context.Context) ([]string, error) {
	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	resp, err := s.client.ListSpecies(apiCtx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load species catalog")
		return nil, err
	}

	names := make([]string, 0, len(resp.Results))
	for _, entry := range resp.Results {
		names = append(names, entry.Name)
	}
	s.cache.setNames(names)
	s.logger.Info().Int("count", len(names)).Msg("species catalog loaded")
	return names, nil
}
