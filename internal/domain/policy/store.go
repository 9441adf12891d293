package policy

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"filer/internal/domain"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filer_policy_cache_hits_total",
		Help: "Type policy lookups served from cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filer_policy_cache_misses_total",
		Help: "Type policy lookups that went to the database.",
	})
)

// Store serves the effective rule set per audience. Rules are administrative
// data, so results are cached for ttl and shared between concurrent readers.
type Store struct {
	repo  Repository
	cache *expirable.LRU[domain.Audience, []domain.TypePolicy]
}

func NewStore(repo Repository, ttl time.Duration) *Store {
	return &Store{
		repo:  repo,
		cache: expirable.NewLRU[domain.Audience, []domain.TypePolicy](4, nil, ttl),
	}
}

// Rules returns the active rules scoped to audience or to both audiences,
// in display order. The returned slice must not be modified.
func (s *Store) Rules(ctx context.Context, audience domain.Audience) ([]domain.TypePolicy, error) {
	if rules, ok := s.cache.Get(audience); ok {
		cacheHitsTotal.Inc()
		return rules, nil
	}
	cacheMissesTotal.Inc()

	all, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	rules := make([]domain.TypePolicy, 0, len(all))
	for i := range all {
		if all[i].AppliesTo(audience) {
			rules = append(rules, all[i])
		}
	}
	s.cache.Add(audience, rules)
	return rules, nil
}

// Invalidate drops cached rules, e.g. after an administrative change.
func (s *Store) Invalidate() {
	s.cache.Purge()
}
