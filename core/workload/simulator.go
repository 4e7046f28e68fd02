// Package workload drives the tenant-aware pool with a synthetic multi-tenant
// access pattern: a fixed tenant roster where a couple of tenants dominate,
// weighted page types, and per-(tenant, type) page-id locality.
package workload

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Stravanni/bdm/core/buffer"
	"github.com/Stravanni/bdm/core/page"
)

// Config shapes the simulated workload. Zero values select the defaults.
type Config struct {
	// Tenants is the roster; the first two are the "busy" tenants that
	// receive ActiveTenantRatio of the traffic.
	Tenants []string
	// ActiveTenantRatio is the fraction of requests issued by the busy pair.
	ActiveTenantRatio float64
	// PageTypeWeights weights the five page types in priority order.
	PageTypeWeights []int
	// PageIDSpace bounds the page-id universe the accesses land in.
	PageIDSpace int
	// RequestRate paces the simulation; rate.Inf disables pacing.
	RequestRate rate.Limit
	Seed        int64
}

func (c *Config) applyDefaults() {
	if len(c.Tenants) == 0 {
		c.Tenants = []string{"alice_dev", "bob_scientist", "charlie_student", "diana_pm"}
	}
	if c.ActiveTenantRatio <= 0 || c.ActiveTenantRatio > 1 {
		c.ActiveTenantRatio = 0.7
	}
	if len(c.PageTypeWeights) != len(buffer.PageTypes()) {
		c.PageTypeWeights = []int{30, 25, 15, 15, 15}
	}
	if c.PageIDSpace <= 0 {
		c.PageIDSpace = 100
	}
	if c.RequestRate == 0 {
		c.RequestRate = rate.Inf
	}
}

// Access is one simulated page request.
type Access struct {
	PageID   page.PageID
	TenantID string
	PageType buffer.PageType
}

// Report summarizes a simulation run.
type Report struct {
	Duration time.Duration
	Accesses int
	Stats    buffer.TenantStats
}

// Simulator generates accesses and feeds them to a tenant-aware pool.
type Simulator struct {
	pool    *buffer.TenantAwarePool
	cfg     Config
	rng     *rand.Rand
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewSimulator(pool *buffer.TenantAwarePool, cfg Config, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.applyDefaults()
	return &Simulator{
		pool:    pool,
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		limiter: rate.NewLimiter(cfg.RequestRate, 1),
		logger:  logger,
	}
}

// NextAccess draws the next request: mostly the busy tenant pair, page types
// by weight, and a page id derived from (tenant, type) so each tenant's
// working set has locality.
func (s *Simulator) NextAccess() Access {
	var tenant string
	if s.rng.Float64() < s.cfg.ActiveTenantRatio && len(s.cfg.Tenants) >= 2 {
		tenant = s.cfg.Tenants[s.rng.Intn(2)]
	} else {
		tenant = s.cfg.Tenants[s.rng.Intn(len(s.cfg.Tenants))]
	}

	types := buffer.PageTypes()
	pageType := types[weightedChoice(s.rng, s.cfg.PageTypeWeights)]

	h := fnv.New64a()
	h.Write([]byte(tenant))
	h.Write([]byte{byte(pageType)})
	id := page.PageID(h.Sum64() % uint64(s.cfg.PageIDSpace))

	return Access{PageID: id, TenantID: tenant, PageType: pageType}
}

// Run issues the given number of requests against the pool, pacing them with
// the configured limiter, and returns the run report. Cancelling the context
// stops the run early with the context's error.
func (s *Simulator) Run(ctx context.Context, requests int) (Report, error) {
	start := time.Now()
	issued := 0
	for i := 0; i < requests; i++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return s.report(start, issued), err
		}
		a := s.NextAccess()
		if _, err := s.pool.GetTenantPage(a.PageID, a.TenantID, a.PageType); err != nil {
			return s.report(start, issued), fmt.Errorf("access %d (page %d, tenant %s): %w", i, a.PageID, a.TenantID, err)
		}
		issued++
	}
	rep := s.report(start, issued)
	s.logger.Info("workload simulation finished",
		zap.Int("accesses", rep.Accesses),
		zap.Duration("duration", rep.Duration),
		zap.Float64("hit_rate", rep.Stats.HitRate()),
		zap.Uint64("active_tenant_evictions", rep.Stats.ActiveTenantEvictions))
	return rep, nil
}

func (s *Simulator) report(start time.Time, issued int) Report {
	return Report{
		Duration: time.Since(start),
		Accesses: issued,
		Stats:    s.pool.TenantStats(),
	}
}

func weightedChoice(rng *rand.Rand, weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	pick := rng.Intn(total)
	for i, w := range weights {
		pick -= w
		if pick < 0 {
			return i
		}
	}
	return len(weights) - 1
}
