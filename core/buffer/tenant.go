package buffer

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Stravanni/bdm/core/disk"
	"github.com/Stravanni/bdm/core/page"
)

// PageType classifies a tenant page by what it holds, which fixes its
// eviction priority: identity and preference data is the most valuable,
// transient session state the least.
type PageType int

const (
	PageTypeUserPreferences PageType = iota + 1
	PageTypeRecentConversation
	PageTypeUserFacts
	PageTypeOldConversation
	PageTypeSessionState
)

// Priority returns the fixed eviction score for the page type. Higher scores
// survive longer.
func (t PageType) Priority() int {
	switch t {
	case PageTypeUserPreferences:
		return 100
	case PageTypeRecentConversation:
		return 80
	case PageTypeUserFacts:
		return 60
	case PageTypeOldConversation:
		return 40
	case PageTypeSessionState:
		return 20
	}
	return 0
}

func (t PageType) String() string {
	switch t {
	case PageTypeUserPreferences:
		return "USER_PREFERENCES"
	case PageTypeRecentConversation:
		return "RECENT_CONVERSATION"
	case PageTypeUserFacts:
		return "USER_FACTS"
	case PageTypeOldConversation:
		return "OLD_CONVERSATION"
	case PageTypeSessionState:
		return "SESSION_STATE"
	}
	return "UNKNOWN"
}

// PageTypes lists every page type, in descending priority order.
func PageTypes() []PageType {
	return []PageType{
		PageTypeUserPreferences,
		PageTypeRecentConversation,
		PageTypeUserFacts,
		PageTypeOldConversation,
		PageTypeSessionState,
	}
}

// DefaultActivityTimeout is the window within which a tenant counts as
// active after its last registered activity.
const DefaultActivityTimeout = 5 * time.Minute

// TenantSession tracks one tenant's activity and frame allocation.
type TenantSession struct {
	TenantID       string
	SessionID      string
	LastActivity   time.Time
	Active         bool
	AllocatedPages int
}

// TenantAwarePool extends BufferPool with per-tenant activity tracking and
// priority-tagged pages. Victim selection prefers, lexicographically: frames
// owned by inactive tenants, then lower page priority, then least recently
// used. Eviction mechanics (write-back, page-table clearing) are inherited
// unchanged.
type TenantAwarePool struct {
	*BufferPool

	sessions        map[string]*TenantSession
	activityTimeout time.Duration
	now             func() time.Time

	activeTenantEvictions uint64
}

// NewTenantAwarePool builds a tenant-aware pool. A non-positive
// activityTimeout selects DefaultActivityTimeout.
func NewTenantAwarePool(dm *disk.DiskManager, poolSize int, activityTimeout time.Duration, logger *zap.Logger) *TenantAwarePool {
	if activityTimeout <= 0 {
		activityTimeout = DefaultActivityTimeout
	}
	tp := &TenantAwarePool{
		sessions:        make(map[string]*TenantSession),
		activityTimeout: activityTimeout,
		now:             time.Now,
	}
	tp.BufferPool = NewBufferPool(dm, poolSize, &tenantPolicy{pool: tp}, logger)
	tp.logger.Info("tenant-aware pool initialized",
		zap.Int("pool_size", poolSize),
		zap.Duration("activity_timeout", activityTimeout))
	return tp
}

// RegisterActivity upserts the tenant's session, refreshes its activity
// timestamp and recomputes every session's active flag against the timeout
// window.
func (tp *TenantAwarePool) RegisterActivity(tenantID string) {
	s, ok := tp.sessions[tenantID]
	if !ok {
		s = &TenantSession{
			TenantID:     tenantID,
			SessionID:    uuid.NewString(),
			LastActivity: tp.now(),
		}
		tp.sessions[tenantID] = s
		tp.logger.Debug("tenant session created",
			zap.String("tenant", tenantID),
			zap.String("session", s.SessionID))
	} else {
		s.LastActivity = tp.now()
	}
	tp.refreshActiveStatus()
}

func (tp *TenantAwarePool) refreshActiveStatus() {
	cutoff := tp.now().Add(-tp.activityTimeout)
	for _, s := range tp.sessions {
		s.Active = !s.LastActivity.Before(cutoff)
	}
}

// Session returns a copy of the tenant's session state.
func (tp *TenantAwarePool) Session(tenantID string) (TenantSession, bool) {
	s, ok := tp.sessions[tenantID]
	if !ok {
		return TenantSession{}, false
	}
	return *s, true
}

// GetTenantPage returns the page on behalf of the tenant, registering the
// tenant's activity first. On a miss the page is read from disk; a page that
// does not exist on disk yet is materialized empty and its frame marked
// dirty so it gets persisted on eviction or flush.
func (tp *TenantAwarePool) GetTenantPage(id page.PageID, tenantID string, pageType PageType) (*page.Page, error) {
	tp.RegisterActivity(tenantID)
	tp.accessCounter++

	if fid, ok := tp.pageTable[id]; ok {
		f := tp.frames[fid]
		f.lastAccessed = tp.accessCounter
		f.refBit = true
		tp.hits++
		tp.logger.Debug("buffer hit",
			zap.Int64("page", int64(id)),
			zap.String("tenant", tenantID),
			zap.Stringer("page_type", pageType))
		return f.page, nil
	}

	tp.misses++
	tp.logger.Debug("buffer miss",
		zap.Int64("page", int64(id)),
		zap.String("tenant", tenantID),
		zap.Stringer("page_type", pageType))
	return tp.loadTenantPage(id, tenantID, pageType)
}

func (tp *TenantAwarePool) loadTenantPage(id page.PageID, tenantID string, pageType PageType) (*page.Page, error) {
	fid, err := tp.obtainFrame()
	if err != nil {
		return nil, err
	}

	fresh := false
	p, err := tp.disk.ReadPage(id)
	if err != nil {
		if !errors.Is(err, disk.ErrPageNotFound) {
			tp.freeFrames = append(tp.freeFrames, fid)
			return nil, err
		}
		p = page.New(id)
		fresh = true
	}

	tp.install(fid, p)
	f := tp.frames[fid]
	f.tenant = &TenantMeta{
		TenantID: tenantID,
		PageType: pageType,
		Priority: pageType.Priority(),
	}
	f.dirty = fresh
	if s, ok := tp.sessions[tenantID]; ok {
		s.AllocatedPages++
	}
	return p, nil
}

// TenantStats returns the pool snapshot extended with tenant-level signals.
func (tp *TenantAwarePool) TenantStats() TenantStats {
	active := 0
	allocations := make(map[string]int, len(tp.sessions))
	for id, s := range tp.sessions {
		if s.Active {
			active++
		}
		allocations[id] = s.AllocatedPages
	}
	return TenantStats{
		Stats:                 tp.Stats(),
		ActiveTenantEvictions: tp.activeTenantEvictions,
		ActiveTenants:         active,
		TotalTenants:          len(tp.sessions),
		Allocations:           allocations,
	}
}

// tenantPolicy selects victims over the owning pool's sessions: inactive
// owners first, then lowest priority, then least recently used, with ties
// falling to the lowest frame index.
type tenantPolicy struct {
	pool *TenantAwarePool
}

func (p *tenantPolicy) Name() string { return "TENANT_AWARE" }

func (p *tenantPolicy) Installed(FrameID) {}

// Evicted runs before the frame is cleared, so the tenant metadata is still
// attached: it maintains the owner's allocation count and the active-tenant
// eviction counter.
func (p *tenantPolicy) Evicted(id FrameID) {
	f := p.pool.frames[id]
	if f.tenant == nil {
		return
	}
	s, ok := p.pool.sessions[f.tenant.TenantID]
	if !ok {
		return
	}
	if s.AllocatedPages > 0 {
		s.AllocatedPages--
	}
	if s.Active {
		p.pool.activeTenantEvictions++
		p.pool.logger.Warn("evicted page owned by active tenant",
			zap.String("tenant", s.TenantID),
			zap.Int64("page", int64(f.pageID)),
			zap.Int("priority", f.tenant.Priority))
	}
}

func (p *tenantPolicy) Victim(frames []*Frame) (FrameID, error) {
	p.pool.refreshActiveStatus()

	victim := FrameID(-1)
	var vActive bool
	var vPriority int
	var vAccessed uint64

	for _, f := range frames {
		if f.Free() {
			continue
		}
		active := p.ownerActive(f)
		priority := 0
		if f.tenant != nil {
			priority = f.tenant.Priority
		}
		if victim < 0 || betterVictim(active, priority, f.lastAccessed, vActive, vPriority, vAccessed) {
			victim = f.id
			vActive = active
			vPriority = priority
			vAccessed = f.lastAccessed
		}
	}
	if victim < 0 {
		return -1, ErrPoolExhausted
	}
	return victim, nil
}

func (p *tenantPolicy) ownerActive(f *Frame) bool {
	if f.tenant == nil {
		return false
	}
	s, ok := p.pool.sessions[f.tenant.TenantID]
	return ok && s.Active
}

// betterVictim reports whether candidate a beats the current best b under
// the lexicographic order (inactive owner, lowest priority, least recently
// used). Strict comparisons keep the lowest frame index on full ties.
func betterVictim(aActive bool, aPriority int, aAccessed uint64, bActive bool, bPriority int, bAccessed uint64) bool {
	if aActive != bActive {
		return !aActive
	}
	if aPriority != bPriority {
		return aPriority < bPriority
	}
	return aAccessed < bAccessed
}
