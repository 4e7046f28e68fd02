package buffer

// Stats is a snapshot of the pool's counters, read-only and side-effect-free.
type Stats struct {
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	FramesUsed int
	FramesFree int
	PoolSize   int
	Policy     string
}

// Accesses is the total number of page requests since the last reset.
func (s Stats) Accesses() uint64 {
	return s.Hits + s.Misses
}

// HitRate is the percentage of accesses served from cache, zero if none.
func (s Stats) HitRate() float64 {
	total := s.Accesses()
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// TenantStats extends Stats with the tenant-aware pool's quality signals.
type TenantStats struct {
	Stats
	// ActiveTenantEvictions counts evictions that displaced a page owned by a
	// tenant that was active at eviction time. A quality signal, not an
	// error: a well-behaved policy keeps it near zero.
	ActiveTenantEvictions uint64
	ActiveTenants         int
	TotalTenants          int
	// Allocations maps tenant id to the number of frames currently holding
	// that tenant's pages.
	Allocations map[string]int
}

// ProtectionRate is the percentage of evictions that spared active tenants.
func (s TenantStats) ProtectionRate() float64 {
	if s.Evictions == 0 {
		return 100
	}
	return (1 - float64(s.ActiveTenantEvictions)/float64(s.Evictions)) * 100
}
