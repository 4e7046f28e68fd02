package buffer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Stravanni/bdm/core/disk"
	"github.com/Stravanni/bdm/core/page"
)

// ErrPageNotResident reports an operation against a page id with no entry in
// the page table.
var ErrPageNotResident = errors.New("page not resident in buffer pool")

// BufferPool caches disk pages in a fixed array of frames, turning repeated
// reads of the same pages into memory hits instead of disk I/O.
//
// The pool is single-threaded and synchronous: every GetPage runs to
// completion, including any disk read or dirty-victim write-back it
// triggers, before returning. Invariants maintained across every operation:
// the page table is injective and covers exactly the occupied frames, a page
// id is resident in at most one frame, and free plus occupied frames always
// partition the pool.
type BufferPool struct {
	disk       *disk.DiskManager
	policy     EvictionPolicy
	frames     []*Frame
	pageTable  map[page.PageID]FrameID
	freeFrames []FrameID
	logger     *zap.Logger

	accessCounter uint64
	hits          uint64
	misses        uint64
	evictions     uint64
}

// NewBufferPool builds a pool of poolSize frames over the given disk manager.
func NewBufferPool(dm *disk.DiskManager, poolSize int, policy EvictionPolicy, logger *zap.Logger) *BufferPool {
	if logger == nil {
		logger = zap.NewNop()
	}
	frames := make([]*Frame, poolSize)
	free := make([]FrameID, poolSize)
	for i := range frames {
		frames[i] = newFrame(FrameID(i))
		free[i] = FrameID(i)
	}
	logger.Info("buffer pool initialized",
		zap.Int("pool_size", poolSize),
		zap.String("policy", policy.Name()),
		zap.Int("page_size", page.PageSize))
	return &BufferPool{
		disk:       dm,
		policy:     policy,
		frames:     frames,
		pageTable:  make(map[page.PageID]FrameID),
		freeFrames: free,
		logger:     logger,
	}
}

// PoolSize returns the number of frames in the pool.
func (bp *BufferPool) PoolSize() int { return len(bp.frames) }

// Disk exposes the underlying disk manager, mainly for its statistics.
func (bp *BufferPool) Disk() *disk.DiskManager { return bp.disk }

// GetPage returns the page with the given id, from cache on a hit or from
// disk on a miss. The hit path is the only one that mutates recency metadata
// without touching disk. On a read failure the obtained frame returns to the
// free list unused, so the page table never gains a stale entry.
//
// The returned page stays valid only until its frame is evicted; callers
// must not retain it across further GetPage calls. A caller that mutates the
// page's contents must mark it dirty via MarkDirty, there is no implicit
// dirty detection.
func (bp *BufferPool) GetPage(id page.PageID) (*page.Page, error) {
	bp.accessCounter++

	if fid, ok := bp.pageTable[id]; ok {
		f := bp.frames[fid]
		f.lastAccessed = bp.accessCounter
		f.refBit = true
		bp.hits++
		bp.logger.Debug("buffer hit", zap.Int64("page", int64(id)), zap.Int("frame", int(fid)))
		return f.page, nil
	}

	bp.misses++
	bp.logger.Debug("buffer miss", zap.Int64("page", int64(id)))
	return bp.loadPage(id)
}

func (bp *BufferPool) loadPage(id page.PageID) (*page.Page, error) {
	fid, err := bp.obtainFrame()
	if err != nil {
		return nil, err
	}
	p, err := bp.disk.ReadPage(id)
	if err != nil {
		bp.freeFrames = append(bp.freeFrames, fid)
		return nil, err
	}
	bp.install(fid, p)
	return p, nil
}

// obtainFrame pops a free frame, or evicts a victim when none is free. An
// evicted frame is handed straight to the caller, not through the free list.
func (bp *BufferPool) obtainFrame() (FrameID, error) {
	if n := len(bp.freeFrames); n > 0 {
		fid := bp.freeFrames[n-1]
		bp.freeFrames = bp.freeFrames[:n-1]
		return fid, nil
	}
	fid, err := bp.policy.Victim(bp.frames)
	if err != nil {
		return -1, err
	}
	if err := bp.evict(fid); err != nil {
		return -1, err
	}
	return fid, nil
}

// evict writes the frame's page back if dirty, then removes the page-table
// entry and clears the frame in one step, so no window exists where the
// table points at a cleared frame. A write-back failure leaves the frame
// intact and propagates.
func (bp *BufferPool) evict(fid FrameID) error {
	f := bp.frames[fid]
	if f.Free() {
		return nil
	}
	if f.dirty {
		bp.logger.Debug("write-back of dirty victim", zap.Int64("page", int64(f.pageID)))
		if err := bp.disk.WritePage(f.page); err != nil {
			return fmt.Errorf("flushing dirty victim page %d: %w", f.pageID, err)
		}
		f.dirty = false
	}
	old := f.pageID
	delete(bp.pageTable, f.pageID)
	bp.policy.Evicted(fid)
	f.clear()
	bp.evictions++
	bp.logger.Debug("evicted page", zap.Int64("page", int64(old)), zap.Int("frame", int(fid)))
	return nil
}

// install places the page into the frame and registers it in the page table.
func (bp *BufferPool) install(fid FrameID, p *page.Page) {
	f := bp.frames[fid]
	f.page = p
	f.pageID = p.ID
	f.dirty = false
	f.lastAccessed = bp.accessCounter
	f.refBit = false
	bp.pageTable[p.ID] = fid
	bp.policy.Installed(fid)
	bp.logger.Debug("installed page", zap.Int64("page", int64(p.ID)), zap.Int("frame", int(fid)))
}

// MarkDirty records that the caller has modified the resident page's
// contents, so it will be written back before its frame is reused.
func (bp *BufferPool) MarkDirty(id page.PageID) error {
	fid, ok := bp.pageTable[id]
	if !ok {
		return fmt.Errorf("%w: page %d", ErrPageNotResident, id)
	}
	bp.frames[fid].dirty = true
	return nil
}

// FlushAllDirty writes every dirty frame back to disk without evicting it.
// Used at shutdown or as a checkpoint. Returns the first error encountered
// after attempting all frames.
func (bp *BufferPool) FlushAllDirty() error {
	var firstErr error
	flushed := 0
	for _, f := range bp.frames {
		if f.Free() || !f.dirty {
			continue
		}
		if err := bp.disk.WritePage(f.page); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		f.dirty = false
		flushed++
	}
	if flushed > 0 {
		bp.logger.Debug("flushed dirty pages", zap.Int("count", flushed))
	}
	return firstErr
}

// Stats returns a snapshot of the pool counters.
func (bp *BufferPool) Stats() Stats {
	return Stats{
		Hits:       bp.hits,
		Misses:     bp.misses,
		Evictions:  bp.evictions,
		FramesUsed: len(bp.pageTable),
		FramesFree: len(bp.freeFrames),
		PoolSize:   len(bp.frames),
		Policy:     bp.policy.Name(),
	}
}

// ResetStats zeroes the hit/miss/eviction counters for a clean measurement.
// Frame occupancy and recency state are left untouched.
func (bp *BufferPool) ResetStats() {
	bp.hits = 0
	bp.misses = 0
	bp.evictions = 0
}
