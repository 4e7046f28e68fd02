// Package buffer implements the fixed-size buffer pool that caches disk
// pages in memory frames, with pluggable eviction policies and a
// tenant-aware extension.
package buffer

import (
	"github.com/Stravanni/bdm/core/page"
)

// FrameID indexes a slot in the pool's frame array.
type FrameID int

// TenantMeta tags a frame with the tenant that loaded its page and the
// page's priority score. Attached by the tenant-aware pool only; plain pools
// leave it nil.
type TenantMeta struct {
	TenantID string
	PageType PageType
	Priority int
}

// Frame is one pool slot. It caches at most one page at a time, plus the
// metadata the eviction policies need. Lifecycle: free -> occupied ->
// possibly dirtied -> evicted (write-back if dirty) -> free.
type Frame struct {
	id           FrameID
	page         *page.Page
	pageID       page.PageID
	dirty        bool
	lastAccessed uint64 // pool access counter value at last touch, for LRU
	refBit       bool   // second-chance bit, for CLOCK
	tenant       *TenantMeta
}

func newFrame(id FrameID) *Frame {
	return &Frame{id: id, pageID: page.InvalidPageID}
}

// Free reports whether the frame holds no page.
func (f *Frame) Free() bool { return f.page == nil }

// PageID returns the occupant page id, or InvalidPageID for a free frame.
func (f *Frame) PageID() page.PageID { return f.pageID }

// Dirty reports whether the cached page has been modified since load.
func (f *Frame) Dirty() bool { return f.dirty }

// Tenant returns the tenant metadata attached to the frame, nil if none.
func (f *Frame) Tenant() *TenantMeta { return f.tenant }

// clear resets the frame to its free state. The caller is responsible for
// write-back and page-table maintenance before clearing.
func (f *Frame) clear() {
	f.page = nil
	f.pageID = page.InvalidPageID
	f.dirty = false
	f.lastAccessed = 0
	f.refBit = false
	f.tenant = nil
}
