package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Stravanni/bdm/core/page"
)

func TestNewPolicy(t *testing.T) {
	for _, name := range []string{"FIFO", "LRU", "CLOCK", "lru", "Clock"} {
		p, err := NewPolicy(name)
		require.NoError(t, err)
		require.NotNil(t, p)
	}
	_, err := NewPolicy("MRU")
	require.Error(t, err)
}

// TestFIFOEvictsByInsertionOrder exercises the case where insertion order and
// slot order diverge: after the first eviction the lowest-index frame holds
// the newest page, and a slot-order scan would wrongly evict it again.
func TestFIFOEvictsByInsertionOrder(t *testing.T) {
	bp, _ := setupPool(t, 3, 6, NewFIFOPolicy())

	for _, id := range []page.PageID{0, 1, 2} {
		_, err := bp.GetPage(id)
		require.NoError(t, err)
	}

	// Page 3 evicts page 0 and lands in frame 0.
	_, err := bp.GetPage(3)
	require.NoError(t, err)
	_, resident := bp.pageTable[0]
	require.False(t, resident)
	require.Equal(t, FrameID(2), bp.pageTable[3], "page 3 reuses the frame page 0 vacated")

	// Page 4 must evict page 1, the oldest insertion. A slot-order scan
	// would evict page 2 from frame 0 instead.
	_, err = bp.GetPage(4)
	require.NoError(t, err)
	_, resident = bp.pageTable[1]
	require.False(t, resident, "oldest page must go first")
	_, resident = bp.pageTable[2]
	require.True(t, resident)
	_, resident = bp.pageTable[3]
	require.True(t, resident, "newest page must survive")

	// Re-accessing page 2 is a hit and must not change FIFO order: page 2
	// is still the oldest and goes next.
	_, err = bp.GetPage(2)
	require.NoError(t, err)
	_, err = bp.GetPage(5)
	require.NoError(t, err)
	_, resident = bp.pageTable[2]
	require.False(t, resident, "FIFO ignores recency of access")
}

func TestLRUTieBreaksToLowestFrame(t *testing.T) {
	frames := []*Frame{newFrame(0), newFrame(1), newFrame(2)}
	for i, f := range frames {
		f.page = page.New(page.PageID(i))
		f.pageID = page.PageID(i)
		f.lastAccessed = 7
	}

	p := NewLRUPolicy()
	victim, err := p.Victim(frames)
	require.NoError(t, err)
	require.Equal(t, FrameID(0), victim)
}

func TestLRUEmptyPool(t *testing.T) {
	p := NewLRUPolicy()
	_, err := p.Victim([]*Frame{newFrame(0), newFrame(1)})
	require.ErrorIs(t, err, ErrPoolExhausted)
}

// TestClockSecondChance verifies that a referenced frame survives the first
// pass of the hand and an unreferenced one is taken instead.
func TestClockSecondChance(t *testing.T) {
	bp, _ := setupPool(t, 3, 5, NewClockPolicy())

	for _, id := range []page.PageID{0, 1, 2} {
		_, err := bp.GetPage(id)
		require.NoError(t, err)
	}

	// Hits on pages 2 and 1 set the reference bits on frames 0 and 1; page
	// 0 in frame 2 stays unreferenced.
	_, err := bp.GetPage(2)
	require.NoError(t, err)
	_, err = bp.GetPage(1)
	require.NoError(t, err)

	// The hand sweeps from frame 0: both referenced frames get their
	// second chance and page 0 is the victim.
	_, err = bp.GetPage(3)
	require.NoError(t, err)

	_, resident := bp.pageTable[2]
	require.True(t, resident, "referenced page must get a second chance")
	_, resident = bp.pageTable[1]
	require.True(t, resident, "referenced page must get a second chance")
	_, resident = bp.pageTable[0]
	require.False(t, resident)
}

func TestClockAllReferencedEvictsHandStart(t *testing.T) {
	frames := []*Frame{newFrame(0), newFrame(1), newFrame(2)}
	for i, f := range frames {
		f.page = page.New(page.PageID(i))
		f.pageID = page.PageID(i)
		f.refBit = true
	}

	p := NewClockPolicy()
	victim, err := p.Victim(frames)
	require.NoError(t, err)
	require.Equal(t, FrameID(0), victim, "first pass clears every bit, second pass takes the start frame")
	for _, f := range frames {
		require.False(t, f.refBit)
	}
}

func TestClockReturnsFreeFrame(t *testing.T) {
	frames := []*Frame{newFrame(0), newFrame(1)}
	frames[0].page = page.New(0)
	frames[0].refBit = true

	p := NewClockPolicy()
	victim, err := p.Victim(frames)
	require.NoError(t, err)
	require.Equal(t, FrameID(1), victim)
}

func TestClockHandPersistsAcrossCalls(t *testing.T) {
	frames := []*Frame{newFrame(0), newFrame(1), newFrame(2)}
	for i, f := range frames {
		f.page = page.New(page.PageID(i))
		f.pageID = page.PageID(i)
	}

	p := NewClockPolicy()
	first, err := p.Victim(frames)
	require.NoError(t, err)
	require.Equal(t, FrameID(0), first)

	// The hand moved past frame 0, so the next selection starts at frame 1.
	second, err := p.Victim(frames)
	require.NoError(t, err)
	require.Equal(t, FrameID(1), second)
}
