package buffer

import (
	"container/list"
	"sync"

	"github.com/ncw/directio"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"buffer-pool-golang/src/common"
	"buffer-pool-golang/src/disk"
	"buffer-pool-golang/src/wal"
)

// BufferPoolManager caches disk pages in a fixed array of frames. The
// page table maps resident page ids to frame indices; frames holding no
// page wait on the free list; unpinned resident frames are handed to
// the replacer as eviction candidates. A single mutex covers the page
// table, the free list and all frame metadata, and disk I/O happens
// while it is held.
//
// Frames are allocated once here and never move, so the *Page handed to
// a caller stays valid for the whole pin.
type BufferPoolManager struct {
	size        int
	pages       []Page
	replacer    Replacer
	freeList    list.List
	pageTable   map[common.PageId]int
	diskManager *disk.DiskManager
	logManager  *wal.LogManager
	metrics     *PoolMetrics
	mu          sync.Mutex
}

// NewBufferPoolManager builds a pool of size frames over diskManager.
// logManager may be nil; when present the log is synced before a dirty
// victim is written back.
func NewBufferPoolManager(size int, diskManager *disk.DiskManager, logManager *wal.LogManager, replacer Replacer) *BufferPoolManager {
	bpm := &BufferPoolManager{
		size:        size,
		pages:       make([]Page, size),
		replacer:    replacer,
		pageTable:   make(map[common.PageId]int),
		diskManager: diskManager,
		logManager:  logManager,
		metrics:     NewPoolMetrics(),
	}
	for i := 0; i < size; i++ {
		bpm.pages[i] = Page{
			data:     directio.AlignedBlock(common.PageSize),
			pageId:   common.InvalidPageId,
			pinCount: 0,
			isDirty:  false,
		}
		bpm.freeList.PushBack(i)
	}
	return bpm
}

// NewFromConfig assembles a pool and its collaborators from cfg: the
// replacer policy, the page file, the optional log file with its codec,
// and default-registry metrics when enabled. Close tears the pool and
// collaborators down again.
func NewFromConfig(cfg *common.Config) (*BufferPoolManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	replacer, err := NewReplacer(cfg.Replacer)
	if err != nil {
		return nil, err
	}
	var logManager *wal.LogManager
	if cfg.WALFile != "" {
		codec, err := wal.ParseCodec(cfg.WALCompression)
		if err != nil {
			return nil, err
		}
		logManager, err = wal.NewLogManager(cfg.WALFile, codec)
		if err != nil {
			return nil, err
		}
	}
	diskManager := disk.NewDiskManager(cfg.DataFile)
	bpm := NewBufferPoolManager(cfg.PoolSize, diskManager, logManager, replacer)
	if cfg.EnableMetrics {
		if err := bpm.metrics.Register(prometheus.DefaultRegisterer); err != nil {
			bpm.Close()
			return nil, err
		}
	}
	return bpm, nil
}

// Close flushes every resident dirty page and closes the pool's
// collaborators. The pool must not be used afterwards.
func (bpm *BufferPoolManager) Close() error {
	if err := bpm.FlushAllPages(); err != nil {
		return err
	}
	if bpm.logManager != nil {
		if err := bpm.logManager.Close(); err != nil {
			return err
		}
	}
	return bpm.diskManager.Close()
}

// Metrics exposes the pool's counters for registration.
func (bpm *BufferPoolManager) Metrics() *PoolMetrics {
	return bpm.metrics
}

// FetchPage pins the page and returns its frame, reading it from disk
// on a miss. Returns ErrPoolFull when no frame can be reclaimed.
func (bpm *BufferPoolManager) FetchPage(pageId common.PageId) (*Page, error) {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	if frameId, ok := bpm.pageTable[pageId]; ok {
		page := &bpm.pages[frameId]
		page.pinCount += 1
		bpm.replacer.Pin(frameId)
		bpm.metrics.FetchHits.Inc()
		return page, nil
	}
	frameId, err := bpm.pickVictimFrame()
	if err != nil {
		log.WithError(err).Warnf("Cannot fetch page %d.", pageId)
		return nil, err
	}
	page := &bpm.pages[frameId]
	page.pageId = pageId
	page.ResetMemory()
	page.pinCount = 1
	page.isDirty = false
	bpm.pageTable[pageId] = frameId
	if err := bpm.diskManager.ReadPage(pageId, page.Data()); err != nil {
		log.WithError(err).Warnf("Cannot read page %d from disk.", pageId)
		// Undo the install so a failed read leaves no stale mapping.
		delete(bpm.pageTable, pageId)
		page.pageId = common.InvalidPageId
		page.pinCount = 0
		bpm.freeList.PushBack(frameId)
		return nil, err
	}
	bpm.metrics.FetchMisses.Inc()
	return page, nil
}

// UnpinPage drops one pin and records whether the caller dirtied the
// page. Returns false iff the page is not resident. Once the pin count
// reaches zero the frame becomes an eviction candidate.
func (bpm *BufferPoolManager) UnpinPage(pageId common.PageId, isDirty bool) bool {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameId, ok := bpm.pageTable[pageId]
	if !ok {
		log.Warnf("Trying to unpin page %d, but the page is not in the buffer.", pageId)
		return false
	}
	page := &bpm.pages[frameId]
	if page.pinCount > 0 {
		page.pinCount--
		page.isDirty = page.isDirty || isDirty
		if page.pinCount == 0 {
			bpm.replacer.Unpin(frameId)
		}
	} else {
		// Caller bug; the count saturates at zero.
		log.Warnf("Trying to unpin page %d, but page's pin count is zero.", pageId)
	}
	return true
}

// FlushPage writes the page out regardless of its dirty or pin state.
func (bpm *BufferPoolManager) FlushPage(pageId common.PageId) error {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameId, ok := bpm.pageTable[pageId]
	if !ok {
		log.Warnf("Page %d is not in buffer. Cannot flush page.", pageId)
		return ErrPageNotResident
	}
	page := &bpm.pages[frameId]
	if err := bpm.diskManager.WritePage(pageId, page.Data()); err != nil {
		log.WithError(err).Errorf("Cannot flush page %d.", pageId)
		return err
	}
	page.isDirty = false
	bpm.metrics.Flushes.Inc()
	return nil
}

// NewPage allocates a fresh page id from the disk manager and installs
// it, pinned, in a reclaimed frame. The frame's buffer starts zeroed;
// nothing is read from disk.
func (bpm *BufferPoolManager) NewPage() (*Page, error) {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameId, err := bpm.pickVictimFrame()
	if err != nil {
		log.WithError(err).Warnf("Cannot create new page.")
		return nil, err
	}
	page := &bpm.pages[frameId]
	newPageId, err := bpm.diskManager.AllocatePage()
	if err != nil {
		log.WithError(err).Errorf("Allocate page failed.")
		page.pageId = common.InvalidPageId
		page.pinCount = 0
		bpm.freeList.PushBack(frameId)
		return nil, err
	}
	page.pageId = newPageId
	page.ResetMemory()
	page.pinCount = 1
	page.isDirty = false
	bpm.pageTable[newPageId] = frameId
	return page, nil
}

// DeletePage drops a resident, unpinned page from the pool and
// deallocates its id. ErrPagePinned is returned while clients hold it.
func (bpm *BufferPoolManager) DeletePage(pageId common.PageId) error {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameId, ok := bpm.pageTable[pageId]
	if !ok {
		return ErrPageNotResident
	}
	page := &bpm.pages[frameId]
	if page.pinCount > 0 {
		return ErrPagePinned
	}
	if err := bpm.diskManager.DeallocatePage(pageId); err != nil {
		return err
	}
	delete(bpm.pageTable, pageId)
	bpm.replacer.Pin(frameId)
	page.ResetMemory()
	page.pageId = common.InvalidPageId
	page.pinCount = 0
	page.isDirty = false
	bpm.freeList.PushBack(frameId)
	return nil
}

// FlushAllPages writes back every resident dirty page.
func (bpm *BufferPoolManager) FlushAllPages() error {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	for pageId, frameId := range bpm.pageTable {
		page := &bpm.pages[frameId]
		if !page.isDirty {
			continue
		}
		if err := bpm.diskManager.WritePage(pageId, page.Data()); err != nil {
			log.WithError(err).Errorf("Cannot flush page %d.", pageId)
			return err
		}
		page.isDirty = false
		bpm.metrics.Flushes.Inc()
	}
	return nil
}

// pickVictimFrame reclaims one frame, preferring the free list so a
// cold pool warms up without evicting. A replacer victim is written
// back first if dirty and only then unmapped, so a failed write-back
// leaves the pool consistent. Caller holds bpm.mu.
func (bpm *BufferPoolManager) pickVictimFrame() (int, error) {
	if bpm.freeList.Len() > 0 {
		elem := bpm.freeList.Front()
		frameId := elem.Value.(int)
		bpm.freeList.Remove(elem)
		return frameId, nil
	}
	frameId, found := bpm.replacer.Victim()
	if !found {
		return 0, ErrPoolFull
	}
	page := &bpm.pages[frameId]
	if page.isDirty {
		// Log ahead of the data page.
		if bpm.logManager != nil {
			if err := bpm.logManager.Flush(); err != nil {
				log.WithError(err).Errorf("Cannot sync log before evicting page %d.", page.pageId)
				bpm.replacer.Unpin(frameId)
				return 0, err
			}
		}
		if err := bpm.diskManager.WritePage(page.pageId, page.Data()); err != nil {
			log.WithError(err).Errorf("Cannot write page %d back.", page.pageId)
			bpm.replacer.Unpin(frameId)
			return 0, err
		}
		page.isDirty = false
		bpm.metrics.WriteBacks.Inc()
	}
	delete(bpm.pageTable, page.pageId)
	bpm.metrics.Evictions.Inc()
	return frameId, nil
}
