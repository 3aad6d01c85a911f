package buffer

import (
	"sync"

	"buffer-pool-golang/src/common"
)

// Page is one frame of the buffer pool: a page-sized buffer plus the
// metadata the pool needs to manage residency. The pool manager is the
// only mutator of the metadata; clients may mutate Data() while they
// hold a pin. The embedded RWMutex is the per-page latch left to
// clients, the pool never takes it.
type Page struct {
	data     []byte
	pageId   common.PageId
	pinCount int
	isDirty  bool
	sync.RWMutex
}

func (p *Page) Data() []byte { return p.data }

func (p *Page) PageId() common.PageId { return p.pageId }

func (p *Page) PinCount() int { return p.pinCount }

func (p *Page) IsDirty() bool { return p.isDirty }

// ResetMemory zeroes the page buffer.
func (p *Page) ResetMemory() {
	for i := range p.data {
		p.data[i] = 0
	}
}
