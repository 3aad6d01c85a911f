package buffer

import (
	"container/list"
	"sync"
)

// ClockReplacer is a second-chance policy. Eligible frames sit on a
// circular list with a reference bit each; the clock hand sweeps the
// list, clearing set bits and evicting the first frame whose bit is
// already clear. Re-unpinning a tracked frame sets its bit again, which
// buys it one more sweep.
type ClockReplacer struct {
	dataList list.List
	index    map[int]*list.Element
	ref      map[int]bool
	hand     *list.Element
	mu       sync.Mutex
}

func NewClockReplacer() *ClockReplacer {
	return &ClockReplacer{
		index: make(map[int]*list.Element),
		ref:   make(map[int]bool),
	}
}

func (c *ClockReplacer) Victim() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.index) == 0 {
		return 0, false
	}
	for {
		// The hand going nil means it ran off the list end; wrap.
		if c.hand == nil {
			c.hand = c.dataList.Front()
		}
		frameId := c.hand.Value.(int)
		if !c.ref[frameId] {
			c.removeLocked(c.hand, frameId)
			return frameId, true
		}
		c.ref[frameId] = false
		c.hand = c.hand.Next()
	}
}

func (c *ClockReplacer) Pin(frameId int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.index[frameId]
	if !ok {
		return
	}
	c.removeLocked(elem, frameId)
}

func (c *ClockReplacer) Unpin(frameId int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.index[frameId]; ok {
		c.ref[frameId] = true
		return
	}
	c.dataList.PushBack(frameId)
	c.index[frameId] = c.dataList.Back()
	c.ref[frameId] = true
}

func (c *ClockReplacer) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// removeLocked unlinks one node, stepping the hand past it first if the
// hand points at it.
func (c *ClockReplacer) removeLocked(elem *list.Element, frameId int) {
	if c.hand == elem {
		c.hand = elem.Next()
	}
	c.dataList.Remove(elem)
	delete(c.index, frameId)
	delete(c.ref, frameId)
}
