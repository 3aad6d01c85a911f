package table

import (
	"encoding/binary"
	"fmt"

	log "github.com/sirupsen/logrus"

	"buffer-pool-golang/src/buffer"
	"buffer-pool-golang/src/common"
	"buffer-pool-golang/src/wal"
)

// The directory page is the heap's first allocation; on a fresh file
// the disk manager hands out page 1 for it.
const heapHeaderPageId = common.PageId(1)

const (
	logOpInsert byte = iota + 1
	logOpDelete
)

// TableHeap stores variable-length records across pool-managed pages.
// Every page access follows the pin contract: fetch, latch, mutate,
// unlatch, unpin with the dirty bit. When a log manager is present each
// mutation appends a record before the heap returns.
type TableHeap struct {
	pool       *buffer.BufferPoolManager
	logManager *wal.LogManager
}

// NewTableHeap opens a heap over pool. With isNew the directory page is
// allocated and initialized; otherwise it must already exist on disk.
func NewTableHeap(pool *buffer.BufferPoolManager, logManager *wal.LogManager, isNew bool) (*TableHeap, error) {
	th := &TableHeap{
		pool:       pool,
		logManager: logManager,
	}
	if !isNew {
		return th, nil
	}
	page, err := pool.NewPage()
	if err != nil {
		return nil, fmt.Errorf("create heap directory page: %w", err)
	}
	if page.PageId() != heapHeaderPageId {
		pool.UnpinPage(page.PageId(), false)
		return nil, fmt.Errorf("heap directory landed on page %d, want %d", page.PageId(), heapHeaderPageId)
	}
	page.Lock()
	createHeapHeader(page.Data()).init()
	page.Unlock()
	pool.UnpinPage(page.PageId(), true)
	return th, nil
}

// Insert places the record on a page with room, growing the heap by one
// page when none has any.
func (th *TableHeap) Insert(record []byte) (common.RID, error) {
	if len(record) == 0 {
		return common.RID{}, fmt.Errorf("empty record")
	}

	headerPage, err := th.pool.FetchPage(heapHeaderPageId)
	if err != nil {
		return common.RID{}, fmt.Errorf("fetch heap directory: %w", err)
	}
	headerPage.Lock()
	header := createHeapHeader(headerPage.Data())

	var target common.PageId = common.InvalidPageId
	for _, info := range header.getPageInfoList() {
		if int(info.leftSpace) >= len(record) {
			target = info.pageId
			break
		}
	}

	if target.Valid() {
		rid, err := th.insertIntoPage(header, target, record)
		headerPage.Unlock()
		th.pool.UnpinPage(heapHeaderPageId, err == nil)
		if err != nil {
			return common.RID{}, err
		}
		th.appendLog(logOpInsert, rid, record)
		return rid, nil
	}

	// No existing page fits, start a new one.
	newPage, err := th.pool.NewPage()
	if err != nil {
		headerPage.Unlock()
		th.pool.UnpinPage(heapHeaderPageId, false)
		return common.RID{}, fmt.Errorf("grow heap: %w", err)
	}
	newPage.Lock()
	tablePage := createTablePage(newPage.Data())
	tablePage.init(newPage.PageId(), int32(len(newPage.Data())))
	rid, ok := tablePage.Insert(record)
	if !ok {
		newPage.Unlock()
		th.pool.UnpinPage(newPage.PageId(), false)
		th.pool.DeletePage(newPage.PageId())
		headerPage.Unlock()
		th.pool.UnpinPage(heapHeaderPageId, false)
		return common.RID{}, fmt.Errorf("record of %d bytes does not fit a fresh page", len(record))
	}
	header.pushPageInfo(heapPageInfo{
		pageId:    newPage.PageId(),
		leftSpace: tablePage.getFreeSpaceForInsert(),
	})
	newPage.Unlock()
	th.pool.UnpinPage(newPage.PageId(), true)
	headerPage.Unlock()
	th.pool.UnpinPage(heapHeaderPageId, true)
	th.appendLog(logOpInsert, rid, record)
	return rid, nil
}

// insertIntoPage adds the record to a known page and refreshes its
// directory entry. Caller holds the directory latch and pin.
func (th *TableHeap) insertIntoPage(header *heapHeader, pageId common.PageId, record []byte) (common.RID, error) {
	page, err := th.pool.FetchPage(pageId)
	if err != nil {
		return common.RID{}, fmt.Errorf("fetch heap page %d: %w", pageId, err)
	}
	page.Lock()
	tablePage := createTablePage(page.Data())
	rid, ok := tablePage.Insert(record)
	if !ok {
		page.Unlock()
		th.pool.UnpinPage(pageId, false)
		return common.RID{}, fmt.Errorf("page %d rejected a record its directory entry promised to fit", pageId)
	}
	header.setPageInfo(pageId, heapPageInfo{
		pageId:    pageId,
		leftSpace: tablePage.getFreeSpaceForInsert(),
	})
	page.Unlock()
	th.pool.UnpinPage(pageId, true)
	return rid, nil
}

// Get copies the record out; the returned slice is the caller's.
func (th *TableHeap) Get(rid common.RID) ([]byte, bool) {
	if !th.knownPage(rid.PageId) {
		return nil, false
	}
	page, err := th.pool.FetchPage(rid.PageId)
	if err != nil {
		log.WithError(err).Warnf("Cannot fetch heap page %d.", rid.PageId)
		return nil, false
	}
	page.RLock()
	data, found := createTablePage(page.Data()).Get(rid)
	page.RUnlock()
	th.pool.UnpinPage(rid.PageId, false)
	return data, found
}

// Delete removes the record. The slot stays allocated so other RIDs on
// the page keep their meaning.
func (th *TableHeap) Delete(rid common.RID) bool {
	if !th.knownPage(rid.PageId) {
		return false
	}
	page, err := th.pool.FetchPage(rid.PageId)
	if err != nil {
		log.WithError(err).Warnf("Cannot fetch heap page %d.", rid.PageId)
		return false
	}
	page.Lock()
	tablePage := createTablePage(page.Data())
	deleted := tablePage.Delete(rid)
	freeSpace := tablePage.getFreeSpaceForInsert()
	page.Unlock()
	th.pool.UnpinPage(rid.PageId, deleted)
	if !deleted {
		return false
	}

	headerPage, err := th.pool.FetchPage(heapHeaderPageId)
	if err != nil {
		log.WithError(err).Warnf("Cannot fetch heap directory.")
		return true
	}
	headerPage.Lock()
	createHeapHeader(headerPage.Data()).setPageInfo(rid.PageId, heapPageInfo{
		pageId:    rid.PageId,
		leftSpace: freeSpace,
	})
	headerPage.Unlock()
	th.pool.UnpinPage(heapHeaderPageId, true)
	th.appendLog(logOpDelete, rid, nil)
	return true
}

func (th *TableHeap) knownPage(pageId common.PageId) bool {
	headerPage, err := th.pool.FetchPage(heapHeaderPageId)
	if err != nil {
		log.WithError(err).Warnf("Cannot fetch heap directory.")
		return false
	}
	headerPage.RLock()
	_, ok := createHeapHeader(headerPage.Data()).getPageInfo(pageId)
	headerPage.RUnlock()
	th.pool.UnpinPage(heapHeaderPageId, false)
	return ok
}

// appendLog records a mutation: [op][pageId][slot][len][payload].
func (th *TableHeap) appendLog(op byte, rid common.RID, payload []byte) {
	if th.logManager == nil {
		return
	}
	buf := make([]byte, 1+8+4+4+len(payload))
	buf[0] = op
	binary.LittleEndian.PutUint64(buf[1:], uint64(rid.PageId))
	binary.LittleEndian.PutUint32(buf[9:], uint32(rid.SlotNum))
	binary.LittleEndian.PutUint32(buf[13:], uint32(len(payload)))
	copy(buf[17:], payload)
	if _, err := th.logManager.Append(buf); err != nil {
		log.WithError(err).Errorf("Cannot append heap log record.")
	}
}
