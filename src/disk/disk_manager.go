package disk

import (
	"fmt"
	"io"
	"os"

	"github.com/ncw/directio"
	log "github.com/sirupsen/logrus"

	"buffer-pool-golang/src/common"
)

const headerPageId = common.PageId(0)

// DiskManager persists fixed-size pages in one direct-I/O file. Page 0
// is the manager's own header: the next page id to hand out plus the
// list of deallocated ids waiting for reuse. All reads and writes are
// synchronous (O_SYNC).
type DiskManager struct {
	fileName      string
	header        *headerPageInfo
	headerRawData []byte

	fi *os.File
}

func NewDiskManager(fileName string) *DiskManager {
	fi, err := directio.OpenFile(fileName, os.O_CREATE|os.O_RDWR|os.O_SYNC, 0644)
	if err != nil {
		log.WithError(err).Fatalf("Cannot open file.")
	}
	dm := &DiskManager{
		fileName: fileName,
		fi:       fi,
	}
	size, err := dm.getFileSize()
	if err != nil {
		log.WithError(err).Fatalf("Cannot get file size.")
	}
	if size == 0 { // New file
		dm.headerRawData = directio.AlignedBlock(common.PageSize)
		dm.header = createHeaderPageInfo(dm.headerRawData)
		dm.header.init()
		if err := dm.writeHeaderPage(); err != nil {
			log.WithError(err).Fatalf("Write header page failed.")
		}
	} else {
		dm.headerRawData = directio.AlignedBlock(common.PageSize)
		if err := dm.readPageData(headerPageId, dm.headerRawData); err != nil {
			log.WithError(err).Fatalf("Read header page failed.")
		}
		dm.header = createHeaderPageInfo(dm.headerRawData)
	}
	return dm
}

func (dm *DiskManager) Close() error {
	return dm.fi.Close()
}

// AllocatePage returns a page id no live page uses: a previously
// deallocated id if one is waiting, else a fresh id past the end of the
// file. A fresh id's page is zero-filled on disk so later reads do not
// run past the end of the file.
func (dm *DiskManager) AllocatePage() (common.PageId, error) {
	var pageId common.PageId
	if dm.header.hasFreePage() {
		pageId = dm.header.popFreePage()
	} else {
		pageId = dm.header.nextPageId
		if err := dm.writePageData(pageId, directio.AlignedBlock(common.PageSize)); err != nil {
			return common.InvalidPageId, fmt.Errorf("extend file for page %d: %w", pageId, err)
		}
		dm.header.nextPageId++
	}
	if err := dm.writeHeaderPage(); err != nil {
		return common.InvalidPageId, fmt.Errorf("write header page: %w", err)
	}
	return pageId, nil
}

// DeallocatePage makes the id available to a later AllocatePage. The
// page's bytes stay on disk untouched until then.
func (dm *DiskManager) DeallocatePage(pageId common.PageId) error {
	if pageId <= headerPageId {
		return fmt.Errorf("cannot deallocate page %d", pageId)
	}
	if !dm.header.pushFreePage(pageId) {
		return fmt.Errorf("free page list is full")
	}
	if err := dm.writeHeaderPage(); err != nil {
		return fmt.Errorf("write header page: %w", err)
	}
	return nil
}

// ReadPage fills data with the page's contents. data must be an
// aligned block of exactly one page.
func (dm *DiskManager) ReadPage(pageId common.PageId, data []byte) error {
	return dm.readPageData(pageId, data)
}

// WritePage persists exactly one page of data synchronously.
func (dm *DiskManager) WritePage(pageId common.PageId, data []byte) error {
	return dm.writePageData(pageId, data)
}

func (dm *DiskManager) getFileSize() (int64, error) {
	stat, err := dm.fi.Stat()
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

func (dm *DiskManager) readPageData(pageId common.PageId, data []byte) error {
	if pageId < 0 {
		return fmt.Errorf("Page id is negative.")
	}
	if len(data) != common.PageSize {
		return fmt.Errorf("Buffer is not exactly one page.")
	}
	offset := int64(pageId) * common.PageSize
	size, err := dm.getFileSize()
	if err != nil {
		return err
	}
	if offset >= size {
		return fmt.Errorf("Read past end of file.")
	}
	if _, err := dm.fi.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.ReadFull(dm.fi, data); err != nil {
		return err
	}
	return nil
}

func (dm *DiskManager) writePageData(pageId common.PageId, data []byte) error {
	if pageId < 0 {
		return fmt.Errorf("Page id is negative.")
	}
	if len(data) != common.PageSize {
		return fmt.Errorf("Buffer is not exactly one page.")
	}
	offset := int64(pageId) * common.PageSize
	if _, err := dm.fi.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	if _, err := dm.fi.Write(data); err != nil {
		return err
	}
	return nil
}

func (dm *DiskManager) writeHeaderPage() error {
	return dm.writePageData(headerPageId, dm.headerRawData)
}
