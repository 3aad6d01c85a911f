package disk

import (
	"math"
	"unsafe"

	"buffer-pool-golang/src/common"
)

// headerPageInfo is the in-place view of the disk file's page 0: the
// next fresh page id followed by the ids waiting for reuse.
type headerPageInfo struct {
	nextPageId   common.PageId
	numFreePages int64
	ptr          struct{} // free page ids start here
}

const maxFreePages = int64((common.PageSize - unsafe.Sizeof(headerPageInfo{})) / unsafe.Sizeof(common.PageId(0)))

func createHeaderPageInfo(data []byte) *headerPageInfo {
	return (*headerPageInfo)(unsafe.Pointer(&data[0]))
}

func (hdr *headerPageInfo) init() {
	hdr.nextPageId = 1
	hdr.numFreePages = 0
}

func (hdr *headerPageInfo) getFreePageSlice() []common.PageId {
	return (*(*[math.MaxInt32]common.PageId)(unsafe.Pointer(&hdr.ptr)))[:int(hdr.numFreePages)]
}

func (hdr *headerPageInfo) hasFreePage() bool {
	return hdr.numFreePages > 0
}

func (hdr *headerPageInfo) popFreePage() common.PageId {
	buf := hdr.getFreePageSlice()
	ret := buf[0]
	for i := int64(1); i < hdr.numFreePages; i++ {
		buf[i-1] = buf[i]
	}
	hdr.numFreePages -= 1
	return ret
}

func (hdr *headerPageInfo) pushFreePage(pageId common.PageId) bool {
	if hdr.numFreePages >= maxFreePages {
		return false
	}
	hdr.numFreePages += 1
	buf := hdr.getFreePageSlice()
	buf[hdr.numFreePages-1] = pageId
	return true
}
