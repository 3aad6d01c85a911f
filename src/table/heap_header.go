package table

import (
	"math"
	"unsafe"

	"buffer-pool-golang/src/common"
)

type heapPageInfo struct {
	pageId    common.PageId
	leftSpace int32
	_         int32
}

// heapHeader is the in-place view of the heap's directory page: one
// entry per data page with its remaining insert capacity.
type heapHeader struct {
	numPages int64
	ptr      struct{}
}

func createHeapHeader(data []byte) *heapHeader {
	return (*heapHeader)(unsafe.Pointer(&data[0]))
}

func (hdr *heapHeader) init() {
	hdr.numPages = 0
}

func (hdr *heapHeader) getPageInfoList() []heapPageInfo {
	return (*(*[math.MaxInt32]heapPageInfo)(unsafe.Pointer(&hdr.ptr)))[:int(hdr.numPages)]
}

func (hdr *heapHeader) getPageInfo(pageId common.PageId) (heapPageInfo, bool) {
	for _, info := range hdr.getPageInfoList() {
		if info.pageId == pageId {
			return info, true
		}
	}
	return heapPageInfo{}, false
}

func (hdr *heapHeader) setPageInfo(pageId common.PageId, info heapPageInfo) bool {
	list := hdr.getPageInfoList()
	for i := range list {
		if list[i].pageId == pageId {
			list[i] = info
			return true
		}
	}
	return false
}

func (hdr *heapHeader) pushPageInfo(info heapPageInfo) {
	hdr.numPages += 1
	list := hdr.getPageInfoList()
	list[int(hdr.numPages)-1] = info
}
