package table

import (
	"math"
	"unsafe"

	"buffer-pool-golang/src/common"
)

// tablePage is the in-place view of one heap page. Slots grow up from
// the header, record bytes grow down from the page end. Deleted slots
// keep their index (RIDs stay stable) and are reused for later inserts;
// their bytes are reclaimed only when the page empties completely.
type tablePage struct {
	pageId   common.PageId
	pageSize int32
	numSlots int32
	freeEnd  int32 // lowest offset occupied by record bytes
	ptr      struct{}
}

type recordSlot struct {
	offset int32
	length int32 // 0 marks a deleted slot
}

const recordSlotSize = int32(unsafe.Sizeof(recordSlot{}))

func createTablePage(data []byte) *tablePage {
	return (*tablePage)(unsafe.Pointer(&data[0]))
}

func (tp *tablePage) init(pageId common.PageId, pageSize int32) {
	tp.pageId = pageId
	tp.pageSize = pageSize
	tp.numSlots = 0
	tp.freeEnd = pageSize
}

func (tp *tablePage) getSlotSlice() []recordSlot {
	return (*(*[math.MaxInt32]recordSlot)(unsafe.Pointer(&tp.ptr)))[:int(tp.numSlots)]
}

func (tp *tablePage) getRawSlice() []byte {
	return (*[math.MaxInt32]byte)(unsafe.Pointer(tp))[:int(tp.pageSize)]
}

// findOpenSlot returns a deleted slot index to reuse, or numSlots when
// a new slot must be appended.
func (tp *tablePage) findOpenSlot() int {
	slots := tp.getSlotSlice()
	for i := range slots {
		if slots[i].length == 0 {
			return i
		}
	}
	return int(tp.numSlots)
}

func (tp *tablePage) liveRecords() int {
	count := 0
	for _, slot := range tp.getSlotSlice() {
		if slot.length != 0 {
			count++
		}
	}
	return count
}

func (tp *tablePage) getFreeSpace() int32 {
	headerSize := int32(unsafe.Offsetof(tp.ptr))
	slotAreaEnd := headerSize + recordSlotSize*tp.numSlots
	return tp.freeEnd - slotAreaEnd
}

// getFreeSpaceForInsert is the largest record Insert is guaranteed to
// accept, assuming a fresh slot is needed.
func (tp *tablePage) getFreeSpaceForInsert() int32 {
	space := tp.getFreeSpace() - recordSlotSize
	if space < 0 {
		return 0
	}
	return space
}

func (tp *tablePage) Insert(record []byte) (common.RID, bool) {
	recordLen := int32(len(record))
	index := tp.findOpenSlot()
	needed := recordLen
	if index == int(tp.numSlots) {
		needed += recordSlotSize
	}
	if tp.getFreeSpace() < needed {
		return common.RID{}, false
	}

	offset := tp.freeEnd - recordLen
	copy(tp.getRawSlice()[offset:offset+recordLen], record)
	tp.freeEnd = offset

	if index == int(tp.numSlots) {
		tp.numSlots += 1
	}
	slots := tp.getSlotSlice()
	slots[index] = recordSlot{offset: offset, length: recordLen}
	return common.RID{PageId: tp.pageId, SlotNum: index}, true
}

func (tp *tablePage) Get(rid common.RID) ([]byte, bool) {
	if rid.SlotNum < 0 || rid.SlotNum >= int(tp.numSlots) {
		return nil, false
	}
	slot := tp.getSlotSlice()[rid.SlotNum]
	if slot.length == 0 {
		return nil, false
	}
	buf := tp.getRawSlice()
	ret := make([]byte, slot.length)
	copy(ret, buf[slot.offset:slot.offset+slot.length])
	return ret, true
}

func (tp *tablePage) Delete(rid common.RID) bool {
	if rid.SlotNum < 0 || rid.SlotNum >= int(tp.numSlots) {
		return false
	}
	slots := tp.getSlotSlice()
	if slots[rid.SlotNum].length == 0 {
		return false
	}
	slots[rid.SlotNum].length = 0
	if tp.liveRecords() == 0 {
		// Page emptied out, reclaim everything at once.
		tp.numSlots = 0
		tp.freeEnd = tp.pageSize
	}
	return true
}
