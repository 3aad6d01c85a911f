package common

import "fmt"

// RID names one record inside the page file: the page it lives on and
// its slot index there.
type RID struct {
	PageId  PageId
	SlotNum int
}

func (rid *RID) String() string {
	return fmt.Sprintf("[Page id %d, slot num %d]", rid.PageId, rid.SlotNum)
}
