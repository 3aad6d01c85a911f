package disk

import (
	"testing"

	"github.com/ncw/directio"
	"github.com/stretchr/testify/require"

	"buffer-pool-golang/src/common"
)

func TestHeaderPageInfo_Init(t *testing.T) {
	data := directio.AlignedBlock(common.PageSize)
	hdr := createHeaderPageInfo(data)
	hdr.init()

	require.Equal(t, common.PageId(1), hdr.nextPageId)
	require.Equal(t, int64(0), hdr.numFreePages)
	require.Equal(t, false, hdr.hasFreePage())
}

func TestHeaderPageInfo_PushPop(t *testing.T) {
	data := directio.AlignedBlock(common.PageSize)
	hdr := createHeaderPageInfo(data)
	hdr.init()

	for i := 0; i < 5; i++ {
		require.Equal(t, true, hdr.pushFreePage(common.PageId(10+i)))
	}
	require.Equal(t, int64(5), hdr.numFreePages)

	// FIFO order.
	for i := 0; i < 5; i++ {
		require.Equal(t, true, hdr.hasFreePage())
		require.Equal(t, common.PageId(10+i), hdr.popFreePage())
	}
	require.Equal(t, false, hdr.hasFreePage())
}

func TestHeaderPageInfo_Capacity(t *testing.T) {
	data := directio.AlignedBlock(common.PageSize)
	hdr := createHeaderPageInfo(data)
	hdr.init()

	for i := int64(0); i < maxFreePages; i++ {
		require.Equal(t, true, hdr.pushFreePage(common.PageId(i+1)))
	}
	require.Equal(t, false, hdr.pushFreePage(common.PageId(9999)))
	require.Equal(t, maxFreePages, hdr.numFreePages)
}
