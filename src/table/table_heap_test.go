package table

import (
	"math/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"buffer-pool-golang/src/buffer"
	"buffer-pool-golang/src/common"
	"buffer-pool-golang/src/disk"
	"buffer-pool-golang/src/wal"
)

var (
	tmpHeapFile = "tmp-heap-file"
	tmpHeapLog  = "tmp-heap-log"
)

func newTestHeap(t *testing.T, poolSize int) (*TableHeap, *buffer.BufferPoolManager, *disk.DiskManager, *wal.LogManager) {
	t.Helper()
	dm := disk.NewDiskManager(tmpHeapFile)
	lm, err := wal.NewLogManager(tmpHeapLog, wal.CodecSnappy)
	require.Nil(t, err)
	bfm := buffer.NewBufferPoolManager(poolSize, dm, lm, buffer.NewLRUReplacer())
	heap, err := NewTableHeap(bfm, lm, true)
	require.Nil(t, err)
	return heap, bfm, dm, lm
}

func TestTableHeap_InsertGet(t *testing.T) {
	defer os.Remove(tmpHeapFile)
	defer os.Remove(tmpHeapLog)
	heap, _, dm, lm := newTestHeap(t, 3)
	defer dm.Close()
	defer lm.Close()

	// Enough kilobyte records to spill over several pages while the
	// pool holds only three frames.
	records := make([][]byte, 10)
	rids := make([]common.RID, 10)
	for i := range records {
		records[i] = make([]byte, 1000)
		rand.Read(records[i])
		rid, err := heap.Insert(records[i])
		require.Nil(t, err)
		rids[i] = rid
	}

	distinctPages := make(map[common.PageId]bool)
	for _, rid := range rids {
		distinctPages[rid.PageId] = true
	}
	require.Greater(t, len(distinctPages), 1)

	for i, rid := range rids {
		data, found := heap.Get(rid)
		require.Equal(t, true, found)
		require.Equal(t, records[i], data)
	}

	_, found := heap.Get(common.RID{PageId: common.PageId(99), SlotNum: 0})
	require.Equal(t, false, found)
}

func TestTableHeap_Delete(t *testing.T) {
	defer os.Remove(tmpHeapFile)
	defer os.Remove(tmpHeapLog)
	heap, _, dm, lm := newTestHeap(t, 3)
	defer dm.Close()
	defer lm.Close()

	rid0, err := heap.Insert([]byte("to be deleted"))
	require.Nil(t, err)
	rid1, err := heap.Insert([]byte("to be kept"))
	require.Nil(t, err)

	require.Equal(t, true, heap.Delete(rid0))
	_, found := heap.Get(rid0)
	require.Equal(t, false, found)
	require.Equal(t, false, heap.Delete(rid0))

	data, found := heap.Get(rid1)
	require.Equal(t, true, found)
	require.Equal(t, []byte("to be kept"), data)

	require.Equal(t, false, heap.Delete(common.RID{PageId: common.PageId(99), SlotNum: 0}))
}

func TestTableHeap_LogsMutations(t *testing.T) {
	defer os.Remove(tmpHeapFile)
	defer os.Remove(tmpHeapLog)
	heap, _, dm, lm := newTestHeap(t, 3)
	defer dm.Close()
	defer lm.Close()

	rid, err := heap.Insert([]byte("logged"))
	require.Nil(t, err)
	heap.Insert([]byte("also logged"))
	require.Equal(t, true, heap.Delete(rid))

	ops := make([]byte, 0)
	require.Nil(t, lm.Replay(func(lsn uint64, payload []byte) error {
		require.NotEmpty(t, payload)
		ops = append(ops, payload[0])
		return nil
	}))
	require.Equal(t, []byte{logOpInsert, logOpInsert, logOpDelete}, ops)
}

func TestTableHeap_RejectsOversizedAndEmpty(t *testing.T) {
	defer os.Remove(tmpHeapFile)
	defer os.Remove(tmpHeapLog)
	heap, _, dm, lm := newTestHeap(t, 3)
	defer dm.Close()
	defer lm.Close()

	_, err := heap.Insert(nil)
	require.NotNil(t, err)

	_, err = heap.Insert(make([]byte, 2*common.PageSize))
	require.NotNil(t, err)

	// The heap still works afterwards.
	rid, err := heap.Insert([]byte("fits"))
	require.Nil(t, err)
	data, found := heap.Get(rid)
	require.Equal(t, true, found)
	require.Equal(t, []byte("fits"), data)
}

func TestTableHeap_Persistence(t *testing.T) {
	defer os.Remove(tmpHeapFile)
	defer os.Remove(tmpHeapLog)

	records := make([][]byte, 6)
	rids := make([]common.RID, 6)
	{
		heap, bfm, dm, lm := newTestHeap(t, 3)
		for i := range records {
			records[i] = make([]byte, 800)
			rand.Read(records[i])
			rid, err := heap.Insert(records[i])
			require.Nil(t, err)
			rids[i] = rid
		}
		require.Nil(t, bfm.FlushAllPages())
		require.Nil(t, lm.Close())
		require.Nil(t, dm.Close())
	}
	{
		dm := disk.NewDiskManager(tmpHeapFile)
		defer dm.Close()
		bfm := buffer.NewBufferPoolManager(3, dm, nil, buffer.NewLRUReplacer())
		heap, err := NewTableHeap(bfm, nil, false)
		require.Nil(t, err)

		for i, rid := range rids {
			data, found := heap.Get(rid)
			require.Equal(t, true, found)
			require.Equal(t, records[i], data)
		}
	}
}
