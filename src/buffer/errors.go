package buffer

import "errors"

var (
	// ErrPoolFull means every frame is pinned and the free list is
	// empty, so no victim can be elected.
	ErrPoolFull = errors.New("buffer pool is full")

	// ErrPageNotResident means the requested page id has no frame.
	ErrPageNotResident = errors.New("page is not in the buffer pool")

	// ErrPagePinned means the page cannot be deleted while clients
	// still hold pins on it.
	ErrPagePinned = errors.New("page is still pinned")
)
