package wal

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
)

// frame layout:
// [0-7]  LSN
// [8]    codec of the stored payload
// [9-12] uncompressed payload length
// [13-16] stored payload length
// [17+]  payload
const frameHeaderSize = 17

// LogManager is an append-only record log with monotonically increasing
// LSNs. Appends buffer in the OS; Flush makes everything appended so
// far durable. Payloads may be stored compressed; readers get the
// original bytes back.
type LogManager struct {
	fileName string
	fi       *os.File
	codec    Codec
	nextLSN  uint64
	mu       sync.Mutex
}

// NewLogManager opens (or creates) the log file and resumes LSN
// numbering after the last record already present.
func NewLogManager(fileName string, codec Codec) (*LogManager, error) {
	fi, err := os.OpenFile(fileName, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	lm := &LogManager{
		fileName: fileName,
		fi:       fi,
		codec:    codec,
		nextLSN:  1,
	}
	lastLSN, err := lm.scan(nil)
	if err != nil {
		fi.Close()
		return nil, err
	}
	lm.nextLSN = lastLSN + 1
	if _, err := fi.Seek(0, io.SeekEnd); err != nil {
		fi.Close()
		return nil, err
	}
	log.Debugf("Log %s opened, next LSN %d.", fileName, lm.nextLSN)
	return lm, nil
}

func (lm *LogManager) Close() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.fi.Close()
}

// Append writes one record and returns its LSN. The record is durable
// only after the next Flush.
func (lm *LogManager) Append(payload []byte) (uint64, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	stored, codec := compress(lm.codec, payload)
	header := make([]byte, frameHeaderSize)
	lsn := lm.nextLSN
	binary.LittleEndian.PutUint64(header[0:], lsn)
	header[8] = byte(codec)
	binary.LittleEndian.PutUint32(header[9:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(header[13:], uint32(len(stored)))
	if _, err := lm.fi.Write(header); err != nil {
		return 0, fmt.Errorf("append log record: %w", err)
	}
	if _, err := lm.fi.Write(stored); err != nil {
		return 0, fmt.Errorf("append log record: %w", err)
	}
	lm.nextLSN++
	return lsn, nil
}

// Flush forces everything appended so far to stable storage.
func (lm *LogManager) Flush() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.fi.Sync()
}

// NextLSN is the LSN the next Append will use.
func (lm *LogManager) NextLSN() uint64 {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.nextLSN
}

// Replay calls fn with each record's LSN and original payload, in log
// order.
func (lm *LogManager) Replay(fn func(lsn uint64, payload []byte) error) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if _, err := lm.scan(fn); err != nil {
		return err
	}
	_, err := lm.fi.Seek(0, io.SeekEnd)
	return err
}

// scan walks the whole file, optionally handing records to fn, and
// returns the last LSN seen (0 when the log is empty). Caller holds
// lm.mu or is the constructor.
func (lm *LogManager) scan(fn func(lsn uint64, payload []byte) error) (uint64, error) {
	if _, err := lm.fi.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	var lastLSN uint64
	header := make([]byte, frameHeaderSize)
	for {
		if _, err := io.ReadFull(lm.fi, header); err != nil {
			if err == io.EOF {
				return lastLSN, nil
			}
			return 0, fmt.Errorf("log %s is truncated: %w", lm.fileName, err)
		}
		lsn := binary.LittleEndian.Uint64(header[0:])
		codec := Codec(header[8])
		origLen := int(binary.LittleEndian.Uint32(header[9:]))
		storedLen := int(binary.LittleEndian.Uint32(header[13:]))
		stored := make([]byte, storedLen)
		if _, err := io.ReadFull(lm.fi, stored); err != nil {
			return 0, fmt.Errorf("log %s is truncated: %w", lm.fileName, err)
		}
		lastLSN = lsn
		if fn != nil {
			payload, err := decompress(codec, stored, origLen)
			if err != nil {
				return 0, err
			}
			if err := fn(lsn, payload); err != nil {
				return 0, err
			}
		}
	}
}
