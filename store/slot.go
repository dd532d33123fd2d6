package store

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// SlotKey names the durable record holding the list.
const SlotKey = "minimal_todo_v1"

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

// Slot is a single durable key-value record. Put overwrites unconditionally.
type Slot interface {
	// Get returns the stored bytes. ok is false when nothing has been stored yet.
	Get() (data []byte, ok bool, err error)
	Put(data []byte) error
	Close() error
}

// quarantiner is implemented by slots that can move unreadable content aside.
type quarantiner interface {
	Quarantine() (string, error)
}

// Open returns the slot for the named backend. path is a file for file and sqlite,
// a directory for badger and ignored for memory.
func Open(backend, path string, logger *slog.Logger) (Slot, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendFile, "":
		return NewFileSlot(path), nil
	case BackendSQLite:
		return OpenSQLite(path)
	case BackendBadger:
		return OpenBadger(path, logger)
	case BackendMemory:
		return NewMemorySlot(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// MemorySlot keeps the record in process memory.
type MemorySlot struct {
	mu   sync.Mutex
	data []byte
	set  bool

	// FailWith, when set, is returned by Put instead of storing.
	FailWith error
	puts     int
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (m *MemorySlot) Get() ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, false, nil
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, true, nil
}

func (m *MemorySlot) Put(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.data = append(m.data[:0], data...)
	m.set = true
	m.puts++
	return nil
}

// Puts reports how many successful writes the slot has seen.
func (m *MemorySlot) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

func (m *MemorySlot) Close() error { return nil }
