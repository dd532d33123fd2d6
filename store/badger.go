package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// BadgerSlot stores the record under SlotKey in an embedded BadgerDB.
type BadgerSlot struct {
	db  *badger.DB
	key []byte
}

// OpenBadger opens a persistent database in dir. A nil logger silences badger.
func OpenBadger(dir string, logger *slog.Logger) (*BadgerSlot, error) {
	if dir == "" {
		return nil, errors.New("badger backend needs a directory")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create database directory %s: %w", dir, err)
	}
	opts := badger.DefaultOptions(dir).
		WithSyncWrites(true).
		WithNumVersionsToKeep(1)
	return openBadger(opts, logger)
}

// OpenBadgerInMemory opens a database that lives only as long as the process.
func OpenBadgerInMemory() (*BadgerSlot, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true), nil)
}

func openBadger(opts badger.Options, logger *slog.Logger) (*BadgerSlot, error) {
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger.With("component", "badger")})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerSlot{db: db, key: []byte(SlotKey)}, nil
}

func (b *BadgerSlot) Get() ([]byte, bool, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (b *BadgerSlot) Put(data []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key, data)
	})
}

func (b *BadgerSlot) Close() error {
	return b.db.Close()
}

// badgerLogger adapts slog.Logger to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
