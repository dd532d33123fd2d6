// Package store persists the item collection to a durable slot.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"minitodo/logging"
	"minitodo/model"
)

// ErrSaveFailed wraps every write failure. In-memory state stays authoritative.
var ErrSaveFailed = errors.New("save failed")

// snapshotSchema accepts any object whose todos field is an array. Items are not checked here.
const snapshotSchema = `{
  "type": "object",
  "required": ["todos"],
  "properties": {
    "todos": {"type": "array"}
  }
}`

var snapshotValidator = jsonschema.MustCompileString("snapshot.schema.json", snapshotSchema)

// Adapter loads and saves the collection through a Slot.
type Adapter struct {
	slot   Slot
	logger *slog.Logger
}

func New(slot Slot, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Adapter{slot: slot, logger: logger.With("component", "store")}
}

// Load returns the stored collection. Missing, unreadable or malformed content yields an
// empty collection; the failure is logged and never returned. Malformed content is moved
// aside when the slot supports it.
func (a *Adapter) Load() model.Collection {
	return a.load(true)
}

// Peek is Load for observers: it never moves malformed content.
func (a *Adapter) Peek() model.Collection {
	return a.load(false)
}

func (a *Adapter) load(quarantine bool) model.Collection {
	data, ok, err := a.slot.Get()
	if err != nil {
		a.logger.Warn("read slot failed; starting empty", "err", err)
		return model.Collection{}
	}
	if !ok || len(bytes.TrimSpace(data)) == 0 {
		return model.Collection{}
	}

	todos, err := decodeSnapshot(data)
	if err != nil {
		a.logger.Warn("stored list is malformed; starting empty", "err", err)
		if !quarantine {
			return model.Collection{}
		}
		if q, ok := a.slot.(quarantiner); ok {
			moved, qErr := q.Quarantine()
			switch {
			case qErr != nil:
				a.logger.Warn("could not move malformed list aside", "err", qErr)
			case moved != "":
				a.logger.Info("malformed list moved aside", "path", moved)
			}
		}
		return model.Collection{}
	}
	return todos
}

// Save overwrites the slot with {"todos": c}.
func (a *Adapter) Save(c model.Collection) error {
	data, err := json.Marshal(model.Snapshot{Todos: c.Clone()})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	if err := a.slot.Put(data); err != nil {
		a.logger.Error("write slot failed", "err", err, "items", len(c))
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	a.logger.Debug("saved", "items", len(c))
	return nil
}

func (a *Adapter) Close() error {
	return a.slot.Close()
}

func decodeSnapshot(data []byte) (model.Collection, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if err := snapshotValidator.Validate(doc); err != nil {
		return nil, err
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	if snap.Todos == nil {
		snap.Todos = model.Collection{}
	}
	return snap.Todos, nil
}
