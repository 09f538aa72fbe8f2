// Package badgerstore implements a cfdp.MIB backed by an embedded Badger
// key-value store, so remote-entity configuration survives daemon
// restarts.
package badgerstore

import (
	"encoding/json"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/cfdpgo"
)

// Store is a cfdp.MIB whose entries are persisted in a Badger database
// directory.
type Store struct {
	db *badgerdb.DB
}

// Open opens (creating if necessary) a Badger database at dir and returns
// a Store backed by it. Call Close when done.
func Open(dir string) (*Store, error) {
	db, err := badgerdb.Open(badgerdb.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger mib store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func entryKey(entityID cfdp.EntityID) []byte {
	return []byte(fmt.Sprintf("mib/entry/%d", uint64(entityID)))
}

// entryRecord is the JSON-serializable form of cfdp.Entry; the fault
// handler map's ConditionCode keys are encoded as decimal strings because
// JSON object keys must be strings.
type entryRecord struct {
	EntityID                uint64
	DefaultTransmissionMode int
	MaxFileSegmentLength    uint64
	DefaultChecksumType     int
	PositiveAckTimeoutNs    int64
	PositiveAckLimit        int
	NakTimeoutNs            int64
	NakLimit                int
	FaultHandlerOverrides   map[string]int
}

func toRecord(e cfdp.Entry) entryRecord {
	overrides := make(map[string]int, len(e.FaultHandlerOverrides))
	for code, action := range e.FaultHandlerOverrides {
		overrides[fmt.Sprintf("%d", int(code))] = int(action)
	}
	return entryRecord{
		EntityID:                uint64(e.EntityID),
		DefaultTransmissionMode: int(e.DefaultTransmissionMode),
		MaxFileSegmentLength:    e.MaxFileSegmentLength,
		DefaultChecksumType:     int(e.DefaultChecksumType),
		PositiveAckTimeoutNs:    e.PositiveAckTimeout.Nanoseconds(),
		PositiveAckLimit:        e.PositiveAckLimit,
		NakTimeoutNs:            e.NakTimeout.Nanoseconds(),
		NakLimit:                e.NakLimit,
		FaultHandlerOverrides:   overrides,
	}
}

func (r entryRecord) toEntry() cfdp.Entry {
	overrides := make(map[cfdp.ConditionCode]cfdp.FaultHandlerAction, len(r.FaultHandlerOverrides))
	for k, v := range r.FaultHandlerOverrides {
		var code int
		fmt.Sscanf(k, "%d", &code)
		overrides[cfdp.ConditionCode(code)] = cfdp.FaultHandlerAction(v)
	}
	return cfdp.Entry{
		EntityID:                cfdp.EntityID(r.EntityID),
		DefaultTransmissionMode: cfdp.TransmissionMode(r.DefaultTransmissionMode),
		MaxFileSegmentLength:    r.MaxFileSegmentLength,
		DefaultChecksumType:     cfdp.ChecksumType(r.DefaultChecksumType),
		PositiveAckTimeout:      time.Duration(r.PositiveAckTimeoutNs),
		PositiveAckLimit:        r.PositiveAckLimit,
		NakTimeout:              time.Duration(r.NakTimeoutNs),
		NakLimit:                r.NakLimit,
		FaultHandlerOverrides:   overrides,
	}
}

// Set installs or replaces entry, persisting it immediately.
func (s *Store) Set(entry cfdp.Entry) error {
	data, err := json.Marshal(toRecord(entry))
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(entryKey(entry.EntityID), data)
	})
}

// Remove deletes the entry for entityID, if any.
func (s *Store) Remove(entityID cfdp.EntityID) error {
	return s.db.Update(func(txn *badgerdb.Txn) error {
		err := txn.Delete(entryKey(entityID))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// Lookup implements cfdp.MIB.
func (s *Store) Lookup(entityID cfdp.EntityID) (cfdp.Entry, bool) {
	var rec entryRecord
	found := false
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(entryKey(entityID))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil || !found {
		return cfdp.Entry{}, false
	}
	return rec.toEntry(), true
}

var _ cfdp.MIB = (*Store)(nil)
