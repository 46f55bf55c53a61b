package audit

import (
	"encoding/binary"
	"encoding/json"
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("audit: record not found")

// Store persists audit records keyed by sequence number.
type Store interface {
	Put(rec Record) error
	Get(seq uint64) (Record, error)
	Close() error
}

// LevelStore is a leveldb-backed audit store. Records are stored under
// 8-byte big-endian sequence keys so an iterator yields them in append order.
type LevelStore struct {
	db *leveldb.DB
}

// OpenLevelStore opens (creating if necessary) a leveldb audit store at path.
func OpenLevelStore(path string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelStore{db: db}, nil
}

func seqKey(seq uint64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], seq)
	return key[:]
}

// Put writes rec under its sequence key.
func (s *LevelStore) Put(rec Record) error {
	blob, err := json.Marshal(&rec)
	if err != nil {
		return err
	}
	return s.db.Put(seqKey(rec.Seq), blob, nil)
}

// Get reads the record with the given sequence number.
func (s *LevelStore) Get(seq uint64) (Record, error) {
	blob, err := s.db.Get(seqKey(seq), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(blob, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Range calls fn for every stored record with seq in [start, end), in append
// order, stopping early if fn returns false.
func (s *LevelStore) Range(start, end uint64, fn func(Record) bool) error {
	it := s.db.NewIterator(&util.Range{Start: seqKey(start), Limit: seqKey(end)}, nil)
	defer it.Release()
	for it.Next() {
		var rec Record
		if err := json.Unmarshal(it.Value(), &rec); err != nil {
			return err
		}
		if !fn(rec) {
			break
		}
	}
	return it.Error()
}

// Close releases the underlying database.
func (s *LevelStore) Close() error { return s.db.Close() }
