package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
)

// LevelStore persists entries in a LevelDB database under the cache
// directory, so the cache survives process restarts. Values are
// gob-encoded and zstd-compressed; rendered markdown compresses well.
type LevelStore struct {
	db *leveldb.DB
}

// OpenLevelStore opens (or creates) the database at dir.
func OpenLevelStore(dir string) (*LevelStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	return &LevelStore{db: db}, nil
}

func (s *LevelStore) Get(key string) (Entry, bool, error) {
	raw, err := s.db.Get([]byte(key), nil)
	if err == errors.ErrNotFound {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading cache entry %s: %w", key, err)
	}

	ent, err := decodeEntry(raw)
	if err != nil {
		// A corrupt value is unreadable forever; drop it so the next
		// write starts clean.
		if delErr := s.db.Delete([]byte(key), nil); delErr != nil {
			slog.Warn("dropping corrupt cache entry failed", "key", key, "error", delErr)
		}
		return Entry{}, false, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	return ent, true, nil
}

func (s *LevelStore) Put(key string, ent Entry) error {
	raw, err := encodeEntry(ent)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}
	if err := s.db.Put([]byte(key), raw, nil); err != nil {
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	return nil
}

func (s *LevelStore) Delete(key string) error {
	if err := s.db.Delete([]byte(key), nil); err != nil {
		return fmt.Errorf("deleting cache entry %s: %w", key, err)
	}
	return nil
}

func (s *LevelStore) Keys() ([]string, error) {
	it := s.db.NewIterator(nil, nil)
	defer it.Release()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("iterating cache keys: %w", err)
	}
	return keys, nil
}

func (s *LevelStore) Close() error {
	return s.db.Close()
}

func encodeEntry(ent Entry) ([]byte, error) {
	var gobBuf bytes.Buffer
	if err := gob.NewEncoder(&gobBuf).Encode(ent); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	w, err := zstd.NewWriter(&out)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(gobBuf.Bytes()); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decodeEntry(raw []byte) (Entry, error) {
	r, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		return Entry{}, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return Entry{}, err
	}

	var ent Entry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&ent); err != nil {
		return Entry{}, err
	}
	return ent, nil
}
