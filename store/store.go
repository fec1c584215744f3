// Package store keeps saved pipelines in a BoltDB file. Each pipeline is
// kept under its name as pipeline.Marshal bytes, next to a JSON Entry
// describing it.
package store

import (
	"encoding/json"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/YuminosukeSato/goautoml/pipeline"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

const (
	pipelinesBucket = "pipelines" // pipeline.Marshal bytes
	metadataBucket  = "metadata"  // JSON Entry
)

// ErrNotFound is returned for names that are not in the store.
var ErrNotFound = errors.New("store: pipeline not found")

// Entry describes a stored pipeline.
type Entry struct {
	Name        string             `json:"name"`
	PipelineID  string             `json:"pipeline_id"`
	Pipeline    string             `json:"pipeline"`
	ProblemType string             `json:"problem_type"`
	Objective   string             `json:"objective"`
	Fitted      bool               `json:"fitted"`
	Scores      map[string]float64 `json:"scores,omitempty"`
	SavedAt     time.Time          `json:"saved_at"`
}

// Store is safe for concurrent use; bbolt serialises writers.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens or creates the store file at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "store: open %s", path)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{pipelinesBucket, metadataBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return errors.Wrapf(err, "store: create bucket %s", name)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put saves p under name, replacing any earlier pipeline with that name.
// scores are recorded as given, e.g. the result of p.Score.
func (s *Store) Put(name string, p *pipeline.Pipeline, scores map[string]float64) error {
	if name == "" {
		return errors.NewValidationError("name", "must not be empty", name)
	}
	if p == nil {
		return errors.NewValueError("store.Put", "pipeline is nil")
	}
	data, err := pipeline.Marshal(p)
	if err != nil {
		return errors.Wrapf(err, "store: marshal %s", name)
	}
	entry := Entry{
		Name:        name,
		PipelineID:  p.ID(),
		Pipeline:    p.Name(),
		ProblemType: p.ProblemType().Key(),
		Objective:   p.Objective().Name(),
		Fitted:      p.IsFitted(),
		Scores:      scores,
		SavedAt:     s.now().UTC(),
	}
	meta, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrapf(err, "store: marshal metadata of %s", name)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(pipelinesBucket)).Put([]byte(name), data); err != nil {
			return err
		}
		return tx.Bucket([]byte(metadataBucket)).Put([]byte(name), meta)
	})
}

// Get loads the pipeline saved under name. opts are passed to
// pipeline.Unmarshal.
func (s *Store) Get(name string, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(pipelinesBucket)).Get([]byte(name))
		if v == nil {
			return errors.Wrapf(ErrNotFound, "store: %s", name)
		}
		// bbolt の値はトランザクション外では無効
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pipeline.Unmarshal(data, opts...)
}

// Entry returns the metadata saved under name.
func (s *Store) Entry(name string) (Entry, error) {
	var e Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(metadataBucket)).Get([]byte(name))
		if v == nil {
			return errors.Wrapf(ErrNotFound, "store: %s", name)
		}
		return json.Unmarshal(v, &e)
	})
	return e, err
}

// List returns every entry ordered by name.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(metadataBucket)).ForEach(func(_, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Best returns the entry with the highest (or, when greaterIsBetter is
// false, lowest) score for objective among entries that recorded it.
func (s *Store) Best(objective string, greaterIsBetter bool) (Entry, error) {
	entries, err := s.List()
	if err != nil {
		return Entry{}, err
	}
	var best Entry
	found := false
	for _, e := range entries {
		v, ok := e.Scores[objective]
		if !ok {
			continue
		}
		if !found || (greaterIsBetter && v > best.Scores[objective]) || (!greaterIsBetter && v < best.Scores[objective]) {
			best, found = e, true
		}
	}
	if !found {
		return Entry{}, errors.Wrapf(ErrNotFound, "store: no pipeline scored with %s", objective)
	}
	return best, nil
}

// Delete removes name. Deleting a missing name returns ErrNotFound.
func (s *Store) Delete(name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(pipelinesBucket))
		if b.Get([]byte(name)) == nil {
			return errors.Wrapf(ErrNotFound, "store: %s", name)
		}
		if err := b.Delete([]byte(name)); err != nil {
			return err
		}
		return tx.Bucket([]byte(metadataBucket)).Delete([]byte(name))
	})
}
