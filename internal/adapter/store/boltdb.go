package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"advisor/internal/domain"
)

// CurrentSchemaVersion is the on-disk format version. Increment on breaking
// changes to the storage layout.
const CurrentSchemaVersion = 1

var (
	bucketDocs    = []byte("docs")
	bucketVectors = []byte("vectors")
	bucketMeta    = []byte("meta")
	keyIndexMeta  = []byte("index_meta")
)

// BoltStore persists normalized documents and index metadata.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocs, bucketVectors, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

type docMeta struct {
	Ordinal  int               `json:"ordinal"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// IndexMeta records how the index was built. It is written only after a build
// completes, so its absence marks an empty or partially-written index.
type IndexMeta struct {
	Version   int       `json:"version"`
	Model     string    `json:"model"`
	Dimension int       `json:"dimension"`
	Documents int       `json:"documents"`
	BuiltAt   time.Time `json:"built_at"`
}

func (s *BoltStore) PutDocs(docs []domain.Document) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocs)
		for _, doc := range docs {
			meta := docMeta{
				Ordinal:  doc.Ordinal,
				Text:     doc.Text,
				Metadata: doc.Metadata,
			}
			data, err := json.Marshal(meta)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(doc.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) GetDoc(id string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("document not found: %s", id)
		}
		var meta docMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		doc = domain.Document{
			ID:       id,
			Ordinal:  meta.Ordinal,
			Text:     meta.Text,
			Metadata: meta.Metadata,
		}
		return nil
	})
	return doc, err
}

// ListDocs returns all documents in ingestion order.
func (s *BoltStore) ListDocs() ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			var meta docMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			docs = append(docs, domain.Document{
				ID:       string(k),
				Ordinal:  meta.Ordinal,
				Text:     meta.Text,
				Metadata: meta.Metadata,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Ordinal < docs[j].Ordinal })
	return docs, nil
}

func (s *BoltStore) CountDocs() (int, error) {
	count := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(bucketDocs).Stats().KeyN
		return nil
	})
	return count, err
}

// GetIndexMeta returns the recorded build metadata, or nil when the index has
// never been fully built.
func (s *BoltStore) GetIndexMeta() (*IndexMeta, error) {
	var meta *IndexMeta
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyIndexMeta)
		if data == nil {
			return nil
		}
		meta = &IndexMeta{}
		return json.Unmarshal(data, meta)
	})
	return meta, err
}

func (s *BoltStore) SetIndexMeta(meta *IndexMeta) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keyIndexMeta, data)
	})
}

// NeedsRebuild reports whether the stored index is unusable with the given
// embedding model: never built, built by an older schema, or built with a
// different model or dimension.
func (s *BoltStore) NeedsRebuild(model string, dimension int) (bool, error) {
	meta, err := s.GetIndexMeta()
	if err != nil {
		return false, err
	}
	if meta == nil {
		return true, nil
	}
	if meta.Version != CurrentSchemaVersion {
		return true, nil
	}
	return meta.Model != model || meta.Dimension != dimension, nil
}

// Reset drops all documents, vectors and metadata so a rebuild starts from a
// clean slate. Until the new IndexMeta is written the index reads as unbuilt.
func (s *BoltStore) Reset() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocs, bucketVectors, bucketMeta} {
			if err := tx.DeleteBucket(b); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(b); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
