package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"asset-pipeline/core/apperror"
	"asset-pipeline/core/asset"

	"go.etcd.io/bbolt"
)

const (
	// bucketUploads holds Record values keyed by remote path.
	bucketUploads = "uploads"
)

// Config holds configuration for the ledger file.
type Config struct {
	// Path is the bbolt database file.
	Path string `mapstructure:"path" default:"data/ledger.db"`
}

// Ledger is the bbolt-backed upload record store.
// Reads run concurrently; bbolt serializes writes.
type Ledger struct {
	conn *bbolt.DB
}

// Open opens (or creates) the ledger file at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, apperror.Wrap(apperror.KindPersistence, "create ledger dir", err)
	}

	// Timeout prevents two processes from blocking on the same file forever.
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, apperror.Wrap(apperror.KindPersistence, "open ledger", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketUploads))
		return err
	})
	if err != nil {
		db.Close()
		return nil, apperror.Wrap(apperror.KindPersistence, "create ledger bucket", err)
	}

	return &Ledger{conn: db}, nil
}

// Close closes the ledger file.
func (l *Ledger) Close() error {
	return l.conn.Close()
}

// SaveUpload stores rec, replacing any record with the same remote path.
func (l *Ledger) SaveUpload(rec Record) error {
	if rec.RemotePath == "" {
		return apperror.Wrap(apperror.KindPersistence, "save upload", fmt.Errorf("record has no remote path"))
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return apperror.Wrap(apperror.KindPersistence, "encode record "+rec.RemotePath, err)
	}

	err = l.conn.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketUploads)).Put([]byte(rec.RemotePath), data)
	})
	return apperror.Wrap(apperror.KindPersistence, "save record "+rec.RemotePath, err)
}

// Query returns the record for remotePath, or nil when none exists.
func (l *Ledger) Query(remotePath string) (*Record, error) {
	var rec *Record
	err := l.conn.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketUploads)).Get([]byte(remotePath))
		if v == nil {
			return nil
		}
		rec = &Record{}
		return json.Unmarshal(v, rec)
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.KindPersistence, "query "+remotePath, err)
	}
	return rec, nil
}

// ListByProject returns every record whose remote path lives under project.
func (l *Ledger) ListByProject(project string) ([]Record, error) {
	prefix := []byte(strings.TrimSuffix(project, "/") + "/")
	var out []Record

	err := l.conn.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucketUploads)).Cursor()
		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode record key=%s: %w", string(k), err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.KindPersistence, "list project "+project, err)
	}
	return out, nil
}

// ListByResource returns the records attributed to ref.
func (l *Ledger) ListByResource(ref asset.Ref) ([]Record, error) {
	var out []Record
	err := l.forEach(func(rec Record) {
		if r, ok := rec.Ref(); ok && r == ref {
			out = append(out, rec)
		}
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.KindPersistence, "list resource "+ref.String(), err)
	}
	return out, nil
}

// MarkRemoved flags the records for the given remote paths as removed.
// Paths without a record are ignored. It returns the number of records changed.
func (l *Ledger) MarkRemoved(remotePaths []string) (int, error) {
	changed := 0
	err := l.conn.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketUploads))
		for _, p := range remotePaths {
			v := b.Get([]byte(p))
			if v == nil {
				continue
			}
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode record key=%s: %w", p, err)
			}
			if rec.Status == StatusRemoved {
				continue
			}
			rec.Status = StatusRemoved
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(p), data); err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, apperror.Wrap(apperror.KindPersistence, "mark removed", err)
	}
	return changed, nil
}

func (l *Ledger) forEach(fn func(Record)) error {
	return l.conn.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketUploads)).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode record key=%s: %w", string(k), err)
			}
			fn(rec)
			return nil
		})
	})
}
