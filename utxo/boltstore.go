package utxo

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var (
	bucketUTXOs    = []byte("utxos")
	bucketOutgoing = []byte("outgoing")
)

// BoltStore persists tracker state in a bbolt database. Records are keyed by
// outpoint and outgoing transactions by txid.
type BoltStore struct {
	db *bbolt.DB
}

var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("utxo: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("utxo: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketUTXOs, bucketOutgoing} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("utxo: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

func (s *BoltStore) Load() ([]*Record, []*Outgoing, error) {
	var (
		recs []*Record
		outs []*Outgoing
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketUTXOs).ForEach(func(k, v []byte) error {
			var r Record
			if err := decodeGob(v, &r); err != nil {
				return fmt.Errorf("decode record %s: %w", k, err)
			}
			recs = append(recs, &r)
			return nil
		}); err != nil {
			return err
		}
		return tx.Bucket(bucketOutgoing).ForEach(func(k, v []byte) error {
			var o Outgoing
			if err := decodeGob(v, &o); err != nil {
				return fmt.Errorf("decode outgoing %s: %w", k, err)
			}
			outs = append(outs, &o)
			return nil
		})
	})
	if err != nil {
		return nil, nil, fmt.Errorf("utxo: load: %w", err)
	}
	return recs, outs, nil
}

func (s *BoltStore) Commit(records []*Record, out *Outgoing) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := putRecords(tx, records); err != nil {
			return err
		}
		if out == nil {
			return nil
		}
		data, err := encodeGob(out)
		if err != nil {
			return fmt.Errorf("utxo: encode outgoing: %w", err)
		}
		if err := tx.Bucket(bucketOutgoing).Put([]byte(out.TxID), data); err != nil {
			return fmt.Errorf("utxo: put outgoing: %w", err)
		}
		return nil
	})
}

func (s *BoltStore) Release(records []*Record, txid string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := putRecords(tx, records); err != nil {
			return err
		}
		if err := tx.Bucket(bucketOutgoing).Delete([]byte(txid)); err != nil {
			return fmt.Errorf("utxo: delete outgoing: %w", err)
		}
		return nil
	})
}

func putRecords(tx *bbolt.Tx, records []*Record) error {
	b := tx.Bucket(bucketUTXOs)
	for _, r := range records {
		data, err := encodeGob(r)
		if err != nil {
			return fmt.Errorf("utxo: encode record: %w", err)
		}
		if err := b.Put([]byte(r.UTXO.Outpoint()), data); err != nil {
			return fmt.Errorf("utxo: put record: %w", err)
		}
	}
	return nil
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
