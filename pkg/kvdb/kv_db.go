package kvdb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lintang-b-s/osmlr-overlay/pkg/overlay"
	"go.etcd.io/bbolt"
)

var (
	ErrorsKeyNotExists = errors.New("key not exists")
)

const (
	BBOLTDB_BUCKET = "overlays"
)

// BoltSink persists published overlays in a bbolt bucket so the last overlay survives a
// restart.
type BoltSink struct {
	db *bbolt.DB
	sync.Mutex
}

func OpenBolt(path string) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BBOLTDB_BUCKET))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", BBOLTDB_BUCKET, err)
	}
	return db, nil
}

func NewBoltSink(db *bbolt.DB) *BoltSink {
	return &BoltSink{db: db}
}

func (s *BoltSink) Set(_ context.Context, name string, o overlay.Overlay) error {
	buf, err := encodeOverlay(o, time.Now())
	if err != nil {
		return err
	}

	s.Lock()
	defer s.Unlock()
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BBOLTDB_BUCKET))
		return b.Put([]byte(name), buf)
	})
}

func (s *BoltSink) Get(_ context.Context, name string) (o overlay.Overlay, ok bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BBOLTDB_BUCKET))
		buf := b.Get([]byte(name))
		if buf == nil {
			return nil
		}
		// buf is only valid inside the transaction
		o, err = decodeOverlay(buf)
		if err != nil {
			return err
		}
		ok = true
		return nil
	})
	return
}

func (s *BoltSink) Clear(_ context.Context, name string) error {
	s.Lock()
	defer s.Unlock()
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BBOLTDB_BUCKET))
		return b.Delete([]byte(name))
	})
}

// PublishedAt returns when the overlay in slot name was last written.
func (s *BoltSink) PublishedAt(name string) (publishedAt time.Time, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BBOLTDB_BUCKET))
		buf := b.Get([]byte(name))
		if buf == nil {
			return ErrorsKeyNotExists
		}
		env, err := decodeEnvelope(buf)
		if err != nil {
			return err
		}
		publishedAt = time.UnixMilli(env.PublishedAt)
		return nil
	})
	return
}
