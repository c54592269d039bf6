package sink

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/slim-bean/adsb-intercept/pkg/detector"
)

var interceptionsBucket = []byte("interceptions")

// keyTimeLayout is RFC 3339 with a fixed nine digit fraction so keys sort
// chronologically.
const keyTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Bolt stores interceptions in a bbolt file, keyed by time, interceptor and
// target.
type Bolt struct {
	db *bolt.DB
}

func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(interceptionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db}, nil
}

func eventKey(ev *detector.Event) []byte {
	return []byte(ev.Time.UTC().Format(keyTimeLayout) + "/" + ev.Interceptor.Hex + "/" + ev.Target.Hex)
}

func (b *Bolt) Write(ev *detector.Event) error {
	val, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(interceptionsBucket).Put(eventKey(ev), val)
	})
}

// ForEach calls fn for every stored interception in key order. Iteration
// stops at the first error.
func (b *Bolt) ForEach(fn func(key string, ev *detector.Event) error) error {
	return b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(interceptionsBucket).ForEach(func(k, v []byte) error {
			var ev detector.Event
			if err := json.Unmarshal(v, &ev); err != nil {
				return fmt.Errorf("decoding %s: %w", k, err)
			}
			return fn(string(k), &ev)
		})
	})
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
