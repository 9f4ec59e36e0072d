package scanning

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"time"

	"go.etcd.io/bbolt"
)

const transcriptBucketName = "transcripts"

// cacheEntry is the stored form of one OCR transcript
type cacheEntry struct {
	Engine    string    `json:"engine"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CachedRecognizer memoizes OCR transcripts in BoltDB, keyed by engine and
// image content. Users tend to re-submit the same photo after a bad result,
// and cloud engines bill per call.
type CachedRecognizer struct {
	next   Recognizer
	engine string
	db     *bbolt.DB
	now    func() time.Time
}

// NewCachedRecognizer opens (or creates) the cache at path in front of next
func NewCachedRecognizer(path string, engine string, next Recognizer) (*CachedRecognizer, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening transcript cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(transcriptBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &CachedRecognizer{
		next:   next,
		engine: engine,
		db:     db,
		now:    time.Now,
	}, nil
}

// cacheKey hashes the engine name and the decoded pixels, so the same photo
// re-encoded by a phone still hits.
func (c *CachedRecognizer) cacheKey(img image.Image) ([]byte, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}
	h := sha256.New()
	h.Write([]byte(c.engine))
	h.Write([]byte{0})
	h.Write(data)
	return []byte(hex.EncodeToString(h.Sum(nil))), nil
}

func (c *CachedRecognizer) lookup(key []byte) (string, bool) {
	var entry *cacheEntry
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(transcriptBucketName)).Get(key)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		slog.Warn("Failed to read transcript cache", "error", err)
		return "", false
	}
	if entry == nil {
		return "", false
	}
	return entry.Text, true
}

func (c *CachedRecognizer) store(key []byte, text string) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(cacheEntry{Engine: c.engine, Text: text, CreatedAt: c.now()})
		if err != nil {
			return fmt.Errorf("marshaling transcript: %w", err)
		}
		return tx.Bucket([]byte(transcriptBucketName)).Put(key, data)
	})
}

// Recognize returns the cached transcript for img or asks the wrapped engine.
// Failures are never cached.
func (c *CachedRecognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	key, err := c.cacheKey(img)
	if err != nil {
		return "", err
	}
	if text, ok := c.lookup(key); ok {
		slog.Debug("Transcript cache hit", "engine", c.engine)
		return text, nil
	}

	text, err := c.next.Recognize(ctx, img)
	if err != nil {
		return "", err
	}
	if err := c.store(key, text); err != nil {
		slog.Warn("Failed to write transcript cache", "error", err)
	}
	return text, nil
}

// Len returns the number of cached transcripts
func (c *CachedRecognizer) Len() (int, error) {
	var n int
	err := c.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(transcriptBucketName)).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the cache and the wrapped engine
func (c *CachedRecognizer) Close() error {
	dbErr := c.db.Close()
	if err := c.next.Close(); err != nil {
		return err
	}
	return dbErr
}
