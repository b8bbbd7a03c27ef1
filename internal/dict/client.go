// Package dict looks up word definitions against a dictionary API and
// caches results locally so repeated lookups work offline.
package dict

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AHGGG/nce-english-practices-sub006/internal/database"
	"github.com/AHGGG/nce-english-practices-sub006/internal/logger"
)

const (
	maxResponseBytes = 1 << 20
	cacheTTL         = 30 * 24 * time.Hour
	negativeCacheTTL = 24 * time.Hour
)

// Definition is one sense of a word.
type Definition struct {
	PartOfSpeech string `json:"part_of_speech"`
	Meaning      string `json:"meaning"`
	Example      string `json:"example,omitempty"`
}

// Entry is the lookup result for a word.
type Entry struct {
	Word        string       `json:"word"`
	Phonetic    string       `json:"phonetic,omitempty"`
	Definitions []Definition `json:"definitions"`
}

// ErrNotFound is returned when the word has no dictionary entry.
var ErrNotFound = errors.New("word not found")

// Client queries the dictionary endpoint with a read-through SQLite cache.
type Client struct {
	db       *database.DB
	http     *http.Client
	endpoint string
}

func NewClient(db *database.DB, endpoint string) *Client {
	return &Client{
		db:       db,
		http:     &http.Client{Timeout: 15 * time.Second},
		endpoint: strings.TrimRight(endpoint, "/"),
	}
}

// Lookup returns the entry for word, serving from cache when fresh.
// Misses are cached too so a word that does not exist is not refetched
// on every keystroke.
func (c *Client) Lookup(ctx context.Context, word string) (*Entry, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return nil, fmt.Errorf("empty word")
	}

	if entry, found, ok := c.fromCache(word); ok {
		if !found {
			return nil, ErrNotFound
		}
		return entry, nil
	}

	entry, err := c.fetch(ctx, word)
	if err == ErrNotFound {
		c.store(word, false, nil)
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.store(word, true, entry)
	return entry, nil
}

// fromCache returns (entry, found flag, cache hit). A stale row counts
// as a miss.
func (c *Client) fromCache(word string) (*Entry, bool, bool) {
	var found bool
	var payload string
	var cachedAt time.Time
	err := c.db.QueryRow(
		"SELECT found, payload, cached_at FROM dictionary_cache WHERE word = ?", word,
	).Scan(&found, &payload, &cachedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Warn("Dictionary cache read failed for %q: %v", word, err)
		}
		return nil, false, false
	}

	ttl := cacheTTL
	if !found {
		ttl = negativeCacheTTL
	}
	if time.Since(cachedAt) > ttl {
		return nil, false, false
	}
	if !found {
		return nil, false, true
	}

	var entry Entry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		logger.Warn("Corrupt dictionary cache row for %q: %v", word, err)
		return nil, false, false
	}
	return &entry, true, true
}

func (c *Client) store(word string, found bool, entry *Entry) {
	payload := ""
	if entry != nil {
		if data, err := json.Marshal(entry); err == nil {
			payload = string(data)
		}
	}
	_, err := c.db.Exec(
		`INSERT INTO dictionary_cache (word, found, payload, cached_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(word) DO UPDATE SET found = excluded.found, payload = excluded.payload, cached_at = excluded.cached_at`,
		word, found, payload, time.Now().UTC(),
	)
	if err != nil {
		logger.Warn("Failed to cache dictionary entry for %q: %v", word, err)
	}
}

// apiEntry mirrors the dictionaryapi.dev response shape.
type apiEntry struct {
	Word     string `json:"word"`
	Phonetic string `json:"phonetic"`
	Meanings []struct {
		PartOfSpeech string `json:"partOfSpeech"`
		Definitions  []struct {
			Definition string `json:"definition"`
			Example    string `json:"example"`
		} `json:"definitions"`
	} `json:"meanings"`
}

func (c *Client) fetch(ctx context.Context, word string) (*Entry, error) {
	reqURL := c.endpoint + "/" + url.PathEscape(word)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build dictionary request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dictionary request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dictionary request: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read dictionary response: %w", err)
	}

	var raw []apiEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse dictionary response: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrNotFound
	}

	entry := &Entry{Word: word, Phonetic: raw[0].Phonetic}
	for _, m := range raw[0].Meanings {
		for _, d := range m.Definitions {
			entry.Definitions = append(entry.Definitions, Definition{
				PartOfSpeech: m.PartOfSpeech,
				Meaning:      d.Definition,
				Example:      d.Example,
			})
		}
	}
	if len(entry.Definitions) == 0 {
		return nil, ErrNotFound
	}
	return entry, nil
}
