package podcast

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/AHGGG/nce-english-practices-sub006/internal/database"
	"github.com/AHGGG/nce-english-practices-sub006/internal/logger"
	"github.com/AHGGG/nce-english-practices-sub006/internal/models"
)

const maxFeedBytes = 5 << 20

// BroadcastFunc pushes an event to UI clients; wired from main.
type BroadcastFunc func(msgType string, payload interface{})

// Manager owns podcast subscriptions, feed refresh, and playback positions.
type Manager struct {
	db        *database.DB
	client    *http.Client
	broadcast BroadcastFunc
}

func NewManager(db *database.DB, broadcast BroadcastFunc) *Manager {
	return &Manager{
		db:        db,
		client:    &http.Client{Timeout: 30 * time.Second},
		broadcast: broadcast,
	}
}

func (m *Manager) fetchFeed(ctx context.Context, feedURL string) (*Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	return parseFeed(data)
}

// Subscribe fetches a feed, stores the podcast and its episodes, and returns
// the new subscription.
func (m *Manager) Subscribe(ctx context.Context, feedURL string) (*models.Podcast, error) {
	feed, err := m.fetchFeed(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &models.Podcast{
		ID:          uuid.New().String(),
		Title:       feed.Title,
		FeedURL:     feedURL,
		Description: feed.Description,
		ImageURL:    feed.ImageURL,
		CreatedAt:   now,
		RefreshedAt: &now,
	}

	_, err = m.db.Exec(
		"INSERT INTO podcasts (id, title, feed_url, description, image_url, created_at, refreshed_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.Title, p.FeedURL, p.Description, p.ImageURL, p.CreatedAt, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert podcast: %w", err)
	}

	added := m.storeEpisodes(p.ID, feed.Items)
	logger.Success("Subscribed to %s (%d episodes)", p.Title, added)
	return p, nil
}

// Refresh refetches a podcast's feed and stores episodes not seen before.
func (m *Manager) Refresh(ctx context.Context, podcastID string) (int, error) {
	var feedURL string
	err := m.db.QueryRow("SELECT feed_url FROM podcasts WHERE id = ?", podcastID).Scan(&feedURL)
	if err != nil {
		return 0, fmt.Errorf("podcast %s not found", podcastID)
	}

	feed, err := m.fetchFeed(ctx, feedURL)
	if err != nil {
		return 0, err
	}

	added := m.storeEpisodes(podcastID, feed.Items)
	m.db.Exec("UPDATE podcasts SET refreshed_at = ? WHERE id = ?", time.Now().UTC(), podcastID)

	if m.broadcast != nil {
		m.broadcast("feed_refreshed", models.WSFeedRefreshed{PodcastID: podcastID, NewEpisodes: added})
	}
	return added, nil
}

// storeEpisodes inserts items, skipping guids already present.
func (m *Manager) storeEpisodes(podcastID string, items []FeedItem) int {
	added := 0
	for _, item := range items {
		res, err := m.db.Exec(
			`INSERT OR IGNORE INTO episodes (id, podcast_id, guid, title, audio_url, duration_sec, published_at, description)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), podcastID, item.GUID, item.Title, item.AudioURL, item.DurationSec, item.PublishedAt, item.Description,
		)
		if err != nil {
			logger.Error("Failed to store episode %q: %v", item.Title, err)
			continue
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	return added
}

func (m *Manager) List() ([]models.Podcast, error) {
	rows, err := m.db.Query("SELECT id, title, feed_url, description, image_url, created_at, refreshed_at FROM podcasts ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	podcasts := []models.Podcast{}
	for rows.Next() {
		var p models.Podcast
		if err := rows.Scan(&p.ID, &p.Title, &p.FeedURL, &p.Description, &p.ImageURL, &p.CreatedAt, &p.RefreshedAt); err != nil {
			return nil, err
		}
		podcasts = append(podcasts, p)
	}
	return podcasts, rows.Err()
}

func (m *Manager) Unsubscribe(podcastID string) error {
	res, err := m.db.Exec("DELETE FROM podcasts WHERE id = ?", podcastID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("podcast %s not found", podcastID)
	}
	return nil
}

func (m *Manager) Episodes(podcastID string) ([]models.Episode, error) {
	rows, err := m.db.Query(
		`SELECT id, podcast_id, guid, title, audio_url, duration_sec, published_at, description
		 FROM episodes WHERE podcast_id = ? ORDER BY published_at DESC`, podcastID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	episodes := []models.Episode{}
	for rows.Next() {
		var e models.Episode
		if err := rows.Scan(&e.ID, &e.PodcastID, &e.GUID, &e.Title, &e.AudioURL, &e.DurationSec, &e.PublishedAt, &e.Description); err != nil {
			return nil, err
		}
		episodes = append(episodes, e)
	}
	return episodes, rows.Err()
}

// SavePosition upserts the listening position for an episode.
func (m *Manager) SavePosition(episodeID string, positionSec float64, finished bool) error {
	_, err := m.db.Exec(
		`INSERT INTO playback_positions (episode_id, position_sec, finished, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(episode_id) DO UPDATE SET position_sec = excluded.position_sec, finished = excluded.finished, updated_at = excluded.updated_at`,
		episodeID, positionSec, finished, time.Now().UTC(),
	)
	return err
}

func (m *Manager) Position(episodeID string) (*models.PlaybackPosition, error) {
	var p models.PlaybackPosition
	err := m.db.QueryRow(
		"SELECT episode_id, position_sec, finished, updated_at FROM playback_positions WHERE episode_id = ?", episodeID,
	).Scan(&p.EpisodeID, &p.PositionSec, &p.Finished, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
