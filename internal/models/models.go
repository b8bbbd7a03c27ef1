package models

import "time"

// Podcast is a subscribed feed.
type Podcast struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	FeedURL     string     `json:"feed_url"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url"`
	CreatedAt   time.Time  `json:"created_at"`
	RefreshedAt *time.Time `json:"refreshed_at,omitempty"`
}

// Episode is one item of a podcast feed.
type Episode struct {
	ID          string     `json:"id"`
	PodcastID   string     `json:"podcast_id"`
	GUID        string     `json:"guid"`
	Title       string     `json:"title"`
	AudioURL    string     `json:"audio_url"`
	DurationSec int        `json:"duration_sec"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Description string     `json:"description"`
}

// PlaybackPosition is the saved listening position for one episode.
type PlaybackPosition struct {
	EpisodeID   string    `json:"episode_id"`
	PositionSec float64   `json:"position_sec"`
	Finished    bool      `json:"finished"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Card is one spaced-repetition vocabulary card (SM-2 state).
type Card struct {
	ID              string    `json:"id"`
	Word            string    `json:"word"`
	Context         string    `json:"context"`
	SourceEpisodeID string    `json:"source_episode_id,omitempty"`
	Ease            float64   `json:"ease"`
	IntervalDays    float64   `json:"interval_days"`
	Repetitions     int       `json:"repetitions"`
	DueAt           time.Time `json:"due_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// ReviewLog records one grading of a card.
type ReviewLog struct {
	ID           string    `json:"id"`
	CardID       string    `json:"card_id"`
	Grade        string    `json:"grade"`
	IntervalDays float64   `json:"interval_days"`
	ReviewedAt   time.Time `json:"reviewed_at"`
}
