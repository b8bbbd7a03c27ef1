package models

// WebSocket event payload types for the most common hub broadcasts. These
// replace map[string]interface{} for type safety in high-frequency calls.

// WSStreamOpened is the payload for "stream_opened" broadcasts when a
// hydration session is created.
type WSStreamOpened struct {
	SessionID string `json:"session_id"`
	Topic     string `json:"topic"`
}

// WSReviewDue is the payload for "review_due" broadcasts from the daily
// review refresh.
type WSReviewDue struct {
	DueCount int    `json:"due_count"`
	Date     string `json:"date"`
}

// WSFeedRefreshed is the payload for "feed_refreshed" broadcasts after a
// podcast feed fetch.
type WSFeedRefreshed struct {
	PodcastID   string `json:"podcast_id"`
	NewEpisodes int    `json:"new_episodes"`
}
