package review

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AHGGG/nce-english-practices-sub006/internal/database"
	"github.com/AHGGG/nce-english-practices-sub006/internal/logger"
	"github.com/AHGGG/nce-english-practices-sub006/internal/models"
)

// Service manages the card deck: creating cards, listing what is due,
// and recording grades.
type Service struct {
	db  *database.DB
	now func() time.Time
}

func NewService(db *database.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// AddCard creates a card for a word, due immediately. Adding a word
// that already has a card returns the existing one.
func (s *Service) AddCard(word, context, sourceEpisodeID string) (*models.Card, error) {
	if word == "" {
		return nil, fmt.Errorf("empty word")
	}

	existing, err := s.cardByWord(word)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := s.now().UTC()
	card := &models.Card{
		ID:              uuid.New().String(),
		Word:            word,
		Context:         context,
		SourceEpisodeID: sourceEpisodeID,
		Ease:            defaultEase,
		IntervalDays:    0,
		Repetitions:     0,
		DueAt:           now,
		CreatedAt:       now,
	}

	_, err = s.db.Exec(
		`INSERT INTO cards (id, word, context, source_episode_id, ease, interval_days, repetitions, due_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		card.ID, card.Word, card.Context, card.SourceEpisodeID, card.Ease, card.IntervalDays, card.Repetitions, card.DueAt, card.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert card: %w", err)
	}
	return card, nil
}

func (s *Service) cardByWord(word string) (*models.Card, error) {
	return s.scanCard(s.db.QueryRow(
		"SELECT id, word, context, source_episode_id, ease, interval_days, repetitions, due_at, created_at FROM cards WHERE word = ?", word))
}

func (s *Service) Card(id string) (*models.Card, error) {
	return s.scanCard(s.db.QueryRow(
		"SELECT id, word, context, source_episode_id, ease, interval_days, repetitions, due_at, created_at FROM cards WHERE id = ?", id))
}

func (s *Service) scanCard(row *sql.Row) (*models.Card, error) {
	var c models.Card
	var source sql.NullString
	err := row.Scan(&c.ID, &c.Word, &c.Context, &source, &c.Ease, &c.IntervalDays, &c.Repetitions, &c.DueAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.SourceEpisodeID = source.String
	return &c, nil
}

// Due returns cards due for review, oldest first.
func (s *Service) Due(limit int) ([]models.Card, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, word, context, source_episode_id, ease, interval_days, repetitions, due_at, created_at
		 FROM cards WHERE due_at <= ? ORDER BY due_at LIMIT ?`, s.now().UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		var c models.Card
		var source sql.NullString
		if err := rows.Scan(&c.ID, &c.Word, &c.Context, &source, &c.Ease, &c.IntervalDays, &c.Repetitions, &c.DueAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.SourceEpisodeID = source.String
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// DueCount returns how many cards are currently due.
func (s *Service) DueCount() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM cards WHERE due_at <= ?", s.now().UTC()).Scan(&n)
	return n, err
}

// GradeCard applies a grade to a card, reschedules it, and logs the review.
func (s *Service) GradeCard(cardID string, grade Grade) (*models.Card, error) {
	if !ValidGrade(grade) {
		return nil, fmt.Errorf("unknown grade %q", grade)
	}

	card, err := s.Card(cardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("card %s not found", cardID)
		}
		return nil, err
	}

	state := sm2State{Ease: card.Ease, IntervalDays: card.IntervalDays, Repetitions: card.Repetitions}
	next, delay := state.next(grade)

	now := s.now().UTC()
	card.Ease = next.Ease
	card.IntervalDays = next.IntervalDays
	card.Repetitions = next.Repetitions
	card.DueAt = now.Add(delay)

	_, err = s.db.Exec(
		"UPDATE cards SET ease = ?, interval_days = ?, repetitions = ?, due_at = ? WHERE id = ?",
		card.Ease, card.IntervalDays, card.Repetitions, card.DueAt, card.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update card: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT INTO review_logs (id, card_id, grade, interval_days, reviewed_at) VALUES (?, ?, ?, ?, ?)",
		uuid.New().String(), card.ID, string(grade), card.IntervalDays, now,
	)
	if err != nil {
		logger.Warn("Failed to log review of card %s: %v", card.ID, err)
	}

	return card, nil
}

// PruneLogs deletes review logs older than the retention window.
func (s *Service) PruneLogs(olderThan time.Duration) (int64, error) {
	res, err := s.db.Exec("DELETE FROM review_logs WHERE reviewed_at < ?", s.now().UTC().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// DeleteCard removes a card and its review history.
func (s *Service) DeleteCard(cardID string) error {
	res, err := s.db.Exec("DELETE FROM cards WHERE id = ?", cardID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("card %s not found", cardID)
	}
	return nil
}
