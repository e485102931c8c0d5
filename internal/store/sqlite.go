package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pbaille/echorealms/internal/domain"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned when no story matches
var ErrNotFound = errors.New("story not found")

// Store persists saved stories between runs
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveStory stores a story as the newest entry of the shelf.
// Saving an id again moves it to the front.
func (s *Store) SaveStory(story domain.Story) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO stories
			(id, title, content, emotion, intensity, source_text, created_at, saved_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(saved_seq), 0) + 1 FROM stories))`,
		story.ID, story.Title, story.Content, string(story.Emotion),
		story.Intensity, story.SourceText, story.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert story: %w", err)
	}
	return nil
}

// DeleteStory removes a story. Unknown ids are not an error.
func (s *Store) DeleteStory(id string) error {
	if _, err := s.db.Exec("DELETE FROM stories WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete story: %w", err)
	}
	return nil
}

const storyColumns = "id, title, content, emotion, intensity, source_text, created_at"

// GetStory retrieves a story by ID
func (s *Store) GetStory(id string) (*domain.Story, error) {
	row := s.db.QueryRow("SELECT "+storyColumns+" FROM stories WHERE id = ?", id)
	story, err := scanStory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get story: %w", err)
	}
	return story, nil
}

// ListStories returns every saved story, most recently saved first
func (s *Store) ListStories() ([]domain.Story, error) {
	return s.query("SELECT " + storyColumns + " FROM stories ORDER BY saved_seq DESC")
}

// FindByPrefix returns stories whose id starts with prefix, newest first
func (s *Store) FindByPrefix(prefix string) ([]domain.Story, error) {
	return s.query(
		"SELECT "+storyColumns+" FROM stories WHERE substr(id, 1, ?) = ? ORDER BY saved_seq DESC",
		len(prefix), prefix,
	)
}

// CountByEmotion returns how many saved stories carry each emotion
func (s *Store) CountByEmotion() (map[domain.Emotion]int, error) {
	rows, err := s.db.Query("SELECT emotion, COUNT(*) FROM stories GROUP BY emotion")
	if err != nil {
		return nil, fmt.Errorf("count stories: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Emotion]int)
	for rows.Next() {
		var e string
		var n int
		if err := rows.Scan(&e, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[domain.Emotion(e)] = n
	}
	return counts, rows.Err()
}

func (s *Store) query(q string, args ...any) ([]domain.Story, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	stories := []domain.Story{}
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, *story)
	}

	return stories, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStory(sc scanner) (*domain.Story, error) {
	var story domain.Story
	var emotion string
	err := sc.Scan(&story.ID, &story.Title, &story.Content, &emotion,
		&story.Intensity, &story.SourceText, &story.CreatedAt)
	if err != nil {
		return nil, err
	}
	story.Emotion = domain.Emotion(emotion)
	return &story, nil
}
