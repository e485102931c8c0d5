// Package archive keeps saved stories in newest-first order and exports
// them as JSON.
package archive

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pbaille/echorealms/internal/domain"
)

// Archive is an ordered, in-memory collection of saved stories
type Archive struct {
	mu      sync.RWMutex
	stories []domain.Story
}

// New creates an empty Archive
func New() *Archive {
	return &Archive{}
}

// Add puts a story at the front of the archive
func (a *Archive) Add(s domain.Story) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stories = append([]domain.Story{s}, a.stories...)
}

// Remove deletes every story with the given id. Unknown ids are ignored.
func (a *Archive) Remove(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	kept := make([]domain.Story, 0, len(a.stories))
	for _, s := range a.stories {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	a.stories = kept
}

// Get returns the story with the given id
func (a *Archive) Get(id string) (domain.Story, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, s := range a.stories {
		if s.ID == id {
			return s, true
		}
	}
	return domain.Story{}, false
}

// List returns a copy of the stories, newest first
func (a *Archive) List() []domain.Story {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]domain.Story, len(a.stories))
	copy(out, a.stories)
	return out
}

// Len returns the number of stories
func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.stories)
}

// Load replaces the archive contents. stories must already be newest first.
func (a *Archive) Load(stories []domain.Story) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stories = make([]domain.Story, len(stories))
	copy(a.stories, stories)
}

// Export serializes the whole archive as an indented JSON array
func (a *Archive) Export() ([]byte, error) {
	data, err := json.MarshalIndent(a.List(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal archive: %w", err)
	}
	return data, nil
}

// Parse reads stories back from Export output, keeping their order
func Parse(data []byte) ([]domain.Story, error) {
	var stories []domain.Story
	if err := json.Unmarshal(data, &stories); err != nil {
		return nil, fmt.Errorf("parse archive: %w", err)
	}
	return stories, nil
}

// FileName is the export file name for the given day, e.g.
// echorealms-archive-2024-03-09.json
func FileName(t time.Time) string {
	return "echorealms-archive-" + t.UTC().Format("2006-01-02") + ".json"
}
