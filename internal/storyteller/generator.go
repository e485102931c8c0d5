package storyteller

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pbaille/echorealms/internal/classifier"
	"github.com/pbaille/echorealms/internal/domain"
)

const excerptLength = 50

// Picker chooses an index in [0, n)
type Picker interface {
	IntN(n int) int
}

// Generator turns a classification into a story
type Generator struct {
	mu     sync.Mutex
	picker Picker

	// Now is the clock used for CreatedAt and IDs
	Now func() time.Time
}

var seq atomic.Uint64

// New creates a Generator. A nil picker uses an unseeded PCG source.
func New(p Picker) *Generator {
	if p == nil {
		p = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{picker: p, Now: time.Now}
}

// Generate builds a story for the given emotion and intensity around sourceText
func (g *Generator) Generate(emotion domain.Emotion, intensity float64, sourceText string) domain.Story {
	b := BundleFor(emotion)

	g.mu.Lock()
	title := b.Titles[g.picker.IntN(len(b.Titles))]
	theme := b.Themes[g.picker.IntN(len(b.Themes))]
	g.mu.Unlock()

	now := g.Now()
	content := fmt.Sprintf(storyTemplate,
		b.Opening, Excerpt(sourceText), theme, emotion, Percent(intensity))

	return domain.Story{
		ID:         fmt.Sprintf("story-%d-%d", now.UnixMilli(), seq.Add(1)),
		Title:      title,
		Content:    content,
		Emotion:    emotion,
		Intensity:  intensity,
		CreatedAt:  now,
		SourceText: sourceText,
	}
}

// Weave classifies text with c and has g generate its story
func Weave(c *classifier.Classifier, g *Generator, text string) (domain.Classification, domain.Story) {
	result := c.Classify(text)
	return result, g.Generate(result.Emotion, result.Intensity, text)
}

// Excerpt returns the first 50 characters of s, marking truncation with "..."
func Excerpt(s string) string {
	r := []rune(s)
	if len(r) <= excerptLength {
		return s
	}
	return string(r[:excerptLength]) + "..."
}

// Percent formats an intensity as a whole percentage, e.g. 0.7 -> "70%"
func Percent(intensity float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(intensity*100)))
}
