// Package render formats scans, stories and profiles for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pbaille/echorealms/internal/classifier"
	"github.com/pbaille/echorealms/internal/domain"
	"github.com/pbaille/echorealms/internal/storyteller"
)

var icons = map[domain.Emotion]string{
	domain.Joy:      "✨",
	domain.Sadness:  "💧",
	domain.Anger:    "🔥",
	domain.Fear:     "🌙",
	domain.Surprise: "⚡",
	domain.Neutral:  "🌊",
}

var colors = map[domain.Emotion]lipgloss.Color{
	domain.Joy:      lipgloss.Color("#F5C542"),
	domain.Sadness:  lipgloss.Color("#5B8DEF"),
	domain.Anger:    lipgloss.Color("#E5484D"),
	domain.Fear:     lipgloss.Color("#8E6CEF"),
	domain.Surprise: lipgloss.Color("#3DD9C5"),
	domain.Neutral:  lipgloss.Color("#9BA1A6"),
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C9A7FF"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6E56CF")).
			Padding(1, 2).
			Width(78)
)

// Icon returns the symbol shown next to an emotion
func Icon(e domain.Emotion) string {
	if i, ok := icons[e]; ok {
		return i
	}
	return icons[domain.Neutral]
}

// Badge renders an emotion label with its colour and icon
func Badge(e domain.Emotion) string {
	c, ok := colors[e]
	if !ok {
		c = colors[domain.Neutral]
	}
	return lipgloss.NewStyle().Bold(true).Foreground(c).Render(Icon(e) + " " + string(e))
}

// Scan renders a classification with the keywords and words behind it
func Scan(result domain.Classification, hits []classifier.Hit, echoes []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  intensity %s\n", Badge(result.Emotion), storyteller.Percent(result.Intensity))

	if len(hits) > 0 {
		seen := make(map[string]bool)
		var words []string
		for _, h := range hits {
			if !seen[h.Keyword] {
				seen[h.Keyword] = true
				words = append(words, fmt.Sprintf("%s (%s)", h.Keyword, h.Emotion))
			}
		}
		fmt.Fprintf(&sb, "%s %s\n", dimStyle.Render("keywords:"), strings.Join(words, ", "))
	}
	if len(echoes) > 0 {
		fmt.Fprintf(&sb, "%s %s\n", dimStyle.Render("echoes:  "), strings.Join(echoes, ", "))
	}
	return sb.String()
}

// Story renders a full story card
func Story(s domain.Story) string {
	header := fmt.Sprintf("%s  %s  %s\n%s",
		Badge(s.Emotion),
		dimStyle.Render("intensity "+storyteller.Percent(s.Intensity)),
		dimStyle.Render(s.CreatedAt.Local().Format("2006-01-02 15:04")),
		titleStyle.Render(s.Title),
	)
	return cardStyle.Render(header+"\n\n"+s.Content) + "\n" + dimStyle.Render(s.ID) + "\n"
}

// Tally renders per-emotion story counts in label order, skipping empty ones
func Tally(counts map[domain.Emotion]int) string {
	var parts []string
	for _, e := range domain.Emotions {
		if n := counts[e]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %s %d", Icon(e), e, n))
		}
	}
	return strings.Join(parts, "  ")
}

// StoryLine renders a one-line archive listing entry
func StoryLine(s domain.Story) string {
	return fmt.Sprintf("%s %s  %-28s %4s  %s",
		Icon(s.Emotion),
		dimStyle.Render(s.CreatedAt.Local().Format("2006-01-02")),
		s.Title,
		storyteller.Percent(s.Intensity),
		dimStyle.Render(s.ID),
	)
}

// Profile renders an account profile with its story count and badges
func Profile(p *domain.Profile, storyCount int, achievements []domain.Achievement) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", p.AvatarEmoji, titleStyle.Render(p.Username))
	if p.Bio != "" {
		fmt.Fprintf(&sb, "%s\n", p.Bio)
	}
	if len(p.PreferredGenres) > 0 {
		genres := make([]string, len(p.PreferredGenres))
		for i, g := range p.PreferredGenres {
			genres[i] = string(g)
		}
		fmt.Fprintf(&sb, "%s %s\n", dimStyle.Render("genres:"), strings.Join(genres, ", "))
	}
	if p.PrivacySetting != "" {
		fmt.Fprintf(&sb, "%s %s\n", dimStyle.Render("privacy:"), p.PrivacySetting)
	}
	fmt.Fprintf(&sb, "%s %d\n", dimStyle.Render("stories:"), storyCount)

	if len(achievements) > 0 {
		sb.WriteString("\nAchievements\n")
		for _, a := range achievements {
			fmt.Fprintf(&sb, "  %s %s  %s\n", a.BadgeEmoji, a.BadgeName,
				dimStyle.Render(a.AchievedOn.Local().Format("2006-01-02")))
			if a.BadgeDescription != "" {
				fmt.Fprintf(&sb, "     %s\n", a.BadgeDescription)
			}
		}
	}
	return sb.String()
}
