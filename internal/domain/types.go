package domain

import "time"

// Emotion is one of the labels the classifier can produce
type Emotion string

const (
	Joy      Emotion = "joy"
	Sadness  Emotion = "sadness"
	Anger    Emotion = "anger"
	Fear     Emotion = "fear"
	Surprise Emotion = "surprise"
	Neutral  Emotion = "neutral"
)

// Emotions lists the classifier labels in declaration order
var Emotions = []Emotion{Joy, Sadness, Anger, Fear, Surprise, Neutral}

// Valid reports whether e is one of the classifier labels
func (e Emotion) Valid() bool {
	for _, known := range Emotions {
		if e == known {
			return true
		}
	}
	return false
}

// Classification is the result of scanning a piece of text
type Classification struct {
	Emotion   Emotion `json:"emotion"`
	Intensity float64 `json:"intensity"`
}

// Story is a generated narrative together with its provenance
type Story struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Emotion    Emotion   `json:"emotion"`
	Intensity  float64   `json:"intensity"`
	CreatedAt  time.Time `json:"createdAt"`
	SourceText string    `json:"sourceText"`
}

// Genre is a story genre a user can prefer
type Genre string

// Genres lists every genre known to the account store
var Genres = []Genre{
	"fantasy", "sci-fi", "horror", "romance", "mystery",
	"adventure", "drama", "comedy", "thriller", "historical",
}

// Valid reports whether g is a known genre
func (g Genre) Valid() bool {
	for _, known := range Genres {
		if g == known {
			return true
		}
	}
	return false
}

// DefaultAvatar is the avatar given to new accounts
const DefaultAvatar = "✨"

// AvatarEmojis are the selectable profile avatars
var AvatarEmojis = []string{"✨", "🌟", "🔮", "🦋", "🌙", "💫", "🌸", "🦄", "🌈", "💎", "🍃", "🎭"}

// ValidAvatar reports whether emoji is one of the selectable avatars
func ValidAvatar(emoji string) bool {
	for _, known := range AvatarEmojis {
		if emoji == known {
			return true
		}
	}
	return false
}

// Profile mirrors a row of the remote profiles table
type Profile struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	AvatarEmoji     string    `json:"avatar_emoji"`
	Bio             string    `json:"bio"`
	PreferredGenres []Genre   `json:"preferred_genres"`
	PrivacySetting  string    `json:"privacy_setting"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Achievement is a badge earned by an account
type Achievement struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	BadgeName        string    `json:"badge_name"`
	BadgeEmoji       string    `json:"badge_emoji"`
	BadgeDescription string    `json:"badge_description"`
	AchievedOn       time.Time `json:"achieved_on"`
}
