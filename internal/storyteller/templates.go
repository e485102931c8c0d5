package storyteller

import "github.com/pbaille/echorealms/internal/domain"

// Bundle holds the fixed story material for one emotion
type Bundle struct {
	Titles  []string
	Opening string
	Themes  []string
}

// Bundles maps every emotion to its story material
var Bundles = map[domain.Emotion]Bundle{
	domain.Joy: {
		Titles:  []string{"The Luminous Garden", "Echoes of Laughter", "The Golden Resonance"},
		Opening: "In the radiant realm of Aurelia, where golden light dances through crystal trees,",
		Themes:  []string{"celebration", "achievement", "love", "discovery"},
	},
	domain.Sadness: {
		Titles:  []string{"The Weeping Willow's Secret", "Shadows of the Heart", "The Blue Tide"},
		Opening: "Deep in the Melancholy Marshes, where silver tears form healing pools,",
		Themes:  []string{"loss", "healing", "remembrance", "hope"},
	},
	domain.Anger: {
		Titles:  []string{"The Crimson Storm", "Fury of the Phoenix", "The Burning Bridge"},
		Opening: "Within the Scarlet Peaks where volcanic emotions rage,",
		Themes:  []string{"justice", "transformation", "power", "release"},
	},
	domain.Fear: {
		Titles:  []string{"Whispers in the Void", "The Shadow's Edge", "Through the Mist"},
		Opening: "In the Twilight Realm where courage is born from trembling hearts,",
		Themes:  []string{"bravery", "mystery", "protection", "growth"},
	},
	domain.Surprise: {
		Titles:  []string{"The Unexpected Door", "Stardust Revelations", "The Twist of Fate"},
		Opening: "At the Crossroads of Wonder, where reality shifts like quicksilver,",
		Themes:  []string{"discovery", "magic", "possibility", "adventure"},
	},
	domain.Neutral: {
		Titles:  []string{"The Balanced Path", "Echoes of Serenity", "The Quiet Strength"},
		Opening: "In the Peaceful Highlands where wisdom flows like gentle streams,",
		Themes:  []string{"reflection", "peace", "wisdom", "balance"},
	},
}

// BundleFor returns the material for e, falling back to neutral
func BundleFor(e domain.Emotion) Bundle {
	if b, ok := Bundles[e]; ok {
		return b
	}
	return Bundles[domain.Neutral]
}

const storyTemplate = `%s a traveler much like yourself discovers something profound.

The essence of your words - "%s" - ripples through the fabric of this realm, manifesting as a %s that transforms everything it touches.

As the emotional currents of %s flow through the landscape with intensity %s, the very stones begin to sing, and the ancient guardians of EchoRealms take notice.

Your journey here has only just begun, but already the realm responds to your inner world, weaving tales that mirror your soul's deepest truths. Each step forward reveals new wonders, each breath brings fresh understanding.

The story continues to unfold, shaped by the unique emotional fingerprint you've left upon this mystical world...`
