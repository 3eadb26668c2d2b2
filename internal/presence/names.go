package presence

import (
	"math/rand"
	"sync"
	"time"
)

var adjectives = []string{
	"Swift", "Bright", "Clever", "Calm", "Bold", "Gentle", "Happy", "Lucky",
	"Quick", "Brave", "Witty", "Sunny", "Cosmic", "Curious", "Mighty", "Quiet",
}

var nouns = []string{
	"Fox", "Panda", "Otter", "Falcon", "Tiger", "Koala", "Dolphin", "Owl",
	"Lynx", "Badger", "Heron", "Wolf", "Rabbit", "Turtle", "Raven", "Bear",
}

// Palette is the fixed set of participant colours.
var Palette = []string{
	"#ef4444", "#f97316", "#eab308", "#22c55e",
	"#14b8a6", "#3b82f6", "#8b5cf6", "#ec4899",
}

// IdentityFunc returns a display name and colour for a new participant.
type IdentityFunc func() (name, color string)

// RandomIdentity picks an "Adjective Noun" name and a palette colour. Names
// are not unique.
func RandomIdentity() IdentityFunc {
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return func() (string, string) {
		mu.Lock()
		defer mu.Unlock()
		name := adjectives[rng.Intn(len(adjectives))] + " " + nouns[rng.Intn(len(nouns))]
		return name, Palette[rng.Intn(len(Palette))]
	}
}
