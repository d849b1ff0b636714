package catalog

import "fmt"

const (
	// Size is the number of songs in a generated catalog.
	Size = 2000
	// PreviewCount is the number of distinct preview assets shared by the catalog.
	PreviewCount = 50

	previewURLPrefix = "/static/previews/"
)

// Song represents a single catalog entry. Only Plays changes after generation.
type Song struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Genre    string `json:"genre"`
	Mood     string `json:"mood"`
	Album    string `json:"album"`
	Duration string `json:"duration"`
	Year     int    `json:"year"`
	Plays    int64  `json:"plays"`
	Preview  string `json:"preview"`
}

var (
	// Genres lists every genre a generated song can carry.
	Genres = []string{
		"Pop", "Rock", "Hip Hop", "R&B", "Electronic", "Jazz", "Classical", "Country", "Latin", "Indie",
	}
	// Moods lists the fixed moods, in the order home rows are rendered.
	Moods = []string{"Happy", "Sad", "Energetic", "Calm", "Romantic", "Emotional", "Party", "Chill"}

	artists = []string{
		"The Weeknd", "Taylor Swift", "Drake", "Billie Eilish", "Ed Sheeran",
		"Ariana Grande", "Post Malone", "Dua Lipa", "Justin Bieber", "Olivia Rodrigo",
		"Harry Styles", "BTS", "Bad Bunny", "The Beatles", "Queen", "Coldplay",
		"Imagine Dragons", "Bruno Mars", "Adele", "Beyoncé", "Eminem", "Rihanna",
	}

	titleStems = []string{
		"Memories", "Dreams", "Starlight", "Echoes", "Midnight", "Sunrise",
		"Forever", "Dancing", "Heartbeat", "Paradise", "Waves", "Fire",
		"Thunder", "Lights", "Shadow", "Moments", "Heaven", "Alive",
		"Better", "Perfect", "Beautiful", "Amazing", "Wonder", "Magic",
	}

	// An empty suffix leaves the stem on its own.
	titleSuffixes = []string{"Night", "Day", "Love", "Soul", "Beat", "Vibe", ""}
)

// PreviewSlot returns the 1-based preview asset assigned to a song id.
func PreviewSlot(id int64) int {
	return int((id-1)%PreviewCount) + 1
}

// PreviewFile is the on-disk name of a preview asset.
func PreviewFile(slot int) string {
	return fmt.Sprintf("preview%d.wav", slot)
}

// PreviewURL is the path a browser fetches a preview asset from.
func PreviewURL(slot int) string {
	return previewURLPrefix + PreviewFile(slot)
}
