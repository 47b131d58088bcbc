package harmonyhub

// Track is a single Spotify track reduced to the fields the dashboard uses.
type Track struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Album      string `json:"album" yaml:"album"`
	AlbumImage string `json:"album_image,omitempty" yaml:"album_image,omitempty"`
	Artist     string `json:"artist" yaml:"artist"`
	ArtistID   string `json:"artist_id" yaml:"artist_id"`
	// Popularity is Spotify's popularity score.
	// Range: 0 - 100
	Popularity int `json:"popularity" yaml:"popularity"`
	// DurationMs is the duration of the track in milliseconds.
	// Example: 237040
	DurationMs int `json:"duration_ms" yaml:"duration_ms"`
	// ReleaseDate is the album release date. Only the year is reliable, the
	// rest depends on the release date precision.
	// Example: 1995-03-14, 1995
	ReleaseDate string `json:"release_date" yaml:"release_date"`
	ISRC        string `json:"isrc,omitempty" yaml:"isrc,omitempty"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Minutes returns the track duration in minutes.
func (t Track) Minutes() float64 {
	return float64(t.DurationMs) / 60000
}

// AudioFeatures holds the continuous audio attributes Spotify computes for a
// track. A nil *AudioFeatures means the API had no record for the track.
type AudioFeatures struct {
	TrackID string `json:"track_id"`
	// Valence is a measure from 0.0 to 1.0 describing the musical positiveness conveyed by a track.
	// Example: 0.428
	Valence float64 `json:"valence"`
	// Danceability describes how suitable a track is for dancing.
	// A value of 0.0 is least danceable and 1.0 is most danceable.
	// Example: 0.585
	Danceability float64 `json:"danceability"`
	// Tempo is the overall estimated tempo of a track in beats per minute (BPM).
	// Example: 118.211
	Tempo float64 `json:"tempo"`
	// Acousticness is a confidence measure from 0.0 to 1.0 of whether the track is acoustic.
	// Example: 0.00242
	Acousticness float64 `json:"acousticness"`
	// Energy is a measure from 0.0 to 1.0 and represents a perceptual measure of intensity and activity.
	// Example: 0.842
	Energy float64 `json:"energy"`
	// Loudness is the overall loudness of a track in decibels (dB). Values typically range between -60 and 0 db.
	// Example: -5.883
	Loudness float64 `json:"loudness"`
	// Instrumentalness predicts whether a track contains no vocals.
	// Example: 0.00686
	Instrumentalness float64 `json:"instrumentalness"`
	// Liveness detects the presence of an audience in the recording.
	// Example: 0.0866
	Liveness float64 `json:"liveness"`
	// Speechiness detects the presence of spoken words in a track.
	// Example: 0.0556
	Speechiness float64 `json:"speechiness"`
}

// Artist is a Spotify artist. Genres are artist level, never track level.
type Artist struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Genres     []string `json:"genres" yaml:"genres"`
	Image      string   `json:"image,omitempty" yaml:"image,omitempty"`
	Popularity int      `json:"popularity" yaml:"popularity"`
	Followers  int      `json:"followers" yaml:"followers"`
}

type Profile struct {
	ID          string `json:"id" yaml:"id"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Image       string `json:"image,omitempty" yaml:"image,omitempty"`
	Followers   int    `json:"followers" yaml:"followers"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Playback is a snapshot of the user's player.
type Playback struct {
	IsPlaying  bool   `json:"is_playing" yaml:"is_playing"`
	Track      *Track `json:"track" yaml:"track"`
	ProgressMs int    `json:"progress_ms" yaml:"progress_ms"`
	Device     string `json:"device,omitempty" yaml:"device,omitempty"`
}

type Playlist struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Image       string `json:"image,omitempty" yaml:"image,omitempty"`
	Tracks      int    `json:"tracks" yaml:"tracks"`
	DurationMs  int    `json:"duration_ms" yaml:"duration_ms"`
	Duration    string `json:"duration" yaml:"duration"`
}

type Recommendation struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	URL    string `json:"url,omitempty"`
	Image  string `json:"image,omitempty"`
}
