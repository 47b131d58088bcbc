package spotify

import (
	"fmt"
	"strings"
	"time"

	spot "github.com/zmb3/spotify/v2"

	"github.com/mager/harmonyhub/harmonyhub"
)

// GetFirstArtist returns the first artist
func GetFirstArtist(artists []spot.SimpleArtist) string {
	if len(artists) == 0 {
		return "Various Artists"
	}

	return artists[0].Name
}

func getFirstArtistID(artists []spot.SimpleArtist) string {
	if len(artists) == 0 {
		return ""
	}
	return string(artists[0].ID)
}

// ConcatArtists returns a comma-separated list of artist names
func ConcatArtists(artists []spot.SimpleArtist) string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// LargestImage returns the URL of the image with the biggest area, or "".
func LargestImage(images []spot.Image) string {
	var (
		url  string
		area = -1
	)
	for _, img := range images {
		if a := int(img.Height) * int(img.Width); a > area {
			url, area = img.URL, a
		}
	}
	return url
}

func GetISRC(track *spot.FullTrack) string {
	return track.ExternalIDs["isrc"]
}

// FormatDuration renders a playlist length as "Xh Ym", or "Ym" under an hour.
func FormatDuration(ms int) string {
	d := time.Duration(ms) * time.Millisecond
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

func mapTrack(ft *spot.FullTrack) harmonyhub.Track {
	return harmonyhub.Track{
		ID:          string(ft.ID),
		Name:        ft.Name,
		Album:       ft.Album.Name,
		AlbumImage:  LargestImage(ft.Album.Images),
		Artist:      GetFirstArtist(ft.Artists),
		ArtistID:    getFirstArtistID(ft.Artists),
		Popularity:  int(ft.Popularity),
		DurationMs:  int(ft.Duration),
		ReleaseDate: ft.Album.ReleaseDate,
		ISRC:        GetISRC(ft),
		URL:         ft.ExternalURLs["spotify"],
	}
}

func mapArtist(fa *spot.FullArtist) harmonyhub.Artist {
	genres := fa.Genres
	if genres == nil {
		genres = []string{}
	}
	return harmonyhub.Artist{
		ID:         string(fa.ID),
		Name:       fa.Name,
		Genres:     genres,
		Image:      LargestImage(fa.Images),
		Popularity: int(fa.Popularity),
		Followers:  int(fa.Followers.Count),
	}
}

// mapAudioFeatures returns nil for a record whose core values are all zero;
// Spotify sends those for tracks it never analysed.
func mapAudioFeatures(f *spot.AudioFeatures) *harmonyhub.AudioFeatures {
	if f == nil {
		return nil
	}
	if f.Valence == 0 && f.Danceability == 0 && f.Energy == 0 &&
		f.Acousticness == 0 && f.Tempo == 0 && f.Loudness == 0 {
		return nil
	}
	return &harmonyhub.AudioFeatures{
		TrackID:          string(f.ID),
		Valence:          float64(f.Valence),
		Danceability:     float64(f.Danceability),
		Tempo:            float64(f.Tempo),
		Acousticness:     float64(f.Acousticness),
		Energy:           float64(f.Energy),
		Loudness:         float64(f.Loudness),
		Instrumentalness: float64(f.Instrumentalness),
		Liveness:         float64(f.Liveness),
		Speechiness:      float64(f.Speechiness),
	}
}
