package musicbrainz

import (
	"context"
	"sort"

	mb "github.com/mager/musicbrainz-go/musicbrainz"
)

const maxGenres = 10

type MusicbrainzClient struct {
	Client *mb.MusicbrainzClient
}

func ProvideMusicbrainz() *MusicbrainzClient {
	var c MusicbrainzClient
	c.Client = mb.NewMusicbrainzClient()

	return &c
}

var Options = ProvideMusicbrainz

// GenresByISRC returns the genres of the first recording matching isrc,
// most voted first. No match is an empty list, not an error.
func (c *MusicbrainzClient) GenresByISRC(ctx context.Context, isrc string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := c.Client.SearchRecordingsByISRC(mb.SearchRecordingsByISRCRequest{ISRC: isrc})
	if err != nil {
		return nil, err
	}
	if resp.Count == 0 || len(resp.Recordings) == 0 {
		return []string{}, nil
	}

	return recordingGenres(resp.Recordings[0]), nil
}

func recordingGenres(rec mb.Recording) []string {
	genres := make([]string, 0, maxGenres)
	if rec.Genres == nil {
		return genres
	}

	sorted := append((*rec.Genres)[:0:0], *rec.Genres...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	for i := 0; i < maxGenres && i < len(sorted); i++ {
		genres = append(genres, sorted[i].Name)
	}
	return genres
}
