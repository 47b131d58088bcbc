package genres

import (
	"context"

	"go.uber.org/zap"

	"github.com/mager/harmonyhub/harmonyhub"
)

// ISRCLookup finds recording-level genres for an ISRC.
type ISRCLookup interface {
	GenresByISRC(ctx context.Context, isrc string) ([]string, error)
}

// Fallback fills in genres for tracks whose artist has none on Spotify.
type Fallback struct {
	lookup ISRCLookup
	log    *zap.SugaredLogger
}

func NewFallback(log *zap.SugaredLogger, lookup ISRCLookup) *Fallback {
	return &Fallback{lookup: lookup, log: log}
}

// TrackGenres returns recording genres keyed by track ID for tracks that have
// an ISRC and whose artist resolved to no genres. Lookups are sequential and
// failures are skipped.
func (f *Fallback) TrackGenres(ctx context.Context, tracks []harmonyhub.Track, artistGenres map[string][]string) map[string][]string {
	out := make(map[string][]string)
	for _, t := range tracks {
		if t.ISRC == "" || len(artistGenres[t.ArtistID]) > 0 {
			continue
		}
		if _, done := out[t.ID]; done {
			continue
		}
		if err := ctx.Err(); err != nil {
			break
		}

		genres, err := f.lookup.GenresByISRC(ctx, t.ISRC)
		if err != nil {
			f.log.Debugw("isrc genre lookup failed", "track_id", t.ID, "isrc", t.ISRC, "error", err)
			continue
		}
		if len(genres) > 0 {
			out[t.ID] = genres
		}
	}
	return out
}
