// Package aggregate turns fetched tracks, audio features and genres into the
// statistics shown on the dashboard. Everything here is pure: no I/O, no
// logging, no shared state.
package aggregate

import (
	"sort"
	"strconv"

	"golang.org/x/exp/maps"

	"github.com/mager/harmonyhub/features"
	"github.com/mager/harmonyhub/harmonyhub"
)

const (
	PopularThreshold = 70
	AverageThreshold = 40

	LabelPopular = "Popular"
	LabelAverage = "Average"
	LabelObscure = "Obscure"

	LabelShort  = "≤4m"
	LabelMedium = "5–9m"
	LabelLong   = "10–19m"
)

type Input struct {
	// Tracks in display order. Order decides representatives and ties.
	Tracks []harmonyhub.Track
	// Features by track ID; a nil or missing entry means no audio features.
	Features map[string]*harmonyhub.AudioFeatures
	// ArtistGenres by artist ID.
	ArtistGenres map[string][]string
	// TrackGenres by track ID, used instead of the artist's genres when set.
	TrackGenres map[string][]string
}

type Options struct {
	// TopAlbums and TopGenres cut the rankings; zero keeps everything.
	TopAlbums int
	TopGenres int
}

type Distribution struct {
	Axis         features.Axis `json:"axis" yaml:"axis"`
	True         string        `json:"true" yaml:"true"`
	False        string        `json:"false" yaml:"false"`
	TruePercent  float64       `json:"true_percent" yaml:"true_percent"`
	FalsePercent float64       `json:"false_percent" yaml:"false_percent"`
	Classified   int           `json:"classified" yaml:"classified"`
}

type Rank struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

type Bucket struct {
	Label   string  `json:"label" yaml:"label"`
	Tracks  int     `json:"tracks" yaml:"tracks"`
	Minutes float64 `json:"minutes" yaml:"minutes"`
	Percent float64 `json:"percent" yaml:"percent"`
	// Representative is the first track of the bucket in input order.
	Representative *harmonyhub.Track `json:"representative,omitempty" yaml:"representative,omitempty"`
}

type PopularityStats struct {
	Buckets     []Bucket          `json:"buckets" yaml:"buckets"`
	MostPopular *harmonyhub.Track `json:"most_popular,omitempty" yaml:"most_popular,omitempty"`
	MostObscure *harmonyhub.Track `json:"most_obscure,omitempty" yaml:"most_obscure,omitempty"`
}

type DecadeBucket struct {
	Decade  int     `json:"decade" yaml:"decade"`
	Tracks  int     `json:"tracks" yaml:"tracks"`
	Minutes float64 `json:"minutes" yaml:"minutes"`
	Percent float64 `json:"percent" yaml:"percent"`
}

type DecadeStats struct {
	// Decades are sorted newest first.
	Decades []DecadeBucket    `json:"decades" yaml:"decades"`
	Newest  *harmonyhub.Track `json:"newest,omitempty" yaml:"newest,omitempty"`
	Oldest  *harmonyhub.Track `json:"oldest,omitempty" yaml:"oldest,omitempty"`
}

type LengthStats struct {
	Buckets  []Bucket          `json:"buckets" yaml:"buckets"`
	Longest  *harmonyhub.Track `json:"longest,omitempty" yaml:"longest,omitempty"`
	Shortest *harmonyhub.Track `json:"shortest,omitempty" yaml:"shortest,omitempty"`
}

type Report struct {
	Tracks     int             `json:"tracks" yaml:"tracks"`
	Classified int             `json:"classified" yaml:"classified"`
	Criteria   []Distribution  `json:"criteria" yaml:"criteria"`
	Albums     []Rank          `json:"albums" yaml:"albums"`
	Genres     []Rank          `json:"genres" yaml:"genres"`
	Popularity PopularityStats `json:"popularity" yaml:"popularity"`
	Decades    DecadeStats     `json:"decades" yaml:"decades"`
	Length     LengthStats     `json:"length" yaml:"length"`
}

// Build computes the full report. A track missing a field is left out of the
// statistics that need that field and still counts everywhere else.
func Build(in Input, opts Options) Report {
	return Report{
		Tracks:     len(in.Tracks),
		Classified: countClassified(in),
		Criteria:   Criteria(in),
		Albums:     top(AlbumRanking(in.Tracks), opts.TopAlbums),
		Genres:     top(GenreRanking(in), opts.TopGenres),
		Popularity: Popularity(in.Tracks),
		Decades:    Decades(in.Tracks),
		Length:     Length(in.Tracks),
	}
}

func trackIDs(tracks []harmonyhub.Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}

func countClassified(in Input) int {
	n := 0
	for _, t := range in.Tracks {
		if in.Features[t.ID] != nil {
			n++
		}
	}
	return n
}

// Criteria returns one distribution per axis, in features.Rules order. Only
// tracks with a label on an axis count toward it; an axis nobody has a
// label for reports 0% on both sides.
func Criteria(in Input) []Distribution {
	classified := features.ClassifyAll(trackIDs(in.Tracks), in.Features)

	out := make([]Distribution, 0, len(features.Rules))
	for _, rule := range features.Rules {
		d := Distribution{Axis: rule.Axis, True: rule.True, False: rule.False}
		var trueCount int
		for _, ct := range classified {
			label, ok := ct.Labels[rule.Axis]
			if !ok {
				continue
			}
			d.Classified++
			if label == rule.True {
				trueCount++
			}
		}
		if d.Classified > 0 {
			d.TruePercent = percent(float64(trueCount), float64(d.Classified))
			d.FalsePercent = 100 - d.TruePercent
		}
		out = append(out, d)
	}
	return out
}

// AlbumRanking counts tracks per album name (exact match). Ties keep the order
// in which albums were first seen.
func AlbumRanking(tracks []harmonyhub.Track) []Rank {
	names := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if t.Album == "" {
			continue
		}
		names = append(names, t.Album)
	}
	return rank(names)
}

// GenreRanking counts, for every genre, the tracks whose artist has it. A
// genre listed twice for one artist counts once per track.
func GenreRanking(in Input) []Rank {
	var names []string
	for _, t := range in.Tracks {
		genres := in.TrackGenres[t.ID]
		if len(genres) == 0 {
			genres = in.ArtistGenres[t.ArtistID]
		}
		seen := make(map[string]struct{}, len(genres))
		for _, g := range genres {
			if g == "" {
				continue
			}
			if _, dup := seen[g]; dup {
				continue
			}
			seen[g] = struct{}{}
			names = append(names, g)
		}
	}
	return rank(names)
}

func rank(names []string) []Rank {
	counts := make(map[string]int)
	var order []string
	for _, n := range names {
		if _, ok := counts[n]; !ok {
			order = append(order, n)
		}
		counts[n]++
	}

	out := make([]Rank, len(order))
	for i, n := range order {
		out[i] = Rank{Name: n, Count: counts[n]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

func top(ranks []Rank, n int) []Rank {
	if n > 0 && len(ranks) > n {
		return ranks[:n]
	}
	return ranks
}

// PopularityLabel buckets a popularity score.
func PopularityLabel(popularity int) string {
	switch {
	case popularity >= PopularThreshold:
		return LabelPopular
	case popularity >= AverageThreshold:
		return LabelAverage
	default:
		return LabelObscure
	}
}

// Popularity buckets tracks by popularity and shares listening minutes
// between the buckets. Scores outside 0..100 are skipped.
func Popularity(tracks []harmonyhub.Track) PopularityStats {
	buckets := []Bucket{{Label: LabelPopular}, {Label: LabelAverage}, {Label: LabelObscure}}
	index := map[string]int{LabelPopular: 0, LabelAverage: 1, LabelObscure: 2}

	for i := range tracks {
		t := tracks[i]
		if t.Popularity < 0 || t.Popularity > 100 {
			continue
		}
		addToBucket(&buckets[index[PopularityLabel(t.Popularity)]], t)
	}
	sharePercent(buckets)

	return PopularityStats{
		Buckets:     buckets,
		MostPopular: buckets[0].Representative,
		MostObscure: buckets[2].Representative,
	}
}

// ReleaseYear parses the year from the first four characters of an ISO date.
func ReleaseYear(date string) (int, bool) {
	if len(date) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}

// Decade floors a year to its decade: 1995 is 1990, 2000 is 2000.
func Decade(year int) int {
	return year / 10 * 10
}

// Decades groups tracks by release decade. Tracks without a parsable year
// are skipped entirely.
func Decades(tracks []harmonyhub.Track) DecadeStats {
	var stats DecadeStats
	byDecade := make(map[int]*DecadeBucket)
	var newestYear, oldestYear int

	for i := range tracks {
		t := tracks[i]
		year, ok := ReleaseYear(t.ReleaseDate)
		if !ok {
			continue
		}

		d := Decade(year)
		b, ok := byDecade[d]
		if !ok {
			b = &DecadeBucket{Decade: d}
			byDecade[d] = b
		}
		b.Tracks++
		if t.DurationMs > 0 {
			b.Minutes += t.Minutes()
		}

		if stats.Newest == nil || year > newestYear {
			stats.Newest, newestYear = &tracks[i], year
		}
		if stats.Oldest == nil || year < oldestYear {
			stats.Oldest, oldestYear = &tracks[i], year
		}
	}

	decades := maps.Keys(byDecade)
	sort.Sort(sort.Reverse(sort.IntSlice(decades)))

	var total float64
	for _, b := range byDecade {
		total += b.Minutes
	}
	stats.Decades = make([]DecadeBucket, 0, len(decades))
	for _, d := range decades {
		b := *byDecade[d]
		b.Percent = percent(b.Minutes, total)
		stats.Decades = append(stats.Decades, b)
	}
	return stats
}

// LengthLabel buckets a duration in minutes. Four minutes exactly is short;
// anything over nine minutes is long.
func LengthLabel(minutes float64) string {
	switch {
	case minutes <= 4:
		return LabelShort
	case minutes <= 9:
		return LabelMedium
	default:
		return LabelLong
	}
}

// Length buckets tracks by duration. Tracks without a positive duration are
// skipped.
func Length(tracks []harmonyhub.Track) LengthStats {
	var stats LengthStats
	buckets := []Bucket{{Label: LabelShort}, {Label: LabelMedium}, {Label: LabelLong}}
	index := map[string]int{LabelShort: 0, LabelMedium: 1, LabelLong: 2}

	for i := range tracks {
		t := tracks[i]
		if t.DurationMs <= 0 {
			continue
		}
		addToBucket(&buckets[index[LengthLabel(t.Minutes())]], t)

		if stats.Longest == nil || t.DurationMs > stats.Longest.DurationMs {
			stats.Longest = &tracks[i]
		}
		if stats.Shortest == nil || t.DurationMs < stats.Shortest.DurationMs {
			stats.Shortest = &tracks[i]
		}
	}
	sharePercent(buckets)
	stats.Buckets = buckets
	return stats
}

func addToBucket(b *Bucket, t harmonyhub.Track) {
	b.Tracks++
	if t.DurationMs > 0 {
		b.Minutes += t.Minutes()
	}
	if b.Representative == nil {
		rep := t
		b.Representative = &rep
	}
}

func sharePercent(buckets []Bucket) {
	var total float64
	for _, b := range buckets {
		total += b.Minutes
	}
	for i := range buckets {
		buckets[i].Percent = percent(buckets[i].Minutes, total)
	}
}

func percent(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * part / total
}
