// Package features sorts a track's audio features into bipolar trait labels.
package features

import (
	"math"

	"github.com/mager/harmonyhub/harmonyhub"
)

type Axis string

const (
	Mood         Axis = "mood"
	Rhythm       Axis = "rhythm"
	Tempo        Axis = "tempo"
	Acoustic     Axis = "acoustic"
	Energy       Axis = "energy"
	Loudness     Axis = "loudness"
	Instrumental Axis = "instrumental"
	Live         Axis = "live"
	Spoken       Axis = "spoken"
)

// Rule labels one axis. A value at the threshold gets the True label unless
// Strict is set.
type Rule struct {
	Axis      Axis
	True      string
	False     string
	Threshold float64
	Strict    bool
	Value     func(harmonyhub.AudioFeatures) float64
}

// Label returns the label for v and false when v is not a finite number.
func (r Rule) Label(v float64) (string, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", false
	}
	if v > r.Threshold || (!r.Strict && v == r.Threshold) {
		return r.True, true
	}
	return r.False, true
}

// Rules lists every axis in display order. Mood is the only strict axis: a
// valence of exactly 0.5 is Sad.
var Rules = []Rule{
	{Axis: Mood, True: "Happy", False: "Sad", Threshold: 0.5, Strict: true,
		Value: func(f harmonyhub.AudioFeatures) float64 { return f.Valence }},
	{Axis: Rhythm, True: "Danceable", False: "Unrhythmic", Threshold: 0.5,
		Value: func(f harmonyhub.AudioFeatures) float64 { return f.Danceability }},
	{Axis: Tempo, True: "Fast", False: "Slow", Threshold: 120,
		Value: func(f harmonyhub.AudioFeatures) float64 { return f.Tempo }},
	{Axis: Acoustic, True: "Acoustic", False: "Electric", Threshold: 0.5,
		Value: func(f harmonyhub.AudioFeatures) float64 { return f.Acousticness }},
	{Axis: Energy, True: "Energetic", False: "Relaxing", Threshold: 0.5,
		Value: func(f harmonyhub.AudioFeatures) float64 { return f.Energy }},
	{Axis: Loudness, True: "Loud", False: "Soft", Threshold: -5,
		Value: func(f harmonyhub.AudioFeatures) float64 { return f.Loudness }},
	{Axis: Instrumental, True: "Instrumental", False: "With Vocals", Threshold: 0.5,
		Value: func(f harmonyhub.AudioFeatures) float64 { return f.Instrumentalness }},
	{Axis: Live, True: "Live", False: "Studio", Threshold: 0.5,
		Value: func(f harmonyhub.AudioFeatures) float64 { return f.Liveness }},
	{Axis: Spoken, True: "Spoken", False: "Musical", Threshold: 0.5,
		Value: func(f harmonyhub.AudioFeatures) float64 { return f.Speechiness }},
}

// ClassifiedTrack is a track annotated with one label per axis.
type ClassifiedTrack struct {
	TrackID string          `json:"track_id"`
	Labels  map[Axis]string `json:"labels"`
}

// Classify labels every axis of f. Axes whose value is not finite are left
// out of Labels.
func Classify(f harmonyhub.AudioFeatures) ClassifiedTrack {
	ct := ClassifiedTrack{
		TrackID: f.TrackID,
		Labels:  make(map[Axis]string, len(Rules)),
	}
	for _, r := range Rules {
		if label, ok := r.Label(r.Value(f)); ok {
			ct.Labels[r.Axis] = label
		}
	}
	return ct
}

// ClassifyAll classifies the tracks that have features, in the order of ids.
// IDs without features are skipped.
func ClassifyAll(ids []string, feats map[string]*harmonyhub.AudioFeatures) []ClassifiedTrack {
	out := make([]ClassifiedTrack, 0, len(ids))
	for _, id := range ids {
		f := feats[id]
		if f == nil {
			continue
		}
		ct := Classify(*f)
		ct.TrackID = id
		out = append(out, ct)
	}
	return out
}
