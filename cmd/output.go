package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/mager/harmonyhub/aggregate"
	"github.com/mager/harmonyhub/dashboard"
	"github.com/mager/harmonyhub/harmonyhub"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unknown format %q, want table, json or yaml", format)
}

func writeReport(out io.Writer, d *dashboard.Dashboard, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	case formatYAML:
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(d)
	case formatTable:
		return writeTables(out, d)
	}
	return checkFormat(format)
}

func writeTables(out io.Writer, d *dashboard.Dashboard) error {
	r := d.Report
	name := "unknown user"
	if d.Profile != nil {
		name = d.Profile.DisplayName
	}
	fmt.Fprintf(out, "%s: %d %s tracks (%s), %d with audio features\n\n",
		name, r.Tracks, d.Request.Source, d.Request.TimeRange, r.Classified)

	tables := []struct {
		title string
		rows  [][]string
	}{
		{"Traits", criteriaRows(r.Criteria)},
		{"Top albums", rankRows("Album", r.Albums)},
		{"Top genres", rankRows("Genre", r.Genres)},
		{"Popularity", bucketRows("Popularity", r.Popularity.Buckets)},
		{"Decades", decadeRows(r.Decades.Decades)},
		{"Length", bucketRows("Length", r.Length.Buckets)},
		{"Highlights", highlightRows(r)},
	}
	for _, t := range tables {
		fmt.Fprintln(out, t.title)
		if err := writeTable(out, t.rows); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}

	for _, w := range d.Warnings {
		fmt.Fprintf(out, "warning: %s: %s\n", w.Stage, w.Error)
	}
	return nil
}

// writeTable renders rows; the first row is the header.
func writeTable(out io.Writer, rows [][]string) error {
	table := tablewriter.NewWriter(out)
	table.Header(rows[0])
	for _, row := range rows[1:] {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("rendering table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	return nil
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

func minutes(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func criteriaRows(ds []aggregate.Distribution) [][]string {
	rows := [][]string{{"Trait", "Share", "Opposite", "Share"}}
	for _, d := range ds {
		rows = append(rows, []string{d.True, pct(d.TruePercent), d.False, pct(d.FalsePercent)})
	}
	return rows
}

func rankRows(label string, ranks []aggregate.Rank) [][]string {
	rows := [][]string{{"#", label, "Tracks"}}
	for i, r := range ranks {
		rows = append(rows, []string{strconv.Itoa(i + 1), r.Name, strconv.Itoa(r.Count)})
	}
	return rows
}

func bucketRows(label string, buckets []aggregate.Bucket) [][]string {
	rows := [][]string{{label, "Tracks", "Minutes", "Share", "Example"}}
	for _, b := range buckets {
		rows = append(rows, []string{b.Label, strconv.Itoa(b.Tracks), minutes(b.Minutes), pct(b.Percent), trackName(b.Representative)})
	}
	return rows
}

func decadeRows(decades []aggregate.DecadeBucket) [][]string {
	rows := [][]string{{"Decade", "Tracks", "Minutes", "Share"}}
	for _, d := range decades {
		rows = append(rows, []string{strconv.Itoa(d.Decade) + "s", strconv.Itoa(d.Tracks), minutes(d.Minutes), pct(d.Percent)})
	}
	return rows
}

func highlightRows(r aggregate.Report) [][]string {
	return [][]string{
		{"", "Track"},
		{"Most popular", trackName(r.Popularity.MostPopular)},
		{"Most obscure", trackName(r.Popularity.MostObscure)},
		{"Newest", trackName(r.Decades.Newest)},
		{"Oldest", trackName(r.Decades.Oldest)},
		{"Longest", trackName(r.Length.Longest)},
		{"Shortest", trackName(r.Length.Shortest)},
	}
}

func trackName(t *harmonyhub.Track) string {
	if t == nil {
		return "-"
	}
	return t.Name + " - " + t.Artist
}
