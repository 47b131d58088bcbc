package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mager/harmonyhub/aggregate"
	"github.com/mager/harmonyhub/dashboard"
	"github.com/mager/harmonyhub/harmonyhub"
)

func testDashboard() *dashboard.Dashboard {
	tracks := []harmonyhub.Track{
		{ID: "t1", Name: "Paranoid Android", Artist: "Radiohead", Album: "OK Computer", Popularity: 72, DurationMs: 383000, ReleaseDate: "1997"},
		{ID: "t2", Name: "Hyperballad", Artist: "Bjork", Album: "Post", Popularity: 55, DurationMs: 321000, ReleaseDate: "1995"},
	}
	return &dashboard.Dashboard{
		ID:       "r1",
		Request:  dashboard.Request{Source: "top", TimeRange: "medium_term"},
		Profile:  &harmonyhub.Profile{DisplayName: "Ada"},
		Tracks:   tracks,
		Report:   aggregate.Build(aggregate.Input{Tracks: tracks}, aggregate.Options{}),
		Warnings: []dashboard.Warning{{Stage: "playback", Error: "boom"}},
	}
}

func TestWriteReportTable(t *testing.T) {
	var out bytes.Buffer
	if err := writeReport(&out, testDashboard(), formatTable); err != nil {
		t.Fatalf("writeReport: %v", err)
	}
	s := out.String()
	for _, want := range []string{"Ada: 2 top tracks", "OK Computer", "1990s", "Paranoid Android - Radiohead", "warning: playback: boom"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected output to contain %q:\n%s", want, s)
		}
	}
}

func TestWriteReportJSON(t *testing.T) {
	var out bytes.Buffer
	if err := writeReport(&out, testDashboard(), formatJSON); err != nil {
		t.Fatalf("writeReport: %v", err)
	}
	var d dashboard.Dashboard
	if err := json.Unmarshal(out.Bytes(), &d); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if d.ID != "r1" || d.Report.Tracks != 2 {
		t.Errorf("unexpected dashboard %+v", d)
	}
}

func TestWriteReportYAML(t *testing.T) {
	var out bytes.Buffer
	if err := writeReport(&out, testDashboard(), formatYAML); err != nil {
		t.Fatalf("writeReport: %v", err)
	}
	var d map[string]interface{}
	if err := yaml.Unmarshal(out.Bytes(), &d); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if d["id"] != "r1" {
		t.Errorf("expected id r1, got %v", d["id"])
	}
}

func TestCheckFormat(t *testing.T) {
	if err := checkFormat("csv"); err == nil {
		t.Error("expected an error for csv")
	}
	if err := checkFormat(formatYAML); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRequestFromViper(t *testing.T) {
	viper.Set("source", "recent")
	viper.Set("time-range", "short_term")
	viper.Set("limit", 25)
	viper.Set("playlists", true)
	defer viper.Reset()

	req := requestFromViper()
	want := dashboard.Request{Source: "recent", TimeRange: "short_term", Limit: 25, IncludePlaylists: true}
	if req != want {
		t.Errorf("expected %+v, got %+v", want, req)
	}
}
