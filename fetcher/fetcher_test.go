package fetcher

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mager/harmonyhub/harmonyhub"
	"github.com/mager/harmonyhub/logger"
	"github.com/mager/harmonyhub/retry"
)

var (
	errRateLimited = errors.New("429")
	errServer      = errors.New("503")
	errBadRequest  = errors.New("400")
)

func classify(err error) (retry.Class, time.Duration) {
	switch {
	case errors.Is(err, errRateLimited):
		return retry.RateLimited, 0
	case errors.Is(err, errServer):
		return retry.Transient, 0
	default:
		return retry.Permanent, 0
	}
}

func newBatcher(t *testing.T) (*Batcher, *observer.ObservedLogs) {
	t.Helper()
	log, logs := logger.NewTestLogger()
	policy := retry.NewPolicy(log, classify)
	policy.BaseDelay = time.Millisecond
	policy.RateLimitDelay = time.Millisecond
	return NewBatcher(log, policy, 50), logs
}

// fakeAPI records every call and fails calls according to script, keyed by
// call number starting at 1.
type fakeAPI struct {
	calls   [][]string
	script  map[int]error
	missing map[string]bool
}

func (f *fakeAPI) AudioFeatures(_ context.Context, ids []string) ([]*harmonyhub.AudioFeatures, error) {
	f.calls = append(f.calls, ids)
	if err := f.script[len(f.calls)]; err != nil {
		return nil, err
	}
	out := make([]*harmonyhub.AudioFeatures, len(ids))
	for i, id := range ids {
		if f.missing[id] {
			continue
		}
		out[i] = &harmonyhub.AudioFeatures{TrackID: id, Valence: 0.7}
	}
	return out, nil
}

func (f *fakeAPI) Tracks(_ context.Context, ids []string) ([]*harmonyhub.Track, error) {
	f.calls = append(f.calls, ids)
	if err := f.script[len(f.calls)]; err != nil {
		return nil, err
	}
	out := make([]*harmonyhub.Track, len(ids))
	for i, id := range ids {
		out[i] = &harmonyhub.Track{ID: id, Name: "track " + id}
	}
	return out, nil
}

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("t%03d", i)
	}
	return out
}

func TestFeatureFetcherBatchesInOrderAndRetriesRateLimit(t *testing.T) {
	b, _ := newBatcher(t)
	api := &fakeAPI{script: map[int]error{2: errRateLimited}}

	res, err := NewFeatureFetcher(api, b).Fetch(context.Background(), ids(120))
	if err != nil {
		t.Fatal(err)
	}

	// Batch 2 is requested twice: once rate limited, once successfully.
	wantFirst := []string{"t000", "t050", "t050", "t100"}
	wantSizes := []int{50, 50, 50, 20}
	if len(api.calls) != len(wantFirst) {
		t.Fatalf("got %d calls, want %d", len(api.calls), len(wantFirst))
	}
	for i, call := range api.calls {
		if call[0] != wantFirst[i] || len(call) != wantSizes[i] {
			t.Errorf("call %d: first=%s size=%d, want first=%s size=%d", i, call[0], len(call), wantFirst[i], wantSizes[i])
		}
	}

	if len(res.Items) != 120 {
		t.Errorf("got %d items, want 120", len(res.Items))
	}
	for id, f := range res.Items {
		if f == nil {
			t.Errorf("%s has no features", id)
		}
	}
	if len(res.FailedBatches) != 0 {
		t.Errorf("FailedBatches = %v, want none", res.FailedBatches)
	}
}

func TestFeatureFetcherRecordsExhaustedBatchAsAbsent(t *testing.T) {
	b, logs := newBatcher(t)
	b.policy.MaxAttempts = 2
	api := &fakeAPI{script: map[int]error{1: errServer, 2: errServer}}

	res, err := NewFeatureFetcher(api, b).Fetch(context.Background(), ids(60))
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(res.FailedBatches, []int{0}) {
		t.Errorf("FailedBatches = %v, want [0]", res.FailedBatches)
	}
	if f, ok := res.Items["t000"]; !ok || f != nil {
		t.Errorf("t000 = %v, %v; want recorded as absent", f, ok)
	}
	if res.Items["t055"] == nil {
		t.Error("t055 from the second batch should have features")
	}

	failures := logs.FilterMessage("batch failed, tracks recorded without data").All()
	if len(failures) != 1 {
		t.Fatalf("got %d failure logs, want 1", len(failures))
	}
	if got := failures[0].ContextMap()["batch"]; got != int64(1) {
		t.Errorf("logged batch = %v, want 1", got)
	}
}

func TestFeatureFetcherAbortsOnPermanentError(t *testing.T) {
	b, _ := newBatcher(t)
	api := &fakeAPI{script: map[int]error{2: errBadRequest}}

	res, err := NewFeatureFetcher(api, b).Fetch(context.Background(), ids(120))
	if !errors.Is(err, errBadRequest) {
		t.Fatalf("err = %v, want bad request", err)
	}
	if len(api.calls) != 2 {
		t.Errorf("got %d calls, want 2 (no retry, no third batch)", len(api.calls))
	}
	if res.Items["t010"] == nil {
		t.Error("first batch should be kept")
	}
	if _, ok := res.Items["t100"]; ok {
		t.Error("third batch should not be fetched")
	}
}

func TestFeatureFetcherToleratesNullRecordsAndDuplicates(t *testing.T) {
	b, _ := newBatcher(t)
	api := &fakeAPI{missing: map[string]bool{"b": true}}

	res, err := NewFeatureFetcher(api, b).Fetch(context.Background(), []string{"a", "b", "a", "", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(api.calls) != 1 || !reflect.DeepEqual(api.calls[0], []string{"a", "b", "c"}) {
		t.Errorf("calls = %v, want one call for [a b c]", api.calls)
	}
	if res.Items["a"] == nil || res.Items["c"] == nil {
		t.Error("a and c should have features")
	}
	if f, ok := res.Items["b"]; !ok || f != nil {
		t.Error("b should be recorded as absent")
	}
}

func TestFeatureFetcherBatchTimeout(t *testing.T) {
	log, _ := logger.NewTestLogger()
	policy := retry.NewPolicy(log, classify)
	policy.RateLimitDelay = time.Hour
	b := NewBatcher(log, policy, 2)
	b.Timeout = 10 * time.Millisecond

	api := &fakeAPI{script: map[int]error{1: errRateLimited}}
	res, err := NewFeatureFetcher(api, b).Fetch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.FailedBatches, []int{0}) {
		t.Errorf("FailedBatches = %v, want [0]", res.FailedBatches)
	}
	if res.Items["c"] == nil {
		t.Error("c should be fetched after the first batch timed out")
	}
}

func TestTrackFetcher(t *testing.T) {
	b, _ := newBatcher(t)
	api := &fakeAPI{}

	res, err := NewTrackFetcher(api, b).Fetch(context.Background(), []string{"x", "y", "x"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 2 || res.Items["y"].Name != "track y" {
		t.Errorf("unexpected items: %v", res.Items)
	}
}

func TestChunk(t *testing.T) {
	got := Chunk(ids(120), 50)
	if len(got) != 3 || len(got[2]) != 20 {
		t.Errorf("Chunk sizes wrong: %d chunks", len(got))
	}
	if Chunk(nil, 50) != nil {
		t.Error("empty input should produce no chunks")
	}
}

func TestNewBatcherClampsSize(t *testing.T) {
	log := zap.NewNop().Sugar()
	if b := NewBatcher(log, nil, 500); b.Size != MaxBatchSize {
		t.Errorf("Size = %d, want %d", b.Size, MaxBatchSize)
	}
	if b := NewBatcher(log, nil, 0); b.Size != MaxBatchSize {
		t.Errorf("Size = %d, want %d", b.Size, MaxBatchSize)
	}
	if b := NewBatcher(log, nil, 20); b.Size != 20 {
		t.Errorf("Size = %d, want 20", b.Size)
	}
}
