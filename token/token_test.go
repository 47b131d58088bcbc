package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/mager/harmonyhub/database"
)

func newSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := database.Open(context.Background(), "sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("database.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(db)
}

func TestSQLStoreNotFound(t *testing.T) {
	s := newSQLStore(t)
	if _, err := s.Load(context.Background(), "default"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLStoreSaveLoadOverwrite(t *testing.T) {
	ctx := context.Background()
	s := newSQLStore(t)
	expiry := time.Unix(1700000000, 0)

	if err := s.Save(ctx, "default", &oauth2.Token{AccessToken: "a1", RefreshToken: "r1", TokenType: "Bearer", Expiry: expiry}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, "default", &oauth2.Token{AccessToken: "a2", RefreshToken: "r1", TokenType: "Bearer", Expiry: expiry.Add(time.Hour)}); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	tok, err := s.Load(ctx, "default")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tok.AccessToken != "a2" || tok.RefreshToken != "r1" || tok.TokenType != "Bearer" {
		t.Errorf("unexpected token %+v", tok)
	}
	if !tok.Expiry.Equal(expiry.Add(time.Hour)) {
		t.Errorf("expected expiry %v, got %v", expiry.Add(time.Hour), tok.Expiry)
	}
}

func TestFirestoreDocRoundTrip(t *testing.T) {
	in := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: time.Unix(1700000000, 0)}
	out := fromDoc(toDoc(in))
	if out.AccessToken != "a" || out.RefreshToken != "r" || !out.Expiry.Equal(in.Expiry) {
		t.Errorf("unexpected token %+v", out)
	}
	if got := fromDoc(toDoc(&oauth2.Token{AccessToken: "a"})); !got.Expiry.IsZero() {
		t.Errorf("expected a zero expiry to stay zero, got %v", got.Expiry)
	}
}
