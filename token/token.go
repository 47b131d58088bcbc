// Package token persists the user's Spotify OAuth token.
package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/mager/harmonyhub/config"
	"github.com/mager/harmonyhub/firestore"
)

// ErrNotFound means no token has been stored yet; the user has to log in.
var ErrNotFound = errors.New("token: not found")

type Store interface {
	Load(ctx context.Context, id string) (*oauth2.Token, error)
	Save(ctx context.Context, id string, tok *oauth2.Token) error
}

// ProvideStore picks the store named by cfg.TokenStore.
func ProvideStore(lc fx.Lifecycle, cfg config.Config, log *zap.SugaredLogger, db *sql.DB) (Store, error) {
	switch cfg.TokenStore {
	case "", "sql":
		return NewSQLStore(db), nil
	case "firestore":
		client, err := firestore.NewClient(context.Background(), cfg.FirestoreProject)
		if err != nil {
			log.Errorw("Failed to create firestore client", "project", cfg.FirestoreProject, "error", err)
			return nil, err
		}
		lc.Append(fx.StopHook(client.Close))
		return NewFirestoreStore(client), nil
	default:
		return nil, fmt.Errorf("token: unknown store %q", cfg.TokenStore)
	}
}

var Options = ProvideStore
