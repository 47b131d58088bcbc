package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
)

// TokensCollection holds one TokenDoc per stored user.
const TokensCollection = "spotify_tokens"

// TokenDoc is an OAuth token as stored in Firestore.
type TokenDoc struct {
	AccessToken  string `json:"access_token" firestore:"access_token"`
	RefreshToken string `json:"refresh_token" firestore:"refresh_token"`
	TokenType    string `json:"token_type" firestore:"token_type"`
	Expiry       int64  `json:"expiry" firestore:"expiry"`
}

// NewClient provides a firestore client for projectID
func NewClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, errors.New("firestore: project ID is required")
	}
	return firestore.NewClient(ctx, projectID)
}
