package token

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"golang.org/x/oauth2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	fs "github.com/mager/harmonyhub/firestore"
)

type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) Load(ctx context.Context, id string) (*oauth2.Token, error) {
	doc, err := s.client.Collection(fs.TokensCollection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var td fs.TokenDoc
	if err := doc.DataTo(&td); err != nil {
		return nil, err
	}
	return fromDoc(td), nil
}

func (s *FirestoreStore) Save(ctx context.Context, id string, tok *oauth2.Token) error {
	_, err := s.client.Collection(fs.TokensCollection).Doc(id).Set(ctx, toDoc(tok))
	return err
}

func toDoc(tok *oauth2.Token) fs.TokenDoc {
	td := fs.TokenDoc{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if !tok.Expiry.IsZero() {
		td.Expiry = tok.Expiry.Unix()
	}
	return td
}

func fromDoc(td fs.TokenDoc) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  td.AccessToken,
		RefreshToken: td.RefreshToken,
		TokenType:    td.TokenType,
	}
	if td.Expiry > 0 {
		tok.Expiry = time.Unix(td.Expiry, 0)
	}
	return tok
}
