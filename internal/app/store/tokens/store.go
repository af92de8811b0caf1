// internal/app/store/tokens/store.go
package tokens

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/oauth2"
)

// Names of the tokens a user holds.
const (
	Triton  = "triton"
	Neptune = "neptune"
)

const nonceSize = 24

var (
	// ErrNotFound is returned when the user holds no token by that name.
	ErrNotFound = errors.New("token not found")
	// ErrCorrupt is returned when a stored token cannot be opened with the
	// configured key.
	ErrCorrupt = errors.New("stored token cannot be opened")
)

// record is one stored token. Sealed is nonce || secretbox.
type record struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Name      string    `bson:"name"`
	Sealed    []byte    `bson:"sealed"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Store keeps upstream bearer tokens sealed at rest in MongoDB.
type Store struct {
	c   *mongo.Collection
	key [32]byte
}

// New creates a token Store. The sealing key is derived from sealKey.
func New(db *mongo.Database, sealKey string) *Store {
	return &Store{c: db.Collection("auth_tokens"), key: sha256.Sum256([]byte(sealKey))}
}

// EnsureIndexes creates the per-user lookup index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_token_user_name"),
	})
	return err
}

func docID(userID, name string) string { return userID + ":" + name }

// Put seals and stores token for the user, replacing any previous one.
func (s *Store) Put(ctx context.Context, userID, name, token string) error {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("token nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(token), &nonce, &s.key)

	rec := record{
		ID:        docID(userID, name),
		UserID:    userID,
		Name:      name,
		Sealed:    sealed,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.c.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, options.Replace().SetUpsert(true))
	return err
}

// Get opens the user's token.
func (s *Store) Get(ctx context.Context, userID, name string) (string, error) {
	var rec record
	err := s.c.FindOne(ctx, bson.M{"_id": docID(userID, name)}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if len(rec.Sealed) < nonceSize+secretbox.Overhead {
		return "", ErrCorrupt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], rec.Sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, rec.Sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrCorrupt
	}
	return string(plain), nil
}

// DeleteUser removes every token the user holds.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}

// For returns a view of the store bound to one user.
func (s *Store) For(userID string) *UserTokens {
	return &UserTokens{s: s, userID: userID}
}

// UserTokens is one user's slice of the store.
type UserTokens struct {
	s      *Store
	userID string
}

// Put stores a token for the bound user.
func (u *UserTokens) Put(ctx context.Context, name, token string) error {
	return u.s.Put(ctx, u.userID, name, token)
}

// Get reads a token of the bound user.
func (u *UserTokens) Get(ctx context.Context, name string) (string, error) {
	return u.s.Get(ctx, u.userID, name)
}

// Source returns an oauth2.TokenSource that re-reads the named token from
// storage each time it is asked.
func (u *UserTokens) Source(name string, timeout time.Duration) oauth2.TokenSource {
	return &source{u: u, name: name, timeout: timeout}
}

type source struct {
	u       *UserTokens
	name    string
	timeout time.Duration
}

func (s *source) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	tok, err := s.u.Get(ctx, s.name)
	if err != nil {
		return nil, fmt.Errorf("%s token for %s: %w", s.name, s.u.userID, err)
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}
