package credential

import (
	"context"
	"crypto/rand"
	"errors"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/fairway/internal/dependencies/clock"
	"github.com/mcoot/fairway/internal/dependencies/random"
	"github.com/mcoot/fairway/internal/model"
	"github.com/mcoot/fairway/internal/storage"
)

const (
	// SecretLength is the length of generated reconnect secrets
	SecretLength = 32
	// SecretAlphabet is the characters used in secrets
	SecretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Identity is a freshly-issued player identity. Secret is the plaintext
// reconnect proof and is only available at issue time; storage holds a hash.
type Identity struct {
	Player model.Player
	Secret string
}

// Controller issues player identities and verifies reconnect secrets
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
}

// NewController creates a new credential Controller
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
		random:  random,
	}
}

// IssueIdentity creates a new player with a fresh secret
func (c *Controller) IssueIdentity(ctx context.Context) (*Identity, error) {
	now := c.clock.Now()

	playerID := model.PlayerID(ulid.MustNew(ulid.Timestamp(now), rand.Reader).String())
	secret := c.random.String(SecretLength, SecretAlphabet)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	player := &model.Player{
		ID:        playerID,
		CreatedAt: now,
	}

	record := &model.CredentialRecord{
		PlayerID:   playerID,
		SecretHash: string(hash),
		CreatedAt:  now,
	}

	if err := c.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	if err := c.storage.SaveCredential(ctx, record); err != nil {
		return nil, err
	}

	return &Identity{
		Player: *player,
		Secret: secret,
	}, nil
}

// Verify checks a replayed secret against the stored hash for a player.
// Returns ErrCredentialNotFound if the player is unknown and
// ErrUnauthorized if the secret does not match.
func (c *Controller) Verify(ctx context.Context, playerID model.PlayerID, secret string) error {
	record, err := c.storage.GetCredential(ctx, playerID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.SecretHash), []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return model.ErrUnauthorized
		}
		return err
	}

	return nil
}

// GetPlayer retrieves a player by ID
func (c *Controller) GetPlayer(ctx context.Context, playerID model.PlayerID) (*model.Player, error) {
	return c.storage.GetPlayer(ctx, playerID)
}

// Interface for dependency injection
type ControllerInterface interface {
	IssueIdentity(ctx context.Context) (*Identity, error)
	Verify(ctx context.Context, playerID model.PlayerID, secret string) error
	GetPlayer(ctx context.Context, playerID model.PlayerID) (*model.Player, error)
}

var _ ControllerInterface = (*Controller)(nil)
