package database

import (
	"context"
	"time"

	"github.com/bizcard/bizcard/internal/config"
	"github.com/bizcard/bizcard/internal/model"
)

// DefaultTimeout is the default length of time to wait
// for a database operation to complete.
const DefaultTimeout = time.Second * 3

// Not-found messages reported to clients.
const (
	msgUserNotFound = "User does not exist!"
	msgCardNotFound = "Card does not exist!"
	msgUserExists   = "User already exists!"
)

// Database handles all interactions with the data backend.
type Database interface {
	UserDB
	CardDB
	Close() error
}

// UserDB handles interactions with the users collection.
//
// Implementations return *model.NotFoundError when no document matches,
// *model.ConflictError on email uniqueness violations, and *model.StoreError
// for backend failures.
type UserDB interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) (*model.User, error)
	SetUserType(ctx context.Context, id, userType string) (*model.User, error)
	DeleteUser(ctx context.Context, id string) (*model.User, error)
}

// New opens the store selected by the loaded configuration.
func New(ctx context.Context) (Database, error) {
	if config.Current.Database.Driver == "dgraph" {
		return NewDgraphDB(ctx)
	}
	return NewBadgerDB(false)
}

// CardDB handles interactions with the cards collection.
type CardDB interface {
	CreateCard(ctx context.Context, card *model.Card) error
	GetCardByID(ctx context.Context, id string) (*model.Card, error)
	ListCards(ctx context.Context) ([]*model.Card, error)
	ListCardsByOwner(ctx context.Context, userID string) ([]*model.Card, error)
	UpdateCard(ctx context.Context, card *model.Card) (*model.Card, error)
	FavoriteCard(ctx context.Context, cardID, userID string) (*model.Card, error)
	DeleteCard(ctx context.Context, id string) (*model.Card, error)
}
