package database

import (
	"context"
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"

	"github.com/bizcard/bizcard/internal/config"
	"github.com/bizcard/bizcard/internal/model"
)

// BadgerDB holds a connection to a Badger backend.
type BadgerDB struct {
	InMemory bool
	DB       *badger.DB
}

const (
	prefixUser       = "user"
	prefixCard       = "card"
	prefixEmailIndex = "uemail"
)

func makeUserKey(id string) []byte {
	return makeKey(prefixUser, id)
}

func makeCardKey(id string) []byte {
	return makeKey(prefixCard, id)
}

func makeEmailIndexKey(email string) []byte {
	return makeKey(prefixEmailIndex, email)
}

func makeKey(prefix, id string) []byte {
	return []byte(fmt.Sprintf("%s_%s", prefix, id))
}

// NewBadgerDB creates a new database with a Badger backend.
// Pass `true` to create an in-memory database (useful in tests, for example).
func NewBadgerDB(inMemory bool) (*BadgerDB, error) {
	var path string
	if !inMemory {
		path = config.Current.Database.Dir
	}
	opts := badger.DefaultOptions(path).WithInMemory(inMemory)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "opening badger database")
	}

	return &BadgerDB{DB: db, InMemory: inMemory}, nil
}

// Close handles closing all connections to the database.
func (db *BadgerDB) Close() error {
	return db.DB.Close()
}

// CreateUser registers a new user, enforcing email uniqueness.
func (db *BadgerDB) CreateUser(ctx context.Context, user *model.User) error {
	key := makeUserKey(user.ID)
	emailKey := makeEmailIndexKey(user.Email)
	err := db.DB.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(emailKey)
		if err == nil {
			return &model.ConflictError{Message: msgUserExists}
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		b, err := json.Marshal(user)
		if err != nil {
			return err
		}
		if err := txn.Set(key, b); err != nil {
			return err
		}
		return txn.Set(emailKey, []byte(user.ID))
	})
	return wrapStoreErr(err, "creating user")
}

// GetUserByID retrieves a user's record based off an ID.
func (db *BadgerDB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := db.DB.View(func(txn *badger.Txn) error {
		return getJSON(txn, makeUserKey(id), &user)
	})
	if err == badger.ErrKeyNotFound {
		return nil, &model.NotFoundError{Message: msgUserNotFound}
	}
	if err != nil {
		return nil, wrapStoreErr(err, "getting user")
	}
	return &user, nil
}

// GetUserByEmail retrieves a user's record based off an email address.
func (db *BadgerDB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := db.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makeEmailIndexKey(email))
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return getJSON(txn, makeUserKey(string(id)), &user)
	})
	if err == badger.ErrKeyNotFound {
		return nil, &model.NotFoundError{Message: msgUserNotFound}
	}
	if err != nil {
		return nil, wrapStoreErr(err, "getting user by email")
	}
	return &user, nil
}

// ListUsers lists all users in the database.
func (db *BadgerDB) ListUsers(ctx context.Context) ([]*model.User, error) {
	users := make([]*model.User, 0)
	err := db.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixUser + "_")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var user model.User
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &user)
			})
			if err != nil {
				return err
			}
			users = append(users, &user)
		}

		return nil
	})
	if err != nil {
		return nil, wrapStoreErr(err, "listing users")
	}
	return users, nil
}

// UpdateUser replaces the stored user document, keeping the email index
// consistent if the address changed.
func (db *BadgerDB) UpdateUser(ctx context.Context, user *model.User) (*model.User, error) {
	key := makeUserKey(user.ID)
	err := db.DB.Update(func(txn *badger.Txn) error {
		var existing model.User
		if err := getJSON(txn, key, &existing); err != nil {
			return err
		}

		if existing.Email != user.Email {
			if _, err := txn.Get(makeEmailIndexKey(user.Email)); err == nil {
				return &model.ConflictError{Message: msgUserExists}
			} else if err != badger.ErrKeyNotFound {
				return err
			}
			if err := txn.Delete(makeEmailIndexKey(existing.Email)); err != nil {
				return err
			}
			if err := txn.Set(makeEmailIndexKey(user.Email), []byte(user.ID)); err != nil {
				return err
			}
		}

		b, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return txn.Set(key, b)
	})
	if err == badger.ErrKeyNotFound {
		return nil, &model.NotFoundError{Message: msgUserNotFound}
	}
	if err != nil {
		return nil, wrapStoreErr(err, "updating user")
	}
	return user, nil
}

// SetUserType overwrites the role tag on the stored user document.
func (db *BadgerDB) SetUserType(ctx context.Context, id, userType string) (*model.User, error) {
	key := makeUserKey(id)
	var user model.User
	err := db.DB.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, key, &user); err != nil {
			return err
		}
		user.UserType = userType

		b, err := json.Marshal(&user)
		if err != nil {
			return err
		}
		return txn.Set(key, b)
	})
	if err == badger.ErrKeyNotFound {
		return nil, &model.NotFoundError{Message: msgUserNotFound}
	}
	if err != nil {
		return nil, wrapStoreErr(err, "setting user type")
	}
	return &user, nil
}

// DeleteUser deletes the user from the database, returning the deleted record.
func (db *BadgerDB) DeleteUser(ctx context.Context, id string) (*model.User, error) {
	key := makeUserKey(id)
	var user model.User
	err := db.DB.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, key, &user); err != nil {
			return err
		}
		if err := txn.Delete(makeEmailIndexKey(user.Email)); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err == badger.ErrKeyNotFound {
		return nil, &model.NotFoundError{Message: msgUserNotFound}
	}
	if err != nil {
		return nil, wrapStoreErr(err, "deleting user")
	}
	return &user, nil
}

// CreateCard saves a new card document.
func (db *BadgerDB) CreateCard(ctx context.Context, card *model.Card) error {
	key := makeCardKey(card.ID)
	err := db.DB.Update(func(txn *badger.Txn) error {
		b, err := json.Marshal(card)
		if err != nil {
			return err
		}
		return txn.Set(key, b)
	})
	return wrapStoreErr(err, "creating card")
}

// GetCardByID retrieves a card based off an ID.
func (db *BadgerDB) GetCardByID(ctx context.Context, id string) (*model.Card, error) {
	var card model.Card
	err := db.DB.View(func(txn *badger.Txn) error {
		return getJSON(txn, makeCardKey(id), &card)
	})
	if err == badger.ErrKeyNotFound {
		return nil, &model.NotFoundError{Message: msgCardNotFound}
	}
	if err != nil {
		return nil, wrapStoreErr(err, "getting card")
	}
	return &card, nil
}

// ListCards lists all cards in the database.
func (db *BadgerDB) ListCards(ctx context.Context) ([]*model.Card, error) {
	return db.listCards(func(*model.Card) bool { return true })
}

// ListCardsByOwner lists the cards owned by the given user.
func (db *BadgerDB) ListCardsByOwner(ctx context.Context, userID string) ([]*model.Card, error) {
	return db.listCards(func(c *model.Card) bool { return c.UserID == userID })
}

func (db *BadgerDB) listCards(keep func(*model.Card) bool) ([]*model.Card, error) {
	cards := make([]*model.Card, 0)
	err := db.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixCard + "_")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var card model.Card
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &card)
			})
			if err != nil {
				return err
			}
			if keep(&card) {
				cards = append(cards, &card)
			}
		}

		return nil
	})
	if err != nil {
		return nil, wrapStoreErr(err, "listing cards")
	}
	return cards, nil
}

// UpdateCard replaces the stored card document.
func (db *BadgerDB) UpdateCard(ctx context.Context, card *model.Card) (*model.Card, error) {
	key := makeCardKey(card.ID)
	err := db.DB.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			return err
		}
		b, err := json.Marshal(card)
		if err != nil {
			return err
		}
		return txn.Set(key, b)
	})
	if err == badger.ErrKeyNotFound {
		return nil, &model.NotFoundError{Message: msgCardNotFound}
	}
	if err != nil {
		return nil, wrapStoreErr(err, "updating card")
	}
	return card, nil
}

// FavoriteCard adds the user to the card's favorite set. The append runs
// inside a single update transaction and skips ids already present, so
// repeated favoriting stays idempotent.
func (db *BadgerDB) FavoriteCard(ctx context.Context, cardID, userID string) (*model.Card, error) {
	key := makeCardKey(cardID)
	var card model.Card
	err := db.DB.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, key, &card); err != nil {
			return err
		}
		if card.FavoritedBy(userID) {
			return nil
		}
		card.FavoriteByUsers = append(card.FavoriteByUsers, userID)

		b, err := json.Marshal(&card)
		if err != nil {
			return err
		}
		return txn.Set(key, b)
	})
	if err == badger.ErrKeyNotFound {
		return nil, &model.NotFoundError{Message: msgCardNotFound}
	}
	if err != nil {
		return nil, wrapStoreErr(err, "favoriting card")
	}
	return &card, nil
}

// DeleteCard deletes the card from the database, returning the deleted record.
func (db *BadgerDB) DeleteCard(ctx context.Context, id string) (*model.Card, error) {
	key := makeCardKey(id)
	var card model.Card
	err := db.DB.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, key, &card); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err == badger.ErrKeyNotFound {
		return nil, &model.NotFoundError{Message: msgCardNotFound}
	}
	if err != nil {
		return nil, wrapStoreErr(err, "deleting card")
	}
	return &card, nil
}

func getJSON(txn *badger.Txn, key []byte, v interface{}) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(b []byte) error {
		return json.Unmarshal(b, v)
	})
}

// wrapStoreErr wraps backend failures in a StoreError, passing domain
// errors through untouched.
func wrapStoreErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	switch err.(type) {
	case *model.ConflictError, *model.NotFoundError:
		return err
	}
	return &model.StoreError{Err: errors.Wrap(err, msg)}
}
