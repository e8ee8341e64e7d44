package database

import (
	"context"
	"encoding/json"
	"fmt"

	dgo "github.com/dgraph-io/dgo/v200"
	"github.com/dgraph-io/dgo/v200/protos/api"
	"github.com/pkg/errors"
	"google.golang.org/grpc"

	"github.com/bizcard/bizcard/internal/config"
	"github.com/bizcard/bizcard/internal/model"
)

// DgraphDB holds a connection to a Dgraph instance. Documents are stored
// as JSON blobs on Document nodes, keyed by an opaque external id so the
// rest of the system never sees Dgraph uids.
type DgraphDB struct {
	// The underlying gRPC connection.
	conn *grpc.ClientConn

	// The Dgraph client, wrapping conn.
	DB *dgo.Dgraph
}

const (
	kindUser = "user"
	kindCard = "card"
)

type dgraphDoc struct {
	UID   string   `json:"uid,omitempty"`
	Kind  string   `json:"kind,omitempty"`
	XID   string   `json:"xid,omitempty"`
	Email string   `json:"email,omitempty"`
	Owner string   `json:"owner,omitempty"`
	Doc   string   `json:"doc,omitempty"`
	DType []string `json:"dgraph.type,omitempty"`
}

// NewDgraphDB creates a new Dgraph database connection using settings from
// the loaded configuration, and ensures the schema exists.
func NewDgraphDB(ctx context.Context) (*DgraphDB, error) {
	addr := fmt.Sprintf("%s:%s", config.Current.Database.Host, config.Current.Database.Port)
	conn, err := grpc.Dial(addr, grpc.WithInsecure())
	if err != nil {
		return nil, errors.Wrap(err, "dialing dgraph")
	}

	db := &DgraphDB{DB: dgo.NewDgraphClient(api.NewDgraphClient(conn)), conn: conn}
	if err := db.seed(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// seed initializes the database schema.
func (db *DgraphDB) seed(ctx context.Context) error {
	op := &api.Operation{
		Schema: `
			xid: string @index(exact) @upsert .
			kind: string @index(exact) .
			email: string @index(exact) @upsert .
			owner: string @index(exact) .
			doc: string .

			type Document {
				xid
				kind
				email
				owner
				doc
			}
		`,
	}
	if err := db.DB.Alter(ctx, op); err != nil {
		return errors.Wrap(err, "altering dgraph schema")
	}
	return nil
}

// Close handles closing all connections to the database.
func (db *DgraphDB) Close() error {
	return db.conn.Close()
}

// CreateUser registers a new user, enforcing email uniqueness.
func (db *DgraphDB) CreateUser(ctx context.Context, user *model.User) error {
	txn := db.DB.NewTxn()
	defer txn.Discard(ctx)

	q := `query User($email: string) {
		docs(func: eq(email, $email)) @filter(eq(kind, "user")) { uid }
	}`
	resp, err := txn.QueryWithVars(ctx, q, map[string]string{"$email": user.Email})
	if err != nil {
		return wrapStoreErr(err, "querying user email")
	}
	if uids, err := decodeUIDs(resp.Json); err != nil {
		return wrapStoreErr(err, "decoding user email query")
	} else if len(uids) > 0 {
		return &model.ConflictError{Message: msgUserExists}
	}

	doc, err := json.Marshal(user)
	if err != nil {
		return wrapStoreErr(err, "encoding user")
	}
	b, err := json.Marshal(&dgraphDoc{
		UID:   "_:user",
		Kind:  kindUser,
		XID:   user.ID,
		Email: user.Email,
		Doc:   string(doc),
		DType: []string{"Document"},
	})
	if err != nil {
		return wrapStoreErr(err, "encoding user node")
	}
	if _, err := txn.Mutate(ctx, &api.Mutation{SetJson: b}); err != nil {
		return wrapStoreErr(err, "storing user")
	}
	return wrapStoreErr(txn.Commit(ctx), "committing user")
}

// GetUserByID retrieves a user's record based off an ID.
func (db *DgraphDB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if _, err := db.getDoc(ctx, kindUser, "xid", id, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user's record based off an email address.
func (db *DgraphDB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if _, err := db.getDoc(ctx, kindUser, "email", email, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers lists all users in the database.
func (db *DgraphDB) ListUsers(ctx context.Context) ([]*model.User, error) {
	docs, err := db.listDocs(ctx, kindUser, "")
	if err != nil {
		return nil, err
	}
	users := make([]*model.User, 0, len(docs))
	for _, doc := range docs {
		var user model.User
		if err := json.Unmarshal([]byte(doc), &user); err != nil {
			return nil, wrapStoreErr(err, "decoding user")
		}
		users = append(users, &user)
	}
	return users, nil
}

// UpdateUser replaces the stored user document. The email claim moves with
// the document, so uniqueness is re-checked against every other user node
// inside the same transaction.
func (db *DgraphDB) UpdateUser(ctx context.Context, user *model.User) (*model.User, error) {
	txn := db.DB.NewTxn()
	defer txn.Discard(ctx)

	q := `query User($email: string, $id: string) {
		docs(func: eq(email, $email)) @filter(eq(kind, "user") AND NOT eq(xid, $id)) { uid }
	}`
	resp, err := txn.QueryWithVars(ctx, q, map[string]string{"$email": user.Email, "$id": user.ID})
	if err != nil {
		return nil, wrapStoreErr(err, "querying user email")
	}
	if uids, err := decodeUIDs(resp.Json); err != nil {
		return nil, wrapStoreErr(err, "decoding user email query")
	} else if len(uids) > 0 {
		return nil, &model.ConflictError{Message: msgUserExists}
	}

	var discard json.RawMessage
	uid, err := db.getDocInTxn(ctx, txn, kindUser, "xid", user.ID, &discard)
	if err != nil {
		return nil, err
	}
	doc, err := json.Marshal(user)
	if err != nil {
		return nil, wrapStoreErr(err, "encoding user")
	}
	b, err := json.Marshal(&dgraphDoc{UID: uid, Doc: string(doc), Email: user.Email})
	if err != nil {
		return nil, wrapStoreErr(err, "encoding user node")
	}
	if _, err := txn.Mutate(ctx, &api.Mutation{SetJson: b}); err != nil {
		return nil, wrapStoreErr(err, "storing user")
	}
	if err := txn.Commit(ctx); err != nil {
		return nil, wrapStoreErr(err, "committing user")
	}
	return user, nil
}

// SetUserType overwrites the role tag on the stored user document.
func (db *DgraphDB) SetUserType(ctx context.Context, id, userType string) (*model.User, error) {
	user, err := db.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.UserType = userType
	return db.UpdateUser(ctx, user)
}

// DeleteUser deletes the user, returning the deleted record.
func (db *DgraphDB) DeleteUser(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := db.deleteDoc(ctx, kindUser, id, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateCard saves a new card document.
func (db *DgraphDB) CreateCard(ctx context.Context, card *model.Card) error {
	doc, err := json.Marshal(card)
	if err != nil {
		return wrapStoreErr(err, "encoding card")
	}
	b, err := json.Marshal(&dgraphDoc{
		UID:   "_:card",
		Kind:  kindCard,
		XID:   card.ID,
		Owner: card.UserID,
		Doc:   string(doc),
		DType: []string{"Document"},
	})
	if err != nil {
		return wrapStoreErr(err, "encoding card node")
	}
	txn := db.DB.NewTxn()
	defer txn.Discard(ctx)
	if _, err := txn.Mutate(ctx, &api.Mutation{SetJson: b, CommitNow: true}); err != nil {
		return wrapStoreErr(err, "storing card")
	}
	return nil
}

// GetCardByID retrieves a card based off an ID.
func (db *DgraphDB) GetCardByID(ctx context.Context, id string) (*model.Card, error) {
	var card model.Card
	if _, err := db.getDoc(ctx, kindCard, "xid", id, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// ListCards lists all cards in the database.
func (db *DgraphDB) ListCards(ctx context.Context) ([]*model.Card, error) {
	return db.decodeCards(db.listDocs(ctx, kindCard, ""))
}

// ListCardsByOwner lists the cards owned by the given user.
func (db *DgraphDB) ListCardsByOwner(ctx context.Context, userID string) ([]*model.Card, error) {
	return db.decodeCards(db.listDocs(ctx, kindCard, userID))
}

func (db *DgraphDB) decodeCards(docs []string, err error) ([]*model.Card, error) {
	if err != nil {
		return nil, err
	}
	cards := make([]*model.Card, 0, len(docs))
	for _, doc := range docs {
		var card model.Card
		if err := json.Unmarshal([]byte(doc), &card); err != nil {
			return nil, wrapStoreErr(err, "decoding card")
		}
		cards = append(cards, &card)
	}
	return cards, nil
}

// UpdateCard replaces the stored card document.
func (db *DgraphDB) UpdateCard(ctx context.Context, card *model.Card) (*model.Card, error) {
	if err := db.replaceDoc(ctx, kindCard, card.ID, card, card.UserID); err != nil {
		return nil, err
	}
	return card, nil
}

// FavoriteCard adds the user to the card's favorite set inside a single
// transaction; Dgraph aborts conflicting writers, preventing lost updates.
func (db *DgraphDB) FavoriteCard(ctx context.Context, cardID, userID string) (*model.Card, error) {
	txn := db.DB.NewTxn()
	defer txn.Discard(ctx)

	var card model.Card
	uid, err := db.getDocInTxn(ctx, txn, kindCard, "xid", cardID, &card)
	if err != nil {
		return nil, err
	}
	if card.FavoritedBy(userID) {
		return &card, nil
	}
	card.FavoriteByUsers = append(card.FavoriteByUsers, userID)

	doc, err := json.Marshal(&card)
	if err != nil {
		return nil, wrapStoreErr(err, "encoding card")
	}
	b, err := json.Marshal(&dgraphDoc{UID: uid, Doc: string(doc)})
	if err != nil {
		return nil, wrapStoreErr(err, "encoding card node")
	}
	if _, err := txn.Mutate(ctx, &api.Mutation{SetJson: b}); err != nil {
		return nil, wrapStoreErr(err, "storing card")
	}
	if err := txn.Commit(ctx); err != nil {
		return nil, wrapStoreErr(err, "committing favorite")
	}
	return &card, nil
}

// DeleteCard deletes the card, returning the deleted record.
func (db *DgraphDB) DeleteCard(ctx context.Context, id string) (*model.Card, error) {
	var card model.Card
	if err := db.deleteDoc(ctx, kindCard, id, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (db *DgraphDB) getDoc(ctx context.Context, kind, field, value string, v interface{}) (string, error) {
	txn := db.DB.NewReadOnlyTxn()
	defer txn.Discard(ctx)
	return db.getDocInTxn(ctx, txn, kind, field, value, v)
}

func (db *DgraphDB) getDocInTxn(ctx context.Context, txn *dgo.Txn, kind, field, value string, v interface{}) (string, error) {
	q := fmt.Sprintf(`query Doc($value: string) {
		docs(func: eq(%s, $value)) @filter(eq(kind, %q)) { uid doc }
	}`, field, kind)
	resp, err := txn.QueryWithVars(ctx, q, map[string]string{"$value": value})
	if err != nil {
		return "", wrapStoreErr(err, "querying document")
	}

	var result struct {
		Docs []dgraphDoc `json:"docs"`
	}
	if err := json.Unmarshal(resp.Json, &result); err != nil {
		return "", wrapStoreErr(err, "decoding query response")
	}
	if len(result.Docs) == 0 {
		return "", notFoundFor(kind)
	}
	if err := json.Unmarshal([]byte(result.Docs[0].Doc), v); err != nil {
		return "", wrapStoreErr(err, "decoding document")
	}
	return result.Docs[0].UID, nil
}

func (db *DgraphDB) listDocs(ctx context.Context, kind, owner string) ([]string, error) {
	txn := db.DB.NewReadOnlyTxn()
	defer txn.Discard(ctx)

	q := `query Docs($kind: string) {
		docs(func: eq(kind, $kind)) { doc }
	}`
	vars := map[string]string{"$kind": kind}
	if owner != "" {
		q = `query Docs($kind: string, $owner: string) {
			docs(func: eq(owner, $owner)) @filter(eq(kind, $kind)) { doc }
		}`
		vars["$owner"] = owner
	}
	resp, err := txn.QueryWithVars(ctx, q, vars)
	if err != nil {
		return nil, wrapStoreErr(err, "listing documents")
	}

	var result struct {
		Docs []dgraphDoc `json:"docs"`
	}
	if err := json.Unmarshal(resp.Json, &result); err != nil {
		return nil, wrapStoreErr(err, "decoding list response")
	}
	docs := make([]string, 0, len(result.Docs))
	for _, d := range result.Docs {
		docs = append(docs, d.Doc)
	}
	return docs, nil
}

func (db *DgraphDB) replaceDoc(ctx context.Context, kind, id string, v interface{}, owner string) error {
	txn := db.DB.NewTxn()
	defer txn.Discard(ctx)

	var discard json.RawMessage
	uid, err := db.getDocInTxn(ctx, txn, kind, "xid", id, &discard)
	if err != nil {
		return err
	}

	doc, err := json.Marshal(v)
	if err != nil {
		return wrapStoreErr(err, "encoding document")
	}
	b, err := json.Marshal(&dgraphDoc{UID: uid, Doc: string(doc), Owner: owner})
	if err != nil {
		return wrapStoreErr(err, "encoding document node")
	}
	if _, err := txn.Mutate(ctx, &api.Mutation{SetJson: b}); err != nil {
		return wrapStoreErr(err, "storing document")
	}
	return wrapStoreErr(txn.Commit(ctx), "committing document")
}

func (db *DgraphDB) deleteDoc(ctx context.Context, kind, id string, v interface{}) error {
	txn := db.DB.NewTxn()
	defer txn.Discard(ctx)

	uid, err := db.getDocInTxn(ctx, txn, kind, "xid", id, v)
	if err != nil {
		return err
	}

	del := []byte(fmt.Sprintf("<%s> * * .", uid))
	if _, err := txn.Mutate(ctx, &api.Mutation{DelNquads: del}); err != nil {
		return wrapStoreErr(err, "deleting document")
	}
	return wrapStoreErr(txn.Commit(ctx), "committing delete")
}

func decodeUIDs(respJSON []byte) ([]string, error) {
	var result struct {
		Docs []dgraphDoc `json:"docs"`
	}
	if err := json.Unmarshal(respJSON, &result); err != nil {
		return nil, err
	}
	uids := make([]string, 0, len(result.Docs))
	for _, d := range result.Docs {
		uids = append(uids, d.UID)
	}
	return uids, nil
}

func notFoundFor(kind string) error {
	if kind == kindUser {
		return &model.NotFoundError{Message: msgUserNotFound}
	}
	return &model.NotFoundError{Message: msgCardNotFound}
}
