package card

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/gorilla/mux"

	"github.com/bizcard/bizcard/internal/auth"
	"github.com/bizcard/bizcard/internal/config"
	"github.com/bizcard/bizcard/internal/database"
	"github.com/bizcard/bizcard/internal/httputil"
	"github.com/bizcard/bizcard/internal/model"
	"github.com/bizcard/bizcard/internal/validate"
)

// SetupRoutes configures card API endpoints.
func SetupRoutes(r *mux.Router, db database.CardDB, schemas *validate.Schemas, authCfg *config.AuthConfig) {
	h := handler{db: db, schemas: schemas, auth: authCfg}
	m := auth.NewMiddleware(authCfg.Secret)

	s := r.PathPrefix("/api/cards").Subrouter()

	p := s.NewRoute().Subrouter()
	p.Use(m.Authenticated)
	p.HandleFunc("/my-cards", h.handleMyCards).Methods(http.MethodGet)
	p.HandleFunc("/{id}", h.handleUpdate).Methods(http.MethodPut)
	p.HandleFunc("/{id}", h.handleFavorite).Methods(http.MethodPatch)
	p.HandleFunc("/{id}", h.handleDelete).Methods(http.MethodDelete)

	s.HandleFunc("", h.handleList).Methods(http.MethodGet)
	s.HandleFunc("/{id}", h.handleGet).Methods(http.MethodGet)
	s.HandleFunc("", h.handleCreate).Methods(http.MethodPost)
}

type handler struct {
	db      database.CardDB
	schemas *validate.Schemas
	auth    *config.AuthConfig
}

func (h handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), database.DefaultTimeout)
	defer cancel()

	cards, err := h.db.ListCards(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.SanitizeCards(cards))
}

func (h handler) handleMyCards(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unknown session", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.DefaultTimeout)
	defer cancel()

	cards, err := h.db.ListCardsByOwner(ctx, claims.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.SanitizeCards(cards))
}

func (h handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), database.DefaultTimeout)
	defer cancel()

	card, err := h.db.GetCardByID(ctx, mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, card.Sanitized())
}

func (h handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var card model.Card
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		http.Error(w, "Error processing body", http.StatusBadRequest)
		return
	}

	if err := h.schemas.Card(&card); err != nil {
		httputil.WriteError(w, err)
		return
	}

	card.ID = uuid.Must(uuid.NewV4()).String()
	if card.FavoriteByUsers == nil {
		card.FavoriteByUsers = []string{}
	}

	// Creation does not require authentication, but a valid token takes
	// precedence over any owner id supplied in the body.
	if raw, err := auth.TokenFromRequest(r); err == nil {
		if claims, err := auth.VerifyToken(raw, h.auth.Secret); err == nil {
			card.UserID = claims.ID
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.DefaultTimeout)
	defer cancel()

	if err := h.db.CreateCard(ctx, &card); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &card)
}

func (h handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var card model.Card
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		http.Error(w, "Error processing body", http.StatusBadRequest)
		return
	}

	if err := h.schemas.Card(&card); err != nil {
		httputil.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.DefaultTimeout)
	defer cancel()

	existing, err := h.authorizeOwnerOrAdmin(ctx, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	card.ID = existing.ID
	if card.UserID == "" {
		card.UserID = existing.UserID
	}
	if card.FavoriteByUsers == nil {
		card.FavoriteByUsers = existing.FavoriteByUsers
	}

	updated, err := h.db.UpdateCard(ctx, &card)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h handler) handleFavorite(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unknown session", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), database.DefaultTimeout)
	defer cancel()

	card, err := h.db.FavoriteCard(ctx, mux.Vars(r)["id"], claims.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, card)
}

func (h handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), database.DefaultTimeout)
	defer cancel()

	existing, err := h.authorizeOwnerOrAdmin(ctx, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	card, err := h.db.DeleteCard(ctx, existing.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, card)
}

// authorizeOwnerOrAdmin fetches the card and permits its owner and admins.
func (h handler) authorizeOwnerOrAdmin(ctx context.Context, r *http.Request) (*model.Card, error) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return nil, &model.AuthError{Reason: model.AuthReasonMissing}
	}

	card, err := h.db.GetCardByID(ctx, mux.Vars(r)["id"])
	if err != nil {
		return nil, err
	}

	if card.UserID != claims.ID && !claims.IsAdmin() {
		return nil, &model.AuthError{
			Reason:  model.AuthReasonInvalid,
			Message: "User must be the card owner or an admin!",
		}
	}
	return card, nil
}
