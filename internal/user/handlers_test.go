package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizcard/bizcard/internal/auth"
	"github.com/bizcard/bizcard/internal/config"
	"github.com/bizcard/bizcard/internal/database"
	"github.com/bizcard/bizcard/internal/mock"
	"github.com/bizcard/bizcard/internal/model"
	"github.com/bizcard/bizcard/internal/validate"
	"github.com/bizcard/bizcard/util/passwordutil"
)

var testAuthConfig = &config.AuthConfig{
	Secret:     "test-secret",
	BcryptCost: 4, // min cost, to keep tests fast
}

func setup(t *testing.T) (*mux.Router, *database.BadgerDB) {
	t.Helper()
	db, err := database.NewBadgerDB(true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := mux.NewRouter()
	SetupRoutes(r, db, validate.New(), testAuthConfig)
	return r, db
}

// seedUser stores a user with a hashed password and returns it along with
// a session token.
func seedUser(t *testing.T, db *database.BadgerDB, user *model.User) (*model.User, string) {
	t.Helper()
	user.ID = uuid.Must(uuid.NewV4()).String()
	plaintext := user.Password
	hash, err := passwordutil.Hash(plaintext, testAuthConfig.BcryptCost)
	require.NoError(t, err)
	user.Password = hash
	require.NoError(t, db.CreateUser(context.Background(), user))

	token, err := auth.IssueToken(user, testAuthConfig.Secret, 0)
	require.NoError(t, err)

	user.Password = plaintext
	return user, token
}

func doJSON(t *testing.T, r *mux.Router, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestSignup(t *testing.T) {
	r, db := setup(t)

	payload := mock.NewUser()
	resp := doJSON(t, r, http.MethodPost, "/api/users", "", payload)
	require.Equal(t, http.StatusCreated, resp.Result().StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Token)

	// Token decodes to claims matching the stored record
	claims, err := auth.VerifyToken(body.Token, testAuthConfig.Secret)
	require.NoError(t, err)
	assert.Equal(t, payload.Email, claims.Email)
	assert.Equal(t, payload.Name, claims.Name)

	stored, err := db.GetUserByEmail(context.Background(), payload.Email)
	require.NoError(t, err)
	assert.Equal(t, claims.ID, stored.ID)

	// Password is stored hashed, never in plaintext
	assert.NotEqual(t, payload.Password, stored.Password)
	assert.True(t, passwordutil.Check(payload.Password, stored.Password))
}

func TestSignupInvalidPayload(t *testing.T) {
	r, db := setup(t)

	payload := mock.NewUser()
	payload.Password = "short1!"

	resp := doJSON(t, r, http.MethodPost, "/api/users", "", payload)
	require.Equal(t, http.StatusBadRequest, resp.Result().StatusCode)

	var body struct {
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Details, "password")

	// Nothing was persisted
	users, err := db.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestSignupDuplicateEmail(t *testing.T) {
	r, db := setup(t)

	payload := mock.NewUser()
	resp := doJSON(t, r, http.MethodPost, "/api/users", "", payload)
	require.Equal(t, http.StatusCreated, resp.Result().StatusCode)

	resp = doJSON(t, r, http.MethodPost, "/api/users", "", payload)
	require.Equal(t, http.StatusBadRequest, resp.Result().StatusCode)

	users, err := db.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestLogin(t *testing.T) {
	r, db := setup(t)
	user, _ := seedUser(t, db, mock.NewUser())

	tt := []struct {
		name       string
		email      string
		password   string
		wantStatus int
	}{
		{
			name:       "Correct credentials",
			email:      user.Email,
			password:   mock.Password,
			wantStatus: http.StatusOK,
		},
		{
			name:       "Wrong password",
			email:      user.Email,
			password:   "Wrong1!Pass",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Unknown email",
			email:      "nobody@example.com",
			password:   mock.Password,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, test := range tt {
		t.Run(test.name, func(t *testing.T) {
			resp := doJSON(t, r, http.MethodPost, "/api/users/login", "", validate.LoginRequest{
				Email:    test.email,
				Password: test.password,
			})
			require.Equal(t, test.wantStatus, resp.Result().StatusCode)

			if test.wantStatus == http.StatusOK {
				var body struct {
					Token string `json:"token"`
				}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

				claims, err := auth.VerifyToken(body.Token, testAuthConfig.Secret)
				require.NoError(t, err)
				assert.Equal(t, user.ID, claims.ID)
				assert.Equal(t, user.UserType, claims.UserType)
			}
		})
	}
}

func TestListUsersNeverIncludesPassword(t *testing.T) {
	r, db := setup(t)
	seedUser(t, db, mock.NewUser())
	seedUser(t, db, mock.NewUser())

	resp := doJSON(t, r, http.MethodGet, "/api/users", "", nil)
	require.Equal(t, http.StatusOK, resp.Result().StatusCode)

	var users []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	require.Len(t, users, 2)
	for _, u := range users {
		assert.NotContains(t, u, "password")
	}
}

func TestGetUser(t *testing.T) {
	r, db := setup(t)
	user, userToken := seedUser(t, db, mock.NewUser())
	_, adminToken := seedUser(t, db, mock.NewAdmin())
	_, otherToken := seedUser(t, db, mock.NewUser())

	tt := []struct {
		name       string
		id         string
		token      string
		wantStatus int
	}{
		{
			name:       "No token",
			id:         user.ID,
			token:      "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Own record",
			id:         user.ID,
			token:      userToken,
			wantStatus: http.StatusOK,
		},
		{
			name:       "Admin reads any record",
			id:         user.ID,
			token:      adminToken,
			wantStatus: http.StatusOK,
		},
		{
			name:       "Stranger denied",
			id:         user.ID,
			token:      otherToken,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Admin, unknown id",
			id:         "nope",
			token:      adminToken,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, test := range tt {
		t.Run(test.name, func(t *testing.T) {
			resp := doJSON(t, r, http.MethodGet, "/api/users/"+test.id, test.token, nil)
			require.Equal(t, test.wantStatus, resp.Result().StatusCode)

			if test.wantStatus == http.StatusOK {
				var got map[string]interface{}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
				assert.Equal(t, user.Email, got["email"])
				assert.NotContains(t, got, "password")
			}
		})
	}
}

func TestUpdateUser(t *testing.T) {
	r, db := setup(t)
	user, token := seedUser(t, db, mock.NewUser())

	payload := mock.NewUser()
	payload.Email = user.Email
	payload.Name.First = "Renamed"

	resp := doJSON(t, r, http.MethodPut, "/api/users/"+user.ID, token, payload)
	require.Equal(t, http.StatusOK, resp.Result().StatusCode)

	stored, err := db.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Name.First)
	// Password was re-hashed, not stored raw
	assert.NotEqual(t, mock.Password, stored.Password)
}

func TestUpdateUserInvalidPayload(t *testing.T) {
	r, db := setup(t)
	user, token := seedUser(t, db, mock.NewUser())

	payload := mock.NewUser()
	payload.Phone = "123"

	resp := doJSON(t, r, http.MethodPut, "/api/users/"+user.ID, token, payload)
	require.Equal(t, http.StatusBadRequest, resp.Result().StatusCode)

	stored, err := db.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Phone, stored.Phone)
}

func TestSetUserType(t *testing.T) {
	r, db := setup(t)
	user, userToken := seedUser(t, db, mock.NewUser())
	_, adminToken := seedUser(t, db, mock.NewAdmin())

	body := map[string]string{"userType": model.UserTypeBusiness}

	// Non-admins cannot change roles, their own included
	resp := doJSON(t, r, http.MethodPatch, "/api/users/"+user.ID, userToken, body)
	require.Equal(t, http.StatusUnauthorized, resp.Result().StatusCode)

	stored, err := db.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UserTypeRegular, stored.UserType)

	// Admins can
	resp = doJSON(t, r, http.MethodPatch, "/api/users/"+user.ID, adminToken, body)
	require.Equal(t, http.StatusOK, resp.Result().StatusCode)

	stored, err = db.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UserTypeBusiness, stored.UserType)
}

func TestDeleteUser(t *testing.T) {
	r, db := setup(t)
	user, token := seedUser(t, db, mock.NewUser())
	_, adminToken := seedUser(t, db, mock.NewAdmin())

	resp := doJSON(t, r, http.MethodDelete, "/api/users/"+user.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.Result().StatusCode)

	var deleted map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&deleted))
	assert.Equal(t, user.Email, deleted["email"])

	_, err := db.GetUserByID(context.Background(), user.ID)
	var notFound *model.NotFoundError
	require.ErrorAs(t, err, &notFound)

	// Deleting a nonexistent id reports 404
	resp = doJSON(t, r, http.MethodDelete, "/api/users/"+user.ID, adminToken, nil)
	require.Equal(t, http.StatusNotFound, resp.Result().StatusCode)
}
