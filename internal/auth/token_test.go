package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizcard/bizcard/internal/mock"
	"github.com/bizcard/bizcard/internal/model"
)

const testSecret = "test-secret"

func TestIssueAndVerifyToken(t *testing.T) {
	user := mock.NewUser()
	user.ID = "user-1"

	raw, err := IssueToken(user, testSecret, 0)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := VerifyToken(raw, testSecret)
	require.NoError(t, err)

	assert.Equal(t, user.ID, claims.ID)
	assert.Equal(t, user.Name, claims.Name)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Phone, claims.Phone)
	assert.Equal(t, user.Address, claims.Address)
	assert.Equal(t, user.UserType, claims.UserType)
}

func TestVerifyTokenFailures(t *testing.T) {
	user := mock.NewUser()
	user.ID = "user-1"

	raw, err := IssueToken(user, testSecret, 0)
	require.NoError(t, err)

	tt := []struct {
		name       string
		token      string
		secret     string
		wantReason string
	}{
		{
			name:       "Missing",
			token:      "",
			secret:     testSecret,
			wantReason: model.AuthReasonMissing,
		},
		{
			name:       "Malformed",
			token:      "not.a.token",
			secret:     testSecret,
			wantReason: model.AuthReasonInvalid,
		},
		{
			name:       "Wrong secret",
			token:      raw,
			secret:     "other-secret",
			wantReason: model.AuthReasonInvalid,
		},
	}

	for _, test := range tt {
		t.Run(test.name, func(t *testing.T) {
			_, err := VerifyToken(test.token, test.secret)

			var authErr *model.AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, test.wantReason, authErr.Reason)
		})
	}
}

func TestTokenExpiry(t *testing.T) {
	user := mock.NewUser()
	user.ID = "user-1"

	t.Run("Default never expires", func(t *testing.T) {
		raw, err := IssueToken(user, testSecret, 0)
		require.NoError(t, err)

		_, err = VerifyToken(raw, testSecret)
		require.NoError(t, err)
	})

	t.Run("Configured expiry enforced", func(t *testing.T) {
		raw, err := IssueToken(user, testSecret, time.Millisecond)
		require.NoError(t, err)

		<-time.After(50 * time.Millisecond)

		_, err = VerifyToken(raw, testSecret)
		var authErr *model.AuthError
		require.ErrorAs(t, err, &authErr)
	})
}
