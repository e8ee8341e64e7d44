package passwordutil

import "golang.org/x/crypto/bcrypt"

// Hash generates a bcrypt hash from a plaintext password. A cost of 0
// selects bcrypt's default (10 rounds).
func Hash(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// Check compares a bcrypt hash against a candidate password.
func Check(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
