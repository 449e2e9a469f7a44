package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashAccessCode hashes the six digit access code before storage. Codes
// are short, so the hash is the only form that ever touches the database.
func HashAccessCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash access code: %w", err)
	}
	return string(hash), nil
}

func CompareAccessCode(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
