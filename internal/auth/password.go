package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost matches the cost factor the rest of the account base was
// hashed with; changing it silently would split verification behavior.
const bcryptCost = 11

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
