package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt hash of a raw password
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
