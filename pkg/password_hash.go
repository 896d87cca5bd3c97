package pkg

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt hash of an account password,
// the only form in which passwords are ever stored
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return BytesToString(bytes), err
}

// CheckPasswordHash reports whether password matches the stored hash
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
