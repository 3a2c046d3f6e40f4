package auth

import "golang.org/x/crypto/bcrypt"

// MinPasswordLen is enforced before hashing.
const MinPasswordLen = 8

func HashPassword(p string) (string, error) {
    b, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
    return string(b), err
}

func VerifyPassword(plain, hash string) error {
    return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
