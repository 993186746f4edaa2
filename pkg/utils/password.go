package utils

import "golang.org/x/crypto/bcrypt"

// bcryptCost is deliberately above DefaultCost; login latency is the price
// of a slow adaptive hash.
const bcryptCost = 12

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}

// IsBcryptHash reports whether s already looks like a bcrypt digest, so
// update paths never double-hash a stored value.
func IsBcryptHash(s string) bool {
	if len(s) != 60 {
		return false
	}
	return s[0] == '$' && s[1] == '2'
}
