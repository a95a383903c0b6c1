package security

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost matches the cost the admin API has always used for
// administrator passwords.
const DefaultBcryptCost = 12

// HashPassword returns a bcrypt hash using the given cost. The salt is
// embedded in the hash, so two hashes of the same password differ.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares a bcrypt hash and a plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
