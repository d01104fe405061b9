package security

import "golang.org/x/crypto/bcrypt"

// Cost 10 puts one hash around the 100ms mark on commodity hardware, which
// is the point of using bcrypt for account passwords.
const hashCost = bcrypt.DefaultCost

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), hashCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// helper that compares a bcrypt hash with a plaintext password.
// the comparison is constant-time on the digest.

func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
