package service

import "golang.org/x/crypto/bcrypt"

// DummyHash is a fixed, precomputed bcrypt hash. Sign-in verifies the
// submitted password against it when the email is unknown, so the
// unknown-email and wrong-password paths cost the same.
const DummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoO5XmkVUL8D67qVqXN0G8Z5T9jp/KaF2m"

// PasswordHasher wraps bcrypt for both passwords and refresh-token
// secrets. The same primitive backs both so refresh tokens are
// verified by rehash, never by equality.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. A malformed hash
// simply does not match.
func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// NeedsRehash reports whether the stored hash was produced with a cost
// below current policy. Malformed hashes need a rehash.
func (h *PasswordHasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost < h.cost
}
