package auth

import "golang.org/x/crypto/bcrypt"

// Gate guards session claims behind an optional shared password.
// An empty hash disables the gate entirely.
type Gate struct {
	passwordHash string
}

// NewGate wraps a bcrypt hash of the shared builder password, or the
// empty string when no gate is configured.
func NewGate(passwordHash string) *Gate {
	return &Gate{passwordHash: passwordHash}
}

// Enabled reports whether a gate password is configured.
func (g *Gate) Enabled() bool {
	return g.passwordHash != ""
}

// Check verifies the supplied password against the configured hash.
// Always true when the gate is disabled.
func (g *Gate) Check(password string) bool {
	if !g.Enabled() {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(g.passwordHash), []byte(password)) == nil
}

// HashPassword produces a bcrypt hash suitable for the gate config.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
