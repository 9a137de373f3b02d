// internal/pkg/token/token.go
package token

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	// referenceBytes is the entropy behind a payment reference. 50 random
	// bytes encode to a 67-character URL-safe token.
	referenceBytes = 50

	orderNumberPrefix    = "ORD-"
	orderNumberHexLength = 10
)

// PaymentReference draws a cryptographically random URL-safe token used to
// correlate an order with a provider-side transaction. Uniqueness is
// enforced by the caller against storage; this only supplies the entropy.
func PaymentReference() (string, error) {
	b := make([]byte, referenceBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to draw payment reference: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// OrderNumber draws a short human-readable order code: a fixed prefix plus
// ten uppercase hex characters from a random UUID. Collisions are possible
// at this length, so callers must check storage and redraw.
func OrderNumber() string {
	u := uuid.New()
	return orderNumberPrefix + strings.ToUpper(hex.EncodeToString(u[:orderNumberHexLength/2]))
}

// SessionToken issues an opaque identifier for an anonymous cart session.
func SessionToken() string {
	return uuid.NewString()
}
