// internal/pkg/token/token_test.go
package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentReferenceShape(t *testing.T) {
	ref, err := PaymentReference()
	require.NoError(t, err)

	// 50 bytes -> 67 base64url characters, no padding
	assert.Len(t, ref, 67)
	assert.NotContains(t, ref, "=")
	assert.NotContains(t, ref, "+")
	assert.NotContains(t, ref, "/")
}

func TestPaymentReferenceIsRandom(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ref, err := PaymentReference()
		require.NoError(t, err)
		require.False(t, seen[ref], "duplicate reference drawn")
		seen[ref] = true
	}
}

func TestOrderNumberShape(t *testing.T) {
	num := OrderNumber()

	assert.True(t, strings.HasPrefix(num, "ORD-"))
	assert.Len(t, num, len("ORD-")+10)

	body := strings.TrimPrefix(num, "ORD-")
	for _, r := range body {
		assert.Contains(t, "0123456789ABCDEF", string(r))
	}
}

func TestSessionTokenIsUUID(t *testing.T) {
	tok := SessionToken()
	assert.Len(t, tok, 36)
	assert.Equal(t, 4, strings.Count(tok, "-"))
}
