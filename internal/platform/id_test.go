package platform

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_IsUUIDv4(t *testing.T) {
	parsed, err := uuid.Parse(NewID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
}

func TestNewName(t *testing.T) {
	for _, prefix := range []string{"ten_", "inv_", "tkt_", "plan_", "key_"} {
		t.Run(prefix, func(t *testing.T) {
			name := NewName(prefix)
			assert.Regexp(t, "^"+prefix+"[a-z0-9]{10}$", name)
		})
	}
}

func TestNewName_Unique(t *testing.T) {
	seen := map[string]struct{}{}
	for range 500 {
		n := NewName("ten_")
		_, dup := seen[n]
		require.False(t, dup, "duplicate %s", n)
		seen[n] = struct{}{}
	}
}

func TestNewName_UsesWholeAlphabet(t *testing.T) {
	var all strings.Builder
	for range 200 {
		all.WriteString(strings.TrimPrefix(NewName("x_"), "x_"))
	}
	// 2000 draws over 36 symbols; a missing symbol would point at a skewed mapping.
	for _, c := range idAlphabet {
		assert.Contains(t, all.String(), string(c))
	}
}

func TestInvoiceNumber(t *testing.T) {
	issued := time.Date(2026, 2, 28, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "INV-202602-00042", InvoiceNumber(issued, 42))
	assert.Equal(t, "INV-202602-123456", InvoiceNumber(issued, 123456))

	local := time.Date(2026, 3, 1, 0, 30, 0, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, "INV-202602-00001", InvoiceNumber(local, 1))
}
