//go:build live

package dtek

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real provider site and need CITY, STREET and HOUSE.
// Run with: go test -tags=live ./internal/adapter/dtek/ -v -count=1

func TestSmoke_Fetch(t *testing.T) {
	city, street, house := os.Getenv("CITY"), os.Getenv("STREET"), os.Getenv("HOUSE")
	if city == "" || street == "" || house == "" {
		t.Fatal("CITY, STREET and HOUSE must be set to run smoke tests")
	}
	base := os.Getenv("PROVIDER_BASE_URL")
	if base == "" {
		base = "https://www.dtek-krem.com.ua"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	doc, err := NewClient(base, city, street, 60*time.Second, discardLogger()).Fetch(ctx)
	require.NoError(t, err)

	st, ok := doc.Address(house)
	require.True(t, ok, "house %s missing from the provider response", house)
	assert.NotEmpty(t, st.QueueGroup())
	assert.True(t, doc.HasSchedule())
}
