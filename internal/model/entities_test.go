package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeSetIndexable_RecordsReleaseDateOnce(t *testing.T) {
	first := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	n := &Node{CatalogID: "example"}
	n.SetIndexable(true, first)

	require.NotNil(t, n.ReleaseDate)
	assert.Equal(t, first, *n.ReleaseDate)
	assert.True(t, n.Indexable)

	// Toggling off and on again keeps the original release date.
	n.SetIndexable(false, later)
	assert.False(t, n.Indexable)
	require.NotNil(t, n.ReleaseDate)
	assert.Equal(t, first, *n.ReleaseDate)

	n.SetIndexable(true, later)
	assert.True(t, n.Indexable)
	assert.Equal(t, first, *n.ReleaseDate)
}

func TestNodeSetIndexable_NoReleaseDateWhenDisabled(t *testing.T) {
	n := &Node{CatalogID: "example"}
	n.SetIndexable(false, time.Now())

	assert.False(t, n.Indexable)
	assert.Nil(t, n.ReleaseDate)
}

func TestNodeVerifySSL_DefaultsOff(t *testing.T) {
	// Federated nodes frequently use self-signed certs; the zero value must
	// not enforce verification.
	var n Node
	assert.False(t, n.VerifySSL)
}
