package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifierConstructors_RejectBlank(t *testing.T) {
	_, err := NewCartID("")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
	_, err = NewCustomerID("   ")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
	_, err = NewProductID("")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
	_, err = NewSKU("\t")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
	_, err = NewOrderID("")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
	_, err = NewPaymentID(" ")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestIdentifiers_ValueEquality(t *testing.T) {
	a, err := NewOrderID("o-1")
	require.NoError(t, err)
	b, err := NewOrderID("o-1")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "o-1", a.String())
}
