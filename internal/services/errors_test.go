package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	assert.True(t, errors.Is(ErrContactNotFound, ErrNotFound))
	assert.True(t, errors.Is(ErrLedgerNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrContactNotFound, ErrLedgerNotFound))
	assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", ErrAlreadyUnlocked), ErrConflict))

	funds := &InsufficientFundsError{Required: 20, Available: 15}
	assert.ErrorIs(t, funds, ErrInsufficientFunds)
	assert.Contains(t, funds.Error(), "need 5 more")
	assert.Zero(t, (&InsufficientFundsError{Required: 20, Available: 30}).Shortfall())

	invalid := invalidInput("bad", "email", "phone")
	assert.ErrorIs(t, invalid, ErrInvalidInput)
	assert.Equal(t, "bad: email, phone", invalid.Error())
}
