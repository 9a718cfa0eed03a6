package mapping

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMappingError(t *testing.T) {
	cause := errors.New("boom")
	err := &MappingError{ClassID: "Order", Property: "Shop.Order.Number", Message: "broken", Cause: cause}
	assert.Equal(t, "mapping: class Order property Shop.Order.Number: broken: boom", err.Error())
	assert.ErrorIs(t, err, ErrMapping)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsMappingError(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsMappingError(cause))
	assert.Equal(t, "mapping: plain", (&MappingError{Message: "plain"}).Error())
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("Order", "", "entity name missing")
	err.Relation = "r1"
	assert.Equal(t, "class Order relation r1: entity name missing", err.Error())
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.ErrorIs(t, err, ErrMapping)
	assert.True(t, IsValidationError(err))
}

func TestAggregateError(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		require.NoError(t, NewAggregateError("class", nil, nil))
		require.NoError(t, NewValidationFailure("class", nil))
		require.NoError(t, NewValidationFailure("class", []*ValidationError{nil}))
	})
	t.Run("Single", func(t *testing.T) {
		err := NewValidationFailure("class", []*ValidationError{NewValidationError("A", "", "bad")})
		require.EqualError(t, err, "mapping: class: class A: bad")
	})
	t.Run("Many", func(t *testing.T) {
		v1 := NewValidationError("A", "", "bad")
		v2 := NewValidationError("B", "B.X", "worse")
		err := NewValidationFailure("property", []*ValidationError{v1, v2})
		require.EqualError(t, err, "mapping: property: 2 errors:\n  [1] class A: bad\n  [2] class B property B.X: worse")
		require.ErrorIs(t, err, ErrValidationFailed)
		require.Equal(t, []*ValidationError{v1, v2}, Violations(err))
		require.Nil(t, Violations(errors.New("other")))
	})
}
