package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermanent(t *testing.T) {
	base := errors.New("corrupt file")
	err := Permanent(base)

	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "corrupt file", err.Error())

	// Survives wrapping.
	wrapped := fmt.Errorf("extract: %w", err)
	assert.True(t, IsPermanent(wrapped))

	assert.False(t, IsPermanent(base))
	assert.Nil(t, Permanent(nil))
}
