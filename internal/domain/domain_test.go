package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorWrapsKind(t *testing.T) {
	err := fmt.Errorf("register: %w", E(ErrDuplicateEmail, "User with the given email already exists..."))
	assert.True(t, errors.Is(err, ErrDuplicateEmail))
	assert.Equal(t, "User with the given email already exists...", Message(err))
}

func TestMessageForBareSentinel(t *testing.T) {
	assert.Equal(t, ErrNotFound.Error(), Message(fmt.Errorf("x: %w", ErrNotFound)))
	assert.Empty(t, Message(errors.New("boom")))
}

func TestOwnership(t *testing.T) {
	v := &Venue{AuthorID: "u1"}
	assert.True(t, v.OwnedBy(&User{ID: "u1"}))
	assert.False(t, v.OwnedBy(&User{ID: "u2"}))
	assert.True(t, v.OwnedBy(&User{ID: "u2", IsAdmin: true}))
	assert.False(t, v.OwnedBy(nil))
}

func TestCanPublish(t *testing.T) {
	assert.False(t, (&User{}).CanPublish())
	assert.True(t, (&User{IsSubscribed: true}).CanPublish())
	assert.True(t, (&User{IsAdmin: true}).CanPublish())
}
