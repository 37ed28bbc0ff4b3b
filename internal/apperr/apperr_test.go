package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	notFound := NotFound("task %s not found", "t1")

	assert.Equal(t, KindValidation, KindOf(Validation("bad")))
	assert.Equal(t, KindNotFound, KindOf(notFound))
	assert.Equal(t, KindStateConflict, KindOf(Conflict("busy")))
	assert.Equal(t, KindIntegrity, KindOf(Integrity("in use")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("lookup: %w", notFound)))
	assert.Equal(t, KindInternal, KindOf(errors.New("disk full")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestMessage(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Validation("text is required"))
	assert.Equal(t, "text is required", Message(err))
	assert.Equal(t, "wrapped: text is required", err.Error())
	assert.Equal(t, "internal server error", Message(errors.New("sqlite: locked")))
}

func TestSentinelsMatchWithErrorsIs(t *testing.T) {
	sentinel := Conflict("timer is not running")
	assert.ErrorIs(t, fmt.Errorf("pause: %w", sentinel), sentinel)
	assert.NotErrorIs(t, Conflict("timer is not running"), sentinel)
}
