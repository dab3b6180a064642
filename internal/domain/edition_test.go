package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditionStatusTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to EditionStatus
		ok       bool
	}{
		{StatusDraft, StatusPromptSent, true},
		{StatusDraft, StatusEditorialReceived, true},
		{StatusPromptSent, StatusEditorialReceived, true},
		{StatusEditorialReceived, StatusApproved, true},
		{StatusApproved, StatusScheduled, true},
		{StatusScheduled, StatusSent, true},
		{StatusApproved, StatusDraft, true},
		{StatusDraft, StatusSent, false},
		{StatusDraft, StatusScheduled, false},
		{StatusApproved, StatusPromptSent, false},
		{StatusSent, StatusDraft, false},
		{StatusSent, StatusApproved, false},
	}

	for _, tc := range cases {
		got, err := tc.from.Transition(tc.to)
		if tc.ok {
			require.NoError(t, err, "%s -> %s", tc.from, tc.to)
			assert.Equal(t, tc.to, got)
			continue
		}
		require.Error(t, err, "%s -> %s", tc.from, tc.to)
		assert.True(t, errors.Is(err, ErrInvalidTransition))
		assert.Equal(t, tc.from, got)
	}
}

func TestEditionStatusValid(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusScheduled.Valid())
	assert.False(t, EditionStatus("archived").Valid())
	assert.True(t, EditionWeekly.Valid())
	assert.False(t, EditionType("daily").Valid())
}

func TestEditionPatchEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, EditionPatch{}.Empty())
	note := "hi"
	assert.False(t, EditionPatch{EditorNote: &note}.Empty())
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := Invalid("topic", "is required")
	assert.True(t, IsValidation(err))
	assert.Equal(t, "topic: is required", err.Error())
	assert.False(t, IsValidation(ErrNotFound))
}
