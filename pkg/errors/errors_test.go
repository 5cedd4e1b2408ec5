package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloneKeepsIdentity(t *testing.T) {
	clone := Clone(ErrIncompleteForm, "")
	require.True(t, errors.Is(clone, ErrIncompleteForm))
	require.False(t, errors.Is(clone, ErrIncompleteUpload))

	withField := WithField(ErrIncompleteForm, "dob")
	require.Equal(t, "dob", withField.Field)
	require.Empty(t, ErrIncompleteForm.Field)
	require.True(t, errors.Is(withField, ErrIncompleteForm))
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	require.Equal(t, http.StatusInternalServerError, appErr.Status)
	require.Equal(t, ErrInternal.Code, appErr.Code)

	wrapped := fmt.Errorf("select: %w", ErrFileTooLarge)
	require.Equal(t, ErrFileTooLarge, FromError(wrapped))
	require.Nil(t, FromError(nil))
}
