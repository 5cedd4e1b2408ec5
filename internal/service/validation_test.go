package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/psychodraw/internal/models"
	appErrors "github.com/noah-isme/psychodraw/pkg/errors"
)

const mib = 1024 * 1024

func completeForm() *models.ChildFormData {
	form := &models.ChildFormData{}
	for _, key := range models.FieldKeys() {
		form.Set(key, "value")
	}
	form.DOB = "2018-04-02"
	form.Gender = models.GenderFemale
	return form
}

func TestCheckFileSizeCeiling(t *testing.T) {
	policy := NewValidationPolicy(0)
	for _, name := range []string{"a.png", "a.pdf", "a.exe", "noext"} {
		err := policy.CheckFile(&models.FileRecord{Name: name, ContentType: "image/png", Size: 5*mib + 1})
		require.True(t, errors.Is(err, appErrors.ErrFileTooLarge), name)
	}
	require.NoError(t, policy.CheckFile(&models.FileRecord{Name: "edge.png", Size: 5 * mib}))
}

func TestCheckFileAllowedExtensions(t *testing.T) {
	policy := NewValidationPolicy(0)
	for _, name := range []string{"a.jpg", "b.JPEG", "c.Png", "d.gif", "e.PDF"} {
		require.NoError(t, policy.CheckFile(&models.FileRecord{Name: name, ContentType: "application/octet-stream", Size: 10}), name)
	}
}

func TestCheckFileExtensionIsAuthoritative(t *testing.T) {
	policy := NewValidationPolicy(0)
	for _, name := range []string{"a.bmp", "b.exe", "c.png.txt", "d.webp"} {
		err := policy.CheckFile(&models.FileRecord{Name: name, ContentType: "image/png", Size: 10})
		require.ErrorIs(t, err, appErrors.ErrUnsupportedFormat, name)
		require.Equal(t, "Unsupported file format. Allowed: jpg, jpeg, png, gif, pdf.", appErrors.FromError(err).Message)
	}
}

func TestCheckFileWithoutExtensionUsesContentType(t *testing.T) {
	policy := NewValidationPolicy(0)
	require.NoError(t, policy.CheckFile(&models.FileRecord{Name: "scan", ContentType: "image/JPEG", Size: 10}))
	require.NoError(t, policy.CheckFile(&models.FileRecord{Name: "scan", ContentType: "application/pdf; name=x", Size: 10}))
	require.ErrorIs(t, policy.CheckFile(&models.FileRecord{Name: "scan", ContentType: "", Size: 10}), appErrors.ErrUnsupportedFormat)
	require.ErrorIs(t, policy.CheckFile(&models.FileRecord{Name: "scan", ContentType: "text/plain", Size: 10}), appErrors.ErrUnsupportedFormat)
}

func TestCheckFileCustomCeilingMessage(t *testing.T) {
	policy := NewValidationPolicy(2 * mib)
	err := policy.CheckFile(&models.FileRecord{Name: "a.png", Size: 2*mib + 1})
	require.ErrorIs(t, err, appErrors.ErrFileTooLarge)
	require.Equal(t, "File is too large. Maximum size is 2 MB.", appErrors.FromError(err).Message)
}

func TestIsImage(t *testing.T) {
	policy := NewValidationPolicy(0)
	require.True(t, policy.IsImage(&models.FileRecord{Name: "a.GIF"}))
	require.False(t, policy.IsImage(&models.FileRecord{Name: "a.pdf", ContentType: "image/png"}))
	require.True(t, policy.IsImage(&models.FileRecord{Name: "scan", ContentType: "image/png"}))
	require.False(t, policy.IsImage(&models.FileRecord{Name: "scan", ContentType: "application/pdf"}))
	require.False(t, policy.IsImage(nil))
}

func TestAllSlotsFilled(t *testing.T) {
	policy := NewValidationPolicy(0)
	slots := models.DefaultSlots()
	files := models.SelectedFiles{
		models.SlotHouseTreePerson:   {ID: "1"},
		models.SlotNonexistentAnimal: {ID: "2"},
	}
	require.False(t, policy.AllSlotsFilled(files, slots))
	files[models.SlotSelfPortrait] = &models.FileRecord{ID: "3"}
	require.True(t, policy.AllSlotsFilled(files, slots))
}

func TestFormCompleteness(t *testing.T) {
	policy := NewValidationPolicy(0)
	keys := models.FieldKeys()

	form := completeForm()
	ok, missing := policy.FormCompleteness(form, keys)
	require.True(t, ok)
	require.Empty(t, missing)

	form.Q2_2 = " \t\n "
	ok, missing = policy.FormCompleteness(form, keys)
	require.False(t, ok)
	require.Equal(t, models.FieldQ2_2, missing)

	form.ChildName = ""
	_, missing = policy.FormCompleteness(form, keys)
	require.Equal(t, models.FieldChildName, missing)

	ok, _ = policy.FormCompleteness(form, []models.FieldKey{models.FieldDOB})
	require.True(t, ok)

	ok, missing = policy.FormCompleteness(nil, keys)
	require.False(t, ok)
	require.Equal(t, models.FieldChildName, missing)
}
