package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/psychodraw/internal/models"
	appErrors "github.com/noah-isme/psychodraw/pkg/errors"
)

func newTestWizard() (*Wizard, *fakeAllocator) {
	alloc := newFakeAllocator()
	policy := NewValidationPolicy(0)
	previews := NewPreviewManager(alloc, policy.IsImage, nil, nil)
	return NewWizard(models.DefaultSlots(), policy, previews, nil, nil), alloc
}

func pngUpload(name string) *FileUpload {
	return &FileUpload{Name: name, ContentType: "image/png", Size: 3, Data: []byte("png")}
}

func fillAllSlots(t *testing.T, w *Wizard) {
	t.Helper()
	for _, slot := range models.DefaultSlots() {
		require.NoError(t, w.SelectFile(slot.ID, pngUpload(string(slot.ID)+".png")))
	}
}

func TestWizardStartsOnUpload(t *testing.T) {
	w, _ := newTestWizard()
	snap := w.Snapshot()
	require.Equal(t, 1, snap.Step)
	require.Equal(t, "upload", snap.StepName)
	require.Len(t, snap.Slots, 3)
	require.False(t, snap.AllFilesUploaded)
	require.Nil(t, snap.Draft)
	require.Nil(t, snap.Form)
}

func TestAdvanceFromUploadRequiresAllSlots(t *testing.T) {
	w, _ := newTestWizard()
	require.NoError(t, w.SelectFile(models.SlotHouseTreePerson, pngUpload("a.png")))
	require.NoError(t, w.SelectFile(models.SlotSelfPortrait, pngUpload("b.png")))

	err := w.Advance(completeForm())
	require.ErrorIs(t, err, appErrors.ErrIncompleteUpload)
	require.Equal(t, "Please upload all three drawings.", appErrors.FromError(err).Message)
	require.Equal(t, models.StepUpload, w.Step())
	require.Nil(t, w.Snapshot().Draft)

	require.NoError(t, w.SelectFile(models.SlotNonexistentAnimal, &FileUpload{Name: "c.pdf", ContentType: "application/pdf", Size: 3}))
	require.NoError(t, w.Advance(nil))
	snap := w.Snapshot()
	require.Equal(t, models.StepQuestionnaire, w.Step())
	require.NotNil(t, snap.Draft)
	require.Equal(t, models.ChildFormData{}, *snap.Draft)
	require.False(t, snap.IsFormComplete)
	require.Equal(t, models.FieldChildName, snap.FirstMissingField)
}

func TestRejectedSelectionLeavesStateUntouched(t *testing.T) {
	w, alloc := newTestWizard()
	require.NoError(t, w.SelectFile(models.SlotSelfPortrait, pngUpload("a.png")))
	before := w.Snapshot()

	err := w.SelectFile(models.SlotSelfPortrait, &FileUpload{Name: "big.png", Size: 6 * mib})
	require.ErrorIs(t, err, appErrors.ErrFileTooLarge)
	err = w.SelectFile(models.SlotSelfPortrait, &FileUpload{Name: "virus.exe", ContentType: "image/png", Size: 1})
	require.ErrorIs(t, err, appErrors.ErrUnsupportedFormat)
	require.ErrorIs(t, w.SelectFile("kitchen-sink", pngUpload("a.png")), appErrors.ErrUnknownSlot)

	require.Equal(t, before, w.Snapshot())
	require.Equal(t, 1, alloc.allocated)
	require.Zero(t, alloc.totalReleases())
}

func TestSelectFileReplacesAndClearsPreview(t *testing.T) {
	w, alloc := newTestWizard()
	slot := models.SlotHouseTreePerson
	require.NoError(t, w.SelectFile(slot, pngUpload("a.png")))
	first := w.Snapshot().Slots[0]
	require.NotEmpty(t, first.PreviewURL)

	require.NoError(t, w.SelectFile(slot, pngUpload("a.png")))
	second := w.Snapshot().Slots[0]
	require.NotEqual(t, first.File.ID, second.File.ID)
	require.NotEqual(t, first.PreviewURL, second.PreviewURL)
	require.Equal(t, 1, alloc.totalReleases())

	require.NoError(t, w.SelectFile(slot, &FileUpload{Name: "scan.pdf", ContentType: "application/pdf", Size: 1}))
	third := w.Snapshot().Slots[0]
	require.Empty(t, third.PreviewURL)
	require.False(t, third.File.IsImage)
	require.Equal(t, 2, alloc.totalReleases())

	require.NoError(t, w.ClearSlot(slot))
	require.Nil(t, w.Snapshot().Slots[0].File)
	require.NoError(t, w.ClearSlot(slot))
	require.Empty(t, alloc.live)
}

func TestQuestionnaireRequiresCompleteForm(t *testing.T) {
	w, _ := newTestWizard()
	fillAllSlots(t, w)
	require.NoError(t, w.Advance(nil))

	form := completeForm()
	form.Q3_1 = "   "
	err := w.Advance(form)
	require.ErrorIs(t, err, appErrors.ErrIncompleteForm)
	require.Equal(t, "q3_1", appErrors.FromError(err).Field)
	require.Equal(t, models.StepQuestionnaire, w.Step())
	require.Equal(t, models.ChildFormData{}, *w.Snapshot().Draft)

	require.NoError(t, w.Advance(completeForm()))
	snap := w.Snapshot()
	require.Equal(t, models.StepReport, w.Step())
	require.Equal(t, *completeForm(), *snap.Form)

	require.ErrorIs(t, w.Advance(nil), appErrors.ErrInvalidTransition)
	require.Equal(t, models.StepReport, w.Step())
}

func TestAdvanceValidatesDraftWhenNoFormGiven(t *testing.T) {
	w, _ := newTestWizard()
	fillAllSlots(t, w)
	require.NoError(t, w.Advance(nil))

	values := map[string]string{}
	for _, key := range models.FieldKeys() {
		values[string(key)] = "x"
	}
	delete(values, string(models.FieldSpecialistConsultation))
	require.NoError(t, w.SetFields(values))

	err := w.Advance(nil)
	require.Equal(t, "specialistConsultation", appErrors.FromError(err).Field)

	require.NoError(t, w.SetField(models.FieldSpecialistConsultation, "нет"))
	require.True(t, w.Snapshot().IsFormComplete)
	require.NoError(t, w.Advance(nil))
	require.Equal(t, "нет", w.Snapshot().Form.SpecialistConsultation)
}

func TestSetFieldsRejectsUnknownKeys(t *testing.T) {
	w, _ := newTestWizard()
	fillAllSlots(t, w)
	require.NoError(t, w.Advance(nil))

	err := w.SetFields(map[string]string{"childName": "Петя", "q_drawing_house": "x"})
	require.ErrorIs(t, err, appErrors.ErrUnknownField)
	require.Equal(t, "q_drawing_house", appErrors.FromError(err).Field)
	require.Empty(t, w.Snapshot().Draft.ChildName)
}

func TestRetreatPreservesData(t *testing.T) {
	w, alloc := newTestWizard()
	fillAllSlots(t, w)
	urls := map[models.SlotID]string{}
	for _, view := range w.Snapshot().Slots {
		urls[view.ID] = view.PreviewURL
	}

	require.NoError(t, w.Advance(nil))
	require.NoError(t, w.SetField(models.FieldChildName, "Петя"))
	require.NoError(t, w.Retreat())
	require.Equal(t, models.StepUpload, w.Step())
	for _, view := range w.Snapshot().Slots {
		require.Equal(t, urls[view.ID], view.PreviewURL)
	}
	require.Zero(t, alloc.totalReleases())

	require.NoError(t, w.Advance(nil))
	require.Equal(t, "Петя", w.Snapshot().Draft.ChildName)

	submitted := completeForm()
	submitted.ChildName = "Петя"
	require.NoError(t, w.Advance(submitted))
	require.NoError(t, w.Retreat())

	snap := w.Snapshot()
	require.Equal(t, models.StepQuestionnaire, w.Step())
	require.Equal(t, *submitted, *snap.Draft)
	require.Nil(t, snap.Form)
	require.True(t, snap.IsFormComplete)
}

func TestRetreatFromUploadIsInvalid(t *testing.T) {
	w, _ := newTestWizard()
	require.ErrorIs(t, w.Retreat(), appErrors.ErrInvalidTransition)
	require.Equal(t, models.StepUpload, w.Step())
}

func TestFileChangesOnlyOnUploadStep(t *testing.T) {
	w, _ := newTestWizard()
	fillAllSlots(t, w)
	require.NoError(t, w.Advance(nil))
	require.ErrorIs(t, w.ClearSlot(models.SlotSelfPortrait), appErrors.ErrInvalidTransition)
	require.True(t, w.Snapshot().AllFilesUploaded)

	require.NoError(t, w.Retreat())
	require.ErrorIs(t, w.SetField(models.FieldChildName, "x"), appErrors.ErrInvalidTransition)
	_, err := w.FrozenForm()
	require.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}

func TestCloseReleasesOnce(t *testing.T) {
	w, alloc := newTestWizard()
	fillAllSlots(t, w)
	require.NoError(t, w.ClearSlot(models.SlotNonexistentAnimal))

	released := w.Close()
	require.Len(t, released, 2)
	require.Empty(t, alloc.live)
	for _, n := range alloc.releases {
		require.Equal(t, 1, n)
	}
	require.Nil(t, w.Close())
	require.True(t, w.Closed())
	require.ErrorIs(t, w.Advance(nil), appErrors.ErrSessionClosed)
	require.ErrorIs(t, w.SelectFile(models.SlotSelfPortrait, pngUpload("a.png")), appErrors.ErrSessionClosed)
	require.Zero(t, w.Snapshot().LivePreviews)
}
