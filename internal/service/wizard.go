package service

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/psychodraw/internal/dto"
	"github.com/noah-isme/psychodraw/internal/models"
	appErrors "github.com/noah-isme/psychodraw/pkg/errors"
)

type wizardMetrics interface {
	ObserveTransition(from, to models.Step)
	ObserveRejection(code string)
}

type noopWizardMetrics struct{}

func (noopWizardMetrics) ObserveTransition(models.Step, models.Step) {}
func (noopWizardMetrics) ObserveRejection(string)                    {}

// FileUpload is a drawing as received from the client.
type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// Wizard is the three-step controller for one session. It owns the file selection, the
// questionnaire draft and the preview handles. Not safe for concurrent use.
type Wizard struct {
	slots    []models.UploadSlot
	slotSet  map[models.SlotID]struct{}
	policy   *ValidationPolicy
	previews *PreviewManager
	metrics  wizardMetrics
	logger   *zap.Logger
	now      func() time.Time

	step   models.Step
	files  models.SelectedFiles
	draft  *models.ChildFormData
	frozen *models.ChildFormData
	closed bool
}

// NewWizard starts a wizard on the upload step.
func NewWizard(slots []models.UploadSlot, policy *ValidationPolicy, previews *PreviewManager, metrics wizardMetrics, logger *zap.Logger) *Wizard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = noopWizardMetrics{}
	}
	slotSet := make(map[models.SlotID]struct{}, len(slots))
	for _, slot := range slots {
		slotSet[slot.ID] = struct{}{}
	}
	return &Wizard{
		slots:    slots,
		slotSet:  slotSet,
		policy:   policy,
		previews: previews,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
		step:     models.StepUpload,
		files:    models.SelectedFiles{},
	}
}

// Step returns the current step.
func (w *Wizard) Step() models.Step {
	return w.step
}

// Closed reports whether the wizard has been torn down.
func (w *Wizard) Closed() bool {
	return w.closed
}

// SelectFile validates upload and places it in slot, replacing any previous file. A nil
// upload clears the slot. Rejected uploads leave the wizard untouched.
func (w *Wizard) SelectFile(slot models.SlotID, upload *FileUpload) error {
	if err := w.guard(models.StepUpload); err != nil {
		return err
	}
	if _, ok := w.slotSet[slot]; !ok {
		return w.reject(appErrors.ErrUnknownSlot)
	}

	previous := w.files[slot]
	var next *models.FileRecord
	if upload != nil {
		next = &models.FileRecord{
			ID:          uuid.NewString(),
			Name:        upload.Name,
			ContentType: upload.ContentType,
			Size:        upload.Size,
			Data:        upload.Data,
			SelectedAt:  w.now().UTC(),
		}
		if err := w.policy.CheckFile(next); err != nil {
			return w.reject(err)
		}
	}

	files := w.files.Clone()
	if next == nil {
		delete(files, slot)
	} else {
		files[slot] = next
	}
	w.files = files

	result := w.previews.Apply(SlotChange{Slot: slot, Previous: previous, Next: next}, w.files)
	w.logger.Debug("slot updated",
		zap.String("slot", string(slot)),
		zap.Bool("cleared", next == nil),
		zap.Int("previews_allocated", len(result.Allocated)),
		zap.Int("previews_released", len(result.Released)),
	)
	return nil
}

// ClearSlot removes the file from slot.
func (w *Wizard) ClearSlot(slot models.SlotID) error {
	return w.SelectFile(slot, nil)
}

// SetFields applies questionnaire edits to the draft. Unknown keys reject the whole batch.
func (w *Wizard) SetFields(values map[string]string) error {
	if err := w.guard(models.StepQuestionnaire); err != nil {
		return err
	}

	keys := make([]string, 0, len(values))
	for raw := range values {
		keys = append(keys, raw)
	}
	sort.Strings(keys)

	parsed := make([]models.FieldKey, 0, len(keys))
	for _, raw := range keys {
		key, ok := models.ParseFieldKey(raw)
		if !ok {
			return w.reject(appErrors.WithField(appErrors.ErrUnknownField, raw))
		}
		parsed = append(parsed, key)
	}

	for i, key := range parsed {
		w.draft.Set(key, values[keys[i]])
	}
	return nil
}

// SetField applies a single questionnaire edit.
func (w *Wizard) SetField(key models.FieldKey, value string) error {
	return w.SetFields(map[string]string{string(key): value})
}

// Advance moves one step forward. On the questionnaire step form is validated and frozen;
// a nil form validates the current draft instead.
func (w *Wizard) Advance(form *models.ChildFormData) error {
	if err := w.guard(0); err != nil {
		return err
	}

	switch w.step {
	case models.StepUpload:
		if !w.policy.AllSlotsFilled(w.files, w.slots) {
			return w.reject(appErrors.ErrIncompleteUpload)
		}
		if w.draft == nil {
			w.draft = &models.ChildFormData{}
		}
		w.transition(models.StepQuestionnaire)
		return nil

	case models.StepQuestionnaire:
		candidate := form
		if candidate == nil {
			candidate = w.draft
		}
		if ok, missing := w.policy.FormCompleteness(candidate, models.FieldKeys()); !ok {
			return w.reject(appErrors.WithField(appErrors.ErrIncompleteForm, string(missing)))
		}
		frozen := *candidate
		draft := frozen
		w.frozen = &frozen
		w.draft = &draft
		w.transition(models.StepReport)
		return nil

	default:
		return w.reject(appErrors.ErrInvalidTransition)
	}
}

// Retreat moves one step back. Files and answers are preserved; leaving the report turns
// the frozen form back into the editable draft.
func (w *Wizard) Retreat() error {
	if err := w.guard(0); err != nil {
		return err
	}

	switch w.step {
	case models.StepQuestionnaire:
		w.transition(models.StepUpload)
		return nil
	case models.StepReport:
		draft := *w.frozen
		w.draft = &draft
		w.frozen = nil
		w.transition(models.StepQuestionnaire)
		return nil
	default:
		return w.reject(appErrors.ErrInvalidTransition)
	}
}

// FrozenForm returns a copy of the submitted questionnaire. It is only available on the
// report step.
func (w *Wizard) FrozenForm() (models.ChildFormData, error) {
	if err := w.guard(models.StepReport); err != nil {
		return models.ChildFormData{}, err
	}
	return *w.frozen, nil
}

// Close tears the wizard down and releases every preview handle. Subsequent calls are no-ops.
func (w *Wizard) Close() []models.PreviewHandle {
	if w.closed {
		return nil
	}
	w.closed = true
	released := w.previews.ReleaseAll()
	w.files = models.SelectedFiles{}
	w.draft = nil
	w.frozen = nil
	return released
}

// HasPreview reports whether handleID is a live preview of this wizard.
func (w *Wizard) HasPreview(handleID string) bool {
	for _, handle := range w.previews.Handles() {
		if handle.ID == handleID {
			return true
		}
	}
	return false
}

// Snapshot renders the read-only view state.
func (w *Wizard) Snapshot() dto.WizardSnapshot {
	handles := w.previews.Handles()
	snap := dto.WizardSnapshot{
		Step:             int(w.step),
		StepName:         w.step.String(),
		TotalSteps:       models.TotalSteps,
		Progress:         w.step.Progress(),
		Slots:            make([]dto.SlotView, 0, len(w.slots)),
		AllFilesUploaded: w.policy.AllSlotsFilled(w.files, w.slots),
		LivePreviews:     len(handles),
	}

	for _, slot := range w.slots {
		view := dto.SlotView{ID: slot.ID, Label: slot.Label}
		if file := w.files[slot.ID]; file != nil {
			view.File = &dto.FileMeta{
				ID:          file.ID,
				Name:        file.Name,
				ContentType: file.ContentType,
				Size:        file.Size,
				IsImage:     w.policy.IsImage(file),
				SelectedAt:  file.SelectedAt,
			}
			if handle, ok := handles[slot.ID]; ok && handle.FileID == file.ID {
				view.PreviewURL = handle.URL
			}
		}
		snap.Slots = append(snap.Slots, view)
	}

	if w.draft != nil {
		draft := *w.draft
		snap.Draft = &draft
		ok, missing := w.policy.FormCompleteness(&draft, models.FieldKeys())
		snap.IsFormComplete = ok
		snap.FirstMissingField = missing
	}
	if w.frozen != nil {
		frozen := *w.frozen
		snap.Form = &frozen
	}
	return snap
}

// guard rejects events on a closed wizard and, when want is non-zero, events that do not
// belong to the current step.
func (w *Wizard) guard(want models.Step) error {
	if w.closed {
		return appErrors.ErrSessionClosed
	}
	if want != 0 && w.step != want {
		return w.reject(appErrors.ErrInvalidTransition)
	}
	return nil
}

func (w *Wizard) reject(err error) error {
	w.metrics.ObserveRejection(appErrors.FromError(err).Code)
	return err
}

func (w *Wizard) transition(to models.Step) {
	from := w.step
	w.step = to
	w.metrics.ObserveTransition(from, to)
	w.logger.Debug("wizard transition", zap.String("from", from.String()), zap.String("to", to.String()))
}
