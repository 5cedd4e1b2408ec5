package dto

import (
	"time"

	"github.com/noah-isme/psychodraw/internal/models"
)

// FileMeta is the public part of a selected file.
type FileMeta struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	IsImage     bool      `json:"isImage"`
	SelectedAt  time.Time `json:"selectedAt"`
}

// SlotView describes one upload card.
type SlotView struct {
	ID         models.SlotID `json:"id"`
	Label      string        `json:"label"`
	File       *FileMeta     `json:"file,omitempty"`
	PreviewURL string        `json:"previewUrl,omitempty"`
}

// WizardSnapshot is everything the view needs to render the current step.
type WizardSnapshot struct {
	Step              int                   `json:"step"`
	StepName          string                `json:"stepName"`
	TotalSteps        int                   `json:"totalSteps"`
	Progress          float64               `json:"progress"`
	Slots             []SlotView            `json:"slots"`
	Draft             *models.ChildFormData `json:"draft,omitempty"`
	Form              *models.ChildFormData `json:"form,omitempty"`
	AllFilesUploaded  bool                  `json:"allFilesUploaded"`
	IsFormComplete    bool                  `json:"isFormComplete"`
	FirstMissingField models.FieldKey       `json:"firstMissingField,omitempty"`
	LivePreviews      int                   `json:"livePreviews"`
}

// SessionResponse is returned when a wizard session starts.
type SessionResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Wizard    WizardSnapshot `json:"wizard"`
}

// AdvanceRequest optionally carries the full questionnaire on the second step.
type AdvanceRequest struct {
	Form *models.ChildFormData `json:"form"`
}

// QuestionnaireResponse lists the questionnaire fields in display order.
type QuestionnaireResponse struct {
	Fields []models.FieldSpec `json:"fields"`
}
