package models

import (
	"path/filepath"
	"strings"
	"time"
)

// SlotID identifies one of the fixed drawing categories.
type SlotID string

const (
	SlotHouseTreePerson  SlotID = "house-tree-person"
	SlotNonexistentAnimal SlotID = "nonexistent-animal"
	SlotSelfPortrait     SlotID = "self-portrait"
)

// UploadSlot is an immutable upload category shown on the first step.
type UploadSlot struct {
	ID    SlotID `json:"id"`
	Label string `json:"label"`
}

// DefaultSlots returns the three drawing categories in display order.
func DefaultSlots() []UploadSlot {
	return []UploadSlot{
		{ID: SlotHouseTreePerson, Label: "Дом, дерево, человек"},
		{ID: SlotNonexistentAnimal, Label: "Несуществующее животное"},
		{ID: SlotSelfPortrait, Label: "Автопортрет"},
	}
}

// FileRecord is one selected drawing. ID is minted per selection, so selecting the same bytes
// twice yields two distinct instances.
type FileRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Data        []byte    `json:"-"`
	SelectedAt  time.Time `json:"selectedAt"`
}

// Ext returns the lower-cased extension without the leading dot, or "" when the name has none.
func (f *FileRecord) Ext() string {
	if f == nil {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
}

// SelectedFiles maps a slot to its current file; absent keys are empty slots.
type SelectedFiles map[SlotID]*FileRecord

// Clone returns a shallow copy. Records are immutable once selected so sharing them is safe.
func (s SelectedFiles) Clone() SelectedFiles {
	out := make(SelectedFiles, len(s))
	for slot, file := range s {
		if file != nil {
			out[slot] = file
		}
	}
	return out
}

// PreviewHandle is a revocable URL serving a file's bytes for display. FileID pins the
// file instance the handle was derived from.
type PreviewHandle struct {
	ID          string    `json:"id"`
	Slot        SlotID    `json:"slot"`
	FileID      string    `json:"fileId"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Step is a wizard position.
type Step int

const (
	StepUpload        Step = 1
	StepQuestionnaire Step = 2
	StepReport        Step = 3
)

// TotalSteps is the number of wizard steps.
const TotalSteps = 3

func (s Step) String() string {
	switch s {
	case StepUpload:
		return "upload"
	case StepQuestionnaire:
		return "questionnaire"
	case StepReport:
		return "report"
	default:
		return "unknown"
	}
}

// Progress is the completion percentage used by the progress bar.
func (s Step) Progress() float64 {
	return float64(s) / float64(TotalSteps) * 100
}
