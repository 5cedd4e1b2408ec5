package service

import (
	"go.uber.org/zap"

	"github.com/noah-isme/psychodraw/internal/models"
)

// WizardDeps are the shared collaborators every session's wizard is built from.
type WizardDeps struct {
	Slots       []models.UploadSlot
	Policy      *ValidationPolicy
	Blobs       previewBlobStore
	Signer      previewSigner
	Renderer    previewRenderer
	PreviewPath string
	Metrics     *MetricsService
	Logger      *zap.Logger
}

// NewWizardFactory returns a factory wiring a per-session preview allocator and manager.
func NewWizardFactory(deps WizardDeps) WizardFactory {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if len(deps.Slots) == 0 {
		deps.Slots = models.DefaultSlots()
	}
	if deps.Policy == nil {
		deps.Policy = NewValidationPolicy(0)
	}
	return func(sessionID string) *Wizard {
		logger := deps.Logger.With(zap.String("session_id", sessionID))
		alloc := NewBlobPreviewAllocator(deps.Blobs, deps.Signer, deps.Renderer, sessionID, deps.PreviewPath, logger)
		previews := NewPreviewManager(alloc, deps.Policy.IsImage, deps.Metrics, logger)
		return NewWizard(deps.Slots, deps.Policy, previews, deps.Metrics, logger)
	}
}
