package service

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/psychodraw/internal/models"
)

// PreviewAllocator creates and revokes the resource behind a preview handle.
type PreviewAllocator interface {
	Allocate(slot models.SlotID, file *models.FileRecord) (models.PreviewHandle, error)
	Release(handle models.PreviewHandle) error
}

type previewMetrics interface {
	PreviewAllocated()
	PreviewReleased()
}

type noopPreviewMetrics struct{}

func (noopPreviewMetrics) PreviewAllocated() {}
func (noopPreviewMetrics) PreviewReleased()  {}

// SlotChange is the explicit intent behind a file-map mutation: the file that left the slot
// and the file that replaced it. Either side may be nil.
type SlotChange struct {
	Slot     models.SlotID
	Previous *models.FileRecord
	Next     *models.FileRecord
}

// ReconcileResult is the handle table after a reconciliation plus the side effects it caused.
type ReconcileResult struct {
	Handles   map[models.SlotID]models.PreviewHandle
	Allocated []models.PreviewHandle
	Released  []models.PreviewHandle
}

type reconcilePlan struct {
	release  []models.PreviewHandle
	allocate []models.SlotID
}

func (p reconcilePlan) empty() bool {
	return len(p.release) == 0 && len(p.allocate) == 0
}

// planReconcile computes which handles are stale and which slots need a new handle. A handle
// is stale when its slot is empty, holds a different file instance, or holds a non-image.
func planReconcile(prev map[models.SlotID]models.PreviewHandle, files models.SelectedFiles, isImage func(*models.FileRecord) bool) reconcilePlan {
	var plan reconcilePlan

	for _, slot := range sortedSlots(prev) {
		handle := prev[slot]
		file := files[slot]
		if file == nil || file.ID != handle.FileID || !isImage(file) {
			plan.release = append(plan.release, handle)
		}
	}

	for _, slot := range sortedSlots(files) {
		file := files[slot]
		if file == nil || !isImage(file) {
			continue
		}
		if handle, ok := prev[slot]; ok && handle.FileID == file.ID {
			continue
		}
		plan.allocate = append(plan.allocate, slot)
	}

	return plan
}

// PreviewManager owns the preview handles of one wizard. It is not safe for concurrent use;
// the owning session serialises access.
type PreviewManager struct {
	alloc    PreviewAllocator
	isImage  func(*models.FileRecord) bool
	metrics  previewMetrics
	logger   *zap.Logger
	handles  map[models.SlotID]models.PreviewHandle
	released map[string]struct{}
}

// NewPreviewManager builds an empty manager.
func NewPreviewManager(alloc PreviewAllocator, isImage func(*models.FileRecord) bool, metrics previewMetrics, logger *zap.Logger) *PreviewManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = noopPreviewMetrics{}
	}
	return &PreviewManager{
		alloc:    alloc,
		isImage:  isImage,
		metrics:  metrics,
		logger:   logger,
		handles:  make(map[models.SlotID]models.PreviewHandle),
		released: make(map[string]struct{}),
	}
}

// Reconcile brings the handle table in line with files. Unchanged file instances keep their
// handle, so calling it again with the same snapshot has no side effects.
func (m *PreviewManager) Reconcile(files models.SelectedFiles) ReconcileResult {
	plan := planReconcile(m.handles, files, m.isImage)
	if plan.empty() {
		return ReconcileResult{Handles: m.Handles()}
	}

	result := ReconcileResult{}
	for _, handle := range plan.release {
		m.release(handle)
		delete(m.handles, handle.Slot)
		result.Released = append(result.Released, handle)
	}

	for _, slot := range plan.allocate {
		file := files[slot]
		handle, err := m.alloc.Allocate(slot, file)
		if err != nil {
			m.logger.Warn("preview allocation failed",
				zap.String("slot", string(slot)),
				zap.String("file_id", file.ID),
				zap.Error(err),
			)
			continue
		}
		handle.Slot = slot
		handle.FileID = file.ID
		m.handles[slot] = handle
		m.metrics.PreviewAllocated()
		result.Allocated = append(result.Allocated, handle)
	}

	result.Handles = m.Handles()
	return result
}

// Apply handles a single slot mutation. The slot's handle is released as soon as the change
// shows its file instance left, then the whole table is reconciled against files.
func (m *PreviewManager) Apply(change SlotChange, files models.SelectedFiles) ReconcileResult {
	var released []models.PreviewHandle
	if handle, ok := m.handles[change.Slot]; ok {
		if change.Next == nil || change.Next.ID != handle.FileID {
			m.release(handle)
			delete(m.handles, change.Slot)
			released = append(released, handle)
		}
	}

	if current := files[change.Slot]; !sameFile(current, change.Next) {
		m.logger.Warn("slot change disagrees with file map", zap.String("slot", string(change.Slot)))
	}

	result := m.Reconcile(files)
	result.Released = append(released, result.Released...)
	return result
}

// ReleaseAll releases every live handle once and empties the table. Calling it on an empty
// table is a no-op.
func (m *PreviewManager) ReleaseAll() []models.PreviewHandle {
	if len(m.handles) == 0 {
		return nil
	}
	released := make([]models.PreviewHandle, 0, len(m.handles))
	for _, slot := range sortedSlots(m.handles) {
		handle := m.handles[slot]
		m.release(handle)
		delete(m.handles, slot)
		released = append(released, handle)
	}
	return released
}

// Handles returns a copy of the handle table.
func (m *PreviewManager) Handles() map[models.SlotID]models.PreviewHandle {
	out := make(map[models.SlotID]models.PreviewHandle, len(m.handles))
	for slot, handle := range m.handles {
		out[slot] = handle
	}
	return out
}

// Live returns the number of unreleased handles.
func (m *PreviewManager) Live() int {
	return len(m.handles)
}

// release revokes a handle that is still in the table. A second release of the same handle
// means the table lost track of it, so it panics.
func (m *PreviewManager) release(handle models.PreviewHandle) {
	if _, dup := m.released[handle.ID]; dup {
		panic(fmt.Sprintf("preview handle %s released twice", handle.ID))
	}
	m.released[handle.ID] = struct{}{}
	m.metrics.PreviewReleased()
	if err := m.alloc.Release(handle); err != nil {
		m.logger.Warn("preview release failed",
			zap.String("slot", string(handle.Slot)),
			zap.String("handle_id", handle.ID),
			zap.Error(err),
		)
	}
}

func sameFile(a, b *models.FileRecord) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}

func sortedSlots[V any](m map[models.SlotID]V) []models.SlotID {
	slots := make([]models.SlotID, 0, len(m))
	for slot := range m {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}
