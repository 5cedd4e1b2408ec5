package service

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/psychodraw/internal/models"
)

type fakeAllocator struct {
	seq       int
	live      map[string]models.PreviewHandle
	releases  map[string]int
	allocated int
	failNext  bool
}

func newFakeAllocator() *fakeAllocator {
	return &fakeAllocator{live: map[string]models.PreviewHandle{}, releases: map[string]int{}}
}

func (a *fakeAllocator) Allocate(slot models.SlotID, file *models.FileRecord) (models.PreviewHandle, error) {
	if a.failNext {
		a.failNext = false
		return models.PreviewHandle{}, errors.New("out of memory")
	}
	a.seq++
	a.allocated++
	h := models.PreviewHandle{ID: fmt.Sprintf("h%d", a.seq), Slot: slot, FileID: file.ID, URL: fmt.Sprintf("/previews/h%d", a.seq)}
	a.live[h.ID] = h
	return h, nil
}

func (a *fakeAllocator) Release(h models.PreviewHandle) error {
	a.releases[h.ID]++
	delete(a.live, h.ID)
	return nil
}

func (a *fakeAllocator) totalReleases() int {
	n := 0
	for _, c := range a.releases {
		n += c
	}
	return n
}

type countingMetrics struct{ allocated, released int }

func (c *countingMetrics) PreviewAllocated() { c.allocated++ }
func (c *countingMetrics) PreviewReleased()  { c.released++ }

func imageFile(name string) *models.FileRecord {
	return &models.FileRecord{ID: uuid.NewString(), Name: name, ContentType: "image/png", Size: 3, Data: []byte("img")}
}

func pdfFile(name string) *models.FileRecord {
	return &models.FileRecord{ID: uuid.NewString(), Name: name, ContentType: "application/pdf", Size: 3, Data: []byte("pdf")}
}

func newTestManager(alloc PreviewAllocator) *PreviewManager {
	return NewPreviewManager(alloc, NewValidationPolicy(0).IsImage, nil, nil)
}

func TestReconcileIsIdempotent(t *testing.T) {
	alloc := newFakeAllocator()
	mgr := newTestManager(alloc)
	files := models.SelectedFiles{
		models.SlotHouseTreePerson: imageFile("a.png"),
		models.SlotSelfPortrait:    imageFile("b.jpg"),
	}

	first := mgr.Reconcile(files)
	require.Len(t, first.Allocated, 2)
	require.Empty(t, first.Released)

	second := mgr.Reconcile(files)
	require.Equal(t, first.Handles, second.Handles)
	require.Empty(t, second.Allocated)
	require.Empty(t, second.Released)
	require.Equal(t, 2, alloc.allocated)
	require.Zero(t, alloc.totalReleases())
}

func TestReconcileReturnsFreshTable(t *testing.T) {
	mgr := newTestManager(newFakeAllocator())
	files := models.SelectedFiles{models.SlotSelfPortrait: imageFile("a.png")}
	result := mgr.Reconcile(files)
	delete(result.Handles, models.SlotSelfPortrait)
	require.Equal(t, 1, mgr.Live())
}

func TestReconcileReplacementReleasesOldHandleOnce(t *testing.T) {
	alloc := newFakeAllocator()
	mgr := newTestManager(alloc)
	slot := models.SlotNonexistentAnimal
	files := models.SelectedFiles{slot: imageFile("f1.png")}
	h1 := mgr.Reconcile(files).Handles[slot]

	// Same name, same bytes: still a new instance.
	files = models.SelectedFiles{slot: imageFile("f1.png")}
	result := mgr.Reconcile(files)
	h2 := result.Handles[slot]

	require.NotEqual(t, h1.ID, h2.ID)
	require.Equal(t, files[slot].ID, h2.FileID)
	require.Equal(t, 1, alloc.releases[h1.ID])
	require.Equal(t, []models.PreviewHandle{h1}, result.Released)
	mgr.Reconcile(files)
	require.Equal(t, 1, alloc.releases[h1.ID])
}

func TestReconcileRemoval(t *testing.T) {
	alloc := newFakeAllocator()
	mgr := newTestManager(alloc)
	slot := models.SlotHouseTreePerson
	h := mgr.Reconcile(models.SelectedFiles{slot: imageFile("a.png")}).Handles[slot]

	result := mgr.Reconcile(models.SelectedFiles{})
	_, present := result.Handles[slot]
	require.False(t, present)
	require.Equal(t, 1, alloc.releases[h.ID])
	require.Zero(t, mgr.Live())
}

func TestReconcileNonImageHasNoHandle(t *testing.T) {
	alloc := newFakeAllocator()
	mgr := newTestManager(alloc)
	slot := models.SlotSelfPortrait
	h := mgr.Reconcile(models.SelectedFiles{slot: imageFile("a.png")}).Handles[slot]

	result := mgr.Reconcile(models.SelectedFiles{slot: pdfFile("a.pdf")})
	require.Empty(t, result.Handles)
	require.Empty(t, result.Allocated)
	require.Equal(t, 1, alloc.releases[h.ID])
}

func TestApplyReleasesBeforeReconcile(t *testing.T) {
	alloc := newFakeAllocator()
	metrics := &countingMetrics{}
	mgr := NewPreviewManager(alloc, NewValidationPolicy(0).IsImage, metrics, nil)
	slot := models.SlotHouseTreePerson
	f1 := imageFile("a.png")
	files := models.SelectedFiles{slot: f1}
	h1 := mgr.Apply(SlotChange{Slot: slot, Next: f1}, files).Handles[slot]

	f2 := imageFile("b.png")
	files = models.SelectedFiles{slot: f2}
	result := mgr.Apply(SlotChange{Slot: slot, Previous: f1, Next: f2}, files)
	require.Equal(t, []models.PreviewHandle{h1}, result.Released)
	require.Len(t, result.Allocated, 1)
	require.Equal(t, f2.ID, result.Handles[slot].FileID)

	result = mgr.Apply(SlotChange{Slot: slot, Previous: f2}, models.SelectedFiles{})
	require.Len(t, result.Released, 1)
	require.Empty(t, result.Handles)
	require.Equal(t, 1, alloc.releases[h1.ID])
	require.Equal(t, 2, metrics.allocated)
	require.Equal(t, 2, metrics.released)
}

func TestApplyKeepsHandleForUnchangedInstance(t *testing.T) {
	alloc := newFakeAllocator()
	mgr := newTestManager(alloc)
	slot := models.SlotSelfPortrait
	f := imageFile("a.png")
	files := models.SelectedFiles{slot: f}
	h := mgr.Apply(SlotChange{Slot: slot, Next: f}, files).Handles[slot]

	result := mgr.Apply(SlotChange{Slot: slot, Previous: f, Next: f}, files)
	require.Equal(t, h, result.Handles[slot])
	require.Empty(t, result.Released)
	require.Equal(t, 1, alloc.allocated)
}

func TestLeakBoundUnderRandomEdits(t *testing.T) {
	alloc := newFakeAllocator()
	mgr := newTestManager(alloc)
	slots := models.DefaultSlots()
	rng := rand.New(rand.NewSource(42))
	files := models.SelectedFiles{}

	for i := 0; i < 500; i++ {
		slot := slots[rng.Intn(len(slots))].ID
		prev := files[slot]
		var next *models.FileRecord
		switch rng.Intn(4) {
		case 0:
			next = nil
		case 1:
			next = pdfFile("doc.pdf")
		case 2:
			next = prev
		default:
			next = imageFile("img.png")
		}
		files = files.Clone()
		if next == nil {
			delete(files, slot)
		} else {
			files[slot] = next
		}

		if rng.Intn(2) == 0 {
			mgr.Apply(SlotChange{Slot: slot, Previous: prev, Next: next}, files)
		} else {
			mgr.Reconcile(files)
		}
		mgr.Reconcile(files)

		images := 0
		for s, f := range files {
			if f != nil && f.ContentType == "image/png" {
				images++
				require.Equal(t, f.ID, mgr.Handles()[s].FileID)
			}
		}
		require.Equal(t, images, mgr.Live())
		require.Equal(t, images, len(alloc.live))
		require.LessOrEqual(t, mgr.Live(), len(slots))
	}
	for id, n := range alloc.releases {
		require.Equal(t, 1, n, "handle %s", id)
	}
	require.Equal(t, alloc.allocated, alloc.totalReleases()+len(alloc.live))
}

func TestReleaseAllAfterPriorRemovals(t *testing.T) {
	alloc := newFakeAllocator()
	mgr := newTestManager(alloc)
	files := models.SelectedFiles{
		models.SlotHouseTreePerson:   imageFile("a.png"),
		models.SlotNonexistentAnimal: imageFile("b.png"),
		models.SlotSelfPortrait:      imageFile("c.png"),
	}
	mgr.Reconcile(files)
	delete(files, models.SlotNonexistentAnimal)
	mgr.Reconcile(files)

	released := mgr.ReleaseAll()
	require.Len(t, released, 2)
	require.Zero(t, mgr.Live())
	require.Empty(t, alloc.live)
	require.Len(t, alloc.releases, 3)
	for _, n := range alloc.releases {
		require.Equal(t, 1, n)
	}

	require.Nil(t, mgr.ReleaseAll())
	require.Equal(t, 3, alloc.totalReleases())
}

func TestDoubleReleasePanics(t *testing.T) {
	mgr := newTestManager(newFakeAllocator())
	h := mgr.Reconcile(models.SelectedFiles{models.SlotSelfPortrait: imageFile("a.png")}).Handles[models.SlotSelfPortrait]
	mgr.ReleaseAll()
	require.Panics(t, func() { mgr.release(h) })
}

func TestAllocationFailureLeavesSlotWithoutPreview(t *testing.T) {
	alloc := newFakeAllocator()
	alloc.failNext = true
	mgr := newTestManager(alloc)
	files := models.SelectedFiles{models.SlotSelfPortrait: imageFile("a.png")}

	result := mgr.Reconcile(files)
	require.Empty(t, result.Handles)
	require.Empty(t, alloc.live)

	result = mgr.Reconcile(files)
	require.Len(t, result.Handles, 1)
}

func TestPlanReconcileIsPure(t *testing.T) {
	f := imageFile("a.png")
	prev := map[models.SlotID]models.PreviewHandle{
		models.SlotHouseTreePerson: {ID: "h1", Slot: models.SlotHouseTreePerson, FileID: f.ID},
		models.SlotSelfPortrait:    {ID: "h2", Slot: models.SlotSelfPortrait, FileID: "gone"},
	}
	files := models.SelectedFiles{
		models.SlotHouseTreePerson:   f,
		models.SlotNonexistentAnimal: imageFile("b.png"),
	}
	isImage := NewValidationPolicy(0).IsImage

	plan := planReconcile(prev, files, isImage)
	require.Equal(t, []models.PreviewHandle{prev[models.SlotSelfPortrait]}, plan.release)
	require.Equal(t, []models.SlotID{models.SlotNonexistentAnimal}, plan.allocate)
	require.Len(t, prev, 2)
	require.Equal(t, plan, planReconcile(prev, files, isImage))
}
