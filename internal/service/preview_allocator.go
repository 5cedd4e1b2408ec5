package service

import (
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/psychodraw/internal/models"
)

type previewBlobStore interface {
	Save(id, contentType string, data []byte) error
	Delete(id string) error
}

type previewSigner interface {
	Generate(blobID, sessionID string) (string, time.Time, error)
}

type previewRenderer interface {
	Render(data []byte) ([]byte, string, error)
}

// BlobPreviewAllocator backs preview handles with in-memory blobs served through signed URLs.
// One allocator serves one session.
type BlobPreviewAllocator struct {
	store     previewBlobStore
	signer    previewSigner
	renderer  previewRenderer
	sessionID string
	basePath  string
	logger    *zap.Logger
	now       func() time.Time
}

// NewBlobPreviewAllocator wires an allocator. renderer may be nil to serve original bytes.
func NewBlobPreviewAllocator(store previewBlobStore, signer previewSigner, renderer previewRenderer, sessionID, basePath string, logger *zap.Logger) *BlobPreviewAllocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if basePath == "" {
		basePath = "/previews"
	}
	return &BlobPreviewAllocator{
		store:     store,
		signer:    signer,
		renderer:  renderer,
		sessionID: sessionID,
		basePath:  strings.TrimRight(basePath, "/"),
		logger:    logger,
		now:       time.Now,
	}
}

// Allocate stores the preview bytes and signs a URL for them.
func (a *BlobPreviewAllocator) Allocate(slot models.SlotID, file *models.FileRecord) (models.PreviewHandle, error) {
	if file == nil {
		return models.PreviewHandle{}, fmt.Errorf("allocate preview for %s: no file", slot)
	}

	data, contentType := a.previewBytes(file)
	id := ulid.Make().String()
	if err := a.store.Save(id, contentType, data); err != nil {
		return models.PreviewHandle{}, fmt.Errorf("store preview: %w", err)
	}

	token, expiresAt, err := a.signer.Generate(id, a.sessionID)
	if err != nil {
		_ = a.store.Delete(id)
		return models.PreviewHandle{}, fmt.Errorf("sign preview: %w", err)
	}

	return models.PreviewHandle{
		ID:          id,
		Slot:        slot,
		FileID:      file.ID,
		URL:         a.basePath + "/" + token,
		ContentType: contentType,
		CreatedAt:   a.now().UTC(),
		ExpiresAt:   expiresAt,
	}, nil
}

// Release drops the blob; its URL answers 404 from then on.
func (a *BlobPreviewAllocator) Release(handle models.PreviewHandle) error {
	if err := a.store.Delete(handle.ID); err != nil {
		return fmt.Errorf("delete preview %s: %w", handle.ID, err)
	}
	return nil
}

func (a *BlobPreviewAllocator) previewBytes(file *models.FileRecord) ([]byte, string) {
	contentType := detectContentType(file)
	if a.renderer == nil {
		return file.Data, contentType
	}
	data, rendered, err := a.renderer.Render(file.Data)
	if err != nil {
		a.logger.Debug("thumbnail unavailable, serving original", zap.String("file_id", file.ID), zap.Error(err))
		return file.Data, contentType
	}
	return data, rendered
}

func detectContentType(file *models.FileRecord) string {
	if ext := file.Ext(); ext != "" {
		if ct := mime.TypeByExtension("." + ext); ct != "" {
			return ct
		}
	}
	if mt := mediaType(file.ContentType); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
