package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/noah-isme/psychodraw/internal/models"
	"github.com/noah-isme/psychodraw/pkg/config"
	appErrors "github.com/noah-isme/psychodraw/pkg/errors"
)

var (
	imageExtensions   = map[string]struct{}{"jpg": {}, "jpeg": {}, "png": {}, "gif": {}}
	allowedExtensions = map[string]struct{}{"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "pdf": {}}
	allowedMIMEs      = map[string]struct{}{
		"image/jpeg":      {},
		"image/png":       {},
		"image/gif":       {},
		"application/pdf": {},
	}
)

// ValidationPolicy decides whether drawings and questionnaires are acceptable. It holds no
// wizard state.
type ValidationPolicy struct {
	maxFileSize int64
	tooLarge    *appErrors.Error
	validate    *validator.Validate
}

// NewValidationPolicy builds a policy with the given per-file ceiling; non-positive means 5 MiB.
func NewValidationPolicy(maxFileSize int64) *ValidationPolicy {
	if maxFileSize <= 0 {
		maxFileSize = config.DefaultMaxFileSize
	}
	tooLarge := appErrors.ErrFileTooLarge
	if maxFileSize != config.DefaultMaxFileSize {
		tooLarge = appErrors.Clone(appErrors.ErrFileTooLarge, fmt.Sprintf("File is too large. Maximum size is %s.", humanSize(maxFileSize)))
	}

	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ValidationPolicy{maxFileSize: maxFileSize, tooLarge: tooLarge, validate: v}
}

// MaxFileSize returns the configured ceiling in bytes.
func (p *ValidationPolicy) MaxFileSize() int64 {
	return p.maxFileSize
}

// CheckFile rejects oversized files and files outside the allow-list. A file-name extension
// is authoritative when present; the declared content type is consulted only without one.
func (p *ValidationPolicy) CheckFile(file *models.FileRecord) error {
	if file == nil {
		return appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if file.Size > p.maxFileSize {
		return p.tooLarge
	}
	if ext := file.Ext(); ext != "" {
		if _, ok := allowedExtensions[ext]; !ok {
			return appErrors.ErrUnsupportedFormat
		}
		return nil
	}
	if _, ok := allowedMIMEs[mediaType(file.ContentType)]; !ok {
		return appErrors.ErrUnsupportedFormat
	}
	return nil
}

// IsImage reports whether a file gets a visual preview.
func (p *ValidationPolicy) IsImage(file *models.FileRecord) bool {
	if file == nil {
		return false
	}
	if ext := file.Ext(); ext != "" {
		_, ok := imageExtensions[ext]
		return ok
	}
	return strings.HasPrefix(mediaType(file.ContentType), "image/")
}

// AllSlotsFilled reports whether every slot holds a file.
func (p *ValidationPolicy) AllSlotsFilled(files models.SelectedFiles, slots []models.UploadSlot) bool {
	for _, slot := range slots {
		if files[slot.ID] == nil {
			return false
		}
	}
	return true
}

// FormCompleteness checks that every key holds a non-blank answer. When incomplete, the first
// missing key in the order of keys is returned for focus.
func (p *ValidationPolicy) FormCompleteness(form *models.ChildFormData, keys []models.FieldKey) (bool, models.FieldKey) {
	if len(keys) == 0 {
		return true, ""
	}
	if form == nil {
		return false, keys[0]
	}

	err := p.validate.Struct(form)
	if err == nil {
		return true, ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false, keys[0]
	}
	missing := make(map[models.FieldKey]struct{}, len(verrs))
	for _, fe := range verrs {
		missing[models.FieldKey(fe.Field())] = struct{}{}
	}
	for _, key := range keys {
		if _, ok := missing[key]; ok {
			return false, key
		}
	}
	return true, ""
}

func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

func humanSize(n int64) string {
	const mib = 1024 * 1024
	if n%mib == 0 {
		return fmt.Sprintf("%d MB", n/mib)
	}
	if n%1024 == 0 {
		return fmt.Sprintf("%d KB", n/1024)
	}
	return fmt.Sprintf("%d bytes", n)
}
