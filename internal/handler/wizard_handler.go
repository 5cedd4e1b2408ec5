package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/psychodraw/internal/dto"
	"github.com/noah-isme/psychodraw/internal/middleware"
	"github.com/noah-isme/psychodraw/internal/models"
	"github.com/noah-isme/psychodraw/internal/service"
	appErrors "github.com/noah-isme/psychodraw/pkg/errors"
	"github.com/noah-isme/psychodraw/pkg/response"
)

type sessionService interface {
	Start(ctx context.Context) (*service.Session, string, time.Time, error)
	ParseToken(token string) (string, error)
	End(id string) error
}

type reportService interface {
	Build(ctx context.Context, form models.ChildFormData) (*models.Report, error)
	Download(ctx context.Context, form models.ChildFormData) error
	Share(ctx context.Context, form models.ChildFormData) error
}

// CookieOptions controls the session cookie written on start.
type CookieOptions struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// WizardHandler exposes the three-step wizard over HTTP.
type WizardHandler struct {
	sessions    sessionService
	reports     reportService
	cookie      CookieOptions
	maxFileSize int64
	logger      *zap.Logger
}

// NewWizardHandler constructs the handler. maxFileSize bounds how much of an upload is buffered.
func NewWizardHandler(sessions sessionService, reports reportService, cookie CookieOptions, maxFileSize int64, logger *zap.Logger) *WizardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WizardHandler{
		sessions:    sessions,
		reports:     reports,
		cookie:      cookie,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Start godoc
// @Summary Start a wizard session
// @Description Opens a new session on the upload step. A session previously held by the caller is ended.
// @Tags Wizard
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /wizard [post]
func (h *WizardHandler) Start(c *gin.Context) {
	if previous := middleware.SessionToken(c, h.cookie.Name); previous != "" {
		if id, err := h.sessions.ParseToken(previous); err == nil {
			if endErr := h.sessions.End(id); endErr == nil {
				h.logger.Info("replaced wizard session", zap.String("session_id", id))
			}
		}
	}

	session, token, expiresAt, err := h.sessions.Start(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	var snapshot dto.WizardSnapshot
	if err := session.Do(func(w *service.Wizard) error {
		snapshot = w.Snapshot()
		return nil
	}); err != nil {
		response.Error(c, err)
		return
	}

	h.setCookie(c, token, int(h.cookie.MaxAge.Seconds()))
	response.Created(c, dto.SessionResponse{Token: token, ExpiresAt: expiresAt, Wizard: snapshot})
}

// Get godoc
// @Summary Current wizard state
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /wizard [get]
func (h *WizardHandler) Get(c *gin.Context) {
	h.respond(c, func(*service.Wizard) error { return nil })
}

// Delete godoc
// @Summary End the wizard session
// @Description Tears the session down and revokes every preview URL.
// @Tags Wizard
// @Security BearerAuth
// @Success 204
// @Router /wizard [delete]
func (h *WizardHandler) Delete(c *gin.Context) {
	session := sessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.ErrSessionNotFound)
		return
	}
	if err := h.sessions.End(session.ID); err != nil {
		response.Error(c, err)
		return
	}
	h.setCookie(c, "", -1)
	response.NoContent(c)
}

// PutFile godoc
// @Summary Select a drawing for an upload slot
// @Tags Wizard
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param slot path string true "Slot id" Enums(house-tree-person, nonexistent-animal, self-portrait)
// @Param file formData file true "Drawing"
// @Success 200 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /wizard/files/{slot} [put]
func (h *WizardHandler) PutFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}

	upload := &service.FileUpload{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
	}
	// Oversized files are rejected on their declared size without being buffered.
	if h.maxFileSize <= 0 || fileHeader.Size <= h.maxFileSize {
		src, err := fileHeader.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
			return
		}
		defer src.Close()

		var reader io.Reader = src
		if h.maxFileSize > 0 {
			reader = io.LimitReader(src, h.maxFileSize+1)
		}
		data, err := io.ReadAll(reader)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file"))
			return
		}
		upload.Data = data
		upload.Size = int64(len(data))
	}

	slot := models.SlotID(c.Param("slot"))
	h.respond(c, func(w *service.Wizard) error { return w.SelectFile(slot, upload) })
}

// DeleteFile godoc
// @Summary Clear an upload slot
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param slot path string true "Slot id"
// @Success 200 {object} response.Envelope
// @Router /wizard/files/{slot} [delete]
func (h *WizardHandler) DeleteFile(c *gin.Context) {
	slot := models.SlotID(c.Param("slot"))
	h.respond(c, func(w *service.Wizard) error { return w.ClearSlot(slot) })
}

// PatchForm godoc
// @Summary Edit questionnaire answers
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body map[string]string true "Field values keyed by field id"
// @Success 200 {object} response.Envelope
// @Router /wizard/form [patch]
func (h *WizardHandler) PatchForm(c *gin.Context) {
	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid form payload"))
		return
	}
	h.respond(c, func(w *service.Wizard) error { return w.SetFields(values) })
}

// Advance godoc
// @Summary Move to the next step
// @Description On the questionnaire step an optional full form may be submitted; otherwise the draft is used.
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.AdvanceRequest false "Questionnaire"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /wizard/advance [post]
func (h *WizardHandler) Advance(c *gin.Context) {
	var req dto.AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid advance payload"))
		return
	}
	h.respond(c, func(w *service.Wizard) error { return w.Advance(req.Form) })
}

// Retreat godoc
// @Summary Move to the previous step
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /wizard/retreat [post]
func (h *WizardHandler) Retreat(c *gin.Context) {
	h.respond(c, func(w *service.Wizard) error { return w.Retreat() })
}

// Questionnaire godoc
// @Summary Questionnaire field catalogue
// @Tags Wizard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /wizard/questionnaire [get]
func (h *WizardHandler) Questionnaire(c *gin.Context) {
	response.JSON(c, http.StatusOK, dto.QuestionnaireResponse{Fields: models.Questionnaire()})
}

// Report godoc
// @Summary Rendered report
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /wizard/report [get]
func (h *WizardHandler) Report(c *gin.Context) {
	form, ok := h.frozenForm(c)
	if !ok {
		return
	}
	report, err := h.reports.Build(c.Request.Context(), form)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// ReportDownload godoc
// @Summary Download the report as PDF
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Failure 501 {object} response.Envelope
// @Router /wizard/report/download [post]
func (h *WizardHandler) ReportDownload(c *gin.Context) {
	form, ok := h.frozenForm(c)
	if !ok {
		return
	}
	if err := h.reports.Download(c.Request.Context(), form); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ReportShare godoc
// @Summary Share the report
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Failure 501 {object} response.Envelope
// @Router /wizard/report/share [post]
func (h *WizardHandler) ReportShare(c *gin.Context) {
	form, ok := h.frozenForm(c)
	if !ok {
		return
	}
	if err := h.reports.Share(c.Request.Context(), form); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// respond runs event against the session's wizard and renders the resulting snapshot.
func (h *WizardHandler) respond(c *gin.Context, event func(w *service.Wizard) error) {
	session := sessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.ErrSessionNotFound)
		return
	}
	var snapshot dto.WizardSnapshot
	err := session.Do(func(w *service.Wizard) error {
		if err := event(w); err != nil {
			return err
		}
		snapshot = w.Snapshot()
		return nil
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot)
}

func (h *WizardHandler) frozenForm(c *gin.Context) (models.ChildFormData, bool) {
	session := sessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.ErrSessionNotFound)
		return models.ChildFormData{}, false
	}
	var form models.ChildFormData
	err := session.Do(func(w *service.Wizard) error {
		var err error
		form, err = w.FrozenForm()
		return err
	})
	if err != nil {
		response.Error(c, err)
		return models.ChildFormData{}, false
	}
	return form, true
}

func (h *WizardHandler) setCookie(c *gin.Context, value string, maxAge int) {
	if h.cookie.Name == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", "", h.cookie.Secure, true)
}
