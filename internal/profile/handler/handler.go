package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vitrine/internal/address/lookup"
	docmodels "vitrine/internal/document/models"
	"vitrine/internal/document/gate"
	"vitrine/internal/profile/models"
	"vitrine/internal/profile/service"
	id "vitrine/pkg/domain"
	dErrors "vitrine/pkg/domain-errors"
	"vitrine/pkg/platform/httputil"
	"vitrine/pkg/requestcontext"
)

const (
	maxDraftBytes = 1 << 20
	// Multipart framing on top of the largest accepted file.
	maxUploadBytes = gate.MaxFileSize + 1<<20
)

// Service defines the profile operations exposed over HTTP.
type Service interface {
	View(ctx context.Context, userID id.UserID) (*service.View, error)
	Edit(ctx context.Context, userID id.UserID, section models.Section) (*service.View, error)
	UpdateDraft(ctx context.Context, userID id.UserID, draft models.Draft) (*service.View, error)
	Save(ctx context.Context, userID id.UserID, section models.Section) (*service.View, error)
	Cancel(ctx context.Context, userID id.UserID, section models.Section) (*service.View, error)
	UploadDocument(ctx context.Context, userID id.UserID, category docmodels.Category, file gate.FileCandidate) (*service.View, error)
	ReviewDocument(ctx context.Context, profileID id.ProfileID, category docmodels.Category, decision docmodels.Decision) (*docmodels.Record, error)
	VerifyIdentity(ctx context.Context, userID id.UserID) (*service.View, error)
	PostalCodeInput(ctx context.Context, userID id.UserID, raw string) (*service.View, error)
	ResolvePostalCode(ctx context.Context, userID id.UserID, code string) (*service.View, error)
	LookupPostalCode(ctx context.Context, code string) (*lookup.Address, error)
	SubmitAccount(ctx context.Context, userID id.UserID) (*service.View, error)
}

// Handler wires profile endpoints to the section controller.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the authenticated profile endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/profiles/me", h.HandleView)
	r.Post("/profiles/me/sections/{section}/edit", h.HandleEdit)
	r.Patch("/profiles/me/sections/{section}/draft", h.HandleUpdateDraft)
	r.Put("/profiles/me/sections/{section}", h.HandleSave)
	r.Post("/profiles/me/sections/{section}/cancel", h.HandleCancel)
	r.Post("/profiles/me/documents/{category}", h.HandleUpload)
	r.Post("/profiles/me/identity/verify", h.HandleVerifyIdentity)
	r.Post("/profiles/me/address/postal-code", h.HandlePostalCodeInput)
	r.Post("/profiles/me/address/postal-code/resolve", h.HandleResolvePostalCode)
	r.Post("/profiles/me/submit", h.HandleSubmit)
	r.Get("/postal-codes/{code}", h.HandleLookupPostalCode)
}

// RegisterReviewer mounts back-office endpoints. Callers guard r with the
// reviewer middleware.
func (h *Handler) RegisterReviewer(r chi.Router) {
	r.Post("/profiles/{profileID}/documents/{category}/review", h.HandleReview)
}

func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, func(ctx context.Context, userID id.UserID) (*service.View, error) {
		return h.service.View(ctx, userID)
	})
}

func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	section, ok := h.section(w, r)
	if !ok {
		return
	}
	h.withUser(w, r, func(ctx context.Context, userID id.UserID) (*service.View, error) {
		return h.service.Edit(ctx, userID, section)
	})
}

func (h *Handler) HandleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	section, ok := h.section(w, r)
	if !ok {
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDraftBytes))
	if err != nil {
		h.logger.WarnContext(ctx, "failed to read draft body",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	draft, err := models.DecodeDraft(section, raw)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.withUser(w, r, func(ctx context.Context, userID id.UserID) (*service.View, error) {
		return h.service.UpdateDraft(ctx, userID, draft)
	})
}

func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	section, ok := h.section(w, r)
	if !ok {
		return
	}
	h.withUser(w, r, func(ctx context.Context, userID id.UserID) (*service.View, error) {
		return h.service.Save(ctx, userID, section)
	})
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	section, ok := h.section(w, r)
	if !ok {
		return
	}
	h.withUser(w, r, func(ctx context.Context, userID id.UserID) (*service.View, error) {
		return h.service.Cancel(ctx, userID, section)
	})
}

// HandleUpload accepts a multipart form with a single "file" part.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	category, err := docmodels.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, dErrors.Wrap(gate.ErrFileTooLarge, dErrors.CodePayloadTooLarge, "file exceeds the 10 MiB limit"))
			return
		}
		h.logger.WarnContext(ctx, "invalid upload form",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "a multipart form with a file part is required"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, gate.MaxFileSize+1))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "failed to read uploaded file"))
		return
	}
	candidate := gate.FileCandidate{
		FileName:     header.Filename,
		SizeBytes:    header.Size,
		DeclaredType: header.Header.Get("Content-Type"),
		Content:      content,
	}
	h.withUser(w, r, func(ctx context.Context, userID id.UserID) (*service.View, error) {
		return h.service.UploadDocument(ctx, userID, category, candidate)
	})
}

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	profileID, err := id.ParseProfileID(chi.URLParam(r, "profileID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid profile id"))
		return
	}
	category, err := docmodels.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.ReviewDocument(ctx, profileID, category, req.Decision(reviewerName(ctx)))
	if err != nil {
		h.logger.WarnContext(ctx, "document review failed",
			"request_id", requestID,
			"profile_id", profileID.String(),
			"category", string(category),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "document reviewed",
		"request_id", requestID,
		"profile_id", profileID.String(),
		"category", string(category),
		"status", string(record.Status),
	)
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) HandleVerifyIdentity(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, func(ctx context.Context, userID id.UserID) (*service.View, error) {
		return h.service.VerifyIdentity(ctx, userID)
	})
}

func (h *Handler) HandlePostalCodeInput(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[PostalCodeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.withUser(w, r, func(ctx context.Context, userID id.UserID) (*service.View, error) {
		return h.service.PostalCodeInput(ctx, userID, req.PostalCode)
	})
}

func (h *Handler) HandleResolvePostalCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[PostalCodeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.withUser(w, r, func(ctx context.Context, userID id.UserID) (*service.View, error) {
		return h.service.ResolvePostalCode(ctx, userID, req.PostalCode)
	})
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, func(ctx context.Context, userID id.UserID) (*service.View, error) {
		return h.service.SubmitAccount(ctx, userID)
	})
}

func (h *Handler) HandleLookupPostalCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, err := h.service.LookupPostalCode(ctx, chi.URLParam(r, "code"))
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.WarnContext(ctx, "postal code lookup failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, addr)
}

// withUser resolves the authenticated user, runs op and writes the view.
func (h *Handler) withUser(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID id.UserID) (*service.View, error)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := op(ctx, userID)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "profile operation failed",
				"request_id", requestID,
				"route", r.URL.Path,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) section(w http.ResponseWriter, r *http.Request) (models.Section, bool) {
	section, err := models.ParseSection(chi.URLParam(r, "section"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return section, true
}

// reviewerName identifies the reviewer: the token subject when present,
// otherwise the shared back-office credential.
func reviewerName(ctx context.Context) string {
	if userID := requestcontext.UserID(ctx); !userID.IsNil() {
		return userID.String()
	}
	return "back-office"
}
