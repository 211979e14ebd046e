// Package gate validates document uploads before anything is stored and
// applies reviewer decisions to stored documents.
//
// Each (profile, category) slot carries an issuance counter. Every Submit
// takes a new token before handing bytes to storage; only the holder of the
// latest token may replace the slot's record. An older upload that finishes
// late is dropped with ErrSuperseded so a slow network never overwrites a
// newer choice.
package gate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"vitrine/internal/document/metrics"
	"vitrine/internal/document/models"
	"vitrine/internal/document/store"
	"vitrine/internal/events"
	id "vitrine/pkg/domain"
	dErrors "vitrine/pkg/domain-errors"
	"vitrine/pkg/requestcontext"
)

// MaxFileSize is the largest accepted upload, inclusive.
const MaxFileSize int64 = 10 * 1024 * 1024

var (
	ErrFileTooLarge    = errors.New("file exceeds the 10 MiB limit")
	ErrUnsupportedType = errors.New("file type not allowed")
	ErrEmptyFile       = errors.New("file is empty")
	ErrSuperseded      = errors.New("upload superseded by a newer upload")
)

var allowedTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Store persists document records.
// Error Contract:
// - Get returns store.ErrNotFound when the slot is empty
// - UpdateReview returns store.ErrConflict when the slot changed since it was read
type Store interface {
	Replace(ctx context.Context, record *models.Record) error
	Get(ctx context.Context, profileID id.ProfileID, category models.Category) (*models.Record, error)
	ListByProfile(ctx context.Context, profileID id.ProfileID) ([]*models.Record, error)
	UpdateReview(ctx context.Context, record *models.Record, fromStatus models.Status) error
}

// FileStorage receives the bytes of accepted uploads and returns a display URL.
type FileStorage interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// FileCandidate is a file the user selected. Content may be nil when only
// metadata is known; SizeBytes is then authoritative.
type FileCandidate struct {
	FileName     string
	SizeBytes    int64
	DeclaredType string
	Content      []byte
}

type slotKey struct {
	profileID id.ProfileID
	category  models.Category
}

type slotState struct {
	mu     sync.Mutex
	latest uint64
}

type Gate struct {
	store     Store
	files     FileStorage
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.Mutex
	slots map[slotKey]*slotState
}

type Option func(*Gate)

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(g *Gate) {
		if p != nil {
			g.publisher = p
		}
	}
}

// WithClock overrides the time source for upload and review timestamps when
// the context carries no request time.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

func New(st Store, files FileStorage, opts ...Option) *Gate {
	g := &Gate{
		store:     st,
		files:     files,
		publisher: events.Nop{},
		logger:    slog.Default(),
		now:       time.Now,
		slots:     make(map[slotKey]*slotState),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Submit validates the candidate and, if it passes, stores it as the slot's
// active document with status under-review. Validation failures never reach
// storage or the store.
func (g *Gate) Submit(ctx context.Context, profileID id.ProfileID, file FileCandidate, category models.Category) (*models.Record, error) {
	if !category.IsValid() {
		g.rejected("unknown_category")
		return nil, dErrors.Wrap(models.ErrUnknownCategory, dErrors.CodeInvalidInput,
			fmt.Sprintf("unknown document category %q", category))
	}
	size := file.SizeBytes
	if file.Content != nil {
		size = int64(len(file.Content))
	}
	if size > MaxFileSize {
		g.rejected("too_large")
		return nil, dErrors.Wrap(ErrFileTooLarge, dErrors.CodePayloadTooLarge, "file exceeds the 10 MiB limit")
	}
	if size <= 0 {
		g.rejected("empty")
		return nil, dErrors.Wrap(ErrEmptyFile, dErrors.CodeValidation, "file is empty")
	}
	mimeType, err := resolveType(file)
	if err != nil {
		g.rejected("unsupported_type")
		return nil, err
	}

	slot := g.slot(profileID, category)
	token := slot.issue()

	record := &models.Record{
		ID:           id.NewDocumentID(),
		ProfileID:    profileID,
		Category:     category,
		Status:       models.StatusUnderReview,
		FileName:     cleanFileName(file.FileName, mimeType),
		SizeBytes:    size,
		MimeType:     mimeType,
		UploadedAt:   g.timestamp(ctx),
		UploadedFrom: DescribeUserAgent(requestcontext.UserAgent(ctx)),
	}

	if file.Content != nil {
		key := fmt.Sprintf("%s/%s/%s%s", profileID, category, record.ID, allowedTypes[mimeType])
		url, err := g.files.Put(ctx, key, mimeType, bytes.NewReader(file.Content))
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store document")
		}
		record.StorageURL = url
	}

	if err := g.commit(ctx, slot, token, record); err != nil {
		return nil, err
	}

	if g.metrics != nil {
		g.metrics.IncrementAccepted(string(category))
		g.metrics.ObserveUploadSize(size)
	}
	g.logger.InfoContext(ctx, "document uploaded",
		"request_id", requestcontext.RequestID(ctx),
		"client_ip", requestcontext.ClientIP(ctx),
		"profile_id", profileID.String(),
		"category", string(category),
		"document_id", record.ID.String(),
		"size_bytes", size,
	)
	g.publish(ctx, record)
	return record, nil
}

// commit replaces the slot's record if token is still the latest issued.
func (g *Gate) commit(ctx context.Context, slot *slotState, token uint64, record *models.Record) error {
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.latest != token {
		if g.metrics != nil {
			g.metrics.IncrementSuperseded()
		}
		g.logger.DebugContext(ctx, "discarding superseded upload",
			"profile_id", record.ProfileID.String(),
			"category", string(record.Category),
		)
		return ErrSuperseded
	}
	if err := g.store.Replace(ctx, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record document")
	}
	return nil
}

// Review applies a reviewer decision to the slot's active document. Only
// under-review documents can be approved or rejected.
func (g *Gate) Review(ctx context.Context, profileID id.ProfileID, category models.Category, decision models.Decision) (*models.Record, error) {
	if !category.IsValid() {
		return nil, dErrors.Wrap(models.ErrUnknownCategory, dErrors.CodeInvalidInput,
			fmt.Sprintf("unknown document category %q", category))
	}
	if err := decision.Validate(); err != nil {
		return nil, err
	}

	record, err := g.store.Get(ctx, profileID, category)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no document uploaded for this category")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
	}
	from := record.Status
	if err := record.ApplyReview(decision, g.timestamp(ctx)); err != nil {
		return nil, err
	}
	if err := g.store.UpdateReview(ctx, record, from); err != nil {
		if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeConflict, "document changed during review, reload and try again")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save review")
	}

	if g.metrics != nil {
		g.metrics.IncrementReviews(string(decision.Action))
	}
	g.logger.InfoContext(ctx, "document reviewed",
		"request_id", requestcontext.RequestID(ctx),
		"client_ip", requestcontext.ClientIP(ctx),
		"profile_id", profileID.String(),
		"category", string(category),
		"status", string(record.Status),
		"reviewer", decision.Reviewer,
	)
	g.publish(ctx, record)
	return record, nil
}

// timestamp is the request time when the context carries one, else the gate
// clock.
func (g *Gate) timestamp(ctx context.Context) time.Time {
	return requestcontext.NowOr(ctx, g.now).UTC()
}

// Slots lists every catalog category for the profile, pending where no
// document was uploaded.
func (g *Gate) Slots(ctx context.Context, profileID id.ProfileID) ([]models.Slot, error) {
	records, err := g.Records(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return models.Slots(records), nil
}

// Records returns the profile's active documents.
func (g *Gate) Records(ctx context.Context, profileID id.ProfileID) ([]*models.Record, error) {
	records, err := g.store.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	return records, nil
}

func (g *Gate) slot(profileID id.ProfileID, category models.Category) *slotState {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := slotKey{profileID, category}
	s, ok := g.slots[key]
	if !ok {
		s = &slotState{}
		g.slots[key] = s
	}
	return s
}

func (s *slotState) issue() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	return s.latest
}

func (g *Gate) rejected(reason string) {
	if g.metrics != nil {
		g.metrics.IncrementRejected(reason)
	}
}

func (g *Gate) publish(ctx context.Context, record *models.Record) {
	err := g.publisher.Publish(ctx, events.Event{
		Type:       events.TypeDocumentChanged,
		ProfileID:  record.ProfileID,
		OccurredAt: g.timestamp(ctx),
		Data: map[string]any{
			"document_id": record.ID.String(),
			"category":    string(record.Category),
			"status":      string(record.Status),
		},
	})
	if err != nil {
		g.logger.WarnContext(ctx, "failed to publish document event",
			"profile_id", record.ProfileID.String(),
			"error", err,
		)
	}
}

// resolveType picks the media type from the declared type, falling back to
// the file extension. When content is present its sniffed type must be on the
// allowlist and replaces the declared one.
func resolveType(file FileCandidate) (string, error) {
	resolved := ""
	declared := normalizeMediaType(file.DeclaredType)
	switch {
	case declared == "" || declared == "application/octet-stream":
		resolved = extensionTypes[strings.ToLower(filepath.Ext(file.FileName))]
	case allowedTypes[declared] != "":
		resolved = declared
	}
	if resolved == "" {
		return "", unsupported(file.DeclaredType, file.FileName)
	}

	if file.Content != nil {
		sniffed := mimetype.Detect(file.Content)
		detected := ""
		for allowed := range allowedTypes {
			if sniffed.Is(allowed) {
				detected = allowed
				break
			}
		}
		if detected == "" {
			return "", dErrors.Wrap(ErrUnsupportedType, dErrors.CodeUnsupportedType,
				fmt.Sprintf("file content is %s, only PDF, JPEG and PNG are accepted", sniffed.String()))
		}
		resolved = detected
	}
	return resolved, nil
}

func normalizeMediaType(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(s)
	if err != nil {
		return strings.ToLower(s)
	}
	if mediaType == "image/jpg" || mediaType == "image/pjpeg" {
		return "image/jpeg"
	}
	return mediaType
}

func unsupported(declared, fileName string) error {
	kind := declared
	if kind == "" {
		kind = filepath.Ext(fileName)
	}
	if kind == "" {
		kind = "unknown"
	}
	return dErrors.Wrap(ErrUnsupportedType, dErrors.CodeUnsupportedType,
		fmt.Sprintf("file type %s not allowed, only PDF, JPEG and PNG are accepted", kind))
}

func cleanFileName(name, mimeType string) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "document" + allowedTypes[mimeType]
	}
	return base
}
