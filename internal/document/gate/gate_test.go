package gate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"vitrine/internal/document/models"
	"vitrine/internal/document/storage"
	"vitrine/internal/document/store"
	"vitrine/internal/events"
	id "vitrine/pkg/domain"
	dErrors "vitrine/pkg/domain-errors"
	"vitrine/pkg/requestcontext"
)

var (
	pdfBytes = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
)

type GateSuite struct {
	suite.Suite
	store     *store.InMemoryStore
	files     *storage.Memory
	recorder  *events.Recorder
	gate      *Gate
	profileID id.ProfileID
	ctx       context.Context
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.files = storage.NewMemory("/files")
	s.recorder = &events.Recorder{}
	s.gate = New(s.store, s.files, WithPublisher(s.recorder))
	s.profileID = id.NewProfileID()
	s.ctx = context.Background()
}

func (s *GateSuite) TestSizeBoundary() {
	s.Run("exactly 10 MiB is accepted", func() {
		rec, err := s.gate.Submit(s.ctx, s.profileID, FileCandidate{
			FileName:  "big.pdf",
			SizeBytes: MaxFileSize,
		}, models.CategoryTaxRegistration)
		s.Require().NoError(err)
		s.Equal(models.StatusUnderReview, rec.Status)
		s.Equal(MaxFileSize, rec.SizeBytes)
	})

	s.Run("one byte over is rejected without touching the store", func() {
		_, err := s.gate.Submit(s.ctx, s.profileID, FileCandidate{
			FileName:  "huge.pdf",
			SizeBytes: MaxFileSize + 1,
		}, models.CategoryProofOfAddress)
		s.Require().Error(err)
		s.ErrorIs(err, ErrFileTooLarge)
		s.True(dErrors.HasCode(err, dErrors.CodePayloadTooLarge))

		_, err = s.store.Get(s.ctx, s.profileID, models.CategoryProofOfAddress)
		s.ErrorIs(err, store.ErrNotFound)
	})
}

func (s *GateSuite) TestTypeAllowlist() {
	cases := []struct {
		name     string
		file     FileCandidate
		wantType string
		wantErr  error
	}{
		{name: "declared pdf", file: FileCandidate{FileName: "a.bin", DeclaredType: "application/pdf", SizeBytes: 10}, wantType: "application/pdf"},
		{name: "declared with params", file: FileCandidate{FileName: "a", DeclaredType: "image/PNG; charset=binary", SizeBytes: 10}, wantType: "image/png"},
		{name: "extension fallback", file: FileCandidate{FileName: "scan.JPEG", SizeBytes: 10}, wantType: "image/jpeg"},
		{name: "octet-stream falls back to extension", file: FileCandidate{FileName: "a.pdf", DeclaredType: "application/octet-stream", SizeBytes: 10}, wantType: "application/pdf"},
		{name: "declared off-list", file: FileCandidate{FileName: "a.pdf", DeclaredType: "text/plain", SizeBytes: 10}, wantErr: ErrUnsupportedType},
		{name: "unknown extension", file: FileCandidate{FileName: "a.docx", SizeBytes: 10}, wantErr: ErrUnsupportedType},
		{name: "sniffed content must match allowlist", file: FileCandidate{FileName: "a.pdf", DeclaredType: "application/pdf", Content: []byte("plain text, not a pdf")}, wantErr: ErrUnsupportedType},
		{name: "sniffed png", file: FileCandidate{FileName: "a.png", Content: pngBytes}, wantType: "image/png"},
		{name: "sniffed type replaces declared", file: FileCandidate{FileName: "scan.png", DeclaredType: "image/png", Content: pdfBytes}, wantType: "application/pdf"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			rec, err := s.gate.Submit(s.ctx, s.profileID, tc.file, models.CategoryOther)
			if tc.wantErr != nil {
				s.ErrorIs(err, tc.wantErr)
				s.True(dErrors.HasCode(err, dErrors.CodeUnsupportedType))
				return
			}
			s.Require().NoError(err)
			s.Equal(tc.wantType, rec.MimeType)
		})
	}
}

func (s *GateSuite) TestUnknownCategory() {
	_, err := s.gate.Submit(s.ctx, s.profileID, FileCandidate{FileName: "a.pdf", SizeBytes: 1}, models.Category("passport"))
	s.ErrorIs(err, models.ErrUnknownCategory)
	s.Equal(0, s.files.Len())
}

func (s *GateSuite) TestEmptyFileRejected() {
	_, err := s.gate.Submit(s.ctx, s.profileID, FileCandidate{FileName: "a.pdf", Content: []byte{}}, models.CategoryOther)
	s.ErrorIs(err, ErrEmptyFile)
}

// TestUploadIdempotentPerCategory verifies repeated uploads keep one
// record per category, the latest one.
func (s *GateSuite) TestUploadIdempotentPerCategory() {
	first, err := s.gate.Submit(s.ctx, s.profileID, FileCandidate{FileName: "v1.pdf", Content: pdfBytes}, models.CategoryTaxRegistration)
	s.Require().NoError(err)
	second, err := s.gate.Submit(s.ctx, s.profileID, FileCandidate{FileName: "v2.pdf", Content: pdfBytes}, models.CategoryTaxRegistration)
	s.Require().NoError(err)
	s.NotEqual(first.ID, second.ID)

	records, err := s.gate.Records(s.ctx, s.profileID)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(second.ID, records[0].ID)
	s.Equal("v2.pdf", records[0].FileName)
	s.Contains(records[0].StorageURL, "/files/"+s.profileID.String()+"/tax-registration/")
	s.Len(s.recorder.OfType(events.TypeDocumentChanged), 2)
}

func (s *GateSuite) TestReplacingApprovedResetsToUnderReview() {
	_, err := s.gate.Submit(s.ctx, s.profileID, FileCandidate{FileName: "a.pdf", SizeBytes: 5}, models.CategoryProofOfAddress)
	s.Require().NoError(err)
	approved, err := s.gate.Review(s.ctx, s.profileID, models.CategoryProofOfAddress, models.Decision{Action: models.ActionApprove, Reviewer: "ops"})
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, approved.Status)

	replaced, err := s.gate.Submit(s.ctx, s.profileID, FileCandidate{FileName: "b.pdf", SizeBytes: 5}, models.CategoryProofOfAddress)
	s.Require().NoError(err)
	s.Equal(models.StatusUnderReview, replaced.Status)
	s.Nil(replaced.ReviewedAt)
}

func (s *GateSuite) TestReview() {
	s.Run("reject requires a reason", func() {
		_, err := s.gate.Review(s.ctx, s.profileID, models.CategoryOther, models.Decision{Action: models.ActionReject})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("empty slot is not found", func() {
		_, err := s.gate.Review(s.ctx, s.profileID, models.CategoryTradeReferences, models.Decision{Action: models.ActionApprove})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("second review is an invalid transition", func() {
		_, err := s.gate.Submit(s.ctx, s.profileID, FileCandidate{FileName: "a.png", SizeBytes: 5}, models.CategoryOther)
		s.Require().NoError(err)
		rec, err := s.gate.Review(s.ctx, s.profileID, models.CategoryOther, models.Decision{Action: models.ActionReject, Reason: "unreadable"})
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, rec.Status)
		s.Equal("unreadable", rec.RejectionReason)

		_, err = s.gate.Review(s.ctx, s.profileID, models.CategoryOther, models.Decision{Action: models.ActionApprove})
		s.ErrorIs(err, models.ErrInvalidTransition)
	})
}

func (s *GateSuite) TestSlots() {
	_, err := s.gate.Submit(s.ctx, s.profileID, FileCandidate{FileName: "a.pdf", SizeBytes: 5}, models.CategoryArticlesOfIncorporation)
	s.Require().NoError(err)

	slots, err := s.gate.Slots(s.ctx, s.profileID)
	s.Require().NoError(err)
	s.Require().Len(slots, 5)
	s.Equal(models.StatusPending, slots[0].Status)
	s.Equal(models.StatusUnderReview, slots[1].Status)
	s.True(slots[1].Required)
	s.False(slots[4].Required)
}

func (s *GateSuite) TestUploadedFromUserAgent() {
	ctx := requestcontext.WithClientMetadata(s.ctx, "10.0.0.1",
		"Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0")
	rec, err := s.gate.Submit(ctx, s.profileID, FileCandidate{FileName: "a.pdf", SizeBytes: 5}, models.CategoryOther)
	s.Require().NoError(err)
	s.Contains(rec.UploadedFrom, "Firefox")
}

func (s *GateSuite) TestRequestTimeStampsUploadAndReview() {
	gateClock := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	var logs bytes.Buffer
	g := New(s.store, s.files,
		WithClock(func() time.Time { return gateClock }),
		WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))),
	)

	s.Run("gate clock without request time", func() {
		rec, err := g.Submit(s.ctx, s.profileID, FileCandidate{FileName: "a.pdf", SizeBytes: 5}, models.CategoryTaxRegistration)
		s.Require().NoError(err)
		s.Equal(gateClock, rec.UploadedAt)
	})

	s.Run("request time wins", func() {
		uploaded := time.Date(2026, 3, 4, 10, 0, 0, 0, time.FixedZone("BRT", -3*60*60))
		ctx := requestcontext.WithTime(s.ctx, uploaded)
		ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.7", "curl/8.0")
		rec, err := g.Submit(ctx, s.profileID, FileCandidate{FileName: "a.pdf", SizeBytes: 5}, models.CategoryOther)
		s.Require().NoError(err)
		s.Equal(uploaded.UTC(), rec.UploadedAt)

		reviewed := uploaded.Add(time.Hour)
		rec, err = g.Review(requestcontext.WithTime(ctx, reviewed), s.profileID, models.CategoryOther,
			models.Decision{Action: models.ActionApprove, Reviewer: "ops"})
		s.Require().NoError(err)
		s.Require().NotNil(rec.ReviewedAt)
		s.Equal(reviewed.UTC(), *rec.ReviewedAt)
		s.Contains(logs.String(), `"client_ip":"203.0.113.7"`)
	})
}

// slowStorage blocks Put calls whose body starts with the hold marker until
// release is closed.
type slowStorage struct {
	hold    []byte
	started chan struct{}
	release chan struct{}
	inner   *storage.Memory
}

func (s *slowStorage) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if bytes.HasPrefix(data, s.hold) {
		close(s.started)
		<-s.release
	}
	return s.inner.Put(ctx, key, contentType, bytes.NewReader(data))
}

func TestSubmit_LateUploadIsSuperseded(t *testing.T) {
	slowPDF := append([]byte("%PDF-1.7 slow\n"), pdfBytes[8:]...)
	files := &slowStorage{
		hold:    []byte("%PDF-1.7 slow"),
		started: make(chan struct{}),
		release: make(chan struct{}),
		inner:   storage.NewMemory("/files"),
	}
	st := store.NewInMemoryStore()
	g := New(st, files)
	profileID := id.NewProfileID()
	ctx := context.Background()

	type result struct {
		rec *models.Record
		err error
	}
	slowDone := make(chan result, 1)
	go func() {
		rec, err := g.Submit(ctx, profileID, FileCandidate{FileName: "old.pdf", Content: slowPDF}, models.CategoryTaxRegistration)
		slowDone <- result{rec, err}
	}()

	select {
	case <-files.started:
	case <-time.After(2 * time.Second):
		t.Fatal("slow upload never reached storage")
	}

	newer, err := g.Submit(ctx, profileID, FileCandidate{FileName: "new.pdf", Content: pdfBytes}, models.CategoryTaxRegistration)
	require.NoError(t, err)

	close(files.release)
	late := <-slowDone
	assert.True(t, errors.Is(late.err, ErrSuperseded))
	assert.Nil(t, late.rec)

	current, err := st.Get(ctx, profileID, models.CategoryTaxRegistration)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, current.ID)
	assert.Equal(t, "new.pdf", current.FileName)
}

func TestDescribeUserAgent(t *testing.T) {
	assert.Equal(t, "", DescribeUserAgent(""))
	desktop := DescribeUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	assert.Contains(t, desktop, "Chrome on ")
	assert.Contains(t, desktop, "Windows")
	assert.Contains(t, DescribeUserAgent("curl/8.4.0"), " on ")
}
