// Package service implements the profile section controller. Each profile
// gets a session that owns the saved profile, open section drafts and the
// document list for the editing session. Components (the upload gate, the
// identity verifier and the address assistant) keep their own guards and are
// never called while a session lock is held.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"vitrine/internal/address/assistant"
	"vitrine/internal/completeness"
	docmodels "vitrine/internal/document/models"
	"vitrine/internal/document/gate"
	"vitrine/internal/events"
	idmodels "vitrine/internal/identity/models"
	"vitrine/internal/profile/metrics"
	"vitrine/internal/profile/models"
	id "vitrine/pkg/domain"
	dErrors "vitrine/pkg/domain-errors"
	"vitrine/pkg/platform/sentinel"
	"vitrine/pkg/requestcontext"
)

// ErrNotEditing is returned when a section operation needs editing mode.
var ErrNotEditing = errors.New("section is not being edited")

type ProfileStore interface {
	GetByUser(ctx context.Context, userID id.UserID) (*models.Profile, error)
	GetByID(ctx context.Context, profileID id.ProfileID) (*models.Profile, error)
	Save(ctx context.Context, p *models.Profile) error
}

type DocumentGate interface {
	Submit(ctx context.Context, profileID id.ProfileID, file gate.FileCandidate, category docmodels.Category) (*docmodels.Record, error)
	Review(ctx context.Context, profileID id.ProfileID, category docmodels.Category, decision docmodels.Decision) (*docmodels.Record, error)
	Records(ctx context.Context, profileID id.ProfileID) ([]*docmodels.Record, error)
}

type IdentityVerifier interface {
	Result(profileID id.ProfileID) idmodels.Result
	ObserveClaim(profileID id.ProfileID, claim idmodels.Claim) idmodels.Result
	Verify(ctx context.Context, profileID id.ProfileID, claim idmodels.Claim) (idmodels.Result, error)
}

type AddressLookup interface {
	assistant.Lookup
}

// SectionView is one section's mode and, while editing, its draft.
type SectionView struct {
	Section models.Section `json:"section"`
	Mode    models.Mode    `json:"mode"`
	Draft   models.Draft   `json:"draft,omitempty"`
}

// View is a consistent snapshot of a session.
type View struct {
	ProfileID     id.ProfileID       `json:"profile_id"`
	Status        models.Status      `json:"status"`
	Profile       *models.Profile    `json:"profile"`
	Sections      []SectionView      `json:"sections"`
	Documents     []docmodels.Slot   `json:"documents"`
	Identity      idmodels.Result    `json:"identity"`
	Completeness  completeness.State `json:"completeness"`
	AddressNotice string             `json:"address_notice,omitempty"`
}

type session struct {
	userID    id.UserID
	profileID id.ProfileID
	assistant *assistant.Assistant

	// claimMu orders draft changes to the identity section with the claim
	// observations they cause. Acquired before mu.
	claimMu sync.Mutex

	mu            sync.Mutex
	saved         *models.Profile
	drafts        map[models.Section]models.Draft
	documents     []*docmodels.Record
	docsSeq       uint64
	addressNotice string
	completeness  completeness.State
}

// Service is the profile section controller.
type Service struct {
	store     ProfileStore
	gate      DocumentGate
	verifier  IdentityVerifier
	lookup    AddressLookup
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time

	quietPeriod   time.Duration
	lookupTimeout time.Duration

	mu        sync.Mutex
	sessions  map[id.UserID]*session
	byProfile map[id.ProfileID]*session
	loads     singleflight.Group
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock sets the time source used when the context carries no request
// time.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAddressAssistant configures the debounce quiet period and per-lookup
// timeout of each session's address assistant.
func WithAddressAssistant(quietPeriod, timeout time.Duration) Option {
	return func(s *Service) {
		s.quietPeriod = quietPeriod
		s.lookupTimeout = timeout
	}
}

func New(store ProfileStore, docs DocumentGate, verifier IdentityVerifier, lookup AddressLookup, opts ...Option) *Service {
	s := &Service{
		store:     store,
		gate:      docs,
		verifier:  verifier,
		lookup:    lookup,
		publisher: events.Nop{},
		logger:    slog.Default(),
		now:       time.Now,
		sessions:  make(map[id.UserID]*session),
		byProfile: make(map[id.ProfileID]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View returns the user's session, loading it on first use.
func (s *Service) View(ctx context.Context, userID id.UserID) (*View, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// Close stops every session's address assistant.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.assistant.Close()
	}
}

func (s *Service) session(ctx context.Context, userID id.UserID) (*session, error) {
	if sess, ok := s.lookupSession(userID); ok {
		return sess, nil
	}
	v, err, _ := s.loads.Do(userID.String(), func() (any, error) {
		if sess, ok := s.lookupSession(userID); ok {
			return sess, nil
		}
		return s.load(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*session), nil
}

func (s *Service) lookupSession(userID id.UserID) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// load reads the saved profile and its documents concurrently and installs
// the session.
func (s *Service) load(ctx context.Context, userID id.UserID) (*session, error) {
	profileID := id.ProfileIDForUser(userID)
	var (
		profile *models.Profile
		records []*docmodels.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.store.GetByUser(gctx, userID)
		if errors.Is(err, sentinel.ErrNotFound) {
			profile = models.New(userID, s.timestamp(ctx))
			return nil
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		r, err := s.gate.Records(gctx, profileID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load documents")
		}
		records = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sess := &session{
		userID:    userID,
		profileID: profile.ID,
		saved:     profile,
		drafts:    make(map[models.Section]models.Draft),
		documents: records,
	}
	var aopts []assistant.Option
	aopts = append(aopts, assistant.WithLogger(s.logger))
	if s.quietPeriod > 0 {
		aopts = append(aopts, assistant.WithQuietPeriod(s.quietPeriod))
	}
	if s.lookupTimeout > 0 {
		aopts = append(aopts, assistant.WithTimeout(s.lookupTimeout))
	}
	sess.assistant = assistant.New(s.lookup, s.resolutionSink(sess), aopts...)
	sess.completeness = completeness.Compute(snapshotOf(profile, records))

	s.verifier.ObserveClaim(sess.profileID, profile.Identity.Claim())

	s.mu.Lock()
	s.sessions[userID] = sess
	s.byProfile[sess.profileID] = sess
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.IncrementActiveSessions()
	}
	s.logger.InfoContext(ctx, "profile session loaded",
		"request_id", requestcontext.RequestID(ctx),
		"profile_id", sess.profileID.String(),
		"documents", len(records),
	)
	return sess, nil
}

// view snapshots the session. The verifier is read before the session lock
// is taken.
func (s *Service) view(sess *session) *View {
	identity := s.verifier.Result(sess.profileID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	v := &View{
		ProfileID:     sess.profileID,
		Status:        sess.saved.Status,
		Profile:       sess.saved.Clone(),
		Documents:     docmodels.Slots(sess.documents),
		Identity:      identity,
		Completeness:  sess.completeness,
		AddressNotice: sess.addressNotice,
	}
	for _, section := range models.Sections() {
		sv := SectionView{Section: section, Mode: models.ModeViewing}
		if d, ok := sess.drafts[section]; ok {
			sv.Mode = models.ModeEditing
			sv.Draft = copyDraft(sess.saved, d)
		}
		v.Sections = append(v.Sections, sv)
	}
	return v
}

// recomputeLocked refreshes the derived completeness state. Callers hold
// sess.mu and have applied every mutation of the transaction.
func (s *Service) recomputeLocked(sess *session) {
	sess.completeness = completeness.Compute(snapshotOf(sess.saved, sess.documents))
}

func (s *Service) timestamp(ctx context.Context) time.Time {
	return requestcontext.NowOr(ctx, s.now)
}

func (s *Service) publish(ctx context.Context, t events.Type, profileID id.ProfileID, data map[string]any) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:       t,
		ProfileID:  profileID,
		OccurredAt: s.timestamp(ctx),
		Data:       data,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to publish profile event",
			"request_id", requestcontext.RequestID(ctx),
			"event_type", string(t),
			"error", err,
		)
	}
}

func snapshotOf(p *models.Profile, records []*docmodels.Record) completeness.Snapshot {
	return completeness.Snapshot{
		Name:         p.Basic.Name,
		Email:        p.Basic.Email,
		Phone:        p.Basic.Phone,
		PhotoURL:     p.Photo.PhotoURL,
		CompanyName:  p.Company.CompanyName,
		Segment:      p.Company.Segment,
		Street:       p.Address.Street,
		ContactCount: len(p.Contacts),
		ServiceCount: len(p.Services),
		Documents:    records,
	}
}

// copyDraft returns a draft that shares no memory with d.
func copyDraft(saved *models.Profile, d models.Draft) models.Draft {
	scratch := saved.Clone()
	d.ApplyTo(scratch)
	return models.DraftFrom(scratch, d.Section())
}

func notEditing(section models.Section) error {
	return dErrors.Wrap(ErrNotEditing, dErrors.CodeInvalidState, string(section)+" section is not being edited")
}
