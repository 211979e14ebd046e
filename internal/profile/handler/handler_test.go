package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vitrine/internal/address/lookup"
	docmodels "vitrine/internal/document/models"
	"vitrine/internal/document/gate"
	"vitrine/internal/profile/handler/mocks"
	"vitrine/internal/profile/models"
	"vitrine/internal/profile/service"
	id "vitrine/pkg/domain"
	dErrors "vitrine/pkg/domain-errors"
	"vitrine/pkg/platform/middleware/admin"
	"vitrine/pkg/testutil"
)

const adminToken = "s3cret"

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  http.Handler
	userID  id.UserID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.service, logger)

	r := chi.NewRouter()
	h.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(admin.RequireReviewer(adminToken, logger))
		h.RegisterReviewer(r)
	})
	s.router = r
	s.userID = id.UserID(uuid.New())
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.WithUserID(req, s.userID.String()))
}

func (s *HandlerSuite) view() *service.View {
	return &service.View{ProfileID: id.ProfileIDForUser(s.userID), Status: models.StatusDraft}
}

func (s *HandlerSuite) TestView() {
	s.service.EXPECT().View(gomock.Any(), s.userID).Return(s.view(), nil)

	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/profiles/me"))

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "profile_id", id.ProfileIDForUser(s.userID).String())
}

func (s *HandlerSuite) TestMissingUserContext() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/profiles/me"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")
}

func (s *HandlerSuite) TestSectionRoutes() {
	s.Run("unknown section is rejected before the service", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodPost, "/profiles/me/sections/billing/edit"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("edit", func() {
		s.service.EXPECT().Edit(gomock.Any(), s.userID, models.SectionAddress).Return(s.view(), nil)
		rr := s.do(testutil.NewRequest(s.T(), http.MethodPost, "/profiles/me/sections/address/edit"))
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("draft is decoded by section", func() {
		s.service.EXPECT().UpdateDraft(gomock.Any(), s.userID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ id.UserID, d models.Draft) (*service.View, error) {
				company, ok := d.(*models.CompanyDraft)
				s.Require().True(ok)
				s.Equal("Acme", company.CompanyName)
				return s.view(), nil
			})
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPatch, "/profiles/me/sections/company/draft",
			map[string]string{"company_name": "Acme", "segment": "logistics"}))
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("malformed draft", func() {
		rr := s.do(testutil.NewRequestWithBody(s.T(), http.MethodPatch, "/profiles/me/sections/basic/draft", `{"name":`))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("save validation failure", func() {
		s.service.EXPECT().Save(gomock.Any(), s.userID, models.SectionBasic).
			Return(nil, dErrors.New(dErrors.CodeValidation, "email must be a valid email"))
		rr := s.do(testutil.NewRequest(s.T(), http.MethodPut, "/profiles/me/sections/basic"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "validation_error")
	})

	s.Run("cancel when not editing", func() {
		s.service.EXPECT().Cancel(gomock.Any(), s.userID, models.SectionServices).
			Return(nil, dErrors.Wrap(service.ErrNotEditing, dErrors.CodeInvalidState, "services section is not being edited"))
		rr := s.do(testutil.NewRequest(s.T(), http.MethodPost, "/profiles/me/sections/services/cancel"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "invalid_state")
	})
}

func multipartUpload(s *HandlerSuite, path, fileName, contentType string, content []byte) *http.Request {
	return testutil.NewMultipartRequest(s.T(), http.MethodPost, path, testutil.FilePart{
		FileName: fileName, ContentType: contentType, Content: content,
	})
}

func (s *HandlerSuite) TestUpload() {
	s.Run("passes the file to the service", func() {
		content := []byte("%PDF-1.4\n")
		s.service.EXPECT().UploadDocument(gomock.Any(), s.userID, docmodels.CategoryTaxRegistration, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ id.UserID, _ docmodels.Category, f gate.FileCandidate) (*service.View, error) {
				s.Equal("cnpj.pdf", f.FileName)
				s.Equal("application/pdf", f.DeclaredType)
				s.Equal(int64(len(content)), f.SizeBytes)
				s.Equal(content, f.Content)
				return s.view(), nil
			})
		rr := s.do(multipartUpload(s, "/profiles/me/documents/tax-registration", "cnpj.pdf", "application/pdf", content))
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("gate rejection maps to 415", func() {
		s.service.EXPECT().UploadDocument(gomock.Any(), s.userID, docmodels.CategoryOther, gomock.Any()).
			Return(nil, dErrors.Wrap(gate.ErrUnsupportedType, dErrors.CodeUnsupportedType, "file type not allowed"))
		rr := s.do(multipartUpload(s, "/profiles/me/documents/other", "run.exe", "application/x-msdownload", []byte("MZ")))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnsupportedMediaType, "unsupported_type")
	})

	s.Run("unknown category", func() {
		rr := s.do(multipartUpload(s, "/profiles/me/documents/selfie", "a.png", "image/png", []byte("x")))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("missing file part", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/profiles/me/documents/other", map[string]string{}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *HandlerSuite) TestReview() {
	profileID := id.NewProfileID()
	path := "/profiles/" + profileID.String() + "/documents/proof-of-address/review"

	s.Run("requires reviewer access", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]string{"action": "approve"}))
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	})

	s.Run("reviewer token subject is recorded", func() {
		reviewer := uuid.New().String()
		s.service.EXPECT().ReviewDocument(gomock.Any(), profileID, docmodels.CategoryProofOfAddress, docmodels.Decision{
			Action: docmodels.ActionApprove, Reviewer: reviewer,
		}).Return(&docmodels.Record{Status: docmodels.StatusApproved}, nil)

		req := testutil.WithReviewer(testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]string{"action": " Approve "}), reviewer)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "status", "approved")
	})

	s.Run("admin token reviews as back-office", func() {
		s.service.EXPECT().ReviewDocument(gomock.Any(), profileID, docmodels.CategoryProofOfAddress, docmodels.Decision{
			Action: docmodels.ActionReject, Reason: "expired", Reviewer: "back-office",
		}).Return(&docmodels.Record{Status: docmodels.StatusRejected}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]string{"action": "reject", "reason": "expired"})
		req.Header.Set("X-Admin-Token", adminToken)
		testutil.AssertStatusOK(s.T(), testutil.DoRequest(s.router, req))
	})

	s.Run("rejection needs a reason", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]string{"action": "reject"})
		req.Header.Set("X-Admin-Token", adminToken)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "validation_error")
	})

	s.Run("invalid profile id", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/profiles/nope/documents/other/review", map[string]string{"action": "approve"})
		req.Header.Set("X-Admin-Token", adminToken)
		testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusBadRequest)
	})
}

func (s *HandlerSuite) TestIdentityAndSubmit() {
	s.service.EXPECT().VerifyIdentity(gomock.Any(), s.userID).Return(s.view(), nil)
	testutil.AssertStatusOK(s.T(), s.do(testutil.NewRequest(s.T(), http.MethodPost, "/profiles/me/identity/verify")))

	s.service.EXPECT().SubmitAccount(gomock.Any(), s.userID).
		Return(nil, dErrors.New(dErrors.CodePolicyViolation, "identity must be verified before submitting the account"))
	rr := s.do(testutil.NewRequest(s.T(), http.MethodPost, "/profiles/me/submit"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusPreconditionFailed, "policy_violation")
}

func (s *HandlerSuite) TestPostalCode() {
	s.Run("debounced input", func() {
		s.service.EXPECT().PostalCodeInput(gomock.Any(), s.userID, "01310-1").Return(s.view(), nil)
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/profiles/me/address/postal-code",
			map[string]string{"postal_code": "01310-1"}))
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("immediate resolution", func() {
		s.service.EXPECT().ResolvePostalCode(gomock.Any(), s.userID, "01310100").Return(s.view(), nil)
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/profiles/me/address/postal-code/resolve",
			map[string]string{"postal_code": "01310100"}))
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("direct lookup", func() {
		s.service.EXPECT().LookupPostalCode(gomock.Any(), "01310100").
			Return(&lookup.Address{Street: "Avenida Paulista", City: "São Paulo", State: "SP"}, nil)
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/postal-codes/01310100"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "street", "Avenida Paulista")
	})

	s.Run("direct lookup not found", func() {
		s.service.EXPECT().LookupPostalCode(gomock.Any(), "99999999").
			Return(nil, dErrors.Wrap(lookup.ErrPostalCodeNotFound, dErrors.CodeNotFound, "postal code not found"))
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/postal-codes/99999999"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}
