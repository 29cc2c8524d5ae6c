package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"permitflow/internal/audit"
	"permitflow/internal/notification/dispatcher"
	"permitflow/internal/permit/cascade"
	"permitflow/internal/permit/models"
	"permitflow/internal/permit/service"
	"permitflow/internal/permit/status"
	"permitflow/internal/permit/store"
	"permitflow/internal/permit/subtype"
	"permitflow/pkg/requestcontext"
)

type HandlerSuite struct {
	suite.Suite
	router  http.Handler
	permits *service.Service
	queue   *dispatcher.MemoryQueue
	citizen uuid.UUID
	admin   uuid.UUID
	types   map[models.Kind]uuid.UUID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := store.NewInMemory()
	s.permits = service.New(client, client,
		subtype.New(client, client),
		cascade.New(client, cascade.WithTransaction(client)),
		service.WithAuditPublisher(audit.NewPublisher(client)),
		service.WithLogger(logger),
	)
	s.queue = dispatcher.NewMemoryQueue(8)
	controller := status.New(client, s.queue, status.WithLogger(logger))

	s.Require().NoError(s.permits.SeedPermitTypes(context.Background(), service.DefaultPermitTypes))
	types, err := s.permits.ListPermitTypes(context.Background())
	s.Require().NoError(err)
	s.types = map[models.Kind]uuid.UUID{}
	for _, t := range types {
		s.types[t.Kind] = t.ID
	}

	s.citizen, s.admin = uuid.New(), uuid.New()
	r := chi.NewRouter()
	r.Use(s.fakeAuth)
	New(s.permits, controller, logger).Register(r)
	s.router = r
}

// fakeAuth reads the actor from test headers in place of token validation.
func (s *HandlerSuite) fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get("X-Test-User"))
		if err == nil {
			role := requestcontext.Role(r.Header.Get("X-Test-Role"))
			r = r.WithContext(requestcontext.WithActor(r.Context(), id, role))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HandlerSuite) do(method, path string, actor uuid.UUID, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != uuid.Nil {
		req.Header.Set("X-Test-User", actor.String())
		role := requestcontext.RoleCitizen
		if actor == s.admin {
			role = requestcontext.RoleAdmin
		}
		req.Header.Set("X-Test-Role", string(role))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) decode(w *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v))
}

func (s *HandlerSuite) createMotorela() uuid.UUID {
	w := s.do(http.MethodPost, "/permits", s.citizen, map[string]any{
		"permit_type_id": s.types[models.KindMotorela],
		"address":        "Zone 2, Carmen",
		"details": map[string]any{
			"motorela": map[string]any{
				"plate_no":         "ABC-1234",
				"operator":         "Juan Dela Cruz",
				"operator_address": "Zone 2, Carmen",
				"make":             "Honda TMX",
				"motor_no":         "MTR-5521",
				"chassis_no":       "CHS-9087",
			},
		},
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Permit models.Permit `json:"permit"`
	}
	s.decode(w, &resp)
	return resp.Permit.ID
}

// =============================================================================
// Citizen routes
// =============================================================================

func (s *HandlerSuite) TestCreateAndGet() {
	id := s.createMotorela()

	w := s.do(http.MethodGet, "/permits/"+id.String(), s.citizen, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var view struct {
		ID       uuid.UUID      `json:"id"`
		Status   string         `json:"status"`
		Motorela map[string]any `json:"motorela"`
	}
	s.decode(w, &view)
	s.Equal(id, view.ID)
	s.Equal("pending", view.Status)
	s.Equal("ABC-1234", view.Motorela["plate_no"])

	s.Run("other citizens see nothing", func() {
		w := s.do(http.MethodGet, "/permits/"+id.String(), uuid.New(), nil)
		s.Equal(http.StatusNotFound, w.Code)
	})
}

func (s *HandlerSuite) TestCreateValidation() {
	s.Run("missing subtype field", func() {
		w := s.do(http.MethodPost, "/permits", s.citizen, map[string]any{
			"permit_type_id": s.types[models.KindMotorela],
			"details":        map[string]any{"motorela": map[string]any{"plate_no": "ABC-1234"}},
		})
		s.Equal(http.StatusUnprocessableEntity, w.Code)
	})

	s.Run("malformed body", func() {
		req := httptest.NewRequest(http.MethodPost, "/permits", bytes.NewBufferString("{"))
		req.Header.Set("X-Test-User", s.citizen.String())
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("bad type id", func() {
		w := s.do(http.MethodPost, "/permits", s.citizen, map[string]any{"permit_type_id": "motorela"})
		s.Equal(http.StatusUnprocessableEntity, w.Code)
	})

	s.Run("anonymous", func() {
		w := s.do(http.MethodPost, "/permits", uuid.Nil, map[string]any{})
		s.Equal(http.StatusUnauthorized, w.Code)
	})
}

func (s *HandlerSuite) TestListAndTypes() {
	s.createMotorela()

	w := s.do(http.MethodGet, "/permits", s.citizen, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var mine struct {
		Permits []map[string]any `json:"permits"`
	}
	s.decode(w, &mine)
	s.Len(mine.Permits, 1)

	w = s.do(http.MethodGet, "/permit-types", s.citizen, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var types struct {
		PermitTypes []models.PermitType `json:"permit_types"`
	}
	s.decode(w, &types)
	s.Len(types.PermitTypes, len(service.DefaultPermitTypes))
}

func (s *HandlerSuite) TestRecordsRoutes() {
	id := s.createMotorela()

	w := s.do(http.MethodPost, "/permits/"+id.String()+"/documents", s.citizen, map[string]any{"file_path": "docs/orcr.pdf"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var doc models.Document
	s.decode(w, &doc)

	w = s.do(http.MethodPatch, "/admin/documents/"+doc.ID.String(), s.admin, map[string]any{"status": "rejected", "rejection_reason": "blurry"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &doc)
	s.Equal(models.DocumentRejected, doc.Status)
	s.Require().NotNil(doc.RejectionReason)

	w = s.do(http.MethodPost, "/permits/"+id.String()+"/payments", s.citizen, map[string]any{"amount": 350, "payment_method": "gcash"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var payment models.Payment
	s.decode(w, &payment)
	s.Equal(models.PaymentPending, payment.PaymentStatus)

	w = s.do(http.MethodPatch, "/admin/payments/"+payment.ID.String(), s.admin, map[string]any{"payment_status": "completed"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/permits/"+id.String()+"/images", s.citizen, map[string]any{"file_name": "front.jpg", "file_path": "img/front.jpg", "mime_type": "image/jpeg", "size_bytes": 2048})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
}

// =============================================================================
// Admin routes
// =============================================================================

func (s *HandlerSuite) TestAdminRoutesRequireAdmin() {
	id := s.createMotorela()
	w := s.do(http.MethodPatch, "/admin/permits/"+id.String()+"/status", s.citizen, map[string]any{"status": "approved"})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/admin/permits", s.citizen, nil)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *HandlerSuite) TestApproveLocksPermit() {
	id := s.createMotorela()

	w := s.do(http.MethodPatch, "/admin/permits/"+id.String()+"/status", s.admin, map[string]any{"status": "approved"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Permit         models.Permit `json:"permit"`
		PreviousStatus string        `json:"previous_status"`
		JobID          *uuid.UUID    `json:"dispatch_job_id"`
	}
	s.decode(w, &res)
	s.Equal(models.StatusApproved, res.Permit.Status)
	s.Equal("pending", res.PreviousStatus)
	s.NotNil(res.JobID)
	s.Equal(1, s.queue.Len())

	w = s.do(http.MethodDelete, "/permits/"+id.String(), s.citizen, nil)
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodPut, "/permits/"+id.String(), s.citizen, map[string]any{"address": "elsewhere"})
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodPatch, "/admin/permits/"+id.String()+"/status", s.admin, map[string]any{"status": "archived"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlerSuite) TestDeletePending() {
	id := s.createMotorela()

	w := s.do(http.MethodDelete, "/permits/"+id.String(), s.citizen, nil)
	s.Require().Equal(http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/permits/"+id.String(), s.admin, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/permits/not-a-uuid", s.citizen, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}
