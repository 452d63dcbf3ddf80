package handler_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bhoomi/internal/audit"
	auditmem "bhoomi/internal/audit/store/memory"
	"bhoomi/internal/jwttoken"
	"bhoomi/internal/notify"
	"bhoomi/internal/registry/handler"
	"bhoomi/internal/registry/ledger"
	"bhoomi/internal/registry/service"
	httptransport "bhoomi/internal/transport/http"
)

const registrarRole = "land_authority"

type HandlerSuite struct {
	suite.Suite
	server         *httptest.Server
	citizenToken   string
	registrarToken string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	log := slog.New(slog.DiscardHandler)
	store := ledger.NewInMemory()
	svc := service.New(store, notify.NewSink(16, log), log,
		service.Config{RegistrarRole: registrarRole, UnfreezePolicy: service.UnfreezeStrict},
		service.WithAudit(audit.NewPublisher(auditmem.NewInMemoryStore())),
	)

	jwtService := jwttoken.NewService("test-signing-key", "bhoomi-test")
	router := httptransport.NewRouter(
		handler.New(svc, nil, log),
		jwttoken.NewMiddlewareAdapter(jwtService),
		log,
	)
	s.server = httptest.NewServer(router)
	s.T().Cleanup(s.server.Close)

	var err error
	s.citizenToken, err = jwtService.GenerateToken("citizen-1", "citizen", time.Hour)
	s.Require().NoError(err)
	s.registrarToken, err = jwtService.GenerateToken("registrar-1", registrarRole, time.Hour)
	s.Require().NoError(err)
}

func (s *HandlerSuite) do(method, path, token string, body any) (*http.Response, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	s.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (s *HandlerSuite) createParcel(id string) {
	resp, _ := s.do(http.MethodPost, "/parcels", s.citizenToken, map[string]any{
		"id": id, "area": 1000, "location": "Ward 7", "ownerId": "owner-1", "docHash": "h1",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
}

func (s *HandlerSuite) TestParcelLifecycle() {
	s.createParcel("P1")

	s.Run("query returns wire document", func() {
		resp, body := s.do(http.MethodGet, "/parcels/P1", s.citizenToken, nil)
		s.Equal(http.StatusOK, resp.StatusCode)
		s.Equal("parcel", body["docType"])
		s.Equal("ACTIVE", body["status"])
	})

	s.Run("exists probe", func() {
		resp, body := s.do(http.MethodGet, "/parcels/P1/exists", s.citizenToken, nil)
		s.Equal(http.StatusOK, resp.StatusCode)
		s.Equal(true, body["exists"])
	})

	s.Run("duplicate create conflicts", func() {
		resp, body := s.do(http.MethodPost, "/parcels", s.citizenToken, map[string]any{
			"id": "P1", "area": 1, "ownerId": "x",
		})
		s.Equal(http.StatusConflict, resp.StatusCode)
		s.Equal("already_exists", body["error"])
	})

	s.Run("absent parcel is 404", func() {
		resp, body := s.do(http.MethodGet, "/parcels/nope", s.citizenToken, nil)
		s.Equal(http.StatusNotFound, resp.StatusCode)
		s.Equal("not_found", body["error"])
	})

	s.Run("missing token is 401", func() {
		resp, _ := s.do(http.MethodGet, "/parcels/P1", "", nil)
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})

	s.Run("malformed body is 400", func() {
		req, err := http.NewRequest(http.MethodPost, s.server.URL+"/parcels", bytes.NewBufferString("{"))
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+s.citizenToken)
		resp, err := s.server.Client().Do(req)
		s.Require().NoError(err)
		resp.Body.Close()
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestDisputeRoutes() {
	s.createParcel("P2")

	resp, _ := s.do(http.MethodPost, "/disputes", s.citizenToken, map[string]any{
		"id": "D1", "assetId": "P2", "reason": "boundary",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp, body := s.do(http.MethodGet, "/parcels/P2", s.citizenToken, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("FROZEN", body["status"])

	resp, body = s.do(http.MethodPost, "/disputes/D1/resolve", s.citizenToken, map[string]any{})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("RESOLVED", body["status"])

	resp, body = s.do(http.MethodGet, "/parcels/P2", s.citizenToken, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("ACTIVE", body["status"])
}

func (s *HandlerSuite) TestRegistrarOnlyRoutes() {
	s.createParcel("P3")

	s.Run("citizen cannot add encumbrance", func() {
		resp, body := s.do(http.MethodPost, "/encumbrances", s.citizenToken, map[string]any{
			"id": "E1", "assetId": "P3", "kind": "MORTGAGE", "docHash": "h",
		})
		s.Equal(http.StatusForbidden, resp.StatusCode)
		s.Equal("unauthorized", body["error"])
	})

	s.Run("registrar can", func() {
		resp, body := s.do(http.MethodPost, "/encumbrances", s.registrarToken, map[string]any{
			"id": "E1", "assetId": "P3", "kind": "MORTGAGE", "docHash": "h",
		})
		s.Equal(http.StatusCreated, resp.StatusCode)
		s.Equal("ACTIVE", body["status"])
	})

	s.Run("unknown encumbrance kind is validation error", func() {
		resp, body := s.do(http.MethodPost, "/encumbrances", s.registrarToken, map[string]any{
			"id": "E2", "assetId": "P3", "kind": "HANDSHAKE",
		})
		s.Equal(http.StatusBadRequest, resp.StatusCode)
		s.Equal("validation_error", body["error"])
	})

	s.Run("status override", func() {
		resp, body := s.do(http.MethodPost, "/assets/P3/status", s.registrarToken, map[string]any{
			"status": "GOVERNMENT", "reason": "acquisition order 42",
		})
		s.Equal(http.StatusOK, resp.StatusCode)
		s.Equal("GOVERNMENT", body["status"])
	})

	s.Run("unknown status rejected at the boundary", func() {
		resp, _ := s.do(http.MethodPost, "/assets/P3/status", s.registrarToken, map[string]any{
			"status": "SOLD", "reason": "x",
		})
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestTransferRoutes() {
	s.createParcel("P4")

	resp, _ := s.do(http.MethodPost, "/transfers", s.citizenToken, map[string]any{
		"id": "T1", "assetId": "P4",
		"newOwners": []map[string]any{
			{"ownerId": "owner-2", "ownershipType": "FULL", "sharePercentage": 100},
		},
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	s.Run("approval is registrar only", func() {
		resp, _ := s.do(http.MethodPost, "/transfers/T1/approve", s.citizenToken, nil)
		s.Equal(http.StatusForbidden, resp.StatusCode)
	})

	s.Run("approval mutates ownership", func() {
		resp, body := s.do(http.MethodPost, "/transfers/T1/approve", s.registrarToken, nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		s.Equal("APPROVED", body["status"])

		resp, body = s.do(http.MethodGet, "/parcels/P4", s.citizenToken, nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		owners := body["owners"].([]any)
		s.Require().Len(owners, 1)
		s.Equal("owner-2", owners[0].(map[string]any)["ownerId"])
	})

	s.Run("re-approval is invalid state", func() {
		resp, body := s.do(http.MethodPost, "/transfers/T1/approve", s.registrarToken, nil)
		s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
		s.Equal("invalid_state", body["error"])
	})

	s.Run("reject requires a reason", func() {
		resp, _ := s.do(http.MethodPost, "/transfers/T1/reject", s.registrarToken, map[string]any{})
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestUnitsRoutes() {
	s.createParcel("P5")

	resp, _ := s.do(http.MethodPost, "/units", s.citizenToken, map[string]any{
		"id": "U1", "parentParcelId": "P5", "uds": 33.3, "ownerId": "owner-1",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp, body := s.do(http.MethodGet, "/parcels/P5/units", s.citizenToken, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	units := body["units"].([]any)
	s.Require().Len(units, 1)
	s.Equal("U1", units[0].(map[string]any)["id"])
}

func (s *HandlerSuite) TestHealthAndMetricsOpen() {
	resp, err := s.server.Client().Get(s.server.URL + "/healthz")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	resp, err = s.server.Client().Get(s.server.URL + "/metrics")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}
