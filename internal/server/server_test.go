package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/unify/internal/config"
	"github.com/agenthands/unify/internal/core/model"
)

type fixedResolver struct {
	verdict model.Verdict
}

func (r fixedResolver) Resolve(ctx context.Context, group model.CandidateGroup, records map[string]model.Record) model.Verdict {
	v := r.verdict
	v.GroupKey = group.Key
	return v
}

func newTestServer(t *testing.T, v model.Verdict) *Server {
	t.Helper()
	srv, err := NewServerWithResolver(config.Default(), fixedResolver{verdict: v}, zerolog.Nop())
	require.NoError(t, err)
	return srv
}

func TestDeduplicateEndpoint(t *testing.T) {
	srv := newTestServer(t, model.Verdict{
		MergeSets: []model.MergeSet{{RecordIDs: []string{"1", "2"}, Confidence: 0.95}},
	})
	router := srv.SetupRouter()

	body := `{"records": [
		{"id": "1", "attributes": {"full_name": "Robert Smith", "email": "r.smith@acme.com"}},
		{"id": "2", "attributes": {"full_name": "Bob Smith", "email": "r.smith@acme.com"}},
		{"id": "3", "attributes": {"full_name": "Alice Jones"}}
	]}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/deduplicate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"final_count":2`)
	assert.Contains(t, w.Body.String(), `"provenance":["1","2"]`)
}

func TestDeduplicateRejectsBadBody(t *testing.T) {
	srv := newTestServer(t, model.Verdict{})
	router := srv.SetupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/deduplicate", strings.NewReader("not json"))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeduplicateEmptyRecords(t *testing.T) {
	srv := newTestServer(t, model.Verdict{})
	router := srv.SetupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/deduplicate", strings.NewReader(`{"records": []}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, model.Verdict{})
	router := srv.SetupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
