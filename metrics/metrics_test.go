package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerServesRegistry(t *testing.T) {
	BuildsTotal.Inc()
	VerificationsTotal.WithLabelValues(OutcomeCompliant).Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "smt_builds_total")
	assert.Contains(t, w.Body.String(), "smt_verifications_total")
}
