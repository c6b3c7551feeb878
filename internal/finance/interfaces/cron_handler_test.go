package interfaces

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sebuszqo/FamilyFinance/internal/api"
)

func TestMaterialize_RequiresSecret(t *testing.T) {
	materializer := &MockMaterializer{}
	handler := NewCronHandler(materializer, "s3cret", api.RespondJSON, api.RespondError)

	req := httptest.NewRequest(http.MethodPost, "/api/cron/materialize", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	handler.Materialize(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, materializer.calls)
}

func TestMaterialize_Success(t *testing.T) {
	materializer := &MockMaterializer{}
	handler := NewCronHandler(materializer, "s3cret", api.RespondJSON, api.RespondError)

	req := httptest.NewRequest(http.MethodPost, "/api/cron/materialize", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	w := httptest.NewRecorder()
	handler.Materialize(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"recurring_posted":3`)
	assert.Equal(t, 1, materializer.calls)
}

func TestMaterialize_NotConfigured(t *testing.T) {
	handler := NewCronHandler(&MockMaterializer{}, "", api.RespondJSON, api.RespondError)

	w := httptest.NewRecorder()
	handler.Materialize(w, httptest.NewRequest(http.MethodPost, "/api/cron/materialize", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMaterialize_Failure(t *testing.T) {
	handler := NewCronHandler(&MockMaterializer{fail: true}, "s3cret", api.RespondJSON, api.RespondError)

	req := httptest.NewRequest(http.MethodPost, "/api/cron/materialize", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	w := httptest.NewRecorder()
	handler.Materialize(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
