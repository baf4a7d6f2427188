package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuildAppolis/env-manager-sub001/internal/models"
	"github.com/BuildAppolis/env-manager-sub001/pkg/api"
)

func setRequest(t *testing.T, req api.SetVariableRequest) *http.Request {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, "/api/v1/variables", bytes.NewReader(body))
}

func TestVariablesHandler_SetAndList(t *testing.T) {
	db := newTestDB(t)
	handler := NewVariablesHandler(setupTestLogger(), db)

	w := httptest.NewRecorder()
	handler.Set(w, setRequest(t, api.SetVariableRequest{
		Name:        "DATABASE_URL",
		Value:       "postgres://localhost/dev",
		Category:    "database",
		Description: "primary connection string",
	}))
	require.Equal(t, http.StatusOK, w.Code)

	var created models.Variable
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, "DATABASE_URL", created.Name)
	assert.Equal(t, "postgres://localhost/dev", created.Value)
	assert.Equal(t, "database", created.Category)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/variables", nil)
	w = httptest.NewRecorder()
	handler.List(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var list api.VariablesResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Equal(t, models.DefaultBranch, list.Branch)
	require.Len(t, list.Variables, 1)
	assert.Equal(t, "DATABASE_URL", list.Variables[0].Name)
}

func TestVariablesHandler_ListBranchFallback(t *testing.T) {
	db := newTestDB(t)
	handler := NewVariablesHandler(setupTestLogger(), db)

	w := httptest.NewRecorder()
	handler.Set(w, setRequest(t, api.SetVariableRequest{Name: "API_URL", Value: "https://prod"}))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.Set(w, setRequest(t, api.SetVariableRequest{
		Name:   "API_URL",
		Value:  "https://staging",
		Branch: "feature/checkout",
	}))
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/variables?branch=feature/checkout", nil)
	w = httptest.NewRecorder()
	handler.List(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var list api.VariablesResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list.Variables, 1)
	assert.Equal(t, "https://staging", list.Variables[0].Value)
}

func TestVariablesHandler_SetInvalidName(t *testing.T) {
	handler := NewVariablesHandler(setupTestLogger(), newTestDB(t))

	w := httptest.NewRecorder()
	handler.Set(w, setRequest(t, api.SetVariableRequest{Name: "lower-case", Value: "x"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVariablesHandler_Delete(t *testing.T) {
	db := newTestDB(t)
	handler := NewVariablesHandler(setupTestLogger(), db)

	w := httptest.NewRecorder()
	handler.Set(w, setRequest(t, api.SetVariableRequest{Name: "TO_DELETE", Value: "x"}))
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/variables/TO_DELETE", nil)
	req.SetPathValue("name", "TO_DELETE")
	w = httptest.NewRecorder()
	handler.Delete(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.DeleteVariableResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Deleted)

	// Deleting again reports that nothing existed
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/variables/TO_DELETE", nil)
	req.SetPathValue("name", "TO_DELETE")
	w = httptest.NewRecorder()
	handler.Delete(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Deleted)
}

func TestVariablesHandler_HistoryNewestFirst(t *testing.T) {
	db := newTestDB(t)
	handler := NewVariablesHandler(setupTestLogger(), db)

	w := httptest.NewRecorder()
	handler.Set(w, setRequest(t, api.SetVariableRequest{Name: "FIRST", Value: "1"}))
	require.Equal(t, http.StatusOK, w.Code)
	w = httptest.NewRecorder()
	handler.Set(w, setRequest(t, api.SetVariableRequest{Name: "SECOND", Value: "2"}))
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	w = httptest.NewRecorder()
	handler.History(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.HistoryResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.History, 2)
	assert.Equal(t, "SECOND", resp.History[0].VariableName)
	assert.Equal(t, "FIRST", resp.History[1].VariableName)
}
