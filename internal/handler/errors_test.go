package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbay/fulfillment/internal/domain/fault"
)

func TestWriteError_KindMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   fault.Kind
		wantMsg    string
	}{
		{"invalid input", fault.Invalid("cart is empty"), http.StatusBadRequest, fault.KindInvalidInput, "cart is empty"},
		{"not found", fault.NotFound("order not found"), http.StatusNotFound, fault.KindNotFound, "order not found"},
		{"forbidden", fault.Forbidden("forbidden"), http.StatusForbidden, fault.KindForbidden, "forbidden"},
		{"insufficient stock", fault.InsufficientStock("insufficient stock"), http.StatusBadRequest, fault.KindInsufficientStock, "insufficient stock"},
		{"invalid transition", fault.InvalidTransition("cannot cancel"), http.StatusConflict, fault.KindInvalidTransition, "cannot cancel"},
		{"conflict", fault.Conflict("concurrent update"), http.StatusConflict, fault.KindConflict, "concurrent update"},
		{"configuration", fault.Configuration("missing seed"), http.StatusInternalServerError, fault.KindConfiguration, "internal error"},
		{"data integrity", fault.DataIntegrity("bad date"), http.StatusInternalServerError, fault.KindDataIntegrity, "internal error"},
		{"unclassified", errors.New("pg down"), http.StatusInternalServerError, fault.KindInternal, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			writeError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Code)
			assert.Equal(t, string(tt.wantKind), body.Kind)
			assert.Equal(t, tt.wantMsg, body.Message)
		})
	}
}

func TestWriteError_WrappedFaultSurvivesChain(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	err := errors.Wrap(fault.NotFound("order not found"), "load order")
	writeError(rec, req, err)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(fault.KindNotFound), body.Kind)
}

func TestWriteError_KindDisambiguatesSharedStatus(t *testing.T) {
	// insufficient_stock and invalid_input share 400, invalid_transition and
	// conflict share 409; the body kind tells them apart.
	pairs := []struct {
		a, b   error
		aK, bK fault.Kind
		status int
	}{
		{
			fault.InsufficientStock("insufficient stock for product x"), fault.Invalid("cart is empty"),
			fault.KindInsufficientStock, fault.KindInvalidInput,
			http.StatusBadRequest,
		},
		{
			fault.InvalidTransition("cannot cancel"), fault.Conflict("concurrent update"),
			fault.KindInvalidTransition, fault.KindConflict,
			http.StatusConflict,
		},
	}
	for _, p := range pairs {
		for _, c := range []struct {
			err  error
			kind fault.Kind
		}{{p.a, p.aK}, {p.b, p.bK}} {
			rec := httptest.NewRecorder()
			writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), c.err)

			assert.Equal(t, p.status, rec.Code)
			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, string(c.kind), body.Kind)
		}
	}
}

func TestIdentityMiddleware(t *testing.T) {
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFromContext(r.Context())
		writeJSON(w, http.StatusOK, map[string]string{"user": id.UserID, "role": id.Role})
	})

	t.Run("headers propagate", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-ID", "u1")
		req.Header.Set("X-User-Role", "admin")

		WithIdentity(echo).ServeHTTP(rec, req)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "u1", body["user"])
		assert.Equal(t, "admin", body["role"])
	})

	t.Run("require user rejects anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		WithIdentity(RequireUser(echo)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var body errorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, string(fault.KindForbidden), body.Kind)
	})

	t.Run("require admin rejects plain user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-ID", "u1")

		WithIdentity(RequireAdmin(echo)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("require admin accepts admin", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-ID", "u1")
		req.Header.Set("X-User-Role", RoleAdmin)

		WithIdentity(RequireAdmin(echo)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
