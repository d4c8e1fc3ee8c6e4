package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	apperr "github.com/yungbote/autocrm-backend/internal/pkg/errors"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("get: %w", apperr.ErrNotFound), http.StatusNotFound, "not_found"},
		{apperr.ErrForbidden, http.StatusForbidden, "forbidden"},
		{apperr.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{fmt.Errorf("%w: title", apperr.ErrInvalidArgument), http.StatusBadRequest, "invalid_argument"},
		{apperr.ErrConflict, http.StatusConflict, "conflict"},
		{apperr.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
		{errors.New("db down"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		got := Classify(tc.err)
		if got.Status != tc.status || got.Code != tc.code {
			t.Errorf("Classify(%v) = %d %s, want %d %s", tc.err, got.Status, got.Code, tc.status, tc.code)
		}
	}
}

func TestRespondServiceErrorHidesInternalMessages(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondServiceError(c, errors.New("pq: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Message != "internal server error" || body.Error.Code != "internal" {
		t.Fatalf("unexpected body %#v", body)
	}
}
