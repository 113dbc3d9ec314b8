package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorHidesInternalMessages(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/orders", nil)

	RespondError(c, errors.New("pq: connection refused on 10.0.0.5"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, internalDetail, body.Detail)
	require.Equal(t, "/api/orders", body.Instance)
}

func TestChainedResponderUsesFirstMatchingMapper(t *testing.T) {
	sentinel := errors.New("boom")
	r := NewChainedResponder("https://example.test",
		func(err error) (ProblemDetail, bool) {
			if errors.Is(err, sentinel) {
				return ErrConflict.WithDetail("mapped"), true
			}
			return ProblemDetail{}, false
		},
	)

	problem, ok := r.Map(sentinel)
	require.True(t, ok)
	require.Equal(t, http.StatusConflict, problem.Status)

	_, ok = r.Map(errors.New("other"))
	require.False(t, ok)

	problem, ok = r.Map(ErrForbidden)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, problem.Status)
}
