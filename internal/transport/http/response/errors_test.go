package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"wedding-venues-api/internal/domain"
)

func TestStatus(t *testing.T) {
	cases := map[error]int{
		domain.ErrValidation:                       400,
		domain.ErrDuplicateEmail:                   400,
		domain.ErrInvalidCredentials:               400,
		domain.ErrInvalidToken:                     400,
		domain.ErrInvalidSignature:                 400,
		domain.ErrUnauthenticated:                  401,
		domain.ErrForbidden:                        401,
		domain.ErrPaymentRequired:                  401,
		domain.ErrNotFound:                         404,
		fmt.Errorf("wrap: %w", domain.ErrNotFound): 404,
		domain.E(domain.ErrForbidden, "nope"):      401,
		errors.New("connection refused"):           500,
	}
	for err, want := range cases {
		assert.Equal(t, want, Status(err), err.Error())
	}
}

func TestFailHidesUnexpectedErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.ErrorLevel)
	l := zap.New(core)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	Fail(c, l, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "request failed", logs.All()[0].Message)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	Fail(c, l, domain.E(domain.ErrNotFound, "Venue not found..."))

	assert.Equal(t, http.StatusNotFound, w.Code)
	var r Resp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	assert.Equal(t, 404, r.Code)
	assert.Equal(t, "Venue not found...", r.Msg)
	assert.Equal(t, 1, logs.Len())
}
