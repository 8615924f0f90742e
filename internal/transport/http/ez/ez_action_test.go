package ez

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wedding-venues-api/internal/domain"
	resp "wedding-venues-api/internal/transport/http/response"
)

func init() { gin.SetMode(gin.TestMode) }

type signup struct {
	Name   string   `json:"name" binding:"required,min=3"`
	Email  string   `json:"email" binding:"required,email"`
	Tags   []string `json:"tags" binding:"required,min=1"`
	Secret string   `json:"-"`
}

func call(r http.Handler, method, path, body string) (int, resp.Resp) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	var out resp.Resp
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func TestRegisterActionBindsAndMapsErrors(t *testing.T) {
	r := gin.New()
	e := New(r.Group(""), nil, zap.NewNop())
	RegisterAction(e, Action[signup, gin.H]{
		Method: http.MethodPost,
		Path:   "/signup",
		Binder: BindJSON,
		Handler: func(c *gin.Context, in *signup) (gin.H, error) {
			if in.Name == "taken" {
				return nil, domain.E(domain.ErrDuplicateEmail, "Email is already taken...")
			}
			if in.Name == "boom" {
				return nil, errors.New("disk full")
			}
			return gin.H{"name": in.Name}, nil
		},
	})

	code, out := call(r, http.MethodPost, "/signup", `{"name":"Ann","email":"a@example.com","tags":["x"]}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, resp.CodeOK, out.Code)

	code, out = call(r, http.MethodPost, "/signup", `{"name":"An","email":"a@example.com","tags":["x"]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, `"name" length must be at least 3 characters long`, out.Msg)

	_, out = call(r, http.MethodPost, "/signup", `{"name":"Ann","email":"nope","tags":["x"]}`)
	assert.Equal(t, `"email" must be a valid email`, out.Msg)

	_, out = call(r, http.MethodPost, "/signup", `{"name":"Ann","email":"a@example.com","tags":[]}`)
	assert.Equal(t, `"tags" must contain at least 1 items`, out.Msg)

	code, out = call(r, http.MethodPost, "/signup", `{"name":"taken","email":"a@example.com","tags":["x"]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Email is already taken...", out.Msg)

	code, out = call(r, http.MethodPost, "/signup", `{"name":"boom","email":"a@example.com","tags":["x"]}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.NotContains(t, out.Msg, "disk")
}

func TestGuardRunsBeforeBinding(t *testing.T) {
	r := gin.New()
	e := New(r.Group(""), func(c *gin.Context) { c.Next() }, zap.NewNop())
	called := false
	RegisterAction(e, Action[signup, gin.H]{
		Method: http.MethodPost,
		Path:   "/gated",
		Binder: BindJSON,
		Auth:   true,
		Guard: func(*gin.Context) error {
			return domain.E(domain.ErrPaymentRequired, "subscribe first")
		},
		Handler: func(*gin.Context, *signup) (gin.H, error) {
			called = true
			return nil, nil
		},
	})

	code, out := call(r, http.MethodPost, "/gated", `{}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "subscribe first", out.Msg)
	assert.False(t, called)
}

func TestAuthActionWithoutGatePanics(t *testing.T) {
	r := gin.New()
	e := New(r.Group(""), nil, nil)
	require.Panics(t, func() {
		RegisterAction(e, Action[struct{}, gin.H]{Method: http.MethodGet, Path: "/x", Auth: true,
			Handler: func(*gin.Context, *struct{}) (gin.H, error) { return nil, nil }})
	})
}
