package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wedding-venues-api/internal/domain"
	"wedding-venues-api/internal/service"
	"wedding-venues-api/internal/transport/http/ez"
)

type UserHandler struct {
	base
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService, auth gin.HandlerFunc, l *zap.Logger) *UserHandler {
	return &UserHandler{base: base{auth: auth, log: l}, svc: svc}
}

func (h *UserHandler) Priority() int { return 10 }

// MountAPI /register /login /user/*
func (h *UserHandler) MountAPI(api *gin.RouterGroup) {
	pub := ez.New(api, h.auth, h.log)

	ez.RegisterAction(pub, ez.Action[service.RegisterInput, TokenOut]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.RegisterInput) (TokenOut, error) {
			tok, err := h.svc.Register(c.Request.Context(), *in)
			return TokenOut{Token: tok}, err
		},
	})

	ez.RegisterAction(pub, ez.Action[service.LoginInput, TokenOut]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.LoginInput) (TokenOut, error) {
			tok, err := h.svc.Login(c.Request.Context(), *in)
			return TokenOut{Token: tok}, err
		},
	})

	users := ez.New(api.Group("/user"), h.auth, h.log)

	ez.RegisterAction(users, ez.Action[struct{}, []domain.User]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.User, error) {
			return h.svc.List(c.Request.Context(), ez.Actor(c))
		},
	})

	ez.RegisterAction(users, ez.Action[struct{}, TokenOut]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (TokenOut, error) {
			tok, err := h.svc.RefreshToken(c.Request.Context(), ez.Actor(c), c.Param("id"))
			return TokenOut{Token: tok}, err
		},
	})

	ez.RegisterAction(users, ez.Action[service.VerifyEmailInput, TokenOut]{
		Method: http.MethodPost,
		Path:   "/verify-email",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.VerifyEmailInput) (TokenOut, error) {
			tok, err := h.svc.VerifyEmail(c.Request.Context(), *in)
			return TokenOut{Token: tok}, err
		},
	})

	ez.RegisterAction(users, ez.Action[service.UpdateProfileInput, TokenOut]{
		Method: http.MethodPatch,
		Path:   "/update-user",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.UpdateProfileInput) (TokenOut, error) {
			tok, err := h.svc.UpdateProfile(c.Request.Context(), ez.Actor(c), *in)
			return TokenOut{Token: tok}, err
		},
	})

	ez.RegisterAction(users, ez.Action[service.UpdatePasswordInput, *domain.User]{
		Method: http.MethodPatch,
		Path:   "/update-password",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.UpdatePasswordInput) (*domain.User, error) {
			return h.svc.UpdatePassword(c.Request.Context(), ez.Actor(c), *in)
		},
	})

	ez.RegisterAction(users, ez.Action[service.DeleteAccountInput, *domain.User]{
		Method: http.MethodPost,
		Path:   "/delete",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.DeleteAccountInput) (*domain.User, error) {
			return h.svc.Delete(c.Request.Context(), ez.Actor(c), *in)
		},
	})

	ez.RegisterAction(users, ez.Action[service.AdminDeleteInput, *domain.User]{
		Method: http.MethodPost,
		Path:   "/admin/delete",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.AdminDeleteInput) (*domain.User, error) {
			return h.svc.AdminDelete(c.Request.Context(), ez.Actor(c), *in)
		},
	})
}
