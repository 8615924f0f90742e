package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wedding-venues-api/internal/domain"
	"wedding-venues-api/internal/service"
	"wedding-venues-api/internal/transport/http/ez"
)

type VenueHandler struct {
	base
	svc *service.VenueService
}

func NewVenueHandler(svc *service.VenueService, auth gin.HandlerFunc, l *zap.Logger) *VenueHandler {
	return &VenueHandler{base: base{auth: auth, log: l}, svc: svc}
}

func (h *VenueHandler) Priority() int { return 20 }

// subscriberOnly 订阅检查先于参数校验，未订阅的请求不会触发上传
func subscriberOnly(action string) func(c *gin.Context) error {
	return func(c *gin.Context) error {
		return service.RequirePublisher(ez.Actor(c), action)
	}
}

func (h *VenueHandler) MountAPI(api *gin.RouterGroup) {
	e := ez.New(api.Group("/venue"), h.auth, h.log)

	ez.RegisterAction(e, ez.Action[struct{}, []domain.Venue]{
		Method: http.MethodGet,
		Path:   "/venues",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Venue, error) {
			return h.svc.List(c.Request.Context())
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.Venue]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Venue, error) {
			return h.svc.Get(c.Request.Context(), c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[service.AddVenueInput, *domain.Venue]{
		Method: http.MethodPost,
		Path:   "/add-venue",
		Binder: ez.BindJSON,
		Auth:   true,
		Guard:  subscriberOnly("share"),
		Handler: func(c *gin.Context, in *service.AddVenueInput) (*domain.Venue, error) {
			return h.svc.Add(c.Request.Context(), ez.Actor(c), *in)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.Venue]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Venue, error) {
			return h.svc.Delete(c.Request.Context(), ez.Actor(c), c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[service.EditVenueInput, *domain.Venue]{
		Method: http.MethodPut,
		Path:   "/edit-venue/:id",
		Binder: ez.BindJSON,
		Auth:   true,
		Guard:  subscriberOnly("edit"),
		Handler: func(c *gin.Context, in *service.EditVenueInput) (*domain.Venue, error) {
			return h.svc.Edit(c.Request.Context(), ez.Actor(c), c.Param("id"), *in)
		},
	})
}
