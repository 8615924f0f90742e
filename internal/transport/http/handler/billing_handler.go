package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wedding-venues-api/internal/service"
	"wedding-venues-api/internal/transport/http/ez"
	mdw "wedding-venues-api/internal/transport/http/middleware"
	resp "wedding-venues-api/internal/transport/http/response"
)

const HeaderStripeSignature = "stripe-signature"

type BillingHandler struct {
	base
	svc *service.BillingService
}

func NewBillingHandler(svc *service.BillingService, auth gin.HandlerFunc, l *zap.Logger) *BillingHandler {
	return &BillingHandler{base: base{auth: auth, log: l}, svc: svc}
}

func (h *BillingHandler) Priority() int { return 30 }

type checkoutOut struct {
	URL string `json:"url"`
}

type webhookOut struct {
	Received bool `json:"received"`
}

func (h *BillingHandler) MountAPI(api *gin.RouterGroup) {
	e := ez.New(api.Group("/stripe"), h.auth, h.log)

	ez.RegisterAction(e, ez.Action[service.CheckoutInput, checkoutOut]{
		Method: http.MethodPost,
		Path:   "/create-checkout-session",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.CheckoutInput) (checkoutOut, error) {
			url, err := h.svc.CreateCheckoutSession(c.Request.Context(), ez.Actor(c), *in)
			return checkoutOut{URL: url}, err
		},
	})

	// 签名按原始字节校验，不能先走 JSON 绑定
	ez.RegisterAction(e, ez.Action[struct{}, webhookOut]{
		Method: http.MethodPost,
		Path:   "/webhook",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (webhookOut, error) {
			payload, err := c.GetRawData()
			if err != nil {
				if mdw.IsTooLarge(err) {
					return webhookOut{}, &ez.AErr{Code: resp.CodeTooLarge, Msg: "request body too large", Err: err}
				}
				return webhookOut{}, ez.BadRequest("unreadable body")
			}
			if len(payload) == 0 {
				return webhookOut{}, ez.BadRequest("empty body")
			}
			if err := h.svc.HandleWebhook(c.Request.Context(), payload, c.GetHeader(HeaderStripeSignature)); err != nil {
				return webhookOut{}, err
			}
			return webhookOut{Received: true}, nil
		},
	})
}
