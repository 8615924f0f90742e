package ez

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"wedding-venues-api/internal/domain"
	mdw "wedding-venues-api/internal/transport/http/middleware"
	resp "wedding-venues-api/internal/transport/http/response"
)

func init() {
	// 校验错误里用 json 字段名
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// EZ 在一个分组上注册 Action；auth 为需要登录的 Action 前置的鉴权中间件
type EZ struct {
	g    *gin.RouterGroup
	auth gin.HandlerFunc
	log  *zap.Logger
}

func New(g *gin.RouterGroup, auth gin.HandlerFunc, l *zap.Logger) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return EZ{g: g, auth: auth, log: l}
}

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param / body 取
)

// AErr 传输层自己的错误（领域错误走 response.Status 映射）
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method string // "GET" | "POST" | "PUT" | "PATCH" | "DELETE"
	Path   string
	Binder Binder
	Auth   bool // 是否要求登录
	// Guard 在绑定之前执行，用于必须先于参数校验的检查（如订阅门槛）
	Guard   func(c *gin.Context) error
	Handler func(c *gin.Context, in *I) (O, error)
}

// Actor 当前登录用户；只在 Auth=true 的 Action 里调用
func Actor(c *gin.Context) *domain.User {
	u, _ := mdw.CurrentUser(c)
	return u
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		if a.Guard != nil {
			if err := a.Guard(c); err != nil {
				e.fail(c, err)
				return
			}
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		default:
		}
		if bindErr != nil {
			e.fail(c, bindError(bindErr))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			e.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(out))
	}

	chain := []gin.HandlerFunc{h}
	if a.Auth {
		if e.auth == nil {
			panic(fmt.Sprintf("ez: %s %s requires auth but no auth middleware configured", a.Method, a.Path))
		}
		chain = []gin.HandlerFunc{e.auth, h}
	}
	method := strings.ToUpper(a.Method)
	if method == "" {
		method = http.MethodPost
	}
	e.g.Handle(method, a.Path, chain...)
}

func (e EZ) fail(c *gin.Context, err error) {
	var ae *AErr
	if errors.As(err, &ae) {
		if ae.Code >= resp.CodeServerError {
			e.log.Error("action failed", zap.String("rid", resp.RequestID(c)), zap.Error(err))
			resp.Abort(c, ae.Code, "")
			return
		}
		resp.Abort(c, ae.Code, ae.Msg)
		return
	}
	resp.Fail(c, e.log, err)
}

func bindError(err error) error {
	if mdw.IsTooLarge(err) {
		return &AErr{Code: resp.CodeTooLarge, Msg: "request body too large", Err: err}
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		return domain.E(domain.ErrValidation, describe(ves[0]))
	}
	return domain.E(domain.ErrValidation, "Invalid request body.")
}

// describe 只报告第一个校验错误
func describe(fe validator.FieldError) string {
	f := fmt.Sprintf("%q", fe.Field())
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "email":
		return f + " must be a valid email"
	case "min":
		if isString {
			return fmt.Sprintf("%s length must be at least %s characters long", f, fe.Param())
		}
		return fmt.Sprintf("%s must contain at least %s items", f, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s length must be less than or equal to %s characters long", f, fe.Param())
		}
		return fmt.Sprintf("%s must contain less than or equal to %s items", f, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", f, lowerFirst(fe.Param()))
	default:
		return f + " is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
