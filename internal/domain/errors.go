package domain

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("access denied. not authorized")
	ErrInvalidToken       = errors.New("invalid auth token")
	ErrForbidden          = errors.New("access denied. not authorized")
	ErrPaymentRequired    = errors.New("subscription required")
	ErrNotFound           = errors.New("not found")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
)

// Error 给哨兵错误附带面向客户端的文案
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() error { return e.Kind }

func E(kind error, msg string) error { return &Error{Kind: kind, Msg: msg} }

// Message 取客户端可见文案；非领域错误返回空串
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Error()
	}
	for _, k := range []error{
		ErrValidation, ErrDuplicateEmail, ErrInvalidCredentials, ErrUnauthenticated,
		ErrInvalidToken, ErrForbidden, ErrPaymentRequired, ErrNotFound, ErrInvalidSignature,
	} {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	return ""
}
