package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenOut 所有返回会话 token 的接口共用
type TokenOut struct {
	Token string `json:"token"`
}

type base struct {
	auth gin.HandlerFunc
	log  *zap.Logger
}
