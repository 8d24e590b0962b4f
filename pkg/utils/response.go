package utils

import (
	"github.com/alteraai/pkg/commons"
	"github.com/gin-gonic/gin"
)

type ErrorBody struct {
	ErrorCode    uint64 `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
	HumanMessage string `json:"humanMessage"`
}

type Response struct {
	Code     int         `json:"code"`
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Error    *ErrorBody  `json:"error,omitempty"`
	Redirect string      `json:"redirect,omitempty"`
}

func Success(c *gin.Context, code int, data interface{}) {
	c.JSON(code, Response{Code: code, Success: true, Data: data})
}

// Error writes a failure envelope. reason is a stable machine readable code,
// humanMessage is shown to the user; technical detail belongs in the logs.
func Error(c *gin.Context, code int, reason string, humanMessage string) {
	c.AbortWithStatusJSON(code, Response{
		Code:    code,
		Success: false,
		Error: &ErrorBody{
			ErrorCode:    uint64(code),
			ErrorMessage: reason,
			HumanMessage: humanMessage,
		},
	})
}

// Unauthenticated points the caller at the sign-in surface.
func Unauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(401, Response{
		Code:    401,
		Success: false,
		Error: &ErrorBody{
			ErrorCode:    401,
			ErrorMessage: "authentication_required",
			HumanMessage: "Please sign in to continue.",
		},
		Redirect: commons.SIGN_IN_ROUTE,
	})
}
