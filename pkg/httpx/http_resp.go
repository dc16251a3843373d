package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

/**
 * @author: gagral.x@gmail.com
 * @file: http_resp.go
 * @description: unified response envelope
 */

type Response struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail any    `json:"detail,omitempty"`
}

type ResponseErr struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Err  any    `json:"err,omitempty"`
	Path string `json:"path,omitempty"`
}

// WithRep returns a success envelope with detail data.
func WithRep(c *gin.Context, detail any) {
	c.JSON(http.StatusOK, Response{
		Code:   Success.Code,
		Msg:    Success.Msg,
		Detail: detail,
	})
}

// WithRepMsg returns a bare envelope with the given code and message.
func WithRepMsg(c *gin.Context, code int, msg string) {
	c.JSON(http.StatusOK, Response{
		Code: code,
		Msg:  msg,
	})
}

// WithRepAccepted returns a 202 envelope for asynchronously accepted work.
func WithRepAccepted(c *gin.Context, detail any) {
	c.JSON(http.StatusAccepted, Response{
		Code:   Accepted.Code,
		Msg:    Accepted.Msg,
		Detail: detail,
	})
}

// WithRepErr returns an error envelope with details.
func WithRepErr(c *gin.Context, code int, msg string, err any, path string) {
	c.JSON(http.StatusOK, ResponseErr{
		Code: code,
		Msg:  msg,
		Err:  err,
		Path: path,
	})
}

// WithRepErrMsg returns an error envelope without details.
func WithRepErrMsg(c *gin.Context, code int, msg string, path string) {
	c.JSON(http.StatusOK, ResponseErr{
		Code: code,
		Msg:  msg,
		Path: path,
	})
}

// WithRepNotFound returns a 404 envelope.
func WithRepNotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, ResponseErr{
		Code: NotFound.Code,
		Msg:  msg,
		Path: c.Request.URL.Path,
	})
}

// WithRepUnauthorized aborts the request with a 401 envelope.
func WithRepUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ResponseErr{
		Code: Unauthorized.Code,
		Msg:  Unauthorized.Msg,
		Path: c.Request.URL.Path,
	})
}
