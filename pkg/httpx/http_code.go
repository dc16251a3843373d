package httpx

/**
 * @author: gagral.x@gmail.com
 * @file: http_code.go
 * @description:
 */

var (
	Failed = failed(500, "request failed")

	Unauthorized = failed(4001, "unauthorized")
	BadRequest   = failed(4000, "bad request")
	NotFound     = failed(4004, "not found")

	InternalError = failed(500, "internal error, please contact the administrator")
)

var (
	Success  = success(200, "success")
	Accepted = success(202, "accepted")
)

// failed 构造函数
func failed(code int, msg string) *Response {
	return &Response{
		Code: code,
		Msg:  msg,
	}
}

// success 构造函数
func success(code int, msg string) *Response {
	return &Response{
		Code: code,
		Msg:  msg,
	}
}
