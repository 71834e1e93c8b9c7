package apperr

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// 错误响应中的 error 字段
const (
	CodeValidation = "validation_failed"
	CodeNotFound   = "not_found"
	CodeInternal   = "internal"
)

// Body 是 HTTP 错误响应体
type Body struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ToBody 把错误映射为状态码和响应体；未知错误不暴露内部细节
func ToBody(err error) (int, Body) {
	if ve, ok := AsValidation(err); ok {
		return http.StatusBadRequest, Body{Error: CodeValidation, Message: ve.Error(), Fields: ve.Fields}
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return http.StatusNotFound, Body{Error: CodeNotFound, Message: nf.Error()}
	}
	return http.StatusInternalServerError, Body{Error: CodeInternal, Message: "internal server error"}
}

// FromBody 还原服务端返回的错误；body 为空或无法识别时返回 TransportError
func FromBody(op string, status int, body *Body) error {
	if body != nil {
		switch body.Error {
		case CodeValidation:
			fields := body.Fields
			if len(fields) == 0 {
				fields = map[string]string{"payload": body.Message}
			}
			return &ValidationError{Fields: fields}
		case CodeNotFound:
			return notFoundFromMessage(body.Message)
		}
	}
	te := &TransportError{Op: op, Status: status, Message: http.StatusText(status)}
	if body != nil && body.Message != "" {
		te.Message = body.Message
	}
	return te
}

// notFoundFromMessage 解析 `album "id" not found` 形式的消息
func notFoundFromMessage(msg string) *NotFoundError {
	kind, rest, ok := strings.Cut(msg, " ")
	if !ok {
		return &NotFoundError{Kind: "resource", ID: msg}
	}
	id := strings.TrimSuffix(rest, " not found")
	if unquoted, err := strconv.Unquote(id); err == nil {
		id = unquoted
	}
	return &NotFoundError{Kind: kind, ID: id}
}
