package httpapi

// Result is the response envelope shared by every route.
// - code: 2000 on success, -1 on error
// - type: 'success' | 'error'
// - message: human-readable, surfaced directly to the acting user
// - result: payload
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message, Result: nil}
}

// FailFields reports a validation failure with the per-field reasons in the
// payload so the form can mark the offending inputs.
func FailFields(message string, fields map[string]string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message, Result: map[string]any{"fields": fields}}
}
