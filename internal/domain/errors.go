package domain

// Business error codes. Stable: clients switch on them, tests assert on them.
// Transport-level codes (400/401/403/404/500) live in the response package.
const (
	CodeNeedEmail        = 1001
	CodeNeedPassword     = 1002
	CodeInvalidEmail     = 1003
	CodeInvalidPswFormat = 1004
	CodeInvalidName      = 1005
	CodeIncomplete       = 1006
	CodeNoUser           = 1007
	CodeInvalidPassword  = 1008
	CodeUserExists       = 1009
	CodeUnauthorized     = 1010
	CodeNoChange         = 1011
	CodeInvalidParameter = 1012
)

// CodeMsg holds the default human reason per code; E may override it.
var CodeMsg = map[int]string{
	CodeNeedEmail:        "email required",
	CodeNeedPassword:     "password required",
	CodeInvalidEmail:     "invalid email format",
	CodeInvalidPswFormat: "password must be 6-18 chars and mix character classes",
	CodeInvalidName:      "invalid name format",
	CodeIncomplete:       "incomplete request",
	CodeNoUser:           "user not found",
	CodeInvalidPassword:  "wrong password",
	CodeUserExists:       "user already exists",
	CodeUnauthorized:     "unauthorized",
	CodeNoChange:         "nothing to change",
	CodeInvalidParameter: "invalid parameter",
}

// Error is a terminal per-request business failure: a stable code plus an
// optional human reason. No retries, no stack traces outward.
type Error struct {
	Code   int
	Reason string
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	if m, ok := CodeMsg[e.Code]; ok {
		return m
	}
	return "error"
}

// E builds a business error; reason may be empty to use the code default.
func E(code int, reason string) *Error {
	return &Error{Code: code, Reason: reason}
}
