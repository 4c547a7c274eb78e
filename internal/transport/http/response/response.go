package response

import "go-account-service/internal/domain"

// Resp is the single response envelope: always HTTP 200, code 0 on success.
type Resp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

func New(code int, msg string, data interface{}) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

func OK(data interface{}) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

// Error builds a failure envelope; customMsg overrides the default mapped
// message when present.
func Error(code int, customMsg string) Resp {
	msg := customMsg
	if msg == "" {
		if m, ok := CodeMsgMap[code]; ok {
			msg = m
		} else if m, ok := domain.CodeMsg[code]; ok {
			msg = m
		}
	}
	return New(code, msg, struct{}{})
}
