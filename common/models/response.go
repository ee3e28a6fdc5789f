package models

// BaseResponse wraps a successful API payload.
type BaseResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse wraps an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Msg   string `json:"msg"`
}
