package dto

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta carries windowing metadata for record listings
type Meta struct {
	Total    int `json:"total"`
	Limit    int `json:"limit"`
	Offset   int `json:"offset"`
	Returned int `json:"returned"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewSuccessResponseWithMeta creates a success response with windowing meta
func NewSuccessResponseWithMeta(data interface{}, total, limit, offset, returned int) Response {
	return Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:    total,
			Limit:    limit,
			Offset:   offset,
			Returned: returned,
		},
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// WindowRequest represents common limit/offset listing parameters
type WindowRequest struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// DefaultWindowRequest returns a window request with defaults
func DefaultWindowRequest() WindowRequest {
	return WindowRequest{
		Limit:  50,
		Offset: 0,
	}
}
