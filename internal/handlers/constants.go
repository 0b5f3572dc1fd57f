package handlers

const (
	DeviceCookieName = "littlesteps_device"
	FlashCookieName  = "littlesteps_flash"
	CSRFFieldName    = "csrf_token"
	CSRFHeaderName   = "X-CSRF-Token"

	ErrInvalidFormData     = "Invalid form data"
	ErrInvalidCSRFToken    = "Invalid CSRF token"
	ErrTooManyRequests     = "Too many requests, please slow down"
	ErrInternalServerError = "Internal server error"
	ErrRequestTooLarge     = "Request too large"
)
