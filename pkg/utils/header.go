package utils

const (
	HEADER_AUTH_KEY       = "Authorization"
	HEADER_REQUEST_ID_KEY = "X-Request-Id"
	HEADER_CLIENT_INFO    = "X-Client-Info"
	HEADER_API_KEY        = "apikey"
	HEADER_CONTENT_TYPE   = "Content-Type"
	BEARER_PREFIX         = "Bearer "
)
