package session

import (
	"errors"
	"net/http"
)

// parseSetCookie parses a single Set-Cookie header value. It stands in for
// http.ParseSetCookie, which is unavailable before Go 1.23.
func parseSetCookie(line string) (*http.Cookie, error) {
	cookies := (&http.Response{Header: http.Header{"Set-Cookie": {line}}}).Cookies()
	if len(cookies) == 0 {
		return nil, errors.New("http: invalid Set-Cookie header")
	}
	return cookies[0], nil
}
