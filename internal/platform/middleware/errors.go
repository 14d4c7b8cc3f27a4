package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorBody is the envelope of every error response.
type ErrorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HTTPErrorHandler renders errors as {"success":false,"message":...}. Messages
// of 5xx errors that did not come from an echo.HTTPError are replaced so
// driver and internal details never reach the client.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(code)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			switch m := he.Message.(type) {
			case string:
				msg = m
			case error:
				msg = m.Error()
			default:
				msg = http.StatusText(code)
			}
		}

		// A 5xx caused by an expired request deadline is a timeout.
		if code >= 500 && errors.Is(err, context.DeadlineExceeded) {
			code, msg = http.StatusGatewayTimeout, TimeoutMessage
		}

		if code >= 500 {
			cause := err
			if he != nil && he.Internal != nil {
				cause = he.Internal
			}
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(cause).Str("request_id", rid).Int("status", code).Msg("request failed")
		}

		if code >= 500 && he == nil && code != http.StatusGatewayTimeout {
			msg = "internal server error"
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, ErrorBody{Success: false, Message: msg})
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}
