package middleware

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
)

// TimeoutMessage is the body message of a request that ran out of time.
const TimeoutMessage = "request processing exceeded the allowed time limit"

// RequestTimeout puts a deadline on the request context. The handler runs on
// the request goroutine and owns the response; store calls that honour the
// context fail with context.DeadlineExceeded, which HTTPErrorHandler renders
// as a 504.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if timeout <= 0 {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
