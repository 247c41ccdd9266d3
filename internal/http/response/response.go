package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/sitevisit-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
		_ = c.Error(err)
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError uses the status and code carried by an *apierr.Error, or a 500 with fallbackCode.
func RespondAPIError(c *gin.Context, err error, fallbackCode string) {
	ae := apierr.As(err, fallbackCode)
	status := ae.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	code := ae.Code
	if code == "" {
		code = fallbackCode
	}
	RespondError(c, status, code, ae.Err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondAccepted(c *gin.Context, payload any) {
	c.JSON(http.StatusAccepted, payload)
}
