package response

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OpenSundsvall/api-service-case-data/internal/platform/apierr"
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
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondFailure reports err with the status and code derived from it.
func RespondFailure(c *gin.Context, err error) {
	ae := apierr.From(err)
	if ae == nil {
		ae = apierr.New(http.StatusInternalServerError, "internal", nil)
	}
	_ = c.Error(err)
	RespondError(c, ae.Status, ae.Code, ae.Err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondCreated answers 201 with the location of the new resource and no body.
func RespondCreated(c *gin.Context, resource string, id int64) {
	c.Header("Location", fmt.Sprintf("/%s/%d", resource, id))
	c.Status(http.StatusCreated)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
