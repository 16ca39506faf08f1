package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"payflow/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError writes err in the API error envelope. Internal errors are logged and masked.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= 500 {
		log.WithFields(logrus.Fields{"method": c.Request.Method, "path": c.FullPath()}).WithError(err).Error("request failed")
		_ = c.Error(err)
	}
	c.JSON(status, apperr.Body(err))
}

func badRequest(c *gin.Context, description string) {
	c.JSON(http.StatusBadRequest, apperr.Body(apperr.BadRequest(description)))
}

// pagination reads limit and offset, defaulting to 10 and 0 and capping limit at 100.
func pagination(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// flexString accepts a JSON string or number, as card expiry fields arrive in both forms.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
