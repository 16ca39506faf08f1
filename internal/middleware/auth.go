package middleware

import (
	"strings"

	"payflow/internal/apperr"
	"payflow/internal/models"
	"payflow/internal/service"

	"github.com/gin-gonic/gin"
)

const merchantKey = "merchant"

// MerchantAuth accepts X-Api-Key/X-Api-Secret or a dashboard Bearer token and stores the
// merchant in the context.
func MerchantAuth(svc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var (
			m   *models.Merchant
			err error
		)
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				abortWith(c, apperr.UnauthorizedErr("Invalid authorization format"))
				return
			}
			m, err = svc.MerchantFromToken(ctx, parts[1])
		} else {
			m, err = svc.Authenticate(ctx, c.GetHeader("X-Api-Key"), c.GetHeader("X-Api-Secret"))
		}
		if err != nil {
			abortWith(c, err)
			return
		}
		c.Set(merchantKey, m)
		c.Next()
	}
}

// GetMerchant returns the authenticated merchant (must be used after MerchantAuth).
func GetMerchant(c *gin.Context) *models.Merchant {
	v, ok := c.Get(merchantKey)
	if !ok {
		return nil
	}
	return v.(*models.Merchant)
}

func abortWith(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), apperr.Body(err))
}
