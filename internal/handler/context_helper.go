package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ppisng/ppis-api/internal/middleware"
	"github.com/ppisng/ppis-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// termFromQuery reads the term query param; 0 means "any term".
func termFromQuery(c *gin.Context) int {
	term, err := strconv.Atoi(c.DefaultQuery("term", "0"))
	if err != nil {
		return 0
	}
	return term
}
