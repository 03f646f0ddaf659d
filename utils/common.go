package utils

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

// LoginUser is the identity extracted from a verified token.
type LoginUser struct {
	ID       string `json:"id"`
	Role     string `json:"role"`
	Username string `json:"name"`
}

// GetUser returns the identity that AuthMiddleware stored on the context.
func GetUser(c *gin.Context) (*LoginUser, error) {
	currentUser, exists := c.Get("user")
	if !exists {
		return nil, fmt.Errorf("no authenticated user")
	}

	claims, ok := currentUser.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type %T", currentUser)
	}

	id, _ := claims["id"].(string)
	role, _ := claims["role"].(string)
	username, _ := claims["username"].(string)
	if id == "" || role == "" {
		return nil, fmt.Errorf("incomplete token claims")
	}
	return &LoginUser{ID: id, Role: role, Username: username}, nil
}

// ParsePagination reads page and limit query parameters with sane bounds.
func ParsePagination(c *gin.Context) (page int64, limit int64) {
	page, _ = strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ = strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return page, limit
}

// PaginatedResponse writes one page of data with its pagination envelope.
func PaginatedResponse(c *gin.Context, data interface{}, total int64, page int64, limit int64) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"pagination": gin.H{
			"total": total,
			"page":  page,
			"limit": limit,
			"pages": (total + limit - 1) / limit,
		},
	})
}
