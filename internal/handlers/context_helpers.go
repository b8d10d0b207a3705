package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"cafeshift_backend/internal/services"
	"cafeshift_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// currentActor pulls the authenticated caller out of the gin context, where
// AuthMiddleware put it. The bool mirrors c.Get: false means the request
// slipped past authentication and has already been answered with a 401.
func currentActor(c *gin.Context) (services.Actor, bool) {
	userIDRaw, exists := c.Get("userID")
	if !exists {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return services.Actor{}, false
	}
	userID, ok := userIDRaw.(int64)
	if !ok {
		utils.LogError(errors.New("userID is not of type int64"), "currentActor: userID type assertion failed")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User ID format incorrect.", "Invalid user ID format in context"))
		return services.Actor{}, false
	}

	role, _ := c.Get("userRole")
	roleStr, _ := role.(string)
	return services.Actor{ID: userID, Role: roleStr}, true
}

// parseIDParam reads a positive int64 path parameter, answering 400 itself on
// bad input.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondValidationFailed(c, "Invalid "+name+" path parameter")
		return 0, false
	}
	return id, true
}

// queryInt64 reads an optional int64 query parameter.
func queryInt64(c *gin.Context, name string) *int64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// queryString reads an optional string query parameter.
func queryString(c *gin.Context, name string) *string {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	return &raw
}

// queryIntDefault reads an int query parameter with a fallback.
func queryIntDefault(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
