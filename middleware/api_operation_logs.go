package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BerniceZTT/consultsim/utils"

	"github.com/gin-gonic/gin"
)

// Methods that change state and therefore get an audit entry.
var loggedMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

var excludedPaths = map[string]bool{
	"/api/auth/login": true,
}

var sensitiveKeys = []string{"password", "token", "secret"}

// OperationLoggerMiddleware writes an audit entry for every state-changing
// request: who made it, what was sent and how it ended.
func OperationLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !shouldLogOperation(c) {
			c.Next()
			return
		}

		start := time.Now()
		var body interface{}
		if c.Request.Body != nil {
			raw, err := io.ReadAll(c.Request.Body)
			if err != nil {
				utils.Logger.Error().Err(err).Msg("read request body failed")
			}
			c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &body); err != nil {
					body = string(raw)
				}
			}
		}

		c.Next()

		operator, role := extractUserInfo(c)
		event := utils.Logger.Info()
		if c.Writer.Status() >= http.StatusBadRequest {
			event = utils.Logger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("operator", operator).
			Str("role", role).
			Interface("body", sanitizeData(body)).
			Int("status", c.Writer.Status()).
			Str("ip", c.ClientIP()).
			Dur("responseTime", time.Since(start)).
			Msg("operation")
	}
}

func shouldLogOperation(c *gin.Context) bool {
	if excludedPaths[c.Request.URL.Path] {
		return false
	}
	return loggedMethods[c.Request.Method]
}

func extractUserInfo(c *gin.Context) (string, string) {
	user, err := utils.GetUser(c)
	if err != nil {
		return "anonymous", "unknown"
	}
	return user.Username, user.Role
}

// sanitizeData masks credential-like fields anywhere in a decoded JSON value.
func sanitizeData(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, val := range v {
			if isSensitiveKey(key) {
				out[key] = "******"
				continue
			}
			out[key] = sanitizeData(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = sanitizeData(val)
		}
		return out
	default:
		return v
	}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
