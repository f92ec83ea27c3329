package middleware

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/shiftledger/pkg/logger"
)

const maxAuditBody = 2000

var sensitiveField = regexp.MustCompile(`(?i)("(?:password|token|tfn|abn|account_number|bsb)"\s*:\s*)"[^"]*"`)

// AuditLog writes one structured audit line per admin write request.
func AuditLog() gin.HandlerFunc {
	audit := logger.Component("audit")
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != "POST" && method != "PUT" && method != "PATCH" && method != "DELETE" {
			c.Next()
			return
		}

		var body string
		if c.Request.Body != nil {
			raw, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			body = string(raw)
			if len(body) > maxAuditBody {
				body = body[:maxAuditBody] + "...[truncated]"
			}
			body = maskSensitiveFields(body)
		}

		c.Next()

		resource, action := parseRouteInfo(c.FullPath(), method)
		status := c.Writer.Status()
		event := audit.Info()
		if status >= 400 {
			event = audit.Warn()
		}
		event.
			Str("request_id", logger.RequestID(c)).
			Uint("actor_id", GetUserID(c)).
			Str("actor", GetEmail(c)).
			Str("resource", resource).
			Str("action", action).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("body", body).
			Msg("admin write")
	}
}

// parseRouteInfo maps "/api/admin/projects/:id" + PUT to ("projects", "update").
func parseRouteInfo(fullPath, method string) (resource, action string) {
	path := strings.TrimPrefix(fullPath, "/api/")
	path = strings.TrimPrefix(path, "admin/")

	resource = strings.SplitN(path, "/", 2)[0]
	if resource == "" {
		resource = "unknown"
	}

	switch method {
	case "POST":
		action = "create"
	case "PUT", "PATCH":
		action = "update"
	case "DELETE":
		action = "delete"
	default:
		action = strings.ToLower(method)
	}
	return resource, action
}

func maskSensitiveFields(body string) string {
	return sensitiveField.ReplaceAllString(body, `$1"***"`)
}
