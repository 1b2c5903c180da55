package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wardenhq/warden/internal/admission"
	"github.com/wardenhq/warden/internal/util"
)

// Admission enforces the admission engine on every request passing through,
// using the client IP as the identifier and the given rule class. Allowed
// requests carry quota headers; denials answer with a structured body and
// retry guidance, never a bare 500.
func Admission(gate *admission.Gatekeeper, class admission.RuleClass) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := gate.Admit(c.ClientIP(), class)
		setQuotaHeaders(c, v)

		if v.Allowed {
			c.Next()
			return
		}

		GetRequestLogger(c).WithFields(map[string]interface{}{
			"identifier": util.SanitizeForLog(c.ClientIP()),
			"rule_class": string(class),
			"reason":     string(v.Reason),
		}).Warn("request denied")

		status := http.StatusTooManyRequests
		if v.Reason == admission.ReasonBlocked {
			status = http.StatusForbidden
		}
		c.AbortWithStatusJSON(status, gin.H{
			"error":  "request denied",
			"reason": string(v.Reason),
		})
	}
}

func setQuotaHeaders(c *gin.Context, v admission.Verdict) {
	if v.Limit > 0 {
		c.Header("X-RateLimit-Limit", strconv.Itoa(v.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(v.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(v.ResetAt.Unix(), 10))
	}
	if !v.Allowed && v.RetryAfter > 0 {
		secs := int64(v.RetryAfter.Seconds())
		if secs < 1 {
			secs = 1
		}
		c.Header("Retry-After", strconv.FormatInt(secs, 10))
	}
}
