package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// hoursWindow reads the "hours" query parameter with a default. The value
// must be a positive integer; anything else rejects the request. The window
// it defines is [now - hours, now].
func hoursWindow(c *gin.Context, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query("hours"))
	if raw == "" {
		return def, true
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		Error(c, http.StatusBadRequest, "hours must be a positive integer")
		return 0, false
	}
	return hours, true
}

// csvParam splits a comma-separated query parameter, dropping empty entries.
func csvParam(c *gin.Context, name string) []string {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
