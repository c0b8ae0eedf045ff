package controllers

import (
	"strings"

	"github.com/amaurycolochos7/shopp-kingice/services"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

// paramID reads a positive base-10 path parameter
func paramID(c *gin.Context, name string) (uint, error) {
	digits, ok := decimalDigits(strings.TrimSpace(c.Param(name)))
	if !ok {
		return 0, &services.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	id, err := cast.ToUintE(digits)
	if err != nil || id == 0 {
		return 0, &services.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	return id, nil
}

// queryInt reads a base-10 integer query parameter, falling back to def when it
// is absent or malformed
func queryInt(c *gin.Context, name string, def int) int {
	raw := strings.TrimSpace(c.Query(name))
	negative := strings.HasPrefix(raw, "-")
	digits, ok := decimalDigits(strings.TrimPrefix(raw, "-"))
	if !ok {
		return def
	}
	n, err := cast.ToIntE(digits)
	if err != nil {
		return def
	}
	if negative {
		return -n
	}
	return n
}

// decimalDigits accepts only ASCII digits and strips leading zeros. cast parses
// with base 0, so "010" would otherwise read as octal and "0x10" as hex.
func decimalDigits(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	if trimmed := strings.TrimLeft(raw, "0"); trimmed != "" {
		return trimmed, true
	}
	return "0", true
}
