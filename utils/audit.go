package utils

import (
	"encoding/json"
	"net"

	"mpoint-server/models"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

// Audit records an admin mutation with optional before/after snapshots.
// Audit failures never block the action itself.
func Audit(ctx iris.Context, db *gorm.DB, action, resourceType string, resourceID uint, before interface{}, after interface{}) {
	var beforeStr, afterStr string
	if before != nil {
		if b, err := json.Marshal(before); err == nil {
			beforeStr = string(b)
		}
	}
	if after != nil {
		if a, err := json.Marshal(after); err == nil {
			afterStr = string(a)
		}
	}

	var adminID uint
	if v := ctx.Values().Get("adminID"); v != nil {
		if id, ok := v.(uint); ok {
			adminID = id
		}
	}

	entry := models.AuditLog{
		AdminUserID:  adminID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		BeforeJSON:   beforeStr,
		AfterJSON:    afterStr,
		IPAddress:    clientIP(ctx),
	}
	db.Create(&entry)
}

func clientIP(ctx iris.Context) string {
	if ip := ctx.GetHeader("X-Forwarded-For"); ip != "" {
		return ip
	}
	ip, _, _ := net.SplitHostPort(ctx.RemoteAddr())
	return ip
}
