package routes

import (
	"net/http"

	"github.com/umtracker/platform/pkg/common/models"
	"github.com/umtracker/platform/pkg/gateway/middleware"
)

func adminOnly(fn http.HandlerFunc) http.Handler {
	return middleware.RequireRoles(models.RoleAdmin)(fn)
}

func anyRole(fn http.HandlerFunc) http.Handler {
	return middleware.RequireRoles(models.RoleAdmin, models.RoleUser)(fn)
}
