package utils

import (
	"strconv"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// UserIDMiddleware rejects requests whose {id} path parameter does not match
// the authenticated user.
func UserIDMiddleware(ctx iris.Context) {
	id := ctx.Params().Get("id")

	claims := jwt.Get(ctx).(*AccessToken)
	userID := strconv.FormatUint(uint64(claims.ID), 10)

	if userID != id {
		ctx.StopWithStatus(iris.StatusForbidden)
		return
	}
	ctx.Next()
}

// UserIDFromTokenMiddleware extracts the user ID from the access token and
// stores it in the request context for routes without an {id} parameter.
func UserIDFromTokenMiddleware(ctx iris.Context) {
	claims := jwt.Get(ctx).(*AccessToken)
	ctx.Values().Set("userID", claims.ID)
	ctx.Next()
}

// AdminOnlyMiddleware ensures the requester has admin or super_admin role.
func AdminOnlyMiddleware(ctx iris.Context) {
	claims := jwt.Get(ctx).(*AccessToken)
	role := claims.Role
	if role != "admin" && role != "super_admin" {
		ctx.StopWithJSON(iris.StatusForbidden, iris.Map{"error": "Forbidden", "message": "Admin access required."})
		return
	}
	ctx.Values().Set("userID", claims.ID)
	ctx.Next()
}

// SuperAdminOnlyMiddleware ensures only super admins pass.
func SuperAdminOnlyMiddleware(ctx iris.Context) {
	claims := jwt.Get(ctx).(*AccessToken)
	if claims.Role != "super_admin" {
		ctx.StopWithJSON(iris.StatusForbidden, iris.Map{"error": "Forbidden", "message": "super_admin access required."})
		return
	}
	ctx.Next()
}

// AdminLoginPath is where the admin session gate redirects unauthenticated
// requests.
const AdminLoginPath = "/api/admin/login"

// AdminSessionMiddleware gates the admin area behind the session cookie. Any
// request without a valid, unexpired token carrying an isAdmin claim is
// redirected to the login route.
func AdminSessionMiddleware(ctx iris.Context) {
	cookie := ctx.GetCookie(AdminSessionCookie)
	if cookie == "" {
		ctx.Redirect(AdminLoginPath, iris.StatusFound)
		return
	}

	claims, err := ParseAdminSession(cookie)
	if err != nil || !claims.IsAdmin {
		ClearAdminSessionCookie(ctx)
		ctx.Redirect(AdminLoginPath, iris.StatusFound)
		return
	}

	ctx.Values().Set("adminID", claims.ID)
	ctx.Values().Set("adminEmail", claims.Email)
	ctx.Next()
}

// ContextUserID reads the authenticated user ID placed by the middleware
// above; ok is false when the request was not authenticated.
func ContextUserID(ctx iris.Context) (uint, bool) {
	v := ctx.Values().Get("userID")
	if v == nil {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
