package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"mpoint-server/routes"
	"mpoint-server/services"
	"mpoint-server/storage"
	"mpoint-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	db, err := storage.ConnectDB()
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	rdb := storage.ConnectRedis()
	files, err := storage.NewFileStore()
	if err != nil {
		log.Fatalf("file store: %v", err)
	}
	paypal := services.NewPayPalClient()

	h := routes.NewHandler(db, rdb, files, paypal)

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	// Legacy asset links still point at /uploads/*, serve them through the
	// file route.
	app.WrapRouter(func(w http.ResponseWriter, r *http.Request, router http.HandlerFunc) {
		if strings.HasPrefix(r.URL.Path, "/uploads/") {
			r.URL.Path = "/api/file/" + strings.TrimPrefix(r.URL.Path, "/uploads/")
		}
		router(w, r)
	})

	// JWT Verifiers
	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})
	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		if err := ctx.ReadJSON(&tokenInput); err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	user := app.Party("/api/user")
	{
		user.Post("/register", h.Register)
		user.Post("/login", h.Login)
		user.Get("/search", accessTokenVerifierMiddleware, h.SearchUsers)
		user.Get("/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, h.GetUser)
		user.Patch("/{id:uint}/profile", accessTokenVerifierMiddleware, utils.UserIDMiddleware, h.UpdateUserProfile)
	}

	company := app.Party("/api/company")
	{
		company.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, h.CreateOrUpdateCompany)
		company.Get("/mine", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, h.GetMyCompany)
		company.Get("/", h.ListCompanies)
		company.Get("/{id:uint}", h.GetCompany)
	}

	match := app.Party("/api/match", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		match.Post("/connect", h.ConnectMatchRequest)
		match.Post("/{id:uint}/accept", h.AcceptMatch)
		match.Post("/{id:uint}/decline", h.DeclineMatch)
		match.Post("/{id:uint}/connection", h.EstablishConnection)
		match.Get("/", h.ListMatches)
		match.Get("/channel/{userID:uint}", h.GetChatChannel)
	}

	messages := app.Party("/api/messages", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		messages.Post("/{userID:uint}", h.SendMessage)
		messages.Get("/{userID:uint}", h.ListMessages)
	}

	groups := app.Party("/api/groups")
	{
		groups.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, h.CreateGroup)
		groups.Get("/{id:uint}", h.GetGroup)
		groups.Post("/{id:uint}/join", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, h.JoinGroup)
		groups.Post("/{id:uint}/members/{userID:uint}/approve", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, h.ApproveGroupMember)
		groups.Post("/{id:uint}/members/{userID:uint}/decline", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, h.DeclineGroupMember)
		groups.Post("/{id:uint}/members/{userID:uint}/remove", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, h.RemoveGroupMember)
		groups.Post("/{id:uint}/invites", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, h.CreateGroupInvite)
		groups.Post("/invites/{token}/accept", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, h.AcceptGroupInvite)
		groups.Post("/invites/{token}/decline", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, h.DeclineGroupInvite)
	}

	notifications := app.Party("/api/notifications", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		notifications.Get("/", h.ListNotifications)
		notifications.Get("/unread-count", h.UnreadNotificationCount)
		notifications.Patch("/{id:uint}/read", h.MarkNotificationRead)
	}

	event := app.Party("/api/event")
	{
		event.Get("/", h.ListEvents)
		event.Get("/{id:uint}", h.GetEvent)
		event.Post("/", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, h.CreateEvent)
	}

	booking := app.Party("/api/booking", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		booking.Post("/", h.CreateBooking)
		booking.Get("/", h.ListBookings)
		booking.Post("/{id:uint}/capture", h.CapturePayment)
		booking.Delete("/{id:uint}", h.CancelBooking)
	}

	marketplace := app.Party("/api/marketplace")
	{
		marketplace.Get("/", h.ListMarketplaceEntries)
		marketplace.Get("/{id:uint}", h.GetMarketplaceEntry)
		marketplace.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, h.CreateMarketplaceEntry)
		marketplace.Patch("/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, h.UpdateMarketplaceEntry)
		marketplace.Delete("/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, h.DeleteMarketplaceEntry)
	}

	news := app.Party("/api/news")
	{
		news.Get("/", h.ListNews)
		news.Get("/{id:uint}", h.GetNews)
	}

	file := app.Party("/api/file")
	{
		file.Post("/upload", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, h.UploadFile)
		file.Post("/upload-base64", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, h.UploadBase64)
		file.Get("/{path:path}", h.ServeFile)
	}

	// The admin panel rides on its own cookie session, separate from the
	// API bearer tokens.
	app.Post(utils.AdminLoginPath, h.AdminLogin)
	admin := app.Party("/api/admin", utils.AdminSessionMiddleware)
	{
		admin.Post("/logout", h.AdminLogout)
		admin.Get("/users", h.AdminListUsers)
		admin.Get("/users/{id:uint}", h.AdminGetUser)
		admin.Get("/stats", h.AdminStats)
		admin.Post("/news", h.AdminCreateNews)
		admin.Patch("/news/{id:uint}", h.AdminUpdateNews)
		admin.Delete("/news/{id:uint}", h.AdminDeleteNews)
		admin.Post("/bookings/expire-pending", h.AdminExpireBookings)
		admin.Post("/bookings/{id:uint}/refund", h.AdminRefundBooking)
	}

	app.Post("/api/refresh", refreshTokenVerifierMiddleware, h.RefreshToken)

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	addr := "0.0.0.0:" + port

	fmt.Printf("Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
