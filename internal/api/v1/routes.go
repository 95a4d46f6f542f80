package v1

import (
	"errors"
	"time"

	"kanban-board/internal/api/v1/handlers"
	"kanban-board/internal/middleware"
	"kanban-board/internal/service"
	realtime "kanban-board/internal/websocket"
	"kanban-board/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

// Options carries what the HTTP surface is built from.
type Options struct {
	Service      *service.Service
	Tokens       *service.TokenIssuer
	Hub          *realtime.Hub
	Log          *logger.Loggers
	UploadDir    string
	CORSOrigins  string
	RateLimitMax int
}

// NewApp builds the fiber application with middleware and every route.
func NewApp(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "kanban-board",
		BodyLimit:    6 << 20,
		ErrorHandler: errorHandler(opts.Log),
	})

	app.Use(recover.New())
	app.Use(middleware.ErrorHandler(opts.Log))
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(opts.Log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))
	if opts.RateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimitMax,
			Expiration: 1 * time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Path() == "/healthz" || c.Path() == "/ws"
			},
		}))
	}

	h := handlers.New(opts.Service, opts.Log, opts.UploadDir)
	RegisterRoutes(app, h, opts)
	return app
}

// errorHandler renders errors that reach fiber itself, such as unknown routes
// and oversized bodies, in the same envelope the handlers use.
func errorHandler(log *logger.Loggers) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code, message = fe.Code, fe.Message
		} else {
			log.Error.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{
			"message": message,
			"success": false,
			"status":  code,
		})
	}
}

// RegisterRoutes mounts every /api/v1 route plus the socket endpoint and uploads.
func RegisterRoutes(app *fiber.App, h *handlers.Handler, opts Options) {
	auth := middleware.UseToken(opts.Tokens, opts.Log)

	app.Get("/healthz", handlers.Health)
	app.Get("/uploads/:filename", h.GetFile)
	app.Get("/ws", handlers.RequireUpgrade, middleware.UseSocketToken(opts.Tokens, opts.Log), handlers.Socket(opts.Hub))

	api := app.Group("/api/v1")

	// Auth
	authRoutes := api.Group("/auth")
	authRoutes.Post("/signup", h.Signup)
	authRoutes.Post("/login", h.Login)
	authRoutes.Get("/me", auth, h.Me)

	// User
	userRoutes := api.Group("/users", auth)
	userRoutes.Get("/me", h.GetProfile)
	userRoutes.Put("/me", h.UpdateProfile)
	userRoutes.Post("/me/avatar", h.UploadAvatar)

	// Board
	boardRoutes := api.Group("/boards", auth)
	boardRoutes.Post("/", h.CreateBoard)
	boardRoutes.Get("/", h.ListBoards)
	boardRoutes.Get("/:id", h.GetBoard)
	boardRoutes.Patch("/:id", h.UpdateBoard)
	boardRoutes.Get("/:id/members", h.BoardMembers)
	boardRoutes.Post("/:boardId/lists", h.CreateList)
	boardRoutes.Post("/:boardId/invites", h.CreateInvite)

	// List
	listRoutes := api.Group("/lists", auth)
	listRoutes.Patch("/:listId", h.UpdateList)
	listRoutes.Patch("/:listId/move", h.MoveList)
	listRoutes.Post("/:listId/tasks", h.CreateTask)

	// Task
	taskRoutes := api.Group("/tasks", auth)
	taskRoutes.Get("/my", h.MyTasks)
	taskRoutes.Patch("/:taskId/move", h.MoveTask)
	taskRoutes.Patch("/:taskId/assign", h.AssignTask)
	taskRoutes.Patch("/:taskId", h.UpdateTask)

	// Invite
	api.Post("/invites/:token/accept", auth, h.AcceptInvite)

	// Team
	teamRoutes := api.Group("/teams", auth)
	teamRoutes.Post("/", h.CreateTeam)
	teamRoutes.Get("/", h.ListTeams)
	teamRoutes.Post("/join", h.JoinTeam)
	teamRoutes.Get("/:teamId", h.GetTeam)
	teamRoutes.Get("/:teamId/boards", h.TeamBoards)
	teamRoutes.Get("/:teamId/members", h.TeamMembers)
	teamRoutes.Post("/:teamId/invite-code", h.GenerateInviteCode)
	teamRoutes.Get("/:teamId/invite-code", h.GetInviteCode)

	// Dashboard
	dashboardRoutes := api.Group("/dashboard", auth)
	dashboardRoutes.Get("/stats", h.DashboardStats)
	dashboardRoutes.Get("/active-boards", h.ActiveBoards)
	dashboardRoutes.Get("/recent-activity", h.RecentActivity)
}
