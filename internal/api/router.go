package api

import (
	"legalis/docs"
	"legalis/internal/api/handlers"
	"legalis/pkg/auth"
	"legalis/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

func SetupRouter(
	authHandler *handlers.AuthHandler,
	docHandler *handlers.DocumentHandler,
	jwtManager *auth.JWTManager,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	// Importing the docs package registers the swagger spec via init()
	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Legal Document Analyzer API",
			"status":  "active",
		})
	})

	// Auth routes (public)
	authGroup := app.Group("/user/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Protected routes
	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))

	documents := protected.Group("/documents")
	documents.Post("/upload", docHandler.UploadDocument)
	documents.Get("", docHandler.ListDocuments)
	documents.Get("/:id", docHandler.GetDocument)
	documents.Get("/:id/analysis", docHandler.GetAnalysis)
	documents.Get("/:id/download", docHandler.DownloadDocument)
	documents.Post("/:id/reply", docHandler.GenerateReply)
	documents.Get("/:id/replies", docHandler.ListReplies)

	return app
}
