package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// NewFiberConfig leaves headroom above the photo ceiling in BodyLimit so the
// upload handler, not fiber, rejects oversized photos.
func NewFiberConfig(appName string, maxPhotoBytes int64) fiber.Config {
	return fiber.Config{
		AppName:      appName,
		BodyLimit:    int(maxPhotoBytes) + 1024*1024,
		UnescapePath: true,
	}
}

type Handlers struct {
	Auth     *AuthHandler
	Guitars  *GuitarHandler
	Photos   *PhotoHandler
	Resolver TokenResolver
}

func SetupRoutes(app *fiber.App, h Handlers, requestTimeout time.Duration) {
	app.Use(TimeoutMiddleware(requestTimeout))

	app.Post("/register", h.Auth.Register)
	app.Post("/login", h.Auth.Login)
	app.Get("/photos/:photoId", h.Photos.Get)

	requireAuth := AuthMiddleware(h.Resolver)
	ownerOnly := OwnerScopedMiddleware("userId")

	app.Get("/users/:userId/guitars", requireAuth, ownerOnly, h.Guitars.ListByOwner)
	app.Get("/users/:userId/guitar-count", requireAuth, ownerOnly, h.Guitars.CountByOwner)

	guitars := app.Group("/guitars", requireAuth)
	guitars.Get("/", h.Guitars.ListAll)
	guitars.Get("/brand/:brandName", h.Guitars.ListByBrand)
	guitars.Get("/genre/:genre", h.Guitars.ListByGenre)
	guitars.Post("/", h.Guitars.Create)
	guitars.Put("/:guitarId", h.Guitars.Update)
	guitars.Delete("/:guitarId", h.Guitars.Delete)
}
