package api

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"guitar-service/internal/service"
)

type PhotoHandler struct {
	photoService service.PhotoService
}

func NewPhotoHandler(photoService service.PhotoService) *PhotoHandler {
	return &PhotoHandler{photoService: photoService}
}

// Get streams the stored photo bytes. Photos are immutable, so responses may
// be cached indefinitely.
func (h *PhotoHandler) Get(c *fiber.Ctx) error {
	photoID, err := strconv.ParseInt(c.Params("photoId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Photo not found"})
	}

	photo, err := h.photoService.GetPhoto(c.UserContext(), photoID)
	if err != nil {
		if errors.Is(err, service.ErrPhotoNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Photo not found"})
		}
		slog.ErrorContext(c.UserContext(), "photo fetch failed", "photo_id", photoID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	c.Set(fiber.HeaderContentType, photo.MimeType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")

	return c.Status(fiber.StatusOK).Send(photo.ImageData)
}
