package api

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"guitar-service/internal/model"
	"guitar-service/internal/service"
)

type GuitarHandler struct {
	guitarService service.GuitarService
	validate      *validator.Validate
	maxPhotoBytes int64
}

func NewGuitarHandler(guitarService service.GuitarService, maxPhotoBytes int64) *GuitarHandler {
	return &GuitarHandler{
		guitarService: guitarService,
		validate:      validator.New(),
		maxPhotoBytes: maxPhotoBytes,
	}
}

// GuitarForm is the multipart body of create and update.
type GuitarForm struct {
	Brand        string `form:"brand" validate:"required,max=100"`
	Model        string `form:"model" validate:"required,max=100"`
	Year         string `form:"year" validate:"required,max=10"`
	SerialNumber string `form:"serial_number" validate:"max=100"`
	Caption      string `form:"caption" validate:"max=500"`
	Genre        string `form:"genre" validate:"max=50"`
	BodyType     string `form:"body_type" validate:"max=50"`
}

func (f GuitarForm) fields() model.GuitarFields {
	return model.GuitarFields{
		Brand:        f.Brand,
		Model:        f.Model,
		Year:         f.Year,
		SerialNumber: f.SerialNumber,
		Genre:        f.Genre,
		BodyType:     f.BodyType,
	}
}

func (h *GuitarHandler) ListAll(c *fiber.Ctx) error {
	views, err := h.guitarService.ListAll(c.UserContext())
	return h.respondViews(c, views, err)
}

func (h *GuitarHandler) ListByOwner(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("userId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Unauthorized"})
	}

	views, err := h.guitarService.ListByOwner(c.UserContext(), userID)
	return h.respondViews(c, views, err)
}

func (h *GuitarHandler) ListByBrand(c *fiber.Ctx) error {
	views, err := h.guitarService.ListByBrand(c.UserContext(), c.Params("brandName"))
	return h.respondViews(c, views, err)
}

func (h *GuitarHandler) ListByGenre(c *fiber.Ctx) error {
	views, err := h.guitarService.ListByGenre(c.UserContext(), c.Params("genre"))
	return h.respondViews(c, views, err)
}

func (h *GuitarHandler) respondViews(c *fiber.Ctx, views []model.GuitarView, err error) error {
	if err != nil {
		slog.ErrorContext(c.UserContext(), "guitar listing failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.Status(fiber.StatusOK).JSON(views)
}

func (h *GuitarHandler) CountByOwner(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("userId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Unauthorized"})
	}

	count, err := h.guitarService.CountByOwner(c.UserContext(), userID)
	if err != nil {
		slog.ErrorContext(c.UserContext(), "guitar count failed", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"guitar_count": count})
}

func (h *GuitarHandler) Create(c *fiber.Ctx) error {
	identity, err := GetIdentity(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	form, err := h.parseForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	photo, err := h.readPhoto(c)
	if err != nil {
		return h.photoError(c, err)
	}
	if photo == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Photo is required"})
	}

	created, err := h.guitarService.Create(c.UserContext(), model.NewGuitar{
		Fields:  form.fields(),
		Owner:   identity,
		Photo:   photo,
		Caption: form.Caption,
	})
	if err != nil {
		if errors.Is(err, service.ErrPhotoRequired) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Photo is required"})
		}
		slog.ErrorContext(c.UserContext(), "create guitar failed", "user_id", identity.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create guitar"})
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *GuitarHandler) Update(c *fiber.Ctx) error {
	identity, err := GetIdentity(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	guitarID, err := strconv.ParseInt(c.Params("guitarId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid guitar ID"})
	}

	form, err := h.parseForm(c)
	if err != nil {
		if denied, resp := h.denyNonOwner(c, guitarID, identity.UserID); denied {
			return resp
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	photo, err := h.readPhoto(c)
	if err != nil {
		if denied, resp := h.denyNonOwner(c, guitarID, identity.UserID); denied {
			return resp
		}
		return h.photoError(c, err)
	}

	result, err := h.guitarService.Update(c.UserContext(), model.GuitarUpdate{
		GuitarID: guitarID,
		OwnerID:  identity.UserID,
		Fields:   form.fields(),
		Photo:    photo,
		Caption:  form.Caption,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotFoundOrForbidden) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Guitar not found or you do not have permission to edit it"})
		}
		slog.ErrorContext(c.UserContext(), "update guitar failed", "guitar_id", guitarID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update guitar"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":       "Guitar updated successfully",
		"last_modified": result.LastModified,
	})
}

// denyNonOwner answers a rejected edit with 404 when the caller does not own
// the guitar, so malformed input reveals nothing about someone else's guitar.
func (h *GuitarHandler) denyNonOwner(c *fiber.Ctx, guitarID, ownerID int64) (bool, error) {
	err := h.guitarService.CheckOwner(c.UserContext(), guitarID, ownerID)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, service.ErrNotFoundOrForbidden):
		return true, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Guitar not found or you do not have permission to edit it"})
	default:
		slog.ErrorContext(c.UserContext(), "ownership check failed", "guitar_id", guitarID, "error", err)
		return true, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update guitar"})
	}
}

func (h *GuitarHandler) Delete(c *fiber.Ctx) error {
	identity, err := GetIdentity(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	guitarID, err := strconv.ParseInt(c.Params("guitarId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid guitar ID"})
	}

	if err := h.guitarService.Delete(c.UserContext(), guitarID, identity.UserID); err != nil {
		if errors.Is(err, service.ErrNotFoundOrForbidden) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Guitar not found or you do not have permission to delete it"})
		}
		slog.ErrorContext(c.UserContext(), "delete guitar failed", "guitar_id", guitarID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete guitar"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Guitar deleted successfully"})
}

func (h *GuitarHandler) parseForm(c *fiber.Ctx) (GuitarForm, error) {
	var form GuitarForm
	if err := c.BodyParser(&form); err != nil {
		return form, err
	}
	return form, h.validate.Struct(&form)
}

// readPhoto returns the uploaded photo, or nil when the request carries none.
// The content type is sniffed from the bytes rather than trusted from the client.
func (h *GuitarHandler) readPhoto(c *fiber.Ctx) (*model.PhotoUpload, error) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return nil, nil
	}

	if fileHeader.Size > h.maxPhotoBytes {
		return nil, service.ErrInvalidPhoto
	}

	data, err := readUpload(fileHeader, h.maxPhotoBytes)
	if err != nil {
		return nil, err
	}

	photo := &model.PhotoUpload{
		Data:     data,
		MimeType: mimetype.Detect(data).String(),
	}
	if err := service.ValidatePhoto(photo, h.maxPhotoBytes); err != nil {
		return nil, err
	}

	return photo, nil
}

func readUpload(fileHeader *multipart.FileHeader, limit int64) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(io.LimitReader(file, limit+1))
}

func (h *GuitarHandler) photoError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrInvalidPhoto) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Photo must be an image of at most " + strconv.FormatInt(h.maxPhotoBytes, 10) + " bytes",
		})
	}
	slog.ErrorContext(c.UserContext(), "reading photo upload failed", "error", err)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot read photo"})
}
