package handlers

import (
	"errors"
	"strconv"

	"receiptwise/internal/dto"
	"receiptwise/internal/service"
	"receiptwise/internal/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type OCRHandler struct {
	extraction *service.ExtractionService
	images     *storage.ImageStore
	logger     *zap.Logger
}

func NewOCRHandler(extraction *service.ExtractionService, images *storage.ImageStore, logger *zap.Logger) *OCRHandler {
	return &OCRHandler{
		extraction: extraction,
		images:     images,
		logger:     logger,
	}
}

// Upload godoc
// @Summary Upload a receipt image
// @Description Store a receipt image for later extraction
// @Tags ocr
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Receipt image (jpeg, png, gif, webp)"
// @Security Bearer
// @Success 201 {object} dto.UploadResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/v1/upload [post]
func (h *OCRHandler) Upload(c *fiber.Ctx) error {
	if _, err := getUserID(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	filename, err := h.images.Store(file.Filename, file.Header.Get("Content-Type"), file.Size, src)
	if err != nil {
		var validationErr *storage.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": validationErr.Reason,
			})
		}
		h.logger.Error("Failed to store image", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store image",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.UploadResponse{Filename: filename})
}

// Extract godoc
// @Summary Extract a transaction from a stored receipt image
// @Description Run the receipt image through the vision model and return a transient transaction. Nothing is persisted.
// @Tags ocr
// @Accept json
// @Produce json
// @Param request body dto.ExtractRequest true "Extraction request"
// @Security Bearer
// @Success 200 {object} models.Transaction
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 422 {object} dto.ExtractionFailure
// @Failure 502 {object} map[string]string
// @Router /api/v1/ocr [post]
func (h *OCRHandler) Extract(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var req dto.ExtractRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.ImagePath == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "imagePath is required",
		})
	}

	tx, err := h.extraction.Extract(c.Context(), userID, req.ImagePath)
	if err != nil {
		return h.extractionError(c, err)
	}

	return c.JSON(tx)
}

// Refine godoc
// @Summary Refine an extracted transaction
// @Description Apply one natural-language instruction to a previously extracted transaction and return the updated object
// @Tags ocr
// @Accept json
// @Produce json
// @Param request body dto.RefineRequest true "Refinement request"
// @Security Bearer
// @Success 200 {object} models.Transaction
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 422 {object} dto.ExtractionFailure
// @Failure 502 {object} map[string]string
// @Router /api/v1/ocr/refine [post]
func (h *OCRHandler) Refine(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var req dto.RefineRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Instruction == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Instruction is required",
		})
	}

	tx, err := h.extraction.Refine(c.Context(), userID, &req.Transaction, req.Instruction)
	if err != nil {
		return h.extractionError(c, err)
	}

	return c.JSON(tx)
}

// extractionError maps pipeline failures onto HTTP statuses: contract
// violations are the client's problem to review (422, with the raw model
// text), model transport failures are a bad gateway, path problems are
// bad requests.
func (h *OCRHandler) extractionError(c *fiber.Ctx, err error) error {
	var extractionErr *service.ExtractionError
	if errors.As(err, &extractionErr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ExtractionFailure{
			Kind:    string(extractionErr.Kind),
			Error:   extractionErr.Message,
			Value:   extractionErr.Value,
			RawText: extractionErr.RawText,
		})
	}

	if errors.Is(err, service.ErrInference) {
		h.logger.Error("Inference failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Model request failed",
		})
	}

	if errors.Is(err, storage.ErrPathOutsideRoot) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid image path",
		})
	}

	h.logger.Error("Extraction failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Extraction failed",
	})
}

func getUserID(c *fiber.Ctx) (int64, error) {
	userIDStr, ok := c.Locals("userID").(string)
	if !ok {
		return 0, fiber.ErrUnauthorized
	}

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return 0, err
	}

	return userID, nil
}
