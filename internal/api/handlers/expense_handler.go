package handlers

import (
	"errors"

	"receiptwise/internal/dto"
	"receiptwise/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ExpenseHandler struct {
	expenses *service.ExpenseService
	logger   *zap.Logger
}

func NewExpenseHandler(expenses *service.ExpenseService, logger *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		expenses: expenses,
		logger:   logger,
	}
}

// Save godoc
// @Summary Save a confirmed transaction
// @Description Persist a reviewed transaction and its line items atomically, returning the assigned identifiers
// @Tags expenses
// @Accept json
// @Produce json
// @Param request body dto.SaveExpenseRequest true "Transaction to save"
// @Security Bearer
// @Success 201 {object} dto.PersistedTransactionResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 422 {object} dto.ExtractionFailure
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Save(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var req dto.SaveExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	resp, err := h.expenses.Save(c.Context(), userID, &req)
	if err != nil {
		var extractionErr *service.ExtractionError
		if errors.As(err, &extractionErr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ExtractionFailure{
				Kind:  string(extractionErr.Kind),
				Error: extractionErr.Message,
				Value: extractionErr.Value,
			})
		}
		h.logger.Error("Failed to save transaction", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save transaction",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// List godoc
// @Summary List saved transactions
// @Description Get the user's transactions, newest first, with line items
// @Tags expenses
// @Produce json
// @Param limit query int false "Limit" default(50)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {array} models.Transaction
// @Failure 401 {object} map[string]string
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	transactions, err := h.expenses.List(c.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list transactions", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list transactions",
		})
	}

	return c.JSON(transactions)
}

// Summary godoc
// @Summary Monthly spending summary
// @Description Get per-category totals for one calendar month
// @Tags expenses
// @Produce json
// @Param month query string false "Month in YYYY-MM format, defaults to current"
// @Security Bearer
// @Success 200 {object} dto.SummaryResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/v1/expenses/summary [get]
func (h *ExpenseHandler) Summary(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	resp, err := h.expenses.Summary(c.Context(), userID, c.Query("month"))
	if err != nil {
		h.logger.Error("Failed to build summary", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid month",
		})
	}

	return c.JSON(resp)
}
