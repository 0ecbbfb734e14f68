package server

import (
	"tutorhub/internal/models"
	"tutorhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// IssueInvoice handles POST /api/invoices (admin)
func (s *Server) IssueInvoice(c *fiber.Ctx) error {
	var req struct {
		RecipientID uint   `json:"recipient_id"`
		AmountCents int64  `json:"amount_cents"`
		Currency    string `json:"currency"`
		DueInDays   int    `json:"due_in_days"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	invoice, err := s.invoiceService.IssueInvoice(c.Context(), service.IssueInvoiceInput{
		RecipientID: req.RecipientID,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		DueInDays:   req.DueInDays,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// GetInvoices handles GET /api/invoices (admin)
func (s *Server) GetInvoices(c *fiber.Ctx) error {
	p := parsePagination(c, 50)
	invoices, err := s.invoiceService.ListInvoices(c.Context(), models.InvoiceStatus(c.Query("status")), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"invoices": invoices})
}

// GetMyInvoices handles GET /api/invoices/me
func (s *Server) GetMyInvoices(c *fiber.Ctx) error {
	p := parsePagination(c, 50)
	invoices, err := s.invoiceService.ListInvoicesForRecipient(c.Context(), currentUserID(c), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"invoices": invoices})
}

// GetInvoice handles GET /api/invoices/:id.
// Visible to the recipient and admins.
func (s *Server) GetInvoice(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	invoice, err := s.invoiceService.GetInvoice(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	if invoice.RecipientID != currentUserID(c) && !callerIsAdmin(c) {
		return respondServiceError(c,
			models.NewForbiddenError("You cannot view this invoice"))
	}
	return c.JSON(invoice)
}

// PayInvoice handles POST /api/invoices/:id/pay (admin)
func (s *Server) PayInvoice(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	invoice, err := s.invoiceService.MarkPaid(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(invoice)
}

// VoidInvoice handles POST /api/invoices/:id/void (admin)
func (s *Server) VoidInvoice(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	invoice, err := s.invoiceService.VoidInvoice(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(invoice)
}
