package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/campus_escrow/internal/core/ports/services"
	"github.com/SscSPs/campus_escrow/internal/dto"
	"github.com/SscSPs/campus_escrow/internal/middleware"
	"github.com/gin-gonic/gin"
)

// paymentHandler handles provider-facing payment routes.
type paymentHandler struct {
	escrowService   portssvc.EscrowWriterSvc
	checkoutService portssvc.CheckoutSvc
}

// RegisterPaymentRoutes registers checkout initialization and payment verification routes.
func RegisterPaymentRoutes(rg *gin.RouterGroup, escrowService portssvc.EscrowWriterSvc, checkoutService portssvc.CheckoutSvc) {
	h := &paymentHandler{escrowService: escrowService, checkoutService: checkoutService}

	rg.POST("/checkout/initialize", h.initializeCheckout)
	rg.POST("/payments/:reference/verify", h.verifyPayment)
}

// initializeCheckout godoc
// @Summary Open a hosted checkout
// @Description Generates a payment reference and returns the provider authorization URL
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   checkout body dto.InitializeCheckoutRequest true "Checkout details"
// @Success 200 {object} domain.CaptureSession
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 502 {object} map[string]string "Payment provider unavailable"
// @Security BearerAuth
// @Router /checkout/initialize [post]
func (h *paymentHandler) initializeCheckout(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.InitializeCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for checkout", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	session, err := h.checkoutService.InitializeCheckout(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, logger.With(slog.String("order_id", req.OrderID)), err, "Failed to initialize checkout")
		return
	}
	c.JSON(http.StatusOK, session)
}

// verifyPayment godoc
// @Summary Verify a payment with the provider
// @Description Confirms the escrowed payment succeeded for the full amount. Never changes escrow status.
// @Tags payments
// @Produce  json
// @Param   reference path string true "Payment reference"
// @Success 200 {object} domain.VerificationResult
// @Failure 404 {object} map[string]string "No escrow for this reference"
// @Failure 422 {object} map[string]string "Provider did not confirm the payment"
// @Failure 504 {object} map[string]string "Provider timed out"
// @Security BearerAuth
// @Router /payments/{reference}/verify [post]
func (h *paymentHandler) verifyPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	reference := c.Param("reference")

	result, err := h.escrowService.VerifyDeposit(c.Request.Context(), reference)
	if err != nil {
		respondServiceError(c, logger.With(slog.String("payment_reference", reference)), err, "Payment verification failed")
		return
	}
	c.JSON(http.StatusOK, result)
}
