package handlers

import (
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/campus_escrow/internal/core/ports/services"
	"github.com/SscSPs/campus_escrow/internal/dto"
	"github.com/SscSPs/campus_escrow/internal/middleware"
	"github.com/gin-gonic/gin"
)

// escrowHandler handles HTTP requests for the escrow ledger.
type escrowHandler struct {
	escrowService    portssvc.EscrowSvcFacade
	autoReleaseAfter time.Duration
}

func newEscrowHandler(escrowService portssvc.EscrowSvcFacade, autoReleaseAfter time.Duration) *escrowHandler {
	return &escrowHandler{escrowService: escrowService, autoReleaseAfter: autoReleaseAfter}
}

// RegisterEscrowRoutes registers escrow ledger routes. autoReleaseAfter is the sweep
// threshold used when a manual sweep does not name one.
func RegisterEscrowRoutes(rg *gin.RouterGroup, escrowService portssvc.EscrowSvcFacade, autoReleaseAfter time.Duration) {
	h := newEscrowHandler(escrowService, autoReleaseAfter)

	escrows := rg.Group("/escrows")
	{
		escrows.POST("", h.deposit)
		escrows.GET("", h.listEscrows)
		escrows.GET("/balance", h.getBalance)
		escrows.POST("/sweep", h.sweep)
		escrows.GET("/:orderID", h.getEscrow)
		escrows.POST("/:orderID/release", h.release)
	}

	vendors := rg.Group("/vendors")
	{
		vendors.GET("/:vendorID/statement", h.getVendorStatement)
	}
}

// deposit godoc
// @Summary Hold a captured payment in escrow
// @Description Records the commission split for an order and holds the funds until release
// @Tags escrows
// @Accept  json
// @Produce  json
// @Param   escrow body dto.DepositRequest true "Deposit details"
// @Success 201 {object} dto.EscrowResponse
// @Failure 400 {object} map[string]string "Invalid amount, rate or request format"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Order or payment reference already in escrow"
// @Failure 500 {object} map[string]string "Failed to create escrow"
// @Security BearerAuth
// @Router /escrows [post]
func (h *escrowHandler) deposit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for deposit", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Creator user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	record, err := h.escrowService.Deposit(c.Request.Context(), req, actorID)
	if err != nil {
		respondServiceError(c, logger.With(slog.String("order_id", req.OrderID)), err, "Failed to create escrow")
		return
	}

	c.JSON(http.StatusCreated, dto.ToEscrowResponse(record))
}

// getEscrow godoc
// @Summary Get an escrow record
// @Tags escrows
// @Produce  json
// @Param   orderID path string true "Order ID"
// @Success 200 {object} dto.EscrowResponse
// @Failure 404 {object} map[string]string "Escrow not found"
// @Failure 500 {object} map[string]string "Failed to retrieve escrow"
// @Security BearerAuth
// @Router /escrows/{orderID} [get]
func (h *escrowHandler) getEscrow(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orderID := c.Param("orderID")

	record, err := h.escrowService.GetEscrow(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, logger.With(slog.String("order_id", orderID)), err, "Failed to retrieve escrow")
		return
	}
	c.JSON(http.StatusOK, dto.ToEscrowResponse(record))
}

// listEscrows godoc
// @Summary List escrow records
// @Description Newest deposit first, paginated with nextToken
// @Tags escrows
// @Produce  json
// @Param   status query string false "HELD or RELEASED"
// @Param   vendorID query string false "Vendor ID"
// @Param   limit query int false "Page size (1-100)"
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListEscrowsResponse
// @Failure 400 {object} map[string]string "Invalid query"
// @Failure 500 {object} map[string]string "Failed to list escrows"
// @Security BearerAuth
// @Router /escrows [get]
func (h *escrowHandler) listEscrows(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListEscrowsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for list escrows", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.escrowService.ListEscrows(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list escrows")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getBalance godoc
// @Summary Aggregate held escrow
// @Tags escrows
// @Produce  json
// @Success 200 {object} domain.EscrowBalance
// @Failure 500 {object} map[string]string "Failed to compute balance"
// @Security BearerAuth
// @Router /escrows/balance [get]
func (h *escrowHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	balance, err := h.escrowService.GetEscrowBalance(c.Request.Context())
	if err != nil {
		respondServiceError(c, logger, err, "Failed to compute balance")
		return
	}
	c.JSON(http.StatusOK, balance)
}

// release godoc
// @Summary Release an escrow to the vendor
// @Description Credits the vendor's seller amount exactly once and marks the order paid out
// @Tags escrows
// @Produce  json
// @Param   orderID path string true "Order ID"
// @Success 200 {object} domain.ReleaseResult
// @Failure 404 {object} map[string]string "Escrow not found"
// @Failure 409 {object} map[string]string "Already released or not verified"
// @Failure 500 {object} map[string]string "Failed to release escrow"
// @Security BearerAuth
// @Router /escrows/{orderID}/release [post]
func (h *escrowHandler) release(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orderID := c.Param("orderID")

	actorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Releasing user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.escrowService.Release(c.Request.Context(), orderID, actorID)
	if err != nil {
		respondServiceError(c, logger.With(slog.String("order_id", orderID)), err, "Failed to release escrow")
		return
	}
	c.JSON(http.StatusOK, result)
}

// sweep godoc
// @Summary Run an auto-release pass now
// @Description Releases every held escrow older than thresholdHours (default: configured auto-release age)
// @Tags escrows
// @Accept  json
// @Produce  json
// @Param   sweep body dto.SweepRequest false "Sweep options"
// @Success 200 {object} domain.SweepResult
// @Failure 400 {object} map[string]string "Invalid threshold"
// @Failure 500 {object} map[string]string "Sweep failed"
// @Security BearerAuth
// @Router /escrows/sweep [post]
func (h *escrowHandler) sweep(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.SweepRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for sweep", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	threshold := h.autoReleaseAfter
	if req.ThresholdHours > 0 {
		threshold = time.Duration(req.ThresholdHours * float64(time.Hour))
	}

	result, err := h.escrowService.SweepAutoRelease(c.Request.Context(), threshold)
	if err != nil {
		respondServiceError(c, logger, err, "Sweep failed")
		return
	}
	c.JSON(http.StatusOK, result)
}

// getVendorStatement godoc
// @Summary Vendor escrow statement
// @Description Revenue, platform fees and net earnings from released escrows plus what is still held
// @Tags vendors
// @Produce  json
// @Param   vendorID path string true "Vendor ID"
// @Success 200 {object} domain.VendorStatement
// @Failure 500 {object} map[string]string "Failed to build statement"
// @Security BearerAuth
// @Router /vendors/{vendorID}/statement [get]
func (h *escrowHandler) getVendorStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	vendorID := c.Param("vendorID")

	statement, err := h.escrowService.GetVendorStatement(c.Request.Context(), vendorID)
	if err != nil {
		respondServiceError(c, logger.With(slog.String("vendor_id", vendorID)), err, "Failed to build statement")
		return
	}
	c.JSON(http.StatusOK, statement)
}
