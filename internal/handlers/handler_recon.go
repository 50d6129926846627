package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fintrackr/recon_engine/internal/apperrors"
	"github.com/fintrackr/recon_engine/internal/core/domain"
	portssvc "github.com/fintrackr/recon_engine/internal/core/ports/services"
	"github.com/fintrackr/recon_engine/internal/dto"
	"github.com/fintrackr/recon_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reconHandler exposes the reconciliation engine over HTTP.
type reconHandler struct {
	reconciler portssvc.ReconcilerSvc
	balances   portssvc.BalanceReaderSvc
	cashback   portssvc.CashbackSvc
	debts      portssvc.DebtSvc
}

// NewReconHandler creates a new reconHandler.
func NewReconHandler(reconciler portssvc.ReconcilerSvc, balances portssvc.BalanceReaderSvc, cashback portssvc.CashbackSvc, debts portssvc.DebtSvc) *reconHandler {
	return &reconHandler{
		reconciler: reconciler,
		balances:   balances,
		cashback:   cashback,
		debts:      debts,
	}
}

// RegisterReconRoutes registers the engine's routes. The recompute group is
// expected to sit behind the rate limit middleware; reads are unthrottled.
func RegisterReconRoutes(rg *gin.RouterGroup, h *reconHandler, recomputeMiddleware ...gin.HandlerFunc) {
	recompute := rg.Group("/recompute", recomputeMiddleware...)
	{
		recompute.POST("", h.recomputeAll)
		recompute.POST("/accounts/:accountID", h.recomputeAccount)
		recompute.POST("/people/:personID", h.recomputePerson)
	}
	rg.GET("/accounts/:accountID/balance", h.getBalance)
	rg.GET("/accounts/:accountID/cashback", h.getCashback)
	rg.GET("/people/:personID/net-owed", h.getNetOwed)
}

func (h *reconHandler) recomputeAll(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing tenant user"})
		return
	}

	logger.Info("Received request to recompute all targets", slog.String("user_id", userID))
	report, err := h.reconciler.RecomputeAll(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrStoreUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Recompute fan-out failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to recompute"})
		return
	}
	c.JSON(http.StatusOK, dto.ToReportResponse(report))
}

func (h *reconHandler) recomputeAccount(c *gin.Context) {
	h.recomputeTarget(c, domain.TargetAccount, c.Param("accountID"))
}

func (h *reconHandler) recomputePerson(c *gin.Context) {
	h.recomputeTarget(c, domain.TargetPerson, c.Param("personID"))
}

func (h *reconHandler) recomputeTarget(c *gin.Context, targetType domain.TargetType, targetID string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing tenant user"})
		return
	}
	logger = logger.With(slog.String("target_type", string(targetType)), slog.String("target_id", targetID))

	var (
		outcome *domain.Outcome
		err     error
	)
	if targetType == domain.TargetAccount {
		outcome, err = h.reconciler.RecomputeAccount(c.Request.Context(), userID, targetID)
	} else {
		outcome, err = h.reconciler.RecomputePerson(c.Request.Context(), userID, targetID)
	}
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAlreadyRunning):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "target not found"})
		case errors.Is(err, apperrors.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrReconciliationFailed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Recompute failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to recompute"})
		}
		return
	}

	logger.Info("Recompute committed")
	c.JSON(http.StatusOK, dto.ToOutcomeResponse(outcome))
}

func (h *reconHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing tenant user"})
		return
	}
	accountID := c.Param("accountID")

	view, err := h.balances.GetBalance(c.Request.Context(), userID, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		logger.Error("Failed to get balance", slog.String("error", err.Error()), slog.String("account_id", accountID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve balance"})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *reconHandler) getCashback(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing tenant user"})
		return
	}
	accountID := c.Param("accountID")

	var params dto.CashbackQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	at := time.Now().UTC()
	if params.Year != 0 && params.Month != 0 {
		// Mid-month anchor so the selected cycle is the one covering that
		// calendar month regardless of the statement day.
		at = time.Date(params.Year, time.Month(params.Month), 15, 0, 0, 0, 0, time.UTC)
	}

	cycle, err := h.cashback.CycleFor(c.Request.Context(), accountID, at)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.cashback.ComputeCashback(c.Request.Context(), userID, accountID, cycle)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		logger.Error("Failed to compute cashback", slog.String("error", err.Error()), slog.String("account_id", accountID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute cashback"})
		return
	}
	c.JSON(http.StatusOK, dto.ToCashbackResponse(result))
}

func (h *reconHandler) getNetOwed(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing tenant user"})
		return
	}
	personID := c.Param("personID")

	netOwed, err := h.debts.Reconcile(c.Request.Context(), userID, personID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Person not found"})
			return
		}
		logger.Error("Failed to reconcile person", slog.String("error", err.Error()), slog.String("person_id", personID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute net owed"})
		return
	}
	c.JSON(http.StatusOK, dto.ToNetOwedResponse(netOwed))
}
