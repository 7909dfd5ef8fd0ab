package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/tokenvision/inference-be/internal/api/dto"
)

// TokenHandler handles token balance HTTP requests.
type TokenHandler struct {
	logger *slog.Logger
	ledger Ledger
}

// NewTokenHandler creates a new TokenHandler instance
func NewTokenHandler(deps *Dependencies) *TokenHandler {
	return &TokenHandler{
		logger: deps.Logger,
		ledger: deps.Ledger,
	}
}

// GetTokens handles GET /api/v1/tokens
//
// Admins may inspect another account with ?username=.
func (h *TokenHandler) GetTokens(c *gin.Context) {
	acct := accountFromContext(c)

	username := c.Query("username")
	if username != "" && username != acct.Username {
		if !acct.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		other, err := h.ledger.AccountByUsername(c.Request.Context(), username)
		if err != nil {
			writeError(c, h.logger, err)
			return
		}
		acct = other
	}

	c.JSON(http.StatusOK, dto.TokensResponse{
		Username: acct.Username,
		Balance:  acct.Balance,
	})
}

// Recharge handles POST /api/v1/tokens/recharge (admin only).
func (h *TokenHandler) Recharge(c *gin.Context) {
	var req dto.RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	target, err := h.ledger.AccountByUsername(c.Request.Context(), req.Username)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	// The reported balance is read under the row lock so concurrent debits
	// between the lookup above and the credit cannot skew it.
	var balance float64
	err = h.ledger.WithinTx(c.Request.Context(), func(tx *sqlx.Tx) error {
		current, err := h.ledger.AccountForUpdateTx(c.Request.Context(), tx, target.ID)
		if err != nil {
			return err
		}
		if err := h.ledger.CreditTx(c.Request.Context(), tx, target.ID, req.Amount); err != nil {
			return err
		}
		balance = current.Balance + req.Amount
		return nil
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.logger.Info("Account recharged",
		slog.String("username", target.Username),
		slog.Float64("amount", req.Amount),
	)

	c.JSON(http.StatusOK, dto.TokensResponse{
		Username: target.Username,
		Balance:  balance,
	})
}
