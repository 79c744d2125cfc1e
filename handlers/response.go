package handlers

import (
	"errors"
	"log"
	"net/http"

	"minhacomanda-api/config"
	"minhacomanda-api/ledger"
	"minhacomanda-api/notify"
	"minhacomanda-api/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler bundles the dependencies every endpoint needs; main builds one and
// routes wire its methods. No hidden globals beyond the config package.
type Handler struct {
	DB       *gorm.DB
	Cfg      *config.App
	Ledger   *ledger.Ledger
	Telegram *notify.Telegram
}

func New(db *gorm.DB, cfg *config.App, l *ledger.Ledger, tg *notify.Telegram) *Handler {
	return &Handler{DB: db, Cfg: cfg, Ledger: l, Telegram: tg}
}

// Every response uses the same envelope: {"success":true,"data":...} on
// success, {"success":false,"error":...,"details":...} on failure.

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

func respondValidation(c *gin.Context, message string, details interface{}) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": message, "details": details})
}

// respondLedgerError maps ledger and payment errors to the HTTP taxonomy.
// Unexpected errors are logged server-side and surfaced generically.
func respondLedgerError(c *gin.Context, err error) {
	var ve *ledger.ValidationError
	switch {
	case errors.As(err, &ve):
		respondValidation(c, ve.Message, gin.H{"field": ve.Field})
	case errors.Is(err, ledger.ErrTableNotFound),
		errors.Is(err, ledger.ErrProductNotFound),
		errors.Is(err, ledger.ErrOrderNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, payment.ErrBadSignature):
		respondError(c, http.StatusUnauthorized, "Assinatura inválida")
	case errors.Is(err, payment.ErrUpstream):
		log.Printf("payment gateway error: %v", err)
		respondError(c, http.StatusBadGateway, "Não foi possível gerar a cobrança Pix")
	default:
		log.Printf("internal error: %v", err)
		respondError(c, http.StatusInternalServerError, "Erro interno")
	}
}
