package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrTableNotFound   = errors.New("mesa não encontrada ou inativa")
	ErrProductNotFound = errors.New("produto não encontrado ou inativo")
	ErrOrderNotFound   = errors.New("pedido não encontrado")
)

// ValidationError reports a bad input constraint on a specific field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
