package orcamento

import (
	"errors"
	"fmt"
)

var (
	ErrNoProcedures          = errors.New("budget has no procedures")
	ErrItemNotFound          = errors.New("line item not found")
	ErrPaymentIncomplete     = errors.New("payment entry incomplete")
	ErrPaymentIndex          = errors.New("payment index out of range")
	ErrWrongPaymentMode      = errors.New("operation not valid for payment mode")
	ErrInvalidPaymentMode    = errors.New("invalid payment mode")
	ErrInstallmentIncomplete = errors.New("installment plan incomplete")
	ErrPartsExceedTotal      = errors.New("payment parts exceed total")
	ErrInvalidStep           = errors.New("operation not valid in current step")
	ErrNotNew                = errors.New("draft can only be saved for a new budget")
	ErrNotOpen               = errors.New("budget wizard is not open")
	ErrBudgetSigned          = errors.New("budget already signed")
	ErrMissingPhone          = errors.New("signer phone required")
	ErrMissingSigner         = errors.New("signer name required")
	ErrUnknownField          = errors.New("unknown field")
	ErrInvalidValue          = errors.New("invalid value")
	ErrInvalidAmount         = errors.New("invalid amount")
)

// ValidationError is raised before any network call; Message is shown to the user as is.
type ValidationError struct {
	Err     error
	Message string
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error, msg string) error {
	return &ValidationError{Err: err, Message: msg}
}

// PersistenceError wraps a store failure. The caller may retry: wizard state is left untouched.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

// UserMessage returns the pt-BR message to show for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return "Não foi possível salvar o orçamento. Verifique sua conexão e tente novamente."
	}
	if errors.Is(err, ErrBudgetSigned) {
		return "Este orçamento já foi assinado e não pode ser alterado."
	}
	if errors.Is(err, ErrNotOpen) {
		return "O orçamento não está aberto para edição."
	}
	return "Erro inesperado. Tente novamente."
}
