package credentialing

import (
	"errors"
	"fmt"
)

// Erros específicos para o contexto de credenciais
var (
	ErrAccountIDRequired = errors.New("account ID is required")
	ErrAccountNotFound   = errors.New("account not found")

	// Conta sem credencial armazenada
	ErrNotConnected = errors.New("conta não conectada à plataforma")
	// Credencial com expiração conhecida já vencida
	ErrCredentialExpired = errors.New("credencial expirada")
	// Credencial rejeitada pela plataforma ou blob indecifrável
	ErrCredentialInvalid = errors.New("credencial inválida")

	ErrDatabaseOperation = errors.New("erro ao realizar operação no banco de dados")
)

// CredentialError é um erro com contexto adicional para credenciais
type CredentialError struct {
	Err       error
	AccountID string
	Details   string
}

// Error implementa a interface error
func (e *CredentialError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

// Unwrap retorna o erro subjacente
func (e *CredentialError) Unwrap() error {
	return e.Err
}

// IsTerminal indica se o erro dispensa novas tentativas até o operador
// reconectar a conta.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrNotConnected) ||
		errors.Is(err, ErrCredentialExpired) ||
		errors.Is(err, ErrCredentialInvalid)
}

// NewCredentialError cria um novo CredentialError
func NewCredentialError(baseErr error, accountID, details string) *CredentialError {
	return &CredentialError{
		Err:       baseErr,
		AccountID: accountID,
		Details:   details,
	}
}
