package syncing

import (
	"errors"
)

// Erros específicos para o contexto de sincronização
var (
	ErrAccountIDRequired = errors.New("account ID is required")
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountNotActive  = errors.New("conta não está ativa para sincronização")
	ErrDatabaseOperation = errors.New("erro ao realizar operação no banco de dados")
)
