package metadomain

import (
	"fmt"
	"math/rand"
	"time"
)

// ErrorKind é a taxonomia fechada de falhas de chamadas remotas. O valor da
// constante é o código estável exposto ao chamador.
type ErrorKind string

const (
	KindAuthentication ErrorKind = "AUTHENTICATION"
	KindRateLimit      ErrorKind = "RATE_LIMIT"
	KindPermission     ErrorKind = "PERMISSION"
	KindValidation     ErrorKind = "VALIDATION"
	KindTemporary      ErrorKind = "TEMPORARY"
	KindNetwork        ErrorKind = "NETWORK"
	KindUnknown        ErrorKind = "UNKNOWN"
)

// errorCodeKinds mapeia códigos numéricos conhecidos da API para a taxonomia.
// Incluir um novo código é uma mudança de dados, não de fluxo de controle.
var errorCodeKinds = map[int]ErrorKind{
	// Sessão/token: requer reconexão da conta
	102: KindAuthentication,
	190: KindAuthentication,

	// Limites de requisição
	4:   KindRateLimit,
	17:  KindRateLimit,
	32:  KindRateLimit,
	613: KindRateLimit,

	// Permissões insuficientes
	10:  KindPermission,
	200: KindPermission,
	294: KindPermission,

	// Entrada inválida do chamador
	100: KindValidation,
	803: KindValidation,

	// Falhas transitórias do lado da plataforma
	1: KindTemporary,
	2: KindTemporary,
}

// Mensagens fixas por tipo, independentes do texto bruto retornado pela API.
var kindMessages = map[ErrorKind]string{
	KindAuthentication: "Credencial inválida ou expirada. Reconecte sua conta.",
	KindRateLimit:      "Limite de requisições atingido. Tente novamente em instantes.",
	KindPermission:     "Permissão insuficiente para esta operação. Reconecte sua conta.",
	KindValidation:     "Requisição inválida.",
	KindTemporary:      "Falha temporária na plataforma. Tente novamente em instantes.",
	KindNetwork:        "Falha de comunicação com a plataforma. Tente novamente em instantes.",
	KindUnknown:        "Erro inesperado na plataforma.",
}

// ErrorResponse representa a estrutura de erro retornada pela Graph API
type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

// ErrorDetails contém os detalhes do erro retornado pela Graph API
type ErrorDetails struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode,omitempty"`
	ErrorUserMsg string `json:"error_user_msg,omitempty"`
	FBTraceID    string `json:"fbtrace_id"`
}

// APIError é uma falha remota já classificada.
type APIError struct {
	Kind    ErrorKind
	Code    int    // código numérico remoto; 0 em falhas de transporte
	Message string // mensagem fixa por tipo
	Detail  string // campo ofensor em erros de validação, quando disponível
	TraceID string // fbtrace_id para correlação com o suporte da plataforma
	Err     error  // causa original, quando houver
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s (código %d): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable informa se o erro é transitório e elegível para nova tentativa.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindRateLimit, KindTemporary, KindNetwork:
		return true
	}
	return false
}

// BackoffDelay calcula o tempo de espera antes da tentativa de número attempt
// (indexada em zero), conforme a política de cada tipo de erro.
func (e *APIError) BackoffDelay(attempt int) time.Duration {
	switch e.Kind {
	case KindRateLimit:
		delay := time.Duration(1<<uint(attempt))*time.Second +
			time.Duration(rand.Int63n(int64(500*time.Millisecond)))
		return minDuration(delay, 60*time.Second)
	case KindTemporary:
		return minDuration(time.Duration(attempt+1)*time.Second, 10*time.Second)
	case KindNetwork:
		return minDuration(time.Duration(attempt+1)*500*time.Millisecond, 5*time.Second)
	}
	return 0
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

// ClassifyCode mapeia um código numérico remoto para a taxonomia. Códigos
// desconhecidos classificam como Unknown.
func ClassifyCode(code int) ErrorKind {
	if kind, ok := errorCodeKinds[code]; ok {
		return kind
	}
	return KindUnknown
}

// NewAPIError cria um erro classificado a partir dos detalhes retornados pela
// API. A mensagem exposta é a cópia fixa do tipo; o texto bruto da plataforma
// só sobrevive em Detail para erros de validação.
func NewAPIError(details ErrorDetails) *APIError {
	kind := ClassifyCode(details.Code)

	apiErr := &APIError{
		Kind:    kind,
		Code:    details.Code,
		Message: kindMessages[kind],
		TraceID: details.FBTraceID,
	}

	if kind == KindValidation {
		if details.ErrorUserMsg != "" {
			apiErr.Detail = details.ErrorUserMsg
		} else {
			apiErr.Detail = details.Message
		}
	}

	return apiErr
}

// NewNetworkError classifica uma falha de transporte (sem código numérico da
// plataforma: conexão recusada, timeout, DNS).
func NewNetworkError(err error) *APIError {
	return &APIError{
		Kind:    KindNetwork,
		Message: kindMessages[KindNetwork],
		Err:     err,
	}
}

// Classify garante um *APIError a partir de um erro arbitrário. Erros já
// classificados passam intactos; qualquer outro é tratado como falha de
// transporte, já que os erros com código numérico nascem classificados no
// tratamento de resposta.
func Classify(err error) *APIError {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr
	}
	return NewNetworkError(err)
}
