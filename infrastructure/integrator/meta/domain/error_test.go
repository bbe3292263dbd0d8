package metadomain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyCode(t *testing.T) {
	tests := []struct {
		name string
		code int
		want ErrorKind
	}{
		{"token expirado classifica como autenticação", 190, KindAuthentication},
		{"sessão inválida classifica como autenticação", 102, KindAuthentication},
		{"limite da aplicação classifica como rate limit", 4, KindRateLimit},
		{"limite do usuário classifica como rate limit", 17, KindRateLimit},
		{"limite da página classifica como rate limit", 32, KindRateLimit},
		{"limite customizado classifica como rate limit", 613, KindRateLimit},
		{"permissão negada", 10, KindPermission},
		{"permissão de recurso", 200, KindPermission},
		{"parâmetro inválido classifica como validação", 100, KindValidation},
		{"falha transitória da API", 1, KindTemporary},
		{"indisponibilidade do serviço", 2, KindTemporary},
		{"código desconhecido classifica como unknown", 99999, KindUnknown},
		{"código zero classifica como unknown", 0, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyCode(tt.code))
		})
	}
}

func TestAPIError_Retryable(t *testing.T) {
	retryable := []ErrorKind{KindRateLimit, KindTemporary, KindNetwork}
	terminal := []ErrorKind{KindAuthentication, KindPermission, KindValidation, KindUnknown}

	for _, kind := range retryable {
		assert.True(t, (&APIError{Kind: kind}).Retryable(), string(kind))
	}
	for _, kind := range terminal {
		assert.False(t, (&APIError{Kind: kind}).Retryable(), string(kind))
	}
}

func TestAPIError_BackoffDelay_RateLimit(t *testing.T) {
	err := &APIError{Kind: KindRateLimit}

	// Tentativa 0: 1000ms + jitter uniforme em [0, 500ms)
	for i := 0; i < 50; i++ {
		delay := err.BackoffDelay(0)
		assert.GreaterOrEqual(t, delay, 1000*time.Millisecond)
		assert.Less(t, delay, 1500*time.Millisecond)
	}

	// Tentativa 5: 32s + jitter, abaixo do teto
	delay := err.BackoffDelay(5)
	assert.GreaterOrEqual(t, delay, 32*time.Second)
	assert.Less(t, delay, 33*time.Second)

	// Tentativas altas saturam no teto de 60s
	assert.Equal(t, 60*time.Second, err.BackoffDelay(10))
}

func TestAPIError_BackoffDelay_Temporary(t *testing.T) {
	err := &APIError{Kind: KindTemporary}

	assert.Equal(t, 1*time.Second, err.BackoffDelay(0))
	assert.Equal(t, 3*time.Second, err.BackoffDelay(2))
	assert.Equal(t, 10*time.Second, err.BackoffDelay(9))
	assert.Equal(t, 10*time.Second, err.BackoffDelay(50))
}

func TestAPIError_BackoffDelay_Network(t *testing.T) {
	err := &APIError{Kind: KindNetwork}

	assert.Equal(t, 500*time.Millisecond, err.BackoffDelay(0))
	assert.Equal(t, 1500*time.Millisecond, err.BackoffDelay(2))
	assert.Equal(t, 5*time.Second, err.BackoffDelay(9))
	assert.Equal(t, 5*time.Second, err.BackoffDelay(100))
}

func TestNewAPIError_MensagemFixaETraceID(t *testing.T) {
	apiErr := NewAPIError(ErrorDetails{
		Message:   "Error validating access token: Session has expired",
		Type:      "OAuthException",
		Code:      190,
		FBTraceID: "AbCdEf123",
	})

	assert.Equal(t, KindAuthentication, apiErr.Kind)
	assert.Equal(t, 190, apiErr.Code)
	assert.Equal(t, "AbCdEf123", apiErr.TraceID)
	// A mensagem exposta é a cópia fixa, não o texto bruto da plataforma
	assert.NotContains(t, apiErr.Message, "Session has expired")
	assert.Empty(t, apiErr.Detail)
}

func TestNewAPIError_ValidacaoPreservaDetalhe(t *testing.T) {
	apiErr := NewAPIError(ErrorDetails{
		Message:      "Invalid parameter",
		Code:         100,
		ErrorUserMsg: "O campo time_range é inválido",
	})

	assert.Equal(t, KindValidation, apiErr.Kind)
	assert.Equal(t, "O campo time_range é inválido", apiErr.Detail)
}

func TestClassify(t *testing.T) {
	original := &APIError{Kind: KindRateLimit, Code: 4}
	assert.Same(t, original, Classify(original))

	transport := Classify(errors.New("dial tcp: connection refused"))
	assert.Equal(t, KindNetwork, transport.Kind)
	assert.True(t, transport.Retryable())
	assert.Zero(t, transport.Code)
}
