package metaclient

import (
	"context"
	"time"

	metadomain "github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/campaign-manager-api/pkg/log"
	"github.com/vfg2006/campaign-manager-api/pkg/monitoring"
)

// DefaultMaxRetries é o número padrão de novas tentativas após a chamada
// inicial.
const DefaultMaxRetries = 3

// RetryNotify é chamado antes de cada espera de backoff; usado para logging.
type RetryNotify func(err *metadomain.APIError, attempt int)

// ExecuteWithRetry executa a operação e, em caso de falha transitória
// (classificada como retryable), espera o backoff do tipo de erro e tenta de
// novo até maxRetries vezes. Erros terminais e tentativas esgotadas retornam
// o erro classificado ao chamador.
func ExecuteWithRetry[T any](ctx context.Context, op func() (T, error), maxRetries int, onRetry RetryNotify) (T, error) {
	var zero T

	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}

		apiErr := metadomain.Classify(err)
		if !apiErr.Retryable() || attempt >= maxRetries {
			return zero, apiErr
		}

		if onRetry != nil {
			onRetry(apiErr, attempt)
		}

		monitoring.RemoteCallRetries.WithLabelValues(string(apiErr.Kind)).Inc()

		delay := apiErr.BackoffDelay(attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// LogRetry é o RetryNotify padrão: falhas transitórias são esperadas e se
// resolvem sozinhas, então logam em severidade baixa.
func LogRetry(operation string) RetryNotify {
	return func(err *metadomain.APIError, attempt int) {
		log.L.WithFields(log.Fields{
			"operation": operation,
			"kind":      string(err.Kind),
			"code":      err.Code,
			"trace_id":  err.TraceID,
			"attempt":   attempt,
		}).Warn("Falha transitória em chamada remota, tentando novamente")
	}
}
