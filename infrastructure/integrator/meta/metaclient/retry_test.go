package metaclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metadomain "github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/domain"
)

func TestExecuteWithRetry_SucessoImediato(t *testing.T) {
	calls := 0
	result, err := ExecuteWithRetry(context.Background(), func() (string, error) {
		calls++
		return "ok", nil
	}, 3, nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestExecuteWithRetry_ErroTerminalNaoRetenta(t *testing.T) {
	calls := 0
	authErr := &metadomain.APIError{Kind: metadomain.KindAuthentication, Code: 190}

	_, err := ExecuteWithRetry(context.Background(), func() (string, error) {
		calls++
		return "", authErr
	}, 3, nil)

	assert.Equal(t, 1, calls)

	apiErr, ok := err.(*metadomain.APIError)
	require.True(t, ok)
	assert.Equal(t, metadomain.KindAuthentication, apiErr.Kind)
}

func TestExecuteWithRetry_TransitorioRecupera(t *testing.T) {
	calls := 0
	retries := []int{}

	result, err := ExecuteWithRetry(context.Background(), func() (int, error) {
		calls++
		if calls < 3 {
			return 0, &metadomain.APIError{Kind: metadomain.KindNetwork}
		}
		return 42, nil
	}, 3, func(apiErr *metadomain.APIError, attempt int) {
		retries = append(retries, attempt)
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{0, 1}, retries)
}

func TestExecuteWithRetry_TentativasEsgotadas(t *testing.T) {
	calls := 0

	_, err := ExecuteWithRetry(context.Background(), func() (string, error) {
		calls++
		return "", &metadomain.APIError{Kind: metadomain.KindNetwork}
	}, 1, nil)

	// 1 chamada inicial + 1 nova tentativa
	assert.Equal(t, 2, calls)

	apiErr, ok := err.(*metadomain.APIError)
	require.True(t, ok)
	assert.Equal(t, metadomain.KindNetwork, apiErr.Kind)
}

func TestExecuteWithRetry_ErroCruClassificaComoNetwork(t *testing.T) {
	_, err := ExecuteWithRetry(context.Background(), func() (string, error) {
		return "", assert.AnError
	}, 0, nil)

	apiErr, ok := err.(*metadomain.APIError)
	require.True(t, ok)
	assert.Equal(t, metadomain.KindNetwork, apiErr.Kind)
}

func TestExecuteWithRetry_ContextoCanceladoInterrompeEspera(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := ExecuteWithRetry(ctx, func() (string, error) {
			return "", &metadomain.APIError{Kind: metadomain.KindRateLimit}
		}, 5, nil)
		done <- err
	}()

	// Cancela durante o backoff (rate limit espera ao menos 1s)
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("ExecuteWithRetry não respeitou o cancelamento do contexto")
	}
}
