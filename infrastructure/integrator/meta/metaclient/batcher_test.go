package metaclient

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metadomain "github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/domain"
)

// echoExecutor responde cada requisição com 200 e o corpo igual à relative_url,
// registrando o tamanho de cada lote físico recebido.
type echoExecutor struct {
	mu         sync.Mutex
	batchSizes []int
}

func (e *echoExecutor) execute(_ context.Context, requests []metadomain.BatchRequest) ([]metadomain.BatchResponse, error) {
	e.mu.Lock()
	e.batchSizes = append(e.batchSizes, len(requests))
	e.mu.Unlock()

	responses := make([]metadomain.BatchResponse, len(requests))
	for i, req := range requests {
		responses[i] = metadomain.BatchResponse{Code: 200, Body: req.RelativeURL}
	}
	return responses, nil
}

func (e *echoExecutor) sizes() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.batchSizes...)
}

func TestBatcher_DivideEmSubLotesPreservandoOrdem(t *testing.T) {
	executor := &echoExecutor{}
	batcher := NewBatcher(executor.execute, BatcherConfig{AutoFlush: false})

	futures := make([]*Future, 0, 120)
	for i := 0; i < 120; i++ {
		futures = append(futures, batcher.AddRequest(metadomain.BatchRequest{
			Method:      "GET",
			RelativeURL: strconv.Itoa(i),
		}))
	}

	// As adições 50 e 100 atingem o teto do protocolo e forçam execuções
	// assíncronas; drena os futuros para sincronizar e então executa o resto.
	batcher.ExecuteBatch(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i, future := range futures {
		resp, err := future.Wait(ctx)
		require.NoError(t, err, "requisição %d", i)
		assert.Equal(t, strconv.Itoa(i), resp.Body, "resposta fora de ordem na posição %d", i)
	}

	// Pode sobrar uma cauda executada pela última chamada explícita, mas
	// nenhum lote físico ultrapassa o teto e o total fecha em 120.
	total := 0
	for _, size := range executor.sizes() {
		assert.LessOrEqual(t, size, metadomain.MaxBatchSize)
		total += size
	}
	assert.Equal(t, 120, total)
	assert.Equal(t, 0, batcher.QueueSize())
}

func TestBatcher_RetratoDe120ViaExecucaoUnica(t *testing.T) {
	// Sem os gatilhos assíncronos do teto interferindo: enfileira 120 de uma
	// vez segurando a execução e verifica a divisão exata 50/50/20.
	executor := &echoExecutor{}
	batcher := NewBatcher(executor.execute, BatcherConfig{AutoFlush: false})

	var futures []*Future
	batcher.mu.Lock()
	for i := 0; i < 120; i++ {
		future := &Future{ch: make(chan batchResult, 1)}
		batcher.queue = append(batcher.queue, pendingRequest{
			req:    metadomain.BatchRequest{Method: "GET", RelativeURL: strconv.Itoa(i)},
			future: future,
		})
		futures = append(futures, future)
	}
	batcher.mu.Unlock()

	results := batcher.ExecuteBatch(context.Background())

	require.Len(t, results, 120)
	assert.Equal(t, []int{50, 50, 20}, executor.sizes())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i, future := range futures {
		resp, err := future.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(i), resp.Body)
	}
}

func TestBatcher_FalhaIsoladaNaoDerrubaVizinhas(t *testing.T) {
	execute := func(_ context.Context, requests []metadomain.BatchRequest) ([]metadomain.BatchResponse, error) {
		responses := make([]metadomain.BatchResponse, len(requests))
		for i := range requests {
			if i == 2 {
				responses[i] = metadomain.BatchResponse{
					Code: 400,
					Body: `{"error":{"message":"Invalid parameter","type":"OAuthException","code":100}}`,
				}
				continue
			}
			responses[i] = metadomain.BatchResponse{Code: 200, Body: "{}"}
		}
		return responses, nil
	}

	batcher := NewBatcher(execute, BatcherConfig{AutoFlush: false})

	futures := make([]*Future, 0, 5)
	for i := 0; i < 5; i++ {
		futures = append(futures, batcher.AddRequest(metadomain.BatchRequest{
			Method:      "GET",
			RelativeURL: fmt.Sprintf("act_1/%d", i),
		}))
	}

	batcher.ExecuteBatch(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rejected := 0
	for i, future := range futures {
		_, err := future.Wait(ctx)
		if i == 2 {
			rejected++
			apiErr, ok := err.(*metadomain.APIError)
			require.True(t, ok)
			assert.Equal(t, metadomain.KindValidation, apiErr.Kind)
			continue
		}
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, rejected)
}

func TestBatcher_FalhaDeTransporteRejeitaTodoOSubLote(t *testing.T) {
	execute := func(_ context.Context, _ []metadomain.BatchRequest) ([]metadomain.BatchResponse, error) {
		return nil, &metadomain.APIError{Kind: metadomain.KindAuthentication, Code: 190}
	}

	batcher := NewBatcher(execute, BatcherConfig{AutoFlush: false})

	f1 := batcher.AddRequest(metadomain.BatchRequest{Method: "GET", RelativeURL: "a"})
	f2 := batcher.AddRequest(metadomain.BatchRequest{Method: "GET", RelativeURL: "b"})

	batcher.ExecuteBatch(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, future := range []*Future{f1, f2} {
		_, err := future.Wait(ctx)
		apiErr, ok := err.(*metadomain.APIError)
		require.True(t, ok)
		assert.Equal(t, metadomain.KindAuthentication, apiErr.Kind)
	}
}

func TestBatcher_ExecucaoConcorrenteEsperaOVooEDrenaOResiduo(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32

	execute := func(_ context.Context, requests []metadomain.BatchRequest) ([]metadomain.BatchResponse, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-release
		}
		responses := make([]metadomain.BatchResponse, len(requests))
		for i := range requests {
			responses[i] = metadomain.BatchResponse{Code: 200, Body: "{}"}
		}
		return responses, nil
	}

	batcher := NewBatcher(execute, BatcherConfig{AutoFlush: false})

	f1 := batcher.AddRequest(metadomain.BatchRequest{Method: "GET", RelativeURL: "a"})

	go batcher.ExecuteBatch(context.Background())
	<-started

	// Chega uma nova requisição com a primeira execução ainda em voo
	f2 := batcher.AddRequest(metadomain.BatchRequest{Method: "GET", RelativeURL: "b"})

	drained := make(chan struct{})
	go func() {
		batcher.ExecuteBatch(context.Background())
		close(drained)
	}()

	// A segunda chamada espera o voo atual em vez de executar por cima dele
	select {
	case <-drained:
		t.Fatal("execução concorrente não esperou o voo em andamento")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 1, batcher.QueueSize())

	close(release)

	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("resíduo da fila não foi drenado após o voo")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := f1.Wait(ctx)
	require.NoError(t, err)
	_, err = f2.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, batcher.QueueSize())
}

func TestBatcher_CaudaAposOTetoResolveSemAutoFlush(t *testing.T) {
	// Transporte lento: o disparo forçado pelo teto ainda está em voo quando a
	// execução explícita chega, com a cauda acumulada na fila nova. Nenhum
	// futuro pode ficar órfão.
	executor := &echoExecutor{}
	slow := func(ctx context.Context, requests []metadomain.BatchRequest) ([]metadomain.BatchResponse, error) {
		time.Sleep(100 * time.Millisecond)
		return executor.execute(ctx, requests)
	}

	batcher := NewBatcher(slow, BatcherConfig{AutoFlush: false})

	futures := make([]*Future, 0, 60)
	for i := 0; i < 60; i++ {
		futures = append(futures, batcher.AddRequest(metadomain.BatchRequest{
			Method:      "GET",
			RelativeURL: strconv.Itoa(i),
		}))
	}

	batcher.ExecuteBatch(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i, future := range futures {
		_, err := future.Wait(ctx)
		require.NoError(t, err, "requisição %d ficou órfã", i)
	}
	assert.Equal(t, 0, batcher.QueueSize())

	total := 0
	for _, size := range executor.sizes() {
		total += size
	}
	assert.Equal(t, 60, total)
}

func TestBatcher_ClearQueueRejeitaPendentes(t *testing.T) {
	executor := &echoExecutor{}
	batcher := NewBatcher(executor.execute, BatcherConfig{AutoFlush: false})

	futures := make([]*Future, 0, 3)
	for i := 0; i < 3; i++ {
		futures = append(futures, batcher.AddRequest(metadomain.BatchRequest{
			Method:      "GET",
			RelativeURL: strconv.Itoa(i),
		}))
	}

	cleared := batcher.ClearQueue()
	assert.Equal(t, 3, cleared)
	assert.Equal(t, 0, batcher.QueueSize())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, future := range futures {
		_, err := future.Wait(ctx)
		assert.ErrorIs(t, err, ErrQueueCleared)
	}

	// Nada chegou ao transporte
	assert.Empty(t, executor.sizes())
}

func TestBatcher_LimiarDeContagemDispara(t *testing.T) {
	executor := &echoExecutor{}
	batcher := NewBatcher(executor.execute, BatcherConfig{
		CountThreshold: 3,
		DebounceDelay:  time.Hour, // debounce fora do caminho
		AutoFlush:      true,
	})

	futures := make([]*Future, 0, 3)
	for i := 0; i < 3; i++ {
		futures = append(futures, batcher.AddRequest(metadomain.BatchRequest{
			Method:      "GET",
			RelativeURL: strconv.Itoa(i),
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, future := range futures {
		_, err := future.Wait(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, []int{3}, executor.sizes())
}

func TestBatcher_DebounceDisparaSemNovasAdicoes(t *testing.T) {
	executor := &echoExecutor{}
	batcher := NewBatcher(executor.execute, BatcherConfig{
		CountThreshold: 100,
		DebounceDelay:  30 * time.Millisecond,
		AutoFlush:      true,
	})

	future := batcher.AddRequest(metadomain.BatchRequest{Method: "GET", RelativeURL: "only"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := future.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "only", resp.Body)
	assert.Equal(t, []int{1}, executor.sizes())
}
