package metaclient

import (
	"context"
	"sync"
	"time"

	metadomain "github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/campaign-manager-api/pkg/log"
	"github.com/vfg2006/campaign-manager-api/pkg/monitoring"
)

// ErrQueueCleared rejeita futuros pendentes quando a fila é descartada.
var ErrQueueCleared = &metadomain.APIError{
	Kind:    metadomain.KindTemporary,
	Message: "Fila de requisições descartada antes da execução.",
}

// ExecuteBatchFunc é o transporte físico de um lote, já vinculado ao token da
// conta.
type ExecuteBatchFunc func(ctx context.Context, requests []metadomain.BatchRequest) ([]metadomain.BatchResponse, error)

// BatcherConfig parametriza a coalescência automática.
type BatcherConfig struct {
	// CountThreshold dispara a execução quando a fila atinge este tamanho
	CountThreshold int
	// DebounceDelay dispara a execução após este intervalo sem novas adições
	DebounceDelay time.Duration
	// MaxRetries por lote físico
	MaxRetries int
	// AutoFlush habilita os gatilhos automáticos; desabilitado, a execução
	// só acontece via ExecuteBatch explícito (ou ao atingir o teto do
	// protocolo, que sempre força)
	AutoFlush bool
}

type batchResult struct {
	resp metadomain.BatchResponse
	err  error
}

// Future representa o resultado pendente de uma requisição lógica enfileirada.
type Future struct {
	ch chan batchResult
}

// Wait bloqueia até a resolução da requisição ou o cancelamento do contexto.
func (f *Future) Wait(ctx context.Context) (metadomain.BatchResponse, error) {
	select {
	case result := <-f.ch:
		return result.resp, result.err
	case <-ctx.Done():
		return metadomain.BatchResponse{}, ctx.Err()
	}
}

type pendingRequest struct {
	req    metadomain.BatchRequest
	future *Future
}

// Batcher acumula requisições lógicas e as executa em lotes físicos limitados
// pelo teto do protocolo, resolvendo o futuro de cada requisição
// individualmente. Uma instância atende uma conta (um token).
type Batcher struct {
	execute ExecuteBatchFunc
	cfg     BatcherConfig

	mu        sync.Mutex
	cond      *sync.Cond
	queue     []pendingRequest
	timer     *time.Timer
	executing bool
}

// NewBatcher cria um coalescedor de requisições. Zeros na configuração
// assumem os padrões (limiar 10, debounce 100ms).
func NewBatcher(execute ExecuteBatchFunc, cfg BatcherConfig) *Batcher {
	if cfg.CountThreshold <= 0 {
		cfg.CountThreshold = 10
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	b := &Batcher{
		execute: execute,
		cfg:     cfg,
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// AddRequest enfileira uma requisição lógica e retorna o futuro da resposta.
// Em modo automático, a execução dispara pelo limiar de contagem ou pelo
// debounce — o que vier primeiro; o teto do protocolo sempre força.
func (b *Batcher) AddRequest(req metadomain.BatchRequest) *Future {
	future := &Future{ch: make(chan batchResult, 1)}

	b.mu.Lock()
	b.queue = append(b.queue, pendingRequest{req: req, future: future})
	queueLen := len(b.queue)

	if queueLen >= metadomain.MaxBatchSize {
		b.stopTimerLocked()
		b.mu.Unlock()
		go b.ExecuteBatch(context.Background())
		return future
	}

	if b.cfg.AutoFlush {
		if queueLen >= b.cfg.CountThreshold {
			b.stopTimerLocked()
			b.mu.Unlock()
			go b.ExecuteBatch(context.Background())
			return future
		}

		// Cada adição reinicia o debounce
		b.stopTimerLocked()
		b.timer = time.AfterFunc(b.cfg.DebounceDelay, func() {
			b.ExecuteBatch(context.Background())
		})
	}
	b.mu.Unlock()

	return future
}

// stopTimerLocked cancela o debounce pendente. Chamador segura o lock.
func (b *Batcher) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// ExecuteBatch tira um retrato da fila atual, limpa-a imediatamente (novas
// adições formam uma fila nova) e executa o retrato em sub-lotes físicos de
// até 50, preservando a ordem de submissão nas respostas. Uma chamada
// concorrente com execução em voo espera o voo terminar e então executa o
// resíduo acumulado, para que nenhum futuro fique esperando um disparo que
// nunca vem.
func (b *Batcher) ExecuteBatch(ctx context.Context) []metadomain.BatchResponse {
	b.mu.Lock()
	for b.executing {
		b.cond.Wait()
	}
	if len(b.queue) == 0 {
		b.mu.Unlock()
		return nil
	}
	b.executing = true
	snapshot := b.queue
	b.queue = nil
	b.stopTimerLocked()
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.executing = false
		b.cond.Broadcast()

		// Requisições chegadas durante a execução não podem ficar órfãs
		// esperando uma adição futura. O rearme vale mesmo sem AutoFlush: o
		// resíduo descende de um disparo forçado pelo teto do protocolo.
		if len(b.queue) > 0 {
			b.stopTimerLocked()
			b.timer = time.AfterFunc(b.cfg.DebounceDelay, func() {
				b.ExecuteBatch(context.Background())
			})
		}
		b.mu.Unlock()
	}()

	results := make([]metadomain.BatchResponse, 0, len(snapshot))

	for start := 0; start < len(snapshot); start += metadomain.MaxBatchSize {
		end := start + metadomain.MaxBatchSize
		if end > len(snapshot) {
			end = len(snapshot)
		}
		chunk := snapshot[start:end]

		requests := make([]metadomain.BatchRequest, len(chunk))
		for i, pending := range chunk {
			requests[i] = pending.req
		}

		responses, err := ExecuteWithRetry(ctx, func() ([]metadomain.BatchResponse, error) {
			return b.execute(ctx, requests)
		}, b.cfg.MaxRetries, LogRetry("ExecuteBatch"))
		if err != nil {
			// Falha do transporte físico: rejeita todo o sub-lote
			apiErr := metadomain.Classify(err)
			log.L.WithFields(log.Fields{
				"kind":  string(apiErr.Kind),
				"batch": len(chunk),
			}).Error("Falha na execução de lote físico")

			for _, pending := range chunk {
				pending.future.ch <- batchResult{err: apiErr}
			}
			results = append(results, make([]metadomain.BatchResponse, len(chunk))...)
			continue
		}

		// Resolução individual: a resposta i corresponde à requisição i do
		// sub-lote; uma falha isolada não derruba as vizinhas
		for i, pending := range chunk {
			var resp metadomain.BatchResponse
			if i < len(responses) {
				resp = responses[i]
			}

			if resp.Succeeded() {
				pending.future.ch <- batchResult{resp: resp}
			} else {
				pending.future.ch <- batchResult{err: parseErrorBody([]byte(resp.Body))}
			}
			results = append(results, resp)
		}

		monitoring.BatchRequestsExecuted.Add(float64(len(chunk)))
	}

	return results
}

// ClearQueue rejeita todas as requisições ainda não executadas e esvazia a
// fila. Usado em encerramentos abruptos.
func (b *Batcher) ClearQueue() int {
	b.mu.Lock()
	snapshot := b.queue
	b.queue = nil
	b.stopTimerLocked()
	b.mu.Unlock()

	for _, pending := range snapshot {
		pending.future.ch <- batchResult{err: ErrQueueCleared}
	}

	return len(snapshot)
}

// QueueSize retorna o tamanho atual da fila pendente.
func (b *Batcher) QueueSize() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
