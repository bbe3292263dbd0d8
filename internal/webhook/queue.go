package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/vfg2006/campaign-manager-api/internal/config"
	"github.com/vfg2006/campaign-manager-api/pkg/log"
	"github.com/vfg2006/campaign-manager-api/pkg/monitoring"
)

// Handler processa uma mudança individual de um objeto. O retorno de erro
// dispara nova tentativa com backoff até o limite configurado.
type Handler func(ctx context.Context, entryID string, change Change) error

type item struct {
	entryID    string
	change     Change
	retryCount int
}

// Queue é a fila limitada de ingestão de webhooks: valida, enfileira e
// processa mudanças com um grupo de workers. Fila cheia descarta o evento
// (shed) em vez de bloquear o produtor HTTP.
type Queue struct {
	handlers   map[string]Handler
	handlersMu sync.RWMutex

	items      chan item
	workers    int
	maxRetries int
	baseDelay  time.Duration

	wg sync.WaitGroup
}

// NewQueue cria a fila de ingestão com os limites da configuração. Zeros
// assumem padrões seguros.
func NewQueue(cfg config.Webhook) *Queue {
	size := cfg.QueueSize
	if size <= 0 {
		size = 1000
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}

	baseDelay := cfg.BaseDelay()
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}

	return &Queue{
		handlers:   make(map[string]Handler),
		items:      make(chan item, size),
		workers:    workers,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// RegisterHandler associa um handler ao campo notificado. Registro repetido
// substitui o anterior.
func (q *Queue) RegisterHandler(field string, handler Handler) {
	q.handlersMu.Lock()
	defer q.handlersMu.Unlock()
	q.handlers[field] = handler
}

func (q *Queue) handlerFor(field string) (Handler, bool) {
	q.handlersMu.RLock()
	defer q.handlersMu.RUnlock()
	handler, ok := q.handlers[field]
	return handler, ok
}

// Enqueue achata o envelope em mudanças individuais e as enfileira sem
// bloquear. Mudanças de campos sem handler registrado são puladas na entrada
// e não consomem capacidade da fila. Retorna quantas foram aceitas e quantas
// descartadas por fila cheia.
func (q *Queue) Enqueue(envelope *Envelope) (accepted, dropped int) {
	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			if _, ok := q.handlerFor(change.Field); !ok {
				monitoring.WebhookProcessed.WithLabelValues("ignored").Inc()
				log.L.WithFields(log.Fields{
					"entry_id": entry.ID,
					"field":    change.Field,
				}).Debug("Mudança sem handler registrado, não enfileirada")
				continue
			}

			select {
			case q.items <- item{entryID: entry.ID, change: change}:
				accepted++
				monitoring.WebhookQueueDepth.Set(float64(len(q.items)))
			default:
				dropped++
				monitoring.WebhookDropped.WithLabelValues("queue_full").Inc()
				log.L.WithFields(log.Fields{
					"entry_id": entry.ID,
					"field":    change.Field,
				}).Warn("Fila de webhooks cheia, evento descartado")
			}
		}
	}

	return accepted, dropped
}

// Depth retorna o tamanho atual da fila.
func (q *Queue) Depth() int {
	return len(q.items)
}

// Start sobe os workers. Eles param quando o contexto é cancelado; Wait
// espera a parada completa.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}

	log.L.WithFields(log.Fields{
		"workers":  q.workers,
		"capacity": cap(q.items),
	}).Info("Fila de ingestão de webhooks iniciada")
}

// Wait bloqueia até todos os workers encerrarem.
func (q *Queue) Wait() {
	q.wg.Wait()
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case queued := <-q.items:
			monitoring.WebhookQueueDepth.Set(float64(len(q.items)))
			q.process(ctx, queued)
		}
	}
}

func (q *Queue) process(ctx context.Context, queued item) {
	handler, ok := q.handlerFor(queued.change.Field)
	if !ok {
		monitoring.WebhookProcessed.WithLabelValues("ignored").Inc()
		log.L.WithFields(log.Fields{
			"field": queued.change.Field,
		}).Debug("Mudança sem handler registrado, ignorada")
		return
	}

	err := handler(ctx, queued.entryID, queued.change)
	if err == nil {
		monitoring.WebhookProcessed.WithLabelValues("success").Inc()
		return
	}

	if queued.retryCount >= q.maxRetries {
		monitoring.WebhookDropped.WithLabelValues("retries_exhausted").Inc()
		monitoring.WebhookProcessed.WithLabelValues("error").Inc()
		log.L.WithFields(log.Fields{
			"entry_id": queued.entryID,
			"field":    queued.change.Field,
			"retries":  queued.retryCount,
			"error":    err.Error(),
		}).Error("Mudança de webhook descartada após esgotar tentativas")
		return
	}

	queued.retryCount++

	// Backoff exponencial: baseDelay * 2^(tentativa-1)
	delay := q.baseDelay * (1 << (queued.retryCount - 1))

	log.L.WithFields(log.Fields{
		"entry_id": queued.entryID,
		"field":    queued.change.Field,
		"retry":    queued.retryCount,
		"delay":    delay.String(),
		"error":    err.Error(),
	}).Warn("Falha ao processar mudança de webhook, reagendando")

	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	// Reenfileira; fila cheia neste ponto descarta
	select {
	case q.items <- queued:
	default:
		monitoring.WebhookDropped.WithLabelValues("queue_full").Inc()
	}
}
