// Package monitoring expõe as métricas Prometheus da camada de sincronização.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Métricas do cache TTL+LRU
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "platform_cache_hits_total",
		Help: "Total de leituras atendidas pelo cache",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "platform_cache_misses_total",
		Help: "Total de leituras não atendidas pelo cache (ausente ou expirado)",
	})

	CacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "platform_cache_evictions_total",
		Help: "Total de entradas removidas por capacidade (LRU)",
	})

	// Métricas de sincronização
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_sync_runs_total",
			Help: "Total de sincronizações de contas por resultado",
		},
		[]string{"result"},
	)

	SyncEntitiesUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_sync_entities_upserted_total",
			Help: "Total de entidades gravadas durante sincronizações",
		},
		[]string{"entity"},
	)

	// Métricas das chamadas remotas
	RemoteCallRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_remote_retries_total",
			Help: "Total de novas tentativas de chamadas remotas por tipo de erro",
		},
		[]string{"kind"},
	)

	BatchRequestsExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "platform_batch_requests_total",
		Help: "Total de requisições lógicas executadas em lote",
	})

	// Métricas da fila de ingestão de webhooks
	WebhookQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "platform_webhook_queue_depth",
		Help: "Itens aguardando processamento na fila de webhooks",
	})

	WebhookDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_webhook_dropped_total",
			Help: "Total de eventos descartados por motivo (fila cheia, tentativas esgotadas)",
		},
		[]string{"reason"},
	)

	WebhookProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_webhook_processed_total",
			Help: "Total de mudanças de webhook processadas por resultado",
		},
		[]string{"result"},
	)
)

// Handler retorna o handler HTTP do endpoint /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
