package meta

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	metadomain "github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/campaign-manager-api/internal/config"
	"github.com/vfg2006/campaign-manager-api/internal/domain"
	"github.com/vfg2006/campaign-manager-api/internal/usecases/credentialing"
)

// Integrator é a fachada da plataforma por conta: resolve a credencial da
// conta e delega ao transporte tipado.
type Integrator interface {
	FetchCampaigns(ctx context.Context, accountID, accountExternalID string) ([]metadomain.Campaign, error)
	FetchAdSets(ctx context.Context, accountID, campaignExternalID string) ([]metadomain.AdSet, error)
	FetchAds(ctx context.Context, accountID, adSetExternalID string) ([]metadomain.Ad, error)
	FetchMetrics(ctx context.Context, accountID, objectExternalID string, window domain.DateRange) (*metadomain.MetricsSnapshot, error)
	// FetchMetricsBatch busca as métricas de vários objetos de uma vez via o
	// coalescedor de lotes da conta. Objetos sem dados ou com falha isolada
	// simplesmente não aparecem no mapa retornado.
	FetchMetricsBatch(ctx context.Context, accountID string, objectExternalIDs []string, window domain.DateRange) (map[string]*metadomain.MetricsSnapshot, error)
	// BatcherFor devolve o coalescedor de requisições da conta, criando-o na
	// primeira chamada. Cada conta tem o seu, pois o lote é amarrado ao token.
	BatcherFor(accountID string) *metaclient.Batcher
	// ClearBatchQueues descarta as filas pendentes de todas as contas e
	// retorna quantas requisições foram rejeitadas. Usado no encerramento.
	ClearBatchQueues() int
}

type MetaIntegrator struct {
	cfg         *config.Config
	Client      metaclient.Client
	credentials credentialing.Resolver

	mu       sync.Mutex
	batchers map[string]*metaclient.Batcher
}

func New(cfg *config.Config, client metaclient.Client, credentials credentialing.Resolver) *MetaIntegrator {
	return &MetaIntegrator{
		cfg:         cfg,
		Client:      client,
		credentials: credentials,
		batchers:    make(map[string]*metaclient.Batcher),
	}
}

func (s *MetaIntegrator) FetchCampaigns(ctx context.Context, accountID, accountExternalID string) ([]metadomain.Campaign, error) {
	token, err := s.credentials.Resolve(ctx, accountID)
	if err != nil {
		return nil, err
	}

	campaigns, err := s.Client.GetCampaignsByAccountID(ctx, token, accountExternalID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"account_id": accountID,
			"error":      err.Error(),
		}).Error("sync: failed to get campaigns from API")
		return nil, err
	}

	return campaigns, nil
}

func (s *MetaIntegrator) FetchAdSets(ctx context.Context, accountID, campaignExternalID string) ([]metadomain.AdSet, error) {
	token, err := s.credentials.Resolve(ctx, accountID)
	if err != nil {
		return nil, err
	}

	adSets, err := s.Client.GetAdSetsByCampaignID(ctx, token, campaignExternalID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"account_id":  accountID,
			"campaign_id": campaignExternalID,
			"error":       err.Error(),
		}).Error("sync: failed to get ad sets from API")
		return nil, err
	}

	return adSets, nil
}

func (s *MetaIntegrator) FetchAds(ctx context.Context, accountID, adSetExternalID string) ([]metadomain.Ad, error) {
	token, err := s.credentials.Resolve(ctx, accountID)
	if err != nil {
		return nil, err
	}

	ads, err := s.Client.GetAdsByAdSetID(ctx, token, adSetExternalID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"account_id": accountID,
			"ad_set_id":  adSetExternalID,
			"error":      err.Error(),
		}).Error("sync: failed to get ads from API")
		return nil, err
	}

	return ads, nil
}

func (s *MetaIntegrator) FetchMetrics(ctx context.Context, accountID, objectExternalID string, window domain.DateRange) (*metadomain.MetricsSnapshot, error) {
	token, err := s.credentials.Resolve(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return s.Client.GetInsights(ctx, token, objectExternalID, window)
}

// FetchMetricsBatch enfileira uma requisição de insights por objeto no
// coalescedor da conta e espera os futuros. Falhas individuais são logadas e
// omitidas do resultado; o objeto fica sem métricas nesta rodada.
func (s *MetaIntegrator) FetchMetricsBatch(ctx context.Context, accountID string, objectExternalIDs []string, window domain.DateRange) (map[string]*metadomain.MetricsSnapshot, error) {
	snapshots := make(map[string]*metadomain.MetricsSnapshot, len(objectExternalIDs))
	if len(objectExternalIDs) == 0 {
		return snapshots, nil
	}

	batcher := s.BatcherFor(accountID)

	futures := make(map[string]*metaclient.Future, len(objectExternalIDs))
	for _, externalID := range objectExternalIDs {
		futures[externalID] = batcher.AddRequest(metadomain.NewInsightsRequest(externalID, window))
	}

	batcher.ExecuteBatch(ctx)

	for externalID, future := range futures {
		response, err := future.Wait(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logrus.WithFields(logrus.Fields{
				"account_id": accountID,
				"object_id":  externalID,
				"error":      err.Error(),
			}).Warn("sync: failed to get metrics for object in batch")
			continue
		}

		snapshot, err := metadomain.ParseInsightsBody(response.Body)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"account_id": accountID,
				"object_id":  externalID,
				"error":      err.Error(),
			}).Warn("sync: failed to decode metrics body")
			continue
		}

		if snapshot != nil {
			snapshots[externalID] = snapshot
		}
	}

	return snapshots, nil
}

func (s *MetaIntegrator) BatcherFor(accountID string) *metaclient.Batcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	if batcher, ok := s.batchers[accountID]; ok {
		return batcher
	}

	// O token é resolvido na hora da execução do lote, não na criação do
	// coalescedor, para respeitar a janela de confiança da credencial
	execute := func(ctx context.Context, requests []metadomain.BatchRequest) ([]metadomain.BatchResponse, error) {
		token, err := s.credentials.Resolve(ctx, accountID)
		if err != nil {
			return nil, err
		}
		return s.Client.ExecuteBatch(ctx, token, requests)
	}

	batcher := metaclient.NewBatcher(execute, metaclient.BatcherConfig{
		CountThreshold: s.cfg.Batch.CountThreshold,
		DebounceDelay:  s.cfg.Batch.DebounceDelay(),
		MaxRetries:     s.cfg.Meta.MaxRetries,
		AutoFlush:      s.cfg.Batch.AutoFlush,
	})
	s.batchers[accountID] = batcher

	return batcher
}

func (s *MetaIntegrator) ClearBatchQueues() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleared := 0
	for accountID, batcher := range s.batchers {
		count := batcher.ClearQueue()
		if count > 0 {
			logrus.WithFields(logrus.Fields{
				"account_id": accountID,
				"cleared":    count,
			}).Warn("sync: pending batch requests discarded")
		}
		cleared += count
	}

	return cleared
}
