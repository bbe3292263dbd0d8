package syncing

import (
	"context"
	"sync"
	"time"

	"github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta"
	metadomain "github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/campaign-manager-api/infrastructure/repository"
	"github.com/vfg2006/campaign-manager-api/internal/config"
	"github.com/vfg2006/campaign-manager-api/internal/domain"
	"github.com/vfg2006/campaign-manager-api/internal/usecases/credentialing"
	"github.com/vfg2006/campaign-manager-api/pkg/cache"
	"github.com/vfg2006/campaign-manager-api/pkg/log"
	"github.com/vfg2006/campaign-manager-api/pkg/monitoring"
)

// Result resume uma rodada de sincronização de conta.
type Result struct {
	AccountID  string `json:"account_id"`
	Skipped    bool   `json:"skipped"`
	SkipReason string `json:"skip_reason,omitempty"`

	Campaigns int `json:"campaigns"`
	AdGroups  int `json:"ad_groups"`
	Ads       int `json:"ads"`
	// Failures conta as subárvores que falharam isoladamente sem derrubar a
	// rodada inteira
	Failures int `json:"failures"`
	// MetricsGaps conta entidades gravadas sem métricas nesta rodada: falha
	// isolada no lote de insights ou objeto sem dados na janela. A hierarquia
	// prevalece; a lacuna fica visível aqui.
	MetricsGaps int `json:"metrics_gaps"`

	Duration time.Duration `json:"-"`
}

// Orchestrator conduz a sincronização da hierarquia de uma conta: campanhas,
// grupos de anúncio e anúncios, com métricas, contra a plataforma remota.
type Orchestrator interface {
	// SyncAccount executa uma rodada completa. force ignora o limiar de
	// devida. Rodadas concorrentes da mesma conta viram no-op.
	SyncAccount(ctx context.Context, accountID string, force bool) (*Result, error)
	// SyncIfDue dispara a sincronização apenas se a conta estiver devida.
	// Usado pelos eventos de webhook.
	SyncIfDue(ctx context.Context, accountID string) (*Result, error)
	// InFlight informa se a conta tem rodada em andamento.
	InFlight(accountID string) bool
}

type Service struct {
	accountRepo  repository.AccountRepository
	campaignRepo repository.CampaignRepository
	adGroupRepo  repository.AdGroupRepository
	adRepo       repository.AdRepository
	integrator   meta.Integrator
	cache        *cache.Cache
	cfg          *config.Config

	mu       sync.Mutex
	inFlight map[string]struct{}

	now func() time.Time
}

func NewService(
	accountRepo repository.AccountRepository,
	campaignRepo repository.CampaignRepository,
	adGroupRepo repository.AdGroupRepository,
	adRepo repository.AdRepository,
	integrator meta.Integrator,
	entityCache *cache.Cache,
	cfg *config.Config,
) *Service {
	return &Service{
		accountRepo:  accountRepo,
		campaignRepo: campaignRepo,
		adGroupRepo:  adGroupRepo,
		adRepo:       adRepo,
		integrator:   integrator,
		cache:        entityCache,
		cfg:          cfg,
		inFlight:     make(map[string]struct{}),
		now:          time.Now,
	}
}

func (s *Service) InFlight(accountID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[accountID]
	return ok
}

// tryAcquire marca a conta como em voo. Retorna false se já houver rodada.
func (s *Service) tryAcquire(accountID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inFlight[accountID]; ok {
		return false
	}
	s.inFlight[accountID] = struct{}{}
	return true
}

func (s *Service) release(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, accountID)
}

func (s *Service) SyncIfDue(ctx context.Context, accountID string) (*Result, error) {
	return s.SyncAccount(ctx, accountID, false)
}

func (s *Service) SyncAccount(ctx context.Context, accountID string, force bool) (*Result, error) {
	if accountID == "" {
		return nil, ErrAccountIDRequired
	}

	if !s.tryAcquire(accountID) {
		return &Result{
			AccountID:  accountID,
			Skipped:    true,
			SkipReason: "sincronização já em andamento",
		}, nil
	}
	defer s.release(accountID)

	account, err := s.accountRepo.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	if account.Status != domain.AccountStatusActive {
		return &Result{
			AccountID:  accountID,
			Skipped:    true,
			SkipReason: "conta não está ativa",
		}, nil
	}

	startedAt := s.now()

	if !force && account.LastSyncedAt != nil && startedAt.Sub(*account.LastSyncedAt) < s.cfg.Sync.DueThreshold() {
		return &Result{
			AccountID:  accountID,
			Skipped:    true,
			SkipReason: "sincronizada recentemente",
		}, nil
	}

	if err := s.accountRepo.UpdateSyncState(accountID, domain.SyncStatusSyncing, nil, nil); err != nil {
		return nil, err
	}

	log.L.WithFields(log.Fields{
		"account_id": accountID,
		"force":      force,
	}).Info("Iniciando sincronização da conta")

	result, err := s.reconcile(ctx, account)
	if err != nil {
		message := err.Error()
		if stateErr := s.accountRepo.UpdateSyncState(accountID, domain.SyncStatusError, &message, nil); stateErr != nil {
			log.L.WithError(stateErr).Error("Falha ao registrar erro de sincronização")
		}

		// A rodada pode ter gravado parte da hierarquia antes de abortar;
		// leituras cacheadas da conta não podem sobreviver a isso
		s.cache.InvalidatePattern(accountID + ":")

		monitoring.SyncRuns.WithLabelValues("error").Inc()

		log.L.WithFields(log.Fields{
			"account_id": accountID,
			"error":      message,
		}).Error("Sincronização da conta falhou")

		return nil, err
	}

	finishedAt := s.now()
	result.Duration = finishedAt.Sub(startedAt)

	if err := s.accountRepo.UpdateSyncState(accountID, domain.SyncStatusIdle, nil, &finishedAt); err != nil {
		return nil, err
	}

	// Tudo que foi lido do banco para esta conta ficou defasado
	s.cache.InvalidatePattern(accountID + ":")

	monitoring.SyncRuns.WithLabelValues("success").Inc()
	monitoring.SyncEntitiesUpserted.WithLabelValues("campaign").Add(float64(result.Campaigns))
	monitoring.SyncEntitiesUpserted.WithLabelValues("ad_group").Add(float64(result.AdGroups))
	monitoring.SyncEntitiesUpserted.WithLabelValues("ad").Add(float64(result.Ads))

	log.L.WithFields(log.Fields{
		"account_id":   accountID,
		"campaigns":    result.Campaigns,
		"ad_groups":    result.AdGroups,
		"ads":          result.Ads,
		"failures":     result.Failures,
		"metrics_gaps": result.MetricsGaps,
		"duration":     result.Duration.String(),
	}).Info("Sincronização da conta concluída")

	return result, nil
}

// reconcile percorre a hierarquia remota de cima para baixo. A falha de uma
// subárvore (campanha ou grupo) é isolada e contada; erros terminais de
// credencial abortam a rodada inteira.
func (s *Service) reconcile(ctx context.Context, account *domain.Account) (*Result, error) {
	result := &Result{AccountID: account.ID}
	window := domain.LastDays(s.cfg.Sync.LookbackDays)
	syncedAt := s.now()

	remoteCampaigns, err := s.integrator.FetchCampaigns(ctx, account.ID, account.ExternalID)
	if err != nil {
		return nil, err
	}

	campaigns := make([]*domain.Campaign, 0, len(remoteCampaigns))
	campaignExternalIDs := make([]string, 0, len(remoteCampaigns))
	for _, remote := range remoteCampaigns {
		campaigns = append(campaigns, &domain.Campaign{
			AccountID:  account.ID,
			ExternalID: remote.ID,
			Name:       remote.Name,
			Status:     toEntityStatus(remote.Status),
			Objective:  remote.Objective,
			SyncedAt:   syncedAt,
		})
		campaignExternalIDs = append(campaignExternalIDs, remote.ID)
	}

	campaignMetrics, err := s.integrator.FetchMetricsBatch(ctx, account.ID, campaignExternalIDs, window)
	if err != nil {
		return nil, err
	}
	for _, campaign := range campaigns {
		snapshot := campaignMetrics[campaign.ExternalID]
		if snapshot == nil {
			result.MetricsGaps++
		}
		applyMetrics(&campaign.Metrics, snapshot)
	}

	campaignIDs, err := s.campaignRepo.SaveOrUpdate(campaigns)
	if err != nil {
		return nil, err
	}
	result.Campaigns = len(campaigns)

	if _, err := s.campaignRepo.MarkAbsentAsDeleted(account.ID, campaignExternalIDs); err != nil {
		return nil, err
	}

	for _, campaign := range campaigns {
		campaignInternalID := campaignIDs[campaign.ExternalID]

		if err := s.reconcileCampaign(ctx, account, campaignInternalID, campaign.ExternalID, window, syncedAt, result); err != nil {
			if credentialing.IsTerminal(err) {
				return nil, err
			}

			// Falha isolada: as demais campanhas seguem
			result.Failures++
			log.L.WithFields(log.Fields{
				"account_id":  account.ID,
				"campaign_id": campaign.ExternalID,
				"error":       err.Error(),
			}).Warn("Falha ao sincronizar subárvore da campanha")
		}
	}

	return result, nil
}

func (s *Service) reconcileCampaign(
	ctx context.Context,
	account *domain.Account,
	campaignInternalID, campaignExternalID string,
	window domain.DateRange,
	syncedAt time.Time,
	result *Result,
) error {
	remoteAdSets, err := s.integrator.FetchAdSets(ctx, account.ID, campaignExternalID)
	if err != nil {
		return err
	}

	adGroups := make([]*domain.AdGroup, 0, len(remoteAdSets))
	adGroupExternalIDs := make([]string, 0, len(remoteAdSets))
	for _, remote := range remoteAdSets {
		adGroups = append(adGroups, &domain.AdGroup{
			CampaignID: campaignInternalID,
			ExternalID: remote.ID,
			Name:       remote.Name,
			Status:     toEntityStatus(remote.Status),
			SyncedAt:   syncedAt,
		})
		adGroupExternalIDs = append(adGroupExternalIDs, remote.ID)
	}

	adGroupMetrics, err := s.integrator.FetchMetricsBatch(ctx, account.ID, adGroupExternalIDs, window)
	if err != nil {
		return err
	}
	for _, adGroup := range adGroups {
		snapshot := adGroupMetrics[adGroup.ExternalID]
		if snapshot == nil {
			result.MetricsGaps++
		}
		applyMetrics(&adGroup.Metrics, snapshot)
	}

	adGroupIDs, err := s.adGroupRepo.SaveOrUpdate(adGroups)
	if err != nil {
		return err
	}
	result.AdGroups += len(adGroups)

	if _, err := s.adGroupRepo.MarkAbsentAsDeleted(campaignInternalID, adGroupExternalIDs); err != nil {
		return err
	}

	for _, adGroup := range adGroups {
		adGroupInternalID := adGroupIDs[adGroup.ExternalID]

		if err := s.reconcileAdGroup(ctx, account, adGroupInternalID, adGroup.ExternalID, window, syncedAt, result); err != nil {
			if credentialing.IsTerminal(err) {
				return err
			}

			result.Failures++
			log.L.WithFields(log.Fields{
				"account_id":  account.ID,
				"ad_group_id": adGroup.ExternalID,
				"error":       err.Error(),
			}).Warn("Falha ao sincronizar anúncios do grupo")
		}
	}

	return nil
}

func (s *Service) reconcileAdGroup(
	ctx context.Context,
	account *domain.Account,
	adGroupInternalID, adGroupExternalID string,
	window domain.DateRange,
	syncedAt time.Time,
	result *Result,
) error {
	remoteAds, err := s.integrator.FetchAds(ctx, account.ID, adGroupExternalID)
	if err != nil {
		return err
	}

	ads := make([]*domain.Ad, 0, len(remoteAds))
	adExternalIDs := make([]string, 0, len(remoteAds))
	for _, remote := range remoteAds {
		ad := &domain.Ad{
			AdGroupID:  adGroupInternalID,
			ExternalID: remote.ID,
			Name:       remote.Name,
			Status:     toEntityStatus(remote.Status),
			SyncedAt:   syncedAt,
		}

		if remote.Creative != nil {
			creativeID := remote.Creative.ID
			ad.CreativeID = &creativeID
			if remote.Creative.Body != "" {
				body := remote.Creative.Body
				ad.CreativeBody = &body
			}
		}

		ads = append(ads, ad)
		adExternalIDs = append(adExternalIDs, remote.ID)
	}

	adMetrics, err := s.integrator.FetchMetricsBatch(ctx, account.ID, adExternalIDs, window)
	if err != nil {
		return err
	}
	for _, ad := range ads {
		snapshot := adMetrics[ad.ExternalID]
		if snapshot == nil {
			result.MetricsGaps++
		}
		applyMetrics(&ad.Metrics, snapshot)
	}

	if _, err := s.adRepo.SaveOrUpdate(ads); err != nil {
		return err
	}
	result.Ads += len(ads)

	if _, err := s.adRepo.MarkAbsentAsDeleted(adGroupInternalID, adExternalIDs); err != nil {
		return err
	}

	return nil
}

func applyMetrics(target *domain.Metrics, snapshot *metadomain.MetricsSnapshot) {
	if snapshot == nil {
		return
	}

	target.Spend = snapshot.Spend
	target.Impressions = snapshot.Impressions
	target.Clicks = snapshot.Clicks
	target.Conversions = snapshot.Conversions
	target.CTR = snapshot.CTR
	target.CostPerConversion = snapshot.CostPerConv
}

func toEntityStatus(remote string) domain.EntityStatus {
	switch remote {
	case "ACTIVE":
		return domain.EntityStatusActive
	case "PAUSED":
		return domain.EntityStatusPaused
	case "DELETED":
		return domain.EntityStatusDeleted
	case "ARCHIVED":
		return domain.EntityStatusArchived
	default:
		// Estados não mapeados (IN_PROCESS, WITH_ISSUES) contam como pausados
		return domain.EntityStatusPaused
	}
}
