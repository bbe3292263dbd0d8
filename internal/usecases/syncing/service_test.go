package syncing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metadomain "github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/domain"
	metamocks "github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/mocks"
	"github.com/vfg2006/campaign-manager-api/infrastructure/repository/mocks"
	"github.com/vfg2006/campaign-manager-api/internal/config"
	"github.com/vfg2006/campaign-manager-api/internal/domain"
	"github.com/vfg2006/campaign-manager-api/internal/usecases/credentialing"
	"github.com/vfg2006/campaign-manager-api/pkg/cache"
	"go.uber.org/mock/gomock"
)

var referenceTime = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

type testHarness struct {
	service      *Service
	accountRepo  *mocks.MockAccountRepository
	campaignRepo *mocks.MockCampaignRepository
	adGroupRepo  *mocks.MockAdGroupRepository
	adRepo       *mocks.MockAdRepository
	integrator   *metamocks.MockIntegrator
	cache        *cache.Cache
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	ctrl := gomock.NewController(t)

	harness := &testHarness{
		accountRepo:  mocks.NewMockAccountRepository(ctrl),
		campaignRepo: mocks.NewMockCampaignRepository(ctrl),
		adGroupRepo:  mocks.NewMockAdGroupRepository(ctrl),
		adRepo:       mocks.NewMockAdRepository(ctrl),
		integrator:   metamocks.NewMockIntegrator(ctrl),
		cache:        cache.New(cache.Config{}),
	}

	cfg := &config.Config{
		Sync: config.Sync{
			DueThresholdMinutes: 10,
			LookbackDays:        7,
		},
	}

	harness.service = NewService(
		harness.accountRepo,
		harness.campaignRepo,
		harness.adGroupRepo,
		harness.adRepo,
		harness.integrator,
		harness.cache,
		cfg,
	)
	harness.service.now = func() time.Time { return referenceTime }

	return harness
}

func activeAccount() *domain.Account {
	return &domain.Account{
		ID:         "ACC001",
		ExternalID: "123456",
		Name:       "Conta Teste",
		Status:     domain.AccountStatusActive,
	}
}

func timePtr(value time.Time) *time.Time {
	return &value
}

func TestSyncAccount_ContaSincronizadaRecentementeEhPulada(t *testing.T) {
	harness := newTestHarness(t)

	account := activeAccount()
	account.LastSyncedAt = timePtr(referenceTime.Add(-5 * time.Minute))

	harness.accountRepo.EXPECT().GetAccountByID("ACC001").Return(account, nil)

	result, err := harness.service.SyncAccount(context.Background(), "ACC001", false)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, "sincronizada recentemente", result.SkipReason)
}

func TestSyncAccount_ContaDevidaAposOLimiarSincroniza(t *testing.T) {
	harness := newTestHarness(t)

	// 11 minutos desde a última sincronização, limiar de 10: devida
	account := activeAccount()
	account.LastSyncedAt = timePtr(referenceTime.Add(-11 * time.Minute))

	harness.accountRepo.EXPECT().GetAccountByID("ACC001").Return(account, nil)
	harness.accountRepo.EXPECT().
		UpdateSyncState("ACC001", domain.SyncStatusSyncing, nil, nil).Return(nil)

	harness.integrator.EXPECT().
		FetchCampaigns(gomock.Any(), "ACC001", "123456").
		Return([]metadomain.Campaign{}, nil)
	harness.integrator.EXPECT().
		FetchMetricsBatch(gomock.Any(), "ACC001", []string{}, gomock.Any()).
		Return(map[string]*metadomain.MetricsSnapshot{}, nil)
	harness.campaignRepo.EXPECT().SaveOrUpdate([]*domain.Campaign{}).Return(map[string]string{}, nil)
	harness.campaignRepo.EXPECT().MarkAbsentAsDeleted("ACC001", []string{}).Return(int64(0), nil)

	harness.accountRepo.EXPECT().
		UpdateSyncState("ACC001", domain.SyncStatusIdle, nil, timePtr(referenceTime)).Return(nil)

	result, err := harness.service.SyncAccount(context.Background(), "ACC001", false)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
}

func TestSyncAccount_ForceIgnoraOLimiar(t *testing.T) {
	harness := newTestHarness(t)

	account := activeAccount()
	account.LastSyncedAt = timePtr(referenceTime.Add(-time.Minute))

	harness.accountRepo.EXPECT().GetAccountByID("ACC001").Return(account, nil)
	harness.accountRepo.EXPECT().
		UpdateSyncState("ACC001", domain.SyncStatusSyncing, nil, nil).Return(nil)

	// Conta sem campanhas: rodada vazia mas completa
	harness.integrator.EXPECT().
		FetchCampaigns(gomock.Any(), "ACC001", "123456").
		Return([]metadomain.Campaign{}, nil)
	harness.integrator.EXPECT().
		FetchMetricsBatch(gomock.Any(), "ACC001", []string{}, gomock.Any()).
		Return(map[string]*metadomain.MetricsSnapshot{}, nil)
	harness.campaignRepo.EXPECT().SaveOrUpdate([]*domain.Campaign{}).Return(map[string]string{}, nil)
	harness.campaignRepo.EXPECT().MarkAbsentAsDeleted("ACC001", []string{}).Return(int64(0), nil)

	harness.accountRepo.EXPECT().
		UpdateSyncState("ACC001", domain.SyncStatusIdle, nil, timePtr(referenceTime)).Return(nil)

	result, err := harness.service.SyncAccount(context.Background(), "ACC001", true)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Zero(t, result.Campaigns)
}

func TestSyncAccount_ContaPausadaNaoSincroniza(t *testing.T) {
	harness := newTestHarness(t)

	account := activeAccount()
	account.Status = domain.AccountStatusPaused

	harness.accountRepo.EXPECT().GetAccountByID("ACC001").Return(account, nil)

	result, err := harness.service.SyncAccount(context.Background(), "ACC001", true)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
}

func TestSyncAccount_RodadaEmAndamentoEhNoOp(t *testing.T) {
	harness := newTestHarness(t)

	harness.service.inFlight["ACC001"] = struct{}{}

	result, err := harness.service.SyncAccount(context.Background(), "ACC001", true)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, "sincronização já em andamento", result.SkipReason)
	assert.True(t, harness.service.InFlight("ACC001"))
}

func TestSyncAccount_HierarquiaCompletaComMetricas(t *testing.T) {
	harness := newTestHarness(t)

	account := activeAccount()

	// Valor pré-existente no cache da conta deve sumir após a rodada
	accountKey := cache.Key("ACC001", cache.EntityTypeCampaign, "list")
	harness.cache.Set(accountKey, "stale", cache.EntityTypeCampaign)
	otherKey := cache.Key("ACC999", cache.EntityTypeCampaign, "list")
	harness.cache.Set(otherKey, "untouched", cache.EntityTypeCampaign)

	harness.accountRepo.EXPECT().GetAccountByID("ACC001").Return(account, nil)
	harness.accountRepo.EXPECT().
		UpdateSyncState("ACC001", domain.SyncStatusSyncing, nil, nil).Return(nil)

	harness.integrator.EXPECT().
		FetchCampaigns(gomock.Any(), "ACC001", "123456").
		Return([]metadomain.Campaign{
			{ID: "c1", Name: "Campanha 1", Status: "ACTIVE", Objective: "OUTCOME_SALES"},
		}, nil)
	harness.integrator.EXPECT().
		FetchMetricsBatch(gomock.Any(), "ACC001", []string{"c1"}, gomock.Any()).
		Return(map[string]*metadomain.MetricsSnapshot{
			"c1": {Spend: 150.75, Impressions: 10000, Clicks: 420, Conversions: 12, CTR: 4.2, CostPerConv: 12.56},
		}, nil)

	harness.campaignRepo.EXPECT().
		SaveOrUpdate(gomock.Any()).
		DoAndReturn(func(campaigns []*domain.Campaign) (map[string]string, error) {
			require.Len(t, campaigns, 1)
			assert.Equal(t, "c1", campaigns[0].ExternalID)
			assert.Equal(t, domain.EntityStatusActive, campaigns[0].Status)
			assert.Equal(t, 150.75, campaigns[0].Metrics.Spend)
			assert.Equal(t, 420, campaigns[0].Metrics.Clicks)
			return map[string]string{"c1": "CMP001"}, nil
		})
	harness.campaignRepo.EXPECT().
		MarkAbsentAsDeleted("ACC001", []string{"c1"}).Return(int64(0), nil)

	harness.integrator.EXPECT().
		FetchAdSets(gomock.Any(), "ACC001", "c1").
		Return([]metadomain.AdSet{
			{ID: "as1", Name: "Grupo 1", Status: "ACTIVE", CampaignID: "c1"},
		}, nil)
	harness.integrator.EXPECT().
		FetchMetricsBatch(gomock.Any(), "ACC001", []string{"as1"}, gomock.Any()).
		Return(map[string]*metadomain.MetricsSnapshot{}, nil)
	harness.adGroupRepo.EXPECT().
		SaveOrUpdate(gomock.Any()).
		DoAndReturn(func(adGroups []*domain.AdGroup) (map[string]string, error) {
			require.Len(t, adGroups, 1)
			assert.Equal(t, "CMP001", adGroups[0].CampaignID)
			return map[string]string{"as1": "GRP001"}, nil
		})
	harness.adGroupRepo.EXPECT().
		MarkAbsentAsDeleted("CMP001", []string{"as1"}).Return(int64(0), nil)

	harness.integrator.EXPECT().
		FetchAds(gomock.Any(), "ACC001", "as1").
		Return([]metadomain.Ad{
			{ID: "ad1", Name: "Anúncio 1", Status: "ACTIVE", AdSetID: "as1", Creative: &metadomain.AdCreative{ID: "cr1", Body: "Compre agora"}},
			{ID: "ad2", Name: "Anúncio 2", Status: "PAUSED", AdSetID: "as1"},
		}, nil)
	harness.integrator.EXPECT().
		FetchMetricsBatch(gomock.Any(), "ACC001", []string{"ad1", "ad2"}, gomock.Any()).
		Return(map[string]*metadomain.MetricsSnapshot{
			"ad1": {Spend: 80.10, Impressions: 6000},
		}, nil)
	harness.adRepo.EXPECT().
		SaveOrUpdate(gomock.Any()).
		DoAndReturn(func(ads []*domain.Ad) (map[string]string, error) {
			require.Len(t, ads, 2)
			assert.Equal(t, "GRP001", ads[0].AdGroupID)
			require.NotNil(t, ads[0].CreativeID)
			assert.Equal(t, "cr1", *ads[0].CreativeID)
			assert.Equal(t, 80.10, ads[0].Metrics.Spend)
			assert.Equal(t, domain.EntityStatusPaused, ads[1].Status)
			assert.Zero(t, ads[1].Metrics.Spend)
			return map[string]string{"ad1": "AD001", "ad2": "AD002"}, nil
		})
	harness.adRepo.EXPECT().
		MarkAbsentAsDeleted("GRP001", []string{"ad1", "ad2"}).Return(int64(0), nil)

	harness.accountRepo.EXPECT().
		UpdateSyncState("ACC001", domain.SyncStatusIdle, nil, timePtr(referenceTime)).Return(nil)

	result, err := harness.service.SyncAccount(context.Background(), "ACC001", true)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Campaigns)
	assert.Equal(t, 1, result.AdGroups)
	assert.Equal(t, 2, result.Ads)
	assert.Zero(t, result.Failures)

	// as1 e ad2 ficaram sem métricas nesta rodada: gravados mesmo assim, mas
	// a lacuna aparece no resultado
	assert.Equal(t, 2, result.MetricsGaps)

	// Cache da conta invalidado, demais contas intactas
	_, found := harness.cache.Get(accountKey)
	assert.False(t, found)
	_, found = harness.cache.Get(otherKey)
	assert.True(t, found)

	// Rodada concluída libera o marcador de voo
	assert.False(t, harness.service.InFlight("ACC001"))
}

func TestSyncAccount_FalhaDeUmaCampanhaNaoDerrubaAsDemais(t *testing.T) {
	harness := newTestHarness(t)

	account := activeAccount()

	harness.accountRepo.EXPECT().GetAccountByID("ACC001").Return(account, nil)
	harness.accountRepo.EXPECT().
		UpdateSyncState("ACC001", domain.SyncStatusSyncing, nil, nil).Return(nil)

	harness.integrator.EXPECT().
		FetchCampaigns(gomock.Any(), "ACC001", "123456").
		Return([]metadomain.Campaign{
			{ID: "c1", Status: "ACTIVE"},
			{ID: "c2", Status: "ACTIVE"},
			{ID: "c3", Status: "ACTIVE"},
		}, nil)
	harness.integrator.EXPECT().
		FetchMetricsBatch(gomock.Any(), "ACC001", []string{"c1", "c2", "c3"}, gomock.Any()).
		Return(map[string]*metadomain.MetricsSnapshot{}, nil)
	harness.campaignRepo.EXPECT().
		SaveOrUpdate(gomock.Any()).
		Return(map[string]string{"c1": "CMP001", "c2": "CMP002", "c3": "CMP003"}, nil)
	harness.campaignRepo.EXPECT().
		MarkAbsentAsDeleted("ACC001", gomock.Any()).Return(int64(0), nil)

	// c1 e c3 sincronizam vazias; c2 falha com erro transitório
	for _, externalID := range []string{"c1", "c3"} {
		harness.integrator.EXPECT().
			FetchAdSets(gomock.Any(), "ACC001", externalID).
			Return([]metadomain.AdSet{}, nil)
		harness.integrator.EXPECT().
			FetchMetricsBatch(gomock.Any(), "ACC001", []string{}, gomock.Any()).
			Return(map[string]*metadomain.MetricsSnapshot{}, nil)
		harness.adGroupRepo.EXPECT().
			SaveOrUpdate([]*domain.AdGroup{}).Return(map[string]string{}, nil)
	}
	harness.adGroupRepo.EXPECT().
		MarkAbsentAsDeleted("CMP001", []string{}).Return(int64(0), nil)
	harness.adGroupRepo.EXPECT().
		MarkAbsentAsDeleted("CMP003", []string{}).Return(int64(0), nil)

	harness.integrator.EXPECT().
		FetchAdSets(gomock.Any(), "ACC001", "c2").
		Return(nil, &metadomain.APIError{Kind: metadomain.KindNetwork})

	harness.accountRepo.EXPECT().
		UpdateSyncState("ACC001", domain.SyncStatusIdle, nil, timePtr(referenceTime)).Return(nil)

	result, err := harness.service.SyncAccount(context.Background(), "ACC001", true)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Campaigns)
	assert.Equal(t, 1, result.Failures)
}

func TestSyncAccount_ErroTerminalDeCredencialAbortaARodada(t *testing.T) {
	harness := newTestHarness(t)

	account := activeAccount()

	harness.accountRepo.EXPECT().GetAccountByID("ACC001").Return(account, nil)
	harness.accountRepo.EXPECT().
		UpdateSyncState("ACC001", domain.SyncStatusSyncing, nil, nil).Return(nil)

	credentialErr := credentialing.NewCredentialError(credentialing.ErrCredentialExpired, "ACC001", "")
	harness.integrator.EXPECT().
		FetchCampaigns(gomock.Any(), "ACC001", "123456").
		Return(nil, credentialErr)

	harness.accountRepo.EXPECT().
		UpdateSyncState("ACC001", domain.SyncStatusError, gomock.Any(), nil).Return(nil)

	_, err := harness.service.SyncAccount(context.Background(), "ACC001", true)
	assert.ErrorIs(t, err, credentialing.ErrCredentialExpired)
	assert.False(t, harness.service.InFlight("ACC001"))
}

func TestSyncAccount_RodadaAbortadaInvalidaOCacheDaConta(t *testing.T) {
	harness := newTestHarness(t)

	account := activeAccount()

	// Leitura cacheada antes da rodada; as campanhas chegam a ser gravadas
	// antes do aborto, então o cache não pode sobreviver
	staleKey := cache.Key("ACC001", cache.EntityTypeCampaign, "list")
	harness.cache.Set(staleKey, "stale", cache.EntityTypeCampaign)

	harness.accountRepo.EXPECT().GetAccountByID("ACC001").Return(account, nil)
	harness.accountRepo.EXPECT().
		UpdateSyncState("ACC001", domain.SyncStatusSyncing, nil, nil).Return(nil)

	harness.integrator.EXPECT().
		FetchCampaigns(gomock.Any(), "ACC001", "123456").
		Return([]metadomain.Campaign{{ID: "c1", Status: "ACTIVE"}}, nil)
	harness.integrator.EXPECT().
		FetchMetricsBatch(gomock.Any(), "ACC001", []string{"c1"}, gomock.Any()).
		Return(map[string]*metadomain.MetricsSnapshot{}, nil)
	harness.campaignRepo.EXPECT().
		SaveOrUpdate(gomock.Any()).
		Return(map[string]string{"c1": "CMP001"}, nil)
	harness.campaignRepo.EXPECT().
		MarkAbsentAsDeleted("ACC001", []string{"c1"}).Return(int64(0), nil)

	credentialErr := credentialing.NewCredentialError(credentialing.ErrCredentialExpired, "ACC001", "")
	harness.integrator.EXPECT().
		FetchAdSets(gomock.Any(), "ACC001", "c1").
		Return(nil, credentialErr)

	harness.accountRepo.EXPECT().
		UpdateSyncState("ACC001", domain.SyncStatusError, gomock.Any(), nil).Return(nil)

	_, err := harness.service.SyncAccount(context.Background(), "ACC001", true)
	require.Error(t, err)

	_, found := harness.cache.Get(staleKey)
	assert.False(t, found)
}

func TestSyncAccount_ContaInexistente(t *testing.T) {
	harness := newTestHarness(t)

	harness.accountRepo.EXPECT().GetAccountByID("ACC404").Return(nil, nil)

	_, err := harness.service.SyncAccount(context.Background(), "ACC404", true)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
