package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vfg2006/campaign-manager-api/infrastructure/repository/mocks"
	"github.com/vfg2006/campaign-manager-api/internal/config"
	"github.com/vfg2006/campaign-manager-api/internal/domain"
	"github.com/vfg2006/campaign-manager-api/internal/usecases/syncing"
	syncmocks "github.com/vfg2006/campaign-manager-api/internal/usecases/syncing/mocks"
	"go.uber.org/mock/gomock"
)

func newSchedulerService(t *testing.T) (*AccountSyncService, *mocks.MockAccountRepository, *syncmocks.MockOrchestrator) {
	t.Helper()

	ctrl := gomock.NewController(t)
	accountRepo := mocks.NewMockAccountRepository(ctrl)
	orchestrator := syncmocks.NewMockOrchestrator(ctrl)

	appConfig := &config.Config{
		Sync: config.Sync{
			CronSchedule:        "*/15 * * * *",
			DueThresholdMinutes: 10,
			MaxConcurrentJobs:   2,
			Enabled:             true,
		},
	}

	return NewAccountSyncService(accountRepo, orchestrator, appConfig), accountRepo, orchestrator
}

func TestSyncAllAccounts_DisparaContasAtivas(t *testing.T) {
	service, accountRepo, orchestrator := newSchedulerService(t)

	accountRepo.EXPECT().
		ListAccounts([]domain.AccountStatus{domain.AccountStatusActive}).
		Return([]*domain.Account{
			{ID: "ACC001", ExternalID: "111"},
			{ID: "ACC002", ExternalID: "222"},
			{ID: "ACC003", ExternalID: ""}, // sem external_id: pulada
		}, nil)

	orchestrator.EXPECT().
		SyncIfDue(gomock.Any(), "ACC001").
		Return(&syncing.Result{AccountID: "ACC001"}, nil)
	orchestrator.EXPECT().
		SyncIfDue(gomock.Any(), "ACC002").
		Return(&syncing.Result{AccountID: "ACC002", Skipped: true}, nil)

	service.syncAllAccounts(context.Background())

	assert.False(t, service.syncRunning)
	assert.False(t, service.lastSyncCompletedAt.IsZero())
}

func TestSyncAllAccounts_ErroDeUmaContaNaoInterrompeARodada(t *testing.T) {
	service, accountRepo, orchestrator := newSchedulerService(t)

	accountRepo.EXPECT().
		ListAccounts([]domain.AccountStatus{domain.AccountStatusActive}).
		Return([]*domain.Account{
			{ID: "ACC001", ExternalID: "111"},
			{ID: "ACC002", ExternalID: "222"},
		}, nil)

	orchestrator.EXPECT().
		SyncIfDue(gomock.Any(), "ACC001").
		Return(nil, errors.New("falha de rede"))
	orchestrator.EXPECT().
		SyncIfDue(gomock.Any(), "ACC002").
		Return(&syncing.Result{AccountID: "ACC002"}, nil)

	service.syncAllAccounts(context.Background())

	assert.False(t, service.syncRunning)
}

func TestSyncAllAccounts_SemContasAtivas(t *testing.T) {
	service, accountRepo, _ := newSchedulerService(t)

	accountRepo.EXPECT().
		ListAccounts([]domain.AccountStatus{domain.AccountStatusActive}).
		Return(nil, nil)

	service.syncAllAccounts(context.Background())

	assert.False(t, service.syncRunning)
}

func TestSyncAllAccounts_RodadaJaEmAndamentoEhIgnorada(t *testing.T) {
	service, _, _ := newSchedulerService(t)

	service.syncMutex.Lock()
	service.syncRunning = true
	service.syncMutex.Unlock()

	// Nenhuma chamada de repositório ou orquestrador esperada
	service.syncAllAccounts(context.Background())

	assert.True(t, service.syncRunning)
}

func TestGetStatus_RefleteAConfiguracao(t *testing.T) {
	service, _, _ := newSchedulerService(t)

	status := service.GetStatus()

	assert.Equal(t, true, status["sync_enabled"])
	assert.Equal(t, "*/15 * * * *", status["sync_cron"])
	assert.Equal(t, 2, status["sync_max_concurrent"])
	assert.Equal(t, 10, status["due_threshold_minutes"])
}
