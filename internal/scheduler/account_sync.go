package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/campaign-manager-api/infrastructure/repository"
	"github.com/vfg2006/campaign-manager-api/internal/config"
	"github.com/vfg2006/campaign-manager-api/internal/domain"
	"github.com/vfg2006/campaign-manager-api/internal/usecases/syncing"
)

// AccountSyncConfig representa a configuração do agendador de sincronização de contas
type AccountSyncConfig struct {
	CronSchedule      string
	MaxConcurrentJobs int
	SyncEnabled       bool
}

// AccountSyncService gerencia o agendamento e execução da sincronização periódica das contas
type AccountSyncService struct {
	scheduler           *gocron.Scheduler
	config              AccountSyncConfig
	appConfig           *config.Config
	accountRepo         repository.AccountRepository
	orchestrator        syncing.Orchestrator
	syncRunning         bool
	syncMutex           sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
}

// NewAccountSyncService cria uma nova instância do serviço de sincronização periódica
func NewAccountSyncService(
	accountRepo repository.AccountRepository,
	orchestrator syncing.Orchestrator,
	appConfig *config.Config,
) *AccountSyncService {
	syncConfig := AccountSyncConfig{
		CronSchedule:      appConfig.Sync.CronSchedule,
		MaxConcurrentJobs: appConfig.Sync.MaxConcurrentJobs,
		SyncEnabled:       appConfig.Sync.Enabled,
	}

	scheduler := gocron.NewScheduler(time.Local)

	logrus.WithFields(logrus.Fields{
		"cron_schedule":       syncConfig.CronSchedule,
		"max_concurrent_jobs": syncConfig.MaxConcurrentJobs,
		"sync_enabled":        syncConfig.SyncEnabled,
	}).Info("Configuração do agendador de sincronização de contas carregada")

	return &AccountSyncService{
		scheduler:    scheduler,
		config:       syncConfig,
		appConfig:    appConfig,
		accountRepo:  accountRepo,
		orchestrator: orchestrator,
		syncRunning:  false,
	}
}

// Start inicia o agendador
func (s *AccountSyncService) Start(ctx context.Context) error {
	if !s.config.SyncEnabled {
		logrus.Info("Sincronização periódica de contas desabilitada por configuração")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Iniciando agendador de sincronização de contas")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		s.syncAllAccounts(ctx)
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar sincronização de contas: %w", err)
	}

	// Executar o agendador em uma goroutine separada
	s.scheduler.StartAsync()

	// Configurar o cancelamento do agendador quando o contexto for cancelado
	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de sincronização de contas")
		s.scheduler.Stop()
	}()

	return nil
}

// syncAllAccounts percorre as contas ativas e dispara a sincronização das que
// estiverem devidas. O orquestrador decide conta a conta; aqui só há o
// controle de concorrência.
func (s *AccountSyncService) syncAllAccounts(ctx context.Context) {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Sincronização de contas já em andamento, ignorando")
		return
	}
	s.syncRunning = true
	s.syncMutex.Unlock()

	startTime := time.Now()
	s.lastSyncStartedAt = startTime

	defer func() {
		s.syncMutex.Lock()
		s.syncRunning = false
		s.syncMutex.Unlock()
	}()

	logrus.Info("Iniciando rodada de sincronização para todas as contas ativas")

	activeAccounts, err := s.accountRepo.ListAccounts([]domain.AccountStatus{domain.AccountStatusActive})
	if err != nil {
		logrus.WithError(err).Error("Erro ao buscar lista de contas para sincronização")
		return
	}

	if len(activeAccounts) == 0 {
		logrus.Info("Nenhuma conta ativa encontrada para sincronização")
		return
	}

	synced, skipped, failed := s.processAccounts(ctx, activeAccounts)

	duration := time.Since(startTime)
	logrus.WithFields(logrus.Fields{
		"duration": duration.String(),
		"accounts": len(activeAccounts),
		"synced":   synced,
		"skipped":  skipped,
		"failed":   failed,
	}).Info("Rodada de sincronização de contas concluída")

	s.lastSyncCompletedAt = time.Now()
}

// processAccounts dispara os jobs de sincronização limitados pelo semáforo de
// concorrência e retorna os contadores da rodada.
func (s *AccountSyncService) processAccounts(ctx context.Context, accounts []*domain.Account) (synced, skipped, failed int) {
	maxConcurrent := s.config.MaxConcurrentJobs
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	semaphore := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, account := range accounts {
		if account.ExternalID == "" {
			logrus.WithField("account_id", account.ID).Warn("Conta sem external_id. Pulando.")
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{} // Adquirir semáforo

		go func(acc *domain.Account) {
			defer func() {
				<-semaphore // Liberar semáforo
				wg.Done()
			}()

			result, err := s.orchestrator.SyncIfDue(ctx, acc.ID)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				failed++
				logrus.WithFields(logrus.Fields{
					"account_id": acc.ID,
					"error":      err.Error(),
				}).Error("Erro ao sincronizar conta na rodada periódica")
			case result.Skipped:
				skipped++
			default:
				synced++
			}
		}(account)
	}

	wg.Wait()
	return synced, skipped, failed
}

// TriggerManualSync inicia manualmente uma rodada de sincronização de contas
func (s *AccountSyncService) TriggerManualSync(ctx context.Context) {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Sincronização de contas já em andamento, ignorando solicitação manual")
		return
	}
	s.syncMutex.Unlock()

	logrus.Info("Iniciando rodada manual de sincronização de contas")
	go s.syncAllAccounts(ctx)
}

// GetStatus retorna o status atual do agendador
func (s *AccountSyncService) GetStatus() map[string]any {
	return map[string]any{
		"sync_enabled":           s.config.SyncEnabled,
		"sync_cron":              s.config.CronSchedule,
		"sync_max_concurrent":    s.config.MaxConcurrentJobs,
		"due_threshold_minutes":  s.appConfig.Sync.DueThresholdMinutes,
		"last_sync_started_at":   s.lastSyncStartedAt,
		"last_sync_completed_at": s.lastSyncCompletedAt,
	}
}
