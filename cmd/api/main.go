package main

import (
	"context"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/campaign-manager-api/infrastructure/database/postgres"
	"github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta"
	"github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/campaign-manager-api/infrastructure/repository"
	"github.com/vfg2006/campaign-manager-api/internal/api"
	"github.com/vfg2006/campaign-manager-api/internal/config"
	"github.com/vfg2006/campaign-manager-api/internal/scheduler"
	"github.com/vfg2006/campaign-manager-api/internal/usecases/account"
	"github.com/vfg2006/campaign-manager-api/internal/usecases/authenticating"
	"github.com/vfg2006/campaign-manager-api/internal/usecases/credentialing"
	"github.com/vfg2006/campaign-manager-api/internal/usecases/syncing"
	"github.com/vfg2006/campaign-manager-api/internal/webhook"
	"github.com/vfg2006/campaign-manager-api/pkg/cache"
	"github.com/vfg2006/campaign-manager-api/pkg/tokencodec"
)

func main() {
	// Inicializa configuração de logs
	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	// Define o nível de log com base na configuração
	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("Nível de log inválido: %s, usando 'info'", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
	logrus.Infof("Nível de log configurado para: %s", logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgConn := pgconn(ctx, cfg.Database)
	defer pgConn.Close()

	accountRepo := repository.NewAccountRepository(pgConn)
	userRepo := repository.NewUserRepository(pgConn)
	campaignRepo := repository.NewCampaignRepository(pgConn)
	adGroupRepo := repository.NewAdGroupRepository(pgConn)
	adRepo := repository.NewAdRepository(pgConn)

	authenticator := authenticating.NewService(userRepo, accountRepo, cfg)

	codec, err := tokencodec.New(cfg.Codec.SecretKey, cfg.Codec.AllowLegacyPlaintext)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao inicializar o codec de credenciais")
	}

	metaClient := metaclient.NewClient(cfg)
	credentials := credentialing.NewService(accountRepo, metaClient, codec)
	metaIntegrator := meta.New(cfg, metaClient, credentials)

	entityCache := cache.New(cache.Config{Capacity: cfg.Cache.Capacity})
	entityCache.StartSweeper(ctx, cfg.Cache.SweepInterval())

	syncService := syncing.NewService(
		accountRepo,
		campaignRepo,
		adGroupRepo,
		adRepo,
		metaIntegrator,
		entityCache,
		cfg,
	)

	accountService := account.NewService(accountRepo, campaignRepo, credentials, entityCache)

	// Fila de ingestão das notificações de mudança da plataforma
	webhookQueue := webhook.NewQueue(cfg.Webhook)
	registerWebhookHandlers(webhookQueue, accountRepo, syncService, entityCache)
	webhookQueue.Start(ctx)

	// Agendador da sincronização periódica de contas
	accountSyncService := scheduler.NewAccountSyncService(accountRepo, syncService, cfg)
	if err := accountSyncService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o agendador de sincronização de contas")
	} else {
		logrus.Info("Agendador de sincronização de contas iniciado com sucesso")
	}

	server, err := api.New(
		cfg,
		accountService,
		authenticator,
		syncService,
		accountSyncService,
		webhookQueue,
	)
	if err != nil {
		logrus.Fatal(err)
	}

	server.OnShutdown(func(_ context.Context) {
		// Rejeita lotes pendentes e drena a fila de webhooks antes de fechar
		rejected := metaIntegrator.ClearBatchQueues()
		if rejected > 0 {
			logrus.Infof("%d requisições de lote pendentes rejeitadas no desligamento", rejected)
		}
		webhookQueue.Wait()
	})

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

// registerWebhookHandlers liga os campos de mudança da plataforma ao
// orquestrador: qualquer mudança na hierarquia da conta invalida o cache e
// dispara uma sincronização se a conta estiver devida.
func registerWebhookHandlers(
	queue *webhook.Queue,
	accountRepo repository.AccountRepository,
	orchestrator syncing.Orchestrator,
	entityCache *cache.Cache,
) {
	resync := func(ctx context.Context, entryID string, _ webhook.Change) error {
		account, err := accountRepo.GetAccountByExternalID(entryID)
		if err != nil {
			return err
		}

		if account == nil {
			logrus.WithField("external_id", entryID).Warn("Webhook para conta desconhecida ignorado")
			return nil
		}

		entityCache.InvalidatePattern(account.ID + ":")

		if _, err := orchestrator.SyncIfDue(ctx, account.ID); err != nil {
			return err
		}

		return nil
	}

	for _, field := range []string{"campaigns", "adsets", "ads"} {
		queue.RegisterHandler(field, resync)
	}
}

// configureLogger configura o formato e comportamento dos logs
func configureLogger() {
	_, file, _, _ := runtime.Caller(0)
	dir := path.Dir(file)
	os.Chdir(dir)

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

// pgconn cria uma conexão com o banco de dados
func pgconn(ctx context.Context, dbConfig config.Database) *postgres.Connection {
	conn, err := postgres.NewConnection(ctx, dbConfig)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao PostgreSQL")
	}

	err = conn.Ping(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao testar conexão com PostgreSQL")
	}

	logrus.Info("Conexão com PostgreSQL estabelecida com sucesso")
	return conn
}
