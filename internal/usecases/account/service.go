package account

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/campaign-manager-api/infrastructure/repository"
	"github.com/vfg2006/campaign-manager-api/internal/domain"
	"github.com/vfg2006/campaign-manager-api/internal/usecases/credentialing"
	"github.com/vfg2006/campaign-manager-api/pkg/apiErrors"
	"github.com/vfg2006/campaign-manager-api/pkg/cache"
)

type AccountService interface {
	ListAccounts(availableStatus []domain.AccountStatus) ([]*domain.AccountResponse, error)
	GetAccount(accountID string) (*domain.AccountResponse, error)
	UpdateAccount(ctx context.Context, request *domain.UpdateAccountRequest) (*domain.AccountResponse, error)
	ListAccountCampaigns(accountID string) ([]*domain.Campaign, error)
}

type Service struct {
	accountRepository  repository.AccountRepository
	campaignRepository repository.CampaignRepository
	credentials        credentialing.Resolver
	cache              *cache.Cache
}

func NewService(
	accountRepository repository.AccountRepository,
	campaignRepository repository.CampaignRepository,
	credentials credentialing.Resolver,
	entityCache *cache.Cache,
) AccountService {
	return &Service{
		accountRepository:  accountRepository,
		campaignRepository: campaignRepository,
		credentials:        credentials,
		cache:              entityCache,
	}
}

func (s *Service) ListAccounts(availableStatus []domain.AccountStatus) ([]*domain.AccountResponse, error) {
	accounts, err := s.accountRepository.ListAccounts(availableStatus)
	if err != nil {
		return nil, NewAccountError(ErrFetchAccounts, apiErrors.ErrDatabaseOperation, "Falha ao listar contas no banco de dados")
	}

	// Transforma os accounts para o formato de resposta da API
	accountsResponse := make([]*domain.AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		accountsResponse = append(accountsResponse, account.ToResponse())
	}

	return accountsResponse, nil
}

func (s *Service) GetAccount(accountID string) (*domain.AccountResponse, error) {
	if accountID == "" {
		return nil, ErrAccountIDRequired
	}

	account, err := s.accountRepository.GetAccountByID(accountID)
	if err != nil {
		return nil, NewAccountError(ErrDatabaseOperation, apiErrors.ErrDatabaseOperation, "Erro ao buscar conta no banco de dados")
	}

	if account == nil {
		return nil, NewAccountErrorWithID(ErrAccountNotFound, apiErrors.ErrInvalidRequest, accountID, "Conta não encontrada")
	}

	return account.ToResponse(), nil
}

// ListAccountCampaigns retorna as campanhas persistidas da conta, com as
// métricas da última sincronização. O resultado fica no cache até o TTL do
// tipo ou até a próxima rodada de sincronização invalidar o prefixo da conta.
func (s *Service) ListAccountCampaigns(accountID string) ([]*domain.Campaign, error) {
	if accountID == "" {
		return nil, ErrAccountIDRequired
	}

	key := cache.Key(accountID, cache.EntityTypeCampaign, "list")
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*domain.Campaign), nil
	}

	account, err := s.accountRepository.GetAccountByID(accountID)
	if err != nil {
		return nil, NewAccountError(ErrDatabaseOperation, apiErrors.ErrDatabaseOperation, "Erro ao buscar conta no banco de dados")
	}

	if account == nil {
		return nil, NewAccountErrorWithID(ErrAccountNotFound, apiErrors.ErrInvalidRequest, accountID, "Conta não encontrada")
	}

	campaigns, err := s.campaignRepository.ListByAccountID(accountID)
	if err != nil {
		return nil, NewAccountErrorWithID(ErrDatabaseOperation, apiErrors.ErrDatabaseOperation, accountID, "Erro ao listar campanhas da conta")
	}

	s.cache.Set(key, campaigns, cache.EntityTypeCampaign)

	return campaigns, nil
}

func (s *Service) UpdateAccount(ctx context.Context, request *domain.UpdateAccountRequest) (*domain.AccountResponse, error) {
	if request.ID == "" {
		return nil, ErrAccountIDRequired
	}

	// Busca a conta para verificar se existe
	account, err := s.accountRepository.GetAccountByID(request.ID)
	if err != nil {
		logrus.Error("Error getting account by id on the repository:", err)
		return nil, NewAccountError(ErrDatabaseOperation, apiErrors.ErrDatabaseOperation, "Erro ao buscar conta no banco de dados")
	}

	if account == nil {
		return nil, NewAccountErrorWithID(ErrAccountNotFound, apiErrors.ErrInvalidRequest, request.ID, "Conta não encontrada")
	}

	if request.Status != nil {
		if !validStatus(*request.Status) {
			return nil, NewAccountErrorWithID(ErrInvalidStatus, apiErrors.ErrInvalidRequest, request.ID, "Status aceitos: ACTIVE, PAUSED, INACTIVE")
		}
	}

	// O token nunca passa pelo UPDATE genérico: ele é validado na plataforma e
	// gravado cifrado pelo resolvedor de credenciais.
	if request.Token != nil && *request.Token != "" {
		if err := s.credentials.Store(ctx, account.ID, *request.Token); err != nil {
			logrus.WithFields(logrus.Fields{
				"account_id": account.ID,
				"error":      err.Error(),
			}).Error("Erro ao armazenar credencial da conta")

			if errors.Is(err, credentialing.ErrCredentialInvalid) {
				return nil, NewAccountErrorWithID(ErrInvalidToken, apiErrors.ErrInvalidPlatformToken, account.ID, "Credencial rejeitada pela plataforma de anúncios")
			}

			return nil, NewAccountErrorWithID(ErrUpdateAccount, apiErrors.ErrExternalService, account.ID, "Falha ao validar credencial na plataforma de anúncios")
		}
	}

	if request.Nickname != nil || request.Status != nil {
		if err := s.accountRepository.UpdateAccount(request); err != nil {
			logrus.Error("Error updating account:", err)
			return nil, NewAccountErrorWithID(ErrUpdateAccount, apiErrors.ErrDatabaseOperation, request.ID, "Erro ao atualizar conta no banco de dados")
		}
	}

	updated, err := s.accountRepository.GetAccountByID(request.ID)
	if err != nil || updated == nil {
		return nil, NewAccountError(ErrDatabaseOperation, apiErrors.ErrDatabaseOperation, "Erro ao recarregar conta atualizada")
	}

	return updated.ToResponse(), nil
}

func validStatus(status string) bool {
	switch domain.AccountStatus(status) {
	case domain.AccountStatusActive, domain.AccountStatusPaused, domain.AccountStatusInactive:
		return true
	}
	return false
}
