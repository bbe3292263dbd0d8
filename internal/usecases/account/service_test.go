package account

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/campaign-manager-api/infrastructure/repository/mocks"
	"github.com/vfg2006/campaign-manager-api/internal/domain"
	"github.com/vfg2006/campaign-manager-api/internal/usecases/credentialing"
	credmocks "github.com/vfg2006/campaign-manager-api/internal/usecases/credentialing/mocks"
	"github.com/vfg2006/campaign-manager-api/pkg/cache"
	"go.uber.org/mock/gomock"
)

func newAccountService(t *testing.T) (AccountService, *mocks.MockAccountRepository, *mocks.MockCampaignRepository, *credmocks.MockResolver) {
	t.Helper()

	ctrl := gomock.NewController(t)
	accountRepo := mocks.NewMockAccountRepository(ctrl)
	campaignRepo := mocks.NewMockCampaignRepository(ctrl)
	credentials := credmocks.NewMockResolver(ctrl)
	entityCache := cache.New(cache.Config{})

	return NewService(accountRepo, campaignRepo, credentials, entityCache), accountRepo, campaignRepo, credentials
}

func strPtr(s string) *string { return &s }

func TestListAccounts(t *testing.T) {
	service, accountRepo, _, _ := newAccountService(t)

	accountRepo.EXPECT().
		ListAccounts([]domain.AccountStatus{domain.AccountStatusActive}).
		Return([]*domain.Account{
			{ID: "ACC001", ExternalID: "111", Name: "Loja Centro", CredentialBlob: strPtr("blob")},
			{ID: "ACC002", ExternalID: "222", Name: "Loja Norte"},
		}, nil)

	resp, err := service.ListAccounts([]domain.AccountStatus{domain.AccountStatusActive})

	require.NoError(t, err)
	require.Len(t, resp, 2)
	assert.True(t, resp[0].HasToken)
	assert.False(t, resp[1].HasToken)
}

func TestListAccounts_ErroDeBanco(t *testing.T) {
	service, accountRepo, _, _ := newAccountService(t)

	accountRepo.EXPECT().
		ListAccounts(gomock.Any()).
		Return(nil, errors.New("connection refused"))

	_, err := service.ListAccounts(nil)

	assert.ErrorIs(t, err, ErrFetchAccounts)
}

func TestUpdateAccount_AtualizaApelidoEStatus(t *testing.T) {
	service, accountRepo, _, _ := newAccountService(t)

	request := &domain.UpdateAccountRequest{
		ID:       "ACC001",
		Nickname: strPtr("Loja do Centro"),
		Status:   strPtr("PAUSED"),
	}

	accountRepo.EXPECT().
		GetAccountByID("ACC001").
		Return(&domain.Account{ID: "ACC001", Status: domain.AccountStatusActive}, nil)
	accountRepo.EXPECT().
		UpdateAccount(request).
		Return(nil)
	accountRepo.EXPECT().
		GetAccountByID("ACC001").
		Return(&domain.Account{
			ID:       "ACC001",
			Nickname: strPtr("Loja do Centro"),
			Status:   domain.AccountStatusPaused,
		}, nil)

	resp, err := service.UpdateAccount(context.Background(), request)

	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusPaused, resp.Status)
	assert.Equal(t, "Loja do Centro", *resp.Nickname)
}

func TestUpdateAccount_StatusInvalido(t *testing.T) {
	service, accountRepo, _, _ := newAccountService(t)

	accountRepo.EXPECT().
		GetAccountByID("ACC001").
		Return(&domain.Account{ID: "ACC001"}, nil)

	_, err := service.UpdateAccount(context.Background(), &domain.UpdateAccountRequest{
		ID:     "ACC001",
		Status: strPtr("DELETED"),
	})

	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateAccount_TokenPassaPeloResolvedorDeCredenciais(t *testing.T) {
	service, accountRepo, _, credentials := newAccountService(t)

	accountRepo.EXPECT().
		GetAccountByID("ACC001").
		Return(&domain.Account{ID: "ACC001", Status: domain.AccountStatusPaused}, nil)
	credentials.EXPECT().
		Store(gomock.Any(), "ACC001", "EAAB-novo-token").
		Return(nil)
	accountRepo.EXPECT().
		GetAccountByID("ACC001").
		Return(&domain.Account{
			ID:             "ACC001",
			Status:         domain.AccountStatusActive,
			CredentialBlob: strPtr("blob-cifrado"),
		}, nil)

	resp, err := service.UpdateAccount(context.Background(), &domain.UpdateAccountRequest{
		ID:    "ACC001",
		Token: strPtr("EAAB-novo-token"),
	})

	require.NoError(t, err)
	assert.True(t, resp.HasToken)
}

func TestUpdateAccount_TokenRejeitadoPelaPlataforma(t *testing.T) {
	service, accountRepo, _, credentials := newAccountService(t)

	accountRepo.EXPECT().
		GetAccountByID("ACC001").
		Return(&domain.Account{ID: "ACC001"}, nil)
	credentials.EXPECT().
		Store(gomock.Any(), "ACC001", "token-invalido").
		Return(credentialing.NewCredentialError(credentialing.ErrCredentialInvalid, "ACC001", "rejeitado"))

	_, err := service.UpdateAccount(context.Background(), &domain.UpdateAccountRequest{
		ID:    "ACC001",
		Token: strPtr("token-invalido"),
	})

	require.Error(t, err)
	var accountErr *AccountError
	require.ErrorAs(t, err, &accountErr)
	assert.ErrorIs(t, accountErr, ErrInvalidToken)
}

func TestUpdateAccount_ContaNaoEncontrada(t *testing.T) {
	service, accountRepo, _, _ := newAccountService(t)

	accountRepo.EXPECT().
		GetAccountByID("ACC404").
		Return(nil, nil)

	_, err := service.UpdateAccount(context.Background(), &domain.UpdateAccountRequest{ID: "ACC404"})

	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestListAccountCampaigns(t *testing.T) {
	service, accountRepo, campaignRepo, _ := newAccountService(t)

	accountRepo.EXPECT().
		GetAccountByID("ACC001").
		Return(&domain.Account{ID: "ACC001"}, nil)
	campaignRepo.EXPECT().
		ListByAccountID("ACC001").
		Return([]*domain.Campaign{
			{ID: "c1", AccountID: "ACC001", Name: "Campanha Verão"},
		}, nil)

	campaigns, err := service.ListAccountCampaigns("ACC001")

	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.Equal(t, "Campanha Verão", campaigns[0].Name)
}

func TestListAccountCampaigns_SegundaLeituraVemDoCache(t *testing.T) {
	service, accountRepo, campaignRepo, _ := newAccountService(t)

	// Banco consultado uma única vez; a segunda leitura sai do cache
	accountRepo.EXPECT().
		GetAccountByID("ACC001").
		Return(&domain.Account{ID: "ACC001"}, nil).
		Times(1)
	campaignRepo.EXPECT().
		ListByAccountID("ACC001").
		Return([]*domain.Campaign{
			{ID: "c1", AccountID: "ACC001", Name: "Campanha Verão"},
		}, nil).
		Times(1)

	first, err := service.ListAccountCampaigns("ACC001")
	require.NoError(t, err)

	second, err := service.ListAccountCampaigns("ACC001")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
