package credentialing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metadomain "github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/metaclient"
	metamocks "github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/metaclient/mocks"
	"github.com/vfg2006/campaign-manager-api/infrastructure/repository/mocks"
	"github.com/vfg2006/campaign-manager-api/internal/domain"
	"github.com/vfg2006/campaign-manager-api/pkg/tokencodec"
	"go.uber.org/mock/gomock"
)

var referenceTime = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *mocks.MockAccountRepository, *metamocks.MockClient, *tokencodec.Codec) {
	t.Helper()

	ctrl := gomock.NewController(t)
	accountRepo := mocks.NewMockAccountRepository(ctrl)
	client := metamocks.NewMockClient(ctrl)

	codec, err := tokencodec.New("chave-de-teste", true)
	require.NoError(t, err)

	service := NewService(accountRepo, client, codec)
	service.now = func() time.Time { return referenceTime }

	return service, accountRepo, client, codec
}

func connectedAccount(t *testing.T, codec *tokencodec.Codec, token string) *domain.Account {
	t.Helper()

	blob, err := codec.Encode(token)
	require.NoError(t, err)

	return &domain.Account{
		ID:             "ACC001",
		ExternalID:     "act_123",
		Name:           "Conta Teste",
		Status:         domain.AccountStatusActive,
		CredentialBlob: &blob,
	}
}

func timePtr(value time.Time) *time.Time {
	return &value
}

func TestResolve_ContaInexistente(t *testing.T) {
	service, accountRepo, _, _ := newTestService(t)

	accountRepo.EXPECT().GetAccountByID("ACC404").Return(nil, nil)

	_, err := service.Resolve(context.Background(), "ACC404")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestResolve_ContaNaoConectada(t *testing.T) {
	service, accountRepo, _, _ := newTestService(t)

	accountRepo.EXPECT().GetAccountByID("ACC001").Return(&domain.Account{
		ID:     "ACC001",
		Status: domain.AccountStatusActive,
	}, nil)

	_, err := service.Resolve(context.Background(), "ACC001")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.True(t, IsTerminal(err))
}

func TestResolve_CredencialExpiradaPausaConta(t *testing.T) {
	service, accountRepo, _, codec := newTestService(t)

	account := connectedAccount(t, codec, "token-expirado")
	account.CredentialExpiresAt = timePtr(referenceTime.Add(-time.Hour))

	accountRepo.EXPECT().GetAccountByID("ACC001").Return(account, nil)
	// Pause relê a conta antes de transicionar
	accountRepo.EXPECT().GetAccountByID("ACC001").Return(account, nil)
	accountRepo.EXPECT().UpdateStatus("ACC001", domain.AccountStatusPaused).Return(nil)

	_, err := service.Resolve(context.Background(), "ACC001")
	assert.ErrorIs(t, err, ErrCredentialExpired)
}

func TestResolve_DentroDaJanelaDeConfianca(t *testing.T) {
	service, accountRepo, _, codec := newTestService(t)

	account := connectedAccount(t, codec, "token-valido")
	account.CredentialCheckedAt = timePtr(referenceTime.Add(-time.Minute))

	accountRepo.EXPECT().GetAccountByID("ACC001").Return(account, nil)
	// Nenhuma chamada de DebugToken esperada

	token, err := service.Resolve(context.Background(), "ACC001")
	require.NoError(t, err)
	assert.Equal(t, "token-valido", token)
}

func TestResolve_ForaDaJanelaValidaNaPlataforma(t *testing.T) {
	service, accountRepo, client, codec := newTestService(t)

	account := connectedAccount(t, codec, "token-valido")
	account.CredentialCheckedAt = timePtr(referenceTime.Add(-10 * time.Minute))

	accountRepo.EXPECT().GetAccountByID("ACC001").Return(account, nil)
	client.EXPECT().DebugToken(gomock.Any(), "token-valido").Return(&metaclient.TokenInfo{
		IsValid: true,
	}, nil)
	accountRepo.EXPECT().UpdateCredentialCheckedAt("ACC001", referenceTime).Return(nil)

	token, err := service.Resolve(context.Background(), "ACC001")
	require.NoError(t, err)
	assert.Equal(t, "token-valido", token)
}

func TestResolve_TokenRejeitadoPausaConta(t *testing.T) {
	service, accountRepo, client, codec := newTestService(t)

	account := connectedAccount(t, codec, "token-revogado")

	accountRepo.EXPECT().GetAccountByID("ACC001").Return(account, nil)
	client.EXPECT().DebugToken(gomock.Any(), "token-revogado").Return(&metaclient.TokenInfo{
		IsValid:       false,
		InvalidReason: "The session has been invalidated",
	}, nil)
	accountRepo.EXPECT().GetAccountByID("ACC001").Return(account, nil)
	accountRepo.EXPECT().UpdateStatus("ACC001", domain.AccountStatusPaused).Return(nil)

	_, err := service.Resolve(context.Background(), "ACC001")
	assert.ErrorIs(t, err, ErrCredentialInvalid)
}

func TestResolve_PlataformaIndisponivelSegueComToken(t *testing.T) {
	service, accountRepo, client, codec := newTestService(t)

	account := connectedAccount(t, codec, "token-valido")

	accountRepo.EXPECT().GetAccountByID("ACC001").Return(account, nil)
	client.EXPECT().DebugToken(gomock.Any(), "token-valido").
		Return(nil, &metadomain.APIError{Kind: metadomain.KindTemporary, Code: 2})

	token, err := service.Resolve(context.Background(), "ACC001")
	require.NoError(t, err)
	assert.Equal(t, "token-valido", token)
}

func TestResolve_BlobLegadoMigradoParaCifrado(t *testing.T) {
	service, accountRepo, _, _ := newTestService(t)

	// Token gravado em claro antes da cifragem entrar em vigor
	plaintext := "token-legado"
	account := &domain.Account{
		ID:                  "ACC001",
		Status:              domain.AccountStatusActive,
		CredentialBlob:      &plaintext,
		CredentialCheckedAt: timePtr(referenceTime.Add(-time.Minute)),
	}

	accountRepo.EXPECT().GetAccountByID("ACC001").Return(account, nil)
	accountRepo.EXPECT().
		UpdateCredential("ACC001", gomock.Not(plaintext), gomock.Any()).
		Return(nil)

	token, err := service.Resolve(context.Background(), "ACC001")
	require.NoError(t, err)
	assert.Equal(t, plaintext, token)
}

func TestResolve_BlobIndecifravelComLegadoDesligado(t *testing.T) {
	ctrl := gomock.NewController(t)
	accountRepo := mocks.NewMockAccountRepository(ctrl)
	client := metamocks.NewMockClient(ctrl)

	codec, err := tokencodec.New("chave-de-teste", false)
	require.NoError(t, err)

	service := NewService(accountRepo, client, codec)
	service.now = func() time.Time { return referenceTime }

	garbage := "nao-e-um-blob-valido"
	account := &domain.Account{
		ID:             "ACC001",
		Status:         domain.AccountStatusActive,
		CredentialBlob: &garbage,
	}

	accountRepo.EXPECT().GetAccountByID("ACC001").Return(account, nil)
	// A expiração é zerada para o instante da leitura e a conta é pausada
	accountRepo.EXPECT().
		UpdateCredential("ACC001", garbage, timePtr(referenceTime)).
		Return(nil)
	accountRepo.EXPECT().GetAccountByID("ACC001").Return(account, nil)
	accountRepo.EXPECT().UpdateStatus("ACC001", domain.AccountStatusPaused).Return(nil)

	_, err = service.Resolve(context.Background(), "ACC001")
	assert.ErrorIs(t, err, ErrCredentialInvalid)
}

func TestPause_Idempotente(t *testing.T) {
	service, accountRepo, _, _ := newTestService(t)

	accountRepo.EXPECT().GetAccountByID("ACC001").Return(&domain.Account{
		ID:     "ACC001",
		Status: domain.AccountStatusPaused,
	}, nil)
	// Nenhum UpdateStatus esperado para conta já pausada

	err := service.Pause("ACC001")
	assert.NoError(t, err)
}

func TestStore_TokenValidoReativaConta(t *testing.T) {
	service, accountRepo, client, _ := newTestService(t)

	expiresAt := referenceTime.Add(60 * 24 * time.Hour)

	accountRepo.EXPECT().GetAccountByID("ACC001").Return(&domain.Account{
		ID:     "ACC001",
		Status: domain.AccountStatusPaused,
	}, nil)
	client.EXPECT().DebugToken(gomock.Any(), "token-novo").Return(&metaclient.TokenInfo{
		IsValid:   true,
		ExpiresAt: expiresAt,
	}, nil)
	accountRepo.EXPECT().
		UpdateCredential("ACC001", gomock.Not("token-novo"), timePtr(expiresAt)).
		Return(nil)
	accountRepo.EXPECT().UpdateStatus("ACC001", domain.AccountStatusActive).Return(nil)

	err := service.Store(context.Background(), "ACC001", "token-novo")
	assert.NoError(t, err)
}

func TestStore_TokenInvalidoNaoGrava(t *testing.T) {
	service, accountRepo, client, _ := newTestService(t)

	accountRepo.EXPECT().GetAccountByID("ACC001").Return(&domain.Account{
		ID:     "ACC001",
		Status: domain.AccountStatusActive,
	}, nil)
	client.EXPECT().DebugToken(gomock.Any(), "token-ruim").Return(&metaclient.TokenInfo{
		IsValid:       false,
		InvalidReason: "Malformed access token",
	}, nil)

	err := service.Store(context.Background(), "ACC001", "token-ruim")
	assert.ErrorIs(t, err, ErrCredentialInvalid)
}
