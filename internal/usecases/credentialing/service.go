package credentialing

import (
	"context"
	"errors"
	"time"

	metadomain "github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/campaign-manager-api/infrastructure/repository"
	"github.com/vfg2006/campaign-manager-api/internal/domain"
	"github.com/vfg2006/campaign-manager-api/pkg/log"
	"github.com/vfg2006/campaign-manager-api/pkg/tokencodec"
)

// trustWindow é a janela dentro da qual uma validação recente do token junto
// à plataforma dispensa nova chamada de debug_token.
const trustWindow = 2 * time.Minute

// TokenValidator valida tokens junto à plataforma remota.
type TokenValidator interface {
	DebugToken(ctx context.Context, token string) (*metaclient.TokenInfo, error)
}

// Resolver entrega o token de acesso pronto para uso de uma conta, cuidando
// de decifragem, expiração, validação remota e pausa de contas com credencial
// morta.
type Resolver interface {
	// Resolve retorna o token em claro da conta, validado dentro da janela de
	// confiança. Erros terminais (não conectada, expirada, inválida) pausam a
	// conta e só se resolvem com reconexão manual.
	Resolve(ctx context.Context, accountID string) (string, error)
	// Store valida e grava uma nova credencial, reativando a conta.
	Store(ctx context.Context, accountID, token string) error
	// Pause suspende a conta. Chamadas repetidas são inofensivas.
	Pause(accountID string) error
}

type Service struct {
	accountRepo repository.AccountRepository
	validator   TokenValidator
	codec       *tokencodec.Codec

	now func() time.Time
}

func NewService(
	accountRepo repository.AccountRepository,
	validator TokenValidator,
	codec *tokencodec.Codec,
) *Service {
	return &Service{
		accountRepo: accountRepo,
		validator:   validator,
		codec:       codec,
		now:         time.Now,
	}
}

func (s *Service) Resolve(ctx context.Context, accountID string) (string, error) {
	if accountID == "" {
		return "", NewCredentialError(ErrAccountIDRequired, accountID, "")
	}

	account, err := s.accountRepo.GetAccountByID(accountID)
	if err != nil {
		return "", NewCredentialError(ErrDatabaseOperation, accountID, err.Error())
	}
	if account == nil {
		return "", NewCredentialError(ErrAccountNotFound, accountID, "")
	}

	if !account.Connected() {
		return "", NewCredentialError(ErrNotConnected, accountID, "")
	}

	token, legacy, err := s.codec.Decode(*account.CredentialBlob)
	if err != nil {
		// Blob indecifrável equivale a credencial morta: a expiração é zerada
		// para agora, então a conta lê como expirada mesmo antes da pausa
		expiredAt := s.now()
		if updErr := s.accountRepo.UpdateCredential(accountID, *account.CredentialBlob, &expiredAt); updErr != nil {
			log.L.WithError(updErr).Error("Falha ao expirar credencial indecifrável")
		}
		if pauseErr := s.Pause(accountID); pauseErr != nil {
			log.L.WithError(pauseErr).Error("Falha ao pausar conta com blob indecifrável")
		}
		return "", NewCredentialError(ErrCredentialInvalid, accountID, "blob de credencial indecifrável")
	}

	if legacy {
		// Migração oportunista: regrava o token em claro já cifrado
		s.upgradeLegacyBlob(account, token)
	}

	nowTime := s.now()

	if account.CredentialExpiresAt != nil && account.CredentialExpiresAt.Before(nowTime) {
		if pauseErr := s.Pause(accountID); pauseErr != nil {
			log.L.WithError(pauseErr).Error("Falha ao pausar conta com credencial expirada")
		}
		return "", NewCredentialError(ErrCredentialExpired, accountID, "")
	}

	// Validação recente dispensa nova ida à plataforma
	if account.CredentialCheckedAt != nil && nowTime.Sub(*account.CredentialCheckedAt) < trustWindow {
		return token, nil
	}

	info, err := s.validator.DebugToken(ctx, token)
	if err != nil {
		var apiErr *metadomain.APIError
		if errors.As(err, &apiErr) && apiErr.Retryable() {
			// Indisponibilidade da plataforma não invalida a credencial:
			// segue com o token e tenta validar na próxima resolução
			log.L.WithFields(log.Fields{
				"account_id": accountID,
				"kind":       string(apiErr.Kind),
			}).Warn("Validação de token indisponível, seguindo com o token armazenado")
			return token, nil
		}

		if pauseErr := s.Pause(accountID); pauseErr != nil {
			log.L.WithError(pauseErr).Error("Falha ao pausar conta com token rejeitado")
		}
		return "", NewCredentialError(ErrCredentialInvalid, accountID, err.Error())
	}

	if !info.IsValid {
		if pauseErr := s.Pause(accountID); pauseErr != nil {
			log.L.WithError(pauseErr).Error("Falha ao pausar conta com token inválido")
		}
		return "", NewCredentialError(ErrCredentialInvalid, accountID, info.InvalidReason)
	}

	if err := s.accountRepo.UpdateCredentialCheckedAt(accountID, nowTime); err != nil {
		log.L.WithError(err).Warn("Falha ao registrar validação da credencial")
	}

	return token, nil
}

func (s *Service) Store(ctx context.Context, accountID, token string) error {
	if accountID == "" {
		return NewCredentialError(ErrAccountIDRequired, accountID, "")
	}

	account, err := s.accountRepo.GetAccountByID(accountID)
	if err != nil {
		return NewCredentialError(ErrDatabaseOperation, accountID, err.Error())
	}
	if account == nil {
		return NewCredentialError(ErrAccountNotFound, accountID, "")
	}

	info, err := s.validator.DebugToken(ctx, token)
	if err != nil {
		return NewCredentialError(ErrCredentialInvalid, accountID, err.Error())
	}
	if !info.IsValid {
		return NewCredentialError(ErrCredentialInvalid, accountID, info.InvalidReason)
	}

	blob, err := s.codec.Encode(token)
	if err != nil {
		return NewCredentialError(ErrCredentialInvalid, accountID, err.Error())
	}

	var expiresAt *time.Time
	if !info.ExpiresAt.IsZero() {
		expiresAt = &info.ExpiresAt
	}

	if err := s.accountRepo.UpdateCredential(accountID, blob, expiresAt); err != nil {
		return NewCredentialError(ErrDatabaseOperation, accountID, err.Error())
	}

	// Credencial nova reativa a conta
	if account.Status == domain.AccountStatusPaused {
		if err := s.accountRepo.UpdateStatus(accountID, domain.AccountStatusActive); err != nil {
			return NewCredentialError(ErrDatabaseOperation, accountID, err.Error())
		}
	}

	log.L.WithFields(log.Fields{
		"account_id": accountID,
	}).Info("Credencial da conta atualizada")

	return nil
}

func (s *Service) Pause(accountID string) error {
	account, err := s.accountRepo.GetAccountByID(accountID)
	if err != nil {
		return NewCredentialError(ErrDatabaseOperation, accountID, err.Error())
	}
	if account == nil {
		return NewCredentialError(ErrAccountNotFound, accountID, "")
	}

	// Pausa repetida é um no-op
	if account.Status == domain.AccountStatusPaused {
		return nil
	}

	if err := s.accountRepo.UpdateStatus(accountID, domain.AccountStatusPaused); err != nil {
		return NewCredentialError(ErrDatabaseOperation, accountID, err.Error())
	}

	log.L.WithFields(log.Fields{
		"account_id": accountID,
	}).Warn("Conta pausada por credencial indisponível")

	return nil
}

// upgradeLegacyBlob regrava cifrado um token encontrado em claro no banco.
// Falhas aqui não impedem a resolução, só adiam a migração.
func (s *Service) upgradeLegacyBlob(account *domain.Account, token string) {
	blob, err := s.codec.Encode(token)
	if err != nil {
		log.L.WithError(err).Warn("Falha ao cifrar credencial legada")
		return
	}

	if err := s.accountRepo.UpdateCredential(account.ID, blob, account.CredentialExpiresAt); err != nil {
		log.L.WithError(err).Warn("Falha ao migrar credencial legada")
		return
	}

	log.L.WithFields(log.Fields{
		"account_id": account.ID,
	}).Info("Credencial legada migrada para o formato cifrado")
}
