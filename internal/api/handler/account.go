package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/campaign-manager-api/internal/domain"
	"github.com/vfg2006/campaign-manager-api/internal/usecases/account"
	"github.com/vfg2006/campaign-manager-api/internal/usecases/syncing"
	"github.com/vfg2006/campaign-manager-api/pkg/apiErrors"
)

func AccountList(service account.AccountService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filterStatus := r.URL.Query().Get("status")

		availableStatus := make([]domain.AccountStatus, 0)
		if filterStatus != "" {
			for _, status := range strings.Split(filterStatus, ",") {
				availableStatus = append(availableStatus, domain.AccountStatus(status))
			}
		}

		accounts, err := service.ListAccounts(availableStatus)
		if err != nil {
			logrus.Error("Error listing accounts:", err)
			writeAccountError(w, err, "Erro ao listar contas")
			return
		}

		w.Header().Set("Content-Type", "application/json")

		if err := json.NewEncoder(w).Encode(accounts); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao codificar resposta", nil)
		}
	})
}

func GetAccount(service account.AccountService, orchestrator syncing.Orchestrator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := httprouter.ParamsFromContext(r.Context()).ByName("id")
		if id == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "ID da conta é obrigatório", nil)
			return
		}

		// A leitura nunca bloqueia: se a conta estiver devida, a
		// sincronização dispara em segundo plano
		fireSyncIfDue(orchestrator, id)

		resp, err := service.GetAccount(id)
		if err != nil {
			logrus.Error("Error getting account:", err)
			writeAccountError(w, err, "Erro ao buscar conta")
			return
		}

		w.Header().Set("Content-Type", "application/json")

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao codificar resposta", nil)
		}
	})
}

// AccountCampaigns lista as campanhas persistidas da conta com as métricas da
// última sincronização.
func AccountCampaigns(service account.AccountService, orchestrator syncing.Orchestrator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := httprouter.ParamsFromContext(r.Context()).ByName("id")
		if id == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "ID da conta é obrigatório", nil)
			return
		}

		fireSyncIfDue(orchestrator, id)

		campaigns, err := service.ListAccountCampaigns(id)
		if err != nil {
			logrus.Error("Error listing account campaigns:", err)
			writeAccountError(w, err, "Erro ao listar campanhas da conta")
			return
		}

		w.Header().Set("Content-Type", "application/json")

		if err := json.NewEncoder(w).Encode(campaigns); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao codificar resposta", nil)
		}
	})
}

func UpdateAccount(service account.AccountService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logrus.Info("INIT - UpdateAccount")

		w.Header().Set("Content-Type", "application/json")

		id := httprouter.ParamsFromContext(r.Context()).ByName("id")
		if id == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "ID da conta é obrigatório", nil)
			return
		}

		var updateRequest domain.UpdateAccountRequest
		if err := json.NewDecoder(r.Body).Decode(&updateRequest); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Corpo da requisição inválido: "+err.Error(), nil)
			return
		}

		// Garante que o ID da URL seja usado
		updateRequest.ID = id

		resp, err := service.UpdateAccount(r.Context(), &updateRequest)
		if err != nil {
			logrus.Error("Error updating account:", err)
			writeAccountError(w, err, "Erro interno ao atualizar conta")
			return
		}

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao codificar resposta", nil)
		}
	})
}

// fireSyncIfDue dispara uma sincronização em segundo plano quando a conta
// está devida. O contexto é desacoplado da requisição: o job sobrevive à
// resposta HTTP.
func fireSyncIfDue(orchestrator syncing.Orchestrator, accountID string) {
	go func() {
		if _, err := orchestrator.SyncIfDue(context.Background(), accountID); err != nil {
			logrus.WithFields(logrus.Fields{
				"account_id": accountID,
				"error":      err.Error(),
			}).Warn("Sincronização disparada pela leitura falhou")
		}
	}()
}

// writeAccountError traduz os erros do caso de uso de contas para o corpo
// padronizado da API.
func writeAccountError(w http.ResponseWriter, err error, fallback string) {
	var accountErr *account.AccountError
	if errors.As(err, &accountErr) {
		var details any
		if accountErr.AccountID != "" {
			details = map[string]any{"account_id": accountErr.AccountID}
		}
		apiErrors.WriteError(w, accountErr.Code, accountErr.Error(), details)
		return
	}

	switch {
	case errors.Is(err, account.ErrAccountIDRequired):
		apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "ID da conta é obrigatório", nil)

	case errors.Is(err, account.ErrAccountNotFound):
		apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Conta não encontrada", nil)

	case errors.Is(err, account.ErrInvalidToken):
		apiErrors.WriteError(w, apiErrors.ErrInvalidPlatformToken, "Credencial rejeitada pela plataforma de anúncios", nil)

	case errors.Is(err, account.ErrDatabaseOperation) || errors.Is(err, account.ErrUpdateAccount) || errors.Is(err, account.ErrFetchAccounts):
		apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao acessar o banco de dados", nil)

	default:
		apiErrors.WriteError(w, apiErrors.ErrInternalServer, fallback, nil)
	}
}
