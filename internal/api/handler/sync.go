package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/campaign-manager-api/internal/usecases/credentialing"
	"github.com/vfg2006/campaign-manager-api/internal/usecases/syncing"
	"github.com/vfg2006/campaign-manager-api/pkg/apiErrors"
)

// SyncAccount dispara a sincronização completa de uma conta. Com ?force=true a
// janela de "sincronizada recentemente" é ignorada.
func SyncAccount(orchestrator syncing.Orchestrator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logrus.Info("INIT - SyncAccount")

		id := httprouter.ParamsFromContext(r.Context()).ByName("id")
		if id == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "ID da conta é obrigatório", nil)
			return
		}

		force := r.URL.Query().Get("force") == "true"

		result, err := orchestrator.SyncAccount(r.Context(), id, force)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"account_id": id,
				"error":      err.Error(),
			}).Error("Erro ao sincronizar conta")

			switch {
			case errors.Is(err, syncing.ErrAccountNotFound):
				apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Conta não encontrada", map[string]any{"account_id": id})

			case errors.Is(err, credentialing.ErrNotConnected):
				apiErrors.WriteError(w, apiErrors.ErrAccountNotConnected, "Conta sem credencial armazenada", map[string]any{"account_id": id})

			case errors.Is(err, credentialing.ErrCredentialExpired):
				apiErrors.WriteError(w, apiErrors.ErrCredentialExpired, "Credencial da conta expirada", map[string]any{"account_id": id})

			case errors.Is(err, credentialing.ErrCredentialInvalid):
				apiErrors.WriteError(w, apiErrors.ErrInvalidPlatformToken, "Credencial da conta rejeitada pela plataforma", map[string]any{"account_id": id})

			case errors.Is(err, syncing.ErrDatabaseOperation):
				apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro de banco de dados durante a sincronização", nil)

			default:
				apiErrors.WriteError(w, apiErrors.ErrExternalService, "Erro ao sincronizar conta com a plataforma de anúncios", nil)
			}
			return
		}

		if result.Skipped && orchestrator.InFlight(id) {
			apiErrors.WriteError(w, apiErrors.ErrOperationInProgress, "Sincronização da conta já em andamento", map[string]any{"account_id": id})
			return
		}

		w.Header().Set("Content-Type", "application/json")

		if err := json.NewEncoder(w).Encode(result); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao codificar resposta", nil)
		}
	})
}
