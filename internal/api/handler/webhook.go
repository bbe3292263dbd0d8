package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/campaign-manager-api/internal/config"
	"github.com/vfg2006/campaign-manager-api/internal/webhook"
	"github.com/vfg2006/campaign-manager-api/pkg/apiErrors"
)

// maxWebhookBodySize limita o corpo aceito da plataforma (1 MiB).
const maxWebhookBodySize = 1 << 20

// VerifyWebhook responde ao handshake de inscrição da plataforma: se o
// verify_token confere, o desafio é ecoado em texto puro.
func VerifyWebhook(cfg config.Webhook) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		mode := query.Get("hub.mode")
		token := query.Get("hub.verify_token")
		challenge := query.Get("hub.challenge")

		if mode != "subscribe" || token != cfg.VerifyToken || challenge == "" {
			logrus.WithFields(logrus.Fields{
				"mode": mode,
			}).Warn("Handshake de webhook rejeitado")
			apiErrors.WriteError(w, apiErrors.ErrInsufficientPrivilege, "Token de verificação inválido", nil)
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
	})
}

// ReceiveWebhook valida a assinatura HMAC do corpo bruto e enfileira as
// mudanças para processamento assíncrono. A resposta é sempre rápida: a
// plataforma reenvia notificações não confirmadas.
func ReceiveWebhook(cfg config.Webhook, queue *webhook.Queue) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Erro ao ler corpo da requisição", nil)
			return
		}

		signature := r.Header.Get("X-Hub-Signature-256")
		if !webhook.VerifySignature(cfg.AppSecret, body, signature) {
			logrus.Warn("Webhook com assinatura inválida descartado")
			apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Assinatura da requisição inválida", nil)
			return
		}

		envelope, err := webhook.ParseEnvelope(body)
		if err != nil {
			if errors.Is(err, webhook.ErrEmptyEntry) {
				apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "Notificação sem entradas", nil)
				return
			}
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Notificação malformada", nil)
			return
		}

		accepted, dropped := queue.Enqueue(envelope)

		logrus.WithFields(logrus.Fields{
			"object":   envelope.Object,
			"accepted": accepted,
			"dropped":  dropped,
		}).Info("Notificação de webhook recebida")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"accepted": accepted,
			"dropped":  dropped,
		})
	})
}
