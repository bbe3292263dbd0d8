package metaclient

import (
	"context"
	"fmt"
	"net/url"
	"time"

	metadomain "github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/domain"
)

// TokenInfo é o resultado da depuração de um token de acesso via debug_token.
type TokenInfo struct {
	IsValid   bool
	ExpiresAt time.Time
	ScopeID   string
	// Motivo informado pela plataforma quando o token é inválido
	InvalidReason string
}

type responseDebugToken struct {
	Data struct {
		AppID     string `json:"app_id"`
		IsValid   bool   `json:"is_valid"`
		ExpiresAt int64  `json:"expires_at"`
		UserID    string `json:"user_id"`
		Error     *struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error,omitempty"`
	} `json:"data"`
}

// DebugToken valida um token de acesso junto à plataforma. A chamada usa o
// app token (app_id|app_secret) como credencial de consulta.
func (c *MetaClient) DebugToken(ctx context.Context, token string) (*TokenInfo, error) {
	return ExecuteWithRetry(ctx, func() (*TokenInfo, error) {
		params := url.Values{}
		params.Add("input_token", token)
		params.Add("access_token", fmt.Sprintf("%s|%s", c.cfg.Meta.AppID, c.cfg.Meta.AppSecret))

		body, err := c.doGET(ctx, "debug_token", params)
		if err != nil {
			return nil, err
		}

		var response responseDebugToken
		if err := json.Unmarshal(body, &response); err != nil {
			return nil, metadomain.NewNetworkError(err)
		}

		info := &TokenInfo{
			IsValid: response.Data.IsValid,
			ScopeID: response.Data.UserID,
		}

		if response.Data.ExpiresAt > 0 {
			info.ExpiresAt = time.Unix(response.Data.ExpiresAt, 0)
		}

		if response.Data.Error != nil {
			info.InvalidReason = response.Data.Error.Message
		}

		return info, nil
	}, c.maxRetries, LogRetry("DebugToken"))
}
