package metaclient

import (
	"context"
	"fmt"
	"net/url"
	"time"

	metadomain "github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/campaign-manager-api/internal/domain"
)

type responseInsights struct {
	Data   []metadomain.Insight `json:"data"`
	Paging metadomain.Paging    `json:"paging"`
}

// GetInsights busca as métricas de um objeto da hierarquia (campanha,
// conjunto ou anúncio) na janela de datas informada. Retorna nil quando a
// plataforma não tem dados para o período — ausência de métricas não é erro.
func (c *MetaClient) GetInsights(ctx context.Context, token, objectID string, window domain.DateRange) (*metadomain.MetricsSnapshot, error) {
	return ExecuteWithRetry(ctx, func() (*metadomain.MetricsSnapshot, error) {
		timeRange := fmt.Sprintf(
			`{"since":"%s","until":"%s"}`,
			window.Since.Format(time.DateOnly),
			window.Until.Format(time.DateOnly),
		)

		params := url.Values{}
		params.Add("fields", "spend,impressions,clicks,ctr,conversions,cost_per_conversion")
		params.Add("time_range", timeRange)
		params.Add("access_token", token)

		body, err := c.doGET(ctx, fmt.Sprintf("%s/insights", objectID), params)
		if err != nil {
			return nil, err
		}

		var response responseInsights
		if err := json.Unmarshal(body, &response); err != nil {
			return nil, metadomain.NewNetworkError(err)
		}

		if len(response.Data) == 0 {
			return nil, nil
		}

		return response.Data[0].ToSnapshot(), nil
	}, c.maxRetries, LogRetry("GetInsights"))
}
