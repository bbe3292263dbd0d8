package metaclient

import (
	"context"
	"fmt"
	"net/url"

	metadomain "github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/domain"
)

type responseAds struct {
	Data   []metadomain.Ad   `json:"data"`
	Paging metadomain.Paging `json:"paging"`
}

// GetAdsByAdSetID busca os anúncios (com o criativo associado) de um conjunto
// de anúncios.
func (c *MetaClient) GetAdsByAdSetID(ctx context.Context, token, adSetID string) ([]metadomain.Ad, error) {
	return ExecuteWithRetry(ctx, func() ([]metadomain.Ad, error) {
		params := url.Values{}
		params.Add("fields", "id,name,status,adset_id,creative{id,name,body}")
		params.Add("access_token", token)

		body, err := c.doGET(ctx, fmt.Sprintf("%s/ads", adSetID), params)
		if err != nil {
			return nil, err
		}

		var response responseAds
		if err := json.Unmarshal(body, &response); err != nil {
			return nil, metadomain.NewNetworkError(err)
		}

		return response.Data, nil
	}, c.maxRetries, LogRetry("GetAdsByAdSetID"))
}
