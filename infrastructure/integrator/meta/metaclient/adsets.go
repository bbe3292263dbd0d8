package metaclient

import (
	"context"
	"fmt"
	"net/url"

	metadomain "github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/domain"
)

type responseAdSets struct {
	Data   []metadomain.AdSet `json:"data"`
	Paging metadomain.Paging  `json:"paging"`
}

// GetAdSetsByCampaignID busca os conjuntos de anúncios de uma campanha.
func (c *MetaClient) GetAdSetsByCampaignID(ctx context.Context, token, campaignID string) ([]metadomain.AdSet, error) {
	return ExecuteWithRetry(ctx, func() ([]metadomain.AdSet, error) {
		params := url.Values{}
		params.Add("fields", "id,name,status,campaign_id")
		params.Add("access_token", token)

		body, err := c.doGET(ctx, fmt.Sprintf("%s/adsets", campaignID), params)
		if err != nil {
			return nil, err
		}

		var response responseAdSets
		if err := json.Unmarshal(body, &response); err != nil {
			return nil, metadomain.NewNetworkError(err)
		}

		return response.Data, nil
	}, c.maxRetries, LogRetry("GetAdSetsByCampaignID"))
}
