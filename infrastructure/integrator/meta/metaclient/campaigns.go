package metaclient

import (
	"context"
	"fmt"
	"net/url"

	metadomain "github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/domain"
)

type responseCampaigns struct {
	Data   []metadomain.Campaign `json:"data"`
	Paging metadomain.Paging     `json:"paging"`
}

// GetCampaignsByAccountID busca as campanhas de uma conta de anúncios.
func (c *MetaClient) GetCampaignsByAccountID(ctx context.Context, token, accountID string) ([]metadomain.Campaign, error) {
	return ExecuteWithRetry(ctx, func() ([]metadomain.Campaign, error) {
		params := url.Values{}
		params.Add("fields", "id,name,status,objective")
		params.Add("access_token", token)

		body, err := c.doGET(ctx, fmt.Sprintf("act_%s/campaigns", accountID), params)
		if err != nil {
			return nil, err
		}

		var response responseCampaigns
		if err := json.Unmarshal(body, &response); err != nil {
			return nil, metadomain.NewNetworkError(err)
		}

		return response.Data, nil
	}, c.maxRetries, LogRetry("GetCampaignsByAccountID"))
}
