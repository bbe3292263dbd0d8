// Package metaclient implementa o transporte HTTP tipado para a Graph API:
// buscas por nível da hierarquia, métricas, depuração de token e o lote
// físico de requisições.
package metaclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	jsoniter "github.com/json-iterator/go"
	metadomain "github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/campaign-manager-api/internal/config"
	"github.com/vfg2006/campaign-manager-api/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client é o contrato de transporte consumido pelo integrador e pela
// resolução de credenciais. O token de acesso é por conta, por isso cada
// operação o recebe explicitamente.
type Client interface {
	GetCampaignsByAccountID(ctx context.Context, token, accountID string) ([]metadomain.Campaign, error)
	GetAdSetsByCampaignID(ctx context.Context, token, campaignID string) ([]metadomain.AdSet, error)
	GetAdsByAdSetID(ctx context.Context, token, adSetID string) ([]metadomain.Ad, error)
	GetInsights(ctx context.Context, token, objectID string, window domain.DateRange) (*metadomain.MetricsSnapshot, error)
	DebugToken(ctx context.Context, token string) (*TokenInfo, error)
	ExecuteBatch(ctx context.Context, token string, requests []metadomain.BatchRequest) ([]metadomain.BatchResponse, error)
}

type MetaClient struct {
	cfg        *config.Config
	httpClient *http.Client
	maxRetries int
}

func NewClient(cfg *config.Config) Client {
	return &MetaClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: cfg.Meta.MaxRetries,
	}
}

// doGET executa uma requisição GET e devolve o corpo, com erros já
// classificados: falhas de transporte viram Network, respostas não-2xx viram
// o erro taxonomizado correspondente.
func (c *MetaClient) doGET(ctx context.Context, path string, params url.Values) ([]byte, error) {
	requestURL := fmt.Sprintf("%s/%s?%s", c.cfg.Meta.URL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, metadomain.NewNetworkError(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, metadomain.NewNetworkError(err)
	}
	defer resp.Body.Close()

	return handleResponse(resp)
}

// handleResponse lê o corpo e converte respostas de erro da API em APIError.
func handleResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, metadomain.NewNetworkError(err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	return nil, parseErrorBody(body)
}

// parseErrorBody extrai o erro estruturado da Graph API; um corpo que não
// parseia vira Unknown com código zero.
func parseErrorBody(body []byte) *metadomain.APIError {
	var errResp metadomain.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Code == 0 && errResp.Error.Message == "" {
		return metadomain.NewAPIError(metadomain.ErrorDetails{})
	}

	return metadomain.NewAPIError(errResp.Error)
}
