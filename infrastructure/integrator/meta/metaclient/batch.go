package metaclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	metadomain "github.com/vfg2006/campaign-manager-api/infrastructure/integrator/meta/domain"
)

// ExecuteBatch envia um lote físico de até MaxBatchSize requisições lógicas
// em uma única chamada POST à raiz da Graph API. A resposta é um array
// alinhado por índice com as requisições enviadas.
//
// Esta é a chamada física crua: quem aplica retry e divide lotes maiores que
// o teto é o Batcher.
func (c *MetaClient) ExecuteBatch(ctx context.Context, token string, requests []metadomain.BatchRequest) ([]metadomain.BatchResponse, error) {
	if len(requests) == 0 {
		return nil, nil
	}

	if len(requests) > metadomain.MaxBatchSize {
		return nil, fmt.Errorf("lote físico excede o teto do protocolo: %d > %d", len(requests), metadomain.MaxBatchSize)
	}

	batchJSON, err := json.Marshal(requests)
	if err != nil {
		return nil, metadomain.NewNetworkError(err)
	}

	form := url.Values{}
	form.Add("batch", string(batchJSON))
	form.Add("access_token", token)
	form.Add("include_headers", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Meta.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, metadomain.NewNetworkError(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, metadomain.NewNetworkError(err)
	}
	defer resp.Body.Close()

	body, err := handleResponse(resp)
	if err != nil {
		return nil, err
	}

	// Elementos nulos no array físico indicam requisições não atendidas;
	// viram respostas zeradas (código 0) para preservar o alinhamento.
	var raw []*metadomain.BatchResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, metadomain.NewNetworkError(err)
	}

	responses := make([]metadomain.BatchResponse, len(raw))
	for i, r := range raw {
		if r != nil {
			responses[i] = *r
		}
	}

	return responses, nil
}
