package metadomain

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/vfg2006/campaign-manager-api/internal/domain"
	"github.com/vfg2006/campaign-manager-api/pkg/utils"
)

// Insight é a linha de métricas retornada pelo endpoint /insights. A Graph API
// serializa os campos numéricos como strings.
type Insight struct {
	Spend       string `json:"spend"`
	Impressions string `json:"impressions"`
	Clicks      string `json:"clicks"`
	CTR         string `json:"ctr"`
	Conversions string `json:"conversions"`
	CostPerConv string `json:"cost_per_conversion"`
	DateStart   string `json:"date_start"`
	DateStop    string `json:"date_stop"`
}

// MetricsSnapshot é o valor numérico efêmero consumido pela sincronização.
// Não é persistido como entidade própria: alimenta os campos numéricos do
// registro pai.
type MetricsSnapshot struct {
	Spend       float64 `json:"spend"`
	Impressions int     `json:"impressions"`
	Clicks      int     `json:"clicks"`
	CTR         float64 `json:"ctr"`
	Conversions int     `json:"conversions"`
	CostPerConv float64 `json:"cost_per_conversion"`
	DateStart   string  `json:"date_start"`
	DateStop    string  `json:"date_stop"`
}

// ToSnapshot converte os campos string do fio para valores numéricos. Campos
// ausentes ou malformados viram zero — a ausência de uma métrica não invalida
// as demais.
func (i *Insight) ToSnapshot() *MetricsSnapshot {
	return &MetricsSnapshot{
		Spend:       utils.RoundWithTwoDecimalPlace(parseFloat(i.Spend)),
		Impressions: parseInt(i.Impressions),
		Clicks:      parseInt(i.Clicks),
		CTR:         parseFloat(i.CTR),
		Conversions: parseInt(i.Conversions),
		CostPerConv: utils.RoundWithTwoDecimalPlace(parseFloat(i.CostPerConv)),
		DateStart:   i.DateStart,
		DateStop:    i.DateStop,
	}
}

// NewInsightsRequest monta a requisição lógica de insights de um objeto para
// execução em lote. A URL relativa segue o mesmo formato da chamada direta.
func NewInsightsRequest(objectExternalID string, window domain.DateRange) BatchRequest {
	timeRange := fmt.Sprintf(
		`{"since":"%s","until":"%s"}`,
		window.Since.Format(time.DateOnly),
		window.Until.Format(time.DateOnly),
	)

	params := url.Values{}
	params.Add("fields", "spend,impressions,clicks,ctr,conversions,cost_per_conversion")
	params.Add("time_range", timeRange)

	return BatchRequest{
		Method:      "GET",
		RelativeURL: fmt.Sprintf("%s/insights?%s", objectExternalID, params.Encode()),
	}
}

type insightsBody struct {
	Data []Insight `json:"data"`
}

// ParseInsightsBody decodifica o corpo de uma resposta de insights vinda do
// lote. Retorna nil quando a plataforma não tem dados para o período.
func ParseInsightsBody(body string) (*MetricsSnapshot, error) {
	var response insightsBody
	if err := json.Unmarshal([]byte(body), &response); err != nil {
		return nil, err
	}

	if len(response.Data) == 0 {
		return nil, nil
	}

	return response.Data[0].ToSnapshot(), nil
}

func parseInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
