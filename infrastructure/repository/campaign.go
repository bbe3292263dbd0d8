package repository

import (
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	_ "github.com/lib/pq"
	"github.com/vfg2006/campaign-manager-api/infrastructure/database/postgres"
	"github.com/vfg2006/campaign-manager-api/internal/domain"
	"github.com/vfg2006/campaign-manager-api/pkg/utils"
)

const campaignsTable = "campaigns"

type CampaignRepository interface {
	ListByAccountID(accountID string) ([]*domain.Campaign, error)
	// SaveOrUpdate insere ou atualiza as campanhas e retorna o mapa
	// external_id -> id interno, usado para amarrar os filhos.
	SaveOrUpdate(campaigns []*domain.Campaign) (map[string]string, error)
	// MarkAbsentAsDeleted marca como DELETED as campanhas da conta que não
	// apareceram na listagem remota mais recente.
	MarkAbsentAsDeleted(accountID string, presentExternalIDs []string) (int64, error)
}

type campaignRepository struct {
	conn *postgres.Connection
}

func NewCampaignRepository(conn *postgres.Connection) CampaignRepository {
	return &campaignRepository{
		conn: conn,
	}
}

const campaignColumns = "id, account_id, external_id, name, status, objective, " +
	"spend, impressions, clicks, conversions, ctr, cost_per_conversion, synced_at"

func (c *campaignRepository) ListByAccountID(accountID string) ([]*domain.Campaign, error) {
	campaignsSQL, campaignsArgs, err := squirrel.
		Select(campaignColumns).
		From(campaignsTable).
		Where(squirrel.Eq{"account_id": accountID}).
		Where(squirrel.NotEq{"status": domain.EntityStatusDeleted}).
		OrderBy("name ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := c.conn.Query(campaignsSQL, campaignsArgs...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	campaigns := make([]*domain.Campaign, 0)

	for rows.Next() {
		campaign := &domain.Campaign{}
		if err := rows.Scan(
			&campaign.ID,
			&campaign.AccountID,
			&campaign.ExternalID,
			&campaign.Name,
			&campaign.Status,
			&campaign.Objective,
			&campaign.Metrics.Spend,
			&campaign.Metrics.Impressions,
			&campaign.Metrics.Clicks,
			&campaign.Metrics.Conversions,
			&campaign.Metrics.CTR,
			&campaign.Metrics.CostPerConversion,
			&campaign.SyncedAt,
		); err != nil {
			return nil, err
		}

		campaigns = append(campaigns, campaign)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os resultados: %w", err)
	}

	return campaigns, nil
}

func (c *campaignRepository) SaveOrUpdate(campaigns []*domain.Campaign) (map[string]string, error) {
	idsByExternalID := make(map[string]string, len(campaigns))
	if len(campaigns) == 0 {
		return idsByExternalID, nil
	}

	query := squirrel.StatementBuilder.
		Insert(campaignsTable).
		Columns(
			"id", "account_id", "external_id", "name", "status", "objective",
			"spend", "impressions", "clicks", "conversions", "ctr", "cost_per_conversion",
			"synced_at",
		).
		PlaceholderFormat(squirrel.Dollar)

	for _, campaign := range campaigns {
		if campaign.ID == "" {
			id, err := utils.GenerateID()
			if err != nil {
				return nil, fmt.Errorf("erro ao gerar id interno: %w", err)
			}
			campaign.ID = id
		}

		query = query.Values(
			campaign.ID,
			campaign.AccountID,
			campaign.ExternalID,
			campaign.Name,
			campaign.Status,
			campaign.Objective,
			campaign.Metrics.Spend,
			campaign.Metrics.Impressions,
			campaign.Metrics.Clicks,
			campaign.Metrics.Conversions,
			campaign.Metrics.CTR,
			campaign.Metrics.CostPerConversion,
			campaign.SyncedAt,
		)
	}

	// O conflito em (account_id, external_id) preserva o id interno existente
	query = query.Suffix(`
		ON CONFLICT (account_id, external_id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			objective = EXCLUDED.objective,
			spend = EXCLUDED.spend,
			impressions = EXCLUDED.impressions,
			clicks = EXCLUDED.clicks,
			conversions = EXCLUDED.conversions,
			ctr = EXCLUDED.ctr,
			cost_per_conversion = EXCLUDED.cost_per_conversion,
			synced_at = EXCLUDED.synced_at
		RETURNING id, external_id
	`)

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := c.conn.Query(sqlQuery, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return nil, fmt.Errorf("database error: %w (code: %s)", pqErr, pqErr.Code)
		}
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, externalID string
		if err := rows.Scan(&id, &externalID); err != nil {
			return nil, err
		}
		idsByExternalID[externalID] = id
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os resultados: %w", err)
	}

	return idsByExternalID, nil
}

func (c *campaignRepository) MarkAbsentAsDeleted(accountID string, presentExternalIDs []string) (int64, error) {
	queryBuilder := squirrel.
		Update(campaignsTable).
		Set("status", domain.EntityStatusDeleted).
		Where(squirrel.Eq{"account_id": accountID}).
		Where(squirrel.NotEq{"status": domain.EntityStatusDeleted}).
		PlaceholderFormat(squirrel.Dollar)

	if len(presentExternalIDs) > 0 {
		queryBuilder = queryBuilder.Where(squirrel.NotEq{"external_id": presentExternalIDs})
	}

	sqlQuery, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	result, err := c.conn.Exec(sqlQuery, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute query: %w", err)
	}

	return result.RowsAffected()
}
