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

const adGroupsTable = "ad_groups"

type AdGroupRepository interface {
	ListByCampaignID(campaignID string) ([]*domain.AdGroup, error)
	SaveOrUpdate(adGroups []*domain.AdGroup) (map[string]string, error)
	MarkAbsentAsDeleted(campaignID string, presentExternalIDs []string) (int64, error)
}

type adGroupRepository struct {
	conn *postgres.Connection
}

func NewAdGroupRepository(conn *postgres.Connection) AdGroupRepository {
	return &adGroupRepository{
		conn: conn,
	}
}

const adGroupColumns = "id, campaign_id, external_id, name, status, " +
	"spend, impressions, clicks, conversions, ctr, cost_per_conversion, synced_at"

func (g *adGroupRepository) ListByCampaignID(campaignID string) ([]*domain.AdGroup, error) {
	adGroupsSQL, adGroupsArgs, err := squirrel.
		Select(adGroupColumns).
		From(adGroupsTable).
		Where(squirrel.Eq{"campaign_id": campaignID}).
		Where(squirrel.NotEq{"status": domain.EntityStatusDeleted}).
		OrderBy("name ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := g.conn.Query(adGroupsSQL, adGroupsArgs...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	adGroups := make([]*domain.AdGroup, 0)

	for rows.Next() {
		adGroup := &domain.AdGroup{}
		if err := rows.Scan(
			&adGroup.ID,
			&adGroup.CampaignID,
			&adGroup.ExternalID,
			&adGroup.Name,
			&adGroup.Status,
			&adGroup.Metrics.Spend,
			&adGroup.Metrics.Impressions,
			&adGroup.Metrics.Clicks,
			&adGroup.Metrics.Conversions,
			&adGroup.Metrics.CTR,
			&adGroup.Metrics.CostPerConversion,
			&adGroup.SyncedAt,
		); err != nil {
			return nil, err
		}

		adGroups = append(adGroups, adGroup)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os resultados: %w", err)
	}

	return adGroups, nil
}

func (g *adGroupRepository) SaveOrUpdate(adGroups []*domain.AdGroup) (map[string]string, error) {
	idsByExternalID := make(map[string]string, len(adGroups))
	if len(adGroups) == 0 {
		return idsByExternalID, nil
	}

	query := squirrel.StatementBuilder.
		Insert(adGroupsTable).
		Columns(
			"id", "campaign_id", "external_id", "name", "status",
			"spend", "impressions", "clicks", "conversions", "ctr", "cost_per_conversion",
			"synced_at",
		).
		PlaceholderFormat(squirrel.Dollar)

	for _, adGroup := range adGroups {
		if adGroup.ID == "" {
			id, err := utils.GenerateID()
			if err != nil {
				return nil, fmt.Errorf("erro ao gerar id interno: %w", err)
			}
			adGroup.ID = id
		}

		query = query.Values(
			adGroup.ID,
			adGroup.CampaignID,
			adGroup.ExternalID,
			adGroup.Name,
			adGroup.Status,
			adGroup.Metrics.Spend,
			adGroup.Metrics.Impressions,
			adGroup.Metrics.Clicks,
			adGroup.Metrics.Conversions,
			adGroup.Metrics.CTR,
			adGroup.Metrics.CostPerConversion,
			adGroup.SyncedAt,
		)
	}

	query = query.Suffix(`
		ON CONFLICT (campaign_id, external_id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
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

	rows, err := g.conn.Query(sqlQuery, args...)
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

func (g *adGroupRepository) MarkAbsentAsDeleted(campaignID string, presentExternalIDs []string) (int64, error) {
	queryBuilder := squirrel.
		Update(adGroupsTable).
		Set("status", domain.EntityStatusDeleted).
		Where(squirrel.Eq{"campaign_id": campaignID}).
		Where(squirrel.NotEq{"status": domain.EntityStatusDeleted}).
		PlaceholderFormat(squirrel.Dollar)

	if len(presentExternalIDs) > 0 {
		queryBuilder = queryBuilder.Where(squirrel.NotEq{"external_id": presentExternalIDs})
	}

	sqlQuery, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	result, err := g.conn.Exec(sqlQuery, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute query: %w", err)
	}

	return result.RowsAffected()
}
