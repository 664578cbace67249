package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/repositories"
	"github.com/attendlab/clinic-noshow-sim/internal/infrastructure/clients/postgres"
	apperrors "github.com/attendlab/clinic-noshow-sim/pkg/errors"
)

// DeploymentAdapter implements the DeploymentRepository interface on PostgreSQL
type DeploymentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDeploymentAdapter creates a new deployment adapter
func NewDeploymentAdapter(client *postgres.Client) repositories.DeploymentRepository {
	return &DeploymentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create records an applied deployment
func (a *DeploymentAdapter) Create(ctx context.Context, deployment *entities.Deployment) error {
	strategyIDs, err := json.Marshal(deployment.StrategyIDs)
	if err != nil {
		return apperrors.NewInternalError("failed to encode deployment", err)
	}

	record := goqu.Record{
		"id":           deployment.ID,
		"target_day":   deployment.TargetDay,
		"strategy_ids": strategyIDs,
		"created_at":   deployment.CreatedAt,
	}

	query, args, err := a.db.Insert("deployments").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create deployment", err)
	}

	return nil
}

// GetByID retrieves a deployment by ID
func (a *DeploymentAdapter) GetByID(ctx context.Context, id string) (*entities.Deployment, error) {
	query, args, err := a.db.Select("id", "target_day", "strategy_ids", "created_at").
		From("deployments").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	deployment := &entities.Deployment{}
	var strategyIDs []byte
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&deployment.ID,
		&deployment.TargetDay,
		&strategyIDs,
		&deployment.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("deployment with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get deployment", err)
	}

	if err := json.Unmarshal(strategyIDs, &deployment.StrategyIDs); err != nil {
		return nil, apperrors.NewInternalError("failed to decode deployment", err)
	}

	return deployment, nil
}

// List retrieves all deployments ordered by creation time
func (a *DeploymentAdapter) List(ctx context.Context) ([]*entities.Deployment, error) {
	query, args, err := a.db.Select("id", "target_day", "strategy_ids", "created_at").
		From("deployments").
		Order(goqu.I("created_at").Asc(), goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list deployments", err)
	}
	defer rows.Close()

	deployments := []*entities.Deployment{}
	for rows.Next() {
		deployment := &entities.Deployment{}
		var strategyIDs []byte
		if err := rows.Scan(&deployment.ID, &deployment.TargetDay, &strategyIDs, &deployment.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan deployment", err)
		}
		if err := json.Unmarshal(strategyIDs, &deployment.StrategyIDs); err != nil {
			return nil, apperrors.NewInternalError("failed to decode deployment", err)
		}
		deployments = append(deployments, deployment)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate deployments", err)
	}

	return deployments, nil
}
