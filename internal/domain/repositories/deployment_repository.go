package repositories

import (
	"context"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
)

// DeploymentRepository defines the interface for deployment records
type DeploymentRepository interface {
	// Create records an applied deployment
	Create(ctx context.Context, deployment *entities.Deployment) error

	// GetByID retrieves a deployment by ID
	GetByID(ctx context.Context, id string) (*entities.Deployment, error)

	// List retrieves all deployments
	List(ctx context.Context) ([]*entities.Deployment, error)
}
