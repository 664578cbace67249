package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/repositories"
	apperrors "github.com/attendlab/clinic-noshow-sim/pkg/errors"
)

// DeploymentStore is the in-memory DeploymentRepository
type DeploymentStore struct {
	mu          sync.RWMutex
	deployments map[string]*entities.Deployment
}

// NewDeploymentStore creates an empty in-memory deployment store
func NewDeploymentStore() repositories.DeploymentRepository {
	return &DeploymentStore{
		deployments: make(map[string]*entities.Deployment),
	}
}

// Create records an applied deployment
func (s *DeploymentStore) Create(ctx context.Context, deployment *entities.Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.deployments[deployment.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("deployment with id %s already exists", deployment.ID))
	}
	s.deployments[deployment.ID] = deployment.Clone()
	return nil
}

// GetByID retrieves a deployment by ID
func (s *DeploymentStore) GetByID(ctx context.Context, id string) (*entities.Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deployment, ok := s.deployments[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("deployment with id %s not found", id))
	}
	return deployment.Clone(), nil
}

// List retrieves all deployments ordered by creation time
func (s *DeploymentStore) List(ctx context.Context) ([]*entities.Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deployments := make([]*entities.Deployment, 0, len(s.deployments))
	for _, deployment := range s.deployments {
		deployments = append(deployments, deployment.Clone())
	}
	sort.Slice(deployments, func(i, j int) bool {
		if deployments[i].CreatedAt.Equal(deployments[j].CreatedAt) {
			return deployments[i].ID < deployments[j].ID
		}
		return deployments[i].CreatedAt.Before(deployments[j].CreatedAt)
	})
	return deployments, nil
}
