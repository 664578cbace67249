package search

import (
	"context"
	"fmt"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/repositories"
	tsclient "github.com/attendlab/clinic-noshow-sim/internal/infrastructure/clients/typesense"
)

const collectionName = "appointments"

// TypesenseAdapter implements appointment search using Typesense. Only a lean
// projection is indexed; mutable fields like live risk stay out of the index
// and are read back from the store by ID.
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements AppointmentSearchRepository
var _ repositories.AppointmentSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	_, err := a.client.Client().Collection(collectionName).Retrieve(ctx)
	if err == nil {
		return nil // Collection exists
	}

	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "patient_name", Type: "string"},
			{Name: "day_index", Type: "int32", Facet: pointer.True()},
			{Name: "scheduled_at", Type: "int64"},
			{Name: "baseline_risk", Type: "float"},
		},
		DefaultSortingField: pointer.String("scheduled_at"),
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// Index indexes an appointment
func (a *TypesenseAdapter) Index(ctx context.Context, appointment *entities.Appointment) error {
	document := map[string]interface{}{
		"id":            appointment.ID,
		"patient_name":  appointment.PatientName,
		"day_index":     appointment.DayIndex,
		"scheduled_at":  appointment.ScheduledAt.Unix(),
		"baseline_risk": appointment.BaselineRisk,
	}

	_, err := a.client.Client().Collection(collectionName).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index appointment: %w", err)
	}

	return nil
}

// Delete removes an appointment from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(collectionName).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete appointment from index: %w", err)
	}
	return nil
}

// Search returns the IDs of appointments whose patient name matches the query
func (a *TypesenseAdapter) Search(ctx context.Context, query string, limit int) ([]string, error) {
	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("patient_name"),
		PerPage: pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search appointments: %w", err)
	}

	ids := []string{}
	if result.Hits == nil {
		return ids, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		doc := *hit.Document
		id, ok := doc["id"].(string)
		if !ok {
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}
