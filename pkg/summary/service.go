package summary

import (
	"context"
	"strconv"

	"github.com/Gobusters/ectologger"

	"github.com/gantryhq/gantry/pkg/faults"
	"github.com/gantryhq/gantry/pkg/models"
	"github.com/gantryhq/gantry/pkg/tracing"
)

type estimateReader interface {
	GetByID(ctx context.Context, id int64) (*models.Estimate, error)
}

type lineItemReader interface {
	ListByEstimate(ctx context.Context, estimateID int64) ([]models.LineItem, error)
}

type allocationReader interface {
	ListDetailsByEstimate(ctx context.Context, estimateID int64) ([]models.AllocationDetail, error)
}

type statusAssignmentReader interface {
	ListByEstimate(ctx context.Context, estimateID int64) ([]models.StatusAssignment, error)
}

type rosterReader interface {
	ListRosterByEstimate(ctx context.Context, estimateID int64) ([]models.RosterEntry, error)
}

// Service reads a project's rows and assembles the summary.
type Service struct {
	estimates         estimateReader
	lineItems         lineItemReader
	allocations       allocationReader
	statusAssignments statusAssignmentReader
	roster            rosterReader
	builder           *Builder
	logger            ectologger.Logger
}

// NewService creates a summary service.
func NewService(
	estimates estimateReader,
	lineItems lineItemReader,
	allocations allocationReader,
	statusAssignments statusAssignmentReader,
	roster rosterReader,
	logger ectologger.Logger,
) *Service {
	return &Service{
		estimates:         estimates,
		lineItems:         lineItems,
		allocations:       allocations,
		statusAssignments: statusAssignments,
		roster:            roster,
		builder:           NewBuilder(),
		logger:            logger,
	}
}

// GetProjectSummary returns the denormalized summary of a project. A missing
// project is a ProjectDoesNotExist fault, never an empty summary.
func (s *Service) GetProjectSummary(ctx context.Context, projectID int64) (*models.ProjectSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "summary.Service.GetProjectSummary")
	defer span.End()

	estimate, err := s.estimates.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if estimate == nil {
		return nil, faults.ProjectDoesNotExist()
	}

	lineItems, err := s.lineItems.ListByEstimate(ctx, projectID)
	if err != nil {
		return nil, err
	}

	allocationDetails, err := s.allocations.ListDetailsByEstimate(ctx, projectID)
	if err != nil {
		return nil, err
	}

	statusAssignments, err := s.statusAssignments.ListByEstimate(ctx, projectID)
	if err != nil {
		return nil, err
	}

	roster, err := s.roster.ListRosterByEstimate(ctx, projectID)
	if err != nil {
		return nil, err
	}

	details := s.builder.Build(lineItems, allocationDetails, statusAssignments, roster)

	return &models.ProjectSummary{
		ID:          strconv.FormatInt(projectID, 10),
		ProjectName: estimate.ProjectName,
		Details:     details,
	}, nil
}
