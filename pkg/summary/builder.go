package summary

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/gantryhq/gantry/pkg/models"
	"github.com/gantryhq/gantry/pkg/normalize"
)

// itemRef locates a line item by its stringified id and type tag. The uid
// index is built in the first pass and drives linkedBy resolution.
type itemRef struct {
	id       string
	itemType models.LineItemType
}

// Builder assembles the denormalized project summary. It is pure: all inputs
// arrive as slices and nothing touches the store.
type Builder struct{}

// NewBuilder creates a summary builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build produces the five summary collections from an estimate's line items,
// their allocation details, the status bindings and the resource roster.
// Line items are processed in arrival order, so the caller's ordering (id
// ascending from the store) carries through to every IDs list.
func (b *Builder) Build(
	lineItems []models.LineItem,
	allocationDetails []models.AllocationDetail,
	statusAssignments []models.StatusAssignment,
	roster []models.RosterEntry,
) models.ProjectDetails {
	details := models.ProjectDetails{
		Tasks:               normalize.NewCollection[*models.TaskItem](),
		Modules:             normalize.NewCollection[*models.ModuleItem](),
		Phases:              normalize.NewCollection[*models.PhaseItem](),
		ResourceAllocations: normalize.NewCollection[*models.ResourceAllocationItem](),
		Assignees:           normalize.NewCollection[*models.Assignee](),
	}

	statusByUID := map[string]string{}
	for _, assignment := range statusAssignments {
		statusByUID[assignment.TaskUID] = assignment.StatusID
	}

	rosterByEmployee := map[int64]models.RosterEntry{}
	for _, entry := range roster {
		if entry.EmployeeID != nil {
			rosterByEmployee[*entry.EmployeeID] = entry
		}
	}

	allocationsByItem := map[int64][]models.AllocationDetail{}
	for _, detail := range allocationDetails {
		allocationsByItem[detail.EstimateLineItemID] = append(allocationsByItem[detail.EstimateLineItemID], detail)
	}

	refByUID := map[string]itemRef{}
	moduleChildren := map[string][]string{}
	phaseChildren := map[string][]string{}

	for i := range lineItems {
		lineItem := &lineItems[i]
		itemID := strconv.FormatInt(lineItem.ID, 10)

		var statusID *string
		if lineItem.UID != nil && *lineItem.UID != "" {
			refByUID[*lineItem.UID] = itemRef{id: itemID, itemType: lineItem.Type}
			if bound, ok := statusByUID[*lineItem.UID]; ok {
				statusID = &bound
			}
		}

		taskItem := b.newTaskItem(lineItem, itemID, statusID)
		b.attachAllocations(&details, taskItem, allocationsByItem[lineItem.ID], rosterByEmployee)

		switch lineItem.Type {
		case models.LineItemTypeTask:
			details.Tasks.Add(taskItem.ID, taskItem)
			if taskItem.ParentID != nil {
				moduleChildren[*taskItem.ParentID] = append(moduleChildren[*taskItem.ParentID], taskItem.ID)
			}

		case models.LineItemTypeModule:
			moduleItem := toModuleItem(taskItem)
			details.Modules.Add(moduleItem.ID, moduleItem)
			if taskItem.ParentID != nil {
				phaseChildren[*taskItem.ParentID] = append(phaseChildren[*taskItem.ParentID], taskItem.ID)
			}

		case models.LineItemTypePhase:
			phaseItem := toPhaseItem(taskItem)
			details.Phases.Add(phaseItem.ID, phaseItem)
		}
	}

	// linkedBy runs only once every collection is populated, since a link may
	// target any of the three types.
	for _, taskID := range details.Tasks.IDs {
		taskItem := details.Tasks.Items[taskID]
		b.mapLinkedBy(&details, refByUID, taskItem.ID, taskItem.LinkedTo)
	}
	for _, moduleID := range details.Modules.IDs {
		moduleItem := details.Modules.Items[moduleID]
		b.mapLinkedBy(&details, refByUID, moduleItem.ID, moduleItem.LinkedTo)
	}
	for _, phaseID := range details.Phases.IDs {
		phaseItem := details.Phases.Items[phaseID]
		b.mapLinkedBy(&details, refByUID, phaseItem.ID, phaseItem.LinkedTo)
	}

	for _, moduleID := range details.Modules.IDs {
		moduleItem := details.Modules.Items[moduleID]
		moduleItem.ChildrenIDs = childrenOrEmpty(moduleChildren, moduleID)
	}
	for _, phaseID := range details.Phases.IDs {
		phaseItem := details.Phases.Items[phaseID]
		phaseItem.ChildrenIDs = childrenOrEmpty(phaseChildren, phaseID)
	}

	return details
}

func (b *Builder) newTaskItem(lineItem *models.LineItem, itemID string, statusID *string) *models.TaskItem {
	var name string
	if lineItem.Name != nil {
		name = *lineItem.Name
	}

	var uid string
	if lineItem.UID != nil {
		uid = *lineItem.UID
	}

	var hours *decimal.Decimal
	if lineItem.Hours.Valid {
		value := lineItem.Hours.Decimal
		hours = &value
	}

	var parentID *string
	if lineItem.ParentID != nil {
		value := strconv.FormatInt(*lineItem.ParentID, 10)
		parentID = &value
	}

	return &models.TaskItem{
		ID:                 itemID,
		UID:                uid,
		Name:               name,
		StartDate:          lineItem.StartDate,
		EndDate:            lineItem.EndDate,
		Duration:           lineItem.Duration,
		Hours:              hours,
		LinkedTo:           lineItem.LinkedTo,
		LinkedBy:           []string{},
		Notes:              lineItem.Notes,
		ParentID:           parentID,
		Status:             statusID,
		Type:               lineItem.Type,
		AllocatedResources: []string{},
	}
}

// attachAllocations adds the item's allocation rows to the summary and
// registers each employee as an assignee the first time they appear.
func (b *Builder) attachAllocations(
	details *models.ProjectDetails,
	taskItem *models.TaskItem,
	allocations []models.AllocationDetail,
	rosterByEmployee map[int64]models.RosterEntry,
) {
	for _, allocation := range allocations {
		// An allocation without a resolvable roster entry or employee carries
		// no assignee and is skipped, matching the join's nullable columns.
		if allocation.EmployeeID == nil {
			continue
		}

		allocationID := strconv.FormatInt(allocation.ID, 10)
		employeeID := strconv.FormatInt(*allocation.EmployeeID, 10)

		billedHours := decimal.NewFromInt(0)
		if allocation.BilledHours.Valid {
			billedHours = allocation.BilledHours.Decimal
		}

		writeOff := decimal.NewFromInt(0)
		if allocation.WriteOff.Valid {
			writeOff = allocation.WriteOff.Decimal
		}

		details.ResourceAllocations.Add(allocationID, &models.ResourceAllocationItem{
			ID:          allocationID,
			AssigneeID:  employeeID,
			BilledHours: billedHours,
			WriteOff:    writeOff,
		})
		taskItem.AllocatedResources = append(taskItem.AllocatedResources, allocationID)

		if details.Assignees.Has(employeeID) {
			continue
		}

		billRate := decimal.NewFromInt(0)
		if allocation.HourlyRate.Valid {
			billRate = allocation.HourlyRate.Decimal
		}

		costRate := decimal.NewFromInt(0)
		if allocation.LocationID != nil {
			costRate = models.CostRateForLocation(*allocation.LocationID)
		}

		assignee := &models.Assignee{
			ID:             employeeID,
			MiddleName:     allocation.MiddleName,
			HourlyBillRate: billRate,
			HourlyCostRate: costRate,
		}
		if allocation.FirstName != nil {
			assignee.FirstName = *allocation.FirstName
		}
		if allocation.LastName != nil {
			assignee.LastName = *allocation.LastName
		}
		if entry, ok := rosterByEmployee[*allocation.EmployeeID]; ok {
			resourceID := entry.ID
			assignee.EstimateResourceID = &resourceID
			assignee.ProjectRole = entry.ProjectRole
		}

		details.Assignees.Add(employeeID, assignee)
	}
}

func (b *Builder) mapLinkedBy(details *models.ProjectDetails, refByUID map[string]itemRef, sourceID string, linkedTo *string) {
	if linkedTo == nil || *linkedTo == "" {
		return
	}

	target, ok := refByUID[*linkedTo]
	if !ok {
		return
	}

	switch target.itemType {
	case models.LineItemTypeTask:
		if taskItem, found := details.Tasks.Get(target.id); found {
			taskItem.LinkedBy = append(taskItem.LinkedBy, sourceID)
		}
	case models.LineItemTypeModule:
		if moduleItem, found := details.Modules.Get(target.id); found {
			moduleItem.LinkedBy = append(moduleItem.LinkedBy, sourceID)
		}
	default:
		if phaseItem, found := details.Phases.Get(target.id); found {
			phaseItem.LinkedBy = append(phaseItem.LinkedBy, sourceID)
		}
	}
}

func toModuleItem(taskItem *models.TaskItem) *models.ModuleItem {
	return &models.ModuleItem{
		ID:          taskItem.ID,
		UID:         taskItem.UID,
		Name:        taskItem.Name,
		StartDate:   taskItem.StartDate,
		EndDate:     taskItem.EndDate,
		Duration:    taskItem.Duration,
		Hours:       taskItem.Hours,
		LinkedTo:    taskItem.LinkedTo,
		LinkedBy:    taskItem.LinkedBy,
		Notes:       taskItem.Notes,
		ParentID:    taskItem.ParentID,
		Status:      taskItem.Status,
		Type:        taskItem.Type,
		ChildrenIDs: []string{},
	}
}

func toPhaseItem(taskItem *models.TaskItem) *models.PhaseItem {
	return &models.PhaseItem{
		ID:          taskItem.ID,
		UID:         taskItem.UID,
		Name:        taskItem.Name,
		StartDate:   taskItem.StartDate,
		EndDate:     taskItem.EndDate,
		Duration:    taskItem.Duration,
		Hours:       taskItem.Hours,
		LinkedTo:    taskItem.LinkedTo,
		LinkedBy:    taskItem.LinkedBy,
		Notes:       taskItem.Notes,
		Status:      taskItem.Status,
		Type:        taskItem.Type,
		ChildrenIDs: []string{},
	}
}

func childrenOrEmpty(children map[string][]string, id string) []string {
	if ids, ok := children[id]; ok {
		return ids
	}
	return []string{}
}
