package faults

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
)

// Kind identifies a single business rule violation.
type Kind string

const (
	KindProjectDoesNotExist              Kind = "ProjectDoesNotExist"
	KindTaskDoesNotExist                 Kind = "TaskDoesNotExist"
	KindModuleDoesNotExist               Kind = "ModuleDoesNotExist"
	KindPhaseDoesNotExist                Kind = "PhaseDoesNotExist"
	KindStatusDoesNotExist               Kind = "StatusDoesNotExist"
	KindParentTaskDoesNotExist           Kind = "ParentTaskDoesNotExist"
	KindLinkedTaskDoesNotExist           Kind = "LinkedTaskDoesNotExist"
	KindInvalidStartDate                 Kind = "InvalidStartDate"
	KindOneOrMoreTasksDoesNotExist       Kind = "OneOrMoreTasksDoesNotExist"
	KindOneOrMoreStatusDoesNotExist      Kind = "OneOrMoreStatusDoesNotExist"
	KindOneOrMoreParentTasksDoesNotExist Kind = "OneOrMoreParentTasksDoesNotExist"
	KindOneOrMoreLinkedTasksDoesNotExist Kind = "OneOrMoreLinkedTasksDoesNotExist"
	KindResourceAllocationTransaction    Kind = "ResourceAllocationTransaction"
)

// Fault is a typed business error. Message strings are kept verbatim from the
// legacy API for client compatibility.
type Fault struct {
	Kind    Kind
	Message string
	status  int
}

func (f *Fault) Error() string {
	return f.Message
}

// StatusCode returns the HTTP status this fault maps to.
func (f *Fault) StatusCode() int {
	return f.status
}

// ToHTTPError converts the fault for the echo error handler.
func (f *Fault) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(f.status, f.Message).AddMetaValue("error", string(f.Kind))
}

func ProjectDoesNotExist() *Fault {
	return &Fault{KindProjectDoesNotExist, "Project doesn't exists", http.StatusNotFound}
}

func TaskDoesNotExist() *Fault {
	return &Fault{KindTaskDoesNotExist, "Task doesn't exists", http.StatusNotFound}
}

func ModuleDoesNotExist() *Fault {
	return &Fault{KindModuleDoesNotExist, "Module doesn't exists", http.StatusNotFound}
}

func PhaseDoesNotExist() *Fault {
	return &Fault{KindPhaseDoesNotExist, "Phase doesn't exists", http.StatusNotFound}
}

func StatusDoesNotExist() *Fault {
	return &Fault{KindStatusDoesNotExist, "Status doesn't exists", http.StatusNotFound}
}

func ParentTaskDoesNotExist() *Fault {
	return &Fault{KindParentTaskDoesNotExist, "Parent task doesn't exists", http.StatusBadRequest}
}

func LinkedTaskDoesNotExist() *Fault {
	return &Fault{KindLinkedTaskDoesNotExist, "Linked task doesn't exists", http.StatusBadRequest}
}

func InvalidStartDate() *Fault {
	return &Fault{KindInvalidStartDate, "Start date is invalid", http.StatusBadRequest}
}

func OneOrMoreTasksDoesNotExist() *Fault {
	return &Fault{KindOneOrMoreTasksDoesNotExist, "One or more tasks doesn't exists in the project", http.StatusBadRequest}
}

func OneOrMoreStatusDoesNotExist() *Fault {
	return &Fault{KindOneOrMoreStatusDoesNotExist, "One or more status doesn't exists in the passed tasks", http.StatusBadRequest}
}

func OneOrMoreParentTasksDoesNotExist() *Fault {
	return &Fault{KindOneOrMoreParentTasksDoesNotExist, "One or more parent tasks doesn't exists in the passed tasks", http.StatusBadRequest}
}

func OneOrMoreLinkedTasksDoesNotExist() *Fault {
	return &Fault{KindOneOrMoreLinkedTasksDoesNotExist, "One or more linked tasks doesn't exists in the passed tasks", http.StatusBadRequest}
}

func ResourceAllocationTransaction() *Fault {
	return &Fault{KindResourceAllocationTransaction, "Invalid estimateResourceID", http.StatusInternalServerError}
}

// IsFault reports whether err is a business fault.
func IsFault(err error) bool {
	_, ok := err.(*Fault)
	return ok
}

// AsFault returns the fault when err carries one.
func AsFault(err error) (*Fault, bool) {
	f, ok := err.(*Fault)
	return f, ok
}

// IsKind reports whether err is a fault of the given kind.
func IsKind(err error, kind Kind) bool {
	f, ok := err.(*Fault)
	return ok && f.Kind == kind
}
