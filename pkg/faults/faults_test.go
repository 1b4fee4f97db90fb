package faults

import (
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestFaultStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		fault  *Fault
		status int
	}{
		{"project missing", ProjectDoesNotExist(), http.StatusNotFound},
		{"task missing", TaskDoesNotExist(), http.StatusNotFound},
		{"module missing", ModuleDoesNotExist(), http.StatusNotFound},
		{"phase missing", PhaseDoesNotExist(), http.StatusNotFound},
		{"status missing", StatusDoesNotExist(), http.StatusNotFound},
		{"parent missing", ParentTaskDoesNotExist(), http.StatusBadRequest},
		{"linked missing", LinkedTaskDoesNotExist(), http.StatusBadRequest},
		{"invalid start date", InvalidStartDate(), http.StatusBadRequest},
		{"bulk tasks missing", OneOrMoreTasksDoesNotExist(), http.StatusBadRequest},
		{"bulk status missing", OneOrMoreStatusDoesNotExist(), http.StatusBadRequest},
		{"bulk parents missing", OneOrMoreParentTasksDoesNotExist(), http.StatusBadRequest},
		{"bulk linked missing", OneOrMoreLinkedTasksDoesNotExist(), http.StatusBadRequest},
		{"allocation tx failure", ResourceAllocationTransaction(), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.fault.StatusCode())
		})
	}
}

func TestFaultMessagesMatchLegacyAPI(t *testing.T) {
	assert.Equal(t, "Project doesn't exists", ProjectDoesNotExist().Error())
	assert.Equal(t, "Task doesn't exists", TaskDoesNotExist().Error())
	assert.Equal(t, "Start date is invalid", InvalidStartDate().Error())
	assert.Equal(t, "One or more tasks doesn't exists in the project", OneOrMoreTasksDoesNotExist().Error())
}

func TestToHTTPErrorCarriesKind(t *testing.T) {
	httpErr := StatusDoesNotExist().ToHTTPError()

	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(httpErr))
	assert.Equal(t, "StatusDoesNotExist", httpErr.Meta["error"])
}

func TestIsFault(t *testing.T) {
	assert.True(t, IsFault(TaskDoesNotExist()))
	assert.False(t, IsFault(errors.New("plain failure")))

	assert.True(t, IsKind(InvalidStartDate(), KindInvalidStartDate))
	assert.False(t, IsKind(InvalidStartDate(), KindTaskDoesNotExist))
}
