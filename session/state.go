// Package session holds the per-browser application state: which project
// and design are active, the current quotation, and whether a generation is
// in flight. State changes only through Reduce.
package session

// State is the application state of one session.
type State struct {
	CurrentProjectID string `json:"currentProjectId"`
	SelectedDesignID string `json:"selectedDesignId"`
	QuotationID      string `json:"quotationId"`
	Loading          bool   `json:"loading"`
	Error            string `json:"error"`
}

// HasSelectedDesign reports whether a design has been chosen. The quotation
// page requires one.
func (s State) HasSelectedDesign() bool {
	return s.SelectedDesignID != ""
}

// Action is a state transition.
type Action interface {
	apply(State) State
}

type SetLoading struct{ Loading bool }

type SetError struct{ Message string }

type ClearError struct{}

type SetCurrentProject struct{ ProjectID string }

// AddProject makes a newly created project current.
type AddProject struct{ ProjectID string }

type SetSelectedDesign struct{ DesignID string }

type SetQuotation struct{ QuotationID string }

func (a SetLoading) apply(s State) State {
	s.Loading = a.Loading
	return s
}

// Setting an error always ends loading.
func (a SetError) apply(s State) State {
	s.Error = a.Message
	s.Loading = false
	return s
}

func (ClearError) apply(s State) State {
	s.Error = ""
	return s
}

// Switching projects drops the design and quotation of the previous one.
func (a SetCurrentProject) apply(s State) State {
	if s.CurrentProjectID != a.ProjectID {
		s.SelectedDesignID = ""
		s.QuotationID = ""
	}
	s.CurrentProjectID = a.ProjectID
	return s
}

func (a AddProject) apply(s State) State {
	return SetCurrentProject(a).apply(s)
}

// A new design invalidates the quotation priced from the old one.
func (a SetSelectedDesign) apply(s State) State {
	if s.SelectedDesignID != a.DesignID {
		s.QuotationID = ""
	}
	s.SelectedDesignID = a.DesignID
	return s
}

func (a SetQuotation) apply(s State) State {
	s.QuotationID = a.QuotationID
	return s
}

// Reduce applies actions to s in order and returns the result. It has no
// side effects; a nil action leaves the state unchanged.
func Reduce(s State, actions ...Action) State {
	for _, a := range actions {
		if a == nil {
			continue
		}
		s = a.apply(s)
	}
	return s
}
