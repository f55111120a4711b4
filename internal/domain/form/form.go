// Package form models the checkbox form as a pure state machine.
//
// The machine runs Idle -> Validating -> Submitting -> {Accepted, Rejected}
// and collapses back to Idle on the next edit. Callers feed events through
// Next and perform the remote insert themselves while the form is Submitting.
package form

import (
	"fmt"

	"github.com/okian/checkboard/internal/domain/types"
)

// User-facing messages.
const (
	MsgNameRequired  = "Please fill out this field."
	MsgNoneSelected  = "Please select at least one checkbox."
	MsgSaveFailed    = "Error saving your selection."
	MsgUnexpected    = "An unexpected error occurred."
	msgBothSelected  = "%s, you crafty devil. I didn't say you could check both checkboxes!"
	msgColorSelected = "%s, you selected the %s checkbox!"
)

// Status is the position of the form in the submission flow.
type Status int

const (
	Idle Status = iota
	Validating
	Submitting
	Accepted
	Rejected
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Form is the state of the checkbox form.
type Form struct {
	Name    string
	Red     bool
	Blue    bool
	Status  Status
	Message string
}

// Event is an input to the form state machine.
type Event interface {
	event()
}

// Edited carries the current field values.
type Edited struct {
	Name string
	Red  bool
	Blue bool
}

// Submitted is the user pressing submit.
type Submitted struct{}

// InsertSucceeded reports that the remote insert completed.
type InsertSucceeded struct{}

// InsertFailed reports a remote insert error.
type InsertFailed struct {
	Err error
}

// InsertPanicked reports that the insert call panicked and was recovered.
type InsertPanicked struct {
	Value any
}

func (Edited) event()          {}
func (Submitted) event()       {}
func (InsertSucceeded) event() {}
func (InsertFailed) event()    {}
func (InsertPanicked) event()  {}

// Submission returns the record to send for the current fields.
func (f Form) Submission() types.Submission {
	return types.Submission{Name: f.Name, RedSelected: f.Red, BlueSelected: f.Blue}
}

// Validate checks a submission. It returns nil only when the name is set and
// exactly one checkbox is selected.
func Validate(s types.Submission) error {
	switch {
	case s.Name == "":
		return ErrNameRequired
	case s.RedSelected && s.BlueSelected:
		return ErrBothSelected
	case !s.RedSelected && !s.BlueSelected:
		return ErrNoneSelected
	}
	return nil
}

// Next returns the state after applying e to f. It never performs I/O.
func Next(f Form, e Event) Form {
	switch ev := e.(type) {
	case Edited:
		if ev.Name == f.Name && ev.Red == f.Red && ev.Blue == f.Blue {
			return f
		}
		f.Name, f.Red, f.Blue = ev.Name, ev.Red, ev.Blue
		f.Status = Idle
		return f

	case Submitted:
		if f.Status == Submitting {
			return f
		}
		f.Status = Validating
		return validate(f)

	case InsertSucceeded:
		if f.Status != Submitting {
			return f
		}
		f.Status = Accepted
		f.Message = fmt.Sprintf(msgColorSelected, f.Name, f.color())
		return f

	case InsertFailed:
		if f.Status != Submitting {
			return f
		}
		f.Status = Rejected
		f.Message = MsgSaveFailed
		return f

	case InsertPanicked:
		if f.Status != Submitting {
			return f
		}
		f.Status = Rejected
		f.Message = MsgUnexpected
		return f
	}
	return f
}

func validate(f Form) Form {
	switch err := Validate(f.Submission()); err {
	case nil:
		f.Status = Submitting
	case ErrNameRequired:
		// The input's required attribute normally stops this before it gets here.
		f.Status = Idle
		f.Message = MsgNameRequired
	case ErrBothSelected:
		f.Status = Rejected
		f.Message = fmt.Sprintf(msgBothSelected, f.Name)
	default:
		f.Status = Rejected
		f.Message = MsgNoneSelected
	}
	return f
}

func (f Form) color() string {
	if f.Red {
		return "red"
	}
	return "blue"
}
