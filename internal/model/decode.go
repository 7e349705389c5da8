package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ValidationError reports a malformed or missing field in an API
// payload. Field is the JSON path of the offending value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed at %q: %s", e.Field, e.Reason)
}

// DecodeLine parses and validates a Line payload.
func DecodeLine(data []byte) (*Line, error) {
	var line Line
	if err := json.Unmarshal(data, &line); err != nil {
		return nil, decodeError(err)
	}
	if err := line.Validate(); err != nil {
		return nil, err
	}
	return &line, nil
}

// DecodeTrap parses and validates a Trap payload.
func DecodeTrap(data []byte) (*Trap, error) {
	var trap Trap
	if err := json.Unmarshal(data, &trap); err != nil {
		return nil, decodeError(err)
	}
	if err := trap.Validate(); err != nil {
		return nil, err
	}
	return &trap, nil
}

// DecodeTrapRecord parses and validates a TrapRecord payload.
func DecodeTrapRecord(data []byte) (*TrapRecord, error) {
	var record TrapRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, decodeError(err)
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return &record, nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &ValidationError{
			Field:  typeErr.Field,
			Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
		}
	}
	return &ValidationError{Reason: err.Error()}
}

func (m Meta) validate(path string) error {
	if m.Created.IsZero() {
		return &ValidationError{Field: path + ".created", Reason: "required"}
	}
	if m.Changed.IsZero() {
		return &ValidationError{Field: path + ".changed", Reason: "required"}
	}
	return nil
}

func (t Tag) validate(path string) error {
	if t.UUID == "" {
		return &ValidationError{Field: path + ".uuid", Reason: "required"}
	}
	if t.Name == "" {
		return &ValidationError{Field: path + ".name", Reason: "required"}
	}
	return nil
}

func (o Organisation) validate(path string) error {
	if o.UUID == "" {
		return &ValidationError{Field: path + ".uuid", Reason: "required"}
	}
	if o.Name == "" {
		return &ValidationError{Field: path + ".name", Reason: "required"}
	}
	return nil
}

func (p *Project) validate(path string) error {
	if p.UUID == "" {
		return &ValidationError{Field: path + ".uuid", Reason: "required"}
	}
	if p.Name == "" {
		return &ValidationError{Field: path + ".name", Reason: "required"}
	}
	for i, tag := range p.Tags {
		if err := tag.validate(fmt.Sprintf("%s.tags[%d]", path, i)); err != nil {
			return err
		}
	}
	for i, org := range p.Organisations {
		if err := org.validate(fmt.Sprintf("%s.organisations[%d]", path, i)); err != nil {
			return err
		}
	}
	return p.Meta.validate(path + ".meta")
}

// Validate checks required fields on a Project decoded from the API.
func (p *Project) Validate() error {
	return p.validate("project")
}

func (l *Line) validate(path string) error {
	if l.UUID == "" {
		return &ValidationError{Field: path + ".uuid", Reason: "required"}
	}
	if l.Name == "" {
		return &ValidationError{Field: path + ".name", Reason: "required"}
	}
	if err := l.Project.validate(path + ".project"); err != nil {
		return err
	}
	for i, tag := range l.Tags {
		if err := tag.validate(fmt.Sprintf("%s.tags[%d]", path, i)); err != nil {
			return err
		}
	}
	for i, org := range l.Organisations {
		if err := org.validate(fmt.Sprintf("%s.organisations[%d]", path, i)); err != nil {
			return err
		}
	}
	return l.Meta.validate(path + ".meta")
}

// Validate checks required fields on a Line decoded from the API.
func (l *Line) Validate() error {
	return l.validate("line")
}

// Validate checks required fields on a Trap decoded from the API,
// including cross-reference consistency: the trap's own project must
// be the project its line belongs to.
func (t *Trap) Validate() error {
	if t.UUID == "" {
		return &ValidationError{Field: "trap.uuid", Reason: "required"}
	}
	if t.Name == "" {
		return &ValidationError{Field: "trap.name", Reason: "required"}
	}
	if err := t.Project.validate("trap.project"); err != nil {
		return err
	}
	if err := t.Line.validate("trap.line"); err != nil {
		return err
	}
	if t.Line.Project.UUID != t.Project.UUID {
		return &ValidationError{
			Field:  "trap.line.project.uuid",
			Reason: fmt.Sprintf("line belongs to project %q but trap claims %q", t.Line.Project.UUID, t.Project.UUID),
		}
	}
	for i, tag := range t.Tags {
		if err := tag.validate(fmt.Sprintf("trap.tags[%d]", i)); err != nil {
			return err
		}
	}
	for i, org := range t.Organisations {
		if err := org.validate(fmt.Sprintf("trap.organisations[%d]", i)); err != nil {
			return err
		}
	}
	return t.Meta.validate("trap.meta")
}

// Validate checks required fields on a TrapRecord decoded from the
// API. The record's trap, line and project references must be
// mutually consistent.
func (r *TrapRecord) Validate() error {
	if r.UUID == "" {
		return &ValidationError{Field: "record.uuid", Reason: "required"}
	}
	if r.Date.IsZero() {
		return &ValidationError{Field: "record.date", Reason: "required"}
	}
	if r.Trap.UUID == "" {
		return &ValidationError{Field: "record.trap.uuid", Reason: "required"}
	}
	if r.Line.UUID == "" {
		return &ValidationError{Field: "record.line.uuid", Reason: "required"}
	}
	if r.Project.UUID == "" {
		return &ValidationError{Field: "record.project.uuid", Reason: "required"}
	}
	if r.Trap.Line.UUID != "" && r.Trap.Line.UUID != r.Line.UUID {
		return &ValidationError{
			Field:  "record.line.uuid",
			Reason: fmt.Sprintf("record line %q does not match trap line %q", r.Line.UUID, r.Trap.Line.UUID),
		}
	}
	if r.Line.Project.UUID != "" && r.Line.Project.UUID != r.Project.UUID {
		return &ValidationError{
			Field:  "record.project.uuid",
			Reason: fmt.Sprintf("record project %q does not match line project %q", r.Project.UUID, r.Line.Project.UUID),
		}
	}
	return r.Meta.validate("record.meta")
}

// Validate checks required fields on a Volunteer.
func (v *Volunteer) Validate() error {
	if v.Name == "" {
		return &ValidationError{Field: "volunteer.name", Reason: "required"}
	}
	return nil
}
