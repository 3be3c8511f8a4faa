// Package integration holds the result contract shared by the external
// collaborators: mail, the spreadsheet mirror and the analytics table.
package integration

import "errors"

// Operation is the kind of change being mirrored.
type Operation string

const (
	OperationInsert Operation = "insert"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// CredentialsMissing is the error text returned when a collaborator is not configured.
const CredentialsMissing = "Credentials missing"

// Result is what every collaborator call reports. Collaborators never panic
// or return Go errors to the caller; failures are described here.
type Result struct {
	Success   bool   `json:"success"`
	Simulated bool   `json:"simulated,omitempty"`
	Error     string `json:"error,omitempty"`
}

// OK is a successful result.
func OK() Result {
	return Result{Success: true}
}

// Failed wraps err as a failed result.
func Failed(err error) Result {
	if err == nil {
		return Result{Success: false, Error: "unknown error"}
	}
	return Result{Success: false, Error: err.Error()}
}

// Err converts a failed result back to an error, nil on success.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return errors.New(r.Error)
}

// Permanent reports failures that retrying cannot fix.
func (r Result) Permanent() bool {
	return !r.Success && r.Error == CredentialsMissing
}
