package rendergraph

import (
	"errors"
	"fmt"
)

// ErrNotRecording is wrapped by violations raised when the graph is used outside RecordAndExecute.
var ErrNotRecording = errors.New("rendergraph: not recording")

// ErrStaleHandle is wrapped by violations raised for handles from another graph or an earlier recording.
var ErrStaleHandle = errors.New("rendergraph: stale or foreign handle")

// ErrUndeclaredAccess is wrapped by violations raised when a pass resolves a resource it did not declare.
var ErrUndeclaredAccess = errors.New("rendergraph: undeclared access")

// ContractViolation is the panic value raised when a pass breaks the graph's usage
// contract. It signals a programming error, never a runtime condition.
type ContractViolation struct {
	// Pass is the name of the offending pass, empty outside a pass.
	Pass string

	// Op is the operation that detected the violation.
	Op string

	Err error
}

func (v *ContractViolation) Error() string {
	if v.Pass == "" {
		return fmt.Sprintf("rendergraph: contract violation in %s: %v", v.Op, v.Err)
	}
	return fmt.Sprintf("rendergraph: contract violation in %s (pass %q): %v", v.Op, v.Pass, v.Err)
}

func (v *ContractViolation) Unwrap() error {
	return v.Err
}

func violate(pass, op string, err error) {
	panic(&ContractViolation{Pass: pass, Op: op, Err: err})
}

// AsContractViolation reports whether a recovered panic value is a contract violation.
func AsContractViolation(r any) (*ContractViolation, bool) {
	switch v := r.(type) {
	case *ContractViolation:
		return v, true
	case error:
		var cv *ContractViolation
		if errors.As(v, &cv) {
			return cv, true
		}
	}
	return nil, false
}
