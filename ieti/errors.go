package ieti

import "fmt"

// ConfigurationError reports mismatched or missing subdomain data, or
// builder calls made out of order. The caller can correct and retry.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// EmptyDomainError reports a count- or assembly-dependent operation
// invoked before any subdomain was registered
type EmptyDomainError struct {
	Op string
}

func (e *EmptyDomainError) Error() string {
	return fmt.Sprintf("%s requires at least one registered subdomain", e.Op)
}

// FactorizationError reports an eliminated block that the sparse
// Cholesky factorization could not handle (not positive definite or
// singular), identifying the offending subdomain.
type FactorizationError struct {
	Subdomain int
	Err       error
}

func (e *FactorizationError) Error() string {
	if e.Subdomain < 0 {
		return fmt.Sprintf("factorization of eliminated block failed: %v", e.Err)
	}
	return fmt.Sprintf("subdomain %d: factorization of eliminated block failed: %v", e.Subdomain, e.Err)
}

func (e *FactorizationError) Unwrap() error { return e.Err }
