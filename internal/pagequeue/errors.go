package pagequeue

import (
	"fmt"

	"github.com/pkg/errors"
)

// ───────────────────────────────────────────────────────────────────────────
// Error taxonomy — §7
// ───────────────────────────────────────────────────────────────────────────
//
// Three kinds. Contract violations are programmer errors: the caller
// misused the API (appending id <= 1, reclaiming a non-aggressive queue)
// and the condition is reported as an error carrying errContractViolation
// so a caller can errors.Is against it, but is never an I/O-shaped error.
// A reentrant Append during a drain is not reported: Append simply does
// not start a second drain while one is in progress.
// Corruption is a distinguished condition the caller must treat as fatal
// to the transaction; it is wrapped with errors.WithStack so the log
// record pinpoints the exact chain-walk that found the bad byte. I/O
// failures from the PageArray/PageManager collaborators are returned
// as-is (not wrapped, no added stack) per §7 "propagate unchanged."

// errContractViolation is the sentinel a caller checks for with errors.Is
// to distinguish a programmer error from corruption or I/O failure.
var errContractViolation = errors.New("pagequeue: contract violation")

// errCorruptDatabase is the sentinel for the "corrupt database" condition.
var errCorruptDatabase = errors.New("pagequeue: corrupt database")

// contractViolation reports a programmer error such as appending a
// reserved or sentinel page identifier.
func contractViolation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errContractViolation, fmt.Sprintf(format, args...))
}

// corrupt reports the distinguished "corrupt database" condition (§7),
// wrapped with a stack trace so the caller's log of it points at the
// chain-walk that found the bad byte.
func corrupt(format string, args ...interface{}) error {
	return errors.WithStack(fmt.Errorf("%w: %s", errCorruptDatabase, fmt.Sprintf(format, args...)))
}

// IsContractViolation reports whether err is (or wraps) a contract
// violation reported by this package.
func IsContractViolation(err error) bool { return errors.Is(err, errContractViolation) }

// IsCorrupt reports whether err is (or wraps) a corrupt-database condition
// reported by this package.
func IsCorrupt(err error) bool { return errors.Is(err, errCorruptDatabase) }
