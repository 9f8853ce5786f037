package diag

// Severity defines the importance of a diagnostic. Only SevError fails a
// pass; warnings are reported separately and can be silenced.
type Severity uint8

const (
	SevInfo    Severity = iota // notes attached by tooling
	SevWarning                 // e.g. an unnecessary semicolon
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// SarifLevel maps s to a SARIF 2.1.0 result level.
func (s Severity) SarifLevel() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "note"
	}
}
