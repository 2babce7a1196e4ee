package enum

// FailureKind classifies why a PDF could not be rasterized. The set is closed:
// callers match exhaustively instead of inspecting error types.
type FailureKind string

const (
	FailureEmptyDocument     FailureKind = "empty_document"
	FailurePasswordProtected FailureKind = "password_protected"
	FailureCorrupted         FailureKind = "corrupted_document"
	FailureTimeout           FailureKind = "timeout"
	FailureGeneric           FailureKind = "conversion_failed"
)

func (t FailureKind) String() string {
	return string(t)
}
