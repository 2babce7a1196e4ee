package interfaces

// SenderAuthorizer decides whether a bare sender address is allowed to submit
// work. Stateless and deterministic; the pattern is compiled once at startup.
type SenderAuthorizer interface {
	IsAuthorized(address string) bool
}
