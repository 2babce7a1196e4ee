package enum

// TransportMode is the transport security the mail connection ended up on
// after negotiation.
type TransportMode string

const (
	TransportModeTLS       TransportMode = "tls"
	TransportModeStartTLS  TransportMode = "startTLS"
	TransportModePlaintext TransportMode = "plaintext"
)

func (t TransportMode) String() string {
	return string(t)
}

type ConnState string

const (
	ConnStateDisconnected ConnState = "disconnected"
	ConnStateConnecting   ConnState = "connecting"
	ConnStateConnected    ConnState = "connected"
	ConnStateBackoff      ConnState = "backoff"
)

func (t ConnState) String() string {
	return string(t)
}
