package session

// ChannelStatus is the per-channel connection state machine.
type ChannelStatus string

const (
	StatusDisconnected ChannelStatus = "DISCONNECTED"
	StatusConnecting   ChannelStatus = "CONNECTING"
	StatusConnected    ChannelStatus = "CONNECTED"
	StatusReconnecting ChannelStatus = "RECONNECTING"
	StatusFallbackREST ChannelStatus = "FALLBACK_REST"
	StatusFatalStopped ChannelStatus = "FATAL_STOPPED"
)

func (s ChannelStatus) ToString() string {
	return string(s)
}

// Delivering reports whether live stream events are being handed to
// callbacks in this state.
func (s ChannelStatus) Delivering() bool {
	return s == StatusConnected
}
