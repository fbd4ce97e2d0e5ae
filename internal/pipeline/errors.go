package pipeline

import "fmt"

// TransportDisconnectedError indicates the media room disconnected or the
// participant owning a track left. No code in this package constructs it;
// Manager.Close stops every track pipeline, and Manager.UnsubscribeTrack
// signals a Session reset when the last track leaves.
type TransportDisconnectedError struct {
	TrackID string
}

func (e *TransportDisconnectedError) Error() string {
	return fmt.Sprintf("transport disconnected: track %s", e.TrackID)
}
