// Package ingress upgrades a raw audio-room connection to a websocket and
// drives a pipeline.Manager from the discriminated messages it receives.
package ingress

import (
	"encoding/base64"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/lexiqai/transcript-pipeline/internal/config"
	"github.com/lexiqai/transcript-pipeline/internal/correction"
	"github.com/lexiqai/transcript-pipeline/internal/datachannel"
	"github.com/lexiqai/transcript-pipeline/internal/observability"
	"github.com/lexiqai/transcript-pipeline/internal/pipeline"
	"github.com/lexiqai/transcript-pipeline/internal/stt"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// RoomMessage is one inbound frame on the room's control-and-audio
// connection, discriminated by Event.
type RoomMessage struct {
	Event    string        `json:"event"`
	RoomName string        `json:"roomName,omitempty"`
	Track    *TrackEvent   `json:"track,omitempty"`
	Frame    *FrameMessage `json:"frame,omitempty"`
}

// TrackEvent carries a subscribe/unsubscribe event's track id and, on
// subscribe, the participant's per-track overrides.
type TrackEvent struct {
	TrackID     string   `json:"trackId"`
	Locale      string   `json:"locale,omitempty"`
	DomainHint  string   `json:"domainHint,omitempty"`
	Terminology []string `json:"terminology,omitempty"`
	Prompt      string   `json:"prompt,omitempty"`
}

// FrameMessage is one raw audio frame, base64-encoded s16le interleaved
// samples, addressed to an already-subscribed track.
type FrameMessage struct {
	TrackID           string `json:"trackId"`
	SampleRate        int    `json:"sampleRate"`
	Channels          int    `json:"channels"`
	SamplesPerChannel int    `json:"samplesPerChannel"`
	Payload           string `json:"payload"`
}

// HandleRoomWS upgrades the connection, wires a pipeline.Manager whose
// data-channel broadcaster is the same websocket connection, and dispatches
// every inbound RoomMessage until the connection closes.
func HandleRoomWS(cfg *config.Config, sttClient *stt.Client, correctionClient *correction.Client, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to upgrade connection to websocket")
			http.Error(w, "failed to upgrade to websocket", http.StatusBadRequest)
			return
		}
		defer conn.Close()

		roomName := r.URL.Query().Get("room")
		broadcaster := datachannel.NewWebSocketBroadcaster(conn, logger)
		manager := pipeline.NewManager(cfg, sttClient, correctionClient, broadcaster, roomName, logger)
		defer manager.Close()

		tracks := make(map[string]chan<- pipeline.AudioFrame)

		logger.Info().Str("room", roomName).Msg("room connection established")

		for {
			var msg RoomMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Warn().Err(err).Msg("websocket read error")
				}
				break
			}

			switch msg.Event {
			case "subscribe":
				if msg.Track == nil {
					continue
				}
				frames, err := manager.SubscribeTrack(msg.Track.TrackID, pipeline.ParticipantConfig{
					Locale:      msg.Track.Locale,
					DomainHint:  msg.Track.DomainHint,
					Terminology: msg.Track.Terminology,
					Prompt:      msg.Track.Prompt,
				})
				if err != nil {
					logger.Error().Err(err).Str("trackId", msg.Track.TrackID).Msg("failed to subscribe track")
					observability.RecordError("InvalidConfig")
					continue
				}
				tracks[msg.Track.TrackID] = frames

			case "unsubscribe":
				if msg.Track == nil {
					continue
				}
				manager.UnsubscribeTrack(msg.Track.TrackID)
				delete(tracks, msg.Track.TrackID)

			case "frame":
				if msg.Frame == nil {
					continue
				}
				frames, ok := tracks[msg.Frame.TrackID]
				if !ok {
					continue
				}
				data, err := base64.StdEncoding.DecodeString(msg.Frame.Payload)
				if err != nil {
					logger.Warn().Err(err).Str("trackId", msg.Frame.TrackID).Msg("dropping frame with invalid payload")
					continue
				}
				frames <- pipeline.AudioFrame{
					SampleRate:        msg.Frame.SampleRate,
					Channels:          msg.Frame.Channels,
					SamplesPerChannel: msg.Frame.SamplesPerChannel,
					Data:              data,
				}
			}
		}

		logger.Info().Str("room", roomName).Msg("room connection closed")
	}
}
