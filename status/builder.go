// Package status builds the precomputed reply documents served to every
// handshaking client: the modern JSON status card and the legacy 1.6
// fixed-format blob. Both are derived once from a config.StatusConfig and
// cached until the backing config file changes.
package status

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/slp-responder/slp-responder/config"
	"github.com/slp-responder/slp-responder/mcproto"
)

// Snapshot is the immutable pair of precomputed replies a connection needs:
// the JSON status body (without the length/packet-id framing, which is
// applied fresh per-connection since only the packet byte prefix differs)
// and the fully-framed legacy blob.
type Snapshot struct {
	StatusJSON  string
	LegacyBlob  []byte
	KickMessage string
	Config      config.StatusConfig
}

// Build renders a Snapshot from cfg: a fresh set of player-sample UUIDs,
// an optional base64 favicon read from cfg.ServerIcon, and the legacy blob.
func Build(cfg config.StatusConfig) (*Snapshot, error) {
	samples := make([]mcproto.PlayerEntry, 0, len(cfg.Samples))
	for _, name := range cfg.Samples {
		samples = append(samples, mcproto.PlayerEntry{
			Name: name,
			ID:   uuid.New().String(),
		})
	}

	response := mcproto.StatusResponse{
		Version: mcproto.StatusVersion{
			Name:     cfg.VersionText,
			Protocol: int(cfg.Protocol),
		},
		Players: mcproto.StatusPlayers{
			Max:    len(cfg.Samples),
			Online: len(cfg.Samples),
			Sample: samples,
		},
		Description: mcproto.StatusText{Text: cfg.Motd},
	}

	if favicon, ok := loadFavicon(cfg.ServerIcon); ok {
		response.Favicon = favicon
	}

	body, err := json.Marshal(response)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal status response")
	}

	legacyBlob, err := mcproto.BuildLegacyStatusBlob(int(cfg.Protocol), len(cfg.Samples))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build legacy status blob")
	}

	return &Snapshot{
		StatusJSON:  string(body),
		LegacyBlob:  legacyBlob,
		KickMessage: cfg.KickMessage,
		Config:      cfg,
	}, nil
}

// loadFavicon reads path and returns it as a data URI. A missing file is
// not an error: the favicon field is simply omitted, matching the
// optional-favicon behavior this was grounded on.
func loadFavicon(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.WithError(err).WithField("path", path).Warn("Failed to read server icon, omitting favicon")
		} else {
			logrus.WithField("path", path).Warn("Server icon not found, omitting favicon")
		}
		return "", false
	}
	var b strings.Builder
	b.WriteString("data:image/png;base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String(), true
}

// StatusReplyFrame returns the fully-framed modern status response packet
// (packet id 0x00, body = s.StatusJSON).
func (s *Snapshot) StatusReplyFrame() []byte {
	return mcproto.BuildFramedStringResponse(mcproto.PacketIdStatusRequest, s.StatusJSON)
}

// LoginKickFrame returns the fully-framed login-disconnect packet
// (packet id 0x00, body = {"text": s.KickMessage}).
func (s *Snapshot) LoginKickFrame() []byte {
	kick := mcproto.StatusText{Text: s.KickMessage}
	body, err := json.Marshal(kick)
	if err != nil {
		// Marshaling a struct with a single string field cannot fail.
		panic(errors.Wrap(err, "failed to marshal kick message"))
	}
	return mcproto.BuildFramedStringResponse(mcproto.PacketIdLoginStart, string(body))
}
