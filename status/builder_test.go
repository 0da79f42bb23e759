package status

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slp-responder/slp-responder/config"
	"github.com/slp-responder/slp-responder/mcproto"
)

func baseConfig() config.StatusConfig {
	return config.StatusConfig{
		IP:          "0.0.0.0",
		Port:        25565,
		Protocol:    765,
		Motd:        "under maintenance",
		VersionText: "maintenance",
		KickMessage: "come back later",
		Samples:     []string{"one", "two"},
	}
}

func TestBuildStatusJSON(t *testing.T) {
	snap, err := Build(baseConfig())
	require.NoError(t, err)

	var resp mcproto.StatusResponse
	require.NoError(t, json.Unmarshal([]byte(snap.StatusJSON), &resp))

	assert.Equal(t, "maintenance", resp.Version.Name)
	assert.Equal(t, 765, resp.Version.Protocol)
	assert.Equal(t, "under maintenance", resp.Description.Text)
	require.Len(t, resp.Players.Sample, 2)
	assert.Equal(t, "one", resp.Players.Sample[0].Name)
	assert.Equal(t, "two", resp.Players.Sample[1].Name)
	assert.Equal(t, 2, resp.Players.Max)
	assert.Equal(t, 2, resp.Players.Online)
	assert.Empty(t, resp.Favicon)
}

func TestBuildSampleUUIDsAreDistinct(t *testing.T) {
	snap, err := Build(baseConfig())
	require.NoError(t, err)

	var resp mcproto.StatusResponse
	require.NoError(t, json.Unmarshal([]byte(snap.StatusJSON), &resp))

	require.Len(t, resp.Players.Sample, 2)
	assert.NotEqual(t, resp.Players.Sample[0].ID, resp.Players.Sample[1].ID)
	assert.NotEmpty(t, resp.Players.Sample[0].ID)
}

func TestBuildFaviconOmittedWhenIconMissing(t *testing.T) {
	cfg := baseConfig()
	cfg.ServerIcon = filepath.Join(t.TempDir(), "does-not-exist.png")

	snap, err := Build(cfg)
	require.NoError(t, err)

	var resp mcproto.StatusResponse
	require.NoError(t, json.Unmarshal([]byte(snap.StatusJSON), &resp))
	assert.Empty(t, resp.Favicon)
}

func TestBuildFaviconPresentWhenIconExists(t *testing.T) {
	cfg := baseConfig()
	iconPath := filepath.Join(t.TempDir(), "icon.png")
	require.NoError(t, os.WriteFile(iconPath, []byte("not-really-a-png"), 0o644))
	cfg.ServerIcon = iconPath

	snap, err := Build(cfg)
	require.NoError(t, err)

	var resp mcproto.StatusResponse
	require.NoError(t, json.Unmarshal([]byte(snap.StatusJSON), &resp))
	assert.Contains(t, resp.Favicon, "data:image/png;base64,")
}

func TestBuildLegacyBlobMatchesProtocolAndSampleCount(t *testing.T) {
	snap, err := Build(baseConfig())
	require.NoError(t, err)

	require.NotEmpty(t, snap.LegacyBlob)
	assert.Equal(t, byte(0xFF), snap.LegacyBlob[0])

	charCount := int(snap.LegacyBlob[1])<<8 | int(snap.LegacyBlob[2])
	decoded, err := mcproto.NewByteReader(snap.LegacyBlob[3:]).ReadUTF16BE(charCount)
	require.NoError(t, err)
	assert.Contains(t, decoded, "\x00765\x00")
	assert.Contains(t, decoded, "\x002\x002\x00")
}

func TestStatusReplyFrameIsFramed(t *testing.T) {
	snap, err := Build(baseConfig())
	require.NoError(t, err)

	frame := snap.StatusReplyFrame()
	reader := mcproto.NewByteReader(frame)

	length, err := reader.ReadVarInt()
	require.NoError(t, err)
	assert.Equal(t, int32(reader.Remaining()), length)

	packetID, err := reader.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(mcproto.PacketIdStatusRequest), packetID)

	body, err := reader.ReadString()
	require.NoError(t, err)
	assert.Equal(t, snap.StatusJSON, body)
}

func TestLoginKickFrameCarriesKickMessage(t *testing.T) {
	snap, err := Build(baseConfig())
	require.NoError(t, err)

	frame := snap.LoginKickFrame()
	reader := mcproto.NewByteReader(frame)

	_, err = reader.ReadVarInt()
	require.NoError(t, err)
	_, err = reader.ReadByte()
	require.NoError(t, err)

	body, err := reader.ReadString()
	require.NoError(t, err)

	var text mcproto.StatusText
	require.NoError(t, json.Unmarshal([]byte(body), &text))
	assert.Equal(t, "come back later", text.Text)
}
