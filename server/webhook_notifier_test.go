package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotifierSendsPayload(t *testing.T) {
	received := make(chan WebhookNotifierPayload, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload WebhookNotifierPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		received <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	notifier := NewWebhookNotifier(ts.URL, false)
	playerInfo := &PlayerInfo{Name: "itzg", Uuid: uuid.New()}
	clientAddr := &net.TCPAddr{IP: net.ParseIP("192.0.2.1"), Port: 54321}

	err := notifier.NotifyKickedLogin(context.Background(), clientAddr, playerInfo, "come back later")
	require.NoError(t, err)

	select {
	case payload := <-received:
		assert.Equal(t, webhookEventLoginKicked, payload.Event)
		assert.Equal(t, "come back later", payload.KickMessage)
		require.NotNil(t, payload.Client)
		assert.Equal(t, "192.0.2.1", payload.Client.Host)
		require.NotNil(t, payload.PlayerInfo)
		assert.Equal(t, "itzg", payload.PlayerInfo.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not called")
	}
}

func TestWebhookNotifierSkipsWhenUserRequiredButMissing(t *testing.T) {
	called := make(chan struct{}, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	notifier := NewWebhookNotifier(ts.URL, true)
	clientAddr := &net.TCPAddr{IP: net.ParseIP("192.0.2.1"), Port: 54321}

	err := notifier.NotifyKickedLogin(context.Background(), clientAddr, nil, "come back later")
	require.NoError(t, err)

	select {
	case <-called:
		t.Fatal("webhook should not have been called without a player name")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestClientInfoFromAddr(t *testing.T) {
	info := ClientInfoFromAddr(&net.TCPAddr{IP: net.ParseIP("192.0.2.1"), Port: 54321})
	require.NotNil(t, info)
	assert.Equal(t, "192.0.2.1", info.Host)
	assert.Equal(t, 54321, info.Port)
}

func TestClientInfoFromAddrNonTCP(t *testing.T) {
	info := ClientInfoFromAddr(nil)
	assert.Nil(t, info)
}

func TestPlayerInfoString(t *testing.T) {
	var nilInfo *PlayerInfo
	assert.Equal(t, "", nilInfo.String())

	info := &PlayerInfo{Name: "itzg"}
	assert.Contains(t, info.String(), "itzg")
}
