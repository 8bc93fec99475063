// ABOUTME: Tests for the websocket control client
// ABOUTME: Runs the client against a real control server over httptest
package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/lanes/internal/server"
	"github.com/harperreed/lanes/pkg/protocol"
	"github.com/harperreed/lanes/pkg/timeline"
)

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{ServerAddr: "localhost:8937"})
	if c.config.Path != "/ws" {
		t.Errorf("expected path /ws, got %s", c.config.Path)
	}
	if c.config.ClientID == "" {
		t.Error("expected generated client id")
	}
	if c.IsConnected() {
		t.Error("expected not connected before Connect")
	}
}

func startServer(t *testing.T) (*timeline.Session, string) {
	t.Helper()
	session := timeline.NewSession(timeline.Options{Manual: true})
	t.Cleanup(func() { session.Close() })

	srv := server.New(server.Config{Name: "Studio", Session: session})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return session, strings.TrimPrefix(ts.URL, "http://")
}

func TestConnectAndCommand(t *testing.T) {
	session, addr := startServer(t)

	c := NewClient(Config{ServerAddr: addr, Name: "test ctl"})
	if err := c.Connect(); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer c.Close()

	if c.Server().Name != "Studio" {
		t.Errorf("expected server Studio, got %s", c.Server().Name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := c.Command(ctx, protocol.TypeTrackAdd, protocol.TrackAdd{Name: "Bass"})
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if _, ok := session.Track(res.ID); !ok {
		t.Errorf("expected track %s in session", res.ID)
	}

	if _, err := c.Command(ctx, protocol.TypeTrackDelete, protocol.TrackDelete{TrackID: "missing"}); err == nil {
		t.Error("expected error deleting missing track")
	}

	snap, err := c.State(ctx)
	if err != nil {
		t.Fatalf("no state received: %v", err)
	}
	if snap.Duration != timeline.DefaultMinLength {
		t.Errorf("expected duration %f, got %f", timeline.DefaultMinLength, snap.Duration)
	}
}

func TestDuplicateIDRefused(t *testing.T) {
	_, addr := startServer(t)

	first := NewClient(Config{ServerAddr: addr, ClientID: "dup"})
	if err := first.Connect(); err != nil {
		t.Fatal(err)
	}
	defer first.Close()

	second := NewClient(Config{ServerAddr: addr, ClientID: "dup"})
	err := second.Connect()
	if err == nil {
		second.Close()
		t.Fatal("expected duplicate client id to be refused")
	}
	if second.IsConnected() {
		t.Error("expected refused client to be disconnected")
	}
}

func TestCommandAfterClose(t *testing.T) {
	_, addr := startServer(t)

	c := NewClient(Config{ServerAddr: addr})
	if err := c.Connect(); err != nil {
		t.Fatal(err)
	}
	c.Close()

	_, err := c.Command(context.Background(), protocol.TypeTransportPlay, nil)
	if err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}
