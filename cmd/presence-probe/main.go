// Command presence-probe joins a presence room and logs what happens in it.
// Without -url it looks for a relay on the local network over mDNS.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"thumbio/internal/infra/discovery"
	"thumbio/internal/presence/client"
)

func main() {
	url := flag.String("url", "", "relay room URL, e.g. ws://localhost:8080/ws/room/lobby")
	room := flag.String("room", "lobby", "room to join when the relay is discovered")
	browse := flag.Duration("browse", 3*time.Second, "mDNS browse timeout")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	target := *url
	if target == "" {
		relays, err := discovery.Browse(ctx, *browse)
		if err != nil {
			logrus.Warnf("Probe: browse failed: %v", err)
		}
		if len(relays) == 0 {
			logrus.Fatal("Probe: no relay found; pass -url")
		}
		logrus.WithFields(logrus.Fields{"name": relays[0].Name, "addr": relays[0].Addr}).Info("Probe: relay discovered")
		target = "ws://" + relays[0].Addr + "/ws/room/" + *room
	}

	c := client.New(target)
	client.Subscribe(c, func(ev client.IdentityEvent) {
		logrus.WithFields(logrus.Fields{"user_id": ev.UserID, "name": ev.Name}).Info("Probe: joined")
	})
	client.Subscribe(c, func(ev client.SyncEvent) {
		logrus.WithField("connections", ev.ConnectionCount).Infof("Probe: %d users present", len(ev.Users))
	})
	client.Subscribe(c, func(ev client.UserJoinedEvent) {
		logrus.WithFields(logrus.Fields{"user_id": ev.UserID, "name": ev.Name, "connections": ev.ConnectionCount}).Info("Probe: user joined")
	})
	client.Subscribe(c, func(ev client.UserLeftEvent) {
		logrus.WithFields(logrus.Fields{"user_id": ev.UserID, "connections": ev.ConnectionCount}).Info("Probe: user left")
	})
	client.Subscribe(c, func(ev client.CursorEvent) {
		logrus.WithFields(logrus.Fields{"user_id": ev.UserID, "x": ev.X, "y": ev.Y}).Debug("Probe: cursor")
	})
	disconnected := make(chan struct{})
	client.Subscribe(c, func(ev client.DisconnectedEvent) {
		if ev.Err != nil {
			logrus.Warnf("Probe: disconnected: %v", ev.Err)
		}
		close(disconnected)
	})

	if err := c.Connect(ctx); err != nil {
		logrus.Fatalf("Probe: %v", err)
	}
	select {
	case <-ctx.Done():
		_ = c.Close()
	case <-disconnected:
	}
}
