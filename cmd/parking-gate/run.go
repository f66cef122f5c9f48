package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/parking-gate/internal/config"
	"github.com/sweeney/parking-gate/internal/gpio"
	"github.com/sweeney/parking-gate/internal/influx"
	"github.com/sweeney/parking-gate/internal/mqtt"
	"github.com/sweeney/parking-gate/internal/parking"
	"github.com/sweeney/parking-gate/internal/status"
	"github.com/sweeney/parking-gate/internal/web"
)

// refreshInterval is how often the status tracker copies the lot state.
const refreshInterval = time.Second

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return run(cfg)
}

func run(cfg config.Config) error {
	lineIO, err := gpio.NewLineIO(cfg.Chip)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer lineIO.Close()

	servo, err := gpio.NewServoActuator(gpio.Pin(cfg.Servo.Pin), cfg.Servo.Period)
	if err != nil {
		return fmt.Errorf("init servo: %w", err)
	}
	defer servo.Close()

	sys, err := parking.New(cfg.Parking(), lineIO, servo)
	if err != nil {
		return err
	}

	publisher, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, mqtt.DefaultClientID)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	var rec recorder
	if cfg.Influx.URL != "" {
		r := influx.New(influx.Config{
			URL:    cfg.Influx.URL,
			Token:  cfg.Influx.Token,
			Org:    cfg.Influx.Org,
			Bucket: cfg.Influx.Bucket,
			Lot:    cfg.Influx.Lot,
		})
		defer r.Close()
		rec = r
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		DebounceMs:  cfg.Timing.Debounce.Milliseconds(),
		PassageMs:   cfg.Timing.Passage.Milliseconds(),
		HeartbeatMs: cfg.MQTT.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPPort:    cfg.HTTP.Addr,
		Influx:      cfg.Influx.URL,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	sinks := newLotSinks(publisher, rec, sinkQueueSize)
	sys.AddObserver(parking.NewLineWriter(os.Stdout))
	sys.AddObserver(sinks)
	sys.AddPassageSink(sinks)

	if err := sys.Start(); err != nil {
		if serr := sys.Stop(); serr != nil {
			log.Printf("stop after failed start: %v", serr)
		}
		sinks.Close()
		return fmt.Errorf("start: %w", err)
	}
	tracker.Update(sys.Snapshot())
	tracker.SetMQTTConnected(publisher.IsConnected())

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Printf("started: spots=%d debounce=%v passage=%v broker=%s heartbeat=%v",
		len(cfg.Spots), cfg.Timing.Debounce, cfg.Timing.Passage, cfg.MQTT.Broker, cfg.MQTT.Heartbeat)

	refresh := time.NewTicker(refreshInterval)
	defer refresh.Stop()

	var heartbeat <-chan time.Time
	if cfg.MQTT.Heartbeat > 0 {
		hb := time.NewTicker(cfg.MQTT.Heartbeat)
		defer hb.Stop()
		heartbeat = hb.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(sys, sinks, publisher, publisher, tracker, time.Now, refresh.C, heartbeat, sigCh)
}

// lot is the part of parking.System the run loop drives.
type lot interface {
	Snapshot() parking.Snapshot
	Stop() error
}

// flusher drains queued sink work.
type flusher interface {
	Close()
}

// runLoop keeps the status tracker current and publishes heartbeats until a
// signal arrives, then stops the lot and publishes SHUTDOWN.
func runLoop(l lot, sinks flusher, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, refresh, heartbeat <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}

			stopErr := l.Stop()
			if stopErr != nil {
				log.Printf("stop: %v", stopErr)
			}
			// Final availability and passages go out before SHUTDOWN.
			sinks.Close()

			tracker.Update(l.Snapshot())
			tracker.SetRunning(false)
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			snap := tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return stopErr

		case <-refresh:
			tracker.Update(l.Snapshot())
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

		case <-heartbeat:
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			// Refresh network info for heartbeat
			if net := readNetworkInfo(); net != nil {
				tracker.SetNetwork(net)
			}
			tracker.Update(l.Snapshot())
			snap := tracker.Snapshot()
			log.Printf("heartbeat: uptime=%v available=%d/%d entries=%d exits=%d denied=%d",
				snap.Uptime().Truncate(time.Second), snap.Lot.Available, snap.Lot.Total,
				snap.Lot.Counts.Entries, snap.Lot.Counts.Exits, snap.Lot.Counts.Denied)

			hbEvent := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "HEARTBEAT",
				RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
			}
			if err := publisher.PublishSystem(hbEvent); err != nil {
				log.Printf("heartbeat publish error: %v", err)
			}
		}
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
