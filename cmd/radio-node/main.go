// Command radio-node runs a half-duplex packet radio endpoint: a mode button
// toggles the node between listening for packets and sending them, and every
// outcome is reported to the diagnostic console and MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sweeney/radio-node/internal/diag"
	"github.com/sweeney/radio-node/internal/gpio"
	"github.com/sweeney/radio-node/internal/logic"
	"github.com/sweeney/radio-node/internal/mqtt"
	"github.com/sweeney/radio-node/internal/node"
	"github.com/sweeney/radio-node/internal/radio"
	"github.com/sweeney/radio-node/internal/status"
	"github.com/sweeney/radio-node/internal/web"
)

func main() {
	poll := flag.Duration("poll", 10*time.Millisecond, "Button polling interval")
	debounce := flag.Duration("debounce", 50*time.Millisecond, "Button debounce duration")
	hold := flag.Duration("hold", time.Second, "Duration before a press counts as held")
	settle := flag.Duration("settle", 100*time.Millisecond, "Pause between transmissions")
	pin := flag.Int("pin", gpio.DefaultPinButton, "BCM pin number for the mode button")
	spiPort := flag.String("spi", "SPI0.0", "SPI port for the radio")
	gdo0 := flag.String("gdo0", "GPIO24", "GDO0 interrupt pin for the radio")
	channel := flag.Int("channel", 0, "Radio channel (0-255)")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	httpAddr := flag.String("http", ":8080", "HTTP status address (empty to disable)")
	console := flag.String("console", "", `Serial debug console as device@baud (e.g. /dev/ttyAMA0@115200, empty to disable)`)
	mode := flag.String("mode", "RECEIVE", "Initial operating mode (RECEIVE or TRANSMIT)")

	flag.Parse()

	initialMode, err := parseMode(*mode)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if *channel < 0 || *channel > 255 {
		log.Fatalf("fatal: channel %d out of range", *channel)
	}

	if err := run(*poll, *debounce, *hold, *settle, *pin, *spiPort, *gdo0, byte(*channel), *broker, *httpAddr, *console, initialMode); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(poll, debounce, hold, settle time.Duration, pin int, spiPort, gdo0 string, channel byte, broker, httpAddr, console string, initialMode node.Mode) error {
	// Initialize GPIO for the mode button
	gpioReader, err := gpio.NewRealReader(pin)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer gpioReader.Close()

	// Initialize the radio
	transceiver, err := radio.NewCC1101(radio.Config{
		Port:    spiPort,
		GDO0Pin: gdo0,
		Channel: channel,
	})
	if err != nil {
		return fmt.Errorf("init radio: %w", err)
	}
	defer transceiver.Close()

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Diagnostic sink: process log by default, serial console if configured
	var sink diag.Sink = diag.NewLog()
	if console != "" {
		device, baud, err := parseConsole(console)
		if err != nil {
			return err
		}
		serialSink, err := diag.NewSerial(device, baud)
		if err != nil {
			return fmt.Errorf("init console: %w", err)
		}
		sink = serialSink
	}
	defer sink.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      poll.Milliseconds(),
		DebounceMs:  debounce.Milliseconds(),
		HoldMs:      hold.Milliseconds(),
		SettleMs:    settle.Milliseconds(),
		Broker:      broker,
		HTTPPort:    httpAddr,
		SPIPort:     spiPort,
		ConsolePort: console,
	})

	// Publish startup event with the running configuration
	startupEvent := mqtt.SystemEvent{
		Timestamp: time.Now(),
		Event:     "STARTUP",
		Retained:  true,
		Config: &mqtt.SystemConfig{
			PollMs:     poll.Milliseconds(),
			DebounceMs: debounce.Milliseconds(),
			HoldMs:     hold.Milliseconds(),
			SettleMs:   settle.Milliseconds(),
			Broker:     broker,
		},
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	button := logic.NewButton(debounce, hold)
	coord := node.NewCoordinator(transceiver, button, node.Config{
		InitialMode: initialMode,
		SettleDelay: settle,
	})

	log.Printf("started: poll=%v debounce=%v hold=%v mode=%s spi=%s broker=%s", poll, debounce, hold, initialMode, spiPort, broker)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(gpioReader, coord, publisher, publisher, tracker, sink, time.Now, ticker.C, sigCh)
}

func runLoop(gpioReader gpio.Reader, coord *node.Coordinator, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, sink diag.Sink, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	if err := coord.Start(); err != nil {
		return err
	}

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
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			pressed, err := gpioReader.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
				continue
			}

			events, tickErr := coord.Tick(pressed, t)

			for _, event := range events {
				sink.Line(formatEvent(event))
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
				if tracker != nil {
					recordPacket(tracker, event)
				}
			}

			if tracker != nil {
				tracker.Update(coord.Mode(), coord.ButtonState(), coord.Counts())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			if tickErr != nil {
				return tickErr
			}
		}
	}
}

// formatEvent renders an event as one human-readable diagnostic line.
func formatEvent(e node.Event) string {
	switch e.Type {
	case node.EventModeChange:
		return fmt.Sprintf("mode changed to %s", e.Mode)
	case node.EventPacketReceived:
		return fmt.Sprintf("received %d bytes (rssi=%.1f dBm lqi=%d): %q", len(e.Payload), e.RSSI, e.LQI, e.Payload)
	case node.EventPacketCorrupt:
		return "received corrupt packet (crc mismatch), discarded"
	case node.EventReceiveError:
		return fmt.Sprintf("receive error: %s", e.Err)
	case node.EventTransmitOK:
		return fmt.Sprintf("transmitted packet #%d", e.Seq)
	case node.EventTransmitFailed:
		return fmt.Sprintf("transmit #%d failed: %s", e.Seq, e.Err)
	default:
		return fmt.Sprintf("event: %s", e.Type)
	}
}

// recordPacket updates the tracker's last-packet info for packet outcomes.
func recordPacket(tracker *status.Tracker, e node.Event) {
	switch e.Type {
	case node.EventPacketReceived:
		tracker.SetLastPacket(&status.PacketInfo{
			Timestamp: e.Timestamp,
			Direction: "RX",
			Length:    len(e.Payload),
			RSSI:      e.RSSI,
			LQI:       e.LQI,
		})
	case node.EventTransmitOK:
		tracker.SetLastPacket(&status.PacketInfo{
			Timestamp: e.Timestamp,
			Direction: "TX",
			Seq:       e.Seq,
		})
	}
}

// parseConsole splits a device@baud console spec.
func parseConsole(spec string) (string, int, error) {
	device, baudStr, found := strings.Cut(spec, "@")
	if !found || device == "" {
		return "", 0, fmt.Errorf("console %q: want device@baud", spec)
	}
	baud, err := strconv.Atoi(baudStr)
	if err != nil || baud <= 0 {
		return "", 0, fmt.Errorf("console %q: bad baud rate", spec)
	}
	return device, baud, nil
}

func parseMode(s string) (node.Mode, error) {
	switch strings.ToUpper(s) {
	case "RECEIVE", "RX":
		return node.ModeReceive, nil
	case "TRANSMIT", "TX":
		return node.ModeTransmit, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want RECEIVE or TRANSMIT)", s)
	}
}
