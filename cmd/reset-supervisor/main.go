// Command reset-supervisor debounces the front-panel reset switch and drives
// the CPU HALT/RESET lines, publishing edges to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/reset-supervisor/internal/config"
	"github.com/sweeney/reset-supervisor/internal/driver"
	"github.com/sweeney/reset-supervisor/internal/gpio"
	"github.com/sweeney/reset-supervisor/internal/logic"
	"github.com/sweeney/reset-supervisor/internal/mqtt"
	"github.com/sweeney/reset-supervisor/internal/status"
	"github.com/sweeney/reset-supervisor/internal/tick"
	"github.com/sweeney/reset-supervisor/internal/web"
)

// queueSize bounds the messages waiting for the broker goroutine.
const queueSize = 256

type options struct {
	configPath  string
	writeConfig string
	printState  bool
}

func main() {
	cfg, opts, err := parseArgs(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if opts.writeConfig != "" {
		if err := config.Save(opts.writeConfig, cfg); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		log.Printf("wrote config to %s", opts.writeConfig)
		return
	}

	if opts.printState {
		if err := printState(cfg, os.Stdout); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		return
	}

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// openInputs opens the read-only input lines; tests replace it.
var openInputs = func(chip string, pins gpio.Pins) (gpio.Reader, error) {
	in, err := gpio.OpenInputs(chip, pins)
	if err != nil {
		return nil, err
	}
	return in, nil
}

// printState samples the inputs once without requesting any output, so it
// is safe to run next to a live supervisor or host board.
func printState(cfg config.Config, w io.Writer) error {
	in, err := openInputs(cfg.Chip, cfg.Pins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer in.Close()

	levels, err := in.Read()
	if err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}
	fmt.Fprintf(w, "SWITCH: %s, HALT: %s\n", switchString(levels.Switch), haltString(levels.Halt))
	return nil
}

// parseArgs layers the config: defaults, then the -config file, then any
// flag given explicitly on the command line.
func parseArgs(args []string) (config.Config, options, error) {
	def := config.Default()
	flags := def
	var opts options

	fs := flag.NewFlagSet("reset-supervisor", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "YAML config file (a missing file means defaults)")
	fs.StringVar(&opts.writeConfig, "write-config", "", "Write the effective config to this path and exit")
	fs.BoolVar(&opts.printState, "print-state", false, "Print current input levels and exit")
	fs.StringVar(&flags.Chip, "chip", def.Chip, "GPIO chip name")
	fs.IntVar(&flags.Pins.Switch, "pin-switch", def.Pins.Switch, "BCM line for the reset switch input")
	fs.IntVar(&flags.Pins.Halt, "pin-halt", def.Pins.Halt, "BCM line for CPU HALT (open-drain, also read as halt status)")
	fs.IntVar(&flags.Pins.Reset, "pin-reset", def.Pins.Reset, "BCM line for CPU RESET (open-drain)")
	fs.IntVar(&flags.Pins.ExtReset, "pin-ext-reset", def.Pins.ExtReset, "BCM line for the dedicated reset output")
	fs.IntVar(&flags.Pins.LED, "pin-led", def.Pins.LED, "BCM line for the halt LED")
	fs.StringVar(&flags.Broker, "broker", def.Broker, "MQTT broker address (empty to disable)")
	fs.StringVar(&flags.ClientID, "client-id", def.ClientID, "MQTT client ID")
	fs.DurationVar(&flags.Heartbeat, "heartbeat", def.Heartbeat, "Heartbeat interval (0 to disable)")
	fs.StringVar(&flags.HTTPAddr, "http", def.HTTPAddr, "HTTP status address (empty to disable)")

	if err := fs.Parse(args); err != nil {
		return def, opts, err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return def, opts, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "chip":
			cfg.Chip = flags.Chip
		case "pin-switch":
			cfg.Pins.Switch = flags.Pins.Switch
		case "pin-halt":
			cfg.Pins.Halt = flags.Pins.Halt
		case "pin-reset":
			cfg.Pins.Reset = flags.Pins.Reset
		case "pin-ext-reset":
			cfg.Pins.ExtReset = flags.Pins.ExtReset
		case "pin-led":
			cfg.Pins.LED = flags.Pins.LED
		case "broker":
			cfg.Broker = flags.Broker
		case "client-id":
			cfg.ClientID = flags.ClientID
		case "heartbeat":
			cfg.Heartbeat = flags.Heartbeat
		case "http":
			cfg.HTTPAddr = flags.HTTPAddr
		}
	})

	if err := cfg.Validate(); err != nil {
		return cfg, opts, err
	}
	return cfg, opts, nil
}

func run(cfg config.Config) error {
	// Opening the board drives HALT and RESET low before anything else runs.
	board, err := gpio.Open(cfg.Chip, cfg.Pins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer func() {
		if err := board.Close(); err != nil {
			log.Printf("gpio close: %v", err)
		}
	}()

	var inner mqtt.Publisher = mqtt.Discard{}
	if cfg.Broker != "" {
		rp, err := mqtt.NewRealPublisher(cfg.Broker, cfg.ClientID)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		inner = rp
	} else {
		log.Printf("mqtt disabled")
	}
	publisher := mqtt.NewQueue(inner, queueSize)
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Chip:        cfg.Chip,
		Pins:        cfg.Pins,
		Broker:      cfg.Broker,
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		HTTPAddr:    cfg.HTTPAddr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	snap := tracker.Snapshot()
	if err := publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}); err != nil {
		log.Printf("failed to queue startup event: %v", err)
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTPAddr)
	}

	drv := driver.New(driver.Pins{
		Halt:     board.HaltBus(),
		Reset:    board.ResetBus(),
		ExtReset: board.ExtReset(),
		LED:      board.LED(),
	})

	log.Printf("started: chip=%s pins=%+v broker=%s heartbeat=%v", cfg.Chip, cfg.Pins, cfg.Broker, cfg.Heartbeat)

	ticker := tick.NewTicker(tick.Period)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(board, drv, publisher, publisher, tracker, cfg.Heartbeat, time.Now, ticker, sigCh)
}

// dropCounter is implemented by publishers that can refuse messages.
type dropCounter interface {
	Dropped() uint64
}

// errorStreak logs the first failure of a run and the recovery after it,
// so a broken pin does not write a log line per tick.
type errorStreak struct {
	what  string
	total uint64
	run   uint64
}

func (e *errorStreak) fail(err error) {
	e.total++
	e.run++
	if e.run == 1 {
		log.Printf("%s error: %v", e.what, err)
	}
}

func (e *errorStreak) ok() {
	if e.run > 0 {
		log.Printf("%s recovered after %d failed ticks", e.what, e.run)
		e.run = 0
	}
}

func runLoop(reader gpio.Reader, drv *driver.Driver, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, ticks tick.Source, sig <-chan os.Signal) error {
	sup := logic.NewSupervisor(now())
	reads := errorStreak{what: "gpio read"}
	writes := errorStreak{what: "gpio write"}

	refresh := func() {
		if tracker == nil {
			return
		}
		tracker.Update(sup)
		tracker.SetErrors(reads.total, writes.total)
		if dc, ok := publisher.(dropCounter); ok {
			tracker.SetDroppedEvents(dc.Dropped())
		}
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			name := signalName(s)
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    name,
				Retained:  true,
			}
			if tracker != nil {
				refresh()
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", name)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-ticks.C():
			t := now()
			levels, err := reader.Read()
			if err != nil {
				// No sample, no tick: the trackers only advance on real input.
				reads.fail(err)
				if tracker != nil {
					tracker.SetErrors(reads.total, writes.total)
				}
				continue
			}
			reads.ok()

			out, events := sup.Step(logic.Input{
				Switch: levels.Switch,
				Halt:   levels.Halt,
				Time:   t,
			})

			if err := drv.Apply(out); err != nil {
				writes.fail(err)
			} else {
				writes.ok()
			}

			for _, event := range events {
				log.Printf("event: %s (tick=%d reset=%t button=%t halted=%t)",
					event.Type, event.Tick, event.ResetAsserted, event.ButtonPressed, event.CPUHalted)
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
				}
			}

			if hbData := sup.CheckHeartbeat(t, heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v ticks=%d presses=%d resets=%d halts=%d",
					hbData.Uptime, hbData.Ticks, hbData.Counts.ButtonPresses, hbData.Counts.ResetAsserts, hbData.Counts.CPUHalts)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					refresh()
					hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			refresh()
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

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// Both inputs are active-low.
func switchString(level bool) string {
	if level {
		return "RELEASED"
	}
	return "PRESSED"
}

func haltString(level bool) string {
	if level {
		return "RUNNING"
	}
	return "HALTED"
}
