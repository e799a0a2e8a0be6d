// Command solar-tracker aims a solar collector at the sun from two light
// sensors, retracts it for the night and logs every decision.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"

	"github.com/sweeney/solar-tracker/internal/adc"
	"github.com/sweeney/solar-tracker/internal/clock"
	"github.com/sweeney/solar-tracker/internal/config"
	"github.com/sweeney/solar-tracker/internal/console"
	"github.com/sweeney/solar-tracker/internal/datalog"
	"github.com/sweeney/solar-tracker/internal/gpio"
	"github.com/sweeney/solar-tracker/internal/logic"
	"github.com/sweeney/solar-tracker/internal/metrics"
	"github.com/sweeney/solar-tracker/internal/mqtt"
	"github.com/sweeney/solar-tracker/internal/status"
	"github.com/sweeney/solar-tracker/internal/web"
)

type options struct {
	configPath  string
	poll        time.Duration
	heartbeat   time.Duration
	broker      string
	httpAddr    string
	store       string
	datalogPath string
	consolePath string
	serial      console.PortOptions
	gpioChip    string
	pins        gpio.Pins
	spiBus      int
	spiChip     int
	adcEast     int
	adcWest     int
	printState  bool
	printConfig bool
}

func main() {
	var o options
	pins := gpio.DefaultPins()

	flag.StringVar(&o.configPath, "config", "", "YAML file overriding tracker thresholds")
	flag.DurationVar(&o.poll, "poll", time.Second, "Control loop cycle period")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&o.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address (empty to disable)")
	flag.StringVar(&o.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.StringVar(&o.store, "store", "csv", `Event log backend: "csv" or "sqlite"`)
	flag.StringVar(&o.datalogPath, "datalog", "datalog.csv", "Event log path")
	flag.StringVar(&o.consolePath, "console", "-", `Console serial device ("-" for stdin, empty to disable)`)
	flag.IntVar(&o.serial.BaudRate, "baud", 9600, "Console serial baud rate")
	flag.StringVar(&o.gpioChip, "gpio-chip", "gpiochip0", "GPIO character device")
	flag.IntVar(&pins.Extend, "pin-extend", gpio.PinExtend, "BCM pin for the extend (west) relay")
	flag.IntVar(&pins.Retract, "pin-retract", gpio.PinRetract, "BCM pin for the retract (east) relay")
	flag.IntVar(&pins.Lighting, "pin-lighting", gpio.PinLighting, "BCM pin for the lighting output (-1 if not fitted)")
	flag.IntVar(&pins.Hazard, "pin-hazard", gpio.PinHazard, "BCM pin for the hazard switch (-1 if not fitted)")
	flag.BoolVar(&pins.HazardActiveLow, "hazard-active-low", true, "Hazard switch pulls the line low when active")
	flag.IntVar(&o.spiBus, "spi-bus", 0, "SPI bus of the MCP3008")
	flag.IntVar(&o.spiChip, "spi-chip", 0, "SPI chip select of the MCP3008")
	flag.IntVar(&o.adcEast, "adc-east", adc.ChannelEast, "MCP3008 channel of the east sensor")
	flag.IntVar(&o.adcWest, "adc-west", adc.ChannelWest, "MCP3008 channel of the west sensor")
	flag.BoolVar(&o.printState, "print-state", false, "Print current sensor readings and exit")
	flag.BoolVar(&o.printConfig, "print-config", false, "Print the effective thresholds and exit")

	flag.Parse()
	o.pins = pins

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(o options) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.printConfig {
		return config.Encode(os.Stdout, cfg)
	}

	board, err := gpio.NewRealBoard(o.gpioChip, o.pins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer board.Close()

	sensors, err := adc.NewMCP3008(o.spiBus, o.spiChip)
	if err != nil {
		return fmt.Errorf("init adc: %w", err)
	}
	defer sensors.Close()

	if o.printState {
		return printState(os.Stdout, sensors, board, o.adcEast, o.adcWest)
	}

	clk := clock.NewSystem(nil)
	session := uuid.NewString()

	// Clock and event log failures do not stop the daemon: the controller
	// enters ERROR, holds the actuator stopped and reports over MQTT/HTTP.
	var initErrs []error
	if err := clock.Check(clk); err != nil {
		initErrs = append(initErrs, &logic.DependencyError{Dependency: "clock", Err: err})
	}
	store, err := openStore(o.store, o.datalogPath, session)
	if err != nil {
		initErrs = append(initErrs, &logic.DependencyError{Dependency: "datalog", Err: err})
	} else {
		defer store.Close()
	}
	initErr := errors.Join(initErrs...)
	if initErr != nil {
		log.Printf("startup: %v", initErr)
	}

	var publisher interface {
		mqtt.Publisher
		mqtt.ConnectionStatus
	} = discardPublisher{}
	if o.broker != "" {
		publisher = mqtt.NewRealPublisher(mqtt.Options{Broker: o.broker, Now: clk.Now})
	}
	defer publisher.Close()

	caps := board.Capabilities()
	tracker := status.NewTracker(clk.Now(), session, status.Config{
		TrackingIntervalMs: cfg.TrackingInterval.Milliseconds(),
		HeartbeatMs:        o.heartbeat.Milliseconds(),
		BalanceThreshold:   cfg.BalanceThreshold,
		Broker:             o.broker,
		HTTPPort:           o.httpAddr,
		Datalog:            o.store + ":" + o.datalogPath,
		Capabilities:       caps,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	collector := metrics.New()

	l := &loop{
		ctrl:       logic.NewController(cfg, caps),
		sensors:    sensors,
		east:       o.adcEast,
		west:       o.adcWest,
		board:      board,
		clock:      clk,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		metrics:    collector,
		heartbeat:  o.heartbeat,
		sleep:      time.Sleep,
	}
	if store != nil {
		l.store = store
	}

	// Start HTTP status server
	if o.httpAddr != "" {
		var dumper web.Dumper
		if store != nil {
			dumper = store
		}
		srv := web.New(o.httpAddr, tracker, dumper, collector.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var requests chan console.Command
	if o.consolePath != "" {
		con, closeConsole, err := openConsole(o.consolePath, o.serial)
		if err != nil {
			log.Printf("console: %v", err)
		} else {
			defer closeConsole()
			l.console = con
			requests = make(chan console.Command)
			go func() {
				if err := con.Run(ctx, requests); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("console: %v", err)
				}
			}()
		}
	}

	l.start(initErr)
	l.publishSystem(mqtt.SystemStartup, "", true)

	log.Printf("started: session=%s poll=%v broker=%s store=%s heartbeat=%v hazard=%t lighting=%t",
		session, o.poll, o.broker, o.store, o.heartbeat, caps.Hazard, caps.Lighting)

	ticker := time.NewTicker(o.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(l, ticker.C, sigCh, requests)
}

func openStore(kind, path, session string) (datalog.Store, error) {
	switch kind {
	case "csv":
		s, err := datalog.OpenCSV(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := datalog.OpenSQLite(path, session)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store %q", kind)
}

func openConsole(path string, opts console.PortOptions) (*console.Console, func() error, error) {
	if path == "-" {
		return console.New(os.Stdin, os.Stdout), func() error { return nil }, nil
	}
	port, err := console.OpenSerial(path, opts)
	if err != nil {
		return nil, nil, err
	}
	return console.New(port, port), port.Close, nil
}

func printState(w io.Writer, sensors adc.Reader, board gpio.Board, east, west int) error {
	r, err := adc.ReadPair(sensors, east, west)
	if err != nil {
		return fmt.Errorf("read adc: %w", err)
	}
	fmt.Fprintf(w, "east: %d, west: %d, diff: %d\n", r.East, r.West, r.Difference())

	if board.Capabilities().Hazard {
		h, err := board.Hazard()
		if err != nil {
			return fmt.Errorf("read hazard: %w", err)
		}
		fmt.Fprintf(w, "hazard: %t\n", h)
	}
	return nil
}

// discardPublisher stands in for MQTT when no broker is configured.
type discardPublisher struct{}

func (discardPublisher) Publish(logic.Event) error            { return nil }
func (discardPublisher) PublishSystem(mqtt.SystemEvent) error { return nil }
func (discardPublisher) Close() error                         { return nil }
func (discardPublisher) IsConnected() bool                    { return false }

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
