package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/sweeney/solar-tracker/internal/adc"
	"github.com/sweeney/solar-tracker/internal/clock"
	"github.com/sweeney/solar-tracker/internal/console"
	"github.com/sweeney/solar-tracker/internal/datalog"
	"github.com/sweeney/solar-tracker/internal/gpio"
	"github.com/sweeney/solar-tracker/internal/logic"
	"github.com/sweeney/solar-tracker/internal/metrics"
	"github.com/sweeney/solar-tracker/internal/mqtt"
	"github.com/sweeney/solar-tracker/internal/status"
)

// loop owns the hardware and the controller. Only runLoop's goroutine
// touches it.
type loop struct {
	ctrl       *logic.Controller
	sensors    adc.Reader
	east, west int
	board      gpio.Board
	clock      clock.Source
	store      datalog.Store // nil when the event log failed to open
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	metrics    *metrics.Collector
	console    io.Writer // nil when no console is attached
	sleep      func(time.Duration)

	heartbeat     time.Duration
	lastHeartbeat time.Duration

	reading     logic.Reading
	hazard      bool
	lit         bool
	lastCommand logic.Command
}

func runLoop(l *loop, tick <-chan time.Time, sig <-chan os.Signal, requests <-chan console.Command) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			l.shutdown(signalName(s))
			return nil

		case cmd := <-requests:
			l.handle(cmd)

		case <-tick:
			l.cycle()
			l.checkHeartbeat()
		}
	}
}

// start applies the boot decision.
func (l *loop) start(initErr error) {
	l.lastHeartbeat = l.clock.Elapsed()
	d := l.ctrl.Start(l.clock.Now(), initErr)
	l.apply(d)
}

// cycle is one pass: sample inputs, step the controller, act.
func (l *loop) cycle() {
	caps := l.ctrl.Capabilities()

	l.hazard = false
	if caps.Hazard {
		h, err := l.board.Hazard()
		if err != nil {
			// An unreadable switch is treated as tripped.
			log.Printf("gpio: hazard read error: %v", err)
			h = true
		}
		l.hazard = h
	}

	r, err := adc.ReadPair(l.sensors, l.east, l.west)
	if err != nil {
		log.Printf("adc: %v", err)
	}
	l.reading = r

	d := l.ctrl.Step(logic.Input{
		Reading: r,
		Hazard:  l.hazard,
		Clock:   l.clock.Now(),
		Elapsed: l.clock.Elapsed(),
	})
	l.apply(d)
}

func (l *loop) apply(d logic.Decision) {
	if d.Transitioned() {
		log.Printf("state: %s -> %s", d.From, d.To)
	}

	l.actuate(d.Actuator)
	l.light(d.Lighting)

	for _, e := range d.Events {
		log.Printf("event: %s (state=%s east=%d west=%d diff=%d)", e.Tag, e.State, e.East, e.West, e.Difference)
		if l.store != nil {
			if err := l.store.Record(e); err != nil {
				log.Printf("datalog: record error: %v", err)
				l.metrics.SinkError("datalog")
			}
		}
		if err := l.publisher.Publish(e); err != nil {
			log.Printf("publish error: %v", err)
			l.metrics.SinkError("mqtt")
		}
	}
	l.tracker.RecordEvents(d.Events)
	l.metrics.ObserveEvents(d.Events)

	l.tracker.Update(status.Cycle{
		State:    d.To,
		Phase:    d.Phase,
		Reading:  l.reading,
		Hazard:   l.hazard,
		Lighting: l.lit,
		Command:  l.lastCommand,
	})
	l.metrics.ObserveCycle(d.To, l.reading, l.hazard, l.lit)
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

// actuate executes a directive. A pulse blocks the loop for its duration
// and always ends with a stop.
func (l *loop) actuate(dir logic.Directive) {
	if dir.Command == logic.CommandNone {
		return
	}
	l.move(dir.Command)
	if dir.Pulse > 0 {
		l.sleep(dir.Pulse)
		l.move(logic.CommandStop)
	}
}

func (l *loop) move(cmd logic.Command) {
	if err := l.board.Move(cmd); err != nil {
		log.Printf("gpio: move %s: %v", cmd, err)
		l.metrics.SinkError("gpio")
		return
	}
	l.metrics.ObserveCommand(cmd)
	if cmd != l.lastCommand {
		log.Printf("actuator: %s", cmd)
	}
	l.lastCommand = cmd
}

func (l *loop) light(change logic.Lighting) {
	if change == logic.LightingUnchanged || !l.ctrl.Capabilities().Lighting {
		return
	}
	on := change == logic.LightingOn
	if err := l.board.SetLighting(on); err != nil {
		log.Printf("gpio: lighting %s: %v", change, err)
		l.metrics.SinkError("gpio")
		return
	}
	if on != l.lit {
		log.Printf("lighting: %s", change)
	}
	l.lit = on
}

func (l *loop) handle(cmd console.Command) {
	if l.console == nil {
		return
	}
	switch cmd {
	case console.CommandDump:
		if l.store == nil {
			fmt.Fprintln(l.console, "datalog unavailable")
			return
		}
		if err := console.WriteDump(l.console, l.store); err != nil {
			log.Printf("console: dump error: %v", err)
		}
	case console.CommandStatus:
		fmt.Fprintln(l.console, status.FormatLine(l.tracker.Snapshot()))
	}
}

func (l *loop) checkHeartbeat() {
	if l.heartbeat <= 0 {
		return
	}
	elapsed := l.clock.Elapsed()
	if elapsed-l.lastHeartbeat < l.heartbeat {
		return
	}
	l.lastHeartbeat = elapsed

	// Refresh network info for heartbeat
	if net := readNetworkInfo(); net != nil {
		l.tracker.SetNetwork(net)
	}
	snap := l.tracker.Snapshot()
	log.Printf("heartbeat: uptime=%v state=%s", snap.Uptime(), snap.State)
	l.publishSystem(mqtt.SystemHeartbeat, "", false)
}

// shutdown parks the hardware and announces the exit.
func (l *loop) shutdown(reason string) {
	l.move(logic.CommandStop)
	if l.ctrl.Capabilities().Lighting {
		l.light(logic.LightingOff)
	}
	l.tracker.Update(status.Cycle{
		State:    l.ctrl.State(),
		Phase:    l.ctrl.Phase(),
		Reading:  l.reading,
		Hazard:   l.hazard,
		Lighting: l.lit,
		Command:  l.lastCommand,
	})
	l.publishSystem(mqtt.SystemShutdown, reason, true)
}

func (l *loop) publishSystem(name, reason string, retained bool) {
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
	snap := l.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  l.clock.Now(),
		Event:      name,
		Reason:     reason,
		Retained:   retained,
		RawPayload: status.FormatStatusEvent(snap, name, reason),
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish %s event: %v", name, err)
		l.metrics.SinkError("mqtt")
		return
	}
	log.Printf("published %s event", name)
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
