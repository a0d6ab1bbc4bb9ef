package devwatch

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"facevault/internal/logging"
)

// Kind classifies a capture device.
type Kind string

const (
	KindCamera     Kind = "camera"
	KindMicrophone Kind = "microphone"
)

// Event is a single hotplug notification.
type Event struct {
	Kind   Kind
	Action string
	Device string
}

// Monitor listens for udev netlink events on the video4linux and sound
// subsystems and forwards them to a handler.
type Monitor struct {
	logger  *slog.Logger
	handler func(Event)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewMonitor creates a hotplug monitor delivering events to handler.
func NewMonitor(logger *slog.Logger, handler func(Event)) *Monitor {
	return &Monitor{
		logger:  logging.NewComponentLogger(logger, "devwatch"),
		handler: handler,
	}
}

// Start begins listening for hotplug events. A netlink connection failure is
// not fatal; the caller falls back to one-shot probing.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; hotplug updates unavailable",
			logging.Error(err))
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("device monitor started")
	return nil
}

// Stop shuts down the monitor.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("device monitor stopped")
}

// Running reports whether the monitor is listening.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Warn("device monitor error", logging.Error(err))
		}
	}
}

// buildMatcher accepts add and remove events for the two capture subsystems.
func buildMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	for _, subsystem := range []string{"video4linux", "sound"} {
		subsystem := subsystem
		rules.AddRule(netlink.RuleDefinition{
			Action: &action,
			Env: map[string]string{
				"SUBSYSTEM": subsystem,
			},
		})
	}
	return rules
}

func (m *Monitor) handleEvent(uevent netlink.UEvent) {
	kind, ok := classifySubsystem(uevent.Env["SUBSYSTEM"])
	if !ok {
		return
	}
	device := deviceName(uevent.Env)
	if device == "" {
		return
	}

	event := Event{Kind: kind, Action: string(uevent.Action), Device: device}
	m.logger.Info("capture device event",
		logging.String(logging.FieldDevice, event.Device),
		logging.String("kind", string(event.Kind)),
		logging.String("action", event.Action))
	if m.handler != nil {
		m.handler(event)
	}
}

// classifySubsystem maps a udev subsystem to a capture device kind.
func classifySubsystem(subsystem string) (Kind, bool) {
	switch subsystem {
	case "video4linux":
		return KindCamera, true
	case "sound":
		return KindMicrophone, true
	default:
		return "", false
	}
}

// deviceName resolves the device node from the uevent environment.
func deviceName(env map[string]string) string {
	if devname := env["DEVNAME"]; devname != "" {
		if strings.HasPrefix(devname, "/") {
			return devname
		}
		return "/dev/" + devname
	}
	devpath := env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	last := parts[len(parts)-1]
	if last == "" {
		return ""
	}
	return "/dev/" + last
}
