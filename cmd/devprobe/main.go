// devprobe exercises the local device session from a terminal: list
// devices, watch the microphone level, or run the loopback self-test.
//
// Run without -cmd for an interactive menu.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Vibe/internal/adapters/hotplug"
	"github.com/dkeye/Vibe/internal/adapters/platform"
	"github.com/dkeye/Vibe/internal/app/session"
	"github.com/dkeye/Vibe/internal/domain"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := flag.String("cmd", "", "Command: list, meter or loopback")
	prefsPath := flag.String("prefs", "", "Preference database directory (empty keeps choices in memory)")
	duration := flag.Duration("duration", 10*time.Second, "How long to show the meter")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *cmd == "" {
		choice, _ := pterm.DefaultInteractiveSelect.
			WithOptions([]string{"list     — Enumerate devices", "meter    — Live microphone level", "loopback — 5 s loopback test"}).
			WithDefaultText("What do you want to probe").
			Show()
		*cmd = strings.TrimSpace(strings.SplitN(choice, " ", 2)[0])
		pterm.Println()
	}

	stack := platform.OpenStack(platform.Options{
		PrefsPath:    *prefsPath,
		HotplugPaths: hotplug.DefaultPaths,
	})
	defer stack.Close()
	go stack.Run(ctx)

	m := session.New(session.Deps{
		Provider: stack.Provider,
		Prefs:    stack.Preferences(),
		Watcher:  stack.Watcher(),
		Loopback: stack.Provider,
	}, session.DefaultConfig())
	defer m.Close()

	switch *cmd {
	case "list":
		list(ctx, m)
	case "meter":
		start(ctx, m)
		meter(ctx, m, *duration)
	case "loopback":
		start(ctx, m)
		loopback(ctx, m)
	default:
		pterm.Error.Println("invalid -cmd: must be list, meter or loopback")
		os.Exit(1)
	}
}

func start(ctx context.Context, m *session.Manager) {
	if _, err := m.Initialize(ctx); err != nil {
		pterm.Error.Println(fmt.Sprintf("initialize: %v", err))
		os.Exit(1)
	}
	m.Subscribe(func(ev domain.Event) {
		if ev.Type == domain.EventNotification {
			pterm.Warning.Println(ev.Notification.Message)
		}
	})
	st := m.State()
	for _, k := range domain.AllKinds {
		ks := st.Kinds[k]
		printer := pterm.Success
		if !ks.Available {
			printer = pterm.Warning
		}
		printer.Println(fmt.Sprintf("%-10s %s (enabled=%t)", k.DisplayName(), ks.DeviceID, ks.Enabled))
	}
	pterm.Println()
}

func list(ctx context.Context, m *session.Manager) {
	snap := m.Devices(ctx)
	data := pterm.TableData{{"Kind", "Device ID", "Label"}}
	for _, k := range domain.AllKinds {
		for _, d := range snap.ByKind(k) {
			data = append(data, []string{k.DisplayName(), d.DeviceID, d.DisplayLabel()})
		}
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		pterm.Error.Println(err.Error())
	}
}

func bar(level float64) string {
	n := int(level / 2)
	return fmt.Sprintf("%5.1f %s", level, strings.Repeat("█", n))
}

func meter(ctx context.Context, m *session.Manager, d time.Duration) {
	area, err := pterm.DefaultArea.Start()
	if err != nil {
		pterm.Error.Println(err.Error())
		return
	}
	defer area.Stop()

	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	levels := make(chan float64, 1)
	unsub := m.Subscribe(func(ev domain.Event) {
		if ev.Type != domain.EventLevel {
			return
		}
		select {
		case levels <- ev.Level:
		default:
		}
	})
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return
		case l := <-levels:
			area.Update(bar(l))
		}
	}
}

func loopback(ctx context.Context, m *session.Manager) {
	done := make(chan struct{}, 1)
	unsub := m.Subscribe(func(ev domain.Event) {
		if ev.Type == domain.EventState && !m.State().Loopback.Active {
			select {
			case done <- struct{}{}:
			default:
			}
		}
	})
	defer unsub()

	if err := m.RunLoopbackTest(ctx); err != nil {
		pterm.Error.Println(fmt.Sprintf("loopback: %v", err))
		return
	}
	spinner, _ := pterm.DefaultSpinner.Start("Speak now, you should hear yourself")
	select {
	case <-ctx.Done():
		m.StopLoopback()
		spinner.Warning("Interrupted")
	case <-done:
		spinner.Success("Loopback test finished")
	}
}
