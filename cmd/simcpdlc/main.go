package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"simcpdlc/internal/app"
	"simcpdlc/internal/bus"
	"simcpdlc/internal/ui"
)

var version = "0.3.0"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("simcpdlc", version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Initialize(ctx, version)
	if err != nil {
		fmt.Fprintln(os.Stderr, "initialize runtime:", err)
		os.Exit(1)
	}

	var closeOnce sync.Once
	closeRuntime := func() {
		closeOnce.Do(func() {
			stop()
			_ = rt.Close()
		})
	}
	defer closeRuntime()

	events := subscribeUIEvents(rt)

	model := ui.New(ui.Deps{
		Logger:     rt.Logger.With().Str("component", "ui").Logger(),
		Store:      rt.Store,
		Session:    rt.Session,
		Bus:        rt.Bus,
		Events:     events,
		Connect:    rt.Connect,
		Disconnect: rt.Disconnect,
		Connected:  rt.Connector.Connected,
		FlightPlan: rt.FlightPlan,
		Version:    version,
	})

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		rt.Logger.Error().Err(err).Msg("ui exited with error")
		closeRuntime()
		os.Exit(1)
	}
}

// subscribeUIEvents merges the inbound and notice topics into one channel for
// the UI.
func subscribeUIEvents(rt *app.Runtime) bus.Subscription {
	inbound := rt.Bus.Subscribe(bus.TopicInbound)
	notices := rt.Bus.Subscribe(bus.TopicNotice)
	merged := make(bus.Subscription, 64)

	forward := func(msg any) bool {
		select {
		case merged <- msg:
			return true
		case <-rt.Ctx.Done():
			return false
		}
	}

	go func() {
		defer close(merged)
		for {
			select {
			case <-rt.Ctx.Done():
				return
			case msg, ok := <-inbound:
				if !ok || !forward(msg) {
					return
				}
			case msg, ok := <-notices:
				if !ok || !forward(msg) {
					return
				}
			}
		}
	}()

	return merged
}
