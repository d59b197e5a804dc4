//go:build windows

// Windows service support via github.com/kardianos/service. The binary can
// install itself as a background service and restart with the machine.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kardianos/service"
)

// Program implements service.Interface, bridging the Windows service
// lifecycle to run().
type Program struct {
	ctx    context.Context
	cancel context.CancelFunc
	exit   chan struct{}
}

// Start launches the service body. Required to return promptly.
func (p *Program) Start(s service.Service) error {
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.exit = make(chan struct{})
	go p.run()
	return nil
}

// Stop signals shutdown and waits for the service body to drain.
func (p *Program) Stop(s service.Service) error {
	p.cancel()
	select {
	case <-p.exit:
	case <-time.After(90 * time.Second):
		return fmt.Errorf("timeout waiting for service to stop")
	}
	return nil
}

func (p *Program) run() {
	defer close(p.exit)
	if err := run(p.ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

// ServiceConfig describes the installed Windows service.
func ServiceConfig() *service.Config {
	return &service.Config{
		Name:        "AMFbotSuite",
		DisplayName: "AMFbot Media Generation Suite",
		Description: "HTTP API for local text-to-image and text-to-video generation",
		Option: service.KeyValue{
			"StartType": "automatic",
		},
	}
}

func newService() (service.Service, error) {
	s, err := service.New(&Program{}, ServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("creating service: %w", err)
	}
	return s, nil
}

// RunAsService runs the application under the service manager. Returns
// false when launched interactively, in which case main runs normally.
func RunAsService() (bool, error) {
	s, err := newService()
	if err != nil {
		return false, err
	}

	if service.Interactive() {
		return false, nil
	}

	if err := s.Run(); err != nil {
		return true, fmt.Errorf("service run: %w", err)
	}
	return true, nil
}

// HandleServiceCommand dispatches service management subcommands
// (install, uninstall, start, stop, restart, status). Returns true when a
// command was handled.
func HandleServiceCommand(args []string) bool {
	if len(args) < 1 {
		return false
	}

	s, err := newService()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch args[0] {
	case "install":
		err = s.Install()
	case "uninstall", "remove":
		err = s.Uninstall()
	case "start":
		err = s.Start()
	case "stop":
		err = s.Stop()
	case "restart":
		err = s.Restart()
	case "status":
		status, statusErr := s.Status()
		if statusErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", statusErr)
			os.Exit(1)
		}
		switch status {
		case service.StatusRunning:
			fmt.Println("Service is running")
		case service.StatusStopped:
			fmt.Println("Service is stopped")
		default:
			fmt.Println("Service status unknown")
		}
		return true
	case "help", "-h", "--help":
		printServiceUsage()
		return true
	default:
		return false
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Service %s completed\n", args[0])
	return true
}

func printServiceUsage() {
	fmt.Println("AMFbot Suite Service Management")
	fmt.Println()
	fmt.Println("Usage: amfbot-suite.exe <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  install    Install as a Windows service")
	fmt.Println("  uninstall  Remove the Windows service (alias: remove)")
	fmt.Println("  start      Start the Windows service")
	fmt.Println("  stop       Stop the Windows service")
	fmt.Println("  restart    Restart the Windows service")
	fmt.Println("  status     Show the current service status")
	fmt.Println()
	fmt.Println("Run without arguments to start in foreground mode.")
}
