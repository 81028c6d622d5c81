package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"colorizer/core"
	"colorizer/shutdown"

	"github.com/kardianos/service"
	"go.uber.org/zap"
)

// serviceActions are forwarded to service.Control.
var serviceActions = []string{"install", "uninstall", "start", "stop", "restart"}

func validServiceAction(action string) bool {
	if action == "run" || action == "status" {
		return true
	}
	for _, known := range serviceActions {
		if action == known {
			return true
		}
	}
	return false
}

// program adapts the web server to the OS service lifecycle.
type program struct {
	a    *app
	mgr  *shutdown.Manager
	exit chan struct{}
	code int
}

// Start is called by the service manager and must not block.
func (p *program) Start(s service.Service) error {
	p.mgr = shutdown.NewManager(p.a.log.Zap().Named("shutdown"))
	p.exit = make(chan struct{})
	go func() {
		defer close(p.exit)
		p.code = p.a.serve(p.mgr)
	}()
	return nil
}

// Stop asks the server to drain and waits for it to finish.
func (p *program) Stop(s service.Service) error {
	p.mgr.Trigger()
	select {
	case <-p.exit:
		return nil
	case <-time.After(shutdown.DefaultTimeout + 5*time.Second):
		return fmt.Errorf("timeout waiting for service to stop")
	}
}

// serviceConfig describes the installed service. The working directory is
// recorded so the service finds the same .env and relative paths.
func serviceConfig(workDir string) *service.Config {
	return &service.Config{
		Name:             "colorizer",
		DisplayName:      "Colorizer",
		Description:      "Colorizes grayscale photographs through a local web interface",
		Arguments:        []string{"service", "run"},
		WorkingDirectory: workDir,
		Option: service.KeyValue{
			"StartType": "automatic",
			"Restart":   "on-failure",
		},
	}
}

func runService(a *app, args []string) int {
	if len(args) != 1 {
		return a.fail(usagef("usage: colorizer service <install|uninstall|start|stop|restart|status|run>"))
	}
	action := args[0]
	if !validServiceAction(action) {
		return a.fail(usagef("unknown service action %q", action))
	}

	wd, err := os.Getwd()
	if err != nil {
		return a.fail(err)
	}
	prg := &program{a: a}
	s, err := service.New(prg, serviceConfig(wd))
	if err != nil {
		return a.fail(fmt.Errorf("create service: %w", err))
	}

	switch action {
	case "run":
		if err := s.Run(); err != nil {
			a.log.Error("service run failed", zap.Error(err))
			return a.fail(err)
		}
		if prg.exit == nil {
			return core.ExitCodeSuccess
		}
		return prg.code
	case "status":
		return printServiceStatus(a, s)
	}

	if err := service.Control(s, action); err != nil {
		return a.fail(fmt.Errorf("service %s: %w", action, err))
	}
	a.log.Info("service control", zap.String("action", action))
	fmt.Fprintf(a.stdout, "Service %s: ok\n", action)
	return core.ExitCodeSuccess
}

func printServiceStatus(a *app, s service.Service) int {
	status, err := s.Status()
	switch {
	case errors.Is(err, service.ErrNotInstalled):
		fmt.Fprintln(a.stdout, "Service is not installed")
		return core.ExitCodeError
	case err != nil:
		return a.fail(fmt.Errorf("service status: %w", err))
	}
	switch status {
	case service.StatusRunning:
		fmt.Fprintln(a.stdout, "Service is running")
	case service.StatusStopped:
		fmt.Fprintln(a.stdout, "Service is stopped")
	default:
		fmt.Fprintln(a.stdout, "Service status unknown")
	}
	return core.ExitCodeSuccess
}
