package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"telegrambot/pkg/config"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage telegrambot as a system service",
	Long: `Install and control telegrambot as a system service running
"telegrambot run" (systemd, launchd or the Windows Service Manager).

Installing, starting and stopping services requires administrator privileges.`,
}

func init() {
	actions := []struct {
		use, short string
		fn         func() error
	}{
		{"install", "Install the service", InstallService},
		{"uninstall", "Uninstall the service", UninstallService},
		{"start", "Start the service", func() error { return controlService("start") }},
		{"stop", "Stop the service", func() error { return controlService("stop") }},
		{"restart", "Restart the service", func() error { return controlService("restart") }},
		{"status", "Print the service status", StatusService},
	}
	for _, a := range actions {
		fn := a.fn
		serviceCmd.AddCommand(&cobra.Command{
			Use:   a.use,
			Short: a.short,
			RunE:  func(cmd *cobra.Command, args []string) error { return fn() },
		})
	}
	serviceCmd.AddCommand(&cobra.Command{
		Use:    "run",
		Short:  "Run under the service manager",
		Hidden: true,
		RunE:   func(cmd *cobra.Command, args []string) error { return RunService() },
	})
	rootCmd.AddCommand(serviceCmd)
}

// botService implements service.Interface around the polling app.
type botService struct {
	app    *fx.App
	logger service.Logger
}

func (s *botService) Start(svc service.Service) error {
	if s.logger != nil {
		s.logger.Info("Starting telegrambot service")
	}
	s.app = fx.New(coreModules(), fx.Invoke(registerPoller))
	if err := s.app.Err(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.app.Start(ctx)
}

func (s *botService) Stop(svc service.Service) error {
	if s.logger != nil {
		s.logger.Info("Stopping telegrambot service")
	}
	if s.app == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.app.Stop(ctx); err != nil {
		if s.logger != nil {
			s.logger.Errorf("Error stopping service: %v", err)
		}
		return err
	}
	return nil
}

// ServiceConfig returns the service definition. An explicit config path
// is passed on to the service command line.
func ServiceConfig() *service.Config {
	args := []string{"service", "run"}
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(config.ConfigPathEnv))
	}
	if path != "" {
		args = append([]string{"-c", path}, args...)
	}
	return &service.Config{
		Name:        "telegrambot",
		DisplayName: "Telegram Bot",
		Description: "Telegram bot command dispatcher",
		Arguments:   args,
	}
}

func newService() (service.Service, *botService, error) {
	prg := &botService{}
	s, err := service.New(prg, ServiceConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("creating service: %w", err)
	}
	return s, prg, nil
}

// InstallService installs the system service.
func InstallService() error {
	s, _, err := newService()
	if err != nil {
		return err
	}
	if err := s.Install(); err != nil {
		return fmt.Errorf("installing service: %w", err)
	}
	fmt.Println("Service installed. Use 'telegrambot service start' to start it.")
	return nil
}

// UninstallService removes the system service.
func UninstallService() error {
	s, _, err := newService()
	if err != nil {
		return err
	}
	if err := s.Uninstall(); err != nil {
		return fmt.Errorf("uninstalling service: %w", err)
	}
	fmt.Println("Service uninstalled.")
	return nil
}

func controlService(action string) error {
	s, _, err := newService()
	if err != nil {
		return err
	}
	if err := service.Control(s, action); err != nil {
		return fmt.Errorf("%s service: %w", action, err)
	}
	fmt.Printf("Service %s: ok\n", action)
	return nil
}

// StatusService prints the service status.
func StatusService() error {
	s, _, err := newService()
	if err != nil {
		return err
	}
	status, err := s.Status()
	if err != nil {
		return fmt.Errorf("getting service status: %w", err)
	}
	fmt.Printf("Service Status: %s\n", statusString(status))
	return nil
}

func statusString(status service.Status) string {
	switch status {
	case service.StatusRunning:
		return "Running"
	case service.StatusStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// RunService runs under the service manager until it asks us to stop.
func RunService() error {
	s, prg, err := newService()
	if err != nil {
		return err
	}
	logger, err := s.Logger(nil)
	if err != nil {
		return fmt.Errorf("creating service logger: %w", err)
	}
	prg.logger = logger

	if err := s.Run(); err != nil {
		logger.Error(err)
		return err
	}
	return nil
}
