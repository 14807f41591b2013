package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"fyne.io/fyne/v2/app"
	"github.com/jessevdk/go-flags"

	"github.com/calvinmclean/rangeguard/controller"
	"github.com/calvinmclean/rangeguard/ui"
)

type options struct {
	Config    string `short:"c" long:"config" description:"YAML config file" default:"rangeguard.yaml"`
	Port      string `short:"p" long:"port" description:"Serial port of the device"`
	BaudRate  string `short:"b" long:"baud" description:"Serial baud rate"`
	Simulate  bool   `short:"s" long:"simulate" description:"Use a simulated device instead of a serial port"`
	ListPorts bool   `short:"l" long:"list-ports" description:"List USB serial ports and exit"`
	UI        bool   `long:"ui" description:"Show the monitor window" env:"ENABLE_UI"`
	Verbose   bool   `short:"v" long:"verbose" description:"Log every status"`
}

func main() {
	var opts options
	_, err := flags.Parse(&opts)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if opts.ListPorts {
		err = listPorts(os.Stdout)
		if err != nil {
			logger.Error("error listing serial ports", "error", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		logger.Error("error loading config", "error", err)
		os.Exit(1)
	}

	if opts.UI {
		runUI(cfg, logger)
		return
	}

	err = runCLI(cfg, logger)
	if err != nil {
		logger.Error("error running controller", "error", err)
		os.Exit(1)
	}
}

func loadConfig(opts options) (controller.Config, error) {
	cfg, err := controller.LoadConfig(opts.Config)
	if err != nil {
		return controller.Config{}, err
	}

	if opts.Port != "" {
		cfg.SerialPort = opts.Port
	}
	if opts.BaudRate != "" {
		cfg.BaudRate = opts.BaudRate
	}
	if opts.Simulate {
		cfg.SerialPort = controller.SerialPortNone
	}

	return cfg, nil
}

func listPorts(out io.Writer) error {
	ports, err := controller.GetSerialPorts()
	if err != nil {
		return err
	}
	for _, port := range ports {
		fmt.Fprintln(out, port)
	}
	return nil
}

func runCLI(cfg controller.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	c, err := controller.New(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	c.AddSink(controller.NewLogSink(logger))

	logger.Info("connected", "serial_port", cfg.SerialPort)

	return c.Run(ctx, os.Stdin, os.Stdout)
}

func runUI(cfg controller.Config, logger *slog.Logger) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	application := app.NewWithID("com.calvinmclean.rangeguard")

	start := func() {
		c, err := controller.New(cfg, logger)
		if err != nil {
			logger.Error("error connecting", "error", err)
			window := application.NewWindow("Range Guard")
			window.Show()
			ui.ShowError(application, window, err)
			return
		}

		r, w := io.Pipe()

		// read from Stdin also
		go func() {
			io.Copy(w, os.Stdin)
		}()

		monitor := ui.NewMonitorUI(application, w)
		c.AddSink(controller.NewLogSink(logger))
		c.AddSink(monitor)

		go func() {
			defer c.Close()
			defer w.Close()

			err := c.Run(ctx, r, io.MultiWriter(os.Stdout, monitor))
			if err != nil {
				logger.Error("error running controller", "error", err)
			}
			cancel()
		}()

		monitor.Show(ctx)
	}

	if cfg.Validate() == nil {
		start()
	} else {
		cw := ui.NewConfigWindow(application)
		cw.OnSubmit = start
		cw.Show(&cfg)
	}

	application.Run()
	cancel()
}
