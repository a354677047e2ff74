package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	yml "gopkg.in/yaml.v2"

	"github.com/nasa-jpl/golab-qhyccd/qhyccd"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1"

	// ConfigFileName is what it sounds like
	ConfigFileName = "qhyccd.yml"

	// EnvPrefix marks environment variables that override the config file
	EnvPrefix = "QHY_"
)

type recorder struct {
	// Root is the root folder to write to
	Root string `koanf:"root" yaml:"root"`

	// Prefix is the filename prefix to use
	Prefix string `koanf:"prefix" yaml:"prefix"`
}

type config struct {
	Mock     bool   `koanf:"mock" yaml:"mock"`
	LogLevel string `koanf:"loglevel" yaml:"loglevel"`

	// Index is which camera of the scan to open
	Index    int    `koanf:"index" yaml:"index"`
	ReadMode uint32 `koanf:"readmode" yaml:"readmode"`

	// Exposure is a Go duration string, e.g. 2ms
	Exposure   string  `koanf:"exposure" yaml:"exposure"`
	Gain       float64 `koanf:"gain" yaml:"gain"`
	Offset     float64 `koanf:"offset" yaml:"offset"`
	USBTraffic float64 `koanf:"usbtraffic" yaml:"usbtraffic"`
	Bits       uint32  `koanf:"bits" yaml:"bits"`
	Bin        uint32  `koanf:"bin" yaml:"bin"`

	// Frames and FPS apply to live capture
	Frames int     `koanf:"frames" yaml:"frames"`
	FPS    float64 `koanf:"fps" yaml:"fps"`

	Recorder recorder `koanf:"recorder" yaml:"recorder"`

	// Settings are extra controls by vendor name, applied when supported
	Settings map[string]interface{} `koanf:"settings" yaml:"settings"`
}

func defaults() config {
	return config{
		LogLevel:   "info",
		Exposure:   "2ms",
		Gain:       10,
		Offset:     140,
		USBTraffic: 255,
		Bits:       16,
		Bin:        1,
		Frames:     10,
		FPS:        5,
		Recorder:   recorder{Root: ".", Prefix: "qhy"},
		Settings:   map[string]interface{}{},
	}
}

func envKey(s string) string {
	return strings.ToLower(strings.Replace(strings.TrimPrefix(s, EnvPrefix), "_", ".", -1))
}

// loadConfig layers the defaults, the config file at path and the
// environment, then any overrides, in that order
func loadConfig(path string, overrides map[string]interface{}) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, err
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !strings.Contains(err.Error(), "no such") { // file missing, who cares
			return nil, errors.Wrap(err, "error loading config")
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, err
		}
	}
	return k, nil
}

func unmarshal(k *koanf.Koanf) (config, error) {
	c := config{}
	err := k.Unmarshal("", &c)
	return c, err
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// newRootCmd builds the command tree.  Each subcommand loads the config
// fresh so flags and the environment are honored.
func newRootCmd() *cobra.Command {
	var (
		cfgPath string
		mock    bool
	)
	root := &cobra.Command{
		Use:   "qhyccd",
		Short: "qhyccd captures frames from QHYCCD cameras",
		Long: `qhyccd drives a QHYCCD camera through the vendor SDK and records
frames as FITS files.

It is amenable to configuration via its .yml file and QHY_ environment
variables, e.g. QHY_GAIN=20 or QHY_RECORDER_ROOT=/data.  When no
configuration is provided, the defaults are used.  The command mkconf
generates the configuration file with the default values.

Controls listed under settings are applied by vendor name (CONTROL_DDR, ...)
only when the camera reports them as supported.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", ConfigFileName, "path to the config file")
	root.PersistentFlags().BoolVar(&mock, "mock", false, "use the simulated camera instead of libqhyccd")

	load := func(cmd *cobra.Command) (config, *slog.Logger, error) {
		over := map[string]interface{}{}
		if cmd.Flags().Changed("mock") {
			over["mock"] = mock
		}
		k, err := loadConfig(cfgPath, over)
		if err != nil {
			return config{}, nil, err
		}
		c, err := unmarshal(k)
		if err != nil {
			return config{}, nil, err
		}
		log, err := newLogger(c.LogLevel)
		return c, log, err
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "single",
			Short: "expose and record one frame",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, log, err := load(cmd)
				if err != nil {
					return err
				}
				fn, err := runSingle(c, log, os.Stdout)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), fn)
				return nil
			},
		},
		&cobra.Command{
			Use:   "live",
			Short: "stream and record frames in live mode",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, log, err := load(cmd)
				if err != nil {
					return err
				}
				files, err := runLive(cmd.Context(), c, log)
				for _, fn := range files {
					fmt.Fprintln(cmd.OutOrStdout(), fn)
				}
				return err
			},
		},
		&cobra.Command{
			Use:   "probe",
			Short: "list QHYCCD devices on the USB bus",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return probe(cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "mkconf",
			Short: "write the config file with current values",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, _, err := load(cmd)
				if err != nil {
					return err
				}
				f, err := os.Create(cfgPath)
				if err != nil {
					return err
				}
				defer f.Close()
				return yml.NewEncoder(f).Encode(c)
			},
		},
		&cobra.Command{
			Use:   "conf",
			Short: "print the config in effect",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, _, err := load(cmd)
				if err != nil {
					return err
				}
				return yml.NewEncoder(cmd.OutOrStdout()).Encode(c)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "print version information",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, log, err := load(cmd)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "qhyccd version %v, wrapper version %d\n", Version, qhyccd.WRAPVER)
				native, err := newNative(c)
				if err != nil {
					return err
				}
				v, err := qhyccd.New(native, qhyccd.WithLogger(log)).Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "QHYCCD SDK version %s\n", v)
				return nil
			},
		},
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
