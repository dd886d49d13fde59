package main

import (
	"errors"

	"github.com/danmuck/usbboot/internal/bootloader"
	"github.com/danmuck/usbboot/internal/config"
	"github.com/danmuck/usbboot/internal/logging"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "usbboot.toml"

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "usbbootctl",
		Short: "Bootstrap embedded targets through vendor USB loaders",
		Long: `Push bootstrap images into boards sitting in USB boot mode.

Targets are described in an environment file listing each board's loader
resource (local or exported by a remote host) and the driver that talks to it:
mxs-usb-loader, imx-usb-loader or rk-usb-loader.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.ConfigureRuntime()
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "environment file")

	cmd.AddCommand(
		newTargetsCmd(opts),
		newLoadCmd(opts),
		newConfigCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

func (o *rootOptions) load() (*config.Environment, error) {
	return config.Load(o.configPath)
}

// exitCode maps error classes to process exit statuses.
func exitCode(err error) int {
	var lf *bootloader.LoadFailedError
	switch {
	case errors.As(err, &lf):
		return 3
	case errors.Is(err, bootloader.ErrStaging):
		return 4
	case errors.Is(err, bootloader.ErrConfiguration), errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, config.ErrUnknownTarget):
		return 2
	default:
		return 1
	}
}
