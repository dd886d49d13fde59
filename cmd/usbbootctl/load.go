package main

import (
	"fmt"

	"github.com/danmuck/usbboot/internal/target"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newLoadCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <target> [image-file]",
		Short: "Load a bootstrap image into a target",
		Long: `Stage the image where the target's loader tool runs and invoke the tool.

Without an image file the target driver's configured default image is used.
Rockchip targets first download the configured secondary loader, retrying
while the device enumerates, then write the main image.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := root.load()
			if err != nil {
				return err
			}
			tgt, err := target.Build(env, args[0], target.Deps{})
			if err != nil {
				return err
			}
			var filename string
			if len(args) == 2 {
				filename = args[1]
			}

			log.Info().Str("target", tgt.Name).Str("resource", tgt.Resource.Address()).Msg("bootstrap")
			if err := tgt.Bootstrap(filename); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: loaded\n", tgt.Name)
			return nil
		},
	}
}
