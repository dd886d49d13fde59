package main

import (
	"fmt"

	"github.com/danmuck/usbboot/internal/config"
	"github.com/danmuck/usbboot/internal/target"
	"github.com/spf13/cobra"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check environment files",
	}

	var kind string
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write an environment template to --config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(root.configPath, kind, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s config template to %s\n", kind, root.configPath)
			return nil
		},
	}
	initCmd.Flags().StringVar(&kind, "kind", "local", "template kind: local|network")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite existing config file")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate --config and check every target binds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := root.load()
			if err != nil {
				return err
			}
			for _, tc := range env.Targets {
				if _, err := target.FromConfig(env, tc, target.Deps{}); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Validated %d targets in %s\n", len(env.Targets), env.Path)
			return nil
		},
	}

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}
