package main

import (
	"fmt"

	"github.com/GriffinCanCode/chmon/internal/app"
	"github.com/GriffinCanCode/chmon/internal/config"
	"github.com/GriffinCanCode/chmon/internal/shared/paths"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/spf13/cobra"
)

const (
	flagDataDir = "data-dir"
	flagFlavor  = "flavor"
	flagDir     = "dir"
	flagOffline = "offline"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chmon [sub-command]",
		Short: "Find installed addons and check them for updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String(flagDataDir, "", "Directory holding settings and caches (overrides CHMON_DATA_DIR)")
	cmd.PersistentFlags().String(flagFlavor, "", "Game flavor, e.g. retail or classic_era (defaults to the saved flavor)")
	cmd.PersistentFlags().String(flagDir, "", "Game installation directory (defaults to the saved directory)")
	cmd.PersistentFlags().Bool(flagOffline, false, "Do not contact remote repositories")

	cmd.AddCommand(newStatusCommand())
	cmd.AddCommand(newDownloadCommand())
	cmd.AddCommand(newResolvePathCommand())
	cmd.AddCommand(newChannelCommand())
	cmd.AddCommand(newIgnoreCommand(true))
	cmd.AddCommand(newIgnoreCommand(false))
	return cmd
}

// loadApp builds the application from the environment and the persistent
// flags.
func loadApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dir, _ := cmd.Flags().GetString(flagDataDir); dir != "" {
		cfg.DataDir = dir
	}
	if offline, _ := cmd.Flags().GetBool(flagOffline); offline {
		cfg.Offline = true
	}
	return app.New(cfg)
}

// target returns the flavor and game root a command runs against.
func target(cmd *cobra.Command, a *app.App) (types.Flavor, string, error) {
	flavor := a.Settings.SelectedFlavor()
	if s, _ := cmd.Flags().GetString(flagFlavor); s != "" {
		f, err := types.ParseFlavor(s)
		if err != nil {
			return "", "", err
		}
		flavor = f
	}

	dir, _ := cmd.Flags().GetString(flagDir)
	if dir == "" {
		dir = a.Settings.Directory
	}
	if dir == "" {
		return "", "", fmt.Errorf("no game directory: pass --%s", flagDir)
	}
	root, ok := paths.ResolveGameRoot(dir)
	if !ok {
		return "", "", fmt.Errorf("%s is not inside a game installation", dir)
	}
	return flavor, root, nil
}
