package main

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/chmon/internal/shared/paths"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/spf13/cobra"
)

func newResolvePathCommand() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "resolve-path <path>",
		Short: "Find the game installation a path belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, ok := paths.ResolveGameRoot(args[0])
			if !ok {
				return fmt.Errorf("%s is not inside a game installation", args[0])
			}

			flavors := paths.DetectFlavors(root)
			names := make([]string, len(flavors))
			for i, f := range flavors {
				names[i] = string(f)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", root, strings.Join(names, ","))

			if !save {
				return nil
			}
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			a.Settings.Directory = root
			return a.SaveSettings()
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "Remember the installation as the default directory")
	return cmd
}

func newChannelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "channel <addon> <default|stable|beta|alpha>",
		Short: "Choose the release channel an addon follows",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, err := types.ParseReleaseChannel(args[1])
			if err != nil {
				return err
			}
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			flavor, err := flavorFlag(cmd, a.Settings.SelectedFlavor())
			if err != nil {
				return err
			}
			a.Settings.SetReleaseChannel(flavor, args[0], channel)
			return a.SaveSettings()
		},
	}
}

func newIgnoreCommand(ignore bool) *cobra.Command {
	use, short := "ignore <addon>", "Exclude an addon from updates"
	if !ignore {
		use, short = "unignore <addon>", "Include an ignored addon in updates again"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			flavor, err := flavorFlag(cmd, a.Settings.SelectedFlavor())
			if err != nil {
				return err
			}
			a.Settings.SetIgnored(flavor, args[0], ignore)
			return a.SaveSettings()
		},
	}
}

func flavorFlag(cmd *cobra.Command, fallback types.Flavor) (types.Flavor, error) {
	s, _ := cmd.Flags().GetString(flagFlavor)
	if s == "" {
		return fallback, nil
	}
	return types.ParseFlavor(s)
}
