package main

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/chmon/internal/domain/addon"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/spf13/cobra"
)

var errOffline = errors.New("download needs network access")

func newDownloadCommand() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "download [<curse|tukui|wowi|hub> <id>]",
		Short: "Fetch the release archive of an addon into the download directory",
		Long: `Resolves an addon by repository id, or by --source for GitHub and GitLab
projects, and saves the archive of its relevant release. Unpacking the archive
into the game directory is left to the caller.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if source != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.Config.Offline {
				return errOffline
			}

			flavor := a.Settings.SelectedFlavor()
			if s, _ := cmd.Flags().GetString(flagFlavor); s != "" {
				if flavor, err = types.ParseFlavor(s); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			var pending *addon.Pending
			if source != "" {
				pending, err = a.Engine.InstallFromSource(ctx, flavor, source)
			} else {
				kind, perr := types.ParseRepositoryKind(args[0])
				if perr != nil {
					return perr
				}
				pending, err = a.Engine.Install(ctx, flavor, kind, args[1])
			}
			if err != nil {
				return err
			}

			release, _ := pending.Release()
			path, err := a.HTTP.Download(ctx, release.DownloadURL, a.Layout.DownloadDir())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\t%s\n", pending.Package.Metadata().Title, release.Version, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "GitHub or GitLab project URL")
	return cmd
}
