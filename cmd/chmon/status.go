package main

import (
	"fmt"
	"io"

	"github.com/GriffinCanCode/chmon/internal/domain/addon"
	"github.com/GriffinCanCode/chmon/internal/domain/engine"
	"github.com/GriffinCanCode/chmon/internal/shared/utils"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List installed addons and the releases available for them",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			flavor, root, err := target(cmd, a)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			result, err := a.Engine.Scan(ctx, flavor, root)
			if err != nil {
				return err
			}
			failures := result.Failures
			if !a.Config.Offline {
				refreshed, err := a.Engine.Refresh(ctx, flavor, result.Addons)
				if err != nil {
					return err
				}
				failures = append(failures, refreshed.Failures...)
			}

			renderStatus(cmd.OutOrStdout(), result.Addons)
			for _, f := range failures {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", f)
			}
			return nil
		},
	}
}

func renderStatus(w io.Writer, addons []*addon.Addon) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Addon", "Installed", "Latest", "Game", "Channel", "Source", "State"})
	for _, a := range addons {
		latest, source, game := "", "unknown", ""
		if primary := a.PrimaryFolder(); primary != nil {
			game = utils.FormatInterfaceIntoGameVersion(primary.Manifest.Interface)
		}
		if pkg := a.Package(); pkg != nil {
			source = pkg.Kind().String()
			if r, ok := a.RelevantRelease(); ok {
				latest = r.Version
			}
		}
		t.AppendRow(table.Row{
			utils.Truncate(a.Title(), 40),
			utils.Truncate(a.Version(), 24),
			utils.Truncate(latest, 24),
			game,
			a.EffectiveChannel().String(),
			source,
			a.State().String(),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "updatable", len((&engine.Result{Addons: addons}).Updatable())})
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
}
