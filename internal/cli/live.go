package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Live registry commands",
	}

	cmd.AddCommand(newLiveListCmd())
	cmd.AddCommand(newLiveReloadCmd())
	cmd.AddCommand(newLiveUnloadCmd())

	return cmd
}

func newLiveListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List currently live games",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result LiveGameList

			if err := client.Get("/api/v1/live", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newLiveReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload every active game into the live registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result LiveGameList

			if err := client.Post("/api/v1/live/reload", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newLiveUnloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unload <id>",
		Short: "Unload a live game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(fmt.Sprintf("/api/v1/live/%s", args[0])); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Game unloaded")
			return nil
		},
	}
}
