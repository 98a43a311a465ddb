package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/shohag/hookpad/internal/settings"
	"github.com/shohag/hookpad/internal/storage"
	"github.com/shohag/hookpad/internal/webhook"
)

func settingsFromConfig(configPath string) (*settings.Service, func(), error) {
	app, cleanup, err := setup(configPath)
	if err != nil {
		return nil, nil, err
	}
	return settings.NewService(app.store, app.log), cleanup, nil
}

func slotArg(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("slot must be a number between 1 and 5: %q", arg)
	}
	return n, nil
}

// slotUpdate picks up only the flags given on the command line, so
// "set 2 --name Alerts" keeps the stored URL.
func slotUpdate(cmd *cobra.Command) settings.SlotUpdate {
	var upd settings.SlotUpdate
	if cmd.Flags().Changed("name") {
		name, _ := cmd.Flags().GetString("name")
		upd.Name = &name
	}
	if cmd.Flags().Changed("url") {
		url, _ := cmd.Flags().GetString("url")
		upd.URL = &url
	}
	return upd
}

// listWebhooks prints the five slots and marks the one sends resolve to.
// It only reads; the panel is what persists a reconciled selection.
func listWebhooks(ctx context.Context, store storage.Store, log zerolog.Logger, w io.Writer) error {
	slots, err := settings.NewService(store, log).Slots(ctx)
	if err != nil {
		return fmt.Errorf("failed to list webhooks: %w", err)
	}
	sel, err := webhook.NewResolver(store).Selection(ctx)
	if err != nil {
		return fmt.Errorf("failed to read selection: %w", err)
	}

	for i, s := range slots {
		marker := " "
		if s.ID == sel.SelectedID {
			marker = "*"
		}
		url := s.URL
		if url == "" {
			url = "(unused)"
		}
		fmt.Fprintf(w, "%s %d  %-5s  %-16s  %s\n", marker, i+1, s.ID, s.Name, url)
	}
	return nil
}

func webhooksCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhooks",
		Short: "Manage the saved webhook slots",
	}

	// webhooks list
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List webhook slots and the current selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			return listWebhooks(context.Background(), app.store, app.log, cmd.OutOrStdout())
		},
	}

	// webhooks set
	setCmd := &cobra.Command{
		Use:   "set <slot>",
		Short: "Set the name and URL of a slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := slotArg(args[0])
			if err != nil {
				return err
			}
			upd := slotUpdate(cmd)
			if upd.Name == nil && upd.URL == nil {
				return fmt.Errorf("nothing to change: pass --name and/or --url")
			}

			svc, cleanup, err := settingsFromConfig(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.UpdateSlot(context.Background(), n, upd); err != nil {
				return err
			}
			fmt.Println("Saved.")
			return nil
		},
	}
	setCmd.Flags().String("name", "", "display name, e.g. Main, Alerts, Test")
	setCmd.Flags().String("url", "", "https://discord.com/api/webhooks/...")

	// webhooks clear
	clearCmd := &cobra.Command{
		Use:   "clear <slot>",
		Short: "Remove a slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := slotArg(args[0])
			if err != nil {
				return err
			}

			svc, cleanup, err := settingsFromConfig(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.ClearSlot(context.Background(), n); err != nil {
				return err
			}
			fmt.Println("Saved.")
			return nil
		},
	}

	// webhooks select
	selectCmd := &cobra.Command{
		Use:   "select <id>",
		Short: "Select the slot the panel sends to (e.g. wh_2)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := settingsFromConfig(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			return svc.Select(context.Background(), args[0])
		},
	}

	cmd.AddCommand(listCmd, setCmd, clearCmd, selectCmd)
	return cmd
}

func legacyCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "legacy",
		Short: "Manage the single webhook used by send",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the legacy webhook URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := settingsFromConfig(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			url, err := svc.Legacy(context.Background())
			if err != nil {
				return err
			}
			if url == "" {
				fmt.Println("Set webhook in Settings.")
				return nil
			}
			fmt.Println(url)
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <url>",
		Short: "Save the legacy webhook URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := settingsFromConfig(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.SaveLegacy(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Println("Saved.")
			return nil
		},
	}

	cmd.AddCommand(showCmd, setCmd)
	return cmd
}
