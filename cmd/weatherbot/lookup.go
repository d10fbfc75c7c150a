package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// lookupCmd runs one gateway call and prints the text the bot would send.
func lookupCmd(kind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   kind + " <city...>",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc, err := buildServices(cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			city := strings.Join(args, " ")
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var text string
			switch kind {
			case "weather":
				text = svc.weather.Current(ctx, city)
			case "forecast":
				text = svc.weather.Forecast(ctx, city)
			case "news":
				text = svc.news.Latest(ctx, city)
			default:
				return fmt.Errorf("unknown lookup %q", kind)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
}
