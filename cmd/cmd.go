// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// runCommand starts the bot loop
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Start the bot and process updates until interrupted",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Telegram bot token (overrides config and TELEGRAM_BOT_TOKEN)",
				Sources: cli.EnvVars("TELEGRAM_BOT_TOKEN"),
			},
		},
		Action: r.Run,
	}
}

// setupCommand handles one-time initialization
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration, database and cookies",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Create a config.toml from the embedded template",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the history database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:  "cookies",
				Usage: "Generate a yt-dlp cookie jar from a browser cURL command",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command copied from the browser dev tools",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to a file containing the cURL command",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Cookie jar output path",
						Value:   "cookies.txt",
					},
				},
				Action: r.SetupCookies,
			},
		},
	}
}

// probeCommand resolves a single input without delivering anything
func probeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     "Resolve a link or search phrase and print the candidates",
		ArgsUsage: "<url or search phrase>",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Probe,
	}
}

// historyCommand lists recorded deliveries
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent delivery outcomes",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of rows to show",
				Value: 20,
			},
			&cli.IntFlag{
				Name:  "owner",
				Usage: "Restrict to one owner id",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}
