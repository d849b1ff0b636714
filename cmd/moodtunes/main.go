package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"moodtunes/internal/catalog"
	"moodtunes/internal/logging"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	logging.SetGlobalLogger(logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}))

	app := &cli.Command{
		Name:  "moodtunes",
		Usage: "Mood-based music discovery with a generated catalog",
		Commands: []*cli.Command{
			serveCommand(cfg),
			previewsCommand(cfg),
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("application error")
	}
}

func serveCommand(cfg Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Generate previews and start the web server",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return serve(ctx, cfg)
		},
	}
}

func previewsCommand(cfg Config) *cli.Command {
	return &cli.Command{
		Name:  "previews",
		Usage: "Write the preview audio files and exit",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Directory to write preview files into",
				Value:   cfg.PreviewDir,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			dir := cmd.String("dir")
			written, err := catalog.GeneratePreviews(dir)
			if err != nil {
				return err
			}
			log.Info().Str("dir", dir).Int("written", written).Msg("previews ready")
			return nil
		},
	}
}
