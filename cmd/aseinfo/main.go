// Command aseinfo prints what is inside Aseprite documents and exports their
// frames as PNG files.
//
//	aseinfo info walk.aseprite run.json
//	aseinfo export --scale 4 --atlas --out build walk.aseprite
package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	log.SetFlags(0)
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "aseinfo",
		Usage: "inspect and export Aseprite sprite sheets",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Usage: "parallel cel decoders per document, 0 or 1 decodes serially",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "only print errors",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "print header, layers, tags and frames",
				ArgsUsage: "FILE...",
				Action:    infoAction,
			},
			{
				Name:      "export",
				Usage:     "write frames or a packed atlas as PNG",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Value:   ".",
						Usage:   "output directory",
					},
					&cli.IntFlag{
						Name:  "scale",
						Value: 1,
						Usage: "integer upscale factor, nearest neighbour",
					},
					&cli.BoolFlag{
						Name:  "atlas",
						Usage: "write one packed atlas per document instead of one file per frame",
					},
				},
				Action: exportAction,
			},
		},
	}
}

func infoAction(ctx context.Context, cmd *cli.Command) error {
	entries, err := loadAll(ctx, cmd.Args().Slice(), cmd.Int("workers"))
	if err != nil {
		return err
	}
	for _, e := range entries {
		printInfo(os.Stdout, e)
	}
	return nil
}

func exportAction(ctx context.Context, cmd *cli.Command) error {
	scale := cmd.Int("scale")
	if scale < 1 {
		return cli.Exit("--scale must be at least 1", 2)
	}
	entries, err := loadAll(ctx, cmd.Args().Slice(), cmd.Int("workers"))
	if err != nil {
		return err
	}
	out := cmd.String("out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}

	quiet := cmd.Bool("quiet")
	for _, e := range entries {
		var written []string
		if cmd.Bool("atlas") {
			written, err = exportAtlas(e, out, scale)
		} else {
			written, err = exportFrames(e, out, scale)
		}
		if err != nil {
			return err
		}
		if !quiet {
			log.Printf("%s: wrote %d file(s) to %s", e.path, len(written), out)
		}
	}
	return nil
}
