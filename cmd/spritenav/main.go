package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bodgit/spritenav"
	"github.com/bodgit/spritenav/catalog"
	"github.com/bodgit/spritenav/palette"
	"github.com/bodgit/spritenav/tile"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const defaultDB = "spritenav.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if c.Bool("verbose") {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func parseNumber(c *cli.Context, name string) (int64, error) {
	n, err := strconv.ParseInt(c.String(name), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return n, nil
}

func parseGrid(c *cli.Context) (tile.Grid, error) {
	g := tile.Grid{Wide: c.Int("width"), High: c.Int("height")}
	if !g.Valid() {
		return g, tile.ErrInvalidGrid
	}
	return g, nil
}

func romFile(c *cli.Context) (string, error) {
	if c.NArg() > 0 {
		return c.Args().First(), nil
	}
	if rom := c.String("rom"); rom != "" {
		return rom, nil
	}
	return "", errors.New("no ROM image given")
}

// withNavigator opens the catalog and passes a Navigator and ROM to fn.
func withNavigator(c *cli.Context, needROM bool, fn func(*spritenav.Navigator, *catalog.DB, *spritenav.ROM, logrus.FieldLogger) error) error {
	logger := newLogger(c)

	var rom *spritenav.ROM
	if needROM {
		file, err := romFile(c)
		if err != nil {
			cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
		}
		rom = spritenav.OpenROM(file, logger)
	}

	db, err := catalog.Open(c.String("db"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer db.Close()

	if err := fn(spritenav.New(db, logger), db, rom, logger); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

var geometryFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "offset",
		Aliases: []string{"o"},
		Value:   "0",
		Usage:   "offset of the first tile",
	},
	&cli.StringFlag{
		Name:    "palette",
		Aliases: []string{"p"},
		Value:   "0",
		Usage:   "offset of the palette",
	},
	&cli.IntFlag{
		Name:  "width",
		Value: 1,
		Usage: "width in tiles",
	},
	&cli.IntFlag{
		Name:  "height",
		Value: 1,
		Usage: "height in tiles",
	},
}

func searchAction(c *cli.Context) error {
	return withNavigator(c, true, func(n *spritenav.Navigator, _ *catalog.DB, rom *spritenav.ROM, logger logrus.FieldLogger) error {
		offset, err := parseNumber(c, "offset")
		if err != nil {
			return err
		}
		paletteOffset, err := parseNumber(c, "palette")
		if err != nil {
			return err
		}
		g, err := parseGrid(c)
		if err != nil {
			return err
		}

		sprites, err := n.Search(rom, offset, g, paletteOffset, c.Int("count"))
		if err != nil {
			if len(sprites) == 0 {
				return err
			}
			logger.Warn(err)
		}

		if out := c.String("out"); out != "" {
			if err := os.MkdirAll(out, 0777); err != nil {
				return err
			}
		}

		seen := make(map[uint64]struct{})
		for _, s := range sprites {
			if c.Bool("unique") {
				fp := s.Fingerprint()
				if _, ok := seen[fp]; ok {
					continue
				}
				seen[fp] = struct{}{}
			}

			fmt.Printf("%s\t%s\t%016x\n", s.Label(), s.Grid, s.Fingerprint())

			if out := c.String("out"); out != "" {
				if err := writePNG(filepath.Join(out, s.Filename()), s, c.Int("scale")); err != nil {
					return err
				}
			}
		}

		return nil
	})
}

func writePNG(file string, s *spritenav.Sprite, scale int) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := s.WritePNG(f, scale); err != nil {
		return err
	}

	return f.Close()
}

func bookmarkAddAction(c *cli.Context) error {
	return withNavigator(c, false, func(_ *spritenav.Navigator, db *catalog.DB, _ *spritenav.ROM, _ logrus.FieldLogger) error {
		offset, err := parseNumber(c, "offset")
		if err != nil {
			return err
		}
		paletteOffset, err := parseNumber(c, "palette")
		if err != nil {
			return err
		}
		g, err := parseGrid(c)
		if err != nil {
			return err
		}

		return db.Put(catalog.Bookmark{
			Offset:        offset,
			Name:          c.String("name"),
			PaletteOffset: paletteOffset,
			Grid:          g,
		})
	})
}

func bookmarkRemoveAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	return withNavigator(c, false, func(_ *spritenav.Navigator, db *catalog.DB, _ *spritenav.ROM, _ logrus.FieldLogger) error {
		offset, err := strconv.ParseInt(c.Args().First(), 0, 64)
		if err != nil {
			return err
		}
		return db.Remove(offset)
	})
}

func bookmarkListAction(c *cli.Context) error {
	return withNavigator(c, false, func(_ *spritenav.Navigator, db *catalog.DB, _ *spritenav.ROM, _ logrus.FieldLogger) error {
		bookmarks, err := db.List()
		if err != nil {
			return err
		}
		for _, b := range bookmarks {
			fmt.Printf("%#x\t%#x\t%s\t%s\n", b.Offset, b.PaletteOffset, b.Grid, b.Name)
		}
		return nil
	})
}

func importAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	return withNavigator(c, false, func(_ *spritenav.Navigator, db *catalog.DB, _ *spritenav.ROM, _ logrus.FieldLogger) error {
		return db.ImportYAML(c.Args().First())
	})
}

func exportAction(c *cli.Context) error {
	return withNavigator(c, true, func(n *spritenav.Navigator, _ *catalog.DB, rom *spritenav.ROM, _ logrus.FieldLogger) error {
		return n.Export(context.Background(), rom, c.String("out"), c.Int("scale"))
	})
}

func encodeAction(c *cli.Context) error {
	if c.NArg() < 1 || c.String("tiles") == "" {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	f, err := os.Open(c.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	tf, err := os.Create(c.String("tiles"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer tf.Close()

	p, err := tile.Encode(tf, m)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	if file := c.String("palette"); file != "" {
		pf, err := os.Create(file)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer pf.Close()

		if err := palette.Write(pf, p); err != nil {
			return cli.NewExitError(err, 1)
		}
	}

	return nil
}

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	app := cli.NewApp()

	app.Name = "spritenav"
	app.Usage = "GBA ROM sprite navigator"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		logrus.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"SPRITENAV_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to bookmark database",
		},
		&cli.StringFlag{
			Name:    "rom",
			EnvVars: []string{"SPRITENAV_ROM"},
			Usage:   "path to ROM image, if not given as an argument",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "search",
			Usage:       "Decode sprites at an offset",
			Description: "",
			ArgsUsage:   "[ROM]",
			Flags: append(geometryFlags,
				&cli.IntFlag{
					Name:    "count",
					Aliases: []string{"n"},
					Value:   1,
					Usage:   "number of consecutive sprites",
				},
				&cli.StringFlag{
					Name:  "out",
					Usage: "directory to write PNG images to",
				},
				&cli.IntFlag{
					Name:  "scale",
					Value: 2,
					Usage: "scale factor for PNG images",
				},
				&cli.BoolFlag{
					Name:  "unique",
					Usage: "skip sprites identical to one already found",
				},
			),
			Action: searchAction,
		},
		{
			Name:  "bookmark",
			Usage: "Manage bookmarked sprites",
			Subcommands: []*cli.Command{
				{
					Name:  "add",
					Usage: "Bookmark a sprite",
					Flags: append(geometryFlags,
						&cli.StringFlag{
							Name:  "name",
							Usage: "name of the sprite",
						},
					),
					Action: bookmarkAddAction,
				},
				{
					Name:      "rm",
					Usage:     "Remove a bookmark",
					ArgsUsage: "OFFSET",
					Action:    bookmarkRemoveAction,
				},
				{
					Name:   "ls",
					Usage:  "List bookmarks",
					Action: bookmarkListAction,
				},
			},
		},
		{
			Name:        "import",
			Usage:       "Replace bookmarks with those in a YAML file",
			Description: "",
			ArgsUsage:   "FILE",
			Action:      importAction,
		},
		{
			Name:        "export",
			Usage:       "Write every bookmarked sprite as a PNG image",
			Description: "",
			ArgsUsage:   "[ROM]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "out",
					Value: ".",
					Usage: "directory to write PNG images to",
				},
				&cli.IntFlag{
					Name:  "scale",
					Value: 2,
					Usage: "scale factor for PNG images",
				},
			},
			Action: exportAction,
		},
		{
			Name:        "encode",
			Usage:       "Convert an image to 4bpp tiles and a palette",
			Description: "",
			ArgsUsage:   "IMAGE",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "tiles",
					Usage: "file to write tile data to",
				},
				&cli.StringFlag{
					Name:  "palette",
					Usage: "file to write palette data to",
				},
			},
			Action: encodeAction,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
