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

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "pretty",
		Usage: "Pretty-print output",
		Value: true,
	}
}

// setupCommand initializes storage and runs startup migrations.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize local storage and run startup migrations",
		Flags: []cli.Flag{configFlag(), prettyFlag()},
		Action: r.Setup,
	}
}

// migrateCommand runs the startup migration pass on demand.
func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "Backfill wear counts and local image copies across stored records",
		Flags:  []cli.Flag{prettyFlag()},
		Action: r.Migrate,
	}
}

// captureCommand runs the garment capture pipeline over one photo.
func captureCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Detect garments in a photo and add confirmed ones to the wardrobe",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "photo"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Add every detected candidate without the interactive picker",
			},
			&cli.StringFlag{
				Name:  "select",
				Usage: "Comma-separated candidate IDs to confirm (skips the picker)",
			},
			prettyFlag(),
		},
		Action: r.Capture,
	}
}

// wardrobeCommand handles garment collection operations.
func wardrobeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "wardrobe",
		Aliases: []string{"w"},
		Usage:   "Wardrobe operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all garments",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "migrate",
						Usage: "Backfill local image copies while reading",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: json, csv, or markdown",
						Value: "json",
					},
					prettyFlag(),
				},
				Action: r.WardrobeList,
			},
			{
				Name:      "delete",
				Usage:     "Delete garments by ID",
				ArgsUsage: "<id> [id...]",
				Flags:     []cli.Flag{prettyFlag()},
				Action:    r.WardrobeDelete,
			},
			{
				Name:   "clear",
				Usage:  "Remove every garment",
				Action: r.WardrobeClear,
			},
			{
				Name:      "worn",
				Usage:     "Mark garments as worn once",
				ArgsUsage: "<id> [id...]",
				Flags:     []cli.Flag{prettyFlag()},
				Action:    r.WardrobeWorn,
			},
		},
	}
}

// outfitCommand handles outfit operations.
func outfitCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "outfit",
		Aliases: []string{"o"},
		Usage:   "Outfit operations",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Save a named outfit",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "articles",
						Usage:    "Comma-separated article IDs",
						Required: true,
					},
					prettyFlag(),
				},
				Action: r.OutfitCreate,
			},
			{
				Name:   "list",
				Usage:  "List all outfits",
				Flags:  []cli.Flag{prettyFlag()},
				Action: r.OutfitList,
			},
			{
				Name:  "worn",
				Usage: "Mark an outfit (and its articles) as worn once",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{prettyFlag()},
				Action: r.OutfitWorn,
			},
			{
				Name:  "delete",
				Usage: "Delete an outfit",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.OutfitDelete,
			},
			{
				Name:   "clear",
				Usage:  "Remove every outfit",
				Action: r.OutfitClear,
			},
		},
	}
}
