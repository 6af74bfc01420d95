// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

// The savetool CLI inspects, checks and upgrades save files and keeps a
// catalog of the saves it has seen.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/hengband/savekeep/pkg/catalog"
	"github.com/hengband/savekeep/pkg/checker"
	"github.com/hengband/savekeep/pkg/config"
	"github.com/hengband/savekeep/pkg/floor"
	"github.com/hengband/savekeep/pkg/logging"
	"github.com/hengband/savekeep/pkg/metrics"
	"github.com/hengband/savekeep/pkg/metrics/fileexporter"
	"github.com/hengband/savekeep/pkg/savefile"
	"github.com/hengband/savekeep/pkg/version"
)

var versionGitCommit string
var versionBuildTime string

type levelSummary struct {
	Height   int `json:"height"`
	Width    int `json:"width"`
	Objects  int `json:"objects"`
	Monsters int `json:"monsters"`
}

type floorSummary struct {
	floor.Record
	State string `json:"state"`
	File  string `json:"file"`
}

type playerSummary struct {
	Name  string `json:"name"`
	Level int16  `json:"level"`
	Depth int16  `json:"depth"`
	Turn  uint32 `json:"turn"`
	Gold  int32  `json:"gold"`
	Dead  bool   `json:"dead"`
}

type summary struct {
	Path      string         `json:"path"`
	Version   string         `json:"version"`
	Saves     uint16         `json:"saves"`
	SavedAt   uint32         `json:"saved_at"`
	Player    playerSummary  `json:"player"`
	Messages  int            `json:"messages"`
	Quests    int            `json:"quests"`
	Towns     int            `json:"towns"`
	Inventory int            `json:"inventory"`
	Current   uint16         `json:"current_floor,omitempty"`
	Level     *levelSummary  `json:"level,omitempty"`
	Floors    []floorSummary `json:"floors,omitempty"`
}

func summarize(path string, g *savefile.Game) *summary {
	st := &g.State
	sum := &summary{
		Path:    path,
		Version: st.Header.Version.String(),
		Saves:   st.Header.Saves,
		SavedAt: st.Header.When,
		Player: playerSummary{
			Name:  st.Player.Name,
			Level: st.Player.Lev,
			Depth: st.Player.Depth,
			Turn:  st.Player.Turn,
			Gold:  st.Player.Gold,
			Dead:  st.Player.IsDead,
		},
		Messages:  len(st.Messages),
		Quests:    len(st.Quests),
		Towns:     st.Towns,
		Inventory: len(st.Inventory),
		Current:   g.Dungeon.Current,
		Floors:    floorSummaries(g),
	}
	if level := g.Dungeon.Level; level != nil {
		sum.Level = &levelSummary{
			Height:   level.Height,
			Width:    level.Width,
			Objects:  len(level.Objects),
			Monsters: len(level.Monsters),
		}
	}
	return sum
}

func floorSummaries(g *savefile.Game) []floorSummary {
	pager := g.Dungeon.Pager
	if pager == nil {
		return nil
	}
	var floors []floorSummary
	for _, rec := range pager.Records() {
		floors = append(floors, floorSummary{Record: rec, State: rec.State.String(), File: pager.Path(rec)})
	}
	return floors
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal output")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// output writes v as JSON to the --output file, or to the app writer.
func output(c *cli.Context, v interface{}) error {
	path := c.String("output")
	if path == "" {
		return writeJSON(c.App.Writer, v)
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer file.Close()
	if err := writeJSON(file, v); err != nil {
		return err
	}
	logrus.Infof("Wrote %s", path)
	return nil
}

func saveArg(c *cli.Context, index int, name string) (string, error) {
	arg := c.Args().Get(index)
	if arg == "" {
		return "", fmt.Errorf("<%s> argument is required", name)
	}
	return arg, nil
}

func newApp() *cli.App {
	cfg := config.Default()

	app := &cli.App{
		Name:    "savetool",
		Usage:   "Save file inspection and upgrade tool",
		Version: fmt.Sprintf("%s.%s", versionGitCommit, versionBuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "", TakesFile: true, Usage: "Path to the TOML configuration file", EnvVars: []string{"SAVETOOL_CONFIG"}},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "Set log level (panic, fatal, error, warn, info, debug, trace)", EnvVars: []string{"LOG_LEVEL"}},
			&cli.StringFlag{Name: "log-format", Value: logging.TextFormat, Usage: "Set log format (text, json)", EnvVars: []string{"LOG_FORMAT"}},
			&cli.StringFlag{Name: "metrics-file", Value: "", Usage: "Write prometheus metrics to this file on exit", EnvVars: []string{"METRICS_FILE"}},
		},
		Before: func(c *cli.Context) error {
			loaded, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			cfg = loaded

			level, format := cfg.Log.Level, cfg.Log.Format
			if c.IsSet("log-level") {
				level = c.String("log-level")
			}
			if c.IsSet("log-format") {
				format = c.String("log-format")
			}
			if err := logging.SetUp(level, format); err != nil {
				return err
			}
			if file := c.String("metrics-file"); file != "" {
				metrics.Register(fileexporter.New(file))
			}
			return nil
		},
		After: func(c *cli.Context) error {
			metrics.Export()
			return nil
		},
	}

	opt := func() savefile.Opt {
		return savefile.Opt{Limits: cfg.Limits}
	}

	app.Commands = []*cli.Command{
		{
			Name:      "inspect",
			Usage:     "Print a JSON summary of a save and its floors",
			ArgsUsage: "<save>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "output", Value: "", Usage: "Write the summary to this file instead of stdout"},
			},
			Action: func(c *cli.Context) error {
				path, err := saveArg(c, 0, "save")
				if err != nil {
					return err
				}
				g, err := savefile.Load(path, opt())
				if err != nil {
					return err
				}
				return output(c, summarize(path, g))
			},
		},
		{
			Name:      "check",
			Usage:     "Validate a save and every floor file it refers to",
			ArgsUsage: "<save>",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "workers", Value: 0, Usage: "Floor files checked at once, defaults to check.workers of the config"},
				&cli.StringFlag{Name: "output", Value: "", Usage: "Write the report to this file instead of stdout"},
			},
			Action: func(c *cli.Context) error {
				path, err := saveArg(c, 0, "save")
				if err != nil {
					return err
				}
				workers := cfg.Check.Workers
				if c.IsSet("workers") {
					workers = c.Int("workers")
				}
				report, checkErr := checker.New(checker.Opt{
					Path:    path,
					Limits:  cfg.Limits,
					Workers: workers,
				}).Check(context.Background())
				if err := output(c, report); err != nil {
					return err
				}
				return checkErr
			},
		},
		{
			Name:      "floors",
			Usage:     "List the floor directory of a save",
			ArgsUsage: "<save>",
			Action: func(c *cli.Context) error {
				path, err := saveArg(c, 0, "save")
				if err != nil {
					return err
				}
				g, err := savefile.Load(path, opt())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "FLOOR\tSLOT\tDEPTH\tUPPER\tLOWER\tLAST VISIT\tMARK\tSTATE\t")
				for _, f := range floorSummaries(g) {
					current := ""
					if f.FloorID == g.Dungeon.Current {
						current = "*"
					}
					fmt.Fprintf(tw, "%d%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t\n",
						f.FloorID, current, f.Slot, f.Depth, f.Upper, f.Lower, f.LastVisit, f.VisitMark, f.State)
				}
				return tw.Flush()
			},
		},
		{
			Name:      "upgrade",
			Usage:     "Load a save of any supported version and write it in the current format",
			ArgsUsage: "<source> <target>",
			Action: func(c *cli.Context) error {
				source, err := saveArg(c, 0, "source")
				if err != nil {
					return err
				}
				target, err := saveArg(c, 1, "target")
				if err != nil {
					return err
				}
				g, err := savefile.Load(source, opt())
				if err != nil {
					return err
				}
				from := g.State.Header.Version
				if err := savefile.Save(target, g, opt()); err != nil {
					return errors.Wrapf(err, "save %s", target)
				}
				logrus.Infof("Upgraded %s (%s) to %s (%s)", source, from, target, version.Writer)
				return nil
			},
		},
		{
			Name:  "catalog",
			Usage: "Manage the catalog of known saves",
			Subcommands: []*cli.Command{
				{
					Name:      "add",
					Usage:     "Register saves in the catalog",
					ArgsUsage: "<save>...",
					Action: func(c *cli.Context) error {
						if c.NArg() == 0 {
							return fmt.Errorf("<save> argument is required")
						}
						cat, err := catalog.New(cfg.Catalog.Dir)
						if err != nil {
							return err
						}
						defer cat.Close()
						for _, path := range c.Args().Slice() {
							g, err := savefile.Load(path, opt())
							if err != nil {
								return err
							}
							entry, err := catalog.Describe(path, g)
							if err != nil {
								return err
							}
							if err := cat.Add(c.Context, entry); err != nil {
								return errors.Wrapf(err, "add %s", path)
							}
							logrus.Infof("Cataloged %s as %s", entry.Path, entry.ID)
						}
						return nil
					},
				},
				{
					Name:  "list",
					Usage: "Print the cataloged saves as JSON",
					Action: func(c *cli.Context) error {
						cat, err := catalog.New(cfg.Catalog.Dir)
						if err != nil {
							return err
						}
						defer cat.Close()
						entries, err := cat.List(c.Context)
						if err != nil {
							return err
						}
						if entries == nil {
							entries = []catalog.Entry{}
						}
						return writeJSON(c.App.Writer, entries)
					},
				},
				{
					Name:      "remove",
					Usage:     "Drop a save from the catalog",
					ArgsUsage: "<save>",
					Action: func(c *cli.Context) error {
						path, err := saveArg(c, 0, "save")
						if err != nil {
							return err
						}
						abs, err := filepath.Abs(path)
						if err != nil {
							return err
						}
						cat, err := catalog.New(cfg.Catalog.Dir)
						if err != nil {
							return err
						}
						defer cat.Close()
						return cat.Delete(c.Context, abs)
					},
				},
			},
		},
		{
			Name:  "formats",
			Usage: "List the save format milestones this tool can read",
			Action: func(c *cli.Context) error {
				tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tVERSION\tCHANGE\t")
				for _, m := range version.History {
					ver := ""
					if m.Legacy != nil {
						ver = "legacy " + m.Legacy.String()
					}
					if m.Quad != nil {
						ver = m.Quad.String()
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t\n", m.Name, ver, m.Change)
				}
				return tw.Flush()
			},
		},
		{
			Name:  "config",
			Usage: "Print the effective configuration",
			Action: func(c *cli.Context) error {
				data, err := cfg.Dump()
				if err != nil {
					return err
				}
				_, err = c.App.Writer.Write(data)
				return err
			},
		},
	}

	return app
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := newApp().Run(os.Args); err != nil {
		if le, ok := savefile.AsLoadError(err); ok {
			logrus.Fatalf("%s (code %s)", err, le.Code())
		}
		logrus.Fatal(err)
	}
}
