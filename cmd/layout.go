// cmd/layout.go

package main

import (
	"fmt"

	"AveCompact/pkg/compact"

	"github.com/urfave/cli/v2"
)

func layoutFlags() *cli.Command {
	return &cli.Command{
		Name:      "layout",
		Usage:     "draw the block layout before and after compaction",
		ArgsUsage: "SOURCE",
		Action:    layout,
		Flags: append(sourceFlags(),
			&cli.StringFlag{
				Name:  "policy",
				Value: "all",
				Usage: "compaction policy (block, extent, all)",
			},
			&cli.IntFlag{
				Name:  "max-blocks",
				Value: 256,
				Usage: "refuse to draw media with more blocks than this",
			},
		),
	}
}

func layout(c *cli.Context) error {
	setLoggerLevel(c)
	names, err := selectPolicies(c.String("policy"))
	if err != nil {
		return err
	}
	m, err := loadMedium(c)
	if err != nil {
		return err
	}
	if limit := c.Int("max-blocks"); m.TotalBlocks() > limit {
		return fmt.Errorf("medium has %d blocks, more than --max-blocks %d", m.TotalBlocks(), limit)
	}

	width := len("initial")
	for _, name := range names {
		if len(name) > width {
			width = len(name)
		}
	}
	fmt.Fprintf(c.App.Writer, "%-*s %s\n", width+1, "initial:", m)
	for _, name := range names {
		r, err := compact.Run(m, name, nil)
		if err != nil {
			return fmt.Errorf("%s compaction: %s", name, err)
		}
		fmt.Fprintf(c.App.Writer, "%-*s %s\n", width+1, name+":", r.Medium)
	}
	return nil
}
