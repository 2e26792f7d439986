// cmd/compact.go

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"AveCompact/pkg/compact"
	"AveCompact/pkg/extent"
	"AveCompact/pkg/source"
	"AveCompact/pkg/utils"

	"github.com/urfave/cli/v2"
)

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "compress",
			Value: "auto",
			Usage: "compression of the stored disk map (auto, lz4, zstd, none)",
		},
		&cli.Int64Flag{
			Name:  "read-limit",
			Value: 0,
			Usage: "bandwidth limit for reading the disk map in KiB/s",
		},
		&cli.StringFlag{
			Name:  "key",
			Value: "diskmap",
			Usage: "key holding the disk map for redis sources",
		},
		&cli.IntFlag{
			Name:  "retries",
			Value: 2,
			Usage: "number of retries for transient read failures",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: time.Second * 30,
			Usage: "dial and read timeout for remote sources",
		},
	}
}

func sourceConfig(c *cli.Context) *source.Config {
	return &source.Config{
		Retries:   c.Int("retries"),
		ReadLimit: c.Int64("read-limit") << 10,
		Compress:  c.String("compress"),
		Key:       c.String("key"),
		Timeout:   c.Duration("timeout"),
	}
}

func loadMedium(c *cli.Context) (*extent.Medium, error) {
	if c.Args().Len() < 1 {
		return nil, fmt.Errorf("SOURCE is needed")
	}
	conf := sourceConfig(c)
	s, err := source.NewSource(c.Args().Get(0), conf)
	if err != nil {
		return nil, err
	}
	digits, err := source.Load(c.Context, s, conf)
	if err != nil {
		return nil, err
	}
	m, err := extent.Parse(digits)
	if err != nil {
		return nil, err
	}
	logger.Debugf("%s: %d files, %d extents, %d blocks", s, m.Files(), m.Len(), m.TotalBlocks())
	return m, nil
}

func selectPolicies(name string) ([]string, error) {
	if name == "all" {
		return compact.Policies(), nil
	}
	if _, err := compact.Lookup(name); err != nil {
		return nil, err
	}
	return []string{name}, nil
}

func printJson(w io.Writer, v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json: %s", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func runPolicy(m *extent.Medium, name string, quiet bool) (*compact.Report, error) {
	progress, bar := utils.NewDynProgressBar(name+" compaction:", quiet)
	if name == "block" {
		bar.SetTotal(int64(m.TotalBlocks()), false)
	} else {
		bar.SetTotal(int64(m.Files()), false)
	}
	r, err := compact.Run(m, name, &compact.Config{Progress: bar})
	if err != nil {
		bar.Abort(false)
	} else {
		bar.SetTotal(-1, true)
	}
	progress.Wait()
	return r, err
}

func compactAction(c *cli.Context) error {
	setLoggerLevel(c)
	names, err := selectPolicies(c.String("policy"))
	if err != nil {
		return err
	}
	m, err := loadMedium(c)
	if err != nil {
		return err
	}

	reports := make([]*compact.Report, 0, len(names))
	for _, name := range names {
		r, err := runPolicy(m, name, c.Bool("no-progress") || c.Bool("quiet"))
		if err != nil {
			return fmt.Errorf("%s compaction: %s", name, err)
		}
		reports = append(reports, r)
	}
	logger.Debugf("used %s", utils.TakeUsage())

	if c.Bool("json") {
		return printJson(c.App.Writer, reports)
	}
	for _, r := range reports {
		fmt.Fprintf(c.App.Writer, "%s: %d\n", r.Policy, r.Checksum)
	}
	return nil
}

func compactFlags() *cli.Command {
	return &cli.Command{
		Name:      "compact",
		Usage:     "compact a disk map and print the checksum of each policy",
		ArgsUsage: "SOURCE",
		Action:    compactAction,
		Flags: append(sourceFlags(),
			&cli.StringFlag{
				Name:  "policy",
				Value: "all",
				Usage: "compaction policy (block, extent, all)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print full run reports as JSON",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "hide the progress bar",
			},
		),
	}
}
