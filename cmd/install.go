package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/arcanea-realm/arcanea/internal/manifest"
	"github.com/arcanea-realm/arcanea/internal/overlay"
	"github.com/arcanea-realm/arcanea/internal/router"
)

func handleInstall(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() < 1 {
		return cli.Exit("provider is required (e.g. arcanea install claude)", 1)
	}
	a, err := newApp(c)
	if err != nil {
		return err
	}
	p, err := a.reg.Provider(c.Args().First())
	if err != nil {
		return err
	}
	level, err := a.level(c.String("level"))
	if err != nil {
		return err
	}

	var opts []overlay.InstallerOption
	if name := c.String("channel"); name != "" {
		persona, err := router.New(a.reg).Channel(name)
		if err != nil {
			return err
		}
		opts = append(opts, overlay.WithPersona(&persona))
	}
	inst, err := a.installer(p.ID, opts...)
	if err != nil {
		return err
	}

	if c.Bool("dry-run") {
		preview, err := inst.Preview(a.dir, level)
		if err != nil {
			return err
		}
		a.println()
		a.printf("  %s\n", bold("Preview for "+p.DisplayName+" ("+level.String()+"):"))
		printPreview(a.ui, preview)
		a.printf("\n  %s\n\n", dim("Estimated size: "+preview.EstimatedSize))
		return nil
	}

	a.println()
	a.info("Installing %s overlay (%s)...", p.DisplayName, level)
	res, err := inst.Install(a.dir, level)
	if err != nil {
		return err
	}
	printResult(a.ui, p.DisplayName, res)
	return nil
}

func handleUpdate(ctx context.Context, c *cli.Command) error {
	a, err := newApp(c)
	if err != nil {
		return err
	}
	dryRun := c.Bool("dry-run")

	if _, err := os.Stat(manifest.Path(a.dir)); os.IsNotExist(err) {
		a.warn("No Arcanea overlays found. Run `arcanea init` first.")
		return nil
	}
	doc, err := a.store.Read(a.dir)
	if err != nil {
		return err
	}
	providers := doc.Providers()
	if len(providers) == 0 {
		a.warn("No Arcanea overlays found. Run `arcanea init` first.")
		return nil
	}

	a.println()
	a.info("Found %d overlay(s) to update...", len(providers))
	for _, id := range providers {
		inst, err := a.installer(id)
		if err != nil {
			a.failure("%s — %v", id, err)
			continue
		}
		entry, _ := doc.Entry(id)

		if dryRun {
			preview, err := inst.Preview(a.dir, entry.Level)
			if err != nil {
				return err
			}
			a.info("%s (%s) — %d files would change", id, entry.Level, len(preview.FilesToCreate)+len(preview.FilesToModify))
			continue
		}

		res, err := inst.Update(a.dir)
		if err != nil {
			a.failure("%s — %v", id, err)
			continue
		}
		a.success("%s (%s) — %s", id, res.Level, changeSummary(res))
		printChanges(a.ui, res)
		for _, w := range res.Warnings {
			a.warn("%s", w)
		}
	}

	a.println()
	if dryRun {
		a.info("Dry run — no files written.")
	} else {
		a.success("All overlays updated.")
	}
	a.println()
	return nil
}

func handleUninstall(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() < 1 {
		return cli.Exit("provider is required (e.g. arcanea uninstall claude)", 1)
	}
	a, err := newApp(c)
	if err != nil {
		return err
	}
	p, err := a.reg.Provider(c.Args().First())
	if err != nil {
		return err
	}
	inst, err := a.installer(p.ID)
	if err != nil {
		return err
	}

	res, err := inst.Uninstall(a.dir)
	if err != nil {
		return err
	}
	for _, f := range res.FilesRemoved {
		a.printf("    %s %s\n", red("-"), f)
	}
	for _, w := range res.Warnings {
		a.warn("%s", w)
	}
	if len(res.FilesRemoved) > 0 || len(res.FilesKept) > 0 {
		a.success("%s overlay removed.", p.DisplayName)
	}
	return nil
}

func printPreview(u ui, p *overlay.Preview) {
	for _, f := range p.FilesToCreate {
		u.printf("    %s %s\n", green("+"), f)
	}
	for _, f := range p.FilesToModify {
		u.printf("    %s %s\n", yellow("~"), f)
	}
	if len(p.FilesToCreate)+len(p.FilesToModify) == 0 {
		u.printf("    %s\n", dim("up to date"))
	}
}

// printChanges lists every file an install wrote, created first.
func printChanges(u ui, res *overlay.Result) {
	for _, f := range res.FilesCreated {
		u.printf("    %s %s\n", green("+"), f)
	}
	for _, f := range res.FilesModified {
		u.printf("    %s %s\n", yellow("~"), f)
	}
}

func changeSummary(res *overlay.Result) string {
	if len(res.FilesCreated)+len(res.FilesModified) == 0 {
		return "up to date"
	}
	return fmt.Sprintf("%d created, %d modified", len(res.FilesCreated), len(res.FilesModified))
}

func printResult(u ui, name string, res *overlay.Result) {
	u.success("%s overlay installed!", name)

	if len(res.FilesCreated) > 0 {
		u.println()
		u.println("  Files created:")
		for _, f := range res.FilesCreated {
			u.printf("    %s %s\n", green("+"), f)
		}
	}
	if len(res.FilesModified) > 0 {
		u.println()
		u.println("  Files modified:")
		for _, f := range res.FilesModified {
			u.printf("    %s %s\n", yellow("~"), f)
		}
	}
	for _, w := range res.Warnings {
		u.warn("%s", w)
	}
	if len(res.NextSteps) > 0 {
		u.println()
		u.println("  Next steps:")
		for _, step := range res.NextSteps {
			u.info("%s", step)
		}
	}
	u.println()
}
