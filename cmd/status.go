package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/arcanea-realm/arcanea/internal/auth"
	"github.com/arcanea-realm/arcanea/internal/keystore"
	"github.com/arcanea-realm/arcanea/internal/manifest"
)

func handleStatus(ctx context.Context, c *cli.Command) error {
	a, err := newApp(c)
	if err != nil {
		return err
	}

	a.banner()

	a.println("  Tools")
	a.divider()
	for _, r := range a.detect.DetectAll(ctx, a.dir) {
		if !r.Detected {
			a.printf("  %s %s\n", dim("○"), dim(r.DisplayName))
			continue
		}
		label := r.DisplayName
		if r.Version != "" {
			label += " " + dim(r.Version)
		}
		a.success("%s", label)
	}

	a.println()
	a.println("  Providers")
	a.divider()
	for _, adapter := range a.auth.Adapters() {
		cred, source, err := a.credential(ctx, adapter.ID())
		switch {
		case errors.Is(err, keystore.ErrNotFound):
			a.printf("  %s %-25s %s\n", dim("○"), adapter.DisplayName(), dim("not configured"))
		case err != nil:
			a.printf("  %s %-25s %s\n", red("✗"), adapter.DisplayName(), err)
		default:
			a.printf("  %s %-25s %s %s\n", green("✓"), adapter.DisplayName(), auth.MaskCredential(cred), dim("("+source+")"))
		}
	}

	a.println()
	a.println("  Overlays")
	a.divider()
	if _, err := os.Stat(manifest.Path(a.dir)); os.IsNotExist(err) {
		a.printf("  %s\n", dim("No overlay manifest found. Run `arcanea init` to get started."))
		a.println()
		return nil
	}
	doc, err := a.store.Read(a.dir)
	if err != nil {
		return err
	}
	providers := doc.Providers()
	if len(providers) == 0 {
		a.printf("  %s\n", dim("No overlays installed. Run `arcanea init` to get started."))
		a.println()
		return nil
	}

	outdated := false
	for _, id := range providers {
		entry, _ := doc.Entry(id)
		name := id
		if p, err := a.reg.Provider(id); err == nil {
			name = p.DisplayName
		}
		a.printf("  %s %-18s %-10s v%s  %s\n",
			green("✓"), name, entry.Level.String(), entry.PackageVersion,
			dim(fmt.Sprintf("(%d files)", len(entry.FilesManaged))))

		if manifest.Outdated(entry) {
			outdated = true
		}
		inst, err := a.installer(id)
		if err != nil {
			log.Debug().Err(err).Str("provider", id).Msg("No layout for installed overlay")
			continue
		}
		issues, err := inst.Verify(a.dir)
		if err != nil {
			return err
		}
		for _, issue := range issues {
			a.warn("%s", issue)
		}
	}

	a.println()
	if outdated {
		a.info("Run `arcanea update` to check for overlay updates.")
	} else {
		a.printf("  %s\n", dim("Run `arcanea update` to check for overlay updates."))
	}
	a.println()
	return nil
}
