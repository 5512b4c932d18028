package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/arcanea-realm/arcanea/internal/detect"
	"github.com/arcanea-realm/arcanea/internal/keystore"
	"github.com/arcanea-realm/arcanea/internal/registry"
)

// setupPlan is one provider chosen during init.
type setupPlan struct {
	provider registry.Provider
	level    registry.Level
}

// handleInit detects tools, collects credentials and installs overlays.
func handleInit(ctx context.Context, c *cli.Command) error {
	a, err := newApp(c)
	if err != nil {
		return err
	}
	dryRun := c.Bool("dry-run")
	yes := c.Bool("yes")

	a.banner()

	results := a.detect.DetectAll(ctx, a.dir)
	a.println("  Detected tools:")
	for _, r := range results {
		if r.Detected {
			label := r.DisplayName
			if r.Version != "" {
				label += " " + dim("("+r.Version+")")
			}
			a.success("%s", label)
		} else {
			a.failure("%s", dim(r.DisplayName+" — not detected"))
		}
	}
	a.println()

	providers, err := a.chooseProviders(c.StringSlice("provider"), results, yes)
	if err != nil {
		return err
	}
	if len(providers) == 0 {
		a.warn("No tools selected. Nothing to install.")
		return nil
	}

	var plans []setupPlan
	for _, p := range providers {
		level, err := a.chooseLevel(p, c.String("level"), yes)
		if err != nil {
			return err
		}
		ok, err := a.authenticate(ctx, p, yes, dryRun)
		if err != nil {
			return err
		}
		if ok {
			plans = append(plans, setupPlan{provider: p, level: level})
		}
	}
	if len(plans) == 0 {
		a.warn("No overlays to install.")
		return nil
	}

	a.println()
	a.println("  Installation preview:")
	a.divider()
	for _, plan := range plans {
		inst, err := a.installer(plan.provider.ID)
		if err != nil {
			return err
		}
		preview, err := inst.Preview(a.dir, plan.level)
		if err != nil {
			return err
		}
		a.printf("  %s %s\n", bold(plan.provider.DisplayName), dim("("+plan.level.String()+")"))
		printPreview(a.ui, preview)
	}
	a.divider()

	if dryRun {
		a.println()
		a.info("Dry run — no files written.")
		return nil
	}

	if !yes {
		ok, err := a.prompt.confirm("Install overlays?", true)
		if err != nil {
			return err
		}
		if !ok {
			a.info("Cancelled.")
			return nil
		}
	}

	a.println()
	var nextSteps []string
	seen := map[string]bool{}
	for _, plan := range plans {
		inst, err := a.installer(plan.provider.ID)
		if err != nil {
			return err
		}
		res, err := inst.Install(a.dir, plan.level)
		if err != nil {
			a.failure("%s overlay failed: %v", plan.provider.DisplayName, err)
			log.Debug().Err(err).Str("provider", plan.provider.ID).Msg("Install failed")
			continue
		}
		a.success("%s overlay installed %s", plan.provider.DisplayName, dim("("+res.Level.String()+")"))
		printChanges(a.ui, res)
		for _, w := range res.Warnings {
			a.warn("%s", w)
		}
		for _, step := range res.NextSteps {
			if !seen[step] {
				seen[step] = true
				nextSteps = append(nextSteps, step)
			}
		}
	}

	if len(nextSteps) > 0 {
		a.println()
		a.println("  Next steps:")
		for _, step := range nextSteps {
			a.info("%s", step)
		}
	}

	a.println()
	a.printf("  %s\n", green("Arcanea Intelligence OS initialized."))
	a.printf("  %s\n\n", dim("Run `arcanea status` to see your installation."))
	return nil
}

// chooseProviders resolves explicit providers, or falls back to the detected
// ones (with --yes) or an interactive pick.
func (a *app) chooseProviders(names []string, results []detect.Result, yes bool) ([]registry.Provider, error) {
	if len(names) > 0 {
		var out []registry.Provider
		seen := map[string]bool{}
		for _, name := range names {
			p, err := a.reg.Provider(name)
			if err != nil {
				return nil, err
			}
			if !seen[p.ID] {
				seen[p.ID] = true
				out = append(out, p)
			}
		}
		return out, nil
	}

	var ids []string
	if yes {
		for _, r := range detect.Detected(results) {
			ids = append(ids, r.Provider)
		}
	} else {
		options := make([]option, 0, len(results))
		for _, r := range results {
			options = append(options, option{label: r.DisplayName, value: r.Provider, detected: r.Detected})
		}
		var err error
		ids, err = a.prompt.selectMany("Which AI tools should Arcanea overlay?", options)
		if err != nil {
			return nil, err
		}
	}

	out := make([]registry.Provider, 0, len(ids))
	for _, id := range ids {
		p, err := a.reg.Provider(id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (a *app) chooseLevel(p registry.Provider, flag string, yes bool) (registry.Level, error) {
	if flag != "" || yes {
		return a.level(flag)
	}
	def, err := a.level("")
	if err != nil {
		return 0, err
	}

	options := []option{{label: def.String() + " " + dim("(default) "+def.Description()), value: def.String()}}
	for _, l := range registry.Levels() {
		if l != def {
			options = append(options, option{label: l.String() + " " + dim(l.Description()), value: l.String()})
		}
	}
	name, err := a.prompt.selectOne(fmt.Sprintf("Overlay level for %s:", p.DisplayName), options)
	if err != nil {
		return 0, err
	}
	return registry.ParseLevel(name)
}

// authenticate reports whether the provider's overlay should be installed.
// A key that fails validation still installs when the user confirms.
func (a *app) authenticate(ctx context.Context, p registry.Provider, yes, dryRun bool) (bool, error) {
	adapter, err := a.auth.Adapter(p.ID)
	if err != nil {
		return false, err
	}

	if s := adapter.DetectFromEnv(ctx); s != nil {
		if s.Validated {
			a.success("%s authenticated %s", p.DisplayName, dim("via "+s.Source))
			return true, nil
		}
		a.warn("%s credential from %s did not validate", p.DisplayName, s.Source)
	}

	if cred, err := a.file.Load(ctx, p.ID); err == nil {
		if s := adapter.Validate(ctx, cred); s.Validated {
			a.success("%s authenticated %s", p.DisplayName, dim("via "+keystore.SourceKeystore))
			return true, nil
		}
		a.warn("Stored %s credential no longer validates", p.DisplayName)
	} else if !errors.Is(err, keystore.ErrNotFound) {
		a.failure("Stored %s credential could not be read: %v", p.DisplayName, err)
	}

	if !needsKey(p) || yes {
		return true, nil
	}

	a.println()
	a.printf("  %s\n", bold("Authenticate with "+p.DisplayName))
	if p.SetupURL != "" {
		a.printf("  %s\n", dim("Get your API key at: "+p.SetupURL))
	}
	key, err := a.prompt.password("  API key (enter to skip): ")
	if err != nil {
		return false, err
	}
	if key == "" {
		a.info("Skipped authentication for %s", p.DisplayName)
		return true, nil
	}

	s := adapter.Validate(ctx, key)
	if s.Validated {
		a.success("Validated! %d models available", len(s.Models))
		if dryRun {
			return true, nil
		}
		if err := a.file.Save(ctx, p.ID, key); err != nil {
			return false, fmt.Errorf("failed to save credential: %w", err)
		}
		a.success("Credentials saved securely")
		return true, nil
	}

	a.failure("Validation failed — key may be invalid")
	if s.Detail != "" {
		a.printf("    %s\n", dim(s.Detail))
	}
	return a.prompt.confirm("Install overlay anyway?", false)
}

// needsKey reports whether init should prompt for a credential. The github
// method falls back to the gh CLI session and local tools have no key.
func needsKey(p registry.Provider) bool {
	return len(p.EnvVars) > 0 && p.Auth != "github"
}
