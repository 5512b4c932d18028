package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/arcanea-realm/arcanea/internal/auth"
	"github.com/arcanea-realm/arcanea/internal/keystore"
)

func handleAuthAdd(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() < 1 {
		return cli.Exit("provider is required (e.g. arcanea auth add claude)", 1)
	}
	a, err := newApp(c)
	if err != nil {
		return err
	}
	adapter, err := a.auth.Adapter(c.Args().First())
	if err != nil {
		return err
	}

	key := c.String("key")
	if key == "" {
		if url := adapter.SetupURL(); url != "" {
			a.printf("  %s\n", dim("Get your API key at: "+url))
		}
		key, err = a.prompt.password(fmt.Sprintf("  %s API key: ", adapter.DisplayName()))
		if err != nil {
			return err
		}
	}
	if key == "" {
		a.failure("No key provided.")
		return nil
	}

	s := adapter.Validate(ctx, key)
	if !s.Validated && !c.Bool("force") {
		a.failure("Validation failed — the key appears to be invalid.")
		if s.Detail != "" {
			a.printf("    %s\n", dim(s.Detail))
		}
		return cli.Exit("", 1)
	}

	if err := a.file.Save(ctx, adapter.ID(), key); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	if s.Validated {
		a.success("Validated and saved! %d models available.", len(s.Models))
	} else {
		a.warn("Saved without validation.")
	}
	return nil
}

func handleAuthList(ctx context.Context, c *cli.Command) error {
	a, err := newApp(c)
	if err != nil {
		return err
	}
	offline := c.Bool("offline")

	a.println()
	a.println("  Configured providers:")
	a.divider()
	for _, adapter := range a.auth.Adapters() {
		if len(adapter.EnvVarNames()) == 0 {
			a.info("%s — %s", adapter.DisplayName(), dim("no key needed"))
			continue
		}
		cred, source, err := a.credential(ctx, adapter.ID())
		if errors.Is(err, keystore.ErrNotFound) {
			a.printf("  %s %s\n", dim("○"), dim(adapter.DisplayName()+" — not configured"))
			continue
		}
		if err != nil {
			a.failure("%s — %v", adapter.DisplayName(), err)
			continue
		}

		label := fmt.Sprintf("%s — %s %s", adapter.DisplayName(), auth.MaskCredential(cred), dim("("+source+")"))
		if offline {
			a.info("%s", label)
			continue
		}
		if s := adapter.Validate(ctx, cred); s.Validated {
			a.success("%s %s", label, dim(fmt.Sprintf("(%d models)", len(s.Models))))
		} else {
			a.failure("%s %s", label, red("(invalid)"))
		}
	}
	a.println()
	return nil
}

func handleAuthRemove(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() < 1 {
		return cli.Exit("provider is required (e.g. arcanea auth remove claude)", 1)
	}
	a, err := newApp(c)
	if err != nil {
		return err
	}
	p, err := a.reg.Provider(c.Args().First())
	if err != nil {
		return err
	}
	if err := a.file.Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("failed to remove credential: %w", err)
	}
	a.success("Credentials for %s removed.", p.DisplayName)
	return nil
}

func handleAuthValidate(ctx context.Context, c *cli.Command) error {
	a, err := newApp(c)
	if err != nil {
		return err
	}

	adapters := a.auth.Adapters()
	if c.Args().Len() > 0 {
		adapter, err := a.auth.Adapter(c.Args().First())
		if err != nil {
			return err
		}
		adapters = []auth.Adapter{adapter}
	}

	failed := 0
	checked := 0
	for _, adapter := range adapters {
		cred, _, err := a.credential(ctx, adapter.ID())
		if errors.Is(err, keystore.ErrNotFound) {
			if len(adapters) == 1 {
				a.failure("%s — not configured", adapter.DisplayName())
				failed++
			}
			continue
		}
		if err != nil {
			return err
		}

		checked++
		if s := adapter.Validate(ctx, cred); s.Validated {
			a.success("%s — valid", adapter.DisplayName())
		} else {
			failed++
			a.failure("%s — invalid", adapter.DisplayName())
			if s.Detail != "" {
				a.printf("    %s\n", dim(s.Detail))
			}
		}
	}

	if checked == 0 && failed == 0 {
		a.info("No credentials configured. Run `arcanea auth add <provider>`.")
	}
	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}
