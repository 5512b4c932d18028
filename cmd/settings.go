package main

import (
	"context"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/arcanea-realm/arcanea/internal/config"
	"github.com/arcanea-realm/arcanea/internal/registry"
)

// secret keys are masked in listings
var secretKeys = []string{config.KeyCommentsKey}

func handleConfigList(ctx context.Context, c *cli.Command) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	u := ui{out: commandWriter(c)}
	u.println()
	u.printf("  %s\n", dim(cfg.Path()))
	u.divider()
	for _, key := range config.Keys {
		value := cfg.Get(key)
		if value != "" && slices.Contains(secretKeys, key) {
			value = strings.Repeat("•", 8)
		}
		if !cfg.IsSet(key) {
			value = dim(value)
		}
		u.printf("  %-22s %s\n", key, value)
	}
	u.println()
	return nil
}

func handleConfigGet(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() < 1 {
		return cli.Exit("key is required", 1)
	}
	key := c.Args().First()
	if !slices.Contains(config.Keys, key) {
		return cli.Exit("unknown key: "+key, 1)
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	ui{out: commandWriter(c)}.println(cfg.Get(key))
	return nil
}

func handleConfigSet(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() < 2 {
		return cli.Exit("key and value are required", 1)
	}
	key, value := c.Args().Get(0), c.Args().Get(1)
	if !slices.Contains(config.Keys, key) {
		return cli.Exit("unknown key: "+key, 1)
	}
	if key == config.KeyDefaultLevel {
		if _, err := registry.ParseLevel(value); err != nil {
			return err
		}
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	ui{out: commandWriter(c)}.success("%s saved to %s", key, cfg.Path())
	return nil
}
