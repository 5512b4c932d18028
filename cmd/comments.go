package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/arcanea-realm/arcanea/internal/comments"
	"github.com/arcanea-realm/arcanea/internal/config"
)

func newCommentsClient(c *cli.Command) (*comments.HTTPClient, *config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	url, key, _ := cfg.Comments()
	client, err := comments.NewHTTPClient(url, key)
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

func handleCommentsList(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() < 1 {
		return cli.Exit("creation id is required", 1)
	}
	client, _, err := newCommentsClient(c)
	if err != nil {
		return err
	}
	list, err := client.List(ctx, c.Args().First())
	if err != nil {
		return err
	}

	u := ui{out: commandWriter(c)}
	if len(list) == 0 {
		u.info("No comments yet.")
		return nil
	}

	u.println()
	for _, t := range comments.Threads(list) {
		printComment(u, t.Comment, "  ")
		for _, r := range t.Replies {
			printComment(u, r, "      ")
		}
		u.println()
	}
	return nil
}

func printComment(u ui, cm comments.Comment, indent string) {
	meta := cm.CreatedAt.Local().Format("2006-01-02 15:04")
	if cm.IsEdited {
		meta += " (edited)"
	}
	if cm.LikeCount > 0 {
		meta += " ♥ " + strconv.Itoa(cm.LikeCount)
	}
	u.printf("%s%s %s\n", indent, bold(cm.UserID), dim(meta))
	u.printf("%s%s\n", indent, cm.Content)
	u.printf("%s%s\n", indent, dim(cm.ID))
}

func handleCommentsAdd(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() < 2 {
		return cli.Exit("creation id and text are required", 1)
	}
	client, cfg, err := newCommentsClient(c)
	if err != nil {
		return err
	}
	user := c.String("user")
	if user == "" {
		_, _, user = cfg.Comments()
	}
	if user == "" {
		return cli.Exit("author is required, pass --user or set comments.user", 1)
	}

	args := c.Args().Slice()
	text := strings.Join(args[1:], " ")
	if err := client.Add(ctx, user, args[0], text, c.String("parent")); err != nil {
		return err
	}
	u := ui{out: commandWriter(c)}
	u.success("Comment posted.")
	return nil
}
