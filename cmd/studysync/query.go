package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

var postCmd = &cobra.Command{
	Use:     "post <id>",
	Short:   "Show the snapshot served for a post",
	GroupID: "query",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		c, err := dialQuery()
		if err != nil {
			return err
		}
		defer c.Close()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		post, err := c.GetPost(ctx, id)
		if err != nil {
			return fmt.Errorf("getting post %d: %w", id, err)
		}

		if jsonOutput {
			printJSON(post)
		} else {
			printPostTable(post)
		}
		return nil
	},
}

var postsCmd = &cobra.Command{
	Use:     "posts <id>...",
	Short:   "Show the snapshots served for several posts",
	Long:    "Missing posts are omitted; the rest are listed in request order.",
	GroupID: "query",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		c, err := dialQuery()
		if err != nil {
			return err
		}
		defer c.Close()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		posts, err := c.GetPosts(ctx, ids)
		if err != nil {
			return fmt.Errorf("getting posts: %w", err)
		}

		if jsonOutput {
			printJSON(posts)
		} else {
			printPostList(posts, len(ids))
		}
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:     "user <id>",
	Short:   "Show the profile snapshot served for a user",
	GroupID: "query",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		c, err := dialQuery()
		if err != nil {
			return err
		}
		defer c.Close()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		user, err := c.GetUser(ctx, id)
		if err != nil {
			return fmt.Errorf("getting user %d: %w", id, err)
		}

		if jsonOutput {
			printJSON(user)
		} else {
			printUserTable(user)
		}
		return nil
	},
}
