package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/segfal/Lockdin/configs"
	"github.com/segfal/Lockdin/internal/feed"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Inspect, generate or push seed feeds",
	}
	cmd.AddCommand(newSeedPrintCmd(), newSeedGenerateCmd(), newSeedPushCmd())
	return cmd
}

func newSeedPrintCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print the seed feed the server would start with as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				file = configs.LoadConfig().SeedFile
			}
			src, err := loadSeed(file)
			if err != nil {
				return err
			}
			posts, err := src.FetchPosts(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(posts)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed file (defaults to SEED_FILE, then the embedded feed)")
	return cmd
}

func newSeedGenerateCmd() *cobra.Command {
	var (
		count int
		seed  int64
		out   string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a fake seed feed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count <= 0 {
				return fmt.Errorf("count must be positive, got %d", count)
			}
			posts := feed.GenerateSeed(count, seed, time.Now())
			if out == "" {
				return writeSeed(cmd.OutOrStdout(), ".yaml", posts)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := writeSeed(f, filepath.Ext(out), posts); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 20, "number of posts")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed; equal seeds give equal feeds")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (.json, .yaml or .yml); stdout when empty")
	return cmd
}

func writeSeed(w io.Writer, ext string, posts []feed.Post) error {
	switch strings.ToLower(ext) {
	case ".json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(posts)
	case ".yaml", ".yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(posts); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported seed format %q", ext)
	}
}

// newSeedPushCmd fills a running feed API with fake posts, likes and comments.
func newSeedPushCmd() *cobra.Command {
	var (
		api     string
		count   int
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Create fake posts, likes and comments through a running feed API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if api == "" {
				api = configs.LoadConfig().FeedAPIURL
			}
			if api == "" {
				return fmt.Errorf("no feed API: pass --api or set FEED_API_URL")
			}
			n, err := pushSeed(cmd.Context(), feed.NewHTTPClient(api, timeout), count)
			fmt.Fprintf(cmd.OutOrStdout(), "created %d posts\n", n)
			return err
		},
	}
	cmd.Flags().StringVar(&api, "api", "", "feed API base URL (defaults to FEED_API_URL)")
	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of posts to create")
	cmd.Flags().DurationVar(&timeout, "timeout", feed.DefaultTimeout, "per request timeout")
	return cmd
}

func pushSeed(ctx context.Context, c feed.Client, count int) (int, error) {
	faker := gofakeit.New(0)
	for i := 0; i < count; i++ {
		p, err := c.CreatePost(ctx, feed.Draft{
			UserID:  faker.UUID(),
			Author:  faker.Name(),
			Title:   faker.HipsterSentence(4),
			Content: faker.Paragraph(1, 2, 12, " "),
		})
		if err != nil {
			return i, fmt.Errorf("create post: %w", err)
		}
		for range faker.Number(0, 3) {
			if err := c.LikePost(ctx, p.ID); err != nil {
				return i + 1, fmt.Errorf("like post %d: %w", p.ID, err)
			}
		}
		if faker.Bool() {
			if err := c.CommentOnPost(ctx, p.ID, faker.Sentence(8)); err != nil {
				return i + 1, fmt.Errorf("comment on post %d: %w", p.ID, err)
			}
		}
	}
	return count, nil
}
