package feed

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gopkg.in/yaml.v3"
)

//go:embed seed/posts.yaml
var defaultSeed []byte

// DefaultSeed returns the placeholder feed shipped with the binary.
func DefaultSeed() (StaticSource, error) {
	var posts []Post
	if err := yaml.Unmarshal(defaultSeed, &posts); err != nil {
		return nil, fmt.Errorf("decode embedded seed: %w", err)
	}
	if err := validateSeed(posts); err != nil {
		return nil, fmt.Errorf("embedded seed: %w", err)
	}
	return StaticSource(posts), nil
}

// LoadSeedFile reads a seed feed from a .json, .yaml or .yml file.
func LoadSeedFile(path string) (StaticSource, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var posts []Post
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(b, &posts)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &posts)
	default:
		return nil, fmt.Errorf("seed file %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	if err := validateSeed(posts); err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return StaticSource(posts), nil
}

func validateSeed(posts []Post) error {
	seen := make(map[int64]struct{}, len(posts))
	for i, p := range posts {
		if p.ID <= 0 {
			return fmt.Errorf("post %d: id must be positive, got %d", i, p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("post %d: duplicate id %d", i, p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Likes < 0 || p.Comments < 0 {
			return fmt.Errorf("post %d: negative counters", p.ID)
		}
	}
	return nil
}

// GenerateSeed builds n fake posts, newest first, with ids n..1.
// The same seed value always yields the same feed. n <= 0 yields no posts.
func GenerateSeed(n int, seed int64, now time.Time) []Post {
	if n <= 0 {
		return []Post{}
	}
	faker := gofakeit.New(seed)
	posts := make([]Post, 0, n)
	at := now
	for i := n; i >= 1; i-- {
		at = at.Add(-time.Duration(faker.Number(5, 600)) * time.Minute)
		posts = append(posts, Post{
			ID:        int64(i),
			UserID:    faker.UUID(),
			Author:    faker.Name(),
			Avatar:    fmt.Sprintf("/avatars/%s.png", strings.ToLower(faker.FirstName())),
			Title:     faker.HipsterSentence(4),
			Content:   faker.Paragraph(1, 3, 12, " "),
			CreatedAt: FormatCreatedAt(at),
			Likes:     faker.Number(0, 80),
			Comments:  faker.Number(0, 20),
		})
	}
	return posts
}
