// Package seed drives a running driftwood server over HTTP to fill it
// with demo users, boards, posts, comments, and votes.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// Config controls how much demo data gets created.
type Config struct {
	ServerURL   string
	NumUsers    int
	NumBoards   int
	NumPosts    int
	NumComments int
	NumVotes    int
}

// DefaultConfig seeds a small but lively forum.
func DefaultConfig() Config {
	return Config{
		ServerURL:   "http://localhost:8080",
		NumUsers:    10,
		NumBoards:   4,
		NumPosts:    40,
		NumComments: 80,
		NumVotes:    200,
	}
}

type seedUser struct {
	ID       string
	Username string
	Token    string
	Boards   []string
}

// Stats counts what the seeder managed to create.
type Stats struct {
	mu       sync.Mutex
	Users    int
	Boards   int
	Posts    int
	Comments int
	Votes    int
	Failures int
}

// Seeder drives the public API the same way a frontend would.
type Seeder struct {
	config Config
	client *http.Client
	logger *slog.Logger
	rng    *rand.Rand

	users    []*seedUser
	boardIDs []string
	postIDs  []string
	stats    Stats
}

func NewSeeder(config Config, logger *slog.Logger) *Seeder {
	return &Seeder{
		config: config,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run executes the full seeding sequence. Individual failures are
// counted, not fatal.
func (s *Seeder) Run(ctx context.Context) (*Stats, error) {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"users", s.createUsers},
		{"boards", s.createBoards},
		{"posts", s.createPosts},
		{"comments", s.createComments},
		{"votes", s.castVotes},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return &s.stats, err
		}
		s.logger.Info("seeding", "step", step.name)
		if err := step.fn(ctx); err != nil {
			return &s.stats, fmt.Errorf("seeding %s: %w", step.name, err)
		}
	}
	return &s.stats, nil
}

func (s *Seeder) createUsers(ctx context.Context) error {
	suffix := s.rng.Intn(100000)
	for i := 0; i < s.config.NumUsers; i++ {
		username := fmt.Sprintf("seed_user_%d_%d", suffix, i)
		body := map[string]string{"username": username, "password": "seedpassword1"}
		var resp struct {
			UserID string `json:"userId"`
			Token  string `json:"token"`
		}
		if err := s.post(ctx, "", "/api/auth/register", body, &resp); err != nil {
			s.fail("register", err)
			continue
		}
		s.users = append(s.users, &seedUser{ID: resp.UserID, Username: username, Token: resp.Token})
		s.stats.Users++
	}
	if len(s.users) == 0 {
		return fmt.Errorf("no users created, is the server running at %s?", s.config.ServerURL)
	}
	return nil
}

func (s *Seeder) createBoards(ctx context.Context) error {
	topics := []string{"technology", "science", "gaming", "music", "movies", "sports", "news", "art"}
	suffix := s.rng.Intn(100000)
	for i := 0; i < s.config.NumBoards; i++ {
		creator := s.users[i%len(s.users)]
		topic := topics[i%len(topics)]
		body := map[string]interface{}{
			"name":        fmt.Sprintf("%s_%d_%d", topic, suffix, i),
			"description": "A place to talk about " + topic,
			"tags":        []string{topic},
		}
		var resp struct {
			ID string `json:"id"`
		}
		if err := s.post(ctx, creator.Token, "/api/boards", body, &resp); err != nil {
			s.fail("create board", err)
			continue
		}
		s.boardIDs = append(s.boardIDs, resp.ID)
		creator.Boards = append(creator.Boards, resp.ID)
		s.stats.Boards++
	}
	if len(s.boardIDs) == 0 {
		return fmt.Errorf("no boards created")
	}

	// Everyone joins a few boards so feeds have content.
	for _, user := range s.users {
		for _, boardID := range s.boardIDs {
			if s.rng.Float64() > 0.7 {
				continue
			}
			path := fmt.Sprintf("/api/boards/%s/join", boardID)
			if err := s.post(ctx, user.Token, path, map[string]string{}, nil); err != nil {
				s.fail("join board", err)
				continue
			}
			user.Boards = append(user.Boards, boardID)
		}
	}
	return nil
}

func (s *Seeder) createPosts(ctx context.Context) error {
	for i := 0; i < s.config.NumPosts; i++ {
		author := s.users[s.rng.Intn(len(s.users))]
		if len(author.Boards) == 0 {
			continue
		}
		boardID := author.Boards[s.rng.Intn(len(author.Boards))]
		body := map[string]string{
			"title":   fmt.Sprintf("Thoughts on topic %d", i),
			"content": fmt.Sprintf("Post body number %d, written by %s.", i, author.Username),
			"boardId": boardID,
		}
		var resp struct {
			ID string `json:"id"`
		}
		if err := s.post(ctx, author.Token, "/api/posts", body, &resp); err != nil {
			s.fail("create post", err)
			continue
		}
		s.postIDs = append(s.postIDs, resp.ID)
		s.stats.Posts++
	}
	return nil
}

func (s *Seeder) createComments(ctx context.Context) error {
	if len(s.postIDs) == 0 {
		return nil
	}
	for i := 0; i < s.config.NumComments; i++ {
		author := s.users[s.rng.Intn(len(s.users))]
		postID := s.postIDs[s.rng.Intn(len(s.postIDs))]
		body := map[string]string{
			"content": fmt.Sprintf("Comment %d from %s", i, author.Username),
		}
		path := fmt.Sprintf("/api/posts/%s/comments", postID)
		if err := s.post(ctx, author.Token, path, body, nil); err != nil {
			s.fail("create comment", err)
			continue
		}
		s.stats.Comments++
	}
	return nil
}

func (s *Seeder) castVotes(ctx context.Context) error {
	if len(s.postIDs) == 0 {
		return nil
	}
	for i := 0; i < s.config.NumVotes; i++ {
		voter := s.users[s.rng.Intn(len(s.users))]
		postID := s.postIDs[s.rng.Intn(len(s.postIDs))]
		value := 1
		// Mostly upvotes, the occasional downvote.
		if s.rng.Float64() < 0.25 {
			value = -1
		}
		path := fmt.Sprintf("/api/posts/%s/vote", postID)
		if err := s.post(ctx, voter.Token, path, map[string]int{"value": value}, nil); err != nil {
			s.fail("cast vote", err)
			continue
		}
		s.stats.Votes++
	}
	return nil
}

func (s *Seeder) fail(action string, err error) {
	s.stats.mu.Lock()
	s.stats.Failures++
	s.stats.mu.Unlock()
	s.logger.Warn("seed action failed", "action", action, "error", err)
}

// post sends a JSON request with the user's bearer token and decodes
// the response into out when it is non-nil.
func (s *Seeder) post(ctx context.Context, token, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.ServerURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
