package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"go.uber.org/zap"

	"github.com/zaqqye/vdi_docgen/internal/models"
)

type GitHubConfig struct {
	Token   string
	Owner   string
	Repo    string
	Branch  string
	Path    string
	BaseURL string
	Timeout time.Duration
}

// Complete reports whether enough is set to talk to GitHub.
func (c GitHubConfig) Complete() bool {
	return c.Token != "" && c.Owner != "" && c.Repo != ""
}

// GitHub stores the log as one file in a repository through the Contents API.
// Every write re-reads the file and sends its blob SHA, so a concurrent writer
// turns into ErrConflict instead of a lost update.
type GitHub struct {
	client *github.Client
	cfg    GitHubConfig
	cache  *ReadCache
	clock  Clock
	log    *zap.Logger
}

func NewGitHub(cfg GitHubConfig, cache *ReadCache, clock Clock, log *zap.Logger) (*GitHub, error) {
	if !cfg.Complete() {
		return nil, errors.New("github store needs token, owner and repo")
	}
	if cfg.Path == "" {
		cfg.Path = "data/" + LogFileName
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	client := github.NewClient(&http.Client{Timeout: cfg.Timeout}).WithAuthToken(cfg.Token)
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("github api url: %w", err)
		}
		client.BaseURL = u
	}
	return &GitHub{client: client, cfg: cfg, cache: cache, clock: clock, log: log}, nil
}

func (g *GitHub) Name() string { return "github" }

func (g *GitHub) now() time.Time { return g.clock.now() }

func (g *GitHub) contentOptions() *github.RepositoryContentGetOptions {
	if g.cfg.Branch == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: g.cfg.Branch}
}

// fetch returns the file body and blob SHA. A missing file is an empty log with
// no SHA. Cached copies are only used when fresh is false.
func (g *GitHub) fetch(ctx context.Context, fresh bool) ([]byte, string, error) {
	if !fresh {
		if data, sha, ok := g.cache.Get(); ok {
			return data, sha, nil
		}
	}
	fc, _, resp, err := g.client.Repositories.GetContents(ctx, g.cfg.Owner, g.cfg.Repo, g.cfg.Path, g.contentOptions())
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			g.cache.Put(nil, "")
			return nil, "", nil
		}
		return nil, "", g.wrap("get contents", resp, err)
	}
	if fc == nil {
		return nil, "", fmt.Errorf("%w: %s is a directory", ErrUnavailable, g.cfg.Path)
	}

	var data []byte
	if fc.GetEncoding() == "none" {
		// Files above 1MB come back without inline content.
		raw, resp, err := g.client.Git.GetBlobRaw(ctx, g.cfg.Owner, g.cfg.Repo, fc.GetSHA())
		if err != nil {
			return nil, "", g.wrap("get blob", resp, err)
		}
		data = raw
	} else {
		s, err := fc.GetContent()
		if err != nil {
			return nil, "", fmt.Errorf("%w: decode content: %v", ErrUnavailable, err)
		}
		data = []byte(s)
	}
	g.cache.Put(data, fc.GetSHA())
	return data, fc.GetSHA(), nil
}

// write sends data with sha as precondition. An empty sha creates the file.
func (g *GitHub) write(ctx context.Context, data []byte, sha, message string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: data,
	}
	if g.cfg.Branch != "" {
		opts.Branch = github.String(g.cfg.Branch)
	}
	var (
		resp *github.Response
		err  error
	)
	if sha == "" {
		_, resp, err = g.client.Repositories.CreateFile(ctx, g.cfg.Owner, g.cfg.Repo, g.cfg.Path, opts)
	} else {
		opts.SHA = github.String(sha)
		_, resp, err = g.client.Repositories.UpdateFile(ctx, g.cfg.Owner, g.cfg.Repo, g.cfg.Path, opts)
	}
	if err != nil {
		return g.wrap("write contents", resp, err)
	}
	g.cache.Invalidate()
	return nil
}

func (g *GitHub) wrap(op string, resp *github.Response, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusConflict, http.StatusUnprocessableEntity:
			g.log.Warn("github write rejected",
				zap.String("op", op),
				zap.Int("status", resp.StatusCode),
				zap.String("path", g.cfg.Path))
			return fmt.Errorf("%w: %s: %v", ErrConflict, op, err)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func (g *GitHub) Append(ctx context.Context, rec models.Submission) (models.Submission, error) {
	rec = prepare(rec, g.clock.now())
	data, sha, err := g.fetch(ctx, true)
	if err != nil {
		return models.Submission{}, err
	}
	out, err := appendToLog(data, rec)
	if err != nil {
		return models.Submission{}, err
	}
	if err := g.write(ctx, out, sha, "docgen: add submission "+rec.ID); err != nil {
		return models.Submission{}, err
	}
	return rec, nil
}

func (g *GitHub) List(ctx context.Context) ([]models.Submission, error) {
	data, _, err := g.fetch(ctx, false)
	if err != nil {
		return nil, err
	}
	return records(parseLog(data)), nil
}

func (g *GitHub) Get(ctx context.Context, id string) (models.Submission, error) {
	data, _, err := g.fetch(ctx, false)
	if err != nil {
		return models.Submission{}, err
	}
	return getFromLog(data, id)
}

func (g *GitHub) Replace(ctx context.Context, id string, rec models.Submission) (models.Submission, error) {
	data, sha, err := g.fetch(ctx, true)
	if err != nil {
		return models.Submission{}, err
	}
	out, next, err := replaceInLog(data, id, rec, g.clock.now())
	if err != nil {
		return models.Submission{}, err
	}
	if err := g.write(ctx, out, sha, "docgen: replace submission "+id); err != nil {
		return models.Submission{}, err
	}
	return next, nil
}

func (g *GitHub) Ping(ctx context.Context) error {
	_, resp, err := g.client.Repositories.Get(ctx, g.cfg.Owner, g.cfg.Repo)
	if err != nil {
		return g.wrap("get repository", resp, err)
	}
	return nil
}
