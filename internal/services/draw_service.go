package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/logger"
	"golang.org/x/sync/errgroup"

	"segredex/internal/derangement"
	"segredex/internal/linkcodec"
	"segredex/internal/models"
	"segredex/internal/store"
)

// ArtifactKeyPrefix namespaces the per-session draw artifact in the store.
const ArtifactKeyPrefix = "opendraw_results:"

// ErrNoDraw is returned when a session has no stored draw.
var ErrNoDraw = errors.New("services: no draw in this session")

var lineBreak = regexp.MustCompile(`\r?\n`)

// DrawService runs draws and keeps the resulting links per browser session.
// The draw itself holds no state; only the finished links are stored.
type DrawService struct {
	store   store.Store
	codec   *linkcodec.Codec
	rnd     derangement.Source
	timeout time.Duration
	now     func() time.Time
}

// Option customizes a DrawService.
type Option func(*DrawService)

// WithCodec replaces the production link codec.
func WithCodec(c *linkcodec.Codec) Option {
	return func(s *DrawService) { s.codec = c }
}

// WithSource replaces the random source used for the derangement.
func WithSource(rnd derangement.Source) Option {
	return func(s *DrawService) { s.rnd = rnd }
}

// WithTimeout bounds the time spent encoding a whole draw. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *DrawService) { s.timeout = d }
}

// NewDrawService creates a DrawService persisting artifacts in st.
func NewDrawService(st store.Store, opts ...Option) *DrawService {
	s := &DrawService{
		store: st,
		codec: linkcodec.Default(),
		rnd:   derangement.DefaultSource(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseNames splits free text into one name per line, trimming whitespace
// and dropping blank lines.
func ParseNames(text string) []string {
	var names []string
	for _, line := range lineBreak.Split(text, -1) {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names
}

// Draw assigns every participant a receiver, encrypts each assignment under
// its giver's name and stores the resulting links for sessionID. Either every
// participant gets a link or nothing is stored.
func (s *DrawService) Draw(ctx context.Context, sessionID string, names []string, baseURL string) (*models.DrawResult, error) {
	givers, err := derangement.Validate(names)
	if err != nil {
		return nil, err
	}
	receivers, err := derangement.Generate(givers, s.rnd)
	if err != nil {
		return nil, err
	}

	links, err := s.encodeAll(ctx, derangement.Assignments(givers, receivers), baseURL)
	if err != nil {
		return nil, err
	}

	result := &models.DrawResult{Links: links, CreatedAt: s.now().UTC()}
	blob, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("services: marshal draw: %w", err)
	}
	if err := s.store.Put(ctx, artifactKey(sessionID), blob); err != nil {
		return nil, fmt.Errorf("services: save draw: %w", err)
	}

	logger.Infof("Draw completed with %d participants", len(links))
	return result, nil
}

// encodeAll encrypts every assignment concurrently. Each derivation only
// touches its own giver name and nonce, so the goroutines share nothing but
// the output slice, written at distinct indexes.
func (s *DrawService) encodeAll(ctx context.Context, assignments []models.Assignment, baseURL string) ([]models.ShareLink, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	links := make([]models.ShareLink, len(assignments))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range assignments {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			token, err := s.codec.Encode(a.Receiver, a.Giver)
			if err != nil {
				return err
			}
			url, err := linkcodec.BuildLink(baseURL, a.Giver, token)
			if err != nil {
				return fmt.Errorf("services: build link: %w", err)
			}
			links[i] = models.ShareLink{
				Giver: models.Participant{Name: a.Giver},
				URL:   url,
				Token: token,
			}
			return nil
		})
	}

	// Encoding has no cancellation point, so the batch is checked once it joins.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("services: draw aborted: %w", err)
	}
	return links, nil
}

// Results returns the draw stored for sessionID. A stored artifact that does
// not parse is discarded and reported as ErrNoDraw.
func (s *DrawService) Results(ctx context.Context, sessionID string) (*models.DrawResult, error) {
	blob, err := s.store.Get(ctx, artifactKey(sessionID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoDraw
	}
	if err != nil {
		return nil, fmt.Errorf("services: load draw: %w", err)
	}

	var result models.DrawResult
	if err := json.Unmarshal(blob, &result); err != nil || len(result.Links) == 0 {
		logger.Warningf("Discarding unreadable session artifact: %v", err)
		if err := s.store.Delete(ctx, artifactKey(sessionID)); err != nil {
			logger.Errorf("Failed to discard session artifact: %v", err)
		}
		return nil, ErrNoDraw
	}
	return &result, nil
}

// Reset removes the draw stored for sessionID.
func (s *DrawService) Reset(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, artifactKey(sessionID)); err != nil {
		return fmt.Errorf("services: reset draw: %w", err)
	}
	logger.Infof("Cleared draw for session")
	return nil
}

// Reveal decodes a single link for the viewer. It touches no session state.
func (s *DrawService) Reveal(giver, token string) (string, error) {
	return s.codec.Decode(token, giver)
}

// CleanUpInactiveSessions removes artifacts idle for longer than ttl.
func (s *DrawService) CleanUpInactiveSessions(ctx context.Context, ttl time.Duration) (int, error) {
	return s.store.Cleanup(ctx, ttl)
}

func artifactKey(sessionID string) string {
	return ArtifactKeyPrefix + sessionID
}
