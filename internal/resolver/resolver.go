// Package resolver expands matched references into comic identifiers.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode"

	"github.com/bobbytablesbot/bobbytables/internal/matcher"
)

// DefaultMaxRangeSpan bounds how many identifiers one range token may expand to.
const DefaultMaxRangeSpan = 1000

// LatestFetcher returns the identifier of the newest comic.
type LatestFetcher interface {
	FetchLatest(ctx context.Context) (int, bool, error)
}

// Resolver turns text into an ordered list of distinct identifiers.
type Resolver struct {
	latest       LatestFetcher
	rng          *rand.Rand
	maxRangeSpan int
	logger       *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRand sets the source used for "random" references.
func WithRand(rng *rand.Rand) Option {
	return func(r *Resolver) {
		if rng != nil {
			r.rng = rng
		}
	}
}

// WithMaxRangeSpan overrides DefaultMaxRangeSpan. Values below 1 are ignored.
func WithMaxRangeSpan(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxRangeSpan = n
		}
	}
}

// NewResolver creates a Resolver. latest may be nil, in which case "latest" and
// "random" references resolve to nothing.
func NewResolver(log *slog.Logger, latest LatestFetcher, opts ...Option) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	r := &Resolver{
		latest:       latest,
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		maxRangeSpan: DefaultMaxRangeSpan,
		logger:       log.With(slog.String("component", "resolver")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveNumbers returns the identifiers referenced in text: literal numbers,
// then expanded ranges, then the latest comic and any random picks. Leading
// zeros are stripped and duplicates dropped, keeping the first occurrence.
// A range whose bounds do not fit an int is logged and skipped.
func (r *Resolver) ResolveNumbers(ctx context.Context, text string, strict bool) ([]string, error) {
	ids := matcher.Match(matcher.NumberPattern, text, strict)

	for _, token := range matcher.Match(matcher.RangePattern, text, strict) {
		expanded, err := r.expandRange(token)
		if err != nil {
			r.logger.Warn("range skipped", slog.String("range", token), slog.Any("error", err))
			continue
		}
		ids = append(ids, expanded...)
	}

	for i, id := range ids {
		ids[i] = strings.TrimLeft(id, "0")
	}

	wantLatest := len(matcher.Match(matcher.LatestPattern, text, strict)) > 0
	randoms := len(matcher.Match(matcher.RandomPattern, text, strict))
	if (wantLatest || randoms > 0) && r.latest != nil {
		latest, ok, err := r.latest.FetchLatest(ctx)
		switch {
		case err != nil:
			r.logger.Warn("fetch latest failed", slog.Any("error", err))
		case !ok || latest < 1:
			r.logger.Warn("latest comic unavailable")
		default:
			if wantLatest {
				ids = append(ids, strconv.Itoa(latest))
			}
			for range randoms {
				ids = append(ids, strconv.Itoa(1+r.rng.IntN(latest)))
			}
		}
	}

	return Dedupe(ids), nil
}

// ResolveTitles returns the raw title tokens in text. Titles are always strict.
func (r *Resolver) ResolveTitles(text string) []string {
	return matcher.Match(matcher.TitlePattern, text, true)
}

func (r *Resolver) expandRange(token string) ([]string, error) {
	left, right, ok := strings.Cut(token, matcher.RangeSeparator)
	if !ok {
		return nil, fmt.Errorf("malformed range %q", token)
	}
	a, err := strconv.Atoi(left)
	if err != nil {
		return nil, fmt.Errorf("malformed range %q: %w", token, err)
	}
	b, err := strconv.Atoi(right)
	if err != nil {
		return nil, fmt.Errorf("malformed range %q: %w", token, err)
	}
	lo, hi := min(a, b), max(a, b)
	if hi-lo >= r.maxRangeSpan {
		r.logger.Debug("range clamped", slog.String("range", token), slog.Int("max_span", r.maxRangeSpan))
		hi = lo + r.maxRangeSpan - 1
	}
	out := make([]string, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		out = append(out, strconv.Itoa(n))
	}
	return out, nil
}

// Dedupe drops repeated identifiers, keeping first-occurrence order.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// NormalizeTitle lowercases a title and removes all whitespace, the form the
// title index is keyed by.
func NormalizeTitle(title string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, title)
}
