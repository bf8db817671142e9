package usecase

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/nutriplan/backend/internal/domain"
)

// Package-level compiled regex patterns for performance
var (
	nonAlnumRegex   = regexp.MustCompile(`[^a-z0-9\s]`)
	multiSpaceRegex = regexp.MustCompile(`\s+`)
)

// stripMarks decomposes accented runes and drops the combining marks
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Scoring constants. These are contractual: the acceptance gate below and
// the enricher's confidence floor are tuned against them.
const (
	minScore          = 0.65 // floor for automatic acceptance
	minGap            = 0.08 // best-to-second gap below which a match is ambiguous
	ambiguityOverride = 0.90 // score at which a narrow gap is still accepted

	prefixFullBonus  = 0.20 // candidate starts with the full normalized input
	prefixCoreBonus  = 0.12 // candidate starts with the core token
	dishPenaltyValue = 0.25 // candidate names a prepared dish
	extraPenaltyStep = 0.03 // per candidate token absent from the input
	extraPenaltyCap  = 0.18

	candidateLimit = 40 // rows fetched per index query
	maxCandidates  = 5  // candidates kept for ranking/diagnostics
)

// stopTokens are qualifier/negation words that carry no food identity
var stopTokens = map[string]bool{
	"sem": true, "lactose": true, "gluten": true,
	"zero": true, "diet": true, "light": true,
}

// skipAsCore are generic dish words that make poor core tokens
var skipAsCore = map[string]bool{
	"salada": true, "sopa": true, "vitamina": true, "suco": true, "mix": true,
}

// dishTokens flag prepared dishes that crowd out raw ingredients
var dishTokens = map[string]bool{
	"pastel": true, "pizza": true, "lasanha": true, "macarrao": true,
	"bolo": true, "biscoito": true, "torta": true, "hamburguer": true,
	"sanduiche": true, "maionese": true, "salada": true,
}

// Resolver maps free-text food names to reference entries. It is a pure
// function of (input, reference table): no state beyond the index it reads.
type Resolver struct {
	index domain.FoodIndex
}

// NewResolver creates a resolver backed by the given food index
func NewResolver(index domain.FoodIndex) *Resolver {
	return &Resolver{index: index}
}

// NormalizeName lowercases, strips diacritics, collapses non-alphanumeric
// runs into single spaces and trims. Idempotent.
func NormalizeName(s string) string {
	s = strings.ToLower(s)
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	s = nonAlnumRegex.ReplaceAllString(s, " ")
	s = multiSpaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// singularizePT rewrites common Portuguese plural suffixes
func singularizePT(token string) string {
	switch {
	case strings.HasSuffix(token, "oes"):
		return token[:len(token)-3] + "ao"
	case strings.HasSuffix(token, "aes"):
		return token[:len(token)-3] + "ao"
	case strings.HasSuffix(token, "is"):
		return token[:len(token)-2] + "il"
	case strings.HasSuffix(token, "s") && len(token) > 3:
		return token[:len(token)-1]
	}
	return token
}

// contentTokens splits a normalized name into scoring tokens: singularized,
// at least 3 chars, stop words removed.
func contentTokens(normalized string) []string {
	var tokens []string
	for _, t := range strings.Fields(normalized) {
		t = singularizePT(t)
		if len(t) < 3 {
			continue
		}
		if stopTokens[t] {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// wordMatcher caches whole-word regexes per token for one resolve call
type wordMatcher struct {
	patterns map[string]*regexp.Regexp
}

func newWordMatcher() *wordMatcher {
	return &wordMatcher{patterns: make(map[string]*regexp.Regexp)}
}

// Hit reports whether token occurs as a whole word in text
func (m *wordMatcher) Hit(text, token string) bool {
	re, ok := m.patterns[token]
	if !ok {
		re = regexp.MustCompile(`\b` + regexp.QuoteMeta(token) + `\b`)
		m.patterns[token] = re
	}
	return re.MatchString(text)
}

// scoredCandidate pairs a candidate with its extra-token count for ranking
type scoredCandidate struct {
	domain.Candidate
	extra int
}

// Resolve returns the accepted best match (nil when there is none or the
// match is ambiguous) and up to five scored candidates for diagnostics.
func (r *Resolver) Resolve(ctx context.Context, inputName string) (*domain.Candidate, []domain.Candidate, error) {
	inputNorm := NormalizeName(inputName)
	if inputNorm == "" {
		return nil, nil, nil
	}

	tokens := contentTokens(inputNorm)
	if len(tokens) == 0 {
		return nil, nil, nil
	}

	core := tokens[0]
	for _, t := range tokens {
		if !skipAsCore[t] {
			core = t
			break
		}
	}
	var rest []string
	for _, t := range tokens {
		if t != core {
			rest = append(rest, t)
		}
	}

	rows, err := r.index.Search(ctx, core, rest, candidateLimit)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 && len(rest) > 0 {
		rows, err = r.index.Search(ctx, core, nil, candidateLimit)
		if err != nil {
			return nil, nil, err
		}
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	allTokens := append([]string{core}, rest...)
	matcher := newWordMatcher()

	norms := make([]string, len(rows))
	for i, row := range rows {
		if row.NormalizedName != "" {
			norms[i] = row.NormalizedName
		} else {
			norms[i] = NormalizeName(row.Name)
		}
	}

	// Document frequency per input token across the candidate set; a token
	// appearing nowhere gets weight 0 and drops out of coverage.
	n := len(norms)
	df := make(map[string]int, len(allTokens))
	for _, t := range allTokens {
		for _, nm := range norms {
			if matcher.Hit(nm, t) {
				df[t]++
			}
		}
	}
	weightOf := func(t string) float64 {
		d := df[t]
		if d == 0 {
			return 0
		}
		return math.Log(float64(n+1)/float64(d+1)) + 1
	}

	inputTokenSet := make(map[string]bool, len(allTokens))
	for _, t := range allTokens {
		if weightOf(t) > 0 {
			inputTokenSet[t] = true
		}
	}

	extraTokenCount := func(nm string) int {
		extra := 0
		for _, t := range contentTokens(nm) {
			if !inputTokenSet[t] {
				extra++
			}
		}
		return extra
	}

	scored := make([]scoredCandidate, 0, len(rows))
	for i, row := range rows {
		nm := norms[i]

		var num, den float64
		for _, t := range allTokens {
			w := weightOf(t)
			if w <= 0 {
				continue
			}
			den += w
			if matcher.Hit(nm, t) {
				num += w
			}
		}
		hitScore := 0.0
		if den > 0 {
			hitScore = num / den
		}

		prefixBonus := 0.0
		switch {
		case strings.HasPrefix(nm, inputNorm):
			prefixBonus = prefixFullBonus
		case strings.HasPrefix(nm, core):
			prefixBonus = prefixCoreBonus
		}

		dishPenalty := 0.0
		for w := range dishTokens {
			if matcher.Hit(nm, w) {
				dishPenalty = dishPenaltyValue
				break
			}
		}

		extra := extraTokenCount(nm)
		extraPenalty := math.Min(extraPenaltyCap, float64(extra)*extraPenaltyStep)

		score := hitScore + prefixBonus - dishPenalty - extraPenalty
		score = math.Max(0, math.Min(1, score))

		scored = append(scored, scoredCandidate{
			Candidate: domain.Candidate{
				ID:             row.ID,
				TacoID:         row.TacoID,
				Name:           row.Name,
				NormalizedName: nm,
				Score:          score,
			},
			extra: extra,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		aFull := strings.HasPrefix(a.NormalizedName, inputNorm)
		bFull := strings.HasPrefix(b.NormalizedName, inputNorm)
		if aFull != bFull {
			return aFull
		}
		aCore := strings.HasPrefix(a.NormalizedName, core)
		bCore := strings.HasPrefix(b.NormalizedName, core)
		if aCore != bCore {
			return aCore
		}
		if a.extra != b.extra {
			return a.extra < b.extra
		}
		if len(a.Name) != len(b.Name) {
			return len(a.Name) < len(b.Name)
		}
		return a.ID < b.ID
	})

	if len(scored) > maxCandidates {
		scored = scored[:maxCandidates]
	}
	candidates := make([]domain.Candidate, len(scored))
	for i, c := range scored {
		candidates[i] = c.Candidate
	}

	return acceptBest(candidates), candidates, nil
}

// acceptBest applies the acceptance gate to ranked candidates: the best is
// returned only when it clears the score floor and is unambiguous. An
// ambiguous match (narrow gap to the runner-up at a non-dominant score) is
// rejected while the candidate list stays available for diagnostics.
func acceptBest(candidates []domain.Candidate) *domain.Candidate {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	if best.Score < minScore {
		return nil
	}
	if len(candidates) > 1 {
		gap := best.Score - candidates[1].Score
		if gap < minGap && best.Score < ambiguityOverride {
			return nil
		}
	}
	return &best
}
