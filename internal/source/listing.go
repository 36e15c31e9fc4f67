package source

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/projectwatcher/helpers"
	"sjsage522/projectwatcher/logger"
	"sjsage522/projectwatcher/pkg/errors"
	"sjsage522/projectwatcher/services/cache"
)

// Selectors locate the project fields in the listing markup
type Selectors struct {
	Item     string
	Link     string
	Datetime string
	// EpochAttr holds the publication time as milliseconds since the epoch
	EpochAttr string
}

// DefaultSelectors match the 99freelas project listing
var DefaultSelectors = Selectors{
	Item:      "li.result-item",
	Link:      "h1.title a",
	Datetime:  "b.datetime",
	EpochAttr: "cp-datetime",
}

// ListingConfig configures a ListingSource
type ListingConfig struct {
	URL       string
	Cookies   []*http.Cookie
	Client    *http.Client
	Cache     cache.CacheService
	CacheKey  string
	BlockTime time.Duration
	Selectors Selectors
}

// ListingSource fetches "<URL>?page=N" and extracts projects with goquery
type ListingSource struct {
	listURL   *url.URL
	cookies   []*http.Cookie
	client    *http.Client
	block     *cache.Block
	blockTime time.Duration
	selectors Selectors
	log       *logger.Logger
}

// Ensure ListingSource implements Source
var _ Source = (*ListingSource)(nil)

// NewListingSource validates cfg and builds the source
func NewListingSource(cfg ListingConfig) (*ListingSource, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, errors.NewConfiguration("invalid listing url", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.NewConfiguration(fmt.Sprintf("listing url %q is not absolute", cfg.URL), nil)
	}

	sel := cfg.Selectors
	if sel.Item == "" {
		sel = DefaultSelectors
	}
	key := cfg.CacheKey
	if key == "" {
		key = "projectwatcher_rate_limited"
	}

	return &ListingSource{
		listURL:   u,
		cookies:   cfg.Cookies,
		client:    cfg.Client,
		block:     cache.NewBlock(cfg.Cache, key),
		blockTime: cfg.BlockTime,
		selectors: sel,
		log:       logger.ForSource(),
	}, nil
}

// PageURL returns the address of listing page n
func (s *ListingSource) PageURL(page int) string {
	u := *s.listURL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// Fetch downloads and parses one listing page
func (s *ListingSource) Fetch(ctx context.Context, page int) ([]Candidate, error) {
	if s.block.Active() {
		return nil, errors.NewTransient("source", "rate limit block in effect", nil)
	}

	body, err := helpers.FetchPage(ctx, s.PageURL(page), helpers.FetchOptions{
		Client:  s.client,
		Cookies: s.cookies,
	})
	if err != nil {
		return nil, s.classify(err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, errors.NewParsing("source", "parsing listing html", err)
	}

	return s.extract(doc), nil
}

// classify maps fetch failures onto TransientUnavailable where a retry can help
func (s *ListingSource) classify(err error) error {
	var typed *errors.Error
	if !stderrors.As(err, &typed) {
		return err
	}

	switch typed.Type {
	case errors.ErrorTypeRateLimit:
		d := s.blockTime
		if d <= 0 {
			d = 5 * time.Minute
		}
		if setErr := s.block.Set(d); setErr != nil {
			s.log.Warn().Err(setErr).Msg("Failed to store rate limit block")
		}
		return errors.NewTransient("source", "rate limited", err)
	case errors.ErrorTypeNetwork:
		return errors.NewTransient("source", "listing unavailable", err)
	default:
		return err
	}
}

func (s *ListingSource) extract(doc *goquery.Document) []Candidate {
	items := doc.Find(s.selectors.Item)
	candidates := make([]Candidate, 0, items.Length())

	items.Each(func(i int, item *goquery.Selection) {
		c, err := s.candidate(item)
		if err != nil {
			s.log.Debug().Int("index", i).Err(err).Msg("Skipping listing item")
			return
		}
		candidates = append(candidates, c)
	})

	return candidates
}

func (s *ListingSource) candidate(item *goquery.Selection) (Candidate, error) {
	link := item.Find(s.selectors.Link).First()
	title := strings.TrimSpace(link.Text())
	if title == "" {
		return Candidate{}, stderrors.New("title not found")
	}

	href, ok := link.Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return Candidate{}, stderrors.New("link not found")
	}
	ref, err := url.Parse(href)
	if err != nil {
		return Candidate{}, fmt.Errorf("invalid link %q: %w", href, err)
	}
	abs := s.listURL.ResolveReference(ref)
	abs.Fragment = ""

	raw, ok := item.Find(s.selectors.Datetime).First().Attr(s.selectors.EpochAttr)
	if !ok {
		return Candidate{}, stderrors.New("publication time not found")
	}
	millis, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return Candidate{}, fmt.Errorf("invalid publication time %q: %w", raw, err)
	}

	return Candidate{
		Title:       title,
		URL:         abs.String(),
		PublishedAt: time.UnixMilli(millis).UTC(),
	}, nil
}
