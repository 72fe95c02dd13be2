// Package feeds declares the built-in record feeds of the target site:
// what each feed is called, how its pages load, and which selectors turn
// its rendered document into records.
package feeds

import (
	"fmt"

	"github.com/use-agent/harvest/models"
)

// Kind is how a feed loads its content.
type Kind string

const (
	// KindStatic is server-rendered pagination via ?page=N.
	KindStatic Kind = "static"

	// KindScroll is infinite scroll: content loads as the page grows.
	KindScroll Kind = "scroll"

	// KindLoadMore is an explicit "load more" control.
	KindLoadMore Kind = "loadmore"
)

// Feed binds a feed name to its load mechanism and record spec.
type Feed struct {
	Name string
	Kind Kind

	// Path is the feed path relative to the base URL. Static feeds
	// embed a %d page-number verb.
	Path string

	// ControlSelector locates the load-more control (KindLoadMore only).
	ControlSelector string

	Spec models.RecordSpec
}

// URL returns the feed's entry URL for dynamic feeds.
func (f Feed) URL(base string) string {
	return base + f.Path
}

// PageURL returns the URL of one static page.
func (f Feed) PageURL(base string, page int) string {
	return fmt.Sprintf(base+f.Path, page)
}

// Defaults returns the three built-in feeds with their production
// selectors.
func Defaults() []Feed {
	return []Feed{Products(), Testimonials(), Reviews()}
}

// Products is the statically paginated product catalog.
func Products() Feed {
	return Feed{
		Name: "products",
		Kind: KindStatic,
		Path: "/products?page=%d",
		Spec: models.RecordSpec{
			Container: "div.col-8.description",
			Fields: []models.FieldSpec{
				{Name: "name", Selector: "a"},
				{Name: "url", Selector: "a", Attr: "href", ResolveURL: true},
				{Name: "short_description", Selector: "div.short-description"},
			},
		},
	}
}

// Testimonials is the infinite-scroll testimonial wall. The rating is
// rendered as one svg star per point.
func Testimonials() Feed {
	return Feed{
		Name: "testimonials",
		Kind: KindScroll,
		Path: "/testimonials",
		Spec: models.RecordSpec{
			Container: "div.testimonial",
			Fields: []models.FieldSpec{
				{Name: "username", Selector: "identicon-svg", Attr: "username"},
				{Name: "rating", Selector: "span.rating svg", Transform: models.TransformCount},
				{Name: "text", Selector: "p.text"},
			},
		},
	}
}

// Reviews is the load-more review feed. The review ID lives on the
// container node itself, and the date is stored both raw and parsed so
// unparsable dates stay visible downstream.
func Reviews() Feed {
	return Feed{
		Name:            "reviews",
		Kind:            KindLoadMore,
		Path:            "/reviews",
		ControlSelector: "#page-load-more",
		Spec: models.RecordSpec{
			Container: `div.review[data-testid="review"]`,
			Fields: []models.FieldSpec{
				{Name: "review_id", Attr: "data-review-id"},
				{Name: "date_raw", Selector: `span[data-testid="review-date"]`},
				{Name: "date_parsed", Selector: `span[data-testid="review-date"]`, Transform: models.TransformDate},
				{Name: "stars", Selector: `span[data-testid="review-stars"] svg`, Transform: models.TransformCount},
				{Name: "text", Selector: `p[data-testid="review-text"]`},
			},
		},
	}
}
