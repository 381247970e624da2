package estat

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/estat-master/estat-master/internal/jsic"
)

// Table headings on an example page.
const (
	headingExample           = "事例"
	headingUnsuitableExample = "不適合事例"
)

// ExamplePages fetches example pages of one classification type.
type ExamplePages struct {
	client             *Client
	classificationType string
}

// Examples returns an ExampleFetcher for classificationType.
func (c *Client) Examples(classificationType string) *ExamplePages {
	return &ExamplePages{client: c, classificationType: classificationType}
}

// FetchExample fetches and parses the page of one class code. The release
// date comes from the client's revision table, not from the page.
func (p *ExamplePages) FetchExample(ctx context.Context, code, revision string) (jsic.ExampleRecord, error) {
	c := p.client
	rev, err := c.ResolveRevision(revision)
	if err != nil {
		return jsic.ExampleRecord{}, err
	}
	u := c.resolve(fmt.Sprintf("classifications/terms/%s/%s/%s",
		url.PathEscape(p.classificationType), url.PathEscape(rev), url.PathEscape(code)), nil)

	body, err := c.get(ctx, "fetchExample", u, c.exampleTimeout)
	if err != nil {
		return jsic.ExampleRecord{}, err
	}
	fields, err := ParseExamplePage(bytes.NewReader(body))
	if err != nil {
		return jsic.ExampleRecord{}, &SourceError{Op: "fetchExample", Err: fmt.Errorf("code %s: %w", code, err)}
	}

	rec := jsic.ExampleRecord{
		Code:        code,
		ReleaseDate: c.revisions.ReleaseDate(rev),
	}
	if v, ok := fields[headingExample]; ok {
		rec.Example = &v
	}
	if v, ok := fields[headingUnsuitableExample]; ok {
		rec.UnsuitableExample = &v
	}
	return rec, nil
}

// ParseExamplePage pairs every th with every td of the page in document
// order and returns heading -> text. The two counts must match. On a
// repeated heading the later cell wins.
func ParseExamplePage(r io.Reader) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse example page: %w", err)
	}
	ths := doc.Find("th")
	tds := doc.Find("td")
	if ths.Length() != tds.Length() {
		return nil, fmt.Errorf("example page has %d th cells but %d td cells", ths.Length(), tds.Length())
	}

	out := make(map[string]string, ths.Length())
	ths.Each(func(i int, th *goquery.Selection) {
		out[strippedText(th)] = strippedText(tds.Eq(i))
	})
	return out, nil
}

// strippedText concatenates every descendant text node of sel, each with its
// surrounding whitespace removed.
func strippedText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
			return
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return b.String()
}
