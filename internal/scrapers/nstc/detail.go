package nstc

import (
	"context"
	"fmt"
	"net/url"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html/atom"
)

// id fragments that mark the narrative on a detail page, most specific first.
var impactIdPredicates = []nodePredicate{
	idContains("lblIMPACT"),
	idContains("IMPACT_S"),
	idContains("Impact"),
	idContains("impact"),
}

var isTextBlock = isTag(atom.Td, atom.Div)

// FetchDetail returns the full impact narrative of a project, or "" when the
// detail page does not carry one.
func (c *Client) FetchDetail(ctx context.Context, projectNo string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:FetchDetail")
	defer span.End()
	span.SetAttributes(attribute.String("project_no", projectNo))

	doc, err := c.get(ctx, "fetch detail", detailEndpoint, url.Values{"no": {projectNo}})
	if err != nil {
		c.tel.ReportBroken(report_client_fetch_detail, fmt.Errorf("fetch: %w", err), projectNo)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch detail page")
		return "", err
	}

	text := ExtractImpactText(doc)
	if text == "" {
		c.tel.ReportWarning(report_client_fetch_detail, "no impact text on detail page", projectNo)
	}
	return text, nil
}

// ExtractImpactText recovers the narrative from a detail page. It prefers the
// first element whose id looks like an impact label and falls back to
// LongestTextBlock. It returns "" if neither finds any text.
func ExtractImpactText(doc *goquery.Document) string {
	if len(doc.Nodes) == 0 {
		return ""
	}
	root := doc.Nodes[0]

	for _, match := range impactIdPredicates {
		text := collapseWhitespace(visibleText(findFirst(root, match)))
		if text != "" {
			return text
		}
	}
	return LongestTextBlock(doc)
}

// LongestTextBlock returns the whitespace-collapsed text of the td or div with
// the most visible text. The detail page has no stable structure, the longest
// block is usually the narrative. Ties keep the first block in document order.
func LongestTextBlock(doc *goquery.Document) string {
	if len(doc.Nodes) == 0 {
		return ""
	}

	best := ""
	bestLen := 0
	for _, n := range findAll(doc.Nodes[0], isTextBlock) {
		text := visibleText(n)
		if length := utf8.RuneCountInString(text); length > bestLen {
			best = text
			bestLen = length
		}
	}
	return collapseWhitespace(best)
}
