package nstc

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"
)

const (
	gridSelector = "#wUctlAwardQueryPage_grdResult"
	rowSelector  = "tr.Grid_Row"
	minRowCells  = 4
)

type contentField int

const (
	fieldPlanName contentField = iota
	fieldPeriod
	fieldTotalAmount
	fieldImpactPreview
	fieldKeywordsZh
	fieldKeywordsEn
	fieldCount
)

type contentFields [fieldCount]string

// span id fragments of each field inside the content cell, the full ids carry
// a per-row suffix.
var contentFieldKeys = [fieldCount]string{
	fieldPlanName:      "lblAWARD_PLAN_CHI_DESCc_",
	fieldPeriod:        "lblAWARD_ST_ENDc_",
	fieldTotalAmount:   "lblAWARD_TOT_AUD_AMTc_",
	fieldImpactPreview: "lblIMPACT_Sc_",
	fieldKeywordsZh:    "lblKEYS_CHIc_",
	fieldKeywordsEn:    "lblKEYS_ENGc_",
}

var (
	isSpan          = isTag(atom.Span)
	isClickable     = isTag(atom.A, atom.Input)
	isImpactDetail  = both(isTag(atom.A), idContains("lnkZIMPACT_S_"))
	fieldPredicates = func() [fieldCount]nodePredicate {
		var out [fieldCount]nodePredicate
		for f, key := range contentFieldKeys {
			out[f] = both(isSpan, idContains(key))
		}
		return out
	}()
)

// projectNoPatterns are the onclick shapes known to carry a project number,
// in priority order.
var projectNoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`AwardDialog3\.aspx\?no=([A-Za-z0-9]+)`),
	regexp.MustCompile(`AwardDialog\.aspx\?year=\d+&sys=[^&]+&no=([A-Za-z0-9]+)`),
}

type SearchParams struct {
	// Year is a ROC calendar year, ex. 113.
	Year int
	// Code is the award category, ex. QS01.
	Code string
	// Name is the principal investigator, it may be in Chinese.
	Name string
	// Organ optionally filters by institution.
	Organ string
}

func (p SearchParams) query() url.Values {
	return url.Values{
		"year":  {strconv.Itoa(p.Year)},
		"code":  {p.Code},
		"organ": {p.Organ},
		"name":  {p.Name},
	}
}

// Search lists the awards matching params in the order the registry lists
// them. Rows whose impact preview links to a detail page get the full
// narrative from FetchDetail.
//
// A page without a result grid means no matches, the only error returned is
// a *TransportError.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]AwardRecord, error) {
	ctx, span := tracer.Start(ctx, "client:Search")
	defer span.End()
	span.SetAttributes(
		attribute.Int("year", params.Year),
		attribute.String("code", params.Code),
	)

	doc, err := c.get(ctx, "search", listEndpoint, params.query())
	if err != nil {
		c.tel.ReportBroken(report_client_search, fmt.Errorf("fetch: %w", err), params)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch award list")
		return nil, err
	}

	rows := c.parseAwardGrid(doc)

	err = c.fetchFullImpacts(ctx, rows)
	if err != nil {
		c.tel.ReportBroken(report_client_search, fmt.Errorf("fetch detail: %w", err), params)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch impact detail")
		return nil, err
	}

	records := make([]AwardRecord, len(rows))
	for i, row := range rows {
		records[i] = newAwardRecord(row)
	}
	c.tel.ReportCount(report_client_search, int64(len(records)))

	return records, nil
}

func (c *Client) parseAwardGrid(doc *goquery.Document) []awardRow {
	grid := doc.Find(gridSelector).First()
	if grid.Length() == 0 {
		c.tel.ReportDebug("no result grid")
		return nil
	}

	var rows []awardRow
	grid.Find(rowSelector).Each(func(i int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td")
		if cells.Length() < minRowCells {
			c.tel.ReportWarning(
				report_client_search,
				fmt.Errorf("row has %d cells, expected at least %d", cells.Length(), minRowCells),
				i,
			)
			return
		}
		rows = append(rows, parseAwardRow(cells.Nodes))
	})

	return rows
}

func parseAwardRow(cells []*html.Node) awardRow {
	content := cells[3]
	return awardRow{
		awardYear:     plainText(cells[0]),
		piName:        plainText(cells[1]),
		organ:         plainText(cells[2]),
		content:       extractContentFields(content),
		projectNo:     extractProjectNo(content),
		hasDetailLink: findFirst(content, isImpactDetail) != nil,
	}
}

// extractContentFields takes the text of the first matching span of every
// field in a single pass over the cell.
func extractContentFields(cell *html.Node) contentFields {
	var fields contentFields
	var found [fieldCount]bool
	remaining := int(fieldCount)

	walk(cell, func(n *html.Node) bool {
		for f, match := range fieldPredicates {
			if found[f] || !match(n) {
				continue
			}
			fields[f] = plainText(n)
			found[f] = true
			remaining--
		}
		return remaining > 0
	})

	return fields
}

// extractProjectNo returns the project number embedded in the onclick handler
// of the first link or button that has one, or "".
func extractProjectNo(cell *html.Node) string {
	for _, n := range findAll(cell, isClickable) {
		onclick, ok := attr(n, "onclick")
		if !ok {
			continue
		}
		for _, pattern := range projectNoPatterns {
			groups := pattern.FindStringSubmatch(onclick)
			if len(groups) == 2 {
				return groups[1]
			}
		}
	}
	return ""
}

// fetchFullImpacts replaces the preview of every row that links to a detail
// page, at most detailWorkers fetches run at once and each one only writes
// its own row.
func (c *Client) fetchFullImpacts(ctx context.Context, rows []awardRow) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.detailWorkers)

	for i := range rows {
		row := &rows[i]
		if row.projectNo == "" || !row.hasDetailLink {
			continue
		}
		group.Go(func() error {
			text, err := c.FetchDetail(groupCtx, row.projectNo)
			if err != nil {
				return err
			}
			row.fullImpact = text
			return nil
		})
	}

	return group.Wait()
}
