package nstc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string {
	return &s
}

var expectedAwardList = []AwardRecord{
	{
		AwardYear:   "113",
		PiName:      "李文廷",
		Organ:       "國立臺灣大學",
		PlanName:    "智慧農業感測研究計畫",
		Period:      "2024/08/01~2025/07/31",
		TotalAmount: "1,200,000",
		Impact:      "Full impact text",
		KeywordsZh:  "智慧農業；感測網路",
		KeywordsEn:  "smart agriculture; sensor network",
		ProjectNo:   ptr("113WFA2110082"),
	},
	{
		AwardYear:   "113",
		PiName:      "陳美玲",
		Organ:       "國立成功大學",
		PlanName:    "海洋能源轉換",
		Period:      "2024/08/01~2027/07/31",
		TotalAmount: "3,600,000",
		Impact:      "完整的計畫概述",
		KeywordsZh:  "海洋能源",
		KeywordsEn:  "",
		ProjectNo:   ptr("112ABC0042"),
	},
	{
		AwardYear: "113",
		PiName:    "林志豪",
		Organ:     "國立交通大學",
		Impact:    "僅有摘要",
	},
}

func newAwardRegistry(t testing.TB) *registry {
	return &registry{
		t:             t,
		listFixture:   "award_list.html",
		detailFixture: map[string]string{"113WFA2110082": "detail_labeled.html"},
	}
}

func TestSearch(t *testing.T) {
	for _, workers := range []int{1, 4} {
		reg := newAwardRegistry(t)
		server := httptest.NewServer(reg)

		client, tel := newTestClient(t, server, ClientOptions{DetailWorkers: workers})
		records, err := client.Search(context.Background(), SearchParams{
			Year: 113,
			Code: "QS01",
			Name: "李文廷",
		})
		server.Close()
		require.NoError(t, err)

		if diff := cmp.Diff(expectedAwardList, records); diff != "" {
			t.Fatalf("workers=%d: records mismatch (-want +got):\n%s", workers, diff)
		}

		// only the row with both a project number and a detail link is enriched
		require.Equal(t, []string{"113WFA2110082"}, reg.DetailQueries())
		// the 3 cell row is reported and skipped
		require.Len(t, tel.Reports("warning", report_client_search), 1)
	}
}

func TestSearchQuery(t *testing.T) {
	reg := &registry{t: t, listFixture: "award_list_empty.html"}
	server := httptest.NewServer(reg)
	defer server.Close()

	client, _ := newTestClient(t, server, ClientOptions{})
	_, err := client.Search(context.Background(), SearchParams{Year: 112, Code: "QS01", Name: "李文廷"})
	require.NoError(t, err)

	queries := reg.ListQueries()
	require.Len(t, queries, 1)
	require.Equal(t, map[string][]string{
		"year":  {"112"},
		"code":  {"QS01"},
		"organ": {""},
		"name":  {"李文廷"},
	}, queries[0])
}

func TestSearchNoGrid(t *testing.T) {
	reg := &registry{t: t, listFixture: "award_list_empty.html"}
	server := httptest.NewServer(reg)
	defer server.Close()

	client, _ := newTestClient(t, server, ClientOptions{})
	records, err := client.Search(context.Background(), SearchParams{Year: 113, Code: "QS01", Name: "nobody"})
	require.NoError(t, err)
	require.NotNil(t, records)
	require.Empty(t, records)
}

func TestSearchIdempotent(t *testing.T) {
	reg := newAwardRegistry(t)
	server := httptest.NewServer(reg)
	defer server.Close()

	client, _ := newTestClient(t, server, ClientOptions{})
	params := SearchParams{Year: 113, Code: "QS01", Name: "李文廷"}

	first, err := client.Search(context.Background(), params)
	require.NoError(t, err)
	second, err := client.Search(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestSearchTransportErrors(t *testing.T) {
	cases := []struct {
		name         string
		listStatus   int
		detailStatus int
		expectStatus int
	}{
		{name: "list unavailable", listStatus: http.StatusServiceUnavailable, expectStatus: http.StatusServiceUnavailable},
		{name: "list not found", listStatus: http.StatusNotFound, expectStatus: http.StatusNotFound},
		{name: "detail failing", detailStatus: http.StatusInternalServerError, expectStatus: http.StatusInternalServerError},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			reg := newAwardRegistry(t)
			reg.listStatus = test.listStatus
			reg.detailStatus = test.detailStatus
			server := httptest.NewServer(reg)
			defer server.Close()

			client, tel := newTestClient(t, server, ClientOptions{})
			records, err := client.Search(context.Background(), SearchParams{Year: 113, Code: "QS01", Name: "李文廷"})
			require.Nil(t, records)

			var transportErr *TransportError
			require.ErrorAs(t, err, &transportErr)
			require.Equal(t, test.expectStatus, transportErr.StatusCode)
			require.NotEmpty(t, tel.Reports("broken", report_client_search))
		})
	}
}

func TestSearchConnectionFailure(t *testing.T) {
	server := httptest.NewServer(newAwardRegistry(t))
	client, _ := newTestClient(t, server, ClientOptions{})
	server.Close()

	_, err := client.Search(context.Background(), SearchParams{Year: 113, Code: "QS01", Name: "李文廷"})
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, "search", transportErr.Op)
	require.Error(t, transportErr.Err)
}

func parseCell(t *testing.T, inner string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		"<table><tr><td id=\"cell\">" + inner + "</td></tr></table>",
	))
	require.NoError(t, err)
	return doc.Find("#cell")
}

func TestExtractProjectNo(t *testing.T) {
	cases := []struct {
		name     string
		cell     string
		expected string
	}{
		{
			name:     "detail dialog",
			cell:     `<a onclick="window.open('AwardDialog3.aspx?no=113WFA2110082')">x</a>`,
			expected: "113WFA2110082",
		},
		{
			name:     "year and system qualified dialog",
			cell:     `<input type="button" onclick="OpenWindow('AwardDialog.aspx?year=113&sys=ABC&no=113WFA2110082')">`,
			expected: "113WFA2110082",
		},
		{
			name:     "first element wins",
			cell:     `<a onclick="AwardDialog.aspx?year=113&sys=ABC&no=FIRST1"></a><a onclick="AwardDialog3.aspx?no=SECOND2"></a>`,
			expected: "FIRST1",
		},
		{
			name:     "direct shape preferred within one handler",
			cell:     `<a onclick="AwardDialog.aspx?year=113&sys=ABC&no=QUALIFIED1;AwardDialog3.aspx?no=DIRECT1"></a>`,
			expected: "DIRECT1",
		},
		{
			name:     "span handlers are not scanned",
			cell:     `<span onclick="AwardDialog3.aspx?no=113WFA2110082"></span>`,
			expected: "",
		},
		{
			name:     "unknown shape",
			cell:     `<a onclick="AwardPrint.aspx?no=113WFA2110082"></a>`,
			expected: "",
		},
		{
			name:     "no handler",
			cell:     `<a href="AwardDialog3.aspx?no=113WFA2110082">x</a>`,
			expected: "",
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			cell := parseCell(t, test.cell)
			require.Equal(t, test.expected, extractProjectNo(cell.Nodes[0]))
		})
	}
}

func TestExtractContentFields(t *testing.T) {
	cell := parseCell(t, `
		<div>
			<span id="x_lblAWARD_PLAN_CHI_DESCc_7"> <b>計畫</b> 名稱 </span>
			<span id="x_lblAWARD_PLAN_CHI_DESCc_8">second match is ignored</span>
			<div id="x_lblAWARD_ST_ENDc_7">not a span</div>
			<span id="x_lblKEYS_ENGc_7">ai</span>
		</div>`)

	fields := extractContentFields(cell.Nodes[0])
	require.Equal(t, "計畫名稱", fields[fieldPlanName])
	require.Equal(t, "", fields[fieldPeriod])
	require.Equal(t, "", fields[fieldTotalAmount])
	require.Equal(t, "", fields[fieldImpactPreview])
	require.Equal(t, "", fields[fieldKeywordsZh])
	require.Equal(t, "ai", fields[fieldKeywordsEn])
}

func TestNewAwardRecord(t *testing.T) {
	var content contentFields
	content[fieldImpactPreview] = "preview"

	record := newAwardRecord(awardRow{content: content})
	require.Equal(t, AwardRecord{Impact: "preview"}, record)

	record = newAwardRecord(awardRow{content: content, fullImpact: "full", projectNo: "113A"})
	require.Equal(t, "full", record.Impact)
	require.Equal(t, ptr("113A"), record.ProjectNo)
}
