package nstc

// AwardRecord is one funded award as listed by the registry. Text fields are
// empty, never missing, when the markup does not carry them.
type AwardRecord struct {
	AwardYear   string `json:"award_year"`
	PiName      string `json:"pi_name"`
	Organ       string `json:"organ"`
	PlanName    string `json:"plan_name"`
	Period      string `json:"period"`
	TotalAmount string `json:"total_amount"`
	// Impact is the list preview, or the full narrative from the detail page
	// when one was recovered.
	Impact     string `json:"impact"`
	KeywordsZh string `json:"keywords_zh"`
	KeywordsEn string `json:"keywords_en"`
	// ProjectNo is nil when no dialog link in the row carried one.
	ProjectNo *string `json:"project_no"`
}

// awardRow holds what was extracted from a single grid row.
type awardRow struct {
	awardYear string
	piName    string
	organ     string
	content   contentFields

	projectNo     string
	hasDetailLink bool
	fullImpact    string
}

func newAwardRecord(row awardRow) AwardRecord {
	impact := row.content[fieldImpactPreview]
	if row.fullImpact != "" {
		impact = row.fullImpact
	}

	var projectNo *string
	if row.projectNo != "" {
		no := row.projectNo
		projectNo = &no
	}

	return AwardRecord{
		AwardYear:   row.awardYear,
		PiName:      row.piName,
		Organ:       row.organ,
		PlanName:    row.content[fieldPlanName],
		Period:      row.content[fieldPeriod],
		TotalAmount: row.content[fieldTotalAmount],
		Impact:      impact,
		KeywordsZh:  row.content[fieldKeywordsZh],
		KeywordsEn:  row.content[fieldKeywordsEn],
		ProjectNo:   projectNo,
	}
}
