package extraction

import (
	"fmt"
	"math"
)

// MinCeiling is the domain floor for any scale ceiling. Report card scales
// never go below 10 points; a smaller ceiling is always an extraction error.
const MinCeiling = 10

// Anomaly-detection thresholds. Tuned against human-reviewed extraction
// batches; advisory only.
const (
	uniformMinValues    = 6
	uniformMultiple     = 5
	spreadMinValues     = 4
	spreadMaxVariance   = 1.0
	spreadMinConfidence = 90
)

// Finding is a single validation outcome tied to a field.
type Finding struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Finding codes.
const (
	CodeNoSubjects       = "no_subjects"
	CodeMissingName      = "missing_subject_name"
	CodeCeilingTooLow    = "ceiling_below_minimum"
	CodeNotNumeric       = "not_numeric"
	CodeNoScores         = "no_scores_extracted"
	CodeUniformPattern   = "suspicious_uniform_pattern"
	CodeConfidenceSpread = "confidence_inconsistent_with_spread"
	CodeMissingIssuer    = "missing_issuer_code"
	CodeMissingVerifier  = "missing_verifier"
)

// Report is the structured outcome of validating one RawRecord. It is
// derived deterministically and never mutated; rerun Validate to refresh.
type Report struct {
	IsValid         bool      `json:"is_valid"`
	Errors          []Finding `json:"errors"`
	Warnings        []Finding `json:"warnings"`
	MissingRequired []string  `json:"missing_required"`
	QualityScore    *float64  `json:"quality_score"`
	SubjectCount    int       `json:"subject_count"`
	HasMinimumData  bool      `json:"has_minimum_data"`
}

// Validate inspects an untrusted record and returns a Report. It is total:
// malformed or absent data produces findings, never a panic or an error.
// Errors block approval-quality data (structurally broken or domain
// impossible); warnings surface suspicious patterns for the human reviewer,
// since OCR-derived data produces expected false positives.
func Validate(record RawRecord) Report {
	report := Report{
		Errors:   []Finding{},
		Warnings: []Finding{},
	}

	report.MissingRequired = missingRequired(record)

	report.SubjectCount = len(record.Subjects)
	if len(record.Subjects) == 0 {
		report.Errors = append(report.Errors, Finding{
			Code:    CodeNoSubjects,
			Field:   "subjects",
			Message: "no subject rows were extracted",
		})
	}

	for i, subject := range record.Subjects {
		validateSubject(&report, i, subject)
	}

	validateRecordTypes(&report, record)

	if record.IssuerCode.Empty() {
		report.Warnings = append(report.Warnings, Finding{
			Code:    CodeMissingIssuer,
			Field:   "issuer_code",
			Message: "issuer code was not extracted",
		})
	}
	if record.VerifierName.Empty() {
		report.Warnings = append(report.Warnings, Finding{
			Code:    CodeMissingVerifier,
			Field:   "verifier_name",
			Message: "verifier identity was not extracted",
		})
	}

	report.IsValid = len(report.Errors) == 0
	if score, ok := record.Confidence.Float(); ok {
		report.QualityScore = &score
	}
	report.HasMinimumData = !record.StudentName.Empty() && len(record.Subjects) > 0

	return report
}

// missingRequired records absent top-level fields. Absence alone does not
// invalidate the record; the reviewer may be able to fill the gap.
func missingRequired(record RawRecord) []string {
	missing := []string{}
	if record.StudentName.Empty() {
		missing = append(missing, "student_name")
	}
	if record.FormType.Empty() {
		missing = append(missing, "form_type")
	}
	if record.SchoolYear.Empty() {
		missing = append(missing, "school_year")
	}
	if len(record.Subjects) == 0 {
		missing = append(missing, "subjects")
	}
	return missing
}

func validateSubject(report *Report, index int, subject RawSubject) {
	prefix := fmt.Sprintf("subjects[%d]", index)

	if subject.Name.Empty() {
		report.Errors = append(report.Errors, Finding{
			Code:    CodeMissingName,
			Field:   prefix + ".name",
			Message: "subject row has no name",
		})
	}

	checkCeiling(report, prefix+".maxima.period", subject.Maxima.Period)
	checkCeiling(report, prefix+".maxima.exam", subject.Maxima.Exam)
	checkCeiling(report, prefix+".maxima.total", subject.Maxima.Total)
	checkCeiling(report, prefix+".second_session.max", subject.SecondSession.Max)

	if !subject.Name.Empty() && !subject.HasAnyScore() {
		report.Warnings = append(report.Warnings, Finding{
			Code:    CodeNoScores,
			Field:   prefix,
			Message: fmt.Sprintf("no scores extracted for %q", subject.Name.Value),
		})
	}

	detectAnomalies(report, prefix, subject)
	validateSubjectTypes(report, prefix, subject)
}

// checkCeiling flags a present numeric ceiling below the domain minimum.
// Non-numeric values are left to the type-check pass.
func checkCeiling(report *Report, field string, ceiling Num) {
	if v, ok := ceiling.Float(); ok && v < MinCeiling {
		report.Errors = append(report.Errors, Finding{
			Code:    CodeCeilingTooLow,
			Field:   field,
			Message: fmt.Sprintf("ceiling %v is below the minimum scale of %d", v, MinCeiling),
		})
	}
}

// detectAnomalies runs the statistical plausibility heuristics over the
// subject's numeric scores. Findings here are advisory only and never
// escalate to errors: a human makes the final call.
func detectAnomalies(report *Report, prefix string, subject RawSubject) {
	scores := subject.Scores()

	if len(scores) >= uniformMinValues && allMultiplesOf(scores, uniformMultiple) {
		report.Warnings = append(report.Warnings, Finding{
			Code:    CodeUniformPattern,
			Field:   prefix,
			Message: fmt.Sprintf("all %d scores are multiples of %d; possible hallucinated values", len(scores), uniformMultiple),
		})
	}

	confidence, ok := subject.Confidence.Float()
	if !ok || confidence <= spreadMinConfidence || len(scores) < spreadMinValues {
		return
	}

	if variance(scores) < spreadMaxVariance {
		report.Warnings = append(report.Warnings, Finding{
			Code:    CodeConfidenceSpread,
			Field:   prefix,
			Message: fmt.Sprintf("confidence %.0f with near-identical scores; spread is implausibly low", confidence),
		})
	}
}

func validateSubjectTypes(report *Report, prefix string, subject RawSubject) {
	checkNumeric(report, prefix+".first_term.first", subject.FirstTerm.First)
	checkNumeric(report, prefix+".first_term.second", subject.FirstTerm.Second)
	checkNumeric(report, prefix+".first_term.exam", subject.FirstTerm.Exam)
	checkNumeric(report, prefix+".second_term.first", subject.SecondTerm.First)
	checkNumeric(report, prefix+".second_term.second", subject.SecondTerm.Second)
	checkNumeric(report, prefix+".second_term.exam", subject.SecondTerm.Exam)
	checkNumeric(report, prefix+".total", subject.Total)
	checkNumeric(report, prefix+".maxima.period", subject.Maxima.Period)
	checkNumeric(report, prefix+".maxima.exam", subject.Maxima.Exam)
	checkNumeric(report, prefix+".maxima.total", subject.Maxima.Total)
	checkNumeric(report, prefix+".second_session.score", subject.SecondSession.Score)
	checkNumeric(report, prefix+".second_session.max", subject.SecondSession.Max)
	checkNumeric(report, prefix+".confidence", subject.Confidence)
}

func validateRecordTypes(report *Report, record RawRecord) {
	checkNumeric(report, "general_total", record.GeneralTotal)
	checkNumeric(report, "confidence", record.Confidence)
}

// checkNumeric flags a declared numeric field that arrived present but
// non-numeric.
func checkNumeric(report *Report, field string, n Num) {
	if n.Present && !n.IsNumber {
		report.Errors = append(report.Errors, Finding{
			Code:    CodeNotNumeric,
			Field:   field,
			Message: fmt.Sprintf("expected a number, got %q", n.Raw),
		})
	}
}

func allMultiplesOf(values []float64, multiple float64) bool {
	for _, v := range values {
		if math.Mod(v, multiple) != 0 {
			return false
		}
	}
	return true
}

// variance is the population variance of values.
func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return sq / float64(len(values))
}
