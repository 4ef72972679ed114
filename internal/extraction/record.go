// Package extraction models the untrusted structured output of upstream
// document extraction and implements the sorting and validation passes that
// run before a record enters review. Every field is optional: the producer
// is an AI model reading scanned report cards and diplomas, and any field
// may be absent, null, or mistyped. Parsing is total; findings about bad
// data belong to the validator, not the parser.
package extraction

import (
	"bytes"
	"encoding/json"
)

// RawRecord is one extracted document as received from upstream.
type RawRecord struct {
	StudentName  Text        `json:"student_name"`
	SchoolName   Text        `json:"school_name"`
	FormType     Text        `json:"form_type"`
	SchoolYear   Text        `json:"school_year"`
	Subjects     SubjectList `json:"subjects"`
	GeneralTotal Num         `json:"general_total"`
	IssueDate    Text        `json:"issue_date"`
	IssuerCode   Text        `json:"issuer_code"`
	VerifierName Text        `json:"verifier_name"`
	Confidence   Num         `json:"confidence"`
}

// SubjectList tolerates a malformed subjects field: a single object is
// wrapped, anything that is not an array or object parses as empty.
type SubjectList []RawSubject

// UnmarshalJSON never fails.
func (l *SubjectList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	var subjects []RawSubject
	if err := json.Unmarshal(data, &subjects); err == nil {
		*l = subjects
		return nil
	}

	var single RawSubject
	if len(data) > 0 && data[0] == '{' {
		if err := json.Unmarshal(data, &single); err == nil {
			*l = SubjectList{single}
			return nil
		}
	}

	*l = nil
	return nil
}

// PeriodScores holds the per-period sub-scores of one term.
type PeriodScores struct {
	First  Num `json:"first"`
	Second Num `json:"second"`
	Exam   Num `json:"exam"`
}

// Maxima is the group of scale ceilings for a subject row: the maximum
// attainable period score, exam score, and total.
type Maxima struct {
	Period Num `json:"period"`
	Exam   Num `json:"exam"`
	Total  Num `json:"total"`
}

// SecondSession is the optional make-up exam score and its ceiling.
type SecondSession struct {
	Score Num `json:"score"`
	Max   Num `json:"max"`
}

// RawSubject is one extracted subject row.
type RawSubject struct {
	Name          Text          `json:"name"`
	FirstTerm     PeriodScores  `json:"first_term"`
	SecondTerm    PeriodScores  `json:"second_term"`
	Total         Num           `json:"total"`
	Maxima        Maxima        `json:"maxima"`
	SecondSession SecondSession `json:"second_session"`
	Confidence    Num           `json:"confidence"`
}

// Scores returns the subject's non-null numeric sub-scores: the six period
// sub-scores plus the overall total, in document order.
func (s RawSubject) Scores() []float64 {
	fields := []Num{
		s.FirstTerm.First, s.FirstTerm.Second, s.FirstTerm.Exam,
		s.SecondTerm.First, s.SecondTerm.Second, s.SecondTerm.Exam,
		s.Total,
	}

	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		if v, ok := f.Float(); ok {
			values = append(values, v)
		}
	}
	return values
}

// HasAnyScore reports whether any score field was extracted at all,
// including a non-numeric one.
func (s RawSubject) HasAnyScore() bool {
	fields := []Num{
		s.FirstTerm.First, s.FirstTerm.Second, s.FirstTerm.Exam,
		s.SecondTerm.First, s.SecondTerm.Second, s.SecondTerm.Exam,
		s.Total, s.SecondSession.Score,
	}
	for _, f := range fields {
		if f.Present {
			return true
		}
	}
	return false
}
