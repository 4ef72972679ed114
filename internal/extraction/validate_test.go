package extraction_test

import (
	"slices"
	"testing"

	"github.com/registrum/registrum/internal/extraction"
)

func findingCodes(findings []extraction.Finding) []string {
	codes := make([]string, len(findings))
	for i, f := range findings {
		codes[i] = f.Code
	}
	return codes
}

func hasCode(findings []extraction.Finding, code string) bool {
	return slices.Contains(findingCodes(findings), code)
}

func completeSubject(name string, scores ...float64) extraction.RawSubject {
	s := extraction.RawSubject{
		Name: extraction.TextOf(name),
		Maxima: extraction.Maxima{
			Period: extraction.NumOf(40),
			Exam:   extraction.NumOf(80),
			Total:  extraction.NumOf(240),
		},
	}

	fields := []*extraction.Num{
		&s.FirstTerm.First, &s.FirstTerm.Second, &s.FirstTerm.Exam,
		&s.SecondTerm.First, &s.SecondTerm.Second, &s.SecondTerm.Exam,
		&s.Total,
	}
	for i, v := range scores {
		if i >= len(fields) {
			break
		}
		*fields[i] = extraction.NumOf(v)
	}
	return s
}

func completeRecord(subjects ...extraction.RawSubject) extraction.RawRecord {
	return extraction.RawRecord{
		StudentName:  extraction.TextOf("Kalombo Mbuyi"),
		SchoolName:   extraction.TextOf("Institut de la Gombe"),
		FormType:     extraction.TextOf("bulletin"),
		SchoolYear:   extraction.TextOf("2023-2024"),
		Subjects:     subjects,
		IssuerCode:   extraction.TextOf("KIN-042"),
		VerifierName: extraction.TextOf("M. Tshisekedi"),
	}
}

func TestValidateCompleteRecord(t *testing.T) {
	record := completeRecord(completeSubject("Mathématiques", 31, 28, 62, 30, 29, 58, 238))
	report := extraction.Validate(record)

	if !report.IsValid {
		t.Errorf("IsValid = false, errors = %v", report.Errors)
	}
	if len(report.MissingRequired) != 0 {
		t.Errorf("MissingRequired = %v, want empty", report.MissingRequired)
	}
	if report.SubjectCount != 1 {
		t.Errorf("SubjectCount = %d, want 1", report.SubjectCount)
	}
	if !report.HasMinimumData {
		t.Error("HasMinimumData = false, want true")
	}
}

func TestValidateEmptyRecord(t *testing.T) {
	report := extraction.Validate(extraction.RawRecord{})

	if report.IsValid {
		t.Error("IsValid = true for an empty record")
	}
	if !hasCode(report.Errors, extraction.CodeNoSubjects) {
		t.Errorf("errors = %v, want %s", findingCodes(report.Errors), extraction.CodeNoSubjects)
	}

	wantMissing := []string{"student_name", "form_type", "school_year", "subjects"}
	if !slices.Equal(report.MissingRequired, wantMissing) {
		t.Errorf("MissingRequired = %v, want %v", report.MissingRequired, wantMissing)
	}
	if report.HasMinimumData {
		t.Error("HasMinimumData = true, want false")
	}
	if report.QualityScore != nil {
		t.Errorf("QualityScore = %v, want nil", *report.QualityScore)
	}
}

func TestValidateCeilings(t *testing.T) {
	tests := []struct {
		name    string
		ceiling extraction.Num
		flagged bool
	}{
		{"below minimum", extraction.NumOf(5), true},
		{"just below minimum", extraction.NumOf(9.5), true},
		{"at minimum", extraction.NumOf(10), false},
		{"above minimum", extraction.NumOf(40), false},
		{"absent", extraction.Num{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := completeSubject("Religion", 8, 7, 16)
			s.Maxima.Period = tt.ceiling

			report := extraction.Validate(completeRecord(s))
			got := hasCode(report.Errors, extraction.CodeCeilingTooLow)
			if got != tt.flagged {
				t.Errorf("ceiling %v flagged = %v, want %v", tt.ceiling, got, tt.flagged)
			}
		})
	}
}

func TestValidateSubjectFindings(t *testing.T) {
	t.Run("nameless subject is an error", func(t *testing.T) {
		report := extraction.Validate(completeRecord(extraction.RawSubject{
			Total: extraction.NumOf(120),
		}))
		if !hasCode(report.Errors, extraction.CodeMissingName) {
			t.Errorf("errors = %v, want %s", findingCodes(report.Errors), extraction.CodeMissingName)
		}
	})

	t.Run("named subject without scores warns", func(t *testing.T) {
		report := extraction.Validate(completeRecord(extraction.RawSubject{
			Name: extraction.TextOf("Dessin"),
		}))
		if !hasCode(report.Warnings, extraction.CodeNoScores) {
			t.Errorf("warnings = %v, want %s", findingCodes(report.Warnings), extraction.CodeNoScores)
		}
		if report.IsValid != true {
			t.Error("a missing-scores warning should not invalidate the record")
		}
	})

	t.Run("non-numeric score is an error", func(t *testing.T) {
		s := completeSubject("Physique", 12, 14, 30)
		s.Total = extraction.Num{Present: true, Raw: "illisible"}

		report := extraction.Validate(completeRecord(s))
		if !hasCode(report.Errors, extraction.CodeNotNumeric) {
			t.Errorf("errors = %v, want %s", findingCodes(report.Errors), extraction.CodeNotNumeric)
		}
	})

	t.Run("non-numeric general total is an error", func(t *testing.T) {
		record := completeRecord(completeSubject("Chimie", 12, 14, 30))
		record.GeneralTotal = extraction.Num{Present: true, Raw: "N/A"}

		report := extraction.Validate(record)
		if !hasCode(report.Errors, extraction.CodeNotNumeric) {
			t.Errorf("errors = %v, want %s", findingCodes(report.Errors), extraction.CodeNotNumeric)
		}
	})
}

func TestValidateUniformPattern(t *testing.T) {
	t.Run("six multiples of five warn", func(t *testing.T) {
		report := extraction.Validate(completeRecord(
			completeSubject("Mathématiques", 30, 35, 70, 25, 30, 60),
		))
		if !hasCode(report.Warnings, extraction.CodeUniformPattern) {
			t.Errorf("warnings = %v, want %s", findingCodes(report.Warnings), extraction.CodeUniformPattern)
		}
		if !report.IsValid {
			t.Error("a uniform-pattern warning should not invalidate the record")
		}
	})

	t.Run("one off-multiple score suppresses the warning", func(t *testing.T) {
		report := extraction.Validate(completeRecord(
			completeSubject("Mathématiques", 30, 35, 70, 25, 31, 60),
		))
		if hasCode(report.Warnings, extraction.CodeUniformPattern) {
			t.Errorf("warnings = %v, did not want %s", findingCodes(report.Warnings), extraction.CodeUniformPattern)
		}
	})

	t.Run("fewer than six scores never warn", func(t *testing.T) {
		report := extraction.Validate(completeRecord(
			completeSubject("Religion", 10, 15, 20, 25, 30),
		))
		if hasCode(report.Warnings, extraction.CodeUniformPattern) {
			t.Errorf("warnings = %v, did not want %s", findingCodes(report.Warnings), extraction.CodeUniformPattern)
		}
	})
}

func TestValidateConfidenceSpread(t *testing.T) {
	flat := func(confidence float64) extraction.RawSubject {
		s := completeSubject("Français", 14, 14, 14, 14.5)
		s.Confidence = extraction.NumOf(confidence)
		return s
	}

	t.Run("high confidence with flat scores warns", func(t *testing.T) {
		report := extraction.Validate(completeRecord(flat(95)))
		if !hasCode(report.Warnings, extraction.CodeConfidenceSpread) {
			t.Errorf("warnings = %v, want %s", findingCodes(report.Warnings), extraction.CodeConfidenceSpread)
		}
	})

	t.Run("confidence at threshold does not warn", func(t *testing.T) {
		report := extraction.Validate(completeRecord(flat(90)))
		if hasCode(report.Warnings, extraction.CodeConfidenceSpread) {
			t.Errorf("warnings = %v, did not want %s", findingCodes(report.Warnings), extraction.CodeConfidenceSpread)
		}
	})

	t.Run("spread scores do not warn", func(t *testing.T) {
		s := completeSubject("Français", 8, 14, 32, 19)
		s.Confidence = extraction.NumOf(95)

		report := extraction.Validate(completeRecord(s))
		if hasCode(report.Warnings, extraction.CodeConfidenceSpread) {
			t.Errorf("warnings = %v, did not want %s", findingCodes(report.Warnings), extraction.CodeConfidenceSpread)
		}
	})

	t.Run("fewer than four scores do not warn", func(t *testing.T) {
		s := completeSubject("Français", 14, 14, 14)
		s.Confidence = extraction.NumOf(98)

		report := extraction.Validate(completeRecord(s))
		if hasCode(report.Warnings, extraction.CodeConfidenceSpread) {
			t.Errorf("warnings = %v, did not want %s", findingCodes(report.Warnings), extraction.CodeConfidenceSpread)
		}
	})
}

func TestValidateAdvisories(t *testing.T) {
	record := completeRecord(completeSubject("Histoire", 12, 13, 28))
	record.IssuerCode = extraction.Text{}
	record.VerifierName = extraction.Text{}

	report := extraction.Validate(record)

	if !hasCode(report.Warnings, extraction.CodeMissingIssuer) {
		t.Errorf("warnings = %v, want %s", findingCodes(report.Warnings), extraction.CodeMissingIssuer)
	}
	if !hasCode(report.Warnings, extraction.CodeMissingVerifier) {
		t.Errorf("warnings = %v, want %s", findingCodes(report.Warnings), extraction.CodeMissingVerifier)
	}
	if !report.IsValid {
		t.Error("advisory warnings should not invalidate the record")
	}
}

func TestValidateQualityScore(t *testing.T) {
	record := completeRecord(completeSubject("Géographie", 11, 12, 26))
	record.Confidence = extraction.NumOf(87.5)

	report := extraction.Validate(record)

	if report.QualityScore == nil || *report.QualityScore != 87.5 {
		t.Errorf("QualityScore = %v, want 87.5", report.QualityScore)
	}
}

func TestParseRecord(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		record, err := extraction.ParseRecord([]byte(`{"student_name": "Ilunga Kasongo", "subjects": [{"name": "Biologie"}]}`))
		if err != nil {
			t.Fatalf("ParseRecord error = %v", err)
		}
		if record.StudentName.Value != "Ilunga Kasongo" {
			t.Errorf("StudentName = %q, want Ilunga Kasongo", record.StudentName.Value)
		}
		if len(record.Subjects) != 1 {
			t.Errorf("subjects = %d, want 1", len(record.Subjects))
		}
	})

	t.Run("fenced json", func(t *testing.T) {
		payload := "```json\n{\"student_name\": \"Ilunga Kasongo\"}\n```"
		record, err := extraction.ParseRecord([]byte(payload))
		if err != nil {
			t.Fatalf("ParseRecord error = %v", err)
		}
		if record.StudentName.Value != "Ilunga Kasongo" {
			t.Errorf("StudentName = %q, want Ilunga Kasongo", record.StudentName.Value)
		}
	})

	t.Run("non-json payload", func(t *testing.T) {
		record, err := extraction.ParseRecord([]byte("scanned page was blank"))
		if err == nil {
			t.Fatal("ParseRecord error = nil, want parse failure")
		}

		report := extraction.Validate(record)
		if report.IsValid {
			t.Error("zero record validated as valid")
		}
	})

	t.Run("mistyped fields parse without error", func(t *testing.T) {
		payload := `{
			"student_name": 12345,
			"subjects": [{"name": "Chimie", "total": "quinze", "maxima": {"period": "40"}}],
			"confidence": "high"
		}`
		record, err := extraction.ParseRecord([]byte(payload))
		if err != nil {
			t.Fatalf("ParseRecord error = %v", err)
		}

		if record.StudentName.Value != "12345" {
			t.Errorf("StudentName = %q, want coerced 12345", record.StudentName.Value)
		}
		if v, ok := record.Subjects[0].Maxima.Period.Float(); !ok || v != 40 {
			t.Errorf("Maxima.Period = %v, %v, want 40 from quoted numeric", v, ok)
		}

		report := extraction.Validate(record)
		if report.IsValid {
			t.Error("record with non-numeric score fields validated as valid")
		}
		if !hasCode(report.Errors, extraction.CodeNotNumeric) {
			t.Errorf("errors = %v, want %s", findingCodes(report.Errors), extraction.CodeNotNumeric)
		}
	})
}
