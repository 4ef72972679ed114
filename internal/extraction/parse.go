package extraction

import (
	"fmt"

	"github.com/registrum/registrum/pkg/formatting"
)

// ParseRecord decodes an upstream extraction payload into a RawRecord.
// Model output is frequently wrapped in a markdown code fence, so the
// payload is parsed through formatting.Parse. A failure here means the
// payload was not JSON at all; callers should validate the zero record,
// which reports every required field as missing.
func ParseRecord(data []byte) (RawRecord, error) {
	record, err := formatting.Parse[RawRecord](string(data))
	if err != nil {
		return RawRecord{}, fmt.Errorf("parse extraction payload: %w", err)
	}
	return record, nil
}
