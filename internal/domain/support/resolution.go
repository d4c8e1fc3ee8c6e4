package support

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

type ResolutionStatus string

const (
	ResolutionContinue            ResolutionStatus = "continue"
	ResolutionPotentialResolution ResolutionStatus = "potential_resolution"
	ResolutionEscalate            ResolutionStatus = "escalate"
)

func ParseResolutionStatus(raw string) (ResolutionStatus, bool) {
	switch ResolutionStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case ResolutionContinue:
		return ResolutionContinue, true
	case ResolutionPotentialResolution:
		return ResolutionPotentialResolution, true
	case ResolutionEscalate:
		return ResolutionEscalate, true
	default:
		return "", false
	}
}

// ResolutionAssessment is the model's judgement of where a conversation stands.
// It is stored as a nullable JSON column on AI messages.
type ResolutionAssessment struct {
	Status     ResolutionStatus `json:"status"`
	Confidence float64          `json:"confidence"`
	Reason     string           `json:"reason"`
}

// Normalize clamps confidence into [0,1] and maps unknown statuses to escalate.
func (r ResolutionAssessment) Normalize() ResolutionAssessment {
	if s, ok := ParseResolutionStatus(string(r.Status)); ok {
		r.Status = s
	} else {
		r.Status = ResolutionEscalate
	}
	switch {
	case r.Confidence != r.Confidence, r.Confidence < 0:
		r.Confidence = 0
	case r.Confidence > 1:
		r.Confidence = 1
	}
	r.Reason = strings.TrimSpace(r.Reason)
	return r
}

func (r ResolutionAssessment) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *ResolutionAssessment) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("resolution: unsupported scan type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, r)
}
