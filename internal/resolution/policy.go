package resolution

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/autocrm-backend/internal/domain/support"
	"github.com/yungbote/autocrm-backend/internal/platform/envutil"
)

const DefaultConfidenceThreshold = 0.8

// Policy decides how an AI assessment moves a ticket.
type Policy struct {
	// ConfidenceThreshold must be strictly exceeded before the policy acts.
	ConfidenceThreshold float64              `yaml:"confidence_threshold"`
	ResolveStatus       support.TicketStatus `yaml:"resolve_status"`
	EscalateStatus      support.TicketStatus `yaml:"escalate_status"`
}

func DefaultPolicy() Policy {
	return Policy{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		ResolveStatus:       support.StatusResolved,
		EscalateStatus:      support.StatusInProgress,
	}
}

// PolicyFromEnv starts from the defaults, overlays RESOLUTION_POLICY_FILE when
// set, then the individual RESOLUTION_* variables.
func PolicyFromEnv() (Policy, error) {
	p := DefaultPolicy()
	if path := envutil.String("RESOLUTION_POLICY_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Policy{}, fmt.Errorf("read resolution policy: %w", err)
		}
		if p, err = ParsePolicyYAML(raw); err != nil {
			return Policy{}, err
		}
	}
	p.ConfidenceThreshold = envutil.Float("RESOLUTION_CONFIDENCE_THRESHOLD", p.ConfidenceThreshold)
	if raw := envutil.String("RESOLUTION_RESOLVE_STATUS", ""); raw != "" {
		p.ResolveStatus = support.TicketStatus(raw)
	}
	if raw := envutil.String("RESOLUTION_ESCALATE_STATUS", ""); raw != "" {
		p.EscalateStatus = support.TicketStatus(raw)
	}
	return p.normalized()
}

// ParsePolicyYAML reads a policy document; omitted fields keep their defaults.
func ParsePolicyYAML(raw []byte) (Policy, error) {
	p := DefaultPolicy()
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Policy{}, fmt.Errorf("parse resolution policy: %w", err)
	}
	return p.normalized()
}

func (p Policy) normalized() (Policy, error) {
	if p.ConfidenceThreshold < 0 || p.ConfidenceThreshold > 1 {
		return Policy{}, fmt.Errorf("confidence_threshold must be within [0,1], got %v", p.ConfidenceThreshold)
	}
	resolve, ok := support.ParseTicketStatus(string(p.ResolveStatus))
	if !ok {
		return Policy{}, fmt.Errorf("unknown resolve_status %q", p.ResolveStatus)
	}
	escalate, ok := support.ParseTicketStatus(string(p.EscalateStatus))
	if !ok {
		return Policy{}, fmt.Errorf("unknown escalate_status %q", p.EscalateStatus)
	}
	p.ResolveStatus = resolve
	p.EscalateStatus = escalate
	return p, nil
}

func (p Policy) String() string {
	return fmt.Sprintf("threshold>%.2f resolve=%q escalate=%q", p.ConfidenceThreshold, p.ResolveStatus, p.EscalateStatus)
}
