package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	// ErrPrioritizationFailed wraps every failure of the prioritization
	// service: transport, status, open breaker or malformed payload.
	ErrPrioritizationFailed = errors.New("prioritization failed")
	ErrMalformedResponse    = errors.New("malformed prioritization response")
)

// PrioritizationTask is one task in the service's request schema.
type PrioritizationTask struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
	Importance  string `json:"importance"`
	Type        string `json:"type"` // marketing|development
}

type PrioritizationInput struct {
	Tasks []PrioritizationTask `json:"tasks"`
}

// PrioritizedTask is one entry of the service's answer. Lower priority
// means more urgent.
type PrioritizedTask struct {
	ID       string `json:"id"`
	Priority int    `json:"priority"`
	Reason   string `json:"reason"`
}

type Prioritizer interface {
	Prioritize(ctx context.Context, in PrioritizationInput) ([]PrioritizedTask, error)
}

// SortByPriority returns a copy of result ordered by ascending priority,
// keeping the service's order between equal priorities.
func SortByPriority(result []PrioritizedTask) []PrioritizedTask {
	out := make([]PrioritizedTask, len(result))
	copy(out, result)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

type rawPrioritized struct {
	ID       string      `json:"id"`
	Priority json.Number `json:"priority"`
	Reason   string      `json:"reason"`
}

// decodePrioritized parses the assistant's text. It accepts a bare JSON array
// or an object wrapping the array under "prioritized", "tasks" or "result",
// optionally inside a markdown code fence.
func decodePrioritized(content string) ([]PrioritizedTask, error) {
	s := stripCodeFence(strings.TrimSpace(content))

	var raw []rawPrioritized
	switch {
	case strings.HasPrefix(s, "["):
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	case strings.HasPrefix(s, "{"):
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(s), &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		var list json.RawMessage
		for _, key := range []string{"prioritized", "tasks", "result"} {
			if v, ok := obj[key]; ok {
				list = v
				break
			}
		}
		if list == nil {
			return nil, fmt.Errorf("%w: no task list in object", ErrMalformedResponse)
		}
		if err := json.Unmarshal(list, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	default:
		return nil, fmt.Errorf("%w: not JSON", ErrMalformedResponse)
	}

	out := make([]PrioritizedTask, 0, len(raw))
	for i, r := range raw {
		if strings.TrimSpace(r.ID) == "" {
			return nil, fmt.Errorf("%w: entry %d has no id", ErrMalformedResponse, i)
		}
		p, err := r.Priority.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d priority %q", ErrMalformedResponse, i, r.Priority)
		}
		out = append(out, PrioritizedTask{ID: r.ID, Priority: int(math.Round(p)), Reason: r.Reason})
	}
	return out, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
