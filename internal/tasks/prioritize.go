package tasks

import "agency-dashboard-backend/internal/ai"

// serviceType maps a task kind onto the two work types the prioritization
// service knows about.
func serviceType(k Kind) string {
	switch k {
	case KindDevelopment, KindDesign:
		return "development"
	}
	return "marketing"
}

// BuildRequest converts tasks into the prioritization service's schema,
// keeping their order.
func BuildRequest(ts []Task) ai.PrioritizationInput {
	in := ai.PrioritizationInput{Tasks: make([]ai.PrioritizationTask, 0, len(ts))}
	for _, t := range ts {
		in.Tasks = append(in.Tasks, ai.PrioritizationTask{
			ID:          t.ID,
			Description: t.Title + " - " + t.Description,
			Deadline:    t.Deadline,
			Importance:  string(t.Importance),
			Type:        serviceType(t.Kind),
		})
	}
	return in
}

// ReconcileResult orders original by the service's answer. Tasks appear in
// the order the result names them; tasks the result skips follow in their
// original order. Unknown and repeated ids in the result are ignored, so the
// output is always a permutation of original.
func ReconcileResult(original []Task, result []ai.PrioritizedTask) []Task {
	byID := make(map[string][]int, len(original))
	for i, t := range original {
		byID[t.ID] = append(byID[t.ID], i)
	}

	used := make([]bool, len(original))
	out := make([]Task, 0, len(original))
	for _, p := range result {
		idx := byID[p.ID]
		if len(idx) == 0 {
			continue
		}
		i := idx[0]
		byID[p.ID] = idx[1:]
		used[i] = true
		out = append(out, original[i])
	}

	for i, t := range original {
		if !used[i] {
			out = append(out, t)
		}
	}
	return out
}
