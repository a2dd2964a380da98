// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package resource

import (
	"strings"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
)

// DefaultTimelineTitle is shown when a timeline has no title.
const DefaultTimelineTitle = "مسار العمل"

// StepState is how a timeline step is drawn.
type StepState string

const (
	StepCompleted StepState = "completed"
	StepCurrent   StepState = "current"
	StepUpcoming  StepState = "upcoming"
)

// TimelineView is a timeline resolved against one row.
type TimelineView struct {
	Title string
	Steps []StepView
}

// StepView is one resolved step.
type StepView struct {
	TimelineStep
	Timestamp string
	State     StepState
}

// CurrentStep returns the step key row is at: the explicit current step
// field, then the status mapping, then the status itself when it names a
// step. An empty result means unknown.
func (t *Timeline) CurrentStep(row backend.Row) string {
	if row == nil {
		return ""
	}
	if t.CurrentStepField != "" {
		if s := strings.TrimSpace(stringify(row[t.CurrentStepField])); s != "" {
			return s
		}
	}
	status, _ := row["status"].(string)
	if status == "" {
		return ""
	}
	if step := t.StatusToStep[status]; step != "" {
		return step
	}
	for _, s := range t.Steps {
		if s.Key == status {
			return status
		}
	}
	return ""
}

// Resolve computes step states for row. Without a known current step a step
// counts as completed when its timestamp field is set.
func (t *Timeline) Resolve(row backend.Row) TimelineView {
	view := TimelineView{Title: t.Title}
	if view.Title == "" {
		view.Title = DefaultTimelineTitle
	}

	current := t.CurrentStep(row)
	currentIdx := -1
	for i, s := range t.Steps {
		if s.Key == current {
			currentIdx = i
			break
		}
	}

	for i, s := range t.Steps {
		step := StepView{TimelineStep: s, State: StepUpcoming}
		if s.TimestampField != "" && row != nil {
			step.Timestamp = strings.TrimSpace(stringify(row[s.TimestampField]))
		}
		switch {
		case currentIdx >= 0 && i < currentIdx:
			step.State = StepCompleted
		case currentIdx >= 0 && i == currentIdx:
			step.State = StepCurrent
		case currentIdx < 0 && step.Timestamp != "":
			step.State = StepCompleted
		}
		view.Steps = append(view.Steps, step)
	}
	return view
}
