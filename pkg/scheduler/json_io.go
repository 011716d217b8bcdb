package scheduler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// This file implements spec §6's two JSON surfaces: read-only solution
// output (SolutionJSON, matching the schema spec.md §6 names verbatim) and
// round-trippable entity JSON (EntityJSON/AddFromJSON, spec §6 "Entity
// JSON"). encoding/json is used rather than a third-party library: the
// schema is closed and hand-written, and nothing in the retrieval pack
// offers a better fit for "reject unknown fields" than
// json.Decoder.DisallowUnknownFields (see DESIGN.md).

// SolutionJSON renders sol per spec §6's "Solution data (JSON)" schema. If
// p has a WallClock attached, every period value is projected to an
// ISO-8601 timestamp string; otherwise periods are emitted as plain
// integers, matching the spec's "unless wall-clock projection is enabled"
// clause.
func (p *Problem) SolutionJSON(sol *Solution) ([]byte, error) {
	doc := map[string]interface{}{
		"horizon":            p.timeValue(sol.Horizon),
		"problem_properties": p.problemProperties(),
		"tasks":              p.tasksJSON(sol),
		"resources":          p.resourcesJSON(sol),
		"buffers":            buffersJSON(sol),
		"indicators":         sol.Indicators,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// timeValue projects a period to a wall-clock ISO-8601 string if p has a
// WallClock, or returns the plain integer otherwise.
func (p *Problem) timeValue(period int) interface{} {
	if p.Wall == nil {
		return period
	}
	t := p.Wall.Start.Add(time.Duration(period) * p.Wall.Period)
	return t.Format(time.RFC3339)
}

func (p *Problem) problemProperties() map[string]interface{} {
	if p.Wall == nil {
		return map[string]interface{}{
			"problem_timedelta":  nil,
			"problem_start_time": nil,
			"problem_end_time":   nil,
		}
	}
	end := p.Wall.Start.Add(time.Duration(p.HorizonSym().Var().Domain().Max()+p.HorizonSym().Offset()) * p.Wall.Period)
	return map[string]interface{}{
		"problem_timedelta":  p.Wall.Period.String(),
		"problem_start_time": p.Wall.Start.Format(time.RFC3339),
		"problem_end_time":   end.Format(time.RFC3339),
	}
}

func (p *Problem) tasksJSON(sol *Solution) map[string]interface{} {
	out := make(map[string]interface{}, len(sol.TaskOrder))
	for _, name := range sol.TaskOrder {
		ts := sol.Tasks[name]
		t, _ := p.Task(name)
		entry := map[string]interface{}{
			"type":      taskTypeTag(t),
			"optional":  t.Optional(),
			"scheduled": ts.Scheduled,
		}
		if ts.Scheduled {
			entry["start"] = p.timeValue(ts.Start)
			entry["end"] = p.timeValue(ts.End)
			entry["duration"] = ts.Duration
			entry["assigned_resources"] = ts.Resources
		} else {
			entry["start"] = nil
			entry["end"] = nil
			entry["duration"] = nil
			entry["assigned_resources"] = []string{}
		}
		out[name] = entry
	}
	return out
}

func (p *Problem) resourcesJSON(sol *Solution) map[string]interface{} {
	out := make(map[string]interface{}, len(sol.WorkerOrder))
	for _, name := range sol.WorkerOrder {
		ws := sol.Workers[name]
		assignments := make([][3]interface{}, 0, len(ws.Assignments))
		for _, a := range ws.Assignments {
			assignments = append(assignments, [3]interface{}{a.TaskName, p.timeValue(a.Start), p.timeValue(a.End)})
		}
		out[name] = map[string]interface{}{
			"type":        "Worker",
			"assignments": assignments,
		}
	}
	return out
}

func buffersJSON(sol *Solution) map[string]interface{} {
	out := make(map[string]interface{}, len(sol.BufferOrder))
	for _, name := range sol.BufferOrder {
		bs := sol.Buffers[name]
		out[name] = map[string]interface{}{
			"level":              bs.Levels,
			"level_change_times": bs.ChangeTimes,
		}
	}
	return out
}

func taskTypeTag(t Task) string {
	switch t.(type) {
	case *zeroDurationTask:
		return "ZeroDurationTask"
	case *fixedDurationTask:
		return "FixedDurationTask"
	case *variableDurationTask:
		return "VariableDurationTask"
	default:
		return fmt.Sprintf("%T", t)
	}
}

// entityTypeTags is the closed dispatch set spec §6 names for
// AddFromJSON; any other "type" value is rejected.
var entityTypeTags = map[string]bool{
	"FixedDurationTask":    true,
	"ZeroDurationTask":     true,
	"VariableDurationTask": true,
	"Worker":               true,
	"CumulativeWorker":     true,
	"SelectWorkers":        true,
}

// entityEnvelope peeks at an entity JSON document's type/name without
// rejecting unknown fields, so AddFromJSON can dispatch before validating
// the rest of the payload strictly.
type entityEnvelope struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// taskJSON is the round-trippable shape for the three task variants (spec
// §6 "Entity JSON"): fields not meaningful for a given type are omitted on
// write and ignored (left zero) on read.
type taskJSON struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	Duration         int    `json:"duration,omitempty"`
	MinDuration      int    `json:"min_duration,omitempty"`
	MaxDuration      int    `json:"max_duration,omitempty"`
	AllowedDurations []int  `json:"allowed_durations,omitempty"`
	Optional         bool   `json:"optional,omitempty"`
	ReleaseDate      int    `json:"release_date,omitempty"`
	DueDate          int    `json:"due_date,omitempty"`
	Deadline         bool   `json:"deadline,omitempty"`
	Priority         int    `json:"priority,omitempty"`
	WorkAmount       int    `json:"work_amount,omitempty"`
}

// workerJSON is the round-trippable shape for Worker/CumulativeWorker/
// SelectWorkers (spec §6 "Entity JSON").
type workerJSON struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Productivity int      `json:"productivity,omitempty"`
	CostType     string   `json:"cost_type,omitempty"` // "constant", "linear", "polynomial"
	CostValue    int      `json:"cost_value,omitempty"`
	CostSlope    int      `json:"cost_slope,omitempty"`
	CostCoeffs   []int    `json:"cost_coeffs,omitempty"`
	Size         int      `json:"size,omitempty"`         // CumulativeWorker
	Candidates   []string `json:"candidates,omitempty"`   // SelectWorkers
	NbToSelect   int      `json:"nb_to_select,omitempty"` // SelectWorkers
	Kind         string   `json:"kind,omitempty"`         // "exact", "min", "max"
}

// TaskJSON renders t as round-trippable entity JSON.
func TaskJSON(t Task) ([]byte, error) {
	doc := taskJSON{Name: t.Name(), Type: taskTypeTag(t), Optional: t.Optional(), Priority: t.Priority(), WorkAmount: t.WorkAmount()}
	if rd, ok := t.ReleaseDate(); ok {
		doc.ReleaseDate = rd
	}
	if dd, set, deadline := t.DueDate(); set {
		doc.DueDate = dd
		doc.Deadline = deadline
	}
	switch x := t.(type) {
	case *fixedDurationTask:
		doc.Duration = x.duration.Var().Domain().Max() + x.duration.Offset()
	case *variableDurationTask:
		doc.MinDuration = x.duration.Var().Domain().Min() + x.duration.Offset()
		doc.MaxDuration = x.duration.Var().Domain().Max() + x.duration.Offset()
	}
	return json.Marshal(doc)
}

// workerCostJSON renders w's cost function, if any, into doc's cost fields.
func workerCostJSON(doc *workerJSON, cf CostFunction) {
	switch c := cf.(type) {
	case constantCost:
		doc.CostType = "constant"
		doc.CostValue = c.value
	case linearCost:
		doc.CostType = "linear"
		doc.CostSlope = c.slope
		doc.CostValue = c.intercept
	case polynomialCost:
		doc.CostType = "polynomial"
		doc.CostCoeffs = c.coeffs
	}
}

// WorkerJSON renders r as round-trippable entity JSON.
func WorkerJSON(r Resource) ([]byte, error) {
	switch w := r.(type) {
	case *Worker:
		doc := workerJSON{Name: w.Name(), Type: "Worker", Productivity: w.Productivity()}
		workerCostJSON(&doc, w.Cost())
		return json.Marshal(doc)
	case *CumulativeWorker:
		doc := workerJSON{Name: w.Name(), Type: "CumulativeWorker", Size: w.size}
		for _, atom := range w.workers {
			doc.Productivity += atom.Productivity()
		}
		if len(w.workers) > 0 {
			workerCostJSON(&doc, w.workers[0].Cost())
		}
		return json.Marshal(doc)
	case *SelectWorkers:
		names := make([]string, len(w.candidates))
		for i, c := range w.candidates {
			names[i] = c.Name()
		}
		doc := workerJSON{Name: w.Name(), Type: "SelectWorkers", Candidates: names, NbToSelect: w.nbToSelect, Kind: cardinalityKindTag(w.kind)}
		return json.Marshal(doc)
	default:
		return nil, invalidParam("resource", fmt.Sprintf("unknown resource type %T", r))
	}
}

func cardinalityKindTag(k CardinalityKind) string {
	switch k {
	case Exact:
		return "exact"
	case AtLeast:
		return "min"
	case AtMost:
		return "max"
	default:
		return "exact"
	}
}

func parseCardinalityKind(tag string) (CardinalityKind, error) {
	switch tag {
	case "", "exact":
		return Exact, nil
	case "min":
		return AtLeast, nil
	case "max":
		return AtMost, nil
	default:
		return Exact, invalidParam("kind", fmt.Sprintf("unknown cardinality kind %q", tag))
	}
}

// AddFromJSON decodes one entity document and constructs it on the active
// problem, dispatching on its "type" field against the closed set spec §6
// names (FixedDurationTask, ZeroDurationTask, VariableDurationTask,
// Worker, CumulativeWorker, SelectWorkers). Unknown types and unknown
// fields within a known type are both rejected.
func AddFromJSON(data []byte) (interface{}, error) {
	var env entityEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if !entityTypeTags[env.Type] {
		return nil, invalidParam("type", fmt.Sprintf("unknown entity type %q", env.Type))
	}

	strict := func(target interface{}) error {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(target)
	}

	switch env.Type {
	case "FixedDurationTask", "ZeroDurationTask", "VariableDurationTask":
		var doc taskJSON
		if err := strict(&doc); err != nil {
			return nil, err
		}
		return taskFromJSON(doc)
	default:
		var doc workerJSON
		if err := strict(&doc); err != nil {
			return nil, err
		}
		return workerFromJSON(doc)
	}
}

func taskOptionsFromJSON(doc taskJSON) []TaskOption {
	var opts []TaskOption
	if doc.Optional {
		opts = append(opts, Optional())
	}
	if doc.ReleaseDate > 0 {
		opts = append(opts, ReleaseDate(doc.ReleaseDate))
	}
	if doc.DueDate > 0 {
		opts = append(opts, DueDate(doc.DueDate, doc.Deadline))
	}
	if doc.Priority > 0 {
		opts = append(opts, Priority(doc.Priority))
	}
	if doc.WorkAmount > 0 {
		opts = append(opts, WorkAmount(doc.WorkAmount))
	}
	return opts
}

func taskFromJSON(doc taskJSON) (Task, error) {
	opts := taskOptionsFromJSON(doc)
	switch doc.Type {
	case "ZeroDurationTask":
		return NewZeroDurationTask(doc.Name, opts...)
	case "FixedDurationTask":
		return NewFixedDurationTask(doc.Name, doc.Duration, opts...)
	case "VariableDurationTask":
		if doc.MaxDuration > 0 {
			opts = append(opts, MaxDuration(doc.MaxDuration))
		}
		if len(doc.AllowedDurations) > 0 {
			opts = append(opts, AllowedDurations(doc.AllowedDurations...))
		}
		return NewVariableDurationTask(doc.Name, doc.MinDuration, opts...)
	default:
		return nil, invalidParam("type", fmt.Sprintf("unknown task type %q", doc.Type))
	}
}

func workerCostOption(doc workerJSON) (WorkerOption, bool) {
	switch doc.CostType {
	case "constant":
		return WithCost(ConstantCost(doc.CostValue)), true
	case "linear":
		return WithCost(LinearCost(doc.CostSlope, doc.CostValue)), true
	case "polynomial":
		return WithCost(PolynomialCost(doc.CostCoeffs...)), true
	default:
		return nil, false
	}
}

func workerFromJSON(doc workerJSON) (Resource, error) {
	switch doc.Type {
	case "Worker":
		opts := []WorkerOption{WithProductivity(doc.Productivity)}
		if cost, ok := workerCostOption(doc); ok {
			opts = append(opts, cost)
		}
		return NewWorker(doc.Name, opts...)
	case "CumulativeWorker":
		opts := []WorkerOption{WithProductivity(doc.Productivity)}
		if cost, ok := workerCostOption(doc); ok {
			opts = append(opts, cost)
		}
		return NewCumulativeWorker(doc.Name, doc.Size, opts...)
	case "SelectWorkers":
		p, err := activeProblem()
		if err != nil {
			return nil, err
		}
		candidates := make([]*Worker, 0, len(doc.Candidates))
		for _, name := range doc.Candidates {
			r, ok := p.Resource(name)
			if !ok {
				return nil, invalidParam("candidates", fmt.Sprintf("unknown resource %q", name))
			}
			w, ok := r.(*Worker)
			if !ok {
				return nil, invalidParam("candidates", fmt.Sprintf("resource %q is not a Worker", name))
			}
			candidates = append(candidates, w)
		}
		kind, err := parseCardinalityKind(doc.Kind)
		if err != nil {
			return nil, err
		}
		return NewSelectWorkers(doc.Name, candidates, doc.NbToSelect, kind)
	default:
		return nil, invalidParam("type", fmt.Sprintf("unknown resource type %q", doc.Type))
	}
}
