package scheduler

import "sort"

// TaskSolution is one task's lifted-back schedule (spec §4.8): its period
// coordinates and the resources it ended up assigned to.
type TaskSolution struct {
	Name      string
	Scheduled bool
	Start     int
	End       int
	Duration  int
	Resources []string // resource names, requirement declaration order, deduped
}

// WorkerAssignment is one task's busy span on a given worker (spec §4.8:
// per-worker assignment lists).
type WorkerAssignment struct {
	TaskName string
	Start    int
	End      int
}

// WorkerSolution is one worker's full list of assignments, in the order its
// busy intervals were registered.
type WorkerSolution struct {
	Name        string
	Assignments []WorkerAssignment
}

// BufferSolution is one buffer's level timeline (spec §8 S4): Levels has
// one more entry than ChangeTimes — Levels[0] is the initial level, and
// Levels[i+1] is the level immediately after the change recorded at
// ChangeTimes[i]. Exact-duplicate-time changes collapse into one, keeping
// the level recorded by the earliest-declared event (matching
// buildBufferModel's own tie-break rule).
type BufferSolution struct {
	Name        string
	Levels      []int
	ChangeTimes []int
}

// ResourceOccupancy is the SPEC_FULL supplement to spec §4.8: for every
// resource, the total number of periods at least one of its workers was
// busy, and the fraction of the solved horizon that represents. It gives
// callers a single cross-resource occupancy number without re-deriving it
// from WorkerSolution/ResourceIdle themselves.
type ResourceOccupancy struct {
	Name        string
	BusyPeriods int
	Horizon     int
}

// Solution is the typed result of a successful Solve (spec §4.8): every
// task's lifted schedule, every worker's assignment list, every declared
// indicator's value, and every buffer's level timeline, read out of one raw
// CSP solution vector.
type Solution struct {
	Horizon    int
	Tasks      map[string]*TaskSolution
	TaskOrder  []string
	Workers    map[string]*WorkerSolution
	WorkerOrder []string
	Indicators map[string]int
	IndicatorOrder []string
	Buffers    map[string]*BufferSolution
	BufferOrder []string
	Occupancy  map[string]*ResourceOccupancy
	OccupancyOrder []string
}

// Task looks up one task's solution by name.
func (s *Solution) Task(name string) (*TaskSolution, bool) {
	t, ok := s.Tasks[name]
	return t, ok
}

// Worker looks up one worker's solution by name.
func (s *Solution) Worker(name string) (*WorkerSolution, bool) {
	w, ok := s.Workers[name]
	return w, ok
}

// Indicator looks up one indicator's solved value by name.
func (s *Solution) Indicator(name string) (int, bool) {
	v, ok := s.Indicators[name]
	return v, ok
}

// Buffer looks up one buffer's solution by name.
func (s *Solution) Buffer(name string) (*BufferSolution, bool) {
	b, ok := s.Buffers[name]
	return b, ok
}

// reconstruct lifts a raw CSP solution vector back into a typed Solution
// (spec §4.8). It assumes assemble() has already run, so every symbol
// referenced here participates in the solved model.
func (p *Problem) reconstruct(raw []int) (*Solution, error) {
	sol := &Solution{
		Horizon:    p.HorizonSym().ValueIn(raw),
		Tasks:      make(map[string]*TaskSolution),
		Workers:    make(map[string]*WorkerSolution),
		Indicators: make(map[string]int),
		Buffers:    make(map[string]*BufferSolution),
		Occupancy:  make(map[string]*ResourceOccupancy),
	}

	for _, t := range p.Tasks() {
		ts := reconstructTask(t, raw)
		sol.Tasks[ts.Name] = ts
		sol.TaskOrder = append(sol.TaskOrder, ts.Name)
	}

	for _, w := range allWorkers(p) {
		ws := reconstructWorker(w, raw)
		sol.Workers[ws.Name] = ws
		sol.WorkerOrder = append(sol.WorkerOrder, ws.Name)
	}

	for _, ind := range p.Indicators() {
		sol.Indicators[ind.Name()] = ind.Value().ValueIn(raw)
		sol.IndicatorOrder = append(sol.IndicatorOrder, ind.Name())
	}

	for _, b := range p.Buffers() {
		model, err := p.bufferModel(b)
		if err != nil {
			return nil, err
		}
		bs := reconstructBuffer(model, raw)
		sol.Buffers[bs.Name] = bs
		sol.BufferOrder = append(sol.BufferOrder, bs.Name)
	}

	for _, r := range p.Resources() {
		occ := reconstructOccupancy(r, sol.Horizon, raw)
		sol.Occupancy[occ.Name] = occ
		sol.OccupancyOrder = append(sol.OccupancyOrder, occ.Name)
	}

	return sol, nil
}

func reconstructTask(t Task, raw []int) *TaskSolution {
	scheduled := t.Scheduled().ValueIn(raw)
	ts := &TaskSolution{
		Name:      t.Name(),
		Scheduled: scheduled,
	}
	if !scheduled {
		return ts
	}
	ts.Start = t.Start().ValueIn(raw)
	ts.End = t.End().ValueIn(raw)
	ts.Duration = t.Duration().ValueIn(raw)

	seen := make(map[string]bool)
	for _, req := range t.Requirements() {
		for _, iv := range req.Intervals {
			if iv.Start.ValueIn(raw) < 0 || iv.End.ValueIn(raw) < 0 {
				continue
			}
			name := req.Resource.Name()
			if seen[name] {
				continue
			}
			seen[name] = true
			ts.Resources = append(ts.Resources, name)
		}
	}
	return ts
}

func reconstructWorker(w *Worker, raw []int) *WorkerSolution {
	ws := &WorkerSolution{Name: w.Name()}
	for _, bi := range w.BusyIntervals() {
		bs, be := bi.Start.ValueIn(raw), bi.End.ValueIn(raw)
		if bs < 0 || be < 0 {
			continue
		}
		ws.Assignments = append(ws.Assignments, WorkerAssignment{
			TaskName: bi.TaskName,
			Start:    bs,
			End:      be,
		})
	}
	return ws
}

func reconstructBuffer(model *BufferModel, raw []int) *BufferSolution {
	bs := &BufferSolution{Name: model.Buffer.Name(), Levels: []int{model.Buffer.InitialLevel()}}
	events := model.Buffer.Events()

	type point struct{ time, level, index int }
	var points []point
	for i := range model.Times {
		if !events[i].Task.Scheduled().ValueIn(raw) {
			continue
		}
		points = append(points, point{
			time:  model.Times[i].ValueIn(raw),
			level: model.Levels[i].ValueIn(raw),
			index: i,
		})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].time != points[j].time {
			return points[i].time < points[j].time
		}
		return points[i].index < points[j].index
	})

	var lastTime int
	haveLast := false
	for _, pt := range points {
		if haveLast && pt.time == lastTime {
			// exact-duplicate time: the earliest-declared event already
			// recorded this timestamp's change, so drop the rest.
			continue
		}
		bs.ChangeTimes = append(bs.ChangeTimes, pt.time)
		bs.Levels = append(bs.Levels, pt.level)
		lastTime = pt.time
		haveLast = true
	}
	return bs
}

func reconstructOccupancy(r Resource, horizon int, raw []int) *ResourceOccupancy {
	occ := &ResourceOccupancy{Name: r.Name(), Horizon: horizon}
	var marks []struct{ t, d int } // +1 at start, -1 at end
	for _, w := range resourceWorkers(r) {
		for _, bi := range w.BusyIntervals() {
			bs, be := bi.Start.ValueIn(raw), bi.End.ValueIn(raw)
			if bs < 0 || be < 0 || be <= bs {
				continue
			}
			marks = append(marks, struct{ t, d int }{bs, 1})
			marks = append(marks, struct{ t, d int }{be, -1})
		}
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].t < marks[j].t })
	depth, last := 0, 0
	for _, m := range marks {
		if depth > 0 {
			occ.BusyPeriods += m.t - last
		}
		depth += m.d
		last = m.t
	}
	return occ
}
