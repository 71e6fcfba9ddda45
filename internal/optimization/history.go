package optimization

// Record is an immutable snapshot of a single agent: a deep copy of its
// position and its fitness at the time of recording.
type Record struct {
	Position [][]float64
	Fit      float64
}

// Snapshot captures the state of a space at the end of one iteration.
// Agents is nil when the history stores only the best agent.
type Snapshot struct {
	Iteration int
	Agents    []Record
	Best      Record
}

// History is the append-only audit trail of a run: one snapshot per
// iteration, never mutated retroactively. It is the state an external
// persistence collaborator serializes for checkpointing or offline
// convergence analysis.
type History struct {
	storeOnlyBest bool
	snapshots     []Snapshot
}

// NewHistory creates an empty history. When storeOnlyBest is set, snapshots
// omit the full population and record only the best agent. The flag is fixed
// for the lifetime of the history.
func NewHistory(storeOnlyBest bool) *History {
	return &History{storeOnlyBest: storeOnlyBest}
}

// Dump appends a snapshot of the space for the given iteration. All recorded
// positions are deep copies, so later population mutation does not alter the
// trail.
func (h *History) Dump(iteration int, space *Space) {
	snapshot := Snapshot{
		Iteration: iteration,
		Best: Record{
			Position: copyPosition(space.Best.Position),
			Fit:      space.Best.Fit,
		},
	}
	if !h.storeOnlyBest {
		snapshot.Agents = make([]Record, len(space.Agents))
		for i, agent := range space.Agents {
			snapshot.Agents[i] = Record{
				Position: copyPosition(agent.Position),
				Fit:      agent.Fit,
			}
		}
	}
	h.snapshots = append(h.snapshots, snapshot)
}

// Len returns the number of recorded iterations.
func (h *History) Len() int {
	return len(h.snapshots)
}

// Snapshots returns the recorded snapshots in iteration order. The returned
// slice is owned by the history and must be treated as read-only.
func (h *History) Snapshots() []Snapshot {
	return h.snapshots
}

// BestFitness returns the per-iteration best fitness series, useful for
// convergence analysis. Under the minimization convention the series is
// non-increasing.
func (h *History) BestFitness() []float64 {
	fits := make([]float64, len(h.snapshots))
	for i, s := range h.snapshots {
		fits[i] = s.Best.Fit
	}
	return fits
}
