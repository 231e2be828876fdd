package merge

// State is a step of the merge pipeline.
type State int

// Pipeline states in execution order. Aborted is terminal and reachable from
// every other state.
const (
	Scanning State = iota
	Ordering
	BuildingArtifacts
	MergingAudio
	EmbeddingChapters
	CleaningUp
	Done
	Aborted
)

var stateNames = [...]string{
	Scanning:          "scanning",
	Ordering:          "ordering",
	BuildingArtifacts: "building artifacts",
	MergingAudio:      "merging audio",
	EmbeddingChapters: "embedding chapters",
	CleaningUp:        "cleaning up",
	Done:              "done",
	Aborted:           "aborted",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == Done || s == Aborted
}

// StateHook observes state transitions. It runs synchronously on the
// pipeline goroutine.
type StateHook func(from, to State)
