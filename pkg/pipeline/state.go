package pipeline

type State string

const (
	StateQueued           State = "queued"
	StateMatching         State = "matching"
	StateBuildingPaths    State = "building-paths"
	StateCheckingExisting State = "checking-existing"
	StateDownloading      State = "downloading"
	StateTagging          State = "tagging"
	StateAdvancing        State = "advancing"
	StateDrained          State = "drained"
)

// Transition is emitted every time the pipeline enters a state.
// Index is -1 for the run-level Drained transition.
type Transition struct {
	Index   int
	TrackID string
	State   State
}

type Observer func(Transition)
