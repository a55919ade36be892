package feed

// View is where a post list is drawn. Implementations replace their list
// region wholesale on RenderList, RenderEmpty and RenderError.
type View interface {
	RenderList(cards []Card)
	RenderEmpty(message string)
	RenderError(message string)
	RenderControls(ctl Controls)
	ScrollToTop()
}

// Controls is the state of the pagination controls.
type Controls struct {
	PrevDisabled bool
	NextDisabled bool
	// Status reads "{current}/{effective}".
	Status    string
	Current   int
	Effective int
	// PrevTarget and NextTarget are the clamped pages the controls lead to.
	PrevTarget int
	NextTarget int
}

// Phase is the controller's lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}
