package types

const (
	KindOption  = "option"
	KindPicking = "picking"
)

// Item is one entry of the board list.
type Item struct {
	Kind       string `json:"kind"`
	Choice     string `json:"choice,omitempty"`
	Position   int    `json:"position,omitempty"`
	Selectable bool   `json:"selectable"`
	AriaLabel  string `json:"ariaLabel,omitempty"`
	Icon       string `json:"icon,omitempty"`
	Label      string `json:"label,omitempty"`
	Winner     bool   `json:"winner"`
}

// Result is the summary card shown once a round is decided.
type Result struct {
	Outcome      string `json:"outcome"`
	Text         string `json:"text"`
	RestartLabel string `json:"restartLabel"`
}

type Board struct {
	State   string  `json:"state"`
	Results bool    `json:"results"`
	Items   []Item  `json:"items"`
	Result  *Result `json:"result,omitempty"`
	OOB     bool    `json:"-"`
}

type Score struct {
	Value    int  `json:"value"`
	Changing bool `json:"changing"`
	OOB      bool `json:"-"`
}

// Chrome carries the attributes the rules panel toggles on the page.
type Chrome struct {
	OverlayClass  string `json:"overlayClass"`
	OverlayHidden bool   `json:"overlayHidden"`
	MainHidden    bool   `json:"mainHidden"`
	HeaderHidden  bool   `json:"headerHidden"`
}

type Page struct {
	Title  string `json:"title"`
	Board  Board  `json:"board"`
	Score  Score  `json:"score"`
	Chrome Chrome `json:"chrome"`
}
