package model

// Frame views rendered by the polling front end. Every response is either an
// info view (text plus actions) or an error view (message plus reset).

type ActionKind string

const (
	ActionPoll   ActionKind = "poll"   // re-issue a GET against Target
	ActionSubmit ActionKind = "submit" // POST against Target
	ActionWallet ActionKind = "wallet" // execute the transaction descriptor at Target
	ActionReset  ActionKind = "reset"
)

type Action struct {
	Label  string     `json:"label"`
	Kind   ActionKind `json:"action"`
	Target string     `json:"target"`
}

type InfoView struct {
	Stage   Stage    `json:"stage"`
	Text    string   `json:"text"`
	Actions []Action `json:"actions"`
}

type ErrorView struct {
	Message     string `json:"message"`
	ResetAction Action `json:"resetAction"`
}

func NewResetAction(jobID string) Action {
	target := "/frames"
	if jobID != "" {
		target = "/jobs/" + jobID + "/reset"
	}
	return Action{Label: "Reset", Kind: ActionReset, Target: target}
}
