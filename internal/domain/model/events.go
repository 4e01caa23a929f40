package model

// Pipeline events. Each carries a Job descriptor; the worker consuming the
// event owns all state written on its behalf.
const (
	EventStartValidating = "START_VALIDATING"
	EventStartMinting    = "START_MINTING"
)
