package health

// HumanErr has a message for end users, and an Err for logs.
type HumanErr struct {
	HumanMessage string
	Err
}

// NewHumanErr returns a HumanErr. humanMsg is what Error() returns; msg and args are what gets logged.
func NewHumanErr(humanMsg string, msg string, args ...any) error {
	return &HumanErr{HumanMessage: humanMsg, Err: Err{Message: msg, attrs: args}}
}

// WrapHuman is NewHumanErr with a wrapped cause.
func WrapHuman(humanMsg string, msg string, wrapped error, args ...any) error {
	return &HumanErr{HumanMessage: humanMsg, Err: Err{Message: msg, wrapped: wrapped, attrs: args}}
}

// Error returns only the human message.
func (e *HumanErr) Error() string {
	return e.HumanMessage
}

func (e *HumanErr) Unwrap() error {
	return e.wrapped
}
