package errcode

// Error code convention:
// - 0: no error
// - 4xxx: recoverable business errors (the flow may continue with a warning)
// - 5xxx: system errors (the flow must abort)
const (
	OK              = 0
	ResourceMissing = 4004
	ConstraintError = 4009
	SystemError     = 5000
)
