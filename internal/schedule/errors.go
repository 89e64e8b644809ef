package schedule

// ErrAlreadyRegistered reports that a Problem id was already registered
// with a Ticker.
type ErrAlreadyRegistered string

func (e ErrAlreadyRegistered) Error() string {
	return "schedule: problem " + string(e) + " already registered"
}
