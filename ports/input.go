package ports

// ActivationSource is one named raw input channel for a presentation side.
// Activation reports a value in [0,1]; boolean devices map to 0 or 1. Which
// concrete sources feed which logical side is an external, pre-session
// wiring decision. Implementations must tolerate concurrent sampling: the
// diagnostics poller may read a source while a trial is in flight.
type ActivationSource interface {
	Name() string
	Activation() (float64, error)
}
