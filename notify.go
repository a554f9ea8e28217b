package pulseout

// Notifier receives the events of an Output.
//
// StateChanged is called once for every state transition with the new state;
// the error kind that caused it is available from Output.Error.
// Notify is called periodically while audio is flowing, see Output.SetNotifyInterval.
// Both are called without internal locks held and may call back into the Output.
type Notifier interface {
	StateChanged(state State)
	Notify()
}

// NotifierFuncs adapts plain functions to the Notifier interface. Nil fields are ignored.
type NotifierFuncs struct {
	OnStateChanged func(State)
	OnNotify       func()
}

// StateChanged calls OnStateChanged.
func (n NotifierFuncs) StateChanged(state State) {
	if n.OnStateChanged != nil {
		n.OnStateChanged(state)
	}
}

// Notify calls OnNotify.
func (n NotifierFuncs) Notify() {
	if n.OnNotify != nil {
		n.OnNotify()
	}
}

// event is a notification queued while the Output lock is held.
type event struct {
	state  State
	notify bool
}
