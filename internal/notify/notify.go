package notify

// Notifier surfaces user-facing messages. The HTTP layer toasts transport
// and business failures through it so domain code does not have to.
type Notifier interface {
	Toast(message string)
}

// Nop discards all messages.
type Nop struct{}

func (Nop) Toast(string) {}

// Func adapts a function to the Notifier interface.
type Func func(message string)

func (f Func) Toast(message string) { f(message) }
