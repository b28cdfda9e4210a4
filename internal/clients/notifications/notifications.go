package notifications

// Notifier is told when the movie catalog falls back to static data and
// when live provider data returns.
type Notifier interface {
	NotifyDegraded(reason string)
	NotifyRecovered(movies int)
	Test() error
}
