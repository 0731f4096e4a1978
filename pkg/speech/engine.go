package speech

// Settings are pushed onto an engine once, before its first Start.
type Settings struct {
	Continuous     bool
	InterimResults bool
	Lang           string
}

// Alternative is one candidate transcription of a result slot.
type Alternative struct {
	Transcript string
	Confidence float64
}

// Result is one utterance slot. Alternatives are ordered best first.
type Result struct {
	Alternatives []Alternative
	Final        bool
}

// ResultEvent carries the slot the engine just updated and every slot
// recognized since the engine started.
type ResultEvent struct {
	ResultIndex int
	Results     []Result
}

// Handler receives engine signals. Engines deliver them serially, from any
// goroutine.
type Handler interface {
	OnStart()
	OnResult(ResultEvent)
	OnError(error)
	OnEnd()
}

// Engine is the recognition capability a Session drives. Start and Stop are
// requests: they return before the matching start or end signal is delivered,
// and an engine may deliver that signal synchronously from within the call.
type Engine interface {
	Configure(Settings)
	SetHandler(Handler)
	Start() error
	Stop() error
}
