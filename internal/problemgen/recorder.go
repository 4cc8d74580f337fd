package problemgen

// Recorder receives generation events for metrics.
type Recorder interface {
	QuestionGenerated(mode Mode)
	SessionReset(mode Mode)
	CatalogMiss()
	FormulaFailure(templateID string)
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) QuestionGenerated(Mode) {}
func (NopRecorder) SessionReset(Mode)      {}
func (NopRecorder) CatalogMiss()           {}
func (NopRecorder) FormulaFailure(string)  {}
