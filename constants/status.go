package constants

// Stage names one step of the per-image pipeline. Used in error codes, logs and metric labels.
type Stage string

// Stable values (exported as metric label values).
const (
	StageAcquire Stage = "acquire" // download / upload read
	StageOCR     Stage = "ocr"     // text recognition
	StageNER     Stage = "ner"     // entity recognition
	StageTriage  Stage = "triage"  // classification + synthesis
)
