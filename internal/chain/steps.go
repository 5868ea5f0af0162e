package chain

import "encoding/json"

// Step statuses in an execution record's step log.
const (
	StepPass  = "pass"
	StepFail  = "fail"
	StepError = "error"
)

// Step is one entry in the ordered step log of an execution record.
type Step struct {
	Name      string  `json:"name"`
	Status    string  `json:"status"`
	Value     float64 `json:"value,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// EncodeSteps serializes a step log for storage. A broken step log must
// never block writing the record itself, so errors degrade to "[]".
func EncodeSteps(steps []Step) string {
	if len(steps) == 0 {
		return "[]"
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return "[]"
	}
	return string(data)
}
