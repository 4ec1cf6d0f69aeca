// Package ipc carries commands between CLI invocations and the owning glance session.
package ipc

type Request struct {
	Command string `json:"command"`
}

type Response struct {
	OK          bool     `json:"ok"`
	ScanState   string   `json:"scan_state,omitempty"`
	AnswerState string   `json:"answer_state,omitempty"`
	Message     string   `json:"message,omitempty"`
	Transcript  []string `json:"transcript,omitempty"`
	Answer      string   `json:"answer,omitempty"`
	Error       string   `json:"error,omitempty"`
}
