package model

import "time"

// RunState represents the lifecycle state of a detection run.
type RunState string

const (
	RunStateProcessing RunState = "processing"
	RunStateCompleted  RunState = "completed"
	RunStateError      RunState = "error"
)

// FailureKind classifies why a batch was skipped.
type FailureKind string

const (
	FailureTransport FailureKind = "transport"
	FailureAnalyzer  FailureKind = "analyzer"
	FailureParse     FailureKind = "parse"
)

// BatchFailure records a batch that was skipped during a batched run.
type BatchFailure struct {
	Index int         `json:"index"`
	Kind  FailureKind `json:"kind"`
	Error string      `json:"error"`
}

// RunStatus is the pollable state of one run.
type RunStatus struct {
	ID            string         `json:"id"`
	State         RunState       `json:"status"`
	Progress      string         `json:"progress,omitempty"`
	Error         string         `json:"error,omitempty"`
	Filename      string         `json:"filename,omitempty"`
	FailedBatches []BatchFailure `json:"failed_batches,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
