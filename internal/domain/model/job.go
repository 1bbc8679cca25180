// Package model holds the values passed between the service layers: queued
// analysis jobs, stored records and leaderboard entries.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/okian/atscore/internal/domain/analysis"
)

// Job is one analysis request waiting for a worker.
type Job struct {
	ID             string        // analysis id assigned on submit
	RequestID      string        // optional client id for idempotency
	Label          string        // display name, e.g. the resume file name
	Resume         string        // resume text
	JobDescription string        // job description text
	Mode           analysis.Mode // candidate mode
	SubmittedAt    time.Time
}

// Input returns the pipeline input of the job.
func (j Job) Input() analysis.Input {
	return analysis.Input{Resume: j.Resume, JobDescription: j.JobDescription, Mode: j.Mode}
}

// Key is the idempotency key of the job: the client request id when given,
// otherwise the content fingerprint.
func (j Job) Key() string {
	if j.RequestID != "" {
		return "req:" + j.RequestID
	}
	return "fp:" + Fingerprint(j.Input())
}

// Fingerprint hashes the mode, resume and job description. Identical
// submissions share a fingerprint.
func Fingerprint(in analysis.Input) string {
	h := sha256.New()
	h.Write([]byte(in.Mode))
	h.Write([]byte{0})
	h.Write([]byte(in.Resume))
	h.Write([]byte{0})
	h.Write([]byte(in.JobDescription))
	return hex.EncodeToString(h.Sum(nil))
}

// Status is the lifecycle state of an analysis.
type Status string

// Analysis states.
const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Record is the stored state of one analysis.
type Record struct {
	ID          string           `json:"id"`
	Label       string           `json:"label,omitempty"`
	Status      Status           `json:"status"`
	Report      *analysis.Report `json:"report,omitempty"`
	Error       string           `json:"error,omitempty"`
	SubmittedAt time.Time        `json:"submitted_at"`
	CompletedAt time.Time        `json:"completed_at,omitzero"`
}

// Score returns the ATS score of a finished record and false otherwise.
func (r Record) Score() (int, bool) {
	if r.Status != StatusDone || r.Report == nil {
		return 0, false
	}
	return r.Report.Score, true
}

// Entry is one leaderboard row.
type Entry struct {
	Rank       int    `json:"rank"`
	AnalysisID string `json:"analysis_id"`
	Label      string `json:"label,omitempty"`
	Score      int    `json:"score"`
}
