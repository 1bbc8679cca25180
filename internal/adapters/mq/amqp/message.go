package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/atscore/internal/domain/analysis"
	"github.com/okian/atscore/internal/domain/model"
)

// Message is the JSON body of an analysis request on the broker.
type Message struct {
	RequestID      string `json:"request_id,omitempty"`
	Label          string `json:"label,omitempty"`
	Resume         string `json:"resume_text"`
	JobDescription string `json:"job_description"`
	Mode           string `json:"candidate_mode,omitempty"`
}

// Decode parses a message body into a job. Without a request id the job is
// deduplicated on its content, which also absorbs broker redeliveries.
func Decode(body []byte) (model.Job, error) {
	var m Message
	if err := json.Unmarshal(body, &m); err != nil {
		return model.Job{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	mode, err := analysis.ParseMode(m.Mode)
	if err != nil {
		return model.Job{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return model.Job{
		RequestID:      strings.TrimSpace(m.RequestID),
		Label:          strings.TrimSpace(m.Label),
		Resume:         m.Resume,
		JobDescription: m.JobDescription,
		Mode:           mode,
	}, nil
}

type disposition int

const (
	ack disposition = iota
	requeue
	reject
)

func (d disposition) String() string {
	switch d {
	case ack:
		return "ack"
	case requeue:
		return "requeue"
	default:
		return "reject"
	}
}

// dispose decides what happens to a delivery after Submit. Accepted and
// duplicate jobs are acked and jobs that can never succeed are dropped.
// Anything else, such as a full local queue, goes back to the broker.
func dispose(err error) disposition {
	switch {
	case err == nil:
		return ack
	case errors.Is(err, ErrMalformed), errors.Is(err, analysis.ErrInvalidInput):
		return reject
	default:
		return requeue
	}
}
