package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskDecisionDigest = "applications.decision_digest"

type DecisionDigestPayload struct {
	WindowHours int `json:"windowHours"`
}

func NewDecisionDigestTask(payload DecisionDigestPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDecisionDigest, data), nil
}

func ParseDecisionDigestPayload(task *asynq.Task) (DecisionDigestPayload, error) {
	var payload DecisionDigestPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DecisionDigestPayload{}, err
	}
	return payload, nil
}
