package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/envelope"
)

const TaskTicketProcess = "ticket.process"

type TicketProcessPayload struct {
	Envelope envelope.Envelope `json:"envelope"`
}

func NewTicketProcessTask(payload TicketProcessPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTicketProcess, data), nil
}

func ParseTicketProcessPayload(task *asynq.Task) (TicketProcessPayload, error) {
	var payload TicketProcessPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return TicketProcessPayload{}, err
	}
	return payload, nil
}
