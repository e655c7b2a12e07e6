package response

import (
	"github.com/blockwork-protocol/marketplace/src/utils/model"
)

// Body of requests that only report success
type Status struct {
	Message string `json:"message"`
}

type Approve struct {
	Message      string              `json:"message"`
	Job          *model.Job          `json:"job"`
	Conversation *model.Conversation `json:"conversation"`
}

type Job struct {
	Message string     `json:"message"`
	Job     *model.Job `json:"job"`
}

// Jobs never serialize as null
func Jobs(jobs []*model.Job) []*model.Job {
	if jobs == nil {
		return []*model.Job{}
	}
	return jobs
}
