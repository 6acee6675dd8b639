package client

import (
	"encoding/json"

	"github.com/NickPittas/DirectorsConsole-sub000/graphapi"
)

// wsMessage is the envelope the renderer sends on the status socket. The
// payload type depends on the Type field.
type wsMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"Data"`
}

func (sm *wsMessage) UnmarshalJSON(b []byte) error {
	var temp struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &temp); err != nil {
		return err
	}
	sm.Type = temp.Type

	switch sm.Type {
	case "status":
		sm.Data = &wsDataStatus{}
	case "execution_start":
		sm.Data = &wsDataExecutionStart{}
	case "executing":
		sm.Data = &wsDataExecuting{}
	case "progress":
		sm.Data = &wsDataProgress{}
	case "executed":
		sm.Data = &wsDataExecuted{}
	case "execution_interrupted":
		sm.Data = &wsDataInterrupted{}
	case "execution_error":
		sm.Data = &wsDataExecutionError{}
	default:
		sm.Data = nil
	}

	if sm.Data != nil {
		if err := json.Unmarshal(temp.Data, sm.Data); err != nil {
			return err
		}
	}
	return nil
}

type wsDataStatus struct {
	Status struct {
		ExecInfo struct {
			QueueRemaining int `json:"queue_remaining"`
		} `json:"exec_info"`
	} `json:"status"`
	SID string `json:"sid,omitempty"`
}

type wsDataExecutionStart struct {
	PromptID string `json:"prompt_id"`
}

type wsDataExecuting struct {
	// nil when the final node of the prompt has finished
	Node     *string `json:"node"`
	PromptID string  `json:"prompt_id"`
}

type wsDataProgress struct {
	Value int `json:"value"`
	Max   int `json:"max"`
}

type wsDataExecuted struct {
	Node     string                    `json:"node"`
	PromptID string                    `json:"prompt_id"`
	Output   map[string][]RenderOutput `json:"output"`
}

type wsDataInterrupted struct {
	PromptID string `json:"prompt_id"`
}

type wsDataExecutionError struct {
	PromptID         string   `json:"prompt_id"`
	Node             string   `json:"node_id"`
	NodeType         string   `json:"node_type"`
	ExceptionMessage string   `json:"exception_message"`
	ExceptionType    string   `json:"exception_type"`
	Traceback        []string `json:"traceback"`
}

// RenderOutput locates one file the renderer produced for a node.
type RenderOutput struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// JobMessage is one update on a queued job's message channel.
// Types: started, executing, progress, data, stopped.
type JobMessage struct {
	Type    string
	Message interface{}
}

type JobMessageStarted struct {
	PromptID string
}

func (p *JobMessage) ToStarted() *JobMessageStarted {
	return p.Message.(*JobMessageStarted)
}

type JobMessageExecuting struct {
	NodeID string
	Title  string
}

func (p *JobMessage) ToExecuting() *JobMessageExecuting {
	return p.Message.(*JobMessageExecuting)
}

type JobMessageProgress struct {
	Value int
	Max   int
}

func (p *JobMessage) ToProgress() *JobMessageProgress {
	return p.Message.(*JobMessageProgress)
}

type JobMessageData struct {
	NodeID string
	Data   map[string][]RenderOutput
}

func (p *JobMessage) ToData() *JobMessageData {
	return p.Message.(*JobMessageData)
}

type JobMessageStopped struct {
	Job       *Job
	Exception *JobException
}

func (p *JobMessage) ToStopped() *JobMessageStopped {
	return p.Message.(*JobMessageStopped)
}

// JobException describes a node failure reported by the renderer.
type JobException struct {
	NodeID           string
	NodeType         string
	NodeName         string
	ExceptionMessage string
	ExceptionType    string
	Traceback        []string
}

// Job is a prompt the client has queued on the renderer and not yet seen
// finish. Messages delivers JobMessage updates until the stopped message.
type Job struct {
	PromptID   string                 `json:"prompt_id"`
	Number     int                    `json:"number"`
	NodeErrors map[string]interface{} `json:"node_errors"`
	Messages   chan JobMessage        `json:"-"`
	Graph      *graphapi.Graph        `json:"-"`
}
