package client

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type JobStoppedReason string

const (
	JobStoppedReasonFinished    JobStoppedReason = "finished"
	JobStoppedReasonInterrupted JobStoppedReason = "interrupted"
	JobStoppedReasonError       JobStoppedReason = "error"
)

// Callbacks are optional client-level hooks, fired alongside the per-job
// message channels.
type Callbacks struct {
	QueueCountChanged func(*RenderClient, int)
	JobStarted        func(*RenderClient, *Job)
	JobStopped        func(*RenderClient, *Job, JobStoppedReason)
	JobDataAvailable  func(*RenderClient, *Job, *JobMessageData)
}

// RenderClient submits final canonical graphs to a renderer instance and
// streams execution progress back over its status websocket.
type RenderClient struct {
	serverBaseAddress     string
	serverAddress         string
	serverPort            int
	clientid              string
	initialized           bool
	jobs                  map[string]*Job
	queuecount            int
	callbacks             *Callbacks
	lastProcessedPromptID string
	timeout               int
	webSocket             *WebSocketConnection
	httpclient            *http.Client
}

// NewRenderClient creates a client for the renderer at the given address.
// The client id identifying this connection to the renderer is generated
// once per client.
func NewRenderClient(serverAddress string, serverPort int, callbacks *Callbacks) *RenderClient {
	return NewRenderClientWithTimeout(serverAddress, serverPort, callbacks, -1)
}

// NewRenderClientWithTimeout creates a client whose initial websocket
// connection gives up after timeout seconds.
func NewRenderClientWithTimeout(serverAddress string, serverPort int, callbacks *Callbacks, timeout int) *RenderClient {
	sbaseaddr := serverAddress + ":" + strconv.Itoa(serverPort)
	cid := uuid.New().String()
	retv := &RenderClient{
		serverBaseAddress: sbaseaddr,
		serverAddress:     serverAddress,
		serverPort:        serverPort,
		clientid:          cid,
		jobs:              make(map[string]*Job),
		callbacks:         callbacks,
		timeout:           timeout,
		httpclient:        &http.Client{},
	}
	retv.webSocket = &WebSocketConnection{
		WebSocketURL:   fmt.Sprintf("ws://%s/ws?clientId=%s", sbaseaddr, cid),
		ConnectionDone: make(chan bool, 1),
		MaxRetry:       5,
		BaseDelay:      time.Second,
		MaxDelay:       time.Minute,
		Callback:       retv,
	}
	return retv
}

// IsInitialized returns true once the status websocket is connected.
func (c *RenderClient) IsInitialized() bool {
	return c.initialized
}

// Init connects the status websocket. Queuing a job on an uninitialized
// client calls this implicitly.
func (c *RenderClient) Init() error {
	if err := c.webSocket.ConnectWithManager(c.timeout); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// CheckConnection initializes the client if it is not already.
func (c *RenderClient) CheckConnection() error {
	if !c.IsInitialized() {
		return c.Init()
	}
	return nil
}

// ClientID returns the unique client id sent with every queued prompt.
func (c *RenderClient) ClientID() string {
	return c.clientid
}

func (c *RenderClient) HTTPClient() *http.Client {
	return c.httpclient
}

func (c *RenderClient) SetHTTPClient(client *http.Client) {
	c.httpclient = client
}

// GetJob returns a queued job that has not finished yet.
func (c *RenderClient) GetJob(promptID string) *Job {
	val, ok := c.jobs[promptID]
	if ok {
		return val
	}
	return nil
}

// jobForPrompt is a nil-safe lookup for websocket dispatch.
func (c *RenderClient) jobForPrompt(promptID string) *Job {
	if promptID == "" {
		return c.GetJob(c.lastProcessedPromptID)
	}
	return c.GetJob(promptID)
}

// OnMessage translates each status socket message into typed JobMessages on
// the owning job's channel.
func (c *RenderClient) OnMessage(msg string) {
	message := &wsMessage{}
	if err := json.Unmarshal([]byte(msg), message); err != nil {
		slog.Error("deserializing status message", "error", err)
		return
	}

	switch message.Type {
	case "status":
		s := message.Data.(*wsDataStatus)
		c.queuecount = s.Status.ExecInfo.QueueRemaining
		if c.callbacks != nil && c.callbacks.QueueCountChanged != nil {
			c.callbacks.QueueCountChanged(c, c.queuecount)
		}
	case "execution_start":
		s := message.Data.(*wsDataExecutionStart)
		c.lastProcessedPromptID = s.PromptID
		if job := c.GetJob(s.PromptID); job != nil {
			if c.callbacks != nil && c.callbacks.JobStarted != nil {
				c.callbacks.JobStarted(c, job)
			}
			job.Messages <- JobMessage{
				Type:    "started",
				Message: &JobMessageStarted{PromptID: job.PromptID},
			}
		}
	case "executing":
		s := message.Data.(*wsDataExecuting)
		job := c.jobForPrompt(s.PromptID)
		if job == nil {
			return
		}
		if s.Node == nil {
			// the final node of the prompt has been processed
			if c.callbacks != nil && c.callbacks.JobStopped != nil {
				c.callbacks.JobStopped(c, job, JobStoppedReasonFinished)
			}
			delete(c.jobs, job.PromptID)
			job.Messages <- JobMessage{
				Type:    "stopped",
				Message: &JobMessageStopped{Job: job},
			}
			return
		}
		title := *s.Node
		if node := job.Graph.GetNodeByID(*s.Node); node != nil {
			if node.Title != "" {
				title = node.Title
			} else {
				title = node.Type
			}
		}
		job.Messages <- JobMessage{
			Type:    "executing",
			Message: &JobMessageExecuting{NodeID: *s.Node, Title: title},
		}
	case "progress":
		s := message.Data.(*wsDataProgress)
		if job := c.jobForPrompt(""); job != nil {
			job.Messages <- JobMessage{
				Type:    "progress",
				Message: &JobMessageProgress{Value: s.Value, Max: s.Max},
			}
		}
	case "executed":
		s := message.Data.(*wsDataExecuted)
		job := c.jobForPrompt(s.PromptID)
		if job == nil {
			return
		}
		mdata := &JobMessageData{
			NodeID: s.Node,
			Data:   s.Output,
		}
		if c.callbacks != nil && c.callbacks.JobDataAvailable != nil {
			c.callbacks.JobDataAvailable(c, job, mdata)
		}
		job.Messages <- JobMessage{Type: "data", Message: mdata}
	case "execution_interrupted":
		s := message.Data.(*wsDataInterrupted)
		job := c.jobForPrompt(s.PromptID)
		if job == nil {
			return
		}
		if c.callbacks != nil && c.callbacks.JobStopped != nil {
			c.callbacks.JobStopped(c, job, JobStoppedReasonInterrupted)
		}
		delete(c.jobs, job.PromptID)
		job.Messages <- JobMessage{
			Type:    "stopped",
			Message: &JobMessageStopped{Job: job},
		}
	case "execution_error":
		s := message.Data.(*wsDataExecutionError)
		job := c.jobForPrompt(s.PromptID)
		if job == nil {
			return
		}
		nodeName := s.Node
		if node := job.Graph.GetNodeByID(s.Node); node != nil && node.Title != "" {
			nodeName = node.Title
		}
		if c.callbacks != nil && c.callbacks.JobStopped != nil {
			c.callbacks.JobStopped(c, job, JobStoppedReasonError)
		}
		delete(c.jobs, job.PromptID)
		job.Messages <- JobMessage{
			Type: "stopped",
			Message: &JobMessageStopped{
				Job: job,
				Exception: &JobException{
					NodeID:           s.Node,
					NodeType:         s.NodeType,
					NodeName:         nodeName,
					ExceptionMessage: s.ExceptionMessage,
					ExceptionType:    s.ExceptionType,
					Traceback:        s.Traceback,
				},
			},
		}
	default:
		slog.Warn("unhandled status message", "type", message.Type)
	}
}
