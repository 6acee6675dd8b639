package client

import (
	"encoding/json"
	"testing"

	"github.com/NickPittas/DirectorsConsole-sub000/graphapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGraph() *graphapi.Graph {
	return &graphapi.Graph{Nodes: map[string]*graphapi.Node{
		"3": {Type: "KSampler", Title: "Hero Pass", Inputs: map[string]any{}},
		"9": {Type: "SaveImage", Inputs: map[string]any{}},
	}}
}

// testClient returns a client with one queued job whose channel is buffered
// so OnMessage can be driven synchronously.
func testClient(promptID string) (*RenderClient, *Job) {
	c := NewRenderClient("localhost", 8188, nil)
	job := &Job{
		PromptID: promptID,
		Messages: make(chan JobMessage, 16),
		Graph:    testGraph(),
	}
	c.jobs[promptID] = job
	return c, job
}

func TestStatusMessageUpdatesQueueCount(t *testing.T) {
	var reported int
	c := NewRenderClient("localhost", 8188, &Callbacks{
		QueueCountChanged: func(_ *RenderClient, count int) { reported = count },
	})
	c.OnMessage(`{"type": "status", "data": {"status": {"exec_info": {"queue_remaining": 3}}}}`)
	assert.Equal(t, 3, reported)
	assert.Equal(t, 3, c.queuecount)
}

func TestExecutingMessageCarriesNodeTitle(t *testing.T) {
	c, job := testClient("abc")
	c.OnMessage(`{"type": "execution_start", "data": {"prompt_id": "abc"}}`)
	c.OnMessage(`{"type": "executing", "data": {"node": "3", "prompt_id": "abc"}}`)

	msg := <-job.Messages
	assert.Equal(t, "started", msg.Type)

	msg = <-job.Messages
	require.Equal(t, "executing", msg.Type)
	executing := msg.ToExecuting()
	assert.Equal(t, "3", executing.NodeID)
	assert.Equal(t, "Hero Pass", executing.Title)
}

func TestExecutingNilNodeStopsJob(t *testing.T) {
	var stopped JobStoppedReason
	c, job := testClient("abc")
	c.callbacks = &Callbacks{
		JobStopped: func(_ *RenderClient, _ *Job, reason JobStoppedReason) { stopped = reason },
	}
	c.OnMessage(`{"type": "executing", "data": {"node": null, "prompt_id": "abc"}}`)

	msg := <-job.Messages
	assert.Equal(t, "stopped", msg.Type)
	assert.Nil(t, msg.ToStopped().Exception)
	assert.Equal(t, JobStoppedReasonFinished, stopped)
	assert.Nil(t, c.GetJob("abc"))
}

func TestProgressRoutesToLastStartedPrompt(t *testing.T) {
	c, job := testClient("abc")
	c.OnMessage(`{"type": "execution_start", "data": {"prompt_id": "abc"}}`)
	<-job.Messages
	c.OnMessage(`{"type": "progress", "data": {"value": 4, "max": 20}}`)

	msg := <-job.Messages
	require.Equal(t, "progress", msg.Type)
	progress := msg.ToProgress()
	assert.Equal(t, 4, progress.Value)
	assert.Equal(t, 20, progress.Max)
}

func TestExecutedMessageDeliversOutputs(t *testing.T) {
	c, job := testClient("abc")
	c.OnMessage(`{
		"type": "executed",
		"data": {
			"node": "9",
			"prompt_id": "abc",
			"output": {"images": [{"filename": "render_00001_.png", "subfolder": "", "type": "output"}]}
		}
	}`)

	msg := <-job.Messages
	require.Equal(t, "data", msg.Type)
	data := msg.ToData()
	assert.Equal(t, "9", data.NodeID)
	require.Len(t, data.Data["images"], 1)
	assert.Equal(t, "render_00001_.png", data.Data["images"][0].Filename)
}

func TestExecutionErrorBuildsException(t *testing.T) {
	c, job := testClient("abc")
	c.OnMessage(`{
		"type": "execution_error",
		"data": {
			"prompt_id": "abc",
			"node_id": "3",
			"node_type": "KSampler",
			"exception_message": "out of memory",
			"exception_type": "RuntimeError",
			"traceback": ["line one", "line two"]
		}
	}`)

	msg := <-job.Messages
	require.Equal(t, "stopped", msg.Type)
	ex := msg.ToStopped().Exception
	require.NotNil(t, ex)
	assert.Equal(t, "3", ex.NodeID)
	assert.Equal(t, "Hero Pass", ex.NodeName)
	assert.Equal(t, "out of memory", ex.ExceptionMessage)
	assert.Len(t, ex.Traceback, 2)
}

func TestUnknownMessageTypeIgnored(t *testing.T) {
	c, _ := testClient("abc")
	assert.NotPanics(t, func() {
		c.OnMessage(`{"type": "crystools.monitor", "data": {"cpu": 12}}`)
	})
}

func TestQueuePayloadShape(t *testing.T) {
	payload := queuePayload{ClientID: "cid-1", Prompt: testGraph()}
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "client_id")
	require.Contains(t, decoded, "prompt")

	var prompt map[string]struct {
		ClassType string `json:"class_type"`
	}
	require.NoError(t, json.Unmarshal(decoded["prompt"], &prompt))
	assert.Equal(t, "KSampler", prompt["3"].ClassType)
}

func TestProcessMessagesDispatch(t *testing.T) {
	c, job := testClient("abc")

	var order []string
	handlers := &MessageHandlers{
		OnStarted:   func(*JobMessageStarted) { order = append(order, "started") },
		OnExecuting: func(*JobMessageExecuting) { order = append(order, "executing") },
		OnProgress:  func(*JobMessageProgress) { order = append(order, "progress") },
		OnStopped:   func(*JobMessageStopped) { order = append(order, "stopped") },
		OnComplete:  func() { order = append(order, "complete") },
	}

	job.Messages <- JobMessage{Type: "started", Message: &JobMessageStarted{PromptID: "abc"}}
	job.Messages <- JobMessage{Type: "executing", Message: &JobMessageExecuting{NodeID: "3", Title: "Hero Pass"}}
	job.Messages <- JobMessage{Type: "progress", Message: &JobMessageProgress{Value: 1, Max: 20}}
	job.Messages <- JobMessage{Type: "stopped", Message: &JobMessageStopped{Job: job}}

	c.ProcessMessages(job, handlers)
	assert.Equal(t, []string{"started", "executing", "progress", "stopped", "complete"}, order)
}
