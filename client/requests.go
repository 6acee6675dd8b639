package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/NickPittas/DirectorsConsole-sub000/graphapi"
)

// queuePayload is the body of a prompt submission. The graph marshals
// directly into the renderer's prompt format; the rebuilder already produced
// canonical form.
type queuePayload struct {
	ClientID string          `json:"client_id"`
	Prompt   *graphapi.Graph `json:"prompt"`
}

type promptError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details"`
}

type promptErrorMessage struct {
	Error      promptError   `json:"error"`
	NodeErrors []interface{} `json:"node_errors"`
}

// QueueJob submits a final canonical graph for execution and returns the
// queued job. The graph must already be rebuilt; disabled nodes or retained
// positional values would be rejected by the renderer.
func (c *RenderClient) QueueJob(graph *graphapi.Graph) (*Job, error) {
	if err := c.CheckConnection(); err != nil {
		return nil, err
	}

	payload := queuePayload{ClientID: c.clientid, Prompt: graph}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	// prevent the socket reader from dispatching messages for this job
	// before it is in the map
	c.webSocket.LockRead()
	defer c.webSocket.UnlockRead()

	resp, err := c.httpclient.Post(fmt.Sprintf("http://%s/prompt", c.serverBaseAddress),
		"application/json", strings.NewReader(string(data)))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	job := &Job{
		Graph:    graph,
		Messages: make(chan JobMessage),
	}
	if err := json.Unmarshal(body, job); err != nil || job.PromptID == "" {
		perror := &promptErrorMessage{}
		if perr := json.Unmarshal(body, perror); perr != nil || perror.Error.Message == "" {
			return nil, fmt.Errorf("unexpected queue response: %s", string(body))
		}
		return nil, errors.New(perror.Error.Message)
	}

	c.jobs[job.PromptID] = job
	return job, nil
}

// Interrupt asks the renderer to stop the currently executing prompt.
func (c *RenderClient) Interrupt() error {
	resp, err := c.httpclient.Post(fmt.Sprintf("http://%s/interrupt", c.serverBaseAddress),
		"application/json", strings.NewReader("{}"))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.ReadAll(resp.Body)
	return nil
}

// QueueRemaining reports how many prompts the renderer still has queued.
func (c *RenderClient) QueueRemaining() (int, error) {
	resp, err := c.httpclient.Get(fmt.Sprintf("http://%s/prompt", c.serverBaseAddress))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	var info struct {
		ExecInfo struct {
			QueueRemaining int `json:"queue_remaining"`
		} `json:"exec_info"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return 0, err
	}
	return info.ExecInfo.QueueRemaining, nil
}

// FetchOutput downloads one rendered output file.
func (c *RenderClient) FetchOutput(output RenderOutput) ([]byte, error) {
	params := url.Values{}
	params.Add("filename", output.Filename)
	params.Add("subfolder", output.Subfolder)
	params.Add("type", output.Type)
	resp, err := c.httpclient.Get(fmt.Sprintf("http://%s/view?%s", c.serverBaseAddress, params.Encode()))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch output: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// EraseHistoryItem removes one finished prompt from the renderer's history.
func (c *RenderClient) EraseHistoryItem(promptID string) error {
	item := fmt.Sprintf("{\"delete\": [%q]}", promptID)
	resp, err := c.httpclient.Post(fmt.Sprintf("http://%s/history", c.serverBaseAddress),
		"application/json", strings.NewReader(item))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.ReadAll(resp.Body)
	return nil
}
