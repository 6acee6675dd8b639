package client

import "log/slog"

// MessageHandlers defines optional callbacks for consuming a job's message
// channel. Only provide handlers for the messages you care about.
type MessageHandlers struct {
	// OnStarted is called when execution begins
	OnStarted func(*JobMessageStarted)

	// OnExecuting is called when a node starts executing
	OnExecuting func(*JobMessageExecuting)

	// OnProgress is called with progress updates during node execution
	OnProgress func(*JobMessageProgress)

	// OnData is called when output data is available
	OnData func(*JobMessageData)

	// OnStopped is called when execution stops (success, error, or interruption)
	OnStopped func(*JobMessageStopped)

	// OnError is called before OnStopped when the renderer reports an
	// exception
	OnError func(*JobException)

	// OnComplete is called after the message loop exits, regardless of
	// success or failure
	OnComplete func()
}

// DefaultMessageHandlers logs lifecycle messages and errors; progress is
// left to the caller.
func DefaultMessageHandlers() *MessageHandlers {
	return &MessageHandlers{
		OnStarted: func(msg *JobMessageStarted) {
			slog.Info("execution started", "prompt_id", msg.PromptID)
		},
		OnExecuting: func(msg *JobMessageExecuting) {
			slog.Info("executing node", "node_id", msg.NodeID, "title", msg.Title)
		},
		OnError: func(err *JobException) {
			slog.Error("execution error",
				"node_id", err.NodeID,
				"node_type", err.NodeType,
				"error", err.ExceptionMessage,
			)
		},
		OnStopped: func(msg *JobMessageStopped) {
			if msg.Exception == nil {
				slog.Info("execution completed")
			}
		},
	}
}

// ProcessMessages reads the job's channel until the stopped message,
// dispatching to the handlers. It blocks; run it in a goroutine if needed.
func (c *RenderClient) ProcessMessages(job *Job, handlers *MessageHandlers) {
	if handlers == nil {
		handlers = DefaultMessageHandlers()
	}
	defer func() {
		if handlers.OnComplete != nil {
			handlers.OnComplete()
		}
	}()

	for {
		msg := <-job.Messages
		switch msg.Type {
		case "started":
			if handlers.OnStarted != nil {
				handlers.OnStarted(msg.ToStarted())
			}
		case "executing":
			if handlers.OnExecuting != nil {
				handlers.OnExecuting(msg.ToExecuting())
			}
		case "progress":
			if handlers.OnProgress != nil {
				handlers.OnProgress(msg.ToProgress())
			}
		case "data":
			if handlers.OnData != nil {
				handlers.OnData(msg.ToData())
			}
		case "stopped":
			stopped := msg.ToStopped()
			if stopped.Exception != nil && handlers.OnError != nil {
				handlers.OnError(stopped.Exception)
			}
			if handlers.OnStopped != nil {
				handlers.OnStopped(stopped)
			}
			return
		}
	}
}
