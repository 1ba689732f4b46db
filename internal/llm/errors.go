package llm

import "fmt"

// EndpointError reports a failed round trip to a model endpoint. The caller
// sees the current turn aborted; nothing retries internally.
type EndpointError struct {
	Provider string
	Status   int    // HTTP status, 0 when the request never completed
	Message  string // API-reported error message, if any
	Err      error  // underlying transport or decode error
}

func (e *EndpointError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%s request failed with status %d", e.Provider, e.Status)
	default:
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	}
}

func (e *EndpointError) Unwrap() error { return e.Err }
