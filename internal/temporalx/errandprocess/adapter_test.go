package errandprocess

import (
	"context"
	"errors"
	"testing"
	"time"

	temporalsdkclient "go.temporal.io/sdk/client"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/OpenSundsvall/api-service-case-data/internal/temporalx"
)

type spyRun struct {
	temporalsdkclient.WorkflowRun
	runID string
}

func (r spyRun) GetRunID() string { return r.runID }

type spyWorkflowClient struct {
	startErrs  []error
	signalErrs []error

	startCalls  int
	signalCalls int
	restarts    int
	lastOpts    temporalsdkclient.StartWorkflowOptions
	lastArgs    []interface{}
	lastSignal  string
	lastWFID    string

	// running holds the workflow ids with an open run, the way the
	// frontend tracks them.
	running map[string]bool
}

func (c *spyWorkflowClient) ExecuteWorkflow(_ context.Context, opts temporalsdkclient.StartWorkflowOptions, _ interface{}, args ...interface{}) (temporalsdkclient.WorkflowRun, error) {
	c.startCalls++
	c.lastOpts = opts
	c.lastArgs = args
	if n := c.startCalls - 1; n < len(c.startErrs) && c.startErrs[n] != nil {
		return nil, c.startErrs[n]
	}
	c.markRunning(opts.ID)
	return spyRun{runID: "run-1"}, nil
}

func (c *spyWorkflowClient) SignalWithStartWorkflow(_ context.Context, workflowID string, signalName string, _ interface{}, opts temporalsdkclient.StartWorkflowOptions, _ interface{}, args ...interface{}) (temporalsdkclient.WorkflowRun, error) {
	c.signalCalls++
	c.lastWFID = workflowID
	c.lastSignal = signalName
	c.lastOpts = opts
	c.lastArgs = args
	if n := c.signalCalls - 1; n < len(c.signalErrs) && c.signalErrs[n] != nil {
		return nil, c.signalErrs[n]
	}
	if !c.running[workflowID] {
		c.restarts++
		c.markRunning(workflowID)
	}
	return spyRun{runID: "run-2"}, nil
}

func (c *spyWorkflowClient) markRunning(id string) {
	if c.running == nil {
		c.running = map[string]bool{}
	}
	c.running[id] = true
}

// complete ends the open run, as the workflow does once the errand is closed.
func (c *spyWorkflowClient) complete(id string) { delete(c.running, id) }

func testConfig() temporalx.Config {
	return temporalx.Config{TaskQueue: "q", RPCMaxAttempts: 3, Backoff: time.Millisecond, BackoffMax: time.Millisecond}
}

func TestAdapterStartProcess(t *testing.T) {
	tc := &spyWorkflowClient{}
	a := NewAdapter(nil, tc, testConfig())

	processID, err := a.StartProcess(context.Background(), 42)
	if err != nil {
		t.Fatalf("StartProcess: %v", err)
	}
	if processID != "errand-process-42" {
		t.Fatalf("process id: want=%q got=%q", "errand-process-42", processID)
	}
	if tc.lastOpts.ID != "errand-process-42" || tc.lastOpts.TaskQueue != "q" {
		t.Fatalf("start options: got id=%q queue=%q", tc.lastOpts.ID, tc.lastOpts.TaskQueue)
	}
	if len(tc.lastArgs) != 1 || tc.lastArgs[0].(StartInput).ErrandID != 42 {
		t.Fatalf("start args: got %#v", tc.lastArgs)
	}
}

func TestAdapterRetriesTransientFailures(t *testing.T) {
	tc := &spyWorkflowClient{startErrs: []error{status.Error(codes.Unavailable, "down"), nil}}
	a := NewAdapter(nil, tc, testConfig())

	if _, err := a.StartProcess(context.Background(), 1); err != nil {
		t.Fatalf("StartProcess: %v", err)
	}
	if tc.startCalls != 2 {
		t.Fatalf("start calls: want=2 got=%d", tc.startCalls)
	}
}

func TestAdapterGivesUpAfterMaxAttempts(t *testing.T) {
	unavailable := status.Error(codes.Unavailable, "down")
	tc := &spyWorkflowClient{signalErrs: []error{unavailable, unavailable, unavailable, unavailable}}
	a := NewAdapter(nil, tc, testConfig())

	err := a.UpdateProcess(context.Background(), 5)
	if err == nil {
		t.Fatalf("expected error")
	}
	if tc.signalCalls != 3 {
		t.Fatalf("signal calls: want=3 got=%d", tc.signalCalls)
	}
	if tc.lastWFID != "errand-process-5" || tc.lastSignal != SignalErrandUpdated {
		t.Fatalf("signal target: got wf=%q signal=%q", tc.lastWFID, tc.lastSignal)
	}
}

func TestAdapterDoesNotRetryPermanentFailures(t *testing.T) {
	boom := errors.New("workflow not found")
	tc := &spyWorkflowClient{signalErrs: []error{boom}}
	a := NewAdapter(nil, tc, testConfig())

	err := a.UpdateProcess(context.Background(), 5)
	if !errors.Is(err, boom) {
		t.Fatalf("error: want wrapped %v got %v", boom, err)
	}
	if tc.signalCalls != 1 {
		t.Fatalf("signal calls: want=1 got=%d", tc.signalCalls)
	}
}

func TestAdapterUpdatesErrandWhoseProcessCompleted(t *testing.T) {
	tc := &spyWorkflowClient{}
	a := NewAdapter(nil, tc, testConfig())

	processID, err := a.StartProcess(context.Background(), 7)
	if err != nil {
		t.Fatalf("StartProcess: %v", err)
	}
	tc.complete(processID)

	for i := 0; i < 2; i++ {
		if err := a.UpdateProcess(context.Background(), 7); err != nil {
			t.Fatalf("UpdateProcess #%d: %v", i+1, err)
		}
	}
	if tc.restarts != 1 {
		t.Fatalf("restarts: want=1 got=%d", tc.restarts)
	}
	if tc.lastOpts.ID != processID || tc.lastOpts.TaskQueue != "q" {
		t.Fatalf("start options: got id=%q queue=%q", tc.lastOpts.ID, tc.lastOpts.TaskQueue)
	}
	if len(tc.lastArgs) != 1 || tc.lastArgs[0].(StartInput).ErrandID != 7 {
		t.Fatalf("start args: got %#v", tc.lastArgs)
	}
}

func TestAdapterKeepsProcessIDAcrossRuns(t *testing.T) {
	tc := &spyWorkflowClient{}
	a := NewAdapter(nil, tc, testConfig())

	first, err := a.StartProcess(context.Background(), 3)
	if err != nil {
		t.Fatalf("StartProcess: %v", err)
	}
	tc.complete(first)
	second, err := a.StartProcess(context.Background(), 3)
	if err != nil {
		t.Fatalf("StartProcess again: %v", err)
	}
	if first != second || first != WorkflowID(3) {
		t.Fatalf("process id: want=%q got first=%q second=%q", WorkflowID(3), first, second)
	}
}
