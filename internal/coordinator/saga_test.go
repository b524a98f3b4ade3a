package coordinator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/ecommerce-storefront/internal/coordinator/sagalog"
)

type recordingStep struct {
	name        string
	failExecute bool
	calls       *[]string
}

func (s recordingStep) Name() string { return s.name }

func (s recordingStep) Execute(ctx context.Context) error {
	*s.calls = append(*s.calls, "execute:"+s.name)
	if s.failExecute {
		return errors.New("boom")
	}
	return nil
}

func (s recordingStep) Compensate(ctx context.Context) error {
	*s.calls = append(*s.calls, "compensate:"+s.name)
	return nil
}

type memoryLog struct {
	entries []*sagalog.SagaLog
}

func (m *memoryLog) Save(ctx context.Context, entry *sagalog.SagaLog) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryLog) statuses() []sagalog.Status {
	out := make([]sagalog.Status, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Status
	}
	return out
}

func TestOrchestratorStart(t *testing.T) {
	t.Run("all steps succeed", func(t *testing.T) {
		var calls []string
		log := &memoryLog{}
		steps := []Step{
			recordingStep{name: "a", calls: &calls},
			recordingStep{name: "b", calls: &calls},
		}

		err := NewOrchestrator("100001", steps, log).WithPayload(`{"basket":1}`).Start(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"execute:a", "execute:b"}, calls)
		assert.Equal(t, []sagalog.Status{
			sagalog.StatusStarted, sagalog.StatusStepDone, sagalog.StatusStepDone, sagalog.StatusCompleted,
		}, log.statuses())
		assert.Equal(t, `{"basket":1}`, log.entries[0].Payload)
		assert.Equal(t, "100001", log.entries[3].SagaID)
	})

	t.Run("failure compensates earlier steps in reverse", func(t *testing.T) {
		var calls []string
		log := &memoryLog{}
		steps := []Step{
			recordingStep{name: "a", calls: &calls},
			recordingStep{name: "b", calls: &calls},
			recordingStep{name: "c", calls: &calls, failExecute: true},
		}

		err := NewOrchestrator("100002", steps, log).Start(context.Background())
		require.Error(t, err)
		assert.Equal(t, []string{
			"execute:a", "execute:b", "execute:c", "compensate:b", "compensate:a",
		}, calls)

		last := log.entries[len(log.entries)-1]
		assert.Equal(t, sagalog.StatusFailed, last.Status)
		assert.Equal(t, "c", last.CurrentStep)
		assert.Contains(t, last.ErrorMessages, "step c failed: boom")
	})

	t.Run("nil log repository is allowed", func(t *testing.T) {
		var calls []string
		err := NewOrchestrator("100003", []Step{recordingStep{name: "a", calls: &calls}}, nil).Start(context.Background())
		assert.NoError(t, err)
	})
}
