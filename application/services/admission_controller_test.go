package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-audio-pipeline/application/ports/inbound"
	"document-audio-pipeline/domain"
	"document-audio-pipeline/infrastructure/adapters"
)

func testIdentity(key, content string) domain.DocumentIdentity {
	return domain.DocumentIdentity{
		SourceKey:   key,
		Fingerprint: domain.Fingerprint([]byte(content)),
	}
}

func TestAdmissionController_AdmitsNewIdentity(t *testing.T) {
	controller := NewAdmissionController(adapters.NewMemoryJobRegistry(), adapters.NewZerologWrapper())
	identity := testIdentity("docs/report.txt", "report body")

	decision, err := controller.Admit(context.Background(), identity)

	require.NoError(t, err)
	assert.Equal(t, inbound.AdmissionNewJob, decision.Kind)
	assert.Equal(t, identity.JobID(), decision.JobID)
}

func TestAdmissionController_AbsorbsDuplicateWhileRunning(t *testing.T) {
	controller := NewAdmissionController(adapters.NewMemoryJobRegistry(), adapters.NewZerologWrapper())
	identity := testIdentity("docs/report.txt", "report body")
	ctx := context.Background()

	first, err := controller.Admit(ctx, identity)
	require.NoError(t, err)
	require.Equal(t, inbound.AdmissionNewJob, first.Kind)

	second, err := controller.Admit(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, inbound.AdmissionAlreadyRunning, second.Kind)
	assert.Equal(t, first.JobID, second.JobID)
}

func TestAdmissionController_ReportsCompletedOutput(t *testing.T) {
	controller := NewAdmissionController(adapters.NewMemoryJobRegistry(), adapters.NewZerologWrapper())
	identity := testIdentity("docs/report.txt", "report body")
	ctx := context.Background()

	first, err := controller.Admit(ctx, identity)
	require.NoError(t, err)
	require.NoError(t, controller.Complete(ctx, first.JobID, "docs/report.abc123.mp3"))

	decision, err := controller.Admit(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, inbound.AdmissionAlreadyComplete, decision.Kind)
	assert.Equal(t, "docs/report.abc123.mp3", decision.OutputKey)
}

func TestAdmissionController_ReportsRecordedFailure(t *testing.T) {
	controller := NewAdmissionController(adapters.NewMemoryJobRegistry(), adapters.NewZerologWrapper())
	identity := testIdentity("docs/report.txt", "report body")
	ctx := context.Background()

	first, err := controller.Admit(ctx, identity)
	require.NoError(t, err)
	require.NoError(t, controller.Fail(ctx, first.JobID, domain.FailurePartialSynthesis))

	decision, err := controller.Admit(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, inbound.AdmissionAlreadyFailed, decision.Kind)
	assert.Equal(t, string(domain.FailurePartialSynthesis), decision.FailureReason)
}

func TestAdmissionController_ReleaseAllowsRetry(t *testing.T) {
	controller := NewAdmissionController(adapters.NewMemoryJobRegistry(), adapters.NewZerologWrapper())
	identity := testIdentity("docs/report.txt", "report body")
	ctx := context.Background()

	first, err := controller.Admit(ctx, identity)
	require.NoError(t, err)
	require.NoError(t, controller.Release(ctx, first.JobID))

	decision, err := controller.Admit(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, inbound.AdmissionNewJob, decision.Kind)
}

func TestAdmissionController_ChangedContentIsANewJob(t *testing.T) {
	controller := NewAdmissionController(adapters.NewMemoryJobRegistry(), adapters.NewZerologWrapper())
	ctx := context.Background()

	v1 := testIdentity("docs/report.txt", "version one")
	v2 := testIdentity("docs/report.txt", "version two")

	first, err := controller.Admit(ctx, v1)
	require.NoError(t, err)
	require.NoError(t, controller.Complete(ctx, first.JobID, "docs/report.v1.mp3"))

	decision, err := controller.Admit(ctx, v2)
	require.NoError(t, err)
	assert.Equal(t, inbound.AdmissionNewJob, decision.Kind)
	assert.NotEqual(t, first.JobID, decision.JobID)
}

func TestAdmissionController_ConcurrentAdmissionHasOneWinner(t *testing.T) {
	controller := NewAdmissionController(adapters.NewMemoryJobRegistry(), adapters.NewZerologWrapper())
	identity := testIdentity("docs/contended.txt", "contended body")

	const callers = 32
	decisions := make([]inbound.AdmissionDecision, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		i := i
		go func() {
			defer wg.Done()
			decision, err := controller.Admit(context.Background(), identity)
			require.NoError(t, err)
			decisions[i] = decision
		}()
	}
	wg.Wait()

	winners := 0
	for _, decision := range decisions {
		switch decision.Kind {
		case inbound.AdmissionNewJob:
			winners++
		case inbound.AdmissionAlreadyRunning:
		default:
			t.Fatalf("unexpected decision %q", decision.Kind)
		}
	}
	assert.Equal(t, 1, winners)
}
