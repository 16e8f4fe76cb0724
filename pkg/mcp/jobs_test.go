package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobManager_CreateJob(t *testing.T) {
	m := NewJobManager()

	job, err := m.CreateJob("/imports/books")
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "/imports/books", job.Source)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.False(t, job.StartedAt.IsZero())

	t.Run("duplicate source returns running job", func(t *testing.T) {
		again, err := m.CreateJob("/imports/books")
		require.NoError(t, err)
		assert.Equal(t, job.ID, again.ID)
	})

	t.Run("completed source allows a new job", func(t *testing.T) {
		m.UpdateStatus(job.ID, JobStatusCompleted, "")
		fresh, err := m.CreateJob("/imports/books")
		require.NoError(t, err)
		assert.NotEqual(t, job.ID, fresh.ID)
	})
}

func TestJobManager_StatusAndProgress(t *testing.T) {
	m := NewJobManager()
	job, err := m.CreateJob("/imports/poems")
	require.NoError(t, err)

	m.UpdateStatus(job.ID, JobStatusRunning, "")
	assert.True(t, m.IsRunning("/imports/poems"))

	m.UpdateProgress(job.ID, 3, 1)
	got := m.GetJob(job.ID)
	assert.Equal(t, int64(3), got.FilesImported)
	assert.Equal(t, int64(1), got.FilesFailed)

	m.UpdateStatus(job.ID, JobStatusFailed, "disk full")
	got = m.GetJob(job.ID)
	assert.Equal(t, JobStatusFailed, got.Status)
	assert.Equal(t, "disk full", got.ErrorMessage)
	assert.False(t, got.CompletedAt.IsZero())
	assert.False(t, m.IsRunning("/imports/poems"))
}

func TestJobManager_Cancel(t *testing.T) {
	m := NewJobManager()
	job, err := m.CreateJob("/imports/a")
	require.NoError(t, err)

	ctx := m.GetContext(job.ID)
	require.NoError(t, ctx.Err())

	assert.True(t, m.CancelJob(job.ID))
	assert.Error(t, ctx.Err())
	assert.Equal(t, JobStatusCancelled, m.GetJob(job.ID).Status)

	t.Run("cancelling a finished job is a no-op", func(t *testing.T) {
		assert.False(t, m.CancelJob(job.ID))
	})

	t.Run("cancel all", func(t *testing.T) {
		j1, _ := m.CreateJob("/imports/b")
		j2, _ := m.CreateJob("/imports/c")
		m.CancelAll()
		assert.Equal(t, JobStatusCancelled, m.GetJob(j1.ID).Status)
		assert.Equal(t, JobStatusCancelled, m.GetJob(j2.ID).Status)
	})
}

func TestJobManager_GetJobBySource(t *testing.T) {
	m := NewJobManager()
	job, err := m.CreateJob("/imports/x")
	require.NoError(t, err)

	assert.Equal(t, job.ID, m.GetJobBySource("/imports/x").ID)
	assert.Nil(t, m.GetJobBySource("/imports/unknown"))
	assert.Len(t, m.ListJobs(), 1)
}
