package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"mod-catalog-mirror/catalog"
	"mod-catalog-mirror/importer"
	"mod-catalog-mirror/refresh"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintReportSkipped(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, refresh.Report{Decision: refresh.Skip})
	assert.Contains(t, buf.String(), "Refresh skipped")
}

func TestPrintReport(t *testing.T) {
	var recErrs []*catalog.RecordError
	for i := 0; i < 7; i++ {
		recErrs = append(recErrs, &catalog.RecordError{Index: i, Name: fmt.Sprintf("Bad%d", i), Err: errors.New("missing uuid4")})
	}
	report := refresh.Report{
		Decision: refresh.FetchRemote,
		Source:   refresh.SourceRemote,
		Duration: 1500 * time.Millisecond,
		Result: importer.Result{
			ModsInserted:      12345,
			ModsUpdated:       3,
			CategoriesCreated: 2,
			LinksWritten:      40,
			RecordsSkipped:    7,
		},
		RecordErrors: recErrs,
	}

	var buf bytes.Buffer
	printReport(&buf, report)
	out := buf.String()

	assert.Contains(t, out, "Catalog imported from remote in 1.5s")
	assert.Contains(t, out, "12,345 inserted, 3 updated")
	assert.Contains(t, out, "7 malformed records")
	assert.Contains(t, out, `name="Bad4"`)
	assert.NotContains(t, out, `name="Bad5"`)
	assert.Contains(t, out, "... and 2 more")
}

func TestRefreshModel(t *testing.T) {
	ran := make(chan struct{})
	m := newRefreshModel(func(progress func(refresh.Event)) (refresh.Report, error) {
		progress(refresh.Event{Stage: refresh.StageDecide, Message: "checking cache"})
		progress(refresh.Event{Stage: refresh.StageDone, Message: "refresh complete"})
		close(ran)
		return refresh.Report{Decision: refresh.UseCache, Source: refresh.SourceCache}, nil
	})

	// Drive the model the way the bubbletea runtime would.
	assert.Nil(t, m.start()())
	model := m
	for {
		msg := m.waitForActivity()()
		if msg == nil {
			break
		}
		next, _ := model.Update(msg)
		model = next.(refreshModel)
	}
	<-ran

	require.True(t, model.done)
	assert.NoError(t, model.err)
	assert.Equal(t, []string{"checking cache", "refresh complete"}, model.completed)
	assert.Equal(t, "Finished", model.status)
	assert.Contains(t, model.View(), "Catalog imported from cache")
}

func TestRefreshModelFailure(t *testing.T) {
	m := newRefreshModel(nil)
	next, cmd := m.Update(refreshDoneMsg{err: &refresh.TransportError{Err: errors.New("status 503")}})
	model := next.(refreshModel)

	assert.NotNil(t, cmd)
	assert.True(t, model.done)
	assert.Equal(t, "Refresh failed", model.status)
	assert.Contains(t, model.View(), "status 503")
}
