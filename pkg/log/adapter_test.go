package log

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func captureEntry(buf *bytes.Buffer) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(buf)
	logger.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(logger)
}

func TestBadgerLogrusAdapter_ForwardsToEntry(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewBadgerLogrusAdapter(captureEntry(&buf))

	adapter.Errorf("compaction stalled on %s", "vlog")
	adapter.Warningf("value log gc pass %d", 2)
	adapter.Infof("opened with %v tables", 3)
	adapter.Debugf("flushing memtable")

	out := buf.String()
	assert.Contains(t, out, "compaction stalled on vlog")
	assert.Contains(t, out, "value log gc pass 2")
	assert.Contains(t, out, "opened with 3 tables")
	assert.Contains(t, out, "flushing memtable")
}
