package importer

import (
	"encoding/json"
	"fmt"
	"io"

	"angelhub/pkg/models"
	"angelhub/pkg/utils"
)

// jsonEnvelope matches both the current backup shape and the legacy
// export that used a top-level "poems" array.
type jsonEnvelope struct {
	Works []*models.Work `json:"works"`
	Poems []*models.Work `json:"poems"`
}

// JSON imports a backup document. Accepted shapes: the backup envelope
// ({"works": [...]}), the legacy {"poems": [...]}, or a bare array.
// Records merge by id; records without a title are skipped.
func (im *Importer) JSON(r io.Reader) (*Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading import payload: %w", utils.ErrImport, err)
	}

	works, err := decodeWorks(raw)
	if err != nil {
		return nil, err
	}
	if len(works) == 0 {
		return nil, fmt.Errorf("%w: import payload contains no works", utils.ErrImport)
	}

	result := &Result{}
	for _, w := range works {
		normalizeIncoming(w)
		if w.Title == "" {
			im.log.Warnf("Skipping imported work '%s': no title", w.ID)
			result.Skipped++
			continue
		}
		updated, err := im.storeWork(w)
		if err != nil {
			return result, err
		}
		if updated {
			result.Updated++
		} else {
			result.Created++
		}
	}
	im.log.Infof("JSON import: %d created, %d updated, %d skipped", result.Created, result.Updated, result.Skipped)
	return result, nil
}

func decodeWorks(raw []byte) ([]*models.Work, error) {
	var envelope jsonEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if len(envelope.Works) > 0 {
			return envelope.Works, nil
		}
		if len(envelope.Poems) > 0 {
			return envelope.Poems, nil
		}
	}

	var works []*models.Work
	if err := json.Unmarshal(raw, &works); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON import payload: %w", utils.ErrImport, err)
	}
	return works, nil
}
