package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"angelhub/pkg/models"
	"angelhub/pkg/utils"
)

// Backup is the JSON export envelope. Works carry their full records,
// version history included, so a backup can restore the library
// losslessly.
type Backup struct {
	ExportedAt time.Time      `json:"exported_at"`
	Works      []*models.Work `json:"works"`
}

// JSON writes the whole collection as an indented backup document.
func JSON(w io.Writer, works []*models.Work) error {
	backup := Backup{ExportedAt: time.Now(), Works: works}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(backup); err != nil {
		return fmt.Errorf("%w: encoding backup JSON: %w", utils.ErrExport, err)
	}
	return nil
}

// LibraryJSON writes a full-collection backup file and returns its path.
func (e *Exporter) LibraryJSON(works []*models.Work) (string, error) {
	path, err := e.outputPath("angelhub-backup-"+time.Now().Format("2006-01-02"), ".json")
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: creating %s: %w", utils.ErrFilesystem, path, err)
	}
	defer f.Close()

	if err := JSON(f, works); err != nil {
		return "", err
	}
	e.log.Infof("Exported %d works to %s", len(works), path)
	return path, nil
}
