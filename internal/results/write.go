package results

import (
	"fmt"

	"github.com/google/renameio/v2"
)

// WriteFile atomically replaces the RESULTS.md at path with the rendered
// document. The file is fsynced before the rename so a crash mid-write
// never leaves a truncated results table behind.
func (d *Document) WriteFile(path string) error {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending results file: %w", err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()

	if err := d.Render(pending); err != nil {
		return fmt.Errorf("render results: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
