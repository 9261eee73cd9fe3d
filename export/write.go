package export

import (
	"fmt"
	"os"
	"path"
)

// writeFileInto writes data under root at the given relative path, creating parent
// directories as needed.  Filesystem trouble here is fatal for the run -- it means the
// environment is broken, not the content.
func writeFileInto(root string, rel RelativePath, data []byte) error {
	stat, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("export: cannot stat output root '%s': %w", root, err)
	}

	if !stat.IsDir() {
		// path is not a directory.  this is bad, we should bail
		return fmt.Errorf("export: output root not a directory: '%s'", root)
	}

	abs := path.Join(root, string(rel))
	directory := path.Dir(abs)

	// there's probably a nicer way to express 0750 but meh
	if err = os.MkdirAll(directory, 0750); err != nil {
		return fmt.Errorf("export: couldn't create directory %s: %w", directory, err)
	}

	f, err := os.Create(abs)
	if err != nil {
		return fmt.Errorf("export: couldn't create file %s: %w", abs, err)
	}

	defer f.Close()
	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("export: couldn't write to file %s: %w", abs, err)
	}

	return nil
}
