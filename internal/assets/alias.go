// Package assets locates preview audio for simfiles in the local simfile tree.
package assets

import (
	"encoding/json"
	"fmt"
	"os"
)

// AliasMap maps catalog titles to folder names for titles that do not match
// any folder on disk. It is loaded once and never modified.
type AliasMap map[string]string

// LoadAliasMap reads a JSON object of title -> folder name.
func LoadAliasMap(path string) (AliasMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read alias file: %w", err)
	}

	var aliases AliasMap
	if err := json.Unmarshal(data, &aliases); err != nil {
		return nil, fmt.Errorf("could not parse alias file %s: %w", path, err)
	}
	if aliases == nil {
		aliases = AliasMap{}
	}
	return aliases, nil
}

// Folder returns the folder name to try for title: the alias if one exists,
// otherwise the title itself.
func (m AliasMap) Folder(title string) (string, bool) {
	if folder, ok := m[title]; ok {
		return folder, true
	}
	return title, false
}
