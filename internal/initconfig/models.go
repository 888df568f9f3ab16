// filepath: internal/initconfig/models.go
package initconfig

// SeedFile is the root struct for parsing a TOML seed file.
type SeedFile struct {
	Simfiles []SeedSimfile `toml:"simfile"`
}

// SeedSimfile represents a simfile entry in the TOML seed file.
type SeedSimfile struct {
	ID              int64   `toml:"id"`
	Title           string  `toml:"title"`
	PreviewURL      string  `toml:"preview_url"`
	SoundPreviewURL *string `toml:"sound_preview_url"`
}

// Result counts what a seed run did.
type Result struct {
	Inserted int
	Existing int
	Invalid  int
	Failed   int
}
