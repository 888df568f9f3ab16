package cli

import (
	"simpatch/internal/assets"
	"simpatch/internal/config"

	"github.com/spf13/pflag"
)

// AssetOptions are the flags shared by commands that resolve simfile folders.
type AssetOptions struct {
	Directory string
	AliasFile string
	Limit     int
}

func (opt *AssetOptions) registerFlags(fs *pflag.FlagSet) {
	fs.StringVar(&opt.Directory, "directory", "", "Root of the local simfile folders. (Env: DTX_DIRECTORY)")
	fs.StringVar(&opt.AliasFile, "alias-file", "", "JSON map of titles to folder names. (Env: SIMPATCH_ALIAS_FILE)")
	fs.IntVar(&opt.Limit, "limit", 0, "Process at most this many pending simfiles (0 = all).")
}

func (opt *AssetOptions) apply(c *config.Config) {
	if opt.Directory != "" {
		c.Assets.Directory = opt.Directory
	}
	if opt.AliasFile != "" {
		c.Assets.AliasFile = opt.AliasFile
	}
}

// newResolver validates the asset settings and builds the folder resolver.
func newResolver(c *config.Config) (*assets.Resolver, error) {
	if err := c.ValidateAssets(); err != nil {
		return nil, err
	}
	aliases, err := assets.LoadAliasMap(c.Assets.AliasFile)
	if err != nil {
		return nil, err
	}
	opts := []assets.Option{
		assets.WithPreviewFilename(c.Assets.PreviewFilename),
		assets.WithMaxSize(c.MaxPreviewSizeBytes),
	}
	if c.ListingTTL > 0 {
		opts = append(opts, assets.WithListingTTL(c.ListingTTL))
	}
	return assets.NewResolver(c.Assets.Directory, aliases, opts...), nil
}
