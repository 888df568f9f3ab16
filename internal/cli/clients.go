package cli

import (
	"simpatch/internal/config"
	"simpatch/internal/supabase"

	"github.com/sirupsen/logrus"
)

// newSupabaseClient returns nil when needed is false.
func newSupabaseClient(c *config.Config, logger *logrus.Logger, needed bool) (*supabase.Client, error) {
	if !needed {
		return nil, nil
	}
	client, err := supabase.NewClient(c.Supabase.URL, c.Supabase.Key, c.SupabaseTimeout)
	if err != nil {
		return nil, err
	}

	role, err := supabase.KeyRole(c.Supabase.Key)
	switch {
	case err != nil:
		logger.WithError(err).Debug("Could not read the role of SUPABASE_KEY")
	case role == supabase.RoleAnon:
		logger.Warn("SUPABASE_KEY is an anon key, row level security usually rejects updates and uploads")
	default:
		logger.WithField("role", role).Debug("Using Supabase key")
	}
	return client, nil
}
