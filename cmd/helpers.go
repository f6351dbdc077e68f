package cmd

import (
	"strings"

	"hourbook/codec"
	"hourbook/config"
	"hourbook/importer"
	"hourbook/storage"
	"hourbook/tracker"
)

func buildCodec(cfg *config.Config) codec.Codec {
	return codec.Codec{
		DateFormat:   cfg.Import.DateFormat,
		TimeFormats:  cfg.Import.TimeFormats,
		LenientTimes: cfg.Import.LenientTimes,
	}
}

// buildResolver wires the collaborator lookups: users and projects always
// come from the local store; repositories and issues come from the remote
// tracker when one is configured.
func buildResolver(cfg *config.Config, store *storage.Store) (codec.Resolver, error) {
	resolver := codec.Resolver{Users: store, Projects: store, Tracker: store}
	if strings.TrimSpace(cfg.Tracker.URL) != "" {
		client, err := tracker.NewClient(tracker.ClientConfig{
			BaseURL:   cfg.Tracker.URL,
			Token:     cfg.Tracker.Token,
			UserAgent: "hourbook",
		})
		if err != nil {
			return codec.Resolver{}, err
		}
		resolver.Tracker = client
	}
	return resolver, nil
}

func buildService(cfg *config.Config, store *storage.Store) (*importer.Service, error) {
	resolver, err := buildResolver(cfg, store)
	if err != nil {
		return nil, err
	}
	return &importer.Service{
		Codec:    buildCodec(cfg),
		Resolver: resolver,
		Store:    store,
	}, nil
}

func resolveDBPath(flagValue string, cfg *config.Config) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	return cfg.Database.Path
}
