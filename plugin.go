package privmsg

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rbaliyan/privmsg/store"
)

// Plugin defines the interface for service extensions.
// Plugins can hook into message creation to add custom behavior
// such as spam filtering or moderation.
//
// For observing other operations (read, hide), use the event system instead.
type Plugin interface {
	// Name returns the plugin identifier.
	Name() string
	// Init initializes the plugin. Called when service connects.
	Init(ctx context.Context) error
	// Close cleans up plugin resources. Called when service closes.
	Close(ctx context.Context) error
}

// CreateHook is called around message creation.
type CreateHook interface {
	Plugin
	// BeforeCreate runs after validation and the rate limit check and before
	// the message is persisted. Return an error to abort. Setting data.Muted
	// keeps the message out of every listing.
	BeforeCreate(ctx context.Context, data *store.MessageData) error
	// AfterCreate runs after the message is persisted. Errors are logged;
	// the message cannot be rolled back.
	AfterCreate(ctx context.Context, msg *store.Message) error
}

// pluginRegistry holds registered plugins.
type pluginRegistry struct {
	all    []Plugin
	create []CreateHook
	logger *slog.Logger
}

// newPluginRegistry creates a new plugin registry.
func newPluginRegistry(logger *slog.Logger) *pluginRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &pluginRegistry{logger: logger}
}

// register adds a plugin to the registry.
func (r *pluginRegistry) register(p Plugin) {
	r.all = append(r.all, p)

	if h, ok := p.(CreateHook); ok {
		r.create = append(r.create, h)
	}
}

// initAll initializes all plugins.
// On failure, already-initialized plugins are closed in reverse order.
func (r *pluginRegistry) initAll(ctx context.Context) error {
	for i, p := range r.all {
		if err := p.Init(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				if closeErr := r.all[j].Close(ctx); closeErr != nil {
					r.logger.Error("failed to close plugin during init rollback",
						"plugin", r.all[j].Name(), "error", closeErr)
				}
			}
			return &PluginError{Plugin: p.Name(), Op: "init", Err: err}
		}
	}
	return nil
}

// closeAll closes all plugins in reverse order.
func (r *pluginRegistry) closeAll(ctx context.Context) error {
	var errs []error
	for i := len(r.all) - 1; i >= 0; i-- {
		if err := r.all[i].Close(ctx); err != nil {
			errs = append(errs, &PluginError{Plugin: r.all[i].Name(), Op: "close", Err: err})
		}
	}
	return errors.Join(errs...)
}

// PluginError represents an error from a plugin.
type PluginError struct {
	Plugin string
	Op     string
	Err    error
}

func (e *PluginError) Error() string {
	return "plugin " + e.Plugin + " " + e.Op + ": " + e.Err.Error()
}

func (e *PluginError) Unwrap() error {
	return e.Err
}

func (r *pluginRegistry) beforeCreate(ctx context.Context, data *store.MessageData) error {
	for _, h := range r.create {
		if err := h.BeforeCreate(ctx, data); err != nil {
			return &PluginError{Plugin: h.Name(), Op: "BeforeCreate", Err: err}
		}
	}
	return nil
}

// afterCreate runs every hook and logs failures.
func (r *pluginRegistry) afterCreate(ctx context.Context, msg *store.Message) {
	for _, h := range r.create {
		if err := h.AfterCreate(ctx, msg); err != nil {
			r.logger.Warn("plugin AfterCreate failed",
				"plugin", h.Name(), "message_id", msg.ID, "error", err)
		}
	}
}
