package cli

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/canonica-labs/esql/internal/adapters"
	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/internal/planner"
	"github.com/canonica-labs/esql/internal/storage"
	"github.com/canonica-labs/esql/internal/transport"
	"github.com/canonica-labs/esql/pkg/models"
)

// adhocProfile names the profile built from --endpoint.
const adhocProfile = "adhoc"

// resolveProfile returns the profile a command runs against: the --endpoint
// flags, the --profile flag, the configured default, or the only stored
// profile, in that order.
func (c *CLI) resolveProfile(ctx context.Context) (*models.ConnectionProfile, bool, error) {
	if c.endpoint != "" {
		p := &models.ConnectionProfile{Name: adhocProfile, Endpoint: c.endpoint, AuthMode: models.AuthNone}
		if c.username != "" {
			p.AuthMode = models.AuthBasic
			p.Username = c.username
			p.Password = c.password
		}
		return p, false, nil
	}

	store, err := c.profiles(ctx)
	if err != nil {
		return nil, false, err
	}
	name := c.profileName
	if name == "" {
		name = c.cfg.Profile
	}
	if name == "" {
		all, err := store.List(ctx)
		if err != nil {
			return nil, false, err
		}
		if len(all) != 1 {
			return nil, false, cerrors.NewValidation("select profile", "profile",
				"no profile selected", "pass --profile, set profile in the config, or use --endpoint")
		}
		name = all[0].Name
	}

	p, err := store.Load(ctx, name)
	if errors.Is(err, storage.ErrProfileNotFound) {
		return nil, false, cerrors.NewValidation("select profile", "profile", err.Error(), "list profiles with: esql profile list")
	}
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// client opens the client of the selected profile. A profile without a
// version is detected through GET / and, when stored, saved.
func (c *CLI) client(ctx context.Context) (adapters.Client, error) {
	p, stored, err := c.resolveProfile(ctx)
	if err != nil {
		return nil, err
	}
	tr, err := c.transportFor(p)
	if err != nil {
		return nil, err
	}

	if c.version != "" {
		p.Version = c.version
	} else if p.Version == "" {
		version, err := c.detectVersion(ctx, p, tr)
		if err != nil {
			return nil, err
		}
		p.Version = version
		if stored {
			if err := c.store.SetVersion(ctx, p.Name, version); err != nil {
				c.logger.Warn("failed to save detected version", zap.String("profile", p.Name), zap.Error(err))
			}
		}
	}

	return adapters.New(p, tr, adapters.Options{Logger: c.reqLogger})
}

func (c *CLI) transportFor(p *models.ConnectionProfile) (adapters.Transport, error) {
	return transport.New(p.Endpoint, c.cfg.Transport)
}

func (c *CLI) detectVersion(ctx context.Context, p *models.ConnectionProfile, tr adapters.Transport) (string, error) {
	detector, err := adapters.New(p, tr, adapters.Options{Logger: c.reqLogger})
	if err != nil {
		return "", err
	}
	info, err := detector.Info(ctx)
	if err != nil {
		return "", err
	}
	c.logger.Debug("detected cluster version",
		zap.String("profile", p.Name),
		zap.String("version", info.Version.Number))
	return info.Version.Number, nil
}

func (c *CLI) planner() (*planner.Planner, error) {
	d, err := c.cfg.Search.PlannerDefaults()
	if err != nil {
		return nil, err
	}
	return planner.NewPlanner(d), nil
}
