package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vtex-sync/internal/alerting"
	"vtex-sync/internal/config"
	"vtex-sync/internal/reconcile"
	"vtex-sync/internal/sankhya"
	"vtex-sync/internal/scheduler"
	"vtex-sync/internal/vtex"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Enabled {
		tg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(tg.BotToken, tg.ChatID, tg.APIBase, 10*time.Second, a.Logger)
	}
	return alerting.NopNotifier{}
}

// newReconciler wires a session, gateway, storefront client, and reconciler
// for one pass, all bound to a fresh run id.
func (a *App) newReconciler(ctx context.Context) (*reconcile.Reconciler, error) {
	runLogger := a.Logger.With().Str("run_id", uuid.NewString()).Logger()
	notifier := a.newNotifier()

	session := sankhya.NewSession(sankhya.Options{
		LoginURL:   a.Config.Sankhya.LoginURL,
		BaseMGE:    a.Config.Sankhya.BaseMGE,
		BaseMGECom: a.Config.Sankhya.BaseMGECom,
		Timeout:    a.Config.Sankhya.RequestTimeout,
		TokenTTL:   a.Config.Sankhya.TokenTTL,
	}, sankhya.Credentials{
		Token:    a.Config.Sankhya.Token,
		AppKey:   a.Config.Sankhya.AppKey,
		Username: a.Config.Sankhya.Username,
		Password: a.Config.Sankhya.Password,
	}, notifier, runLogger)

	// Without a token the run cannot proceed.
	if err := session.Authenticate(ctx); err != nil {
		return nil, err
	}

	gateway := sankhya.NewGateway(session, notifier, runLogger)

	storefront := vtex.NewClient(vtex.Options{
		BaseURL:  a.Config.VTEX.BaseURL,
		AppKey:   a.Config.VTEX.AppKey,
		AppToken: a.Config.VTEX.AppToken,
		Timeout:  a.Config.VTEX.RequestTimeout,
	}, runLogger)

	return reconcile.New(gateway, storefront, notifier, reconcile.Options{
		WarehouseName: a.Config.Reconcile.WarehouseName,
		WarehouseID:   a.Config.Reconcile.WarehouseID,
		CompanyCode:   a.Config.Reconcile.CompanyCode,
		LocationCode:  a.Config.Reconcile.LocationCode,
		PromoWindow:   a.Config.Reconcile.PromoWindow,
		PageSize:      a.Config.VTEX.PageSize,
	}, runLogger), nil
}

func (a *App) metadataPairs() []reconcile.MetadataPair {
	pairs := make([]reconcile.MetadataPair, 0, len(a.Config.Reconcile.MetadataPairs))
	for _, p := range a.Config.Reconcile.MetadataPairs {
		pairs = append(pairs, reconcile.MetadataPair{
			StorefrontID: p.StorefrontID,
			ProductCode:  p.ProductCode,
		})
	}
	return pairs
}

// SyncStock runs one stock reconciliation pass.
func (a *App) SyncStock(ctx context.Context) error {
	r, err := a.newReconciler(ctx)
	if err != nil {
		return err
	}
	return a.timed(ctx, "stock", r.SyncStock)
}

// SyncPrice runs one price reconciliation pass.
func (a *App) SyncPrice(ctx context.Context) error {
	r, err := a.newReconciler(ctx)
	if err != nil {
		return err
	}
	return a.timed(ctx, "price", r.SyncPrice)
}

// SyncMetadata runs one metadata pass over the configured pairs.
func (a *App) SyncMetadata(ctx context.Context, pairs []reconcile.MetadataPair) error {
	if len(pairs) == 0 {
		pairs = a.metadataPairs()
	}
	if len(pairs) == 0 {
		a.Logger.Warn().Msg("no metadata pairs configured; nothing to do")
		return nil
	}

	r, err := a.newReconciler(ctx)
	if err != nil {
		return err
	}
	return a.timed(ctx, "metadata", func(ctx context.Context) error {
		return r.SyncMetadata(ctx, pairs)
	})
}

// Run sequences stock, price, and metadata passes. With a configured
// interval it repeats full passes until interrupted; otherwise it performs
// a single pass.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if a.Config.Scheduler.Interval <= 0 {
		return a.fullPass(ctx)
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToStart,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	a.Logger.Info().Dur("interval", a.Config.Scheduler.Interval).Msg("starting periodic reconciliation")
	err := sched.Run(ctx, func(ctx context.Context, _ time.Time) error {
		return a.fullPass(ctx)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	a.Logger.Info().Msg("periodic reconciliation stopped")
	return nil
}

func (a *App) fullPass(ctx context.Context) error {
	r, err := a.newReconciler(ctx)
	if err != nil {
		return err
	}

	return a.timed(ctx, "full", func(ctx context.Context) error {
		if err := r.SyncStock(ctx); err != nil {
			return err
		}
		if err := r.SyncPrice(ctx); err != nil {
			return err
		}
		if pairs := a.metadataPairs(); len(pairs) > 0 {
			if err := r.SyncMetadata(ctx, pairs); err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *App) timed(ctx context.Context, pass string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	a.Logger.Info().
		Str("pass", pass).
		Float64("duration_min", time.Since(start).Minutes()).
		Msg("pass completed")
	return err
}
