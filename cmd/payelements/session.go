package main

import (
	"context"
	"log/slog"

	"github.com/vango-dev/payelements/internal/config"
	"github.com/vango-dev/payelements/pkg/backend"
	"github.com/vango-dev/payelements/pkg/bridge"
	"github.com/vango-dev/payelements/pkg/element"
	"github.com/vango-dev/payelements/pkg/elements"
	"github.com/vango-dev/payelements/pkg/provider"
	"github.com/vango-dev/payelements/pkg/scope"
	"github.com/vango-dev/payelements/pkg/sdk"
	"github.com/vango-dev/payelements/pkg/widgets"
)

// demoOptions configure the session run for each bridge connection.
type demoOptions struct {
	kind     sdk.Kind
	amount   int64
	slot     string
	currency string
	provider config.ProviderConfig
	gateway  backend.Gateway
	logger   *slog.Logger
}

func widgetKind(name string) (element.Binding, bool) {
	return widgets.ByKind(sdk.Kind(name))
}

// demoSession mounts one widget against a fresh payment intent for each
// connection and tears everything down when the browser goes away.
func demoSession(opts demoOptions) func(*bridge.Conn) {
	return func(conn *bridge.Conn) {
		root := scope.NewNamed(nil, "session")
		defer root.Dispose()

		logger := opts.logger.With("session", root.ID())
		logger.Info("bridge session started")
		defer logger.Info("bridge session ended")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			select {
			case <-conn.Done():
				cancel()
			case <-ctx.Done():
			}
		}()

		prov, err := provider.New(root, provider.Options{
			PublicKey:  opts.provider.PublishableKey,
			AccountID:  opts.provider.AccountID,
			APIVersion: opts.provider.APIVersion,
			Locale:     opts.provider.Locale,
			Loader:     bridge.Loader(conn),
			Logger:     logger,
		})
		if err != nil {
			logger.Error("provider setup failed", "error", err)
			return
		}

		intent, err := opts.gateway.CreatePaymentIntent(ctx, backend.PaymentIntentRequest{
			Amount:   opts.amount,
			Currency: opts.currency,
		})
		if err != nil {
			logger.Error("payment intent failed", "error", err)
			<-ctx.Done()
			return
		}

		elems, err := elements.New(prov.Scope(), elements.Options{ClientSecret: intent.ClientSecret, Logger: logger})
		if err != nil {
			logger.Error("elements setup failed", "error", err)
			return
		}

		binding, _ := widgets.ByKind(opts.kind)
		ctrl, err := widgets.Mount(elems.Scope(), binding, element.Config{Slot: opts.slot, Logger: logger})
		if err != nil {
			logger.Error("widget setup failed", "error", err)
			return
		}
		ctrl.Watch(func(st element.Status) {
			logger.Info("widget status", "widget", binding.Name, "phase", st.Phase.String(), "error", st.LastError)
		})
		ctrl.OnAny(func(ev sdk.Event) {
			logger.Debug("widget event", "widget", binding.Name, "event", ev.EventName())
		})

		<-ctx.Done()
	}
}
