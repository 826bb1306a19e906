package datepicker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tartampluch/go-dob/internal/config"
	"golang.org/x/sync/errgroup"
)

// Asset is one stylesheet or script the picker depends on.
type Asset struct {
	Kind string // config.AssetKindStylesheet or config.AssetKindScript
	URL  string
}

// Adapter is the rendering layer's side of the picker. Install may be called
// concurrently for the stylesheet and the scripts; scripts arrive in order.
type Adapter interface {
	Install(asset Asset, body []byte) error
	Attach(selector string, onSelect func(value string)) error
}

// Loader fetches the picker assets and attaches the widget.
type Loader struct {
	Fetcher    AssetFetcher
	Adapter    Adapter
	Stylesheet string
	Scripts    []string // Loaded sequentially; later scripts depend on earlier ones.
	Selector   string
}

// NewLoader returns a Loader for the default picker bundle.
func NewLoader(fetcher AssetFetcher, adapter Adapter) *Loader {
	return &Loader{
		Fetcher:    fetcher,
		Adapter:    adapter,
		Stylesheet: config.PickerStylesheetURL,
		Scripts:    []string{config.PickerJQueryURL, config.PickerScriptURL},
		Selector:   config.PickerSelector,
	}
}

// Load installs every asset and attaches the picker to Selector.
func (l *Loader) Load(ctx context.Context, onSelect func(value string)) error {
	if l.Fetcher == nil {
		return errors.New(config.ErrFetcherMissing)
	}
	if l.Adapter == nil {
		return errors.New(config.ErrAdapterMissing)
	}
	start := time.Now()
	slog.Debug(config.MsgPickerLoading, config.LogKeyComponent, config.CompPicker)

	// The stylesheet has no dependencies and loads alongside the script chain.
	g, gctx := errgroup.WithContext(ctx)
	if l.Stylesheet != "" {
		g.Go(func() error {
			return l.install(gctx, Asset{Kind: config.AssetKindStylesheet, URL: l.Stylesheet})
		})
	}
	// Scripts load one after another; a failure stops the chain.
	g.Go(func() error {
		for _, src := range l.Scripts {
			if err := l.install(gctx, Asset{Kind: config.AssetKindScript, URL: src}); err != nil {
				return err
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%s: %w", config.ErrPickerLoad, err)
	}

	// Attach only once every asset is in place.
	if err := l.Adapter.Attach(l.Selector, onSelect); err != nil {
		return fmt.Errorf("%s: %w", config.ErrPickerAttach, err)
	}

	slog.Info(config.MsgPickerReady,
		config.LogKeyComponent, config.CompPicker,
		config.LogKeySelector, l.Selector,
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return nil
}

// Start runs Load in the background. Failure is logged and reported on the returned
// channel, never propagated to the caller's estimation path.
func (l *Loader) Start(ctx context.Context, onSelect func(value string)) <-chan error {
	done := make(chan error, config.ChannelBufferSize)
	go func() {
		// Closing signals that the outcome has been delivered.
		defer close(done)
		err := l.Load(ctx, onSelect)
		if err != nil {
			slog.Error(config.ErrPickerLoad,
				config.LogKeyComponent, config.CompPicker,
				config.LogKeyError, err,
			)
		}
		done <- err
	}()
	return done
}

func (l *Loader) install(ctx context.Context, asset Asset) error {
	// Download first, then hand the body to the rendering layer.
	body, err := l.Fetcher.Fetch(ctx, asset.URL)
	if err != nil {
		return fmt.Errorf("%s %s %s: %w", config.ErrAssetLoad, asset.Kind, asset.URL, err)
	}
	if err := l.Adapter.Install(asset, body); err != nil {
		return fmt.Errorf("%s %s %s: %w", config.ErrAssetLoad, asset.Kind, asset.URL, err)
	}
	slog.Debug(config.MsgAssetLoaded,
		config.LogKeyComponent, config.CompPicker,
		config.LogKeyKind, asset.Kind,
		config.LogKeyURL, asset.URL,
		config.LogKeySizeBytes, len(body),
	)
	return nil
}
