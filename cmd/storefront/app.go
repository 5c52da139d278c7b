package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fjod/go_bazar/internal/cart"
	"github.com/fjod/go_bazar/internal/catalogclient"
	"github.com/fjod/go_bazar/internal/config"
	"github.com/fjod/go_bazar/internal/storefront"
	"github.com/fjod/go_bazar/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// app is the composition root: it owns the cart and hands it to commands.
type app struct {
	cfg     *config.Storefront
	log     *zap.Logger
	out     io.Writer
	cart    *cart.Store
	catalog *catalogclient.Client
	browser *storefront.Browser
	closers []func() error
}

func newApp(configPath string, out io.Writer) (*app, error) {
	cfg, err := config.LoadStorefront(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(logger.Options{
		Service:     "storefront",
		Env:         cfg.Env,
		Level:       cfg.LogLevel,
		Development: true,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &app{cfg: cfg, log: log, out: out}

	slot, err := a.openSlot()
	if err != nil {
		a.close()
		return nil, err
	}
	a.cart = cart.Open(context.Background(), slot, log)
	a.catalog = catalogclient.New(cfg.APIURL, cfg.HTTPTimeout)
	a.browser = storefront.NewBrowser(a.catalog, cfg.RedirectDelay)
	a.closers = append(a.closers, func() error { a.browser.Close(); return nil })
	return a, nil
}

func (a *app) openSlot() (cart.Slot, error) {
	if a.cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
		a.closers = append(a.closers, client.Close)
		a.log.Debug("using redis cart", zap.String("addr", a.cfg.RedisAddr), zap.String("profile", a.cfg.Profile))
		return cart.NewRedisSlot(client, a.cfg.Profile), nil
	}

	dir := filepath.Join(a.cfg.DataDir, "cart")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	slot, err := cart.OpenPebbleSlot(dir)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, slot.Close)
	return slot, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

func (a *app) println(s string) {
	fmt.Fprintln(a.out, s)
}
