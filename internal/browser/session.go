// Package browser applies a fingerprint profile to a Chrome instance driven
// over CDP and probes what pages observe.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/stupside/veil/internal/app"
	"github.com/stupside/veil/internal/loader"
	"github.com/stupside/veil/internal/profile"
	"github.com/stupside/veil/internal/spoof"
	"github.com/stupside/veil/internal/timezone"
)

// Fallback window size when the profile does not spoof the screen.
const (
	defaultWindowWidth  = 1920
	defaultWindowHeight = 1080
)

// Session owns the chromedp lifecycle for one browser carrying a profile.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// NewSession starts Chrome with the profile's launch flags and applies the
// profile to the first tab. Close must be called.
func NewSession(ctx context.Context, cfg app.BrowserConfig, p *profile.Profile) (*Session, error) {
	opts, err := allocatorOpts(cfg, p)
	if err != nil {
		return nil, err
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(taskCtx, profileActions(cfg, p)...); err != nil {
		taskCancel()
		allocCancel()
		return nil, fmt.Errorf("applying profile: %w", err)
	}
	slog.Debug("browser session ready", "patched", cfg.PatchedBuild, "seed", p.GlobalSeed)

	return &Session{ctx: taskCtx, cancel: taskCancel, allocCancel: allocCancel}, nil
}

// Context returns the tab context actions run against.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Close tears down the browser and allocator.
func (s *Session) Close() {
	s.cancel()
	s.allocCancel()
}

// allocatorOpts returns chromedp exec-allocator options that avoid common
// headless-detection flags and carry the profile's launch-time settings.
// A patched build additionally receives the whole profile as a switch.
func allocatorOpts(cfg app.BrowserConfig, p *profile.Profile) ([]chromedp.ExecAllocatorOption, error) {
	var headlessVal string
	if cfg.Headless {
		headlessVal = "new"
	}

	width, height := defaultWindowWidth, defaultWindowHeight
	if p.Screen.Enabled && p.Screen.Width > 0 && p.Screen.Height > 0 {
		width, height = p.Screen.Width, p.Screen.Height
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,

		chromedp.Flag("headless", headlessVal),
		chromedp.Flag("no-sandbox", cfg.NoSandbox),

		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("webrtc-ip-handling-policy", spoof.WebRTCPolicy(p)),

		chromedp.WindowSize(width, height),
	}

	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}
	if p.UA.Enabled && p.UA.UAString != "" {
		opts = append(opts, chromedp.UserAgent(p.UA.UAString))
	}
	if zone := spoofedZone(p); zone != "" {
		opts = append(opts, chromedp.Env(timezone.EnvVar+"="+zone))
	}
	if cfg.PatchedBuild {
		doc, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encoding profile: %w", err)
		}
		opts = append(opts, chromedp.Flag(loader.SwitchName, loader.Encode(doc)))
	}

	return opts, nil
}

// profileActions returns the tab setup for a session. A patched build reads
// the profile from its launch switch and noises its own getters, so the
// script would add a second layer of noise on top; it only gets the CDP
// overrides.
func profileActions(cfg app.BrowserConfig, p *profile.Profile) []chromedp.Action {
	if cfg.PatchedBuild {
		return []chromedp.Action{injectOverrides(p)}
	}
	return []chromedp.Action{injectScript(p), injectOverrides(p)}
}

// spoofedZone returns the zone the session pins, or "" when timezone
// spoofing is off or the id does not resolve.
func spoofedZone(p *profile.Profile) string {
	if !p.Timezone.SpoofingEnabled || p.Timezone.ZoneID == "" {
		return ""
	}
	if !timezone.Valid(p.Timezone.ZoneID) {
		slog.Warn("timezone not applied to browser", "zone", p.Timezone.ZoneID)
		return ""
	}
	return p.Timezone.ZoneID
}

// injectScript returns a chromedp action that injects the profile script
// before any page JS runs.
func injectScript(p *profile.Profile) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		js := BuildScript(p)
		_, err := page.AddScriptToEvaluateOnNewDocument(js).Do(ctx)
		return err
	}
}

// injectOverrides returns a chromedp action that applies the profile values
// CDP can override natively. These also reach workers and HTTP headers,
// which the injected script cannot.
func injectOverrides(p *profile.Profile) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		if err := emulation.SetAutomationOverride(false).Do(ctx); err != nil {
			return err
		}

		if err := emulation.SetFocusEmulationEnabled(true).Do(ctx); err != nil {
			return err
		}

		if zone := spoofedZone(p); zone != "" {
			if err := emulation.SetTimezoneOverride(zone).Do(ctx); err != nil {
				slog.Warn("timezone override rejected", "zone", zone, "error", err)
			}
		}

		if p.Geo.SpoofingEnabled {
			if err := cdpbrowser.GrantPermissions([]cdpbrowser.PermissionType{cdpbrowser.PermissionTypeGeolocation}).Do(ctx); err != nil {
				return err
			}
			geo := emulation.SetGeolocationOverride().
				WithLatitude(p.Geo.Latitude).
				WithLongitude(p.Geo.Longitude).
				WithAccuracy(p.Geo.Accuracy)
			if err := geo.Do(ctx); err != nil {
				return err
			}
		}

		if p.Screen.Enabled && p.Screen.Width > 0 && p.Screen.Height > 0 {
			metrics := emulation.SetDeviceMetricsOverride(0, 0, 0, p.UA.Mobile).
				WithScreenWidth(int64(p.Screen.Width)).
				WithScreenHeight(int64(p.Screen.Height))
			if err := metrics.Do(ctx); err != nil {
				return err
			}
		}

		if !p.UA.Enabled {
			return nil
		}

		if p.Hardware.Concurrency > 0 {
			if err := emulation.SetHardwareConcurrencyOverride(int64(p.Hardware.Concurrency)).Do(ctx); err != nil {
				return err
			}
		}

		id := NewIdentity(p)

		if err := emulation.SetLocaleOverride().WithLocale(id.Languages[0]).Do(ctx); err != nil {
			return err
		}

		if id.UserAgent == "" {
			return nil
		}
		return userAgentOverride(id).Do(ctx)
	}
}

func userAgentOverride(id Identity) *emulation.SetUserAgentOverrideParams {
	ua := emulation.SetUserAgentOverride(id.UserAgent)
	ua.AcceptLanguage = id.AcceptLanguage
	ua.Platform = id.NavigatorPlatform

	brands := make([]*emulation.UserAgentBrandVersion, len(id.Brands))
	for i, b := range id.Brands {
		brands[i] = &emulation.UserAgentBrandVersion{Brand: b[0], Version: b[1]}
	}
	fullVersionList := make([]*emulation.UserAgentBrandVersion, len(id.FullVersionList))
	for i, b := range id.FullVersionList {
		fullVersionList[i] = &emulation.UserAgentBrandVersion{Brand: b[0], Version: b[1]}
	}

	ua.UserAgentMetadata = &emulation.UserAgentMetadata{
		Brands:          brands,
		FullVersionList: fullVersionList,
		Platform:        id.Platform,
		PlatformVersion: id.PlatformVersion,
		Architecture:    id.Architecture,
		Model:           "",
		Mobile:          id.Mobile,
		Bitness:         id.Bitness,
	}
	return ua
}
