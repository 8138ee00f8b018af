package browser

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"golang.org/x/sync/errgroup"

	"github.com/stupside/veil/internal/app"
	"github.com/stupside/veil/internal/profile"
	"github.com/stupside/veil/internal/spoof"
)

// probeJS collects what a page observes. Async surfaces are bounded so a
// missing permission prompt cannot stall the probe.
const probeJS = `
(async function(sample) {
  function finite(v) { return Number.isFinite(v) ? v : null; }
  function within(p, ms) {
    return Promise.race([p, new Promise(function(r) { setTimeout(function() { r(null); }, ms); })]);
  }
  var out = {
    userAgent: navigator.userAgent,
    appVersion: navigator.appVersion,
    platform: navigator.platform,
    language: navigator.language,
    languages: Array.from(navigator.languages || []),
    hardwareConcurrency: navigator.hardwareConcurrency || 0,
    deviceMemory: navigator.deviceMemory || 0,
    screen: {
      width: screen.width, height: screen.height,
      colorDepth: screen.colorDepth, pixelDepth: screen.pixelDepth,
      availLeft: screen.availLeft || 0, availTop: screen.availTop || 0,
      availWidth: screen.availWidth, availHeight: screen.availHeight
    },
    timeZone: Intl.DateTimeFormat().resolvedOptions().timeZone
  };
  try {
    var gl = document.createElement('canvas').getContext('webgl');
    if (gl) {
      out.webglVendor = gl.getParameter(0x9245);
      out.webglRenderer = gl.getParameter(0x9246);
    }
  } catch (e) {}
  try {
    var ctx = document.createElement('canvas').getContext('2d');
    ctx.font = '16px sans-serif';
    out.textWidth = ctx.measureText(sample).width;
  } catch (e) {}
  try {
    var audio = new OfflineAudioContext(1, 44100, 44100);
    out.sampleRate = audio.sampleRate;
  } catch (e) {}
  if (navigator.connection) {
    var c = navigator.connection;
    out.connection = { downlink: c.downlink, rtt: c.rtt, effectiveType: c.effectiveType, saveData: !!c.saveData };
  }
  if (navigator.getBattery) {
    var b = await within(navigator.getBattery(), 1000);
    if (b) {
      out.battery = { charging: b.charging, chargingTime: finite(b.chargingTime),
                      dischargingTime: finite(b.dischargingTime), level: b.level };
    }
  }
  if (navigator.geolocation) {
    var pos = await within(new Promise(function(resolve) {
      navigator.geolocation.getCurrentPosition(resolve, function() { resolve(null); });
    }), 2000);
    if (pos) {
      out.position = { latitude: pos.coords.latitude, longitude: pos.coords.longitude, accuracy: pos.coords.accuracy };
    }
  }
  return out;
})`

// Report is what one page observed under a profile.
type Report struct {
	URL                 string              `json:"url"`
	UserAgent           string              `json:"userAgent"`
	AppVersion          string              `json:"appVersion"`
	Platform            string              `json:"platform"`
	Language            string              `json:"language"`
	Languages           []string            `json:"languages"`
	HardwareConcurrency int                 `json:"hardwareConcurrency"`
	DeviceMemory        float64             `json:"deviceMemory"`
	Screen              spoof.ScreenMetrics `json:"screen"`
	TimeZone            string              `json:"timeZone"`
	WebGLVendor         string              `json:"webglVendor,omitempty"`
	WebGLRenderer       string              `json:"webglRenderer,omitempty"`
	TextWidth           float64             `json:"textWidth,omitempty"`
	SampleRate          float64             `json:"sampleRate,omitempty"`
	Connection          *spoof.Connection   `json:"connection,omitempty"`
	Battery             *BatteryReport      `json:"battery,omitempty"`
	Position            *spoof.Position     `json:"position,omitempty"`
	Mismatches          []Mismatch          `json:"mismatches,omitempty"`
}

// BatteryReport is the page's battery view. A nil time is Infinity.
type BatteryReport struct {
	Charging        bool     `json:"charging"`
	ChargingTime    *float64 `json:"chargingTime"`
	DischargingTime *float64 `json:"dischargingTime"`
	Level           float64  `json:"level"`
}

func (b BatteryReport) battery() spoof.Battery {
	inf := func(v *float64) float64 {
		if v == nil {
			return math.Inf(1)
		}
		return *v
	}
	return spoof.Battery{
		Charging:        b.Charging,
		ChargingTime:    inf(b.ChargingTime),
		DischargingTime: inf(b.DischargingTime),
		Level:           b.Level,
	}
}

func batteryReport(b spoof.Battery) BatteryReport {
	finite := func(v float64) *float64 {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil
		}
		return &v
	}
	return BatteryReport{
		Charging:        b.Charging,
		ChargingTime:    finite(b.ChargingTime),
		DischargingTime: finite(b.DischargingTime),
		Level:           b.Level,
	}
}

// Mismatch is a surface where the page saw something other than the
// profile's value.
type Mismatch struct {
	Property string `json:"property"`
	Want     any    `json:"want"`
	Got      any    `json:"got"`
}

// Verify compares a report with the values the profile pins. A surface the
// profile leaves alone expects whatever the page measured, so only
// substituted values can mismatch.
func Verify(p *profile.Profile, r Report) []Mismatch {
	var out []Mismatch
	check := func(name string, want, got any) {
		if want != got {
			out = append(out, Mismatch{Property: name, Want: want, Got: got})
		}
	}
	nav := spoof.NewNavigator(spoof.ScopeWindow, func() *profile.Profile { return p })

	check("Navigator.userAgent", nav.UserAgent(func() string { return r.UserAgent }), r.UserAgent)
	check("Navigator.appVersion", nav.AppVersion(func() string { return r.AppVersion }), r.AppVersion)
	check("Navigator.platform", nav.Platform(func() string { return r.Platform }), r.Platform)
	check("Navigator.language", nav.Language(func() string { return r.Language }), r.Language)
	check("Navigator.hardwareConcurrency", nav.HardwareConcurrency(func() int { return r.HardwareConcurrency }), r.HardwareConcurrency)
	check("Navigator.deviceMemory", nav.DeviceMemory(func() float64 { return r.DeviceMemory }), r.DeviceMemory)

	screen := spoof.Screen(p, r.Screen)
	check("Screen.width", screen.Width, r.Screen.Width)
	check("Screen.height", screen.Height, r.Screen.Height)
	check("Screen.colorDepth", screen.ColorDepth, r.Screen.ColorDepth)

	check("Intl.timeZone", spoof.TimeZone(p, func() string { return r.TimeZone }), r.TimeZone)

	if r.WebGLVendor != "" || r.WebGLRenderer != "" {
		check("WebGL.vendor", spoof.WebGLVendor(p, func() string { return r.WebGLVendor }), r.WebGLVendor)
		check("WebGL.renderer", spoof.WebGLRenderer(p, func() string { return r.WebGLRenderer }), r.WebGLRenderer)
	}
	if r.Connection != nil {
		got := *r.Connection
		check("Navigator.connection", spoof.NetworkInformation(p, func() spoof.Connection { return got }), got)
	}
	if r.Battery != nil {
		got := r.Battery.battery()
		if want := spoof.BatteryStatus(p, func() spoof.Battery { return got }); want != got {
			out = append(out, Mismatch{Property: "BatteryManager", Want: batteryReport(want), Got: *r.Battery})
		}
	}
	if r.Position != nil {
		got := *r.Position
		want := spoof.CurrentPosition(p, func() spoof.Position { return got })
		// Coordinates compare within an epsilon.
		if !nearPosition(want, got) {
			out = append(out, Mismatch{Property: "Geolocation.position", Want: want, Got: got})
		}
	}
	return out
}

func nearPosition(a, b spoof.Position) bool {
	const eps = 1e-6
	return math.Abs(a.Latitude-b.Latitude) < eps &&
		math.Abs(a.Longitude-b.Longitude) < eps &&
		math.Abs(a.Accuracy-b.Accuracy) < eps
}

// Probe opens targetURL in a browser carrying the profile and reports what
// the page observed.
func Probe(ctx context.Context, cfg *app.Config, p *profile.Profile, targetURL string) (*Report, error) {
	s, err := NewSession(ctx, cfg.Browser, p)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	taskCtx, cancel := context.WithTimeout(s.Context(), cfg.Browser.Timeout)
	defer cancel()

	slog.Debug("navigating to target", "url", targetURL)
	if err := chromedp.Run(taskCtx, chromedp.Navigate(targetURL), chromedp.Sleep(cfg.Probe.Settle)); err != nil {
		return nil, fmt.Errorf("navigating to %s: %w", targetURL, err)
	}

	newSnapshotter(cfg.Probe.SnapshotDir, targetURL).capture(taskCtx, "after_nav")

	var r Report
	expr := fmt.Sprintf("%s(%s)", probeJS, jsString(cfg.Probe.SampleText))
	awaitPromise := func(ep *runtime.EvaluateParams) *runtime.EvaluateParams {
		return ep.WithAwaitPromise(true)
	}
	if err := chromedp.Run(taskCtx, chromedp.Evaluate(expr, &r, awaitPromise)); err != nil {
		return nil, fmt.Errorf("probing %s: %w", targetURL, err)
	}

	r.URL = targetURL
	r.Mismatches = Verify(p, r)
	slog.Debug("probe completed", "url", targetURL, "mismatches", len(r.Mismatches))
	return &r, nil
}

// ProbeAll runs Probe concurrently on all given URLs, bounded by
// MaxConcurrency. Failed URLs are logged and left out of the result.
func ProbeAll(ctx context.Context, cfg *app.Config, p *profile.Profile, urls []string) []*Report {
	var g errgroup.Group
	g.SetLimit(cfg.Probe.MaxConcurrency)

	results := make([]*Report, len(urls))

	start := time.Now()
	for i, targetURL := range urls {
		g.Go(func() error {
			r, err := Probe(ctx, cfg, p, targetURL)
			if err != nil {
				return fmt.Errorf("%s: %w", targetURL, err)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		slog.Warn("some URLs failed probing", "error", err)
	}
	slog.Debug("probes finished", "urls", len(urls), "elapsed", time.Since(start))

	out := make([]*Report, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
