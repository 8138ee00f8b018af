package browser

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/stupside/veil/internal/profile"
	"github.com/stupside/veil/internal/spoof"
)

// JS snippets injected before any page script runs. They reproduce the
// getters of package spoof inside the page for a stock Chrome build.
// Placeholders ({{…}}) are filled by BuildScript.
//
// Overrides handled at CDP level are not duplicated here:
//   - navigator.userAgent / userAgentData → SetUserAgentOverride
//   - navigator.hardwareConcurrency       → SetHardwareConcurrencyOverride
//   - Intl / Date timezone                → SetTimezoneOverride
//   - geolocation                         → SetGeolocationOverride

// #1: must be first. Defines __cloak used by subsequent snippets.
const cloakJS = `
(function() {
  const registry = new Map();
  const origToString = Function.prototype.toString;
  const replacement = function toString() {
    if (registry.has(this)) return registry.get(this);
    return origToString.call(this);
  };
  registry.set(replacement, 'function toString() { [native code] }');
  Function.prototype.toString = replacement;
  __cloak = function(fn, orig, name) {
    const n = name || (orig && orig.name) || fn.name || '';
    registry.set(fn, 'function ' + n + '() { [native code] }');
  };
})();
var __cloak;`

// #2: Noise core, the same formulas as package noise. Defines __veil.
const noiseCoreJS = `
var __veil = (function() {
  var seed = {{SEED}};
  function noise(input, scale) { return Math.sin(seed + input + 0.12345) * scale; }
  function hash(text) {
    var h = 0;
    for (var i = 0; i < text.length; i++) h = (Math.imul(h, 31) + text.charCodeAt(i)) >>> 0;
    return h;
  }
  function combine(h) { return (h ^ seed) >>> 0; }
  function textNoise(text, percent, scale) {
    var c = combine(hash(String(text)));
    if (c % 100 >= percent) return 0;
    return noise(c % 100000, scale);
  }
  function pad(key, limit) {
    if (limit <= 0) return '';
    var n = Math.floor(Math.abs(noise(combine(hash(String(key))) % 100000, limit + 1)));
    return ' '.repeat(Math.min(n, limit));
  }
  function getter(proto, prop, fn) {
    if (!proto) return;
    var desc = Object.getOwnPropertyDescriptor(proto, prop);
    var orig = desc && desc.get;
    var get = function() { return fn.call(this, orig); };
    Object.defineProperty(proto, prop, { get: get, enumerable: true, configurable: true });
    if (typeof __cloak !== 'undefined') __cloak(get, orig, 'get ' + prop);
  }
  function wrap(proto, method, fn) {
    if (!proto || !proto[method]) return;
    var orig = proto[method];
    proto[method] = function() { return fn.call(this, orig, arguments); };
    if (typeof __cloak !== 'undefined') __cloak(proto[method], orig, method);
  }
  return { seed: seed, noise: noise, hash: hash, combine: combine, textNoise: textNoise, pad: pad, getter: getter, wrap: wrap };
})();`

// #3: navigator identity, only when the UA record is enabled.
const navigatorJS = `
(function() {
  var ua = {{UA}}, platform = {{PLATFORM}}, language = {{LANGUAGE}}, languages = {{LANGUAGES}};
  var proto = Object.getPrototypeOf(navigator);
  if (ua) {
    __veil.getter(proto, 'userAgent', function() { return ua; });
    __veil.getter(proto, 'appVersion', function() { return ua.length > 8 ? ua.substring(8) : ''; });
  }
  if (platform) __veil.getter(proto, 'platform', function() { return platform; });
  if (language) {
    __veil.getter(proto, 'language', function() { return language; });
    __veil.getter(proto, 'languages', function() { return languages.slice(); });
  }
  __veil.getter(proto, 'deviceMemory', function() { return {{MEMORY}}; });
})();`

// #4: screen geometry. A spoofed screen sits at the origin.
const screenJS = `
(function() {
  var proto = typeof Screen !== 'undefined' && Screen.prototype;
  __veil.getter(proto, 'width', function() { return {{SCREEN_WIDTH}}; });
  __veil.getter(proto, 'height', function() { return {{SCREEN_HEIGHT}}; });
  __veil.getter(proto, 'colorDepth', function() { return {{COLOR_DEPTH}}; });
  __veil.getter(proto, 'pixelDepth', function() { return {{COLOR_DEPTH}}; });
  __veil.getter(proto, 'availLeft', function() { return 0; });
  __veil.getter(proto, 'availTop', function() { return 0; });
})();`

// #5: WebGL vendor/renderer, viewport limits, clear color and readPixels.
const webGLJS = `
(function() {
  var vendor = {{WEBGL_VENDOR}}, renderer = {{WEBGL_RENDERER}};
  var clearNoise = {{CLEAR_COLOR_NOISE}}, viewportMax = {{VIEWPORT_NOISE_MAX}}, pixelsMax = {{READ_PIXELS_NOISE_MAX}};
  function clamp(v, lo, hi) { return Math.max(lo, Math.min(hi, v)); }
  [typeof WebGLRenderingContext !== 'undefined' && WebGLRenderingContext.prototype,
   typeof WebGL2RenderingContext !== 'undefined' && WebGL2RenderingContext.prototype].forEach(function(proto) {
    if (!proto) return;
    __veil.wrap(proto, 'getParameter', function(orig, args) {
      var param = args[0];
      if (param === 0x9245 && vendor) return vendor;
      if (param === 0x9246 && renderer) return renderer;
      var value = orig.apply(this, args);
      if (param === 0x0D3A && viewportMax > 0 && value && value.length === 2) {
        var w = value[0], h = value[1];
        return new Int32Array([
          w - Math.round(Math.abs(__veil.noise(w, viewportMax))),
          h - Math.round(Math.abs(__veil.noise(h + 1, viewportMax)))
        ]);
      }
      return value;
    });
    if (clearNoise !== 0) {
      __veil.wrap(proto, 'clearColor', function(orig, args) {
        var c = [];
        for (var i = 0; i < 4; i++) c.push(clamp(args[i] + __veil.noise(args[i] * 255 + i, clearNoise), 0, 1));
        return orig.call(this, c[0], c[1], c[2], c[3]);
      });
    }
    if (pixelsMax > 0) {
      __veil.wrap(proto, 'readPixels', function(orig, args) {
        var result = orig.apply(this, args);
        var pixels = args[6];
        if (pixels && pixels.length) {
          for (var i = 0; i < pixels.length; i++) {
            if (i % 4 === 3) continue;
            var d = Math.round(__veil.noise((i % 100000) + pixels[i], pixelsMax));
            pixels[i] = clamp(pixels[i] + d, 0, 255);
          }
        }
        return result;
      });
    }
  });
})();`

// #6: measureText: one gated delta shared by every metric.
const measureTextJS = `
(function() {
  var percent = {{FONT_PERCENT}}, scale = {{FONT_SCALE}};
  var props = ['width', 'actualBoundingBoxLeft', 'actualBoundingBoxRight',
               'actualBoundingBoxAscent', 'actualBoundingBoxDescent',
               'fontBoundingBoxAscent', 'fontBoundingBoxDescent',
               'alphabeticBaseline', 'hangingBaseline', 'ideographicBaseline',
               'emHeightAscent', 'emHeightDescent'];
  [typeof CanvasRenderingContext2D !== 'undefined' && CanvasRenderingContext2D.prototype,
   typeof OffscreenCanvasRenderingContext2D !== 'undefined' && OffscreenCanvasRenderingContext2D.prototype].forEach(function(proto) {
    __veil.wrap(proto, 'measureText', function(orig, args) {
      var m = orig.apply(this, args);
      var delta = __veil.textNoise(args[0], percent, scale);
      if (delta === 0) return m;
      var result = Object.create(TextMetrics.prototype);
      for (var i = 0; i < props.length; i++) {
        var val = m[props[i]];
        if (typeof val === 'number') {
          Object.defineProperty(result, props[i], { value: val + delta, enumerable: true, configurable: true });
        }
      }
      return result;
    });
  });
})();`

// #7: fillText / strokeText displacement.
const fillTextJS = `
(function() {
  var max = {{FILL_TEXT_MAX}};
  function offset(text) {
    var input = __veil.combine(__veil.hash(String(text))) % 100000;
    return [__veil.noise(input, max), __veil.noise(input + 1, max)];
  }
  [typeof CanvasRenderingContext2D !== 'undefined' && CanvasRenderingContext2D.prototype,
   typeof OffscreenCanvasRenderingContext2D !== 'undefined' && OffscreenCanvasRenderingContext2D.prototype].forEach(function(proto) {
    ['fillText', 'strokeText'].forEach(function(method) {
      __veil.wrap(proto, method, function(orig, args) {
        var a = Array.prototype.slice.call(args);
        var d = offset(a[0]);
        a[1] += d[0];
        a[2] += d[1];
        return orig.apply(this, a);
      });
    });
  });
})();`

// #8: audio sample rate and compressor reduction, in float32 like the
// native attributes.
const audioJS = `
(function() {
  var fixed = {{SAMPLE_RATE_OFFSET}}, scale = {{SAMPLE_RATE_SCALE}}, reduction = {{REDUCTION_FACTOR}};
  if (typeof BaseAudioContext !== 'undefined') {
    __veil.getter(BaseAudioContext.prototype, 'sampleRate', function(orig) {
      var rate = orig.call(this);
      var delta = fixed !== 0 ? fixed : __veil.noise(rate, scale);
      return Math.fround(rate + Math.fround(delta));
    });
  }
  if (typeof DynamicsCompressorNode !== 'undefined') {
    __veil.getter(DynamicsCompressorNode.prototype, 'reduction', function(orig) {
      var value = orig.call(this);
      return Math.fround(value + Math.fround(__veil.noise(value, reduction)));
    });
  }
})();`

// #9: client rect noise keyed on each component's own value.
const clientRectsJS = `
(function() {
  var factor = {{RECT_NOISE}};
  function shift(v, i) { return v + __veil.noise((v % 100000) + i, factor); }
  function noisy(r) { return new DOMRect(shift(r.x, 0), shift(r.y, 1), shift(r.width, 2), shift(r.height, 3)); }
  __veil.wrap(Element.prototype, 'getBoundingClientRect', function(orig, args) {
    return noisy(orig.apply(this, args));
  });
  __veil.wrap(Element.prototype, 'getClientRects', function(orig, args) {
    var rects = orig.apply(this, args);
    var result = [];
    for (var i = 0; i < rects.length; i++) result.push(noisy(rects[i]));
    Object.defineProperty(result, 'item', { value: function(idx) { return result[idx] || null; } });
    return result;
  });
})();`

// #10: plugin description padding.
const pluginsJS = `
(function() {
  var max = {{PLUGIN_NOISE_MAX}};
  if (typeof Plugin === 'undefined') return;
  __veil.getter(Plugin.prototype, 'description', function(orig) {
    return orig.call(this) + __veil.pad(this.name, max);
  });
})();`

// #11: navigator.connection.
const connectionJS = `
(function() {
  if (typeof NetworkInformation === 'undefined') return;
  var proto = NetworkInformation.prototype;
  __veil.getter(proto, 'downlink', function() { return {{DOWNLINK}}; });
  __veil.getter(proto, 'rtt', function() { return {{RTT}}; });
  __veil.getter(proto, 'effectiveType', function() { return {{EFFECTIVE_TYPE}}; });
  __veil.getter(proto, 'saveData', function() { return {{SAVE_DATA}}; });
})();`

// #12: navigator.getBattery.
const batteryJS = `
(function() {
  if (!navigator.getBattery || typeof BatteryManager === 'undefined') return;
  var proto = BatteryManager.prototype;
  __veil.getter(proto, 'charging', function() { return {{CHARGING}}; });
  __veil.getter(proto, 'chargingTime', function() { return {{CHARGING_TIME}}; });
  __veil.getter(proto, 'dischargingTime', function() { return {{DISCHARGING_TIME}}; });
  __veil.getter(proto, 'level', function() { return {{LEVEL}}; });
})();`

// #13: WebRTC: drop ICE servers so no STUN request reveals the host
// address, and pad device labels.
const webRTCJS = `
(function() {
  if ({{PREVENT_IP_LEAK}} && window.RTCPeerConnection) {
    const OrigRTC = window.RTCPeerConnection;
    window.RTCPeerConnection = function(config, constraints) {
      if (config && config.iceServers) { config.iceServers = []; }
      return new OrigRTC(config, constraints);
    };
    window.RTCPeerConnection.prototype = OrigRTC.prototype;
    Object.defineProperty(window.RTCPeerConnection, 'name', { value: 'RTCPeerConnection' });
  }
  var max = {{LABEL_NOISE_MAX}};
  if (max > 0 && typeof MediaDeviceInfo !== 'undefined') {
    __veil.getter(MediaDeviceInfo.prototype, 'label', function(orig) {
      var label = orig.call(this);
      return label ? label + __veil.pad(label, max) : label;
    });
  }
})();`

// #14: should be last. Filters injected script frames from stack traces.
const stackTraceJS = `
(function() {
  var origStackDesc = Object.getOwnPropertyDescriptor(Error.prototype, 'stack');
  if (origStackDesc && origStackDesc.get) {
    var origGet = origStackDesc.get;
    Object.defineProperty(Error.prototype, 'stack', {
      get: function() {
        var s = origGet.call(this);
        if (typeof s !== 'string') return s;
        return s.split('\n').filter(function(line) {
          var trimmed = line.trim();
          if (!trimmed.startsWith('at ')) return true;
          return trimmed.indexOf('http://') !== -1 || trimmed.indexOf('https://') !== -1 ||
                 trimmed.indexOf('file://') !== -1 || trimmed.indexOf('(native)') !== -1;
        }).join('\n');
      },
      set: origStackDesc.set,
      configurable: true
    });
  }
})();`

// BuildScript joins the snippets a profile enables and fills their
// placeholders.
func BuildScript(p *profile.Profile) string {
	snippets := []string{cloakJS, noiseCoreJS}
	if p.UA.Enabled {
		snippets = append(snippets, navigatorJS)
	}
	if p.Screen.Enabled {
		snippets = append(snippets, screenJS)
	}
	snippets = append(snippets, webGLJS)
	if p.IsFontNoiseEnabled() {
		snippets = append(snippets, measureTextJS)
	}
	if p.Canvas.FillTextOffsetMax > 0 {
		snippets = append(snippets, fillTextJS)
	}
	if p.Audio.SpoofingEnabled {
		snippets = append(snippets, audioJS)
	}
	if p.Rects.NoiseFactor != 0 {
		snippets = append(snippets, clientRectsJS)
	}
	if p.Plugins.DescriptionNoiseMax > 0 {
		snippets = append(snippets, pluginsJS)
	}
	if p.Network.SpoofingEnabled {
		snippets = append(snippets, connectionJS)
	}
	if p.Battery.SpoofingEnabled {
		snippets = append(snippets, batteryJS)
	}
	snippets = append(snippets, webRTCJS, stackTraceJS)
	joined := strings.Join(snippets, "\n")

	sampleRateScale := float64(p.Audio.SampleRateOffsetMax)
	if sampleRateScale <= 0 {
		sampleRateScale = spoof.DefaultSampleRateScale
	}

	r := strings.NewReplacer(
		"{{SEED}}", strconv.Itoa(p.GlobalSeed),
		"{{UA}}", jsString(p.UA.UAString),
		"{{PLATFORM}}", jsString(p.UA.Platform),
		"{{LANGUAGE}}", jsString(p.UA.Language),
		"{{LANGUAGES}}", jsValue(languageList(p.UA.Language)),
		"{{MEMORY}}", jsNumber(p.Hardware.MemoryGB),
		"{{SCREEN_WIDTH}}", strconv.Itoa(p.Screen.Width),
		"{{SCREEN_HEIGHT}}", strconv.Itoa(p.Screen.Height),
		"{{COLOR_DEPTH}}", strconv.Itoa(p.Screen.ColorDepth),
		"{{WEBGL_VENDOR}}", jsString(p.WebGL.Vendor),
		"{{WEBGL_RENDERER}}", jsString(p.WebGL.Renderer),
		"{{CLEAR_COLOR_NOISE}}", jsNumber(p.WebGL.ClearColorNoise),
		"{{VIEWPORT_NOISE_MAX}}", strconv.Itoa(p.WebGL.ViewportNoiseMax),
		"{{READ_PIXELS_NOISE_MAX}}", strconv.Itoa(p.WebGL.ReadPixelsNoiseMax),
		"{{FONT_PERCENT}}", strconv.Itoa(p.Fonts.OffsetNoiseProbPercent),
		"{{FONT_SCALE}}", jsNumber(spoof.TextNoiseScale),
		"{{FILL_TEXT_MAX}}", strconv.Itoa(p.Canvas.FillTextOffsetMax),
		"{{SAMPLE_RATE_OFFSET}}", jsNumber(p.Audio.SampleRateOffset),
		"{{SAMPLE_RATE_SCALE}}", jsNumber(sampleRateScale),
		"{{REDUCTION_FACTOR}}", jsNumber(p.Audio.ReductionNoiseFactor),
		"{{RECT_NOISE}}", jsNumber(p.Rects.NoiseFactor),
		"{{PLUGIN_NOISE_MAX}}", strconv.Itoa(p.Plugins.DescriptionNoiseMax),
		"{{DOWNLINK}}", jsNumber(p.Network.Downlink),
		"{{RTT}}", jsNumber(p.Network.RTT),
		"{{EFFECTIVE_TYPE}}", jsString(p.Network.EffectiveType),
		"{{SAVE_DATA}}", strconv.FormatBool(p.Network.SaveData),
		"{{CHARGING}}", strconv.FormatBool(p.Battery.Charging),
		"{{CHARGING_TIME}}", jsNumber(p.Battery.ChargingTime),
		"{{DISCHARGING_TIME}}", jsNumber(p.Battery.DischargingTime),
		"{{LEVEL}}", jsNumber(math.Max(0, math.Min(1, p.Battery.Level))),
		"{{PREVENT_IP_LEAK}}", strconv.FormatBool(p.WebRTC.PreventIPLeak),
		"{{LABEL_NOISE_MAX}}", strconv.Itoa(p.WebRTC.DeviceLabelNoiseMax),
	)
	return r.Replace(joined)
}

// jsNumber formats v as a JS numeric literal.
func jsNumber(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case math.IsNaN(v):
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// jsString quotes s as a JS string literal. JSON string syntax is valid JS
// and escapes quotes, backslashes and line terminators.
func jsString(s string) string {
	return jsValue(s)
}

func jsValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
