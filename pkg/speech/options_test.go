package speech

import (
	"reflect"
	"testing"
)

func TestResolveOptionsDefaults(t *testing.T) {
	for _, raw := range []any{nil, "continuous", 42, []string{"lang"}, Options{Continuous: true}} {
		if got := ResolveOptions(raw); !reflect.DeepEqual(got, DefaultOptions()) {
			t.Fatalf("ResolveOptions(%#v) = %+v want defaults", raw, got)
		}
	}
}

func TestResolveOptionsOverrides(t *testing.T) {
	got := ResolveOptions(map[string]any{
		"continuous":     true,
		"interimResults": true,
		"lang":           "en-GB",
	})
	if !got.Continuous || !got.InterimResults || got.Lang != "en-GB" {
		t.Fatalf("overrides not applied: %+v", got)
	}
	if got.Debugging || got.AutoRestart {
		t.Fatalf("missing keys must keep defaults: %+v", got)
	}
	if got.Extra != nil {
		t.Fatalf("no extras expected: %v", got.Extra)
	}
}

func TestResolveOptionsKeepsUnknownKeys(t *testing.T) {
	got := ResolveOptions(map[string]any{"autoRestart": true, "maxAlternatives": int64(3)})
	if !got.AutoRestart {
		t.Fatalf("autoRestart not applied")
	}
	if got.Extra["maxAlternatives"] != int64(3) {
		t.Fatalf("unknown key dropped: %v", got.Extra)
	}
	if m := got.Map(); m["maxAlternatives"] != int64(3) || m[KeyAutoRestart] != true {
		t.Fatalf("Map lost keys: %v", m)
	}
}

func TestResolveOptionsStringMaps(t *testing.T) {
	got := ResolveOptions(map[string]string{"debugging": "true", "continuous": "nope"})
	if !got.Debugging {
		t.Fatalf("string bool not parsed")
	}
	if got.Continuous {
		t.Fatalf("unparseable value must keep default")
	}
	if got.Extra["continuous"] != "nope" {
		t.Fatalf("unparseable value should be kept in extras: %v", got.Extra)
	}

	got = ResolveOptions(map[string]bool{"autoRestart": true})
	if !got.AutoRestart {
		t.Fatalf("bool map not applied")
	}
}

func TestSettingsSubset(t *testing.T) {
	o := Options{Debugging: true, Continuous: true, AutoRestart: true, Lang: "fr"}
	want := Settings{Continuous: true, Lang: "fr"}
	if o.Settings() != want {
		t.Fatalf("settings = %+v", o.Settings())
	}
}

func TestMapOmitsEmptyLang(t *testing.T) {
	if _, ok := DefaultOptions().Map()[KeyLang]; ok {
		t.Fatalf("empty lang should be omitted")
	}
}
