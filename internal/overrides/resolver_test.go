package overrides

import (
	"math"
	"testing"

	"soundvault/internal/models"
)

type mapLookup map[string]string

func (m mapLookup) Get(id string) (string, bool) {
	uri, ok := m[id]
	return uri, ok
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := ParseCatalog([]byte(`
events:
  user_join:
    seasonal: [halloween_user_join, winter_user_join]
  message:
    seasonal: [winter_message]
seasonal:
  halloween_user_join: https://cdn.example/halloween/join.mp3
  winter_user_join: https://cdn.example/winter/join.mp3
  winter_message: https://cdn.example/winter/message.mp3
`))
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}
	return catalog
}

func TestResolve(t *testing.T) {
	cache := mapLookup{"abc": "data:audio/mpeg;base64,XYZ"}
	r := NewResolver(cache, testCatalog(t))

	tests := []struct {
		name    string
		eventID string
		o       models.SoundOverride
		want    string
		wantOK  bool
	}{
		{
			name:    "disabled custom",
			eventID: "user_join",
			o:       models.SoundOverride{Enabled: false, SelectedSound: models.SoundCustom, SelectedFileID: "abc"},
		},
		{
			name:    "custom hit",
			eventID: "user_join",
			o:       models.SoundOverride{Enabled: true, SelectedSound: models.SoundCustom, SelectedFileID: "abc"},
			want:    "data:audio/mpeg;base64,XYZ",
			wantOK:  true,
		},
		{
			name:    "custom miss",
			eventID: "user_join",
			o:       models.SoundOverride{Enabled: true, SelectedSound: models.SoundCustom, SelectedFileID: "missing"},
		},
		{
			name:    "custom without file",
			eventID: "user_join",
			o:       models.SoundOverride{Enabled: true, SelectedSound: models.SoundCustom},
		},
		{
			name:    "default",
			eventID: "user_join",
			o:       models.SoundOverride{Enabled: true, SelectedSound: models.SoundDefault},
		},
		{
			name:    "seasonal literal id",
			eventID: "user_join",
			o:       models.SoundOverride{Enabled: true, SelectedSound: "halloween_user_join"},
			want:    "https://cdn.example/halloween/join.mp3",
			wantOK:  true,
		},
		{
			name:    "seasonal key via catalog",
			eventID: "user_join",
			o:       models.SoundOverride{Enabled: true, SelectedSound: "winter"},
			want:    "https://cdn.example/winter/join.mp3",
			wantOK:  true,
		},
		{
			name:    "seasonal key picks the event's variant",
			eventID: "message",
			o:       models.SoundOverride{Enabled: true, SelectedSound: "winter"},
			want:    "https://cdn.example/winter/message.mp3",
			wantOK:  true,
		},
		{
			name:    "seasonal key without variant",
			eventID: "message",
			o:       models.SoundOverride{Enabled: true, SelectedSound: "halloween"},
		},
		{
			name:    "unknown event",
			eventID: "nope",
			o:       models.SoundOverride{Enabled: true, SelectedSound: "winter"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := r.Resolve(tc.eventID, tc.o)
			if ok != tc.wantOK || got != tc.want {
				t.Fatalf("Resolve = (%q, %v), want (%q, %v)", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestResolveWithoutCatalog(t *testing.T) {
	r := NewResolver(nil, nil)
	if _, ok := r.Resolve("user_join", models.SoundOverride{Enabled: true, SelectedSound: "winter"}); ok {
		t.Fatal("expected no override without catalog")
	}
	if _, ok := r.Resolve("user_join", models.SoundOverride{Enabled: true, SelectedSound: models.SoundCustom, SelectedFileID: "x"}); ok {
		t.Fatal("expected no override without cache")
	}
}

func TestEffectiveVolumeAndGain(t *testing.T) {
	tests := []struct {
		name   string
		volume *int
		want   int
	}{
		{name: "missing", volume: nil, want: 100},
		{name: "zero", volume: models.IntPtr(0), want: 0},
		{name: "half", volume: models.IntPtr(50), want: 50},
		{name: "above range", volume: models.IntPtr(150), want: 100},
		{name: "below range", volume: models.IntPtr(-1), want: 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := models.SoundOverride{Volume: tc.volume}
			if got := EffectiveVolume(o); got != tc.want {
				t.Fatalf("EffectiveVolume = %d, want %d", got, tc.want)
			}
		})
	}

	if got := Gain(0.8, models.SoundOverride{Volume: models.IntPtr(50)}); math.Abs(got-0.4) > 1e-9 {
		t.Fatalf("Gain = %v, want 0.4", got)
	}
	if got := Gain(0.8, models.SoundOverride{}); math.Abs(got-0.8) > 1e-9 {
		t.Fatalf("Gain = %v, want 0.8", got)
	}
}

func TestStateOf(t *testing.T) {
	tests := []struct {
		o    models.SoundOverride
		want State
	}{
		{o: models.SoundOverride{SelectedSound: models.SoundCustom, SelectedFileID: "a"}, want: State{Kind: StateDisabled}},
		{o: models.SoundOverride{Enabled: true, SelectedSound: models.SoundDefault}, want: State{Kind: StateDefault}},
		{o: models.SoundOverride{Enabled: true, SelectedSound: models.SoundCustom, SelectedFileID: "a"}, want: State{Kind: StateCustom, Ref: "a"}},
		{o: models.SoundOverride{Enabled: true, SelectedSound: "halloween"}, want: State{Kind: StateSeasonal, Ref: "halloween"}},
	}
	for _, tc := range tests {
		if got := StateOf(tc.o); got != tc.want {
			t.Fatalf("StateOf(%+v) = %+v, want %+v", tc.o, got, tc.want)
		}
	}
}

func TestResetSeasonal(t *testing.T) {
	set := map[string]models.SoundOverride{
		"user_join": {Enabled: true, SelectedSound: "halloween"},
		"message":   {Enabled: true, SelectedSound: models.SoundCustom, SelectedFileID: "abc"},
		"leave":     {Enabled: false, SelectedSound: "winter_leave", Volume: models.IntPtr(30)},
	}
	if got := ResetSeasonal(set); got != 2 {
		t.Fatalf("ResetSeasonal = %d, want 2", got)
	}
	if set["user_join"].SelectedSound != models.SoundDefault {
		t.Fatalf("user_join = %q", set["user_join"].SelectedSound)
	}
	if set["message"].SelectedSound != models.SoundCustom {
		t.Fatalf("message changed: %+v", set["message"])
	}
	leave := set["leave"]
	if leave.SelectedSound != models.SoundDefault || leave.Enabled || *leave.Volume != 30 {
		t.Fatalf("leave = %+v", leave)
	}
	if got := ResetSeasonal(set); got != 0 {
		t.Fatalf("second ResetSeasonal = %d, want 0", got)
	}
}
