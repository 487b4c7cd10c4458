package commandmap_test

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"home-voice/internal/domain"
	"home-voice/internal/infra/commandmap"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sample = `# house layout
commands:
  living room:
    switch:
      - light
    gradient:
      - "windowblinds"
  kitchen:
    switch:
      - teapot
      - light
  hallway:
    switch:
      - light
`

func TestParse_Sample(t *testing.T) {
	m, err := commandmap.Parse(strings.NewReader(sample), discardLogger())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := []domain.SupportedCommand{
		{Location: "living room", Family: domain.ActionSwitch, Subject: domain.SubjectLight},
		{Location: "living room", Family: domain.ActionGradient, Subject: domain.SubjectWindowBlinds},
		{Location: "kitchen", Family: domain.ActionSwitch, Subject: domain.SubjectTeapot},
		{Location: "kitchen", Family: domain.ActionSwitch, Subject: domain.SubjectLight},
		{Location: "hallway", Family: domain.ActionSwitch, Subject: domain.SubjectLight},
	}
	if len(m.Commands) != len(want) {
		t.Fatalf("commands: got %v, want %v", m.Commands, want)
	}
	for i := range want {
		if m.Commands[i] != want[i] {
			t.Errorf("command %d: got %+v, want %+v", i, m.Commands[i], want[i])
		}
	}

	wantLocs := []string{"living room", "kitchen", "hallway"}
	if strings.Join(m.Locations, ",") != strings.Join(wantLocs, ",") {
		t.Errorf("locations: got %v, want %v", m.Locations, wantLocs)
	}
}

func TestParse_SkipsUnknownEntries(t *testing.T) {
	doc := `commands:
  garage:
    dimmer:
      - light
    switch:
      - toaster
  attic:
    switch:
      - ventilator
`
	m, err := commandmap.Parse(strings.NewReader(doc), discardLogger())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if len(m.Commands) != 1 || m.Commands[0].Location != "attic" || m.Commands[0].Subject != domain.SubjectVentilator {
		t.Errorf("commands: got %+v, want attic ventilator only", m.Commands)
	}
	if len(m.Locations) != 2 || m.Locations[0] != "garage" {
		t.Errorf("locations: got %v, want [garage attic]", m.Locations)
	}
}

func TestParse_BlockEndsAtHeaderIndent(t *testing.T) {
	doc := `assistant:
  commands:
    bedroom:
      switch:
        - light
  locale: en
other:
  - light
`
	m, err := commandmap.Parse(strings.NewReader(doc), discardLogger())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if len(m.Commands) != 1 || m.Commands[0].Location != "bedroom" {
		t.Errorf("commands: got %+v, want bedroom light", m.Commands)
	}
	if len(m.Locations) != 1 {
		t.Errorf("locations: got %v, want [bedroom]", m.Locations)
	}
}

func TestParse_TabsAndCRLF(t *testing.T) {
	doc := "commands:\r\n\tstudy:\r\n\t\tswitch:\r\n\t\t\t- light\r\n"

	m, err := commandmap.Parse(strings.NewReader(doc), discardLogger())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(m.Commands) != 1 || m.Commands[0].Location != "study" {
		t.Errorf("commands: got %+v, want study light", m.Commands)
	}
}

func TestParse_NoCommandsBlock(t *testing.T) {
	m, err := commandmap.Parse(strings.NewReader("audio:\n  rate: 16000\n"), discardLogger())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(m.Commands) != 0 || len(m.Locations) != 0 {
		t.Errorf("got %+v, want empty map", m)
	}
}

func TestLoader_Load(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/etc/home-voice/command_map.yaml", []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := commandmap.NewLoader(fs, "/etc/home-voice/command_map.yaml", discardLogger()).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(m.Commands) != 5 {
		t.Errorf("commands: got %d, want 5", len(m.Commands))
	}
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := commandmap.NewLoader(afero.NewMemMapFs(), "/nope.yaml", discardLogger()).Load()
	if err == nil {
		t.Error("expected error for missing file")
	}
}
