package prompts

import (
	"strings"
	"testing"
)

func TestRegistryPreloadsPlanningPrompts(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{PromptStructureGeneration, PromptStructureRefinement} {
		content, ok := r.GetPrompt(id)
		if !ok {
			t.Errorf("default prompt %s not registered", id)
			continue
		}
		if strings.TrimSpace(content) == "" {
			t.Errorf("prompt %s is empty", id)
		}
	}
}

func TestRegistryGetSpecificVersion(t *testing.T) {
	r := NewRegistry()
	r.Register(&Prompt{ID: "greeting", Version: "1.0.0", Content: "hello"})
	r.Register(&Prompt{ID: "greeting", Version: "2.0.0", Content: "hi"})

	p, err := r.Get("greeting", "1.0.0")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.Content != "hello" {
		t.Errorf("expected v1 content, got %q", p.Content)
	}

	if _, err := r.Get("greeting", "3.0.0"); err == nil {
		t.Errorf("expected error for missing version")
	}
	if _, err := r.Get("missing", "1.0.0"); err == nil {
		t.Errorf("expected error for missing id")
	}
}

func TestRegistryGetLatestSkipsDeprecated(t *testing.T) {
	r := NewRegistry()
	r.Register(&Prompt{ID: "greeting", Version: "1.0.0", Content: "hello"})
	r.Register(&Prompt{ID: "greeting", Version: "2.0.0", Content: "hi", Deprecated: true})

	p, err := r.GetLatest("greeting")
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if p.Version != "1.0.0" {
		t.Errorf("expected latest non-deprecated version, got %s", p.Version)
	}

	// When every version is deprecated the newest one still wins.
	r2 := NewRegistry()
	r2.Register(&Prompt{ID: "greeting", Version: "1.0.0", Content: "hello", Deprecated: true})
	p, err = r2.GetLatest("greeting")
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if p.Version != "1.0.0" {
		t.Errorf("expected deprecated fallback, got %s", p.Version)
	}
}

func TestLookupMissingPrompt(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.GetPrompt("no_such_prompt"); ok {
		t.Errorf("expected false for an unregistered id")
	}
}

func TestBuilderSubstitutesVariables(t *testing.T) {
	r := NewRegistry()
	r.Register(&Prompt{ID: "tpl", Version: PromptV1, Content: "plan under {{root_path}}"})

	b, err := NewBuilder(r, "tpl")
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	got := b.SetVariable("root_path", "src").AddFragment("Use {{naming}} names.").
		SetVariable("naming", "snake_case").Build()

	want := "plan under src\n\nUse snake_case names."
	if got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestBuilderFromRawContent(t *testing.T) {
	got := NewBuilderFrom("plan under {{root_path}}").
		SetVariable("root_path", "src").Build()
	if got != "plan under src" {
		t.Errorf("Build() = %q, want %q", got, "plan under src")
	}
}

func TestBuilderUnknownBasePrompt(t *testing.T) {
	if _, err := NewBuilder(NewRegistry(), "no_such_prompt"); err == nil {
		t.Errorf("expected error for unknown base prompt")
	}
}
