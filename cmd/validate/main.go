package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nebulagames/story-relay/pkg/story"
	"github.com/nebulagames/story-relay/pkg/whatsapp"
)

func main() {
	dir := "./data/story"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	v := &contentValidator{dir: dir}
	if err := v.run(); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	for _, warn := range v.warnings {
		fmt.Printf("warning: %s\n", warn)
	}

	if len(v.errors) > 0 {
		fmt.Fprintf(os.Stderr, "Validation errors in %s:\n", dir)
		for _, e := range v.errors {
			fmt.Fprintf(os.Stderr, "  %s\n", e)
		}
		os.Exit(1)
	}

	fmt.Printf("Story content in %s is valid (%d scenes, %d choices)\n", dir, len(v.scenes), len(v.choices))
}

type contentValidator struct {
	dir      string
	scenes   map[string]*story.Scene
	choices  story.ChoiceTable
	errors   []string
	warnings []string
}

func (v *contentValidator) errorf(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *contentValidator) warnf(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *contentValidator) run() error {
	if err := v.loadScenes(); err != nil {
		return err
	}
	if err := v.loadChoices(); err != nil {
		return err
	}

	for sceneID, scene := range v.scenes {
		v.validateScene(sceneID, scene)
	}
	for choiceID, choice := range v.choices {
		v.validateChoice(choiceID, choice)
	}

	if _, ok := v.choices[story.DefaultChoiceID]; !ok {
		v.errorf("choices.json has no %q entry; unknown selections would have no fallback", story.DefaultChoiceID)
	}

	return nil
}

func (v *contentValidator) loadScenes() error {
	scenesDir := filepath.Join(v.dir, "scenes")
	v.scenes = make(map[string]*story.Scene)

	err := filepath.WalkDir(scenesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		rel, err := filepath.Rel(scenesDir, path)
		if err != nil {
			return err
		}
		sceneID := filepath.ToSlash(strings.TrimSuffix(rel, ".json"))

		data, err := os.ReadFile(path)
		if err != nil {
			v.errorf("scene %s: failed to read: %v", sceneID, err)
			return nil
		}

		var scene story.Scene
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&scene); err != nil {
			v.errorf("scene %s: failed strict JSON unmarshaling: %v", sceneID, err)
			return nil
		}
		scene.ID = sceneID
		v.scenes[sceneID] = &scene
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk scenes directory: %w", err)
	}
	if len(v.scenes) == 0 {
		return fmt.Errorf("no scene files found under %s", scenesDir)
	}
	return nil
}

func (v *contentValidator) loadChoices() error {
	data, err := os.ReadFile(filepath.Join(v.dir, "choices.json"))
	if err != nil {
		return fmt.Errorf("failed to read choices.json: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&v.choices); err != nil {
		return fmt.Errorf("choices.json failed strict JSON unmarshaling: %w", err)
	}
	return nil
}

func (v *contentValidator) validateScene(sceneID string, scene *story.Scene) {
	if scene.BodyText == "" {
		v.errorf("scene %s: body_text is required", sceneID)
	}
	if scene.ButtonText == "" {
		v.errorf("scene %s: button_text is required", sceneID)
	}
	if len(scene.Sections) == 0 {
		v.errorf("scene %s: at least one section is required", sceneID)
	}
	if len(scene.Sections) > whatsapp.MaxSections {
		v.warnf("scene %s: %d sections exceed the provider limit of %d and will be truncated",
			sceneID, len(scene.Sections), whatsapp.MaxSections)
	}

	for _, sec := range scene.Sections {
		if len(sec.Rows) == 0 {
			v.errorf("scene %s: section %q has no rows", sceneID, sec.Title)
		}
		if len(sec.Rows) > whatsapp.MaxRows {
			v.warnf("scene %s: section %q has %d rows, provider limit is %d",
				sceneID, sec.Title, len(sec.Rows), whatsapp.MaxRows)
		}
		if len(sec.Title) > whatsapp.MaxSectionTitle {
			v.warnf("scene %s: section title %q exceeds %d characters and will be truncated",
				sceneID, sec.Title, whatsapp.MaxSectionTitle)
		}
		for _, row := range sec.Rows {
			if row.ID == "" {
				v.errorf("scene %s: row %q has no id", sceneID, row.Title)
				continue
			}
			if _, ok := v.choices[row.ID]; !ok {
				v.errorf("scene %s: row id %q has no entry in choices.json", sceneID, row.ID)
			}
			if len(row.Title) > whatsapp.MaxRowTitle {
				v.warnf("scene %s: row title %q exceeds %d characters and will be truncated",
					sceneID, row.Title, whatsapp.MaxRowTitle)
			}
		}
	}
}

func (v *contentValidator) validateChoice(choiceID string, choice *story.Choice) {
	if choice.Message == nil {
		v.errorf("choice %s: message is required", choiceID)
		return
	}
	if choice.Message.BodyText == "" {
		v.errorf("choice %s: message body_text is required", choiceID)
	}
	if len(choice.Message.Buttons) == 0 {
		v.errorf("choice %s: message needs at least one button", choiceID)
	}
	if len(choice.Message.Buttons) > whatsapp.MaxButtons {
		v.warnf("choice %s: %d buttons exceed the provider limit of %d and will be truncated",
			choiceID, len(choice.Message.Buttons), whatsapp.MaxButtons)
	}

	for _, b := range choice.Message.Buttons {
		if b.ID == "" {
			v.errorf("choice %s: button %q has no id", choiceID, b.Title)
			continue
		}
		if _, ok := v.choices[b.ID]; !ok {
			v.errorf("choice %s: button id %q has no entry in choices.json", choiceID, b.ID)
		}
		if len(b.Title) > whatsapp.MaxButtonTitle {
			v.warnf("choice %s: button title %q exceeds %d characters and will be truncated",
				choiceID, b.Title, whatsapp.MaxButtonTitle)
		}
	}

	if choice.Effects != nil && choice.Effects.NextScene != "" {
		if _, ok := v.scenes[choice.Effects.NextScene]; !ok {
			v.errorf("choice %s: next_scene %q does not resolve to a scene file", choiceID, choice.Effects.NextScene)
		}
	}
}
