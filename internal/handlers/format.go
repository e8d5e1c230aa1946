package handlers

import (
	"fmt"
	"strings"

	"veo-prompt-studio/internal/prompt"
)

// summarize lists the filled fields of a form for /state.
func summarize(st prompt.State) string {
	var b strings.Builder
	b.WriteString("📋 Formulir\n")

	fields := []struct{ key, value string }{
		{"mainDescription", st.MainDescription},
		{"visualStyle", st.VisualStyle},
		{"videoQuality", st.VideoQuality},
		{"aspectRatio", st.AspectRatio},
		{"additionalDetails", st.AdditionalDetails},
		{"negativePrompt", st.NegativePrompt},
		{"outputModel", st.OutputModel},
		{"background.location", st.Background.Location},
		{"background.time", st.Background.Time},
		{"background.weather", st.Background.Weather},
		{"background.season", st.Background.Season},
		{"background.crowdLevel", st.Background.CrowdLevel},
		{"camera.style", st.Camera.Style},
		{"camera.movement", st.Camera.Movement},
		{"camera.angle", st.Camera.Angle},
		{"camera.focus", st.Camera.Focus},
		{"camera.lighting", st.Camera.Lighting},
		{"camera.colorGrading", st.Camera.ColorGrading},
		{"audio.dialogueType", st.Audio.DialogueType},
		{"audio.dialogueTone", st.Audio.DialogueTone},
		{"audio.mood", st.Audio.Mood},
		{"audio.ambientSound", st.Audio.AmbientSound},
		{"audio.backgroundMusic", st.Audio.BackgroundMusic},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) != "" {
			fmt.Fprintf(&b, "%s: %s\n", f.key, f.value)
		}
	}

	for i, c := range st.Characters {
		fmt.Fprintf(&b, "\nKarakter %d\n", i+1)
		for _, f := range []struct{ key, value string }{
			{"name", c.Name},
			{"nationality", c.Nationality},
			{"characteristics", c.Characteristics},
			{"clothing", c.Clothing},
			{"mainAction", c.MainAction},
			{"emotion", c.Emotion},
		} {
			if strings.TrimSpace(f.value) != "" {
				fmt.Fprintf(&b, "  %s: %s\n", f.key, f.value)
			}
		}
		if c.ReferenceImage != nil {
			b.WriteString("  foto referensi: ada\n")
		}
		if c.ClothingReferenceImage != nil {
			b.WriteString("  foto pakaian: ada\n")
		}
	}

	for i, d := range st.Audio.Dialogues {
		fmt.Fprintf(&b, "\nDialog %d: %s (%s): %s\n", i+1, orDash(d.Speaker), orDash(d.Language), orDash(d.Content))
	}

	return strings.TrimRight(b.String(), "\n")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
