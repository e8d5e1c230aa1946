package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Export document. Field order is the serialised key order. Empty strings
// and lists are dropped by omitempty; nested records are pointers so an
// all-empty record can be dropped too.
type exportDoc struct {
	MainDescription   string            `json:"main_description,omitempty"`
	VisualStyle       string            `json:"visual_style,omitempty"`
	Subjects          []exportSubject   `json:"subjects,omitempty"`
	Background        *exportBackground `json:"background,omitempty"`
	Camera            *exportCamera     `json:"camera,omitempty"`
	Audio             *exportAudio      `json:"audio,omitempty"`
	VideoQuality      string            `json:"video_quality,omitempty"`
	AspectRatio       string            `json:"aspect_ratio,omitempty"`
	AdditionalDetails string            `json:"additional_details,omitempty"`
	NegativePrompt    string            `json:"negative_prompt,omitempty"`
	OutputModel       string            `json:"output_model,omitempty"`
}

type exportSubject struct {
	Name                      string `json:"name,omitempty"`
	HasReferenceImage         bool   `json:"has_reference_image"`
	HasClothingReferenceImage bool   `json:"has_clothing_reference_image"`
	Nationality               string `json:"nationality,omitempty"`
	Characteristics           string `json:"characteristics,omitempty"`
	Clothing                  string `json:"clothing,omitempty"`
	MainAction                string `json:"main_action,omitempty"`
	Emotion                   string `json:"emotion,omitempty"`
}

type exportBackground struct {
	Location   string `json:"location,omitempty"`
	CrowdLevel string `json:"crowd_level,omitempty"`
	Time       string `json:"time,omitempty"`
	Weather    string `json:"weather,omitempty"`
	Season     string `json:"season,omitempty"`
}

type exportCamera struct {
	Style        string `json:"style,omitempty"`
	Movement     string `json:"movement,omitempty"`
	Angle        string `json:"angle,omitempty"`
	Focus        string `json:"focus,omitempty"`
	Lighting     string `json:"lighting,omitempty"`
	ColorGrading string `json:"colorGrading,omitempty"`
}

type exportAudio struct {
	DialogueType    string           `json:"dialogue_type,omitempty"`
	DialogueTone    string           `json:"dialogue_tone,omitempty"`
	Dialogues       []exportDialogue `json:"dialogues,omitempty"`
	OverallMood     string           `json:"overall_mood,omitempty"`
	AmbientSound    string           `json:"ambient_sound,omitempty"`
	BackgroundMusic string           `json:"background_music,omitempty"`
}

type exportDialogue struct {
	Speaker  string `json:"speaker,omitempty"`
	Content  string `json:"content,omitempty"`
	Language string `json:"language,omitempty"`
}

// exportJSON is what Render calls; tests swap it to force a failure.
var exportJSON = ExportJSON

// ExportJSON renders the cleaned export document with two-space indentation.
// Image payloads are reduced to presence flags and preview fields are left
// out.
func ExportJSON(s State) (string, error) {
	doc := exportDoc{
		MainDescription:   s.MainDescription,
		VisualStyle:       s.VisualStyle,
		VideoQuality:      s.VideoQuality,
		AspectRatio:       s.AspectRatio,
		AdditionalDetails: s.AdditionalDetails,
		NegativePrompt:    s.NegativePrompt,
		OutputModel:       s.OutputModel,
	}

	for _, c := range s.Characters {
		doc.Subjects = append(doc.Subjects, exportSubject{
			Name:                      c.Name,
			HasReferenceImage:         c.ReferenceImage != nil,
			HasClothingReferenceImage: c.ClothingReferenceImage != nil,
			Nationality:               c.Nationality,
			Characteristics:           c.Characteristics,
			Clothing:                  c.Clothing,
			MainAction:                c.MainAction,
			Emotion:                   c.Emotion,
		})
	}

	bg := exportBackground{
		Location:   s.Background.Location,
		CrowdLevel: s.Background.CrowdLevel,
		Time:       s.Background.Time,
		Weather:    s.Background.Weather,
		Season:     s.Background.Season,
	}
	if bg != (exportBackground{}) {
		doc.Background = &bg
	}

	cam := exportCamera(s.Camera)
	if cam != (exportCamera{}) {
		doc.Camera = &cam
	}

	audio := exportAudio{
		DialogueType:    s.Audio.DialogueType,
		DialogueTone:    s.Audio.DialogueTone,
		OverallMood:     s.Audio.Mood,
		AmbientSound:    s.Audio.AmbientSound,
		BackgroundMusic: s.Audio.BackgroundMusic,
	}
	for _, d := range s.Audio.Dialogues {
		line := exportDialogue{Speaker: d.Speaker, Content: d.Content, Language: d.Language}
		if line == (exportDialogue{}) {
			continue
		}
		audio.Dialogues = append(audio.Dialogues, line)
	}
	if audio.DialogueType != "" || audio.DialogueTone != "" || len(audio.Dialogues) > 0 ||
		audio.OverallMood != "" || audio.AmbientSound != "" || audio.BackgroundMusic != "" {
		doc.Audio = &audio
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
