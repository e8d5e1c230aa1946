package prompt

import (
	"fmt"
	"strings"

	"veo-prompt-studio/internal/apperr"
)

const (
	TabText = "text"
	TabJSON = "json"

	LangID = "id"
	LangEN = "en"
)

const (
	googleFlowNoticeID = "Output JSON dihasilkan untuk 'google flow'. Beralih ke tab JSON untuk melihatnya."
	googleFlowNoticeEN = "JSON output generated for 'google flow'. Switch to the JSON tab to view."
)

// Output is one render of a State. Tab names the view that should be shown
// after rendering.
type Output struct {
	TextID string `json:"textId"`
	TextEN string `json:"textEn"`
	JSON   string `json:"json"`
	Tab    string `json:"tab"`
}

// Export returns what a copy action on the given tab copies: the JSON
// document on the JSON tab, otherwise the prompt text in lang. An empty
// result means there is nothing to copy.
func (o Output) Export(tab, lang string) string {
	if tab == TabJSON {
		return o.JSON
	}
	if lang == LangEN {
		return o.TextEN
	}
	return o.TextID
}

func (o Output) IsZero() bool {
	return o == Output{}
}

// Render maps a state to its prompt texts and export document. It has no
// side effects; on any failure it returns a zero Output and a single render
// error.
func Render(s State) (out Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = Output{}
			err = apperr.Render(fmt.Errorf("panic: %v", r))
		}
	}()

	doc, err := exportJSON(s)
	if err != nil {
		return Output{}, apperr.Render(err)
	}

	out = Output{JSON: doc, Tab: TabText}
	switch s.OutputModel {
	case ModelImage:
		line := imagePrompt(s)
		out.TextID = line
		out.TextEN = line
	case ModelGoogleFlow:
		out.TextID = googleFlowNoticeID
		out.TextEN = googleFlowNoticeEN
		out.Tab = TabJSON
	case ModelVeo3Preview:
		out.TextID = previewPrompt(s)
		// The English variant wraps the whole Indonesian text, prefix included.
		out.TextEN = "Preview: " + out.TextID
	default:
		out.TextID = buildParagraphs(s, LangID)
		out.TextEN = buildParagraphs(s, LangEN)
	}
	return out, nil
}

// imagePrompt is a single comma separated line shared by both languages.
func imagePrompt(s State) string {
	parts := []string{"cinematic photo", s.VisualStyle, s.MainDescription}
	for _, c := range s.Characters {
		parts = append(parts, joinNonBlank([]string{c.Name, c.Characteristics, c.Clothing}, ", "))
	}
	parts = append(parts,
		s.Background.Location,
		s.Camera.Style,
		EnOption(s.Camera.Lighting),
		s.VideoQuality,
		EnOption(s.AspectRatio),
		s.AdditionalDetails,
		"hyper-realistic, detailed, 8k",
	)
	if s.NegativePrompt != "" {
		parts = append(parts, "--no "+s.NegativePrompt)
	}
	return joinNonEmpty(parts, ", ")
}

func previewPrompt(s State) string {
	var sentences []string
	if s.VisualStyle != "" {
		sentences = append(sentences, "Dalam gaya "+s.VisualStyle+",")
	}
	if main := strings.TrimSpace(s.MainDescription); main != "" {
		sentences = append(sentences, main)
	}
	for _, c := range s.Characters {
		clothing := ""
		if c.Clothing != "" {
			clothing = "memakai " + c.Clothing
		}
		if desc := joinNonBlank([]string{c.Name, c.Nationality, c.Characteristics, clothing}, ", "); desc != "" {
			sentences = append(sentences, desc)
		}
		if c.MainAction != "" {
			sentences = append(sentences, fmt.Sprintf("%s sedang %s.", orDefault(c.Name, "karakter"), c.MainAction))
		}
	}

	at := ""
	if s.Background.Time != "" {
		at = "pada " + strings.ToLower(s.Background.Time)
	}
	if location := joinNonBlank([]string{s.Background.Location, at}, " "); location != "" {
		sentences = append(sentences, "Berlatar di "+location+".")
	}

	return "Pratinjau: " + strings.Join(sentences, " ")
}

func buildParagraphs(s State, lang string) string {
	isID := lang == LangID
	var paragraphs []string

	if scene := sceneParagraph(s, isID); scene != "" {
		paragraphs = append(paragraphs, scene)
	}
	if isID {
		paragraphs = append(paragraphs, indonesianDetails(s)...)
	} else {
		paragraphs = append(paragraphs, englishDetails(s)...)
	}
	return strings.Join(paragraphs, "\n\n")
}

func sceneParagraph(s State, isID bool) string {
	var sentences []string

	if s.VisualStyle != "" {
		sentences = append(sentences, pick(isID,
			"Gaya visualnya adalah "+s.VisualStyle+".",
			"The visual style is "+s.VisualStyle+"."))
	}
	if main := strings.TrimSpace(s.MainDescription); main != "" {
		sentences = append(sentences, main)
	}

	for _, c := range s.Characters {
		if identity := joinNonBlank([]string{c.Name, c.Nationality, c.Characteristics}, ", "); identity != "" {
			sentences = append(sentences, pick(isID,
				"Seorang karakter, "+identity+".",
				"The scene features a character, "+identity+"."))
		}
		if c.Clothing != "" {
			sentences = append(sentences, pick(isID,
				"Ia memakai "+c.Clothing+".",
				"They are wearing "+c.Clothing+"."))
		}
	}

	if setting := sceneSetting(s.Background, isID); setting != "" {
		sentences = append(sentences, pick(isID,
			"Adegan berlatar "+setting+".",
			"The scene is set "+setting+"."))
	}

	for _, c := range s.Characters {
		emotion := ""
		if c.Emotion != "" {
			emotion = pick(isID, "dengan ekspresi "+c.Emotion, "with an expression of "+c.Emotion)
		}
		action := joinNonBlank([]string{c.MainAction, emotion}, " ")
		if action == "" {
			continue
		}
		subject := c.Name
		if subject == "" {
			subject = pick(isID, "Karakter tersebut", "The character")
		}
		sentences = append(sentences, fmt.Sprintf("%s %s %s.", subject, pick(isID, "terlihat sedang", "is seen"), action))
	}

	return strings.Join(sentences, " ")
}

// sceneSetting joins the background fields with their connectives. The
// weather connective starts with a comma and is joined like any other part.
func sceneSetting(b Background, isID bool) string {
	var parts []string
	if b.Location != "" {
		parts = append(parts, pick(isID, "di "+b.Location, "in "+b.Location))
	}
	if b.Time != "" {
		t := strings.ToLower(b.Time)
		parts = append(parts, pick(isID, "pada "+t, "at "+t))
	}
	if b.CrowdLevel != "" {
		crowd := strings.ToLower(b.CrowdLevel)
		parts = append(parts, pick(isID, "dengan suasana "+crowd, "with a "+crowd+" atmosphere"))
	}
	if b.Weather != "" {
		weather := strings.ToLower(b.Weather)
		parts = append(parts, pick(isID, ", cuaca "+weather, ", with "+weather+" weather"))
	}
	if b.Season != "" {
		season := strings.ToLower(b.Season)
		parts = append(parts, pick(isID, "di "+season, "in the "+season))
	}
	return joinNonBlank(parts, " ")
}

func hasDialogue(a Audio) bool {
	return a.DialogueType != "" && a.DialogueType != noDialogue && len(a.Dialogues) > 0
}

func indonesianDetails(s State) []string {
	var paragraphs []string

	c := s.Camera
	if camera := joinNonBlank([]string{c.Style, c.Movement, c.Angle, c.Focus, c.Lighting, c.ColorGrading}, ", "); camera != "" {
		paragraphs = append(paragraphs, "(Sinematografi) "+camera+".")
	}

	var audio []string
	if hasDialogue(s.Audio) {
		var lines []string
		for _, d := range s.Audio.Dialogues {
			if d.Speaker == "" || d.Content == "" {
				continue
			}
			lang := ""
			if d.Language != "" {
				lang = " (diucapkan dalam Bahasa " + d.Language + ")"
			}
			lines = append(lines, d.Speaker+`: "`+d.Content+`"`+lang)
		}
		if rendered := joinNonBlank(lines, ". "); rendered != "" {
			header := s.Audio.DialogueType
			if s.Audio.DialogueTone != "" {
				header += " dengan nada " + s.Audio.DialogueTone
			}
			audio = append(audio, header+". "+rendered)
		}
	}
	if s.Audio.AmbientSound != "" {
		audio = append(audio, "Suara lingkungan: "+s.Audio.AmbientSound)
	}
	if s.Audio.BackgroundMusic != "" {
		audio = append(audio, "Musik latar: "+s.Audio.BackgroundMusic)
	}
	if s.Audio.Mood != "" {
		audio = append(audio, "Mood audio keseluruhan adalah "+strings.ToLower(s.Audio.Mood))
	}
	if len(audio) > 0 {
		paragraphs = append(paragraphs, "(Audio) "+joinNonBlank(audio, ". ")+".")
	}

	var closing []string
	if s.AdditionalDetails != "" {
		closing = append(closing, s.AdditionalDetails)
	}
	if tech := joinNonBlank([]string{s.VideoQuality, s.AspectRatio}, ", "); tech != "" {
		closing = append(closing, "Spesifikasi Teknis: "+tech)
	}
	if s.NegativePrompt != "" {
		closing = append(closing, "Hindari: "+s.NegativePrompt)
	}
	if len(closing) > 0 {
		paragraphs = append(paragraphs, joinNonBlank(closing, ". ")+".")
	}

	return paragraphs
}

func englishDetails(s State) []string {
	var paragraphs []string

	var camera []string
	c := s.Camera
	if c.Style != "" {
		camera = append(camera, "- Style: "+c.Style)
	}
	if c.Movement != "" {
		camera = append(camera, "- Camera Movement: "+EnOption(c.Movement))
	}
	if c.Angle != "" {
		camera = append(camera, "- Camera Angle: "+EnOption(c.Angle))
	}
	if c.Focus != "" {
		camera = append(camera, "- Focus: "+c.Focus)
	}
	if c.Lighting != "" {
		camera = append(camera, "- Lighting: "+EnOption(c.Lighting))
	}
	if c.ColorGrading != "" {
		camera = append(camera, "- Color Grading: "+c.ColorGrading)
	}
	if len(camera) > 0 {
		paragraphs = append(paragraphs, "Cinematography:\n"+strings.Join(camera, "\n"))
	}

	var audio []string
	if hasDialogue(s.Audio) {
		header := "- " + englishDialogueType(s.Audio.DialogueType)
		if s.Audio.DialogueTone != "" {
			header += " (Tone: " + s.Audio.DialogueTone + ")"
		}
		audio = append(audio, header)
		for _, d := range s.Audio.Dialogues {
			if d.Speaker == "" || d.Content == "" {
				continue
			}
			lang := ""
			switch d.Language {
			case languageEnglish:
				lang = " (in English)"
			case languageIndonesia:
				lang = " (in Indonesian)"
			}
			audio = append(audio, "  - "+d.Speaker+`: "`+d.Content+`"`+lang)
		}
	}
	if s.Audio.AmbientSound != "" {
		audio = append(audio, "- Ambient Sound: "+s.Audio.AmbientSound)
	}
	if s.Audio.BackgroundMusic != "" {
		audio = append(audio, "- Background Music: "+s.Audio.BackgroundMusic)
	}
	if s.Audio.Mood != "" {
		audio = append(audio, "- Overall Mood: "+s.Audio.Mood)
	}
	if len(audio) > 0 {
		paragraphs = append(paragraphs, "Audio:\n"+strings.Join(audio, "\n"))
	}

	var notes []string
	if s.VideoQuality != "" {
		notes = append(notes, "- Video Quality: "+s.VideoQuality)
	}
	if s.AspectRatio != "" {
		notes = append(notes, "- Aspect Ratio: "+EnOption(s.AspectRatio))
	}
	if s.AdditionalDetails != "" {
		notes = append(notes, "- Additional Details: "+s.AdditionalDetails)
	}
	if s.NegativePrompt != "" {
		notes = append(notes, "- Negative Prompt: "+s.NegativePrompt)
	}
	if len(notes) > 0 {
		paragraphs = append(paragraphs, "Additional Notes:\n"+strings.Join(notes, "\n"))
	}

	return paragraphs
}

// joinNonBlank drops parts that are empty after trimming; kept parts are
// joined untrimmed.
func joinNonBlank(parts []string, sep string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func joinNonEmpty(parts []string, sep string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func pick(isID bool, id, en string) string {
	if isID {
		return id
	}
	return en
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
