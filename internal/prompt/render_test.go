package prompt

import (
	"errors"
	"strings"
	"testing"

	"veo-prompt-studio/internal/apperr"
)

func TestEnOption(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Low-angle (Dari bawah, subjek tampak kuat/dominan)", "Low-angle"},
		{"Cinematic", "Cinematic"},
		{"  Golden hour (Cahaya hangat saat matahari terbit/terbenam)", "Golden hour"},
		{"16:9 (Lanskap)", "16:9"},
		{"Bird's-eye view (Tepat dari atas, seperti mata burung)", "Bird's-eye view"},
		{"Soft(focus)", "Soft(focus)"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := EnOption(tt.in); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRenderImageModel(t *testing.T) {
	s := NewState()
	s.OutputModel = ModelImage
	s.VisualStyle = "Anime"
	s.MainDescription = "A cat plays."
	s.Characters = []Character{{ID: "1", Name: "Mio", Characteristics: "small", Clothing: "red scarf", Nationality: "Jepang"}}
	s.Background.Location = "Tokyo"
	s.Camera.Style = "Cinematic"
	s.Camera.Lighting = "Golden hour (Cahaya hangat saat matahari terbit/terbenam)"
	s.VideoQuality = "4K"
	s.AspectRatio = "16:9 (Lanskap)"
	s.NegativePrompt = "blur, text"

	out, err := Render(s)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	want := "cinematic photo, Anime, A cat plays., Mio, small, red scarf, Tokyo, Cinematic, Golden hour, 4K, 16:9, hyper-realistic, detailed, 8k, --no blur, text"
	if out.TextID != want {
		t.Errorf("Expected %q, got %q", want, out.TextID)
	}
	if out.TextEN != out.TextID {
		t.Errorf("Expected identical language variants, got %q and %q", out.TextID, out.TextEN)
	}
	if !strings.HasSuffix(out.TextID, "--no blur, text") {
		t.Errorf("Expected negative prompt suffix, got %q", out.TextID)
	}
	if out.Tab != TabText {
		t.Errorf("Expected tab %q, got %q", TabText, out.Tab)
	}
}

func TestRenderImageModelWithoutNegativePrompt(t *testing.T) {
	s := NewState()
	s.OutputModel = ModelImage

	out, err := Render(s)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if want := "cinematic photo, hyper-realistic, detailed, 8k"; out.TextID != want {
		t.Errorf("Expected %q, got %q", want, out.TextID)
	}
}

func TestRenderGoogleFlow(t *testing.T) {
	s := NewState()
	s.OutputModel = ModelGoogleFlow
	s.MainDescription = "A cat plays."

	out, err := Render(s)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out.Tab != TabJSON {
		t.Errorf("Expected tab %q, got %q", TabJSON, out.Tab)
	}
	if out.TextID != googleFlowNoticeID || out.TextEN != googleFlowNoticeEN {
		t.Errorf("Expected google flow notices, got %q / %q", out.TextID, out.TextEN)
	}
	if !strings.Contains(out.JSON, `"main_description": "A cat plays."`) {
		t.Errorf("Expected JSON to carry the description, got %s", out.JSON)
	}
}

func TestRenderVeoPreview(t *testing.T) {
	s := NewState()
	s.OutputModel = ModelVeo3Preview
	s.VisualStyle = "Anime"
	s.MainDescription = " A cat plays. "
	s.Characters = []Character{
		{ID: "1", Name: "Mio", Nationality: "Jepang", MainAction: "melompat"},
		{ID: "2", Clothing: "jaket", MainAction: "tidur"},
		{ID: "3"},
	}
	s.Background.Location = "Tokyo"
	s.Background.Time = "Malam"

	out, err := Render(s)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	want := "Pratinjau: Dalam gaya Anime, A cat plays. Mio, Jepang Mio sedang melompat. memakai jaket karakter sedang tidur. Berlatar di Tokyo pada malam."
	if out.TextID != want {
		t.Errorf("Expected %q, got %q", want, out.TextID)
	}
	if out.TextEN != "Preview: "+want {
		t.Errorf("Expected English to wrap the Indonesian text, got %q", out.TextEN)
	}
}

func TestRenderVeoPreviewPrefixAlwaysDuplicated(t *testing.T) {
	out, err := Render(State{OutputModel: ModelVeo3Preview})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.HasPrefix(out.TextEN, "Preview: Pratinjau: ") {
		t.Errorf("Expected prefix %q, got %q", "Preview: Pratinjau: ", out.TextEN)
	}
}

func TestRenderDefaultOnlyDescription(t *testing.T) {
	s := NewState()
	s.MainDescription = "A cat plays."

	out, err := Render(s)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out.TextID != "A cat plays." {
		t.Errorf("Expected a single sentence paragraph, got %q", out.TextID)
	}
	if out.TextEN != "A cat plays." {
		t.Errorf("Expected a single sentence paragraph, got %q", out.TextEN)
	}
}

func TestRenderDefaultEmptyState(t *testing.T) {
	out, err := Render(NewState())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out.TextID != "" || out.TextEN != "" {
		t.Errorf("Expected empty texts, got %q / %q", out.TextID, out.TextEN)
	}
}

func fullState() State {
	s := NewState()
	s.VisualStyle = "Realistic"
	s.MainDescription = "Hujan turun di kota."
	s.Characters = []Character{
		{ID: "a", Name: "Rina", Nationality: "Indonesia", Characteristics: "rambut pendek", Clothing: "jas hujan kuning", MainAction: "berlari", Emotion: "cemas"},
		{ID: "b", Emotion: "senang"},
	}
	s.Background = Background{Location: "Jakarta", Time: "Malam", CrowdLevel: "Ramai", Weather: "Hujan Deras"}
	s.Camera = Camera{
		Style:    "Cinematic",
		Movement: "Dolly (Kamera bergerak maju/mundur)",
		Lighting: "Low-key (Kontras tinggi, banyak bayangan, dramatis)",
	}
	s.Audio = Audio{
		DialogueType: "Dialog",
		DialogueTone: "tegang",
		Dialogues: []DialogueLine{
			{ID: "1", Speaker: "Rina", Content: "Cepat!", Language: "Indonesia"},
			{ID: "2", Speaker: "Budi", Content: "Wait!", Language: "Inggris"},
			{ID: "3", Content: "tanpa pembicara", Language: "Indonesia"},
		},
		Mood:         "Tegang",
		AmbientSound: "Suara hujan",
	}
	s.VideoQuality = "4K"
	s.AspectRatio = "16:9 (Lanskap)"
	s.AdditionalDetails = "Fokus pada pantulan cahaya"
	s.NegativePrompt = "blur"
	return s
}

func TestRenderDefaultIndonesian(t *testing.T) {
	out, err := Render(fullState())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	want := strings.Join([]string{
		"Gaya visualnya adalah Realistic. Hujan turun di kota. Seorang karakter, Rina, Indonesia, rambut pendek. Ia memakai jas hujan kuning. Adegan berlatar di Jakarta pada malam dengan suasana ramai , cuaca hujan deras. Rina terlihat sedang berlari dengan ekspresi cemas. Karakter tersebut terlihat sedang dengan ekspresi senang.",
		"(Sinematografi) Cinematic, Dolly (Kamera bergerak maju/mundur), Low-key (Kontras tinggi, banyak bayangan, dramatis).",
		`(Audio) Dialog dengan nada tegang. Rina: "Cepat!" (diucapkan dalam Bahasa Indonesia). Budi: "Wait!" (diucapkan dalam Bahasa Inggris). Suara lingkungan: Suara hujan. Mood audio keseluruhan adalah tegang.`,
		"Fokus pada pantulan cahaya. Spesifikasi Teknis: 4K, 16:9 (Lanskap). Hindari: blur.",
	}, "\n\n")

	if out.TextID != want {
		t.Errorf("Expected:\n%s\n\ngot:\n%s", want, out.TextID)
	}
}

func TestRenderDefaultEnglish(t *testing.T) {
	out, err := Render(fullState())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	want := strings.Join([]string{
		"The visual style is Realistic. Hujan turun di kota. The scene features a character, Rina, Indonesia, rambut pendek. They are wearing jas hujan kuning. The scene is set in Jakarta at malam with a ramai atmosphere , with hujan deras weather. Rina is seen berlari with an expression of cemas. The character is seen with an expression of senang.",
		"Cinematography:\n- Style: Cinematic\n- Camera Movement: Dolly\n- Lighting: Low-key",
		"Audio:\n- Dialogue (Tone: tegang)\n  - Rina: \"Cepat!\" (in Indonesian)\n  - Budi: \"Wait!\" (in English)\n- Ambient Sound: Suara hujan\n- Overall Mood: Tegang",
		"Additional Notes:\n- Video Quality: 4K\n- Aspect Ratio: 16:9\n- Additional Details: Fokus pada pantulan cahaya\n- Negative Prompt: blur",
	}, "\n\n")

	if out.TextEN != want {
		t.Errorf("Expected:\n%s\n\ngot:\n%s", want, out.TextEN)
	}
}

func TestRenderDialogueRules(t *testing.T) {
	tests := []struct {
		name     string
		audio    Audio
		wantID   string
		wantEN   string
		absentID string
	}{
		{
			name: "no dialogue type suppresses lines",
			audio: Audio{
				DialogueType: "Tanpa Dialog",
				Dialogues:    []DialogueLine{{ID: "1", Speaker: "A", Content: "Halo", Language: "Indonesia"}},
			},
			absentID: "Halo",
		},
		{
			name: "unset dialogue type suppresses lines",
			audio: Audio{
				Dialogues: []DialogueLine{{ID: "1", Speaker: "A", Content: "Halo", Language: "Indonesia"}},
			},
			absentID: "Halo",
		},
		{
			name: "unmapped type and language pass through",
			audio: Audio{
				DialogueType: "Podcast",
				Dialogues:    []DialogueLine{{ID: "1", Speaker: "A", Content: "Halo", Language: "Jawa"}},
			},
			wantID: `(Audio) Podcast. A: "Halo" (diucapkan dalam Bahasa Jawa).`,
			wantEN: "Audio:\n- Podcast\n  - A: \"Halo\"",
		},
		{
			name: "narration maps to english",
			audio: Audio{
				DialogueType: "Narasi",
				Dialogues:    []DialogueLine{{ID: "1", Speaker: "Narator", Content: "Suatu hari"}},
			},
			wantID: `(Audio) Narasi. Narator: "Suatu hari".`,
			wantEN: "Audio:\n- Narration\n  - Narator: \"Suatu hari\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			s.Audio = tt.audio

			out, err := Render(s)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if tt.wantID != "" && out.TextID != tt.wantID {
				t.Errorf("Expected ID %q, got %q", tt.wantID, out.TextID)
			}
			if tt.wantEN != "" && out.TextEN != tt.wantEN {
				t.Errorf("Expected EN %q, got %q", tt.wantEN, out.TextEN)
			}
			if tt.absentID != "" && strings.Contains(out.TextID, tt.absentID) {
				t.Errorf("Expected %q to be absent, got %q", tt.absentID, out.TextID)
			}
		})
	}
}

func TestRenderOmitsEmptyParagraphs(t *testing.T) {
	s := NewState()
	s.Camera.Focus = "Deep focus"

	out, err := Render(s)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out.TextID != "(Sinematografi) Deep focus." {
		t.Errorf("Expected only the camera paragraph, got %q", out.TextID)
	}
	if out.TextEN != "Cinematography:\n- Focus: Deep focus" {
		t.Errorf("Expected only the camera block, got %q", out.TextEN)
	}
	if strings.HasPrefix(out.TextID, "\n") || strings.HasPrefix(out.TextEN, "\n") {
		t.Errorf("Expected no leading blank line")
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	for _, model := range OutputModels() {
		s := fullState()
		s.OutputModel = model
		before := s.Clone()

		first, err := Render(s)
		if err != nil {
			t.Fatalf("Render %s failed: %v", model, err)
		}
		second, err := Render(s)
		if err != nil {
			t.Fatalf("Render %s failed: %v", model, err)
		}
		if first != second {
			t.Errorf("Expected identical output for %s", model)
		}
		if s.Characters[0] != before.Characters[0] || s.Audio.Dialogues[2] != before.Audio.Dialogues[2] {
			t.Errorf("Expected Render not to modify state for %s", model)
		}
	}
}

func TestOutputExport(t *testing.T) {
	out := Output{TextID: "halo", TextEN: "hello", JSON: "{}", Tab: TabText}

	tests := []struct {
		tab, lang, want string
	}{
		{TabText, LangID, "halo"},
		{TabText, LangEN, "hello"},
		{TabJSON, LangEN, "{}"},
		{"", "", "halo"},
	}
	for _, tt := range tests {
		if got := out.Export(tt.tab, tt.lang); got != tt.want {
			t.Errorf("Export(%q, %q): expected %q, got %q", tt.tab, tt.lang, tt.want, got)
		}
	}

	if got := (Output{}).Export(TabText, LangID); got != "" {
		t.Errorf("Expected nothing to copy, got %q", got)
	}
}

func TestRenderFailureReturnsZeroOutput(t *testing.T) {
	orig := exportJSON
	exportJSON = func(State) (string, error) { return "", errors.New("encoder broke") }
	defer func() { exportJSON = orig }()

	s := NewState()
	s.MainDescription = "A cat plays."
	out, err := Render(s)
	if !apperr.Is(err, apperr.KindRender) {
		t.Fatalf("Expected a render error, got %v", err)
	}
	if !out.IsZero() {
		t.Errorf("Expected a zero output, got %+v", out)
	}
}
