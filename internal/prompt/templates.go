package prompt

// Template is a named preset. Camera, Audio, VideoQuality and AspectRatio
// always replace the state's values; VisualStyle only when the preset sets it.
type Template struct {
	Camera       Camera
	Audio        Audio
	VideoQuality string
	AspectRatio  string
	VisualStyle  *string
}

var templateOrder = []string{
	"",
	"Trailer Sinematik",
	"Adegan Aksi",
	"Vlog Santai",
	"Video Musik Anime",
	"Film Komedi",
	"Video Opening",
	"Situasi Komedi",
	"Film Drama",
	"Film Kartun",
	"Film Sci-Fi",
}

var templates = map[string]Template{
	"Trailer Sinematik": {
		Camera: Camera{
			Style:        "Cinematic",
			Movement:     "Dolly (Kamera bergerak maju/mundur)",
			Angle:        "Low-angle (Dari bawah, subjek tampak kuat/dominan)",
			Focus:        "Rack focus",
			Lighting:     "Low-key (Kontras tinggi, banyak bayangan, dramatis)",
			ColorGrading: "Bleach Bypass",
		},
		Audio: Audio{
			DialogueType: "Narasi",
			DialogueTone: "Mendalam, serius",
			Dialogues: []DialogueLine{
				{ID: "1", Speaker: "Narator", Content: "Di dunia yang dilanda kegelapan, satu harapan akan bangkit.", Language: languageIndonesia},
			},
			Mood:            "Epik",
			AmbientSound:    "Suara dentuman samar",
			BackgroundMusic: "Musik orkestra epik dengan crescendo",
		},
		VideoQuality: "4K, Realistis",
		AspectRatio:  "16:9 (Lanskap)",
	},
	"Adegan Aksi": {
		Camera: Camera{
			Style:        "Cinematic",
			Movement:     "Handheld (Kamera dipegang tangan, goyangan alami)",
			Angle:        "Dutch angle (Kamera miring, menciptakan ketegangan)",
			Focus:        "Shallow focus",
			Lighting:     "Studio light (Pencahayaan terkontrol di studio)",
			ColorGrading: "Vibrant",
		},
		Audio: Audio{
			DialogueType: "Dialog",
			DialogueTone: "Cepat, tegang",
			Dialogues: []DialogueLine{
				{ID: "1", Speaker: "Karakter 1", Content: "Kita harus pergi dari sini, sekarang!", Language: languageIndonesia},
				{ID: "2", Speaker: "Karakter 2", Content: "Aku di belakangmu!", Language: languageIndonesia},
			},
			Mood:            "Tegang",
			AmbientSound:    "Ledakan, tembakan, teriakan",
			BackgroundMusic: "Musik elektronik tempo cepat",
		},
		VideoQuality: "HD, Jernih",
		AspectRatio:  "16:9 (Lanskap)",
	},
	"Vlog Santai": {
		Camera: Camera{
			Style:        "Documentary",
			Movement:     "Static (Kamera diam, tidak bergerak)",
			Angle:        "Eye-level (Sejajar mata subjek, netral)",
			Focus:        "Deep focus",
			Lighting:     "Natural light (Cahaya alami dari matahari)",
			ColorGrading: "Muted",
		},
		Audio: Audio{
			DialogueType: "Monolog",
			DialogueTone: "Ramah, santai",
			Dialogues: []DialogueLine{
				{ID: "1", Speaker: "Vlogger", Content: "Hai semuanya, selamat datang kembali di channelku! Hari ini kita akan...", Language: languageIndonesia},
			},
			Mood:            "Tenang",
			AmbientSound:    "Kicauan burung, angin sepoi-sepoi",
			BackgroundMusic: "Musik lo-fi akustik lembut",
		},
		VideoQuality: "HD",
		AspectRatio:  "16:9 (Lanskap)",
	},
	"Video Musik Anime": {
		VisualStyle: strPtr("Anime"),
		Camera: Camera{
			Style:        "Anime",
			Movement:     "Pan (Kamera bergerak horizontal kiri/kanan)",
			Angle:        "High-angle (Dari atas, subjek tampak kecil/rentan)",
			Focus:        "Soft focus",
			Lighting:     "Backlight (Cahaya dari belakang subjek, menciptakan siluet)",
			ColorGrading: "Technicolor",
		},
		Audio: Audio{
			DialogueType:    noDialogue,
			Dialogues:       []DialogueLine{},
			Mood:            "Senang",
			BackgroundMusic: "J-Pop atau J-Rock tempo cepat",
		},
		VideoQuality: "HD, Anime Style",
		AspectRatio:  "16:9 (Lanskap)",
	},
	"Film Komedi": {
		Camera: Camera{
			Style:        "Cinematic",
			Movement:     "Static (Kamera diam, tidak bergerak)",
			Angle:        "Eye-level (Sejajar mata subjek, netral)",
			Focus:        "Deep focus",
			Lighting:     "High-key (Terang, minim bayangan, ceria)",
			ColorGrading: "Vibrant",
		},
		Audio: Audio{
			DialogueType: "Dialog",
			DialogueTone: "Cepat, lucu, ironis",
			Dialogues: []DialogueLine{
				{ID: "1", Speaker: "Karakter 1", Content: "Bukan begitu caranya membuat kopi!", Language: languageIndonesia},
				{ID: "2", Speaker: "Karakter 2", Content: "Oh ya? Memangnya kenapa?", Language: languageIndonesia},
			},
			Mood:            "Senang",
			AmbientSound:    "Suara tawa penonton (laugh track)",
			BackgroundMusic: "Musik jazz ceria atau musik komedi quirky",
		},
		VideoQuality: "HD",
		AspectRatio:  "16:9 (Lanskap)",
	},
	"Video Opening": {
		Camera: Camera{
			Style:        "Cinematic",
			Movement:     "Crane (Kamera bergerak naik/turun secara signifikan)",
			Angle:        "Bird's-eye view (Tepat dari atas, seperti mata burung)",
			Focus:        "Deep focus",
			Lighting:     "Golden hour (Cahaya hangat saat matahari terbit/terbenam)",
			ColorGrading: "Vibrant",
		},
		Audio: Audio{
			DialogueType:    noDialogue,
			Dialogues:       []DialogueLine{},
			Mood:            "Epik",
			BackgroundMusic: "Lagu tema utama yang megah dan membangun antusiasme",
		},
		VideoQuality: "4K",
		AspectRatio:  "16:9 (Lanskap)",
	},
	"Situasi Komedi": {
		Camera: Camera{
			Style:        "Cinematic",
			Movement:     "Static (Kamera diam, tidak bergerak)",
			Angle:        "Eye-level (Sejajar mata subjek, netral)",
			Focus:        "Deep focus",
			Lighting:     "Studio light (Pencahayaan terkontrol di studio)",
			ColorGrading: "Vibrant",
		},
		Audio: Audio{
			DialogueType: "Dialog",
			DialogueTone: "Cerdas, penuh punchline",
			Dialogues: []DialogueLine{
				{ID: "1", Speaker: "Komedian", Content: "Kamu yakin itu ide yang bagus? Terakhir kali kamu bilang begitu, kita berakhir dengan seekor llama di apartemen.", Language: languageIndonesia},
			},
			Mood:            "Senang",
			AmbientSound:    "Suara tawa penonton (laugh track)",
			BackgroundMusic: "Musik transisi singkat dan ceria",
		},
		VideoQuality: "HD",
		AspectRatio:  "16:9 (Lanskap)",
	},
	"Film Drama": {
		Camera: Camera{
			Style:        "Cinematic",
			Movement:     "Steadicam (Gerakan kamera halus mengikuti subjek)",
			Angle:        "Eye-level (Sejajar mata subjek, netral)",
			Focus:        "Shallow focus",
			Lighting:     "Low-key (Kontras tinggi, banyak bayangan, dramatis)",
			ColorGrading: "Muted",
		},
		Audio: Audio{
			DialogueType: "Dialog",
			DialogueTone: "Serius, emosional, mendalam",
			Dialogues: []DialogueLine{
				{ID: "1", Speaker: "Protagonis", Content: "Aku tidak tahu harus berkata apa lagi. Semuanya sudah berbeda sekarang.", Language: languageIndonesia},
			},
			Mood:            "Sedih",
			AmbientSound:    "Hujan di jendela, detak jam",
			BackgroundMusic: "Melodi piano lembut dan melankolis",
		},
		VideoQuality: "4K, Realistis",
		AspectRatio:  "16:9 (Lanskap)",
	},
	"Film Kartun": {
		VisualStyle: strPtr("Cartoon 3D"),
		Camera: Camera{
			Style:        "Anime",
			Movement:     "Zoom (Lensa mendekat/menjauh dari subjek)",
			Angle:        "Eye-level (Sejajar mata subjek, netral)",
			Focus:        "Deep focus",
			Lighting:     "High-key (Terang, minim bayangan, ceria)",
			ColorGrading: "Vibrant",
		},
		Audio: Audio{
			DialogueType: "Dialog",
			DialogueTone: "Berlebihan, energik",
			Dialogues: []DialogueLine{
				{ID: "1", Speaker: "Karakter A", Content: "Awas! Di belakangmu ada pisang raksasa!", Language: languageIndonesia},
			},
			Mood:            "Senang",
			AmbientSound:    "Efek suara kartun (boing, zap, bonk)",
			BackgroundMusic: "Musik orkestra yang ceria dan dinamis",
		},
		VideoQuality: "HD, Cartoon Style",
		AspectRatio:  "16:9 (Lanskap)",
	},
	"Film Sci-Fi": {
		Camera: Camera{
			Style:        "Sci-Fi",
			Movement:     "Dolly (Kamera bergerak maju/mundur)",
			Angle:        "Low-angle (Dari bawah, subjek tampak kuat/dominan)",
			Focus:        "Deep focus",
			Lighting:     "Backlight (Cahaya dari belakang subjek, menciptakan siluet)",
			ColorGrading: "Bleach Bypass",
		},
		Audio: Audio{
			DialogueType: "Dialog",
			DialogueTone: "Teknis, misterius",
			Dialogues: []DialogueLine{
				{ID: "1", Speaker: "Kapten", Content: "Sistem navigasi tidak merespon. Kita tersesat di sektor Gamma-7.", Language: languageIndonesia},
			},
			Mood:            "Misterius",
			AmbientSound:    "Dengungan mesin kapal, bunyi bip komputer",
			BackgroundMusic: "Musik synthesizer atmosferik dan menegangkan",
		},
		VideoQuality: "4K, Jernih",
		AspectRatio:  "16:9 (Lanskap)",
	},
}

// TemplateNames lists the presets in menu order, the empty "no template"
// entry first.
func TemplateNames() []string {
	return clone(templateOrder)
}

func LookupTemplate(name string) (Template, bool) {
	t, ok := templates[name]
	return t, ok
}

// ApplyTemplate overlays the named preset on s. Unknown names and the empty
// sentinel leave s unchanged. Dialogue lines are replaced wholesale, including
// lines the user added.
func ApplyTemplate(s State, name string) State {
	if name == "" {
		return s
	}
	t, ok := templates[name]
	if !ok {
		return s
	}

	out := s.Clone()
	out.Camera = t.Camera
	out.Audio = t.Audio
	out.Audio.Dialogues = cloneDialogues(t.Audio.Dialogues)
	out.VideoQuality = t.VideoQuality
	out.AspectRatio = t.AspectRatio
	if t.VisualStyle != nil {
		out.VisualStyle = *t.VisualStyle
	}
	return out
}

func strPtr(s string) *string {
	return &s
}
